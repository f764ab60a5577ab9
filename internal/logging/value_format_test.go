package logging

import (
	"errors"
	"log/slog"
	"testing"
	"time"
)

func TestFormatValue(t *testing.T) {
	tests := []struct {
		value slog.Value
		want  string
	}{
		{slog.StringValue("clip.mkv"), "clip.mkv"},
		{slog.StringValue("My Show S01E02.mkv"), `"My Show S01E02.mkv"`},
		{slog.StringValue(""), `""`},
		{slog.StringValue("a=b"), `"a=b"`},
		{slog.IntValue(42), "42"},
		{slog.BoolValue(true), "true"},
		{slog.Float64Value(0.25), "0.25"},
		{slog.DurationValue(1500*time.Microsecond + 2*time.Second), "2.002s"},
		{slog.AnyValue(errors.New("no speech detected")), `"no speech detected"`},
	}
	for _, tt := range tests {
		if got := formatValue(tt.value); got != tt.want {
			t.Errorf("formatValue(%v) = %s, want %s", tt.value, got, tt.want)
		}
	}
}

func TestAttrStringDoesNotQuote(t *testing.T) {
	if got := attrString(slog.StringValue("/media/My Show/ep1.mkv")); got != "/media/My Show/ep1.mkv" {
		t.Fatalf("attrString quoted value: %s", got)
	}
}
