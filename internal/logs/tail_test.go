package logs_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"vidsub/internal/logs"
)

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vidsub.log")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func TestLast(t *testing.T) {
	path := writeLog(t, "a INFO\nb WARN\nc INFO\nd WARN\n")

	tests := []struct {
		name   string
		limit  int
		filter logs.Filter
		want   []string
	}{
		{name: "last two", limit: 2, want: []string{"c INFO", "d WARN"}},
		{name: "more than available", limit: 10, want: []string{"a INFO", "b WARN", "c INFO", "d WARN"}},
		{name: "filtered", limit: 5, filter: logs.Contains("warn"), want: []string{"b WARN", "d WARN"}},
		{name: "zero limit", limit: 0, want: nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			lines, offset, err := logs.Last(path, tc.limit, tc.filter)
			if err != nil {
				t.Fatalf("Last: %v", err)
			}
			if len(lines) != len(tc.want) {
				t.Fatalf("got %#v, want %#v", lines, tc.want)
			}
			for i := range lines {
				if lines[i] != tc.want[i] {
					t.Fatalf("line %d = %q, want %q", i, lines[i], tc.want[i])
				}
			}
			if offset != 28 {
				t.Fatalf("offset = %d, want 28", offset)
			}
		})
	}
}

func TestLastMissingFile(t *testing.T) {
	lines, offset, err := logs.Last(filepath.Join(t.TempDir(), "missing.log"), 5, nil)
	if err != nil || lines != nil || offset != 0 {
		t.Fatalf("expected empty result, got %v %d %v", lines, offset, err)
	}
}

func TestContains(t *testing.T) {
	match := logs.Contains("Run", " abc ")
	if !match("run abc started") {
		t.Fatal("expected all terms to match case-insensitively")
	}
	if match("run started") {
		t.Fatal("expected missing term to reject")
	}
	if !logs.Contains()("anything") {
		t.Fatal("expected empty filter to match")
	}
}

func TestFollowEmitsAppendedLines(t *testing.T) {
	path := writeLog(t, "start\n")
	_, offset, err := logs.Last(path, 1, nil)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu  sync.Mutex
		got []string
	)
	done := make(chan error, 1)
	go func() {
		done <- logs.Follow(ctx, path, offset, logs.Contains("keep"), 10*time.Millisecond, func(line string) {
			mu.Lock()
			got = append(got, line)
			mu.Unlock()
		})
	}()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	if _, err := f.WriteString("keep one\ndrop\nkeep partial"); err != nil {
		t.Fatalf("append: %v", err)
	}
	_ = f.Close()

	deadline := time.Now().Add(5 * time.Second)
	for {
		mu.Lock()
		n := len(got)
		mu.Unlock()
		if n >= 1 || time.Now().After(deadline) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0] != "keep one" {
		t.Fatalf("unexpected followed lines %#v", got)
	}
}

func TestFollowRestartsAfterTruncation(t *testing.T) {
	path := writeLog(t, "old line one\nold line two\n")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lines := make(chan string, 4)
	go func() {
		_ = logs.Follow(ctx, path, 26, nil, 10*time.Millisecond, func(line string) { lines <- line })
	}()

	if err := os.WriteFile(path, []byte("new\n"), 0o644); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	select {
	case line := <-lines:
		if line != "new" {
			t.Fatalf("got %q, want new", line)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("follow did not pick up rotated file")
	}
}
