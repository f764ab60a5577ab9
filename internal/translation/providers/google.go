package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"vidsub/internal/translation"
)

// Google calls the public translate_a/single endpoint used by the Google
// Translate web widget. It accepts any source code, including "auto".
type Google struct {
	baseURL string
	client  *http.Client
}

// NewGoogle returns a Google provider. An empty baseURL uses the public endpoint.
func NewGoogle(baseURL string, client *http.Client) *Google {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = "https://translate.googleapis.com/translate_a/single"
	}
	return &Google{baseURL: baseURL, client: defaultClient(client)}
}

func (g *Google) Name() string { return "google" }

func (g *Google) Capability() translation.Capability { return translation.Capability{} }

func (g *Google) Translate(ctx context.Context, text, source, target string) (string, error) {
	query := url.Values{}
	query.Set("client", "gtx")
	query.Set("sl", source)
	query.Set("tl", target)
	query.Set("dt", "t")
	query.Set("q", text)

	body, err := get(ctx, g.client, g.Name(), g.baseURL+"?"+query.Encode())
	if err != nil {
		return "", err
	}
	return parseGoogle(body)
}

// parseGoogle concatenates the translated sentence chunks from a response
// shaped like [[["translated","original",...],...],null,"en",...].
func parseGoogle(body []byte) (string, error) {
	var payload []json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("google: decode response: %w", err)
	}
	if len(payload) == 0 {
		return "", errors.New("google: empty response")
	}
	var sentences [][]any
	if err := json.Unmarshal(payload[0], &sentences); err != nil {
		return "", fmt.Errorf("google: decode sentences: %w", err)
	}
	var b strings.Builder
	for _, sentence := range sentences {
		if len(sentence) == 0 {
			continue
		}
		if chunk, ok := sentence[0].(string); ok {
			b.WriteString(chunk)
		}
	}
	return strings.TrimSpace(b.String()), nil
}
