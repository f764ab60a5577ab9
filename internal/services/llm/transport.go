package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"vidsub/internal/services"
)

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatReply struct {
	Content string `json:"content"`
	Refusal string `json:"refusal"`
}

// Some gateways answer non-streaming calls with the streaming delta shape or
// the legacy completion text field, so all three are read.
type chatResponse struct {
	Choices []struct {
		Message      chatReply `json:"message"`
		Delta        chatReply `json:"delta"`
		Text         string    `json:"text"`
		FinishReason string    `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// retryAfter carries a server-provided Retry-After delay through the error chain.
type retryAfter struct {
	wait time.Duration
}

func (r *retryAfter) Error() string {
	return "retry after " + r.wait.String()
}

// post issues one request and returns the reply text. Failures worth another
// attempt are tagged services.ErrTransient.
func (c *Client) post(ctx context.Context, op string, payload chatRequest) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "llm", op, "encode request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(body))
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "llm", op, "build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		req.Header.Set("X-Title", c.cfg.Title)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return "", services.Wrap(services.ErrTransient, "llm", op, fmt.Sprintf("request timed out after %s", c.http.Timeout), err)
		}
		return "", services.Wrap(services.ErrExternalTool, "llm", op, "request failed", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "llm", op, "read response", err)
	}

	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", statusError(op, resp, raw)
	}

	var decoded chatResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "llm", op, "decode response "+snippet(string(raw)), err)
	}
	if decoded.Error != nil {
		return "", services.Wrap(services.ErrExternalTool, "llm", op, "api error: "+strings.TrimSpace(decoded.Error.Message), nil)
	}
	if len(decoded.Choices) == 0 {
		return "", services.Wrap(services.ErrExternalTool, "llm", op, "", errNoChoices)
	}

	var finish, refusal string
	for _, choice := range decoded.Choices {
		for _, text := range []string{choice.Message.Content, choice.Delta.Content, choice.Text} {
			if text = strings.TrimSpace(text); text != "" {
				return text, nil
			}
		}
		if finish == "" {
			finish = strings.TrimSpace(choice.FinishReason)
		}
		if refusal == "" {
			refusal = strings.TrimSpace(choice.Message.Refusal)
		}
	}
	msg := fmt.Sprintf("empty content (finish_reason=%q, refusal=%q, response=%s)", finish, refusal, snippet(string(raw)))
	return "", services.Wrap(services.ErrTransient, "llm", op, msg, nil)
}

func statusError(op string, resp *http.Response, body []byte) error {
	msg := fmt.Sprintf("http %d: %s", resp.StatusCode, snippet(string(body)))
	switch {
	case resp.StatusCode == http.StatusRequestTimeout,
		resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode >= http.StatusInternalServerError:
		var hint error
		if wait, ok := parseRetryAfter(resp.Header.Get("Retry-After")); ok {
			hint = &retryAfter{wait: wait}
		}
		return services.Wrap(services.ErrTransient, "llm", op, msg, hint)
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return services.Wrap(services.ErrConfiguration, "llm", op, msg, nil)
	default:
		return services.Wrap(services.ErrExternalTool, "llm", op, msg, nil)
	}
}

// parseRetryAfter accepts both the delay-seconds and HTTP-date forms.
func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second, seconds >= 0
	}
	if when, err := http.ParseTime(value); err == nil {
		if wait := time.Until(when); wait >= 0 {
			return wait, true
		}
	}
	return 0, false
}
