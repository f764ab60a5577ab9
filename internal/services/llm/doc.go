// Package llm provides an OpenAI-compatible chat client used as the "llm"
// translation provider.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.Complete: send system/user prompts, receive plain text.
// Client.Translate: translate one subtitle line into a target language.
// Client.HealthCheck: verify API key and model availability (used by `vidsub deps`).
//
// # Retry Behaviour
//
// Only failures tagged services.ErrTransient are retried: HTTP 408/429/5xx,
// empty completions, and request timeouts. 401 and 403 come back as
// services.ErrConfiguration. Retries use exponential backoff (base 1s, max
// 10s, up to 5 attempts by default). Context cancellation aborts retries immediately.
//
// # Fallback
//
// Translation errors are returned to the caller; the translation chain moves
// on to the next provider and keeps the original text when every provider
// fails.
package llm
