// Package providers implements the translation back ends used by the
// fallback chain: Google's public web endpoint, the Linguee and PONS
// dictionary sites, and an OpenAI-compatible LLM.
//
// FromConfig builds them in the configured order with one shared HTTP client.
package providers
