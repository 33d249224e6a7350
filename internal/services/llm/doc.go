// Package llm wraps an OpenRouter-compatible chat completion API used as the
// optional classification oracle. Requests are JSON-only; responses are decoded
// tolerantly because models occasionally wrap payloads in code fences.
package llm
