package provider

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/studypal/assist-gateway/internal/config"
)

// ErrorKind classifies why a single provider attempt failed.
type ErrorKind string

const (
	// KindAuthMissing means the provider has no credential configured.
	// No network call is made.
	KindAuthMissing ErrorKind = "AUTH_MISSING"
	// KindTransport covers network failures, non-success statuses, and
	// success envelopes missing the expected payload fields.
	KindTransport ErrorKind = "TRANSPORT"
	// KindMalformedResponse means the HTTP call succeeded but the response
	// envelope could not be decoded.
	KindMalformedResponse ErrorKind = "MALFORMED_RESPONSE"
)

// Error is the failure of one provider attempt.
type Error struct {
	Provider string
	Kind     ErrorKind
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider %s: %s: %v", e.Provider, e.Kind, e.Err)
	}
	return fmt.Sprintf("provider %s: %s", e.Provider, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Client sends one prompt to one remote text-generation provider.
// A client never retries; trying the next provider is the chain's job.
type Client interface {
	Name() string
	// Available reports whether the provider credential is configured.
	Available() bool
	// Generate sends the prompt and returns the raw model text.
	Generate(ctx context.Context, prompt string) (string, error)
}

// BuildClients constructs clients from the providers config, preserving
// priority order. Unknown types get the OpenAI-compatible client.
func BuildClients(cfg *config.ProvidersConfig) []Client {
	clients := make([]Client, 0, len(cfg.Providers))
	for _, pc := range cfg.Providers {
		timeout := pc.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient := &http.Client{Timeout: timeout}

		switch pc.Type {
		case "gemini":
			clients = append(clients, NewGeminiClient(pc, httpClient))
		default:
			clients = append(clients, NewOpenAIClient(pc, httpClient))
		}
	}
	return clients
}
