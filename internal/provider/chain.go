package provider

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrNoneConfigured is returned when every provider in the chain is missing
// its credential. Callers route straight to their manual fallback, if any.
var ErrNoneConfigured = errors.New("no provider configured")

// FailoverFunc observes each transition to a fallback provider. Observability
// only; it must not influence control flow.
type FailoverFunc func(from, to string)

// AttemptFunc observes each provider attempt and its outcome. Observability
// only; it must not influence control flow.
type AttemptFunc func(provider string, err error)

// Chain tries providers in fixed priority order for a single prompt.
// It is not a load balancer: no randomness, no weighting, no health-based
// reordering.
type Chain struct {
	mu         sync.RWMutex
	clients    []Client
	onFailover FailoverFunc
	onAttempt  AttemptFunc
}

func NewChain(clients []Client) *Chain {
	return &Chain{clients: clients}
}

// Reload swaps the client list, preserving registered observers. Used on
// config hot-reload.
func (c *Chain) Reload(clients []Client) {
	c.mu.Lock()
	c.clients = clients
	c.mu.Unlock()
}

// OnFailover registers an observer for chain failovers.
func (c *Chain) OnFailover(fn FailoverFunc) { c.onFailover = fn }

// OnAttempt registers an observer for individual provider attempts.
func (c *Chain) OnAttempt(fn AttemptFunc) { c.onAttempt = fn }

// Configured returns the credentialed clients in priority order. If prefer
// names one of them, that client is moved to the front.
func (c *Chain) Configured(prefer string) []Client {
	c.mu.RLock()
	current := c.clients
	c.mu.RUnlock()

	avail := make([]Client, 0, len(current))
	for _, cl := range current {
		if cl.Available() {
			avail = append(avail, cl)
		}
	}
	if prefer == "" {
		return avail
	}
	for i, cl := range avail {
		if cl.Name() == prefer && i > 0 {
			reordered := make([]Client, 0, len(avail))
			reordered = append(reordered, cl)
			reordered = append(reordered, avail[:i]...)
			reordered = append(reordered, avail[i+1:]...)
			return reordered
		}
	}
	return avail
}

// Send attempts each configured provider in order and returns the first
// success. The prefer argument is a per-call override naming the provider to
// try first; unknown names are ignored. The last provider's error is
// propagated when all attempts fail.
func (c *Chain) Send(ctx context.Context, prompt, prefer string) (string, string, error) {
	clients := c.Configured(prefer)
	if len(clients) == 0 {
		return "", "", ErrNoneConfigured
	}

	var lastErr error
	for i, cl := range clients {
		text, err := cl.Generate(ctx, prompt)
		if c.onAttempt != nil {
			c.onAttempt(cl.Name(), err)
		}
		if err == nil {
			return text, cl.Name(), nil
		}
		lastErr = err

		// A cancelled caller gets no further attempts; the remaining
		// providers would each fail fast with a misleading transport error.
		if ctx.Err() != nil {
			return "", "", lastErr
		}

		if i < len(clients)-1 {
			next := clients[i+1]
			slog.Warn("provider failed, trying next",
				"provider", cl.Name(),
				"next", next.Name(),
				"error", err,
			)
			if c.onFailover != nil {
				c.onFailover(cl.Name(), next.Name())
			}
		}
	}
	return "", "", lastErr
}
