package provider

import (
	"context"
	"errors"
	"testing"
)

// fakeClient implements Client for testing.
type fakeClient struct {
	name      string
	available bool
	text      string
	err       error
	calls     int
}

func (f *fakeClient) Name() string    { return f.name }
func (f *fakeClient) Available() bool { return f.available }
func (f *fakeClient) Generate(_ context.Context, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func TestChain_NoneConfigured(t *testing.T) {
	chain := NewChain([]Client{
		&fakeClient{name: "a"},
		&fakeClient{name: "b"},
	})

	_, _, err := chain.Send(context.Background(), "prompt", "")
	if !errors.Is(err, ErrNoneConfigured) {
		t.Fatalf("expected ErrNoneConfigured, got %v", err)
	}
}

func TestChain_Empty(t *testing.T) {
	chain := NewChain(nil)
	_, _, err := chain.Send(context.Background(), "prompt", "")
	if !errors.Is(err, ErrNoneConfigured) {
		t.Fatalf("expected ErrNoneConfigured, got %v", err)
	}
}

func TestChain_FirstSuccessStops(t *testing.T) {
	a := &fakeClient{name: "a", available: true, text: "from a"}
	b := &fakeClient{name: "b", available: true, text: "from b"}
	chain := NewChain([]Client{a, b})

	text, name, err := chain.Send(context.Background(), "prompt", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "from a" || name != "a" {
		t.Errorf("expected result from a, got %q from %q", text, name)
	}
	if a.calls != 1 {
		t.Errorf("expected a attempted once, got %d", a.calls)
	}
	if b.calls != 0 {
		t.Errorf("expected b not attempted, got %d calls", b.calls)
	}
}

func TestChain_FailoverPreservesOrder(t *testing.T) {
	a := &fakeClient{name: "a", available: true, err: &Error{Provider: "a", Kind: KindTransport}}
	b := &fakeClient{name: "b", available: true, text: "from b"}
	chain := NewChain([]Client{a, b})

	var failovers [][2]string
	chain.OnFailover(func(from, to string) {
		failovers = append(failovers, [2]string{from, to})
	})

	text, name, err := chain.Send(context.Background(), "prompt", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "from b" || name != "b" {
		t.Errorf("expected result from b, got %q from %q", text, name)
	}
	if a.calls != 1 || b.calls != 1 {
		t.Errorf("expected each provider attempted exactly once, got a=%d b=%d", a.calls, b.calls)
	}
	if len(failovers) != 1 || failovers[0] != [2]string{"a", "b"} {
		t.Errorf("expected one a->b failover, got %v", failovers)
	}
}

func TestChain_AllFail_PropagatesLastError(t *testing.T) {
	errA := &Error{Provider: "a", Kind: KindTransport}
	errB := &Error{Provider: "b", Kind: KindMalformedResponse}
	a := &fakeClient{name: "a", available: true, err: errA}
	b := &fakeClient{name: "b", available: true, err: errB}
	chain := NewChain([]Client{a, b})

	_, _, err := chain.Send(context.Background(), "prompt", "")
	var provErr *Error
	if !errors.As(err, &provErr) {
		t.Fatalf("expected *provider.Error, got %v", err)
	}
	if provErr.Provider != "b" {
		t.Errorf("expected last provider's error (b), got %s", provErr.Provider)
	}
}

func TestChain_SkipsUnconfigured(t *testing.T) {
	a := &fakeClient{name: "a"} // no credential
	b := &fakeClient{name: "b", available: true, text: "from b"}
	chain := NewChain([]Client{a, b})

	text, _, err := chain.Send(context.Background(), "prompt", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "from b" {
		t.Errorf("expected result from b, got %q", text)
	}
	if a.calls != 0 {
		t.Errorf("unconfigured provider must never be attempted, got %d calls", a.calls)
	}
}

func TestChain_PreferOverride(t *testing.T) {
	a := &fakeClient{name: "a", available: true, text: "from a"}
	b := &fakeClient{name: "b", available: true, text: "from b"}
	chain := NewChain([]Client{a, b})

	text, name, err := chain.Send(context.Background(), "prompt", "b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "from b" || name != "b" {
		t.Errorf("expected preferred provider b first, got %q from %q", text, name)
	}
	if a.calls != 0 {
		t.Errorf("expected a skipped when b preferred and succeeds, got %d calls", a.calls)
	}
}

// cancellingClient cancels the caller's context during its attempt, then fails.
type cancellingClient struct {
	name   string
	cancel context.CancelFunc
	calls  int
}

func (c *cancellingClient) Name() string    { return c.name }
func (c *cancellingClient) Available() bool { return true }
func (c *cancellingClient) Generate(_ context.Context, _ string) (string, error) {
	c.calls++
	c.cancel()
	return "", &Error{Provider: c.name, Kind: KindTransport, Err: context.Canceled}
}

func TestChain_CancelledContextStopsFailover(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := &cancellingClient{name: "a", cancel: cancel}
	b := &fakeClient{name: "b", available: true, text: "from b"}
	chain := NewChain([]Client{a, b})

	var failovers int
	chain.OnFailover(func(_, _ string) { failovers++ })

	_, _, err := chain.Send(ctx, "prompt", "")
	var provErr *Error
	if !errors.As(err, &provErr) || provErr.Provider != "a" {
		t.Fatalf("expected a's error, got %v", err)
	}
	if b.calls != 0 {
		t.Errorf("expected no attempts after cancellation, got %d", b.calls)
	}
	if failovers != 0 {
		t.Errorf("expected no failover recorded after cancellation, got %d", failovers)
	}
}

func TestChain_PreferUnknownIgnored(t *testing.T) {
	a := &fakeClient{name: "a", available: true, text: "from a"}
	chain := NewChain([]Client{a})

	text, _, err := chain.Send(context.Background(), "prompt", "nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "from a" {
		t.Errorf("expected result from a, got %q", text)
	}
}
