package client

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func TestOptions_Validation(t *testing.T) {
	cases := map[string]Option{
		"relative endpoint": WithEndpoint("/v1/"),
		"zero timeout":      WithHTTPTimeout(0),
		"nil http client":   WithHTTPClient(nil),
		"negative throttle": WithThrottle(-time.Second),
		"empty user agent":  WithUserAgent(""),
		"negative retries":  WithQueueRetries(-1),
	}
	for name, opt := range cases {
		if _, err := New(opt, WithoutExecutor()); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestOptions_Apply(t *testing.T) {
	c, err := New(
		WithEndpoint("http://sandbox.local/v1"),
		WithHTTPTimeout(5*time.Second),
		WithThrottle(0),
		WithUserAgent("agent/2"),
		WithQueueRetries(3),
		WithCredentials("alice", "secret"),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer func() { _ = c.Close() }()

	if got := c.Endpoint(); got != "http://sandbox.local/v1/" {
		t.Fatalf("endpoint = %q", got)
	}
	if c.http.GetClient().Timeout != 5*time.Second {
		t.Fatalf("http timeout not set")
	}
	if c.throttle != 0 || c.userAgent != "agent/2" {
		t.Fatalf("throttle/user agent not applied: %v %q", c.throttle, c.userAgent)
	}
	if c.queueRetries != 3 {
		t.Fatalf("queue retries = %d", c.queueRetries)
	}
	if c.Username() != "alice" {
		t.Fatalf("username = %q", c.Username())
	}
}

func TestOptions_Defaults(t *testing.T) {
	c, err := New(WithoutExecutor())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.Endpoint() != DefaultEndpoint {
		t.Fatalf("endpoint = %q", c.Endpoint())
	}
	if c.throttle != DefaultThrottle || c.userAgent != DefaultUserAgent {
		t.Fatalf("unexpected defaults: %v %q", c.throttle, c.userAgent)
	}
	if c.exec != nil {
		t.Fatalf("WithoutExecutor still started an executor")
	}
}

func TestWithHTTPClientAndDebugLogging(t *testing.T) {
	var called bool
	rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		called = true
		return &http.Response{StatusCode: 200, Body: http.NoBody, Header: make(http.Header)}, nil
	})
	c, err := New(WithHTTPClient(&http.Client{Transport: rt}), WithDebugLogging(true), WithoutExecutor())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	dt, ok := c.http.GetClient().Transport.(*debugTransport)
	if !ok {
		t.Fatalf("expected debugTransport, got %T", c.http.GetClient().Transport)
	}

	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, "http://example.com", strings.NewReader(""))
	if _, err := dt.RoundTrip(req); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if !called {
		t.Fatalf("base transport not invoked")
	}
}

func TestNew_AutoEnableDebugViaEnv(t *testing.T) {
	t.Setenv("DELICIOUS_DEBUG", "true")
	c, err := New(WithoutExecutor())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := c.http.GetClient().Transport.(*debugTransport); !ok {
		t.Fatalf("expected debugTransport to be installed when DELICIOUS_DEBUG=true")
	}
}

func TestDebugTransport_ErrorPath(t *testing.T) {
	rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return nil, context.DeadlineExceeded
	})
	dt := &debugTransport{base: rt}
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, "http://example.com", http.NoBody)
	if _, err := dt.RoundTrip(req); err == nil {
		t.Fatalf("expected error from underlying transport")
	}
}
