package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/delicious-go/delicious/client/internal/shardqueue"
)

// errRT is an http.RoundTripper that always fails (simulates network failure).
type errRT struct{}

func (e *errRT) RoundTrip(*http.Request) (*http.Response, error) { return nil, fmt.Errorf("boom") }

// failingExec implements types.Executor and always fails Submit.
type failingExec struct{}

func (f *failingExec) Submit(context.Context, string, shardqueue.Job) error {
	return fmt.Errorf("submit failed")
}

// seen is what a test server observed on its most recent request.
type seen struct {
	path     string
	rawQuery string
	query    url.Values
	user     string
	pass     string
	agent    string
	count    int
}

type captured struct {
	mu   sync.Mutex
	last seen
}

func (c *captured) snapshot() seen {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// newServer starts a test server answering every request with status/body
// and recording what it received.
func newServer(t *testing.T, status int, body string) (*httptest.Server, *captured) {
	t.Helper()
	c := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, _ := r.BasicAuth()
		c.mu.Lock()
		c.last = seen{
			path:     r.URL.Path,
			rawQuery: r.URL.RawQuery,
			query:    r.URL.Query(),
			user:     u,
			pass:     p,
			agent:    r.Header.Get("User-Agent"),
			count:    c.last.count + 1,
		}
		c.mu.Unlock()
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, c
}

// newDispatcher returns an unthrottled dispatcher for srv with credentials set.
func newDispatcher(t *testing.T, base string, hooks Hooks) *Dispatcher {
	t.Helper()
	endpoint, err := url.Parse(base + "/v1")
	if err != nil {
		t.Fatalf("parse endpoint: %v", err)
	}
	d, err := NewDispatcher(Config{
		Endpoint:  endpoint,
		HTTP:      resty.New().SetTimeout(2 * time.Second).SetDisableWarn(true),
		UserAgent: "delicious-test",
		Hooks:     hooks,
	})
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}
	d.SetCredentials(Credentials{Username: "alice", Password: "secret"})
	return d
}
