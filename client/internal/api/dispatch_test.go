package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"

	clienterrors "github.com/delicious-go/delicious/client/internal/errors"
)

func TestRequestPath_RequestShape(t *testing.T) {
	t.Parallel()
	srv, c := newServer(t, http.StatusOK, `{"update_time":"2024-01-02T03:04:05Z"}`)
	d := newDispatcher(t, srv.URL, Hooks{})

	body, err := d.RequestPath(context.Background(), "posts/get", map[string]string{"url": "http://a.b/c d"})
	if err != nil {
		t.Fatalf("RequestPath: %v", err)
	}
	if string(body) != `{"update_time":"2024-01-02T03:04:05Z"}` {
		t.Fatalf("unexpected body %s", body)
	}
	got := c.snapshot()
	if got.path != "/v1/posts/get" {
		t.Fatalf("path = %q", got.path)
	}
	if got.rawQuery != "format=json&url=http%3A%2F%2Fa.b%2Fc%20d" {
		t.Fatalf("raw query = %q", got.rawQuery)
	}
	if got.user != "alice" || got.pass != "secret" {
		t.Fatalf("basic auth = %q/%q", got.user, got.pass)
	}
	if got.agent != "delicious-test" {
		t.Fatalf("user agent = %q", got.agent)
	}
}

func TestRequestPath_LeadingSlashKeepsEndpointPrefix(t *testing.T) {
	t.Parallel()
	srv, c := newServer(t, http.StatusOK, `{"update_time":"2024-01-02T03:04:05Z"}`)
	var started []string
	d := newDispatcher(t, srv.URL, Hooks{RequestStarted: func(p string) { started = append(started, p) }})

	if _, err := d.RequestPath(context.Background(), "//posts/update", nil); err != nil {
		t.Fatalf("RequestPath: %v", err)
	}
	if got := c.snapshot().path; got != "/v1/posts/update" {
		t.Fatalf("path = %q, want /v1/posts/update", got)
	}
	if len(started) != 1 || started[0] != "posts/update" {
		t.Fatalf("hook saw %v", started)
	}
}

func TestMetricPath(t *testing.T) {
	t.Parallel()
	for path, want := range map[string]string{
		"posts/all":        "posts/all",
		"tags/bundles/set": "tags/bundles/set",
		"posts/recent":     "other",
		"posts/all/extra":  "other",
		"":                 "other",
	} {
		if got := metricPath(path); got != want {
			t.Fatalf("metricPath(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestRequestPath_StatusMapping(t *testing.T) {
	t.Parallel()
	cases := []struct {
		status int
		body   string
		kind   clienterrors.Kind
		is     error
	}{
		{http.StatusUnauthorized, "", clienterrors.KindInvalidCredentials, clienterrors.ErrInvalidCredentials},
		{http.StatusForbidden, "", clienterrors.KindInvalidCredentials, clienterrors.ErrInvalidCredentials},
		{http.StatusNotFound, "", clienterrors.KindNotFound, clienterrors.ErrNotFound},
		{http.StatusTooManyRequests, "", clienterrors.KindThrottled, clienterrors.ErrThrottled},
		{clienterrors.StatusThrottled, "", clienterrors.KindThrottled, clienterrors.ErrThrottled},
		{http.StatusServiceUnavailable, "", clienterrors.KindThrottled, clienterrors.ErrThrottled},
		{http.StatusGatewayTimeout, "", clienterrors.KindTimeout, clienterrors.ErrTimeout},
		{http.StatusInternalServerError, "oops", clienterrors.KindUnknown, nil},
		{http.StatusOK, "  \n", clienterrors.KindEmptyResponse, clienterrors.ErrEmptyResponse},
		{http.StatusOK, " null\n", clienterrors.KindEmptyResponse, clienterrors.ErrEmptyResponse},
		{http.StatusOK, `{"result_code":"item not found"}`, clienterrors.KindNotFound, clienterrors.ErrNotFound},
		{http.StatusOK, `{"result_code":"access denied"}`, clienterrors.KindInvalidCredentials, clienterrors.ErrInvalidCredentials},
		{http.StatusOK, `{"result_code":"something went wrong"}`, clienterrors.KindUnknown, nil},
	}
	for _, tc := range cases {
		srv, _ := newServer(t, tc.status, tc.body)
		d := newDispatcher(t, srv.URL, Hooks{})
		_, err := d.RequestPath(context.Background(), "posts/add", nil)
		if err == nil {
			t.Fatalf("status %d body %q: expected error", tc.status, tc.body)
		}
		if k := clienterrors.KindOf(err); k != tc.kind {
			t.Fatalf("status %d body %q: kind = %s, want %s", tc.status, tc.body, k, tc.kind)
		}
		if tc.is != nil && !errors.Is(err, tc.is) {
			t.Fatalf("status %d: errors.Is(%v) false for %v", tc.status, tc.is, err)
		}
	}
}

func TestRequestPath_ResultDone(t *testing.T) {
	t.Parallel()
	srv, _ := newServer(t, http.StatusOK, `{"result_code":"done"}`)
	d := newDispatcher(t, srv.URL, Hooks{})
	if _, err := d.RequestPath(context.Background(), "posts/delete", nil); err != nil {
		t.Fatalf("done result should succeed: %v", err)
	}
}

func TestRequestPath_NoCredentialsIssuesNoRequest(t *testing.T) {
	t.Parallel()
	srv, c := newServer(t, http.StatusOK, `{}`)
	d := newDispatcher(t, srv.URL, Hooks{})
	d.ResetCredentials()

	_, err := d.RequestPath(context.Background(), "posts/all", nil)
	if !errors.Is(err, clienterrors.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if c.snapshot().count != 0 {
		t.Fatal("request was sent without credentials")
	}
}

func TestRequestPath_NetworkError(t *testing.T) {
	t.Parallel()
	endpoint, _ := url.Parse("http://example.invalid/v1/")
	d, err := NewDispatcher(Config{Endpoint: endpoint, HTTP: resty.New().SetTransport(&errRT{})})
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}
	d.SetCredentials(Credentials{Username: "u", Password: "p"})
	_, err = d.RequestPath(context.Background(), "posts/all", nil)
	var ce *clienterrors.ClassifiedError
	if !errors.As(err, &ce) || ce.Kind != clienterrors.KindUnknown {
		t.Fatalf("expected unknown network error, got %v", err)
	}
}

func TestRequestPath_ContextDeadlineIsTimeout(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()
	d := newDispatcher(t, srv.URL, Hooks{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := d.RequestPath(ctx, "posts/all", nil); !errors.Is(err, clienterrors.ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestRequestPath_HooksRunOnSuccessAndFailure(t *testing.T) {
	t.Parallel()
	var started, completed, failed int32
	hooks := Hooks{
		RequestStarted: func(string) { atomic.AddInt32(&started, 1) },
		RequestCompleted: func(_ string, err error) {
			atomic.AddInt32(&completed, 1)
			if err != nil {
				atomic.AddInt32(&failed, 1)
			}
		},
	}
	ok, _ := newServer(t, http.StatusOK, `{}`)
	bad, _ := newServer(t, http.StatusNotFound, "")

	_, _ = newDispatcher(t, ok.URL, hooks).RequestPath(context.Background(), "tags/get", nil)
	_, _ = newDispatcher(t, bad.URL, hooks).RequestPath(context.Background(), "tags/get", nil)

	if started != 2 || completed != 2 || failed != 1 {
		t.Fatalf("started=%d completed=%d failed=%d", started, completed, failed)
	}
}

func TestRequestPath_ThrottleSpacesRequests(t *testing.T) {
	t.Parallel()
	srv, c := newServer(t, http.StatusOK, `{}`)
	endpoint, _ := url.Parse(srv.URL + "/v1/")
	d, err := NewDispatcher(Config{Endpoint: endpoint, HTTP: resty.New().SetDisableWarn(true), Throttle: 40 * time.Millisecond})
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}
	d.SetCredentials(Credentials{Username: "u", Password: "p"})

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := d.RequestPath(context.Background(), "tags/get", nil); err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
	}
	if elapsed := time.Since(start); elapsed < 75*time.Millisecond {
		t.Fatalf("3 throttled requests took %v, want >= 80ms", elapsed)
	}
	if c.snapshot().count != 3 {
		t.Fatalf("server saw %d requests", c.snapshot().count)
	}
}

func TestRequestPath_ThrottleRespectsContext(t *testing.T) {
	t.Parallel()
	srv, _ := newServer(t, http.StatusOK, `{}`)
	endpoint, _ := url.Parse(srv.URL + "/v1/")
	d, _ := NewDispatcher(Config{Endpoint: endpoint, HTTP: resty.New().SetDisableWarn(true), Throttle: time.Hour})
	d.SetCredentials(Credentials{Username: "u", Password: "p"})

	if _, err := d.RequestPath(context.Background(), "tags/get", nil); err != nil {
		t.Fatalf("first request: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := d.RequestPath(ctx, "tags/get", nil); !errors.Is(err, clienterrors.ErrTimeout) {
		t.Fatalf("expected timeout while throttled, got %v", err)
	}
}

func TestNewDispatcher_Validation(t *testing.T) {
	t.Parallel()
	if _, err := NewDispatcher(Config{}); err == nil {
		t.Fatal("expected error for nil http client")
	}
	rel, _ := url.Parse("v1/")
	if _, err := NewDispatcher(Config{HTTP: resty.New(), Endpoint: rel}); err == nil {
		t.Fatal("expected error for relative endpoint")
	}
	d, err := NewDispatcher(Config{HTTP: resty.New()})
	if err != nil {
		t.Fatalf("default endpoint: %v", err)
	}
	if d.Endpoint().String() != DefaultEndpoint {
		t.Fatalf("endpoint = %s", d.Endpoint())
	}
}
