// Package api implements the bookmark service endpoints on top of a single
// request primitive. Every endpoint is a GET against a path relative to the
// configured endpoint, authenticated with HTTP Basic credentials and answered
// with JSON.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	clienterrors "github.com/delicious-go/delicious/client/internal/errors"
	"github.com/delicious-go/delicious/client/internal/types"
)

// DefaultEndpoint is the public API root.
const DefaultEndpoint = "https://api.delicious.com/v1/"

// DefaultThrottle is the minimum interval between two requests.
const DefaultThrottle = time.Second

// Credentials are the HTTP Basic credentials sent with every request.
type Credentials struct {
	Username string
	Password string
}

func (c Credentials) empty() bool { return c.Username == "" || c.Password == "" }

// Hooks are optional callbacks around requests. RequestCompleted always runs
// once RequestStarted has.
type Hooks struct {
	RequestStarted   func(path string)
	RequestCompleted func(path string, err error)
	LoginTimeout     func()
}

// Config configures a Dispatcher.
type Config struct {
	Endpoint  *url.URL
	HTTP      *resty.Client
	Throttle  time.Duration
	UserAgent string
	Hooks     Hooks
}

// Dispatcher issues requests, one at a time per throttle slot, and maps every
// outcome to either a JSON payload or a classified error.
type Dispatcher struct {
	endpoint  *url.URL
	http      *resty.Client
	limiter   *rate.Limiter
	userAgent string
	hooks     Hooks

	mu    sync.RWMutex
	creds Credentials
}

// NewDispatcher builds a dispatcher. A zero Throttle disables throttling.
func NewDispatcher(cfg Config) (*Dispatcher, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("api: nil http client")
	}
	endpoint := cfg.Endpoint
	if endpoint == nil {
		u, err := url.Parse(DefaultEndpoint)
		if err != nil {
			return nil, err
		}
		endpoint = u
	}
	if !endpoint.IsAbs() {
		return nil, fmt.Errorf("api: endpoint %q must be absolute", endpoint)
	}
	// A trailing slash keeps the last path segment when resolving "posts/all".
	if !strings.HasSuffix(endpoint.Path, "/") {
		e := *endpoint
		e.Path += "/"
		endpoint = &e
	}

	d := &Dispatcher{
		endpoint:  endpoint,
		http:      cfg.HTTP,
		userAgent: cfg.UserAgent,
		hooks:     cfg.Hooks,
	}
	if cfg.Throttle > 0 {
		d.limiter = rate.NewLimiter(rate.Every(cfg.Throttle), 1)
	}
	return d, nil
}

// Endpoint returns the resolved API root.
func (d *Dispatcher) Endpoint() *url.URL {
	u := *d.endpoint
	return &u
}

// SetCredentials replaces the stored credentials.
func (d *Dispatcher) SetCredentials(c Credentials) {
	d.mu.Lock()
	d.creds = c
	d.mu.Unlock()
}

// Credentials returns the stored credentials.
func (d *Dispatcher) Credentials() Credentials {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.creds
}

// ResetCredentials forgets the stored credentials.
func (d *Dispatcher) ResetCredentials() { d.SetCredentials(Credentials{}) }

// RequestPath issues a GET for path with params using the stored credentials
// and returns the raw JSON reply.
func (d *Dispatcher) RequestPath(ctx context.Context, path string, params map[string]string) (json.RawMessage, error) {
	return d.request(ctx, d.Credentials(), path, params)
}

func (d *Dispatcher) request(ctx context.Context, creds Credentials, path string, params map[string]string) (json.RawMessage, error) {
	// Paths are relative to the endpoint; a leading slash would drop its prefix.
	path = strings.TrimLeft(path, "/")
	if err := ctx.Err(); err != nil {
		return nil, clienterrors.NewNetworkError(path, err)
	}
	if creds.empty() {
		return nil, clienterrors.New(clienterrors.KindInvalidCredentials, fmt.Errorf("%s: no credentials set", path))
	}

	if err := d.wait(ctx); err != nil {
		return nil, clienterrors.NewNetworkError(path, err)
	}

	if d.hooks.RequestStarted != nil {
		d.hooks.RequestStarted(path)
	}
	body, err := d.do(ctx, creds, path, params)
	if d.hooks.RequestCompleted != nil {
		d.hooks.RequestCompleted(path, err)
	}
	return body, err
}

// wait blocks on the throttle. A wait that would overrun the context
// deadline is reported as a deadline error.
func (d *Dispatcher) wait(ctx context.Context) error {
	if d.limiter == nil {
		return nil
	}
	start := time.Now()
	err := d.limiter.Wait(ctx)
	throttleWait.Observe(time.Since(start).Seconds())
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("throttle: %w: %v", context.DeadlineExceeded, err)
	}
	if err != nil {
		return fmt.Errorf("throttle: %w", ctx.Err())
	}
	return nil
}

func (d *Dispatcher) do(ctx context.Context, creds Credentials, path string, params map[string]string) (json.RawMessage, error) {
	q := make(map[string]string, len(params)+1)
	for k, v := range params {
		q[k] = v
	}
	q["format"] = "json"
	target := d.endpoint.ResolveReference(&url.URL{Path: path, RawQuery: EncodeQuery(q)})

	reqID := uuid.NewString()
	start := time.Now()
	req := d.http.R().
		SetContext(ctx).
		SetBasicAuth(creds.Username, creds.Password).
		SetHeader("Accept", "application/json")
	if d.userAgent != "" {
		req.SetHeader("User-Agent", d.userAgent)
	}
	resp, err := req.Get(target.String())
	elapsed := time.Since(start)
	requestDuration.WithLabelValues(metricPath(path)).Observe(elapsed.Seconds())

	if err != nil {
		cerr := clienterrors.NewNetworkError(path, err)
		d.record(reqID, path, 0, elapsed, cerr)
		return nil, cerr
	}

	status := resp.StatusCode()
	body := resp.Body()
	if status >= 300 {
		cerr := clienterrors.NewHTTPError(status, string(body), path)
		d.record(reqID, path, status, elapsed, cerr)
		return nil, cerr
	}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, jsonNull) {
		cerr := clienterrors.New(clienterrors.KindEmptyResponse, fmt.Errorf("%s: empty response", path))
		cerr.StatusCode = status
		d.record(reqID, path, status, elapsed, cerr)
		return nil, cerr
	}
	if code, ok := resultCode(trimmed); ok && code != types.ResultDone {
		cerr := clienterrors.NewResultError(path, code)
		cerr.StatusCode = status
		d.record(reqID, path, status, elapsed, cerr)
		return nil, cerr
	}

	d.record(reqID, path, status, elapsed, nil)
	return json.RawMessage(trimmed), nil
}

func (d *Dispatcher) record(reqID, path string, status int, elapsed time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = clienterrors.KindOf(err).String()
	}
	requestsTotal.WithLabelValues(metricPath(path), outcome).Inc()
	log.Debug().
		Str("request_id", reqID).
		Str("path", path).
		Int("status", status).
		Dur("elapsed", elapsed).
		AnErr("error", err).
		Msg("api request")
}

var jsonNull = []byte("null")

// knownPaths are the endpoints used as metric labels. Anything else passed
// to RequestPath is counted as "other".
var knownPaths = map[string]bool{
	pathUpdate: true, pathPostsAll: true, pathPostsGet: true, pathPostsAdd: true, pathPostsDelete: true,
	pathTagsGet: true, pathTagsDelete: true, pathTagsRename: true,
	pathBundlesAll: true, pathBundlesSet: true, pathBundlesDelete: true,
}

func metricPath(path string) string {
	if knownPaths[path] {
		return path
	}
	return "other"
}

// resultCode extracts result_code from an object reply. Arrays and replies
// without the field report ok=false.
func resultCode(body []byte) (string, bool) {
	if body[0] != '{' {
		return "", false
	}
	var r struct {
		ResultCode *string `json:"result_code"`
	}
	if err := json.Unmarshal(body, &r); err != nil || r.ResultCode == nil {
		return "", false
	}
	return *r.ResultCode, true
}

func decodeError(path string, err error) error {
	return clienterrors.New(clienterrors.KindUnknown, fmt.Errorf("%s: %w", path, err))
}
