package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/delicious-go/delicious/client/internal/api"
	clienterrors "github.com/delicious-go/delicious/client/internal/errors"
	"github.com/delicious-go/delicious/client/internal/job"
	"github.com/delicious-go/delicious/client/internal/shardqueue"
	"github.com/delicious-go/delicious/client/internal/types"
)

const (
	// DefaultEndpoint is the public API root.
	DefaultEndpoint = api.DefaultEndpoint
	// DefaultThrottle is the default minimum interval between requests.
	DefaultThrottle = api.DefaultThrottle
	// DefaultHTTPTimeout bounds a single HTTP exchange.
	DefaultHTTPTimeout = 30 * time.Second
	// DefaultUserAgent is sent unless WithUserAgent overrides it.
	DefaultUserAgent = "delicious-go/1.0"
)

// --------------------------------------------------------------------
// Client core
// --------------------------------------------------------------------

// Client talks to the bookmark service. It is safe for concurrent use.
type Client struct {
	// construction state, set by options
	http         *resty.Client
	endpoint     *url.URL
	throttle     time.Duration
	userAgent    string
	hooks        api.Hooks
	creds        api.Credentials
	debug        bool
	queueRetries int // -1 keeps the configured attempts
	errorHandler func(error)
	noExec       bool

	disp *api.Dispatcher
	exec executor

	closed atomic.Bool
}

// New constructs a Client. Without WithCredentials (or a later Authenticate)
// every call fails with ErrInvalidCredentials before reaching the network.
func New(opts ...Option) (*Client, error) {
	c := &Client{
		http:         newRestyClient(nil),
		throttle:     DefaultThrottle,
		userAgent:    DefaultUserAgent,
		queueRetries: -1,
	}

	// Auto-enable debug via env variable without changing code.
	if debugLoggingRequested() {
		opts = append(opts, WithDebugLogging(true))
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.debug {
		c.http.SetTransport(&debugTransport{base: c.http.GetClient().Transport})
	}

	var err error
	c.disp, err = api.NewDispatcher(api.Config{
		Endpoint:  c.endpoint,
		HTTP:      c.http,
		Throttle:  c.throttle,
		UserAgent: c.userAgent,
		Hooks:     c.hooks,
	})
	if err != nil {
		return nil, err
	}
	c.disp.SetCredentials(c.creds)

	if !c.noExec {
		exec, err := c.newDefaultExecutor()
		if err != nil {
			return nil, err
		}
		c.exec = exec
	}
	return c, nil
}

// Close stops the background executor after draining queued writes. Safe to
// call multiple times.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	if c.exec != nil {
		c.exec.Stop()
	}
	return nil
}

// Endpoint returns the API root requests are resolved against.
func (c *Client) Endpoint() string { return c.disp.Endpoint().String() }

// newDefaultExecutor builds the write queue from the DELICIOUS_QUEUE_*
// environment. Async failures are counted, logged and passed to the handler
// from WithErrorHandler.
func (c *Client) newDefaultExecutor() (*shardqueue.ShardExecutor, error) {
	cfg, err := shardqueue.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("queue config: %w", err)
	}
	if c.queueRetries >= 0 {
		cfg.MaxAttempts = c.queueRetries + 1
	}
	user := c.errorHandler
	cfg.ErrorHandler = func(err error) {
		asyncFailuresTotal.WithLabelValues(clienterrors.KindOf(err).String()).Inc()
		log.Warn().Err(err).Msg("async bookmark write failed")
		if user != nil {
			user(err)
		}
	}
	return shardqueue.NewShardExecutor(cfg), nil
}

// AwaitConsistency blocks until every write previously enqueued for
// bookmarkURL has been executed.
func (c *Client) AwaitConsistency(ctx context.Context, bookmarkURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.exec == nil {
		return ErrNoExecutor
	}
	return queueError(c.exec.Barrier(ctx, bookmarkURL))
}

// --------------------------------------------------------------------
// Authentication
// --------------------------------------------------------------------

// Authenticate verifies the credentials against the service and stores them
// for later calls. It returns the authenticated username.
func (c *Client) Authenticate(ctx context.Context, username, password string) (string, error) {
	return api.Authenticate(ctx, c.disp, username, password, 0)
}

// AuthenticateWithTimeout is Authenticate bounded by timeout. The login
// timeout hook runs if the bound is hit.
func (c *Client) AuthenticateWithTimeout(ctx context.Context, username, password string, timeout time.Duration) (string, error) {
	return api.Authenticate(ctx, c.disp, username, password, timeout)
}

// ResetAuthentication forgets the stored credentials.
func (c *Client) ResetAuthentication() { c.disp.ResetCredentials() }

// Username returns the stored username, empty when unauthenticated.
func (c *Client) Username() string { return c.disp.Credentials().Username }

// LastUpdate returns the time of the most recent change to the account.
func (c *Client) LastUpdate(ctx context.Context) (time.Time, error) {
	return api.LastUpdate(ctx, c.disp)
}

// --------------------------------------------------------------------
// Bookmark operations - delegated to internal/api
// --------------------------------------------------------------------

// Bookmarks fetches every bookmark of the account.
func (c *Client) Bookmarks(ctx context.Context) (*BookmarkList, error) {
	return api.ListBookmarks(ctx, c.disp, ListBookmarksRequest{Count: DefaultBookmarkCount})
}

// ListBookmarks fetches bookmarks matching req.
func (c *Client) ListBookmarks(ctx context.Context, req ListBookmarksRequest) (*BookmarkList, error) {
	return api.ListBookmarks(ctx, c.disp, req)
}

// Bookmark fetches the bookmark saved for bookmarkURL.
func (c *Client) Bookmark(ctx context.Context, bookmarkURL string) (*Bookmark, error) {
	return api.GetBookmark(ctx, c.disp, bookmarkURL)
}

// AddBookmark saves a bookmark and waits for the service to confirm it.
func (c *Client) AddBookmark(ctx context.Context, req AddBookmarkRequest) error {
	return api.AddBookmark(ctx, c.disp, req)
}

// AddBookmarkAsync validates req and enqueues the write. Writes for the same
// URL run in submission order; failures go to the WithErrorHandler handler.
func (c *Client) AddBookmarkAsync(ctx context.Context, req AddBookmarkRequest) (*EnqueueAck, error) {
	if c.exec == nil {
		return nil, ErrNoExecutor
	}
	ack, err := api.AddBookmarkAsync(ctx, c.exec, c.disp, req)
	if err != nil {
		return nil, queueError(err)
	}
	bookmarksEnqueuedTotal.WithLabelValues("add", job.ShardLabel(ack.Key)).Inc()
	return ack, nil
}

// DeleteBookmark removes the bookmark saved for bookmarkURL.
func (c *Client) DeleteBookmark(ctx context.Context, bookmarkURL string) error {
	return api.DeleteBookmark(ctx, c.disp, bookmarkURL)
}

// DeleteBookmarkAsync enqueues the removal of bookmarkURL.
func (c *Client) DeleteBookmarkAsync(ctx context.Context, bookmarkURL string) (*EnqueueAck, error) {
	if c.exec == nil {
		return nil, ErrNoExecutor
	}
	ack, err := api.DeleteBookmarkAsync(ctx, c.exec, c.disp, bookmarkURL)
	if err != nil {
		return nil, queueError(err)
	}
	bookmarksEnqueuedTotal.WithLabelValues("delete", job.ShardLabel(ack.Key)).Inc()
	return ack, nil
}

// --------------------------------------------------------------------
// Tag and bundle operations - delegated to internal/api
// --------------------------------------------------------------------

// Tags lists every tag with its use count, sorted by name.
func (c *Client) Tags(ctx context.Context) ([]Tag, error) {
	return api.ListTags(ctx, c.disp)
}

// DeleteTag removes tag from every bookmark.
func (c *Client) DeleteTag(ctx context.Context, tag string) error {
	return api.DeleteTag(ctx, c.disp, tag)
}

// RenameTag renames oldTag to newTag across all bookmarks.
func (c *Client) RenameTag(ctx context.Context, oldTag, newTag string) error {
	return api.RenameTag(ctx, c.disp, oldTag, newTag)
}

// TagBundles lists every tag bundle, sorted by name.
func (c *Client) TagBundles(ctx context.Context) ([]TagBundle, error) {
	return api.ListTagBundles(ctx, c.disp)
}

// SetTagBundle creates or replaces bundle.
func (c *Client) SetTagBundle(ctx context.Context, bundle string, tags []string) error {
	return api.SetTagBundle(ctx, c.disp, bundle, tags)
}

// DeleteTagBundle removes bundle.
func (c *Client) DeleteTagBundle(ctx context.Context, bundle string) error {
	return api.DeleteTagBundle(ctx, c.disp, bundle)
}

// --------------------------------------------------------------------
// Raw access
// --------------------------------------------------------------------

// RequestPath issues an authenticated GET for a path relative to the
// endpoint and returns the raw JSON reply. Leading slashes are ignored, so
// "/posts/update" still resolves under the endpoint. format=json is always
// added.
func (c *Client) RequestPath(ctx context.Context, path string, params map[string]string) (json.RawMessage, error) {
	return c.disp.RequestPath(ctx, path, params)
}

// URLEncode percent-encodes s, leaving only RFC 3986 unreserved characters
// unescaped.
func URLEncode(s string) string { return api.Escape(s) }

// queueError maps executor errors onto the public sentinels.
func queueError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, shardqueue.ErrQueueFull):
		return fmt.Errorf("%w: %v", ErrBackPressure, err)
	case errors.Is(err, shardqueue.ErrExecutorClosed):
		return fmt.Errorf("%w: %v", ErrClosed, err)
	}
	return err
}

var _ types.Executor = (*shardqueue.ShardExecutor)(nil)
