package client

// Functional options applied by New, in order. Each option validates its
// input and New returns the first error.

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/delicious-go/delicious/client/internal/api"
)

// Option configures a Client during construction in New.
type Option func(*Client) error

// WithEndpoint points the client at another API root, e.g. a sandbox.
func WithEndpoint(raw string) Option {
	return func(c *Client) error {
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("endpoint: %w", err)
		}
		if !u.IsAbs() || u.Host == "" {
			return fmt.Errorf("endpoint %q must be an absolute URL", raw)
		}
		c.endpoint = u
		return nil
	}
}

// WithCredentials stores username/password without checking them. Use
// Client.Authenticate to verify credentials against the service.
func WithCredentials(username, password string) Option {
	return func(c *Client) error {
		c.creds = api.Credentials{Username: username, Password: password}
		return nil
	}
}

// WithHTTPTimeout bounds a single HTTP exchange. Prefer per-call context
// deadlines; this is a coarse safety net. The value must be greater than zero.
func WithHTTPTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("http timeout must be > 0")
		}
		c.http.SetTimeout(d)
		return nil
	}
}

// WithHTTPClient sends requests through hc. Options that touch the transport
// (timeout, debug logging) should come after it.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return fmt.Errorf("http client must not be nil")
		}
		c.http = newRestyClient(hc)
		return nil
	}
}

// WithThrottle sets the minimum interval between two requests. Zero disables
// throttling.
func WithThrottle(d time.Duration) Option {
	return func(c *Client) error {
		if d < 0 {
			return fmt.Errorf("throttle must be >= 0")
		}
		c.throttle = d
		return nil
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) error {
		if ua == "" {
			return fmt.Errorf("user agent must not be empty")
		}
		c.userAgent = ua
		return nil
	}
}

// WithDebugLogging dumps every request and response at debug level when
// enabled. Dumps include credentials; do not enable it in production.
func WithDebugLogging(enabled bool) Option {
	return func(c *Client) error {
		c.debug = c.debug || enabled
		return nil
	}
}

// WithRequestStartedHook registers fn to run before every request is sent.
func WithRequestStartedHook(fn func(path string)) Option {
	return func(c *Client) error {
		c.hooks.RequestStarted = fn
		return nil
	}
}

// WithRequestCompletedHook registers fn to run after every request, with the
// request's error or nil.
func WithRequestCompletedHook(fn func(path string, err error)) Option {
	return func(c *Client) error {
		c.hooks.RequestCompleted = fn
		return nil
	}
}

// WithLoginTimeoutHook registers fn to run when AuthenticateWithTimeout times out.
func WithLoginTimeoutHook(fn func()) Option {
	return func(c *Client) error {
		c.hooks.LoginTimeout = fn
		return nil
	}
}

// WithErrorHandler receives the final error of every failed async write.
// It runs on a queue worker and must not block for long.
func WithErrorHandler(fn func(error)) Option {
	return func(c *Client) error {
		c.errorHandler = fn
		return nil
	}
}

// WithQueueRetries lets async writes retry recoverable failures (timeouts,
// throttling, 5xx) up to n times with exponential backoff. Synchronous calls
// never retry.
func WithQueueRetries(n int) Option {
	return func(c *Client) error {
		if n < 0 {
			return fmt.Errorf("queue retries must be >= 0")
		}
		c.queueRetries = n
		return nil
	}
}

// WithoutExecutor builds a synchronous-only client: no background workers are
// started and the *Async methods return ErrNoExecutor.
func WithoutExecutor() Option {
	return func(c *Client) error {
		c.noExec = true
		return nil
	}
}
