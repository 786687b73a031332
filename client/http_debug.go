package client

import (
	"net/http"
	"net/http/httputil"
	"os"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

// debugTransport dumps each request and response at debug level.
//
// Enable it with DELICIOUS_DEBUG=true, DEBUG=true or WithDebugLogging(true).
// Dumps contain the Authorization header and full bodies, so keep it to
// development and short production investigations.
type debugTransport struct{ base http.RoundTripper }

func (dt *debugTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := dt.base
	if base == nil {
		base = http.DefaultTransport
	}
	if reqDump, err := httputil.DumpRequestOut(req, true); err == nil {
		log.Debug().Str("method", req.Method).Str("url", req.URL.String()).Str("request_dump", string(reqDump)).Msg("HTTP request")
	}

	resp, err := base.RoundTrip(req)
	if err != nil {
		log.Error().Err(err).Str("method", req.Method).Str("url", req.URL.String()).Msg("HTTP request failed")
		return nil, err
	}

	if respDump, err := httputil.DumpResponse(resp, true); err == nil {
		log.Debug().Str("method", req.Method).Str("url", req.URL.String()).Int("status_code", resp.StatusCode).Str("response_dump", string(respDump)).Msg("HTTP response")
	}
	return resp, nil
}

// debugLoggingRequested reports whether DELICIOUS_DEBUG or DEBUG is "true".
func debugLoggingRequested() bool {
	return os.Getenv("DELICIOUS_DEBUG") == "true" || os.Getenv("DEBUG") == "true"
}

// restyLogger routes resty's internal messages to zerolog.
type restyLogger struct{}

func (restyLogger) Errorf(format string, v ...interface{}) { log.Error().Msgf(format, v...) }
func (restyLogger) Warnf(format string, v ...interface{})  { log.Warn().Msgf(format, v...) }
func (restyLogger) Debugf(format string, v ...interface{}) { log.Debug().Msgf(format, v...) }

// newRestyClient wraps hc, or a fresh client when hc is nil.
func newRestyClient(hc *http.Client) *resty.Client {
	var r *resty.Client
	if hc == nil {
		r = resty.New().SetTimeout(DefaultHTTPTimeout)
	} else {
		r = resty.NewWithClient(hc)
	}
	return r.SetLogger(restyLogger{})
}
