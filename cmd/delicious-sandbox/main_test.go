package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/delicious-go/delicious/internal/sandbox"
)

func TestInitLogging_ReachesSandbox(t *testing.T) {
	prevLogger, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})

	sb := sandbox.New(sandbox.Config{})
	sb.AddUser("demo", "demo")
	get := func() {
		req := httptest.NewRequest(http.MethodGet, "/v1/posts/update?format=json", nil)
		req.SetBasicAuth("demo", "demo")
		rec := httptest.NewRecorder()
		sb.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	var debugBuf bytes.Buffer
	initLogging(&debugBuf, "debug")
	get()
	assert.Contains(t, debugBuf.String(), `"service":"delicious-sandbox"`)
	assert.Contains(t, debugBuf.String(), "sandbox: request")

	var warnBuf bytes.Buffer
	initLogging(&warnBuf, "warn")
	get()
	assert.Empty(t, warnBuf.String())
}
