// Command delicious-sandbox serves the in-memory bookmark API for local
// trials of the CLI and MCP server.
package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/delicious-go/delicious/internal/config"
	"github.com/delicious-go/delicious/internal/logger"
	"github.com/delicious-go/delicious/internal/sandbox"
)

const (
	serviceName = "delicious-sandbox"

	defaultUser     = "demo"
	defaultPassword = "demo"
)

func main() {
	initLogging(os.Stdout, "")

	var configPath, addr string
	var minInterval time.Duration
	flag.StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/delicious/config.toml)")
	flag.StringVar(&addr, "addr", "", "Listen address, overrides the config file")
	flag.DurationVar(&minInterval, "min-interval", -1, "Answer requests closer than this with HTTP 999; 0 disables")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}
	if addr != "" {
		cfg.Sandbox.Addr = addr
	}
	if minInterval >= 0 {
		cfg.Sandbox.MinInterval = minInterval
	}
	initLogging(os.Stdout, cfg.LogLevel)

	if err := run(cfg); err != nil {
		log.Error().Stack().Err(err).Msg("sandbox exited with error")
		os.Exit(1)
	}
}

// initLogging installs the global logger. The sandbox and its middleware log
// through it, so the level applies to them too.
func initLogging(w io.Writer, level string) {
	log.Logger = logger.NewWithWriter(serviceName, w)
	zerolog.SetGlobalLevel(logger.ParseLevel(level))
}

func run(cfg config.Config) error {
	user, pass := cfg.Username, cfg.Password
	if user == "" || pass == "" {
		user, pass = defaultUser, defaultPassword
	}

	sb := sandbox.New(sandbox.Config{MinInterval: cfg.Sandbox.MinInterval})
	sb.AddUser(user, pass)

	root := mux.NewRouter()
	root.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	root.PathPrefix("/").Handler(sb)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:              cfg.Sandbox.Addr,
		Handler:           root,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", cfg.Sandbox.Addr).
			Str("prefix", sb.Prefix()).
			Str("username", user).
			Dur("min_interval", cfg.Sandbox.MinInterval).
			Msg("sandbox listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down sandbox")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			return err
		}
		log.Info().Int("requests", sb.Requests()).Msg("Sandbox exited")
		return nil
	case err := <-errCh:
		return err
	}
}
