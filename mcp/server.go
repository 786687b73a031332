// Package mcp serves the bookmark client as Model Context Protocol tools.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"

	"github.com/delicious-go/delicious/client"
	"github.com/delicious-go/delicious/internal/config"
	"github.com/delicious-go/delicious/mcp/internal/handlers"
)

const (
	ServerName    = "delicious-mcp-server"
	ServerVersion = "0.1.0"

	// EndpointPath is where the streamable HTTP transport listens.
	EndpointPath = "/mcp"

	shutdownTimeout = 10 * time.Second
	readTimeout     = 5 * time.Second
	idleTimeout     = 120 * time.Second
)

type toolRegisterer interface {
	RegisterTools(s *server.MCPServer) error
}

// NewServer returns an MCP server exposing every bookmark, tag and bundle
// tool backed by c.
func NewServer(c *client.Client) (*server.MCPServer, error) {
	s := server.NewMCPServer(
		ServerName,
		ServerVersion,
		server.WithToolCapabilities(true),
		// Advertise empty resources & prompts so hosts stop getting -32601
		// for resources/list and prompts/list.
		server.WithResourceCapabilities(true, true),
		server.WithPromptCapabilities(true),
	)

	for name, h := range map[string]toolRegisterer{
		"bookmark": handlers.NewBookmarkHandler(c),
		"tag":      handlers.NewTagHandler(c),
	} {
		if err := h.RegisterTools(s); err != nil {
			return nil, fmt.Errorf("register %s tools: %w", name, err)
		}
	}
	return s, nil
}

// NewHTTPHandler wraps s in the streamable HTTP transport.
func NewHTTPHandler(s *server.MCPServer, heartbeat time.Duration) *server.StreamableHTTPServer {
	return server.NewStreamableHTTPServer(
		s,
		server.WithEndpointPath(EndpointPath),
		server.WithHeartbeatInterval(heartbeat),
	)
}

// RunMCPServer serves until stdin closes (stdio) or SIGINT/SIGTERM (http).
func RunMCPServer(cfg config.Config) error {
	log.Info().Str("endpoint", cfg.Endpoint).Str("username", cfg.Username).Msg("Creating client")
	c, err := client.New(cfg.ClientOptions()...)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Failed to create client")
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing client")
		}
	}()

	s, err := NewServer(c)
	if err != nil {
		return err
	}

	if cfg.MCP.Transport == "stdio" {
		log.Info().Msg("Starting Delicious MCP server (stdio transport)")
		return server.ServeStdio(s)
	}
	return serveHTTP(s, cfg.MCP)
}

func serveHTTP(s *server.MCPServer, cfg config.MCPConfig) error {
	log.Info().Str("addr", cfg.Addr).Str("path", EndpointPath).Msg("Starting Delicious MCP server (Streamable HTTP)")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	streamSrv := NewHTTPHandler(s, cfg.Heartbeat)
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      streamSrv,
		ReadTimeout:  readTimeout,
		WriteTimeout: 0, // SSE streams have no deadline
		IdleTimeout:  idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Info().Msg("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during HTTP server shutdown")
	}
	if err := streamSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during MCP server shutdown")
	}
	log.Info().Msg("MCP server shutdown complete")
	return nil
}
