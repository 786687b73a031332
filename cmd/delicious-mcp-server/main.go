package main

import (
	"flag"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/delicious-go/delicious/internal/config"
	"github.com/delicious-go/delicious/internal/logger"
	"github.com/delicious-go/delicious/mcp"
)

func main() {
	var configPath, transport, addr, logLevel string
	flag.StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/delicious/config.toml)")
	flag.StringVar(&transport, "transport", "", "stdio or http, overrides the config file")
	flag.StringVar(&addr, "addr", "", "Listen address for the http transport")
	flag.StringVar(&logLevel, "log-level", "", "Log level: debug|info|warn|error")
	flag.Parse()

	// stdout carries the stdio protocol, so logs go to stderr.
	log.Logger = logger.NewWithWriter("delicious-mcp-server", os.Stderr)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}
	if transport != "" {
		cfg.MCP.Transport = transport
	}
	if addr != "" {
		cfg.MCP.Addr = addr
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("Invalid configuration")
		os.Exit(1)
	}
	zerolog.SetGlobalLevel(logger.ParseLevel(cfg.LogLevel))

	if err := mcp.RunMCPServer(cfg); err != nil {
		log.Error().Err(err).Msg("MCP server exited with error")
		os.Exit(1)
	}
}
