// Package config loads settings for the delicious binaries. Sources are
// layered: built-in defaults, then a TOML file, then DELICIOUS_* environment
// variables. Command-line flags are applied by the callers on top.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"

	"github.com/delicious-go/delicious/client"
)

// EnvPrefix prefixes every environment variable, e.g. DELICIOUS_USERNAME.
const EnvPrefix = "DELICIOUS"

// Config holds settings shared by the CLI, the MCP server and the sandbox.
//
// No field carries an envconfig default: defaults are applied before the file
// so an unset variable never overrides a file value.
type Config struct {
	Endpoint    string        `toml:"endpoint"     envconfig:"ENDPOINT"`
	Username    string        `toml:"username"     envconfig:"USERNAME"`
	Password    string        `toml:"password"     envconfig:"PASSWORD"`
	Throttle    time.Duration `toml:"throttle"     envconfig:"THROTTLE"`
	HTTPTimeout time.Duration `toml:"http_timeout" envconfig:"HTTP_TIMEOUT"`
	UserAgent   string        `toml:"user_agent"   envconfig:"USER_AGENT"`
	LogLevel    string        `toml:"log_level"    envconfig:"LOG_LEVEL"`
	Debug       bool          `toml:"debug"        envconfig:"DEBUG"`

	MCP     MCPConfig     `toml:"mcp"     envconfig:"MCP"`
	Sandbox SandboxConfig `toml:"sandbox" envconfig:"SANDBOX"`
}

// MCPConfig configures cmd/delicious-mcp-server.
type MCPConfig struct {
	// Transport is "stdio" or "http".
	Transport string        `toml:"transport" envconfig:"TRANSPORT"`
	Addr      string        `toml:"addr"      envconfig:"ADDR"`
	Heartbeat time.Duration `toml:"heartbeat" envconfig:"HEARTBEAT"`
}

// SandboxConfig configures cmd/delicious-sandbox.
type SandboxConfig struct {
	Addr        string        `toml:"addr"         envconfig:"ADDR"`
	MinInterval time.Duration `toml:"min_interval" envconfig:"MIN_INTERVAL"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Endpoint:    client.DefaultEndpoint,
		Throttle:    client.DefaultThrottle,
		HTTPTimeout: client.DefaultHTTPTimeout,
		UserAgent:   client.DefaultUserAgent,
		LogLevel:    "info",
		MCP: MCPConfig{
			Transport: "stdio",
			Addr:      ":11546",
			Heartbeat: 30 * time.Second,
		},
		Sandbox: SandboxConfig{
			Addr: "127.0.0.1:8787",
		},
	}
}

// DefaultPath is $XDG_CONFIG_HOME/delicious/config.toml (or the platform
// equivalent). It returns "" when no config directory is known.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "delicious", "config.toml")
}

// Load builds the configuration. An explicit path must exist; the default
// path is optional.
func Load(path string) (Config, error) {
	cfg := Defaults()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		switch {
		case err == nil:
			if undecoded := md.Undecoded(); len(undecoded) > 0 {
				log.Warn().Str("file", path).Interface("keys", undecoded).Msg("unknown config keys ignored")
			}
		case !explicit && errors.Is(err, fs.ErrNotExist):
		default:
			return Config{}, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("config env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	log.Debug().
		Str("endpoint", cfg.Endpoint).
		Str("username", cfg.Username).
		Bool("password_set", cfg.Password != "").
		Dur("throttle", cfg.Throttle).
		Str("mcp_transport", cfg.MCP.Transport).
		Msg("configuration loaded")
	return cfg, nil
}

// Validate checks values that would otherwise fail later and less clearly.
func (c Config) Validate() error {
	u, err := url.Parse(c.Endpoint)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("endpoint %q must be an absolute URL", c.Endpoint)
	}
	if c.Throttle < 0 {
		return fmt.Errorf("throttle must be >= 0, got %s", c.Throttle)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http_timeout must be > 0, got %s", c.HTTPTimeout)
	}
	switch c.MCP.Transport {
	case "stdio", "http":
	default:
		return fmt.Errorf("mcp transport must be stdio or http, got %q", c.MCP.Transport)
	}
	return nil
}

// ClientOptions translates the configuration into client options.
func (c Config) ClientOptions() []client.Option {
	opts := []client.Option{
		client.WithEndpoint(c.Endpoint),
		client.WithThrottle(c.Throttle),
		client.WithHTTPTimeout(c.HTTPTimeout),
		client.WithDebugLogging(c.Debug),
	}
	if c.UserAgent != "" {
		opts = append(opts, client.WithUserAgent(c.UserAgent))
	}
	if c.Username != "" || c.Password != "" {
		opts = append(opts, client.WithCredentials(c.Username, c.Password))
	}
	return opts
}
