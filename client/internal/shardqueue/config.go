package shardqueue

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config groups all queue tunables. Values are read from environment variables
// prefixed with DELICIOUS_QUEUE_, e.g. DELICIOUS_QUEUE_SHARDS=8.
//
// MaxAttempts defaults to 1: a failed write is reported once and never
// replayed unless the caller opts in.
type Config struct {
	Shards         int           `envconfig:"SHARDS"          default:"4"`
	QueueSize      int           `envconfig:"QUEUE_SIZE"      default:"128"`
	EnqueueTimeout time.Duration `envconfig:"ENQUEUE_TIMEOUT" default:"100ms"`

	// ErrorHandler is called on the worker goroutine with the final error of
	// a failed job. Nil discards errors.
	ErrorHandler func(error) `envconfig:"-"`

	MaxAttempts int           `envconfig:"MAX_ATTEMPTS" default:"1"`
	BaseBackoff time.Duration `envconfig:"BASE_BACKOFF" default:"500ms"`
	MaxInterval time.Duration `envconfig:"MAX_INTERVAL" default:"30s"`
}

// EnvPrefix is the envconfig prefix used by LoadConfig.
const EnvPrefix = "DELICIOUS_QUEUE"

// LoadConfig populates Config from the environment.
func LoadConfig() (Config, error) {
	var c Config
	return c, envconfig.Process(EnvPrefix, &c)
}

func (c Config) withDefaults() Config {
	if c.Shards <= 0 {
		c.Shards = 4
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 128
	}
	if c.EnqueueTimeout <= 0 {
		c.EnqueueTimeout = 100 * time.Millisecond
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 1
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = 500 * time.Millisecond
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = 30 * time.Second
	}
	return c
}
