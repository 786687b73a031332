package client

import (
	"context"

	"github.com/delicious-go/delicious/client/internal/shardqueue"
)

// executor abstracts the write queue used by the async methods.
type executor interface {
	Submit(context.Context, string, shardqueue.Job) error
	Barrier(ctx context.Context, key string) error
	Stop()
}
