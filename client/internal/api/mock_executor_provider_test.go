package api

import (
	"context"
	"sync"

	"github.com/delicious-go/delicious/client/internal/shardqueue"
)

// mockExec records submitted keys and runs jobs inline.
type mockExec struct {
	mu   sync.Mutex
	keys []string
	errs []error
}

func (m *mockExec) Submit(ctx context.Context, key string, job shardqueue.Job) error {
	err := job.Run(ctx)
	m.mu.Lock()
	m.keys = append(m.keys, key)
	m.errs = append(m.errs, err)
	m.mu.Unlock()
	return nil
}
