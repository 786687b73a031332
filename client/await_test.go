package client

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/delicious-go/delicious/client/internal/job"
	"github.com/delicious-go/delicious/client/internal/shardqueue"
)

// barrierExec records Barrier calls and answers them with err.
type barrierExec struct {
	keys []string
	err  error
}

func (b *barrierExec) Submit(context.Context, string, shardqueue.Job) error { return nil }
func (b *barrierExec) Stop() {}
func (b *barrierExec) Barrier(_ context.Context, key string) error {
	b.keys = append(b.keys, key)
	return b.err
}

func TestAwaitConsistency(t *testing.T) {
	c, err := New(WithEndpoint("http://example.com/v1/"), WithCredentials("alice", "secret"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer func() { _ = c.Close() }()

	key := "https://go.dev/"
	var ranFirst int32

	// enqueue a dummy job then barrier
	if err := c.exec.Submit(context.Background(), key, job.New(func(ctx context.Context) error {
		time.Sleep(30 * time.Millisecond)
		atomic.StoreInt32(&ranFirst, 1)
		return nil
	})); err != nil {
		t.Fatalf("submit: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	start := time.Now()
	if err := c.AwaitConsistency(ctx, key); err != nil {
		t.Fatalf("await consistency: %v", err)
	}
	elapsed := time.Since(start)

	if atomic.LoadInt32(&ranFirst) == 0 {
		t.Fatalf("barrier returned before previous job executed")
	}
	if elapsed < 25*time.Millisecond {
		t.Fatalf("AwaitConsistency returned too quickly: %v", elapsed)
	}
}

func TestAwaitConsistency_CanceledContext(t *testing.T) {
	c, err := New(WithEndpoint("http://example.com/v1/"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer func() { _ = c.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.AwaitConsistency(ctx, "https://go.dev/"); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestAwaitConsistency_UsesExecutorBarrier(t *testing.T) {
	c, err := New(WithEndpoint("http://example.com/v1/"), WithoutExecutor())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := c.AwaitConsistency(context.Background(), "https://go.dev/"); !errors.Is(err, ErrNoExecutor) {
		t.Fatalf("expected ErrNoExecutor, got %v", err)
	}

	exec := &barrierExec{}
	c.exec = exec
	if err := c.AwaitConsistency(context.Background(), "https://go.dev/"); err != nil {
		t.Fatalf("await consistency: %v", err)
	}
	if len(exec.keys) != 1 || exec.keys[0] != "https://go.dev/" {
		t.Fatalf("barrier keys = %v", exec.keys)
	}

	exec.err = &shardqueue.QueueFullError{Shard: 1, Length: 2, Capacity: 2}
	if err := c.AwaitConsistency(context.Background(), "https://go.dev/"); !errors.Is(err, ErrBackPressure) {
		t.Fatalf("expected ErrBackPressure, got %v", err)
	}
	exec.err = shardqueue.ErrExecutorClosed
	if err := c.AwaitConsistency(context.Background(), "https://go.dev/"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestNew_QueueConfigOnlyLoadedWithExecutor(t *testing.T) {
	t.Setenv("DELICIOUS_QUEUE_SHARDS", "many")

	c, err := New(WithEndpoint("http://example.com/v1/"), WithoutExecutor())
	if err != nil {
		t.Fatalf("sync-only client should ignore queue settings: %v", err)
	}
	_ = c.Close()

	if _, err := New(WithEndpoint("http://example.com/v1/")); err == nil {
		t.Fatal("expected queue config error for executor-backed client")
	}
}
