// Package shardqueue runs bookmark writes on a fixed set of worker
// goroutines. Jobs are partitioned by a stable hash of their key (the
// bookmark URL) so writes to one bookmark apply in submission order while
// writes to different bookmarks proceed in parallel.
//
// Callers must not invoke Submit concurrently for the same key; FIFO ordering
// relies on that external serialisation.
package shardqueue

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"

	"github.com/delicious-go/delicious/client/internal/errors"
)

type queuedJob struct {
	ctx context.Context
	job Job
}

// ShardExecutor executes Jobs on per-shard workers.
type ShardExecutor struct {
	cfg    Config
	queues []chan queuedJob

	done   chan struct{}
	closed atomic.Bool

	wg sync.WaitGroup
}

// NewShardExecutor applies zero-value defaults and starts one worker per shard.
func NewShardExecutor(cfg Config) *ShardExecutor {
	cfg = cfg.withDefaults()
	p := &ShardExecutor{
		cfg:    cfg,
		queues: make([]chan queuedJob, cfg.Shards),
		done:   make(chan struct{}),
	}
	for i := range p.queues {
		ch := make(chan queuedJob, cfg.QueueSize)
		p.queues[i] = ch
		p.wg.Add(1)
		go p.runWorker(i, ch)
	}
	return p
}

// Submit enqueues job on the shard derived from key.
//
//   - ErrExecutorClosed once Stop has been called.
//   - *QueueFullError (errors.Is ErrQueueFull) when the shard stays full for
//     EnqueueTimeout.
//   - ctx.Err() if the caller context ends first.
func (p *ShardExecutor) Submit(ctx context.Context, key string, job Job) error {
	if p.closed.Load() {
		return ErrExecutorClosed
	}
	select {
	case <-p.done:
		return ErrExecutorClosed
	default:
	}

	shard := p.shardFor(key)
	ch := p.queues[shard]

	timer := time.NewTimer(p.cfg.EnqueueTimeout)
	defer timer.Stop()

	select {
	case ch <- queuedJob{ctx: ctx, job: job}:
		submissionsTotal.WithLabelValues(labelFor(shard)).Inc()
		return nil
	case <-p.done:
		return ErrExecutorClosed
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		queueFullTotal.WithLabelValues(labelFor(shard)).Inc()
		return &QueueFullError{Shard: shard, Length: len(ch), Capacity: cap(ch)}
	}
}

// Barrier waits until every job submitted for key before the call has run.
func (p *ShardExecutor) Barrier(ctx context.Context, key string) error {
	reached := make(chan struct{})
	if err := p.Submit(ctx, key, JobFunc(func(context.Context) error {
		close(reached)
		return nil
	})); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-reached:
		return nil
	}
}

// Stop refuses new work, lets every worker drain its queue and waits for them
// to exit. It is idempotent and safe for concurrent use.
func (p *ShardExecutor) Stop() {
	if !p.closed.CompareAndSwap(false, true) {
		return
	}
	log.Debug().Int("shards", p.cfg.Shards).Msg("shardqueue: stopping")
	close(p.done)
	p.wg.Wait()
	log.Debug().Msg("shardqueue: stopped")
}

// Close lets ShardExecutor satisfy io.Closer.
func (p *ShardExecutor) Close() error {
	p.Stop()
	return nil
}

// ------------------------- internals -------------------------

func (p *ShardExecutor) runWorker(idx int, ch <-chan queuedJob) {
	defer p.wg.Done()
	label := labelFor(idx)

	for {
		select {
		case qj := <-ch:
			p.process(label, qj, true)
			queueDepth.WithLabelValues(label).Set(float64(len(ch)))

		case <-p.done:
			if n := len(ch); n > 0 {
				log.Debug().Int("shard", idx).Int("pending", n).Msg("shardqueue: draining")
			}
			for {
				select {
				case qj := <-ch:
					p.process(label, qj, false)
				default:
					queueDepth.WithLabelValues(label).Set(0)
					return
				}
			}
		}
	}
}

// process runs one queued job to completion. Retries only happen while the
// executor is running; jobs drained during Stop get a single attempt.
func (p *ShardExecutor) process(label string, qj queuedJob, retry bool) {
	if qj.job == nil {
		return
	}
	if err := qj.ctx.Err(); err != nil {
		p.fail(label, err)
		return
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.cfg.BaseBackoff
	exp.MaxInterval = p.cfg.MaxInterval
	exp.Multiplier = 2
	exp.Reset()

	for attempt := 1; ; attempt++ {
		err := p.attempt(label, qj)
		if err == nil {
			return
		}
		if !retry || attempt >= p.cfg.MaxAttempts || errors.IsIrrecoverable(err) {
			p.fail(label, err)
			return
		}
		wait := exp.NextBackOff()
		log.Debug().Err(err).Int("attempt", attempt).Dur("wait", wait).Msg("shardqueue: retrying job")
		select {
		case <-time.After(wait):
		case <-p.done:
			// Stop arrived mid-backoff; give the job its last try during drain.
			p.fail(label, p.attempt(label, qj))
			return
		case <-qj.ctx.Done():
			p.fail(label, qj.ctx.Err())
			return
		}
	}
}

// attempt runs the job once, turning a panic into an error so one bad job
// cannot take its shard down.
func (p *ShardExecutor) attempt(label string, qj queuedJob) (err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("shard", label).Msg("shardqueue: job panic")
			err = fmt.Errorf("shardqueue: job panic: %v", r)
		}
		runDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
	}()
	return qj.job.Run(qj.ctx)
}

func (p *ShardExecutor) fail(label string, err error) {
	if err == nil {
		return
	}
	failuresTotal.WithLabelValues(label).Inc()
	if p.cfg.ErrorHandler == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("shardqueue: error handler panic")
		}
	}()
	p.cfg.ErrorHandler(err)
}

func (p *ShardExecutor) shardFor(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(p.cfg.Shards))
}
