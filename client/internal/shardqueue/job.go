package shardqueue

import "context"

// Job is a unit of work executed by a ShardExecutor, typically one write
// against the bookmark service.
type Job interface {
	Run(ctx context.Context) error
}

// JobFunc adapts a plain function to a Job.
type JobFunc func(ctx context.Context) error

// Run implements Job.
func (f JobFunc) Run(ctx context.Context) error { return f(ctx) }
