// Package reclaim batches a dispatcher's terminated-fiber stack sweep using
// github.com/joeycumines/go-microbatch, rather than releasing each stack
// back to its allocator (or pool) one at a time.
package reclaim

import (
	"context"
	"time"

	"github.com/joeycumines/fiberrt/internal/stackalloc"
	"github.com/joeycumines/go-microbatch"
)

// Releaser returns a stack region to wherever it came from: a bare
// Allocator.Deallocate, or a Pool.Put.
type Releaser interface {
	Release(stackalloc.Stack) error
}

type releaserFunc func(stackalloc.Stack) error

func (f releaserFunc) Release(s stackalloc.Stack) error { return f(s) }

// ReleaseFunc adapts a plain function to Releaser.
func ReleaseFunc(f func(stackalloc.Stack) error) Releaser { return releaserFunc(f) }

// StackReclaimer batches a dispatcher's terminated-fiber sweep: rather than
// calling Deallocate/Put once per terminated fiber discovered in a single
// sweep, it submits each stack as a job and lets microbatch.Batcher group
// them for the release backend.
type StackReclaimer struct {
	batcher *microbatch.Batcher[stackalloc.Stack]
}

// NewStackReclaimer constructs a reclaimer that flushes batches of up to
// maxSize stacks (or every flushInterval, whichever comes first) to
// release.
func NewStackReclaimer(release Releaser, maxSize int, flushInterval time.Duration) *StackReclaimer {
	b := microbatch.NewBatcher(&microbatch.BatcherConfig{
		MaxSize:       maxSize,
		FlushInterval: flushInterval,
	}, func(ctx context.Context, stacks []stackalloc.Stack) error {
		var firstErr error
		for _, s := range stacks {
			if err := release.Release(s); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	})
	return &StackReclaimer{batcher: b}
}

// Reclaim submits s for batched release. It does not block for the batch
// to actually flush, and it discards the submission's result, so an error
// from the release backend is not reported here; only a failed submit is.
// Close flushes any pending batch.
func (r *StackReclaimer) Reclaim(ctx context.Context, s stackalloc.Stack) error {
	_, err := r.batcher.Submit(ctx, s)
	return err
}

// Close stops accepting new jobs and flushes any pending batch.
func (r *StackReclaimer) Close() error {
	return r.batcher.Close()
}
