package batch

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Chunking limits.
const (
	DefaultChunkSize = 500
	MinChunkSize     = 1
	MaxChunkSize     = 5000
)

type constError string

func (e constError) Error() string { return string(e) }

// Runner errors.
const (
	ErrInvalidChunkSize = constError("chunk size out of range")
	ErrNilHandler       = constError("chunk handler cannot be nil")
)

// Handler processes one chunk. index is the chunk's 0-based position.
type Handler[T any] func(ctx context.Context, chunk []T, index int) error

// Option configures a Runner.
type Option func(*options)

type options struct {
	concurrency int
	onProgress  func(ProgressSnapshot)
}

// WithConcurrency bounds how many chunks run at once. Values below 1 mean 1.
func WithConcurrency(n int) Option {
	return func(o *options) {
		o.concurrency = max(n, 1)
	}
}

// WithProgress calls fn after each completed chunk. fn may be called from
// several goroutines at once.
func WithProgress(fn func(ProgressSnapshot)) Option {
	return func(o *options) {
		o.onProgress = fn
	}
}

// Runner runs a Handler over fixed-size chunks of a slice.
type Runner[T any] struct {
	size int
	opts options
}

// New creates a Runner with the given chunk size.
func New[T any](size int, opts ...Option) (*Runner[T], error) {
	if size < MinChunkSize || size > MaxChunkSize {
		return nil, fmt.Errorf("%w: got %d, want %d-%d", ErrInvalidChunkSize, size, MinChunkSize, MaxChunkSize)
	}
	r := &Runner[T]{size: size, opts: options{concurrency: 1}}
	for _, opt := range opts {
		opt(&r.opts)
	}
	return r, nil
}

// ChunkSize returns the configured chunk size.
func (r *Runner[T]) ChunkSize() int {
	return r.size
}

// Chunks returns the [start, end) bounds of each chunk of n items.
func (r *Runner[T]) Chunks(n int) [][2]int {
	if n <= 0 {
		return nil
	}
	out := make([][2]int, 0, (n+r.size-1)/r.size)
	for start := 0; start < n; start += r.size {
		out = append(out, [2]int{start, min(start+r.size, n)})
	}
	return out
}

// Run calls h for every chunk of items. It stops at the first error, which
// is returned wrapped with the chunk index, and returns the progress
// reached. An empty items slice is a no-op.
func (r *Runner[T]) Run(ctx context.Context, items []T, h Handler[T]) (ProgressSnapshot, error) {
	if h == nil {
		return ProgressSnapshot{}, ErrNilHandler
	}
	chunks := r.Chunks(len(items))
	progress := NewProgress(len(items), len(chunks))
	if len(chunks) == 0 {
		return progress.Snapshot(), nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.concurrency)
	for i, c := range chunks {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := h(gctx, items[c[0]:c[1]], i); err != nil {
				return fmt.Errorf("chunk %d: %w", i, err)
			}
			snap := progress.Add(c[1] - c[0])
			if r.opts.onProgress != nil {
				r.opts.onProgress(snap)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return progress.Snapshot(), err
	}
	if err := ctx.Err(); err != nil {
		return progress.Snapshot(), err
	}
	return progress.Snapshot(), nil
}
