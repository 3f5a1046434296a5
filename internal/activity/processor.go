package activity

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rshade/carbonledger/internal/factors"
	"github.com/rshade/carbonledger/internal/logging"
	"github.com/rshade/carbonledger/internal/metrics"
)

// ElectricityStrategy selects how US electricity is priced.
type ElectricityStrategy int

const (
	// StrategyScope prices against eGRID per-MWh factors classified by
	// state, falling back to the national factor.
	StrategyScope ElectricityStrategy = iota

	// StrategyDivision resolves the utility's division and prices against
	// the division's net generation, with a renewable split.
	StrategyDivision
)

// String returns the strategy name used in configuration.
func (s ElectricityStrategy) String() string {
	if s == StrategyDivision {
		return "division"
	}
	return "scope"
}

// ParseElectricityStrategy parses "scope" or "division".
func ParseElectricityStrategy(s string) (ElectricityStrategy, error) {
	switch s {
	case "", "scope":
		return StrategyScope, nil
	case "division":
		return StrategyDivision, nil
	default:
		return StrategyScope, fmt.Errorf("unknown electricity strategy %q", s)
	}
}

// Dependencies are the collaborators a Processor reads through.
// Only Factors is required; activities needing a missing collaborator fail
// individually.
type Dependencies struct {
	Factors   *factors.Resolver
	Utilities factors.UtilityLookupStore
	Lookups   factors.ActivityLookupStore
	Geocoder  Geocoder
	Metrics   *metrics.Recorder
}

// Option configures a Processor.
type Option func(*Processor)

// WithConcurrency bounds how many activities are priced at once.
func WithConcurrency(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithTimeout sets the batch deadline. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(p *Processor) {
		p.timeout = d
	}
}

// WithElectricityStrategy selects the US electricity pricing path.
func WithElectricityStrategy(s ElectricityStrategy) Option {
	return func(p *Processor) {
		p.strategy = s
	}
}

// Processor prices activities. It is safe for concurrent use.
type Processor struct {
	deps        Dependencies
	concurrency int
	timeout     time.Duration
	strategy    ElectricityStrategy
}

// NewProcessor creates a Processor.
func NewProcessor(deps Dependencies, opts ...Option) *Processor {
	p := &Processor{
		deps:        deps,
		concurrency: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process prices every activity. Output index i holds input i.
//
// Per-activity failures are recorded in ProcessedActivity.Error. A factor
// store that cannot be reached, or cancellation of ctx, aborts the batch
// and is returned. When the batch timeout expires, every activity not yet
// priced is marked with a timeout error; Process never returns an
// activity without either a result or an error.
func (p *Processor) Process(ctx context.Context, activities []Activity) ([]ProcessedActivity, error) {
	log := logging.FromContext(ctx)
	start := time.Now()

	stamp := start.UTC()
	out := make([]ProcessedActivity, len(activities))
	for i, a := range activities {
		out[i].Activity = a
		out[i].ProcessedAt = stamp
	}
	if len(activities) == 0 {
		return out, nil
	}

	runCtx, cancel := ctx, context.CancelFunc(func() {})
	if p.timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, p.timeout)
	}
	defer cancel()

	var (
		mu     sync.Mutex
		done   = make([]bool, len(activities))
		closed bool
	)
	record := func(i int, res *Result, errMsg string) {
		mu.Lock()
		defer mu.Unlock()
		if closed || done[i] {
			return
		}
		out[i].Result = res
		out[i].Error = errMsg
		done[i] = true
	}

	g, gctx := errgroup.WithContext(runCtx)
	g.SetLimit(p.concurrency)

	waitErr := make(chan error, 1)
	go func() {
		for i := range activities {
			g.Go(func() error {
				if gctx.Err() != nil {
					return nil
				}
				a := activities[i]
				began := time.Now()
				res, err := p.ProcessActivity(gctx, a)
				switch {
				case err == nil:
					p.deps.Metrics.ObserveActivity(NormalizeType(a.Type), metrics.StatusOK, time.Since(began), res.EmissionsKg())
					record(i, res, "")
				case errors.Is(err, factors.ErrStoreUnavailable):
					return fmt.Errorf("activity %s: %w", a.ID, err)
				case ctx.Err() != nil:
					return ctx.Err()
				case runCtx.Err() != nil:
					// Deadline expired mid-flight; the sweep below marks it.
				default:
					p.deps.Metrics.ObserveActivity(NormalizeType(a.Type), metrics.StatusError, time.Since(began), 0)
					record(i, nil, err.Error())
				}
				return nil
			})
		}
		waitErr <- g.Wait()
	}()

	select {
	case err := <-waitErr:
		if err != nil {
			log.Error().
				Ctx(ctx).
				Str("component", "activity").
				Str("operation", "process").
				Err(err).
				Msg("batch aborted")
			return nil, err
		}
	case <-runCtx.Done():
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	timeoutMsg := fmt.Errorf("%w: activity not resolved within %s", ErrActivityTimeout, p.timeout).Error()
	mu.Lock()
	closed = true
	timedOut := 0
	for i := range out {
		if !done[i] {
			out[i].Result = nil
			out[i].Error = timeoutMsg
			timedOut++
			p.deps.Metrics.ObserveActivity(NormalizeType(out[i].Activity.Type), metrics.StatusTimeout, p.timeout, 0)
		}
	}
	mu.Unlock()

	failed := 0
	for _, pa := range out {
		if pa.Failed() {
			failed++
		}
	}
	elapsed := time.Since(start)
	p.deps.Metrics.ObserveBatch(len(activities), elapsed)
	log.Info().
		Ctx(ctx).
		Str("component", "activity").
		Str("operation", "process").
		Int("activities", len(activities)).
		Int("failed", failed).
		Int("timed_out", timedOut).
		Dur("duration_ms", elapsed).
		Msg("batch processed")

	return out, nil
}
