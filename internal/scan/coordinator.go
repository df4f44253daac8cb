package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/techcorp/EyeSpy/internal/model"
)

// DefaultConcurrency is the number of workers used when no option says
// otherwise.
const DefaultConcurrency = 50

// ErrInvalidConfig is returned for coordinator settings that cannot work,
// such as a non-positive worker count.
var ErrInvalidConfig = errors.New("invalid scan configuration")

// Classifier produces a verdict for one address.
// classifier.Classifier satisfies it.
type Classifier interface {
	Classify(ctx context.Context, address string) model.HostVerdict
}

// Coordinator runs a scan across a fixed pool of workers.
type Coordinator struct {
	classifier  Classifier
	concurrency int
	logger      *slog.Logger

	done  atomic.Int64
	total atomic.Int64
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithConcurrency sets the number of workers. Values below 1 make New fail.
func WithConcurrency(n int) Option {
	return func(c *Coordinator) {
		c.concurrency = n
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// New creates a Coordinator.
func New(classifier Classifier, opts ...Option) (*Coordinator, error) {
	c := &Coordinator{
		classifier:  classifier,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.classifier == nil {
		return nil, fmt.Errorf("%w: classifier is required", ErrInvalidConfig)
	}
	if c.concurrency < 1 {
		return nil, fmt.Errorf("%w: concurrency must be at least 1, got %d", ErrInvalidConfig, c.concurrency)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c, nil
}

// Concurrency returns the configured worker count.
func (c *Coordinator) Concurrency() int {
	return c.concurrency
}

// Progress returns how many addresses have been classified and how many
// were queued for the current or last run. It never blocks the workers.
// With overlapping runs on one Coordinator it reflects the latest run only.
func (c *Coordinator) Progress() (done, total int64) {
	return c.done.Load(), c.total.Load()
}

// Run classifies every address and returns the positive verdicts in
// completion order.
//
// If ctx is cancelled, workers stop taking new addresses, in-flight probes
// abort, and Run returns ctx.Err() without verdicts.
func (c *Coordinator) Run(ctx context.Context, addresses []string) ([]model.HostVerdict, error) {
	results := &verdicts{items: make([]model.HostVerdict, 0)}
	c.done.Store(0)
	c.total.Store(int64(len(addresses)))

	queue := make(chan string, len(addresses))
	for _, addr := range addresses {
		queue <- addr
	}
	close(queue)

	workers := min(c.concurrency, len(addresses))
	c.logger.Info("starting scan",
		"hosts", len(addresses),
		"workers", workers,
	)
	startTime := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			return c.work(gctx, queue, results)
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		c.logger.Warn("scan cancelled",
			"classified", c.done.Load(),
			"hosts", len(addresses),
			"error", err,
		)
		return nil, err
	}

	results.mu.Lock()
	defer results.mu.Unlock()

	c.logger.Info("scan complete",
		"hosts", len(addresses),
		"positive", len(results.items),
		"elapsed", time.Since(startTime),
	)
	return results.items, nil
}

// verdicts collects the positive verdicts of one run.
type verdicts struct {
	mu    sync.Mutex
	items []model.HostVerdict
}

// work drains the queue until it is empty or ctx is cancelled.
func (c *Coordinator) work(ctx context.Context, queue <-chan string, results *verdicts) error {
	for addr := range queue {
		if err := ctx.Err(); err != nil {
			return err
		}

		verdict := c.classifier.Classify(ctx, addr)

		// A verdict finished after cancellation may be incomplete.
		if err := ctx.Err(); err != nil {
			return err
		}

		if verdict.Positive() {
			results.mu.Lock()
			results.items = append(results.items, verdict)
			results.mu.Unlock()
			c.logger.Debug("camera candidate found",
				"address", verdict.Address,
				"signals", verdict.Signals(),
			)
		}
		c.done.Add(1)
	}
	return nil
}
