package linecount

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/linetrend/pkg/ancestry"
	"github.com/Sumatoshi-tech/linetrend/pkg/gitlib"
	"github.com/Sumatoshi-tech/linetrend/pkg/objcache"
)

const tracerName = "linetrend/linecount"

// Options configures one Collect call.
type Options struct {
	Ancestry ancestry.Options

	// Workers is the number of commits evaluated concurrently. Values below
	// two evaluate sequentially.
	Workers int

	// OnStart receives the number of commits about to be evaluated.
	OnStart func(total int)

	// OnCommit receives each entry as soon as it is evaluated. With several
	// workers entries arrive in completion order; calls are never concurrent.
	OnCommit func(Entry)
}

// Collector evaluates every commit in an ancestry against one shared cache.
type Collector struct {
	commits   gitlib.CommitSource
	evaluator *Evaluator
	tracer    trace.Tracer
	logger    *slog.Logger
}

// CollectorOption customizes a Collector.
type CollectorOption func(*Collector)

// WithTracer sets the tracer used for run and per-commit spans.
func WithTracer(tracer trace.Tracer) CollectorOption {
	return func(c *Collector) { c.tracer = tracer }
}

// WithLogger sets the logger for per-commit debug records.
func WithLogger(logger *slog.Logger) CollectorOption {
	return func(c *Collector) { c.logger = logger }
}

// NewCollector creates a Collector over store.
func NewCollector(store gitlib.ObjectStore, opts ...CollectorOption) *Collector {
	c := &Collector{
		commits:   store,
		evaluator: NewEvaluator(store),
		tracer:    otel.Tracer(tracerName),
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Collect evaluates start and its ancestors and returns their line counts in
// traversal order, with start at ordinal 0. Each call uses a fresh cache.
// Any object access failure aborts the whole run; no partial series is returned.
func (c *Collector) Collect(ctx context.Context, start gitlib.Commit, opts Options) (*Series, error) {
	ctx, span := c.tracer.Start(ctx, "linecount.Collect", trace.WithAttributes(
		attribute.String("start", start.Hash.String()),
		attribute.String("ordering", opts.Ancestry.Ordering.String()),
		attribute.Int("workers", max(opts.Workers, 1)),
	))
	defer span.End()

	series, err := c.collect(ctx, start, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "collect failed")

		return nil, err
	}

	span.SetAttributes(
		attribute.Int("commits", series.Len()),
		attribute.Int64("cache.hits", series.Cache.Hits),
		attribute.Int64("cache.misses", series.Cache.Misses),
	)

	return series, nil
}

func (c *Collector) collect(ctx context.Context, start gitlib.Commit, opts Options) (*Series, error) {
	iter := ancestry.New(ctx, c.commits, start, opts.Ancestry)

	total, err := iter.Len()
	if err != nil {
		return nil, fmt.Errorf("walk ancestry: %w", err)
	}

	if opts.OnStart != nil {
		opts.OnStart(total)
	}

	cache := objcache.New()

	var entries []Entry

	if opts.Workers > 1 {
		entries, err = c.collectParallel(ctx, iter, total, cache, opts)
	} else {
		entries, err = c.collectSequential(ctx, iter, total, cache, opts)
	}

	if err != nil {
		return nil, err
	}

	return &Series{Entries: entries, Cache: cache.Stats()}, nil
}

func (c *Collector) collectSequential(
	ctx context.Context, iter *ancestry.Iterator, total int, cache *objcache.Cache, opts Options,
) ([]Entry, error) {
	entries := make([]Entry, 0, total)

	for {
		commit, err := iter.Next()
		if errors.Is(err, io.EOF) {
			return entries, nil
		}

		if err != nil {
			return nil, fmt.Errorf("walk ancestry: %w", err)
		}

		entry, err := c.evaluate(ctx, len(entries), commit, cache)
		if err != nil {
			return nil, err
		}

		entries = append(entries, entry)

		if opts.OnCommit != nil {
			opts.OnCommit(entry)
		}
	}
}

// collectParallel evaluates commits on a bounded pool. Results land in their
// ordinal slot so the output order matches the ancestry order.
func (c *Collector) collectParallel(
	ctx context.Context, iter *ancestry.Iterator, total int, cache *objcache.Cache, opts Options,
) ([]Entry, error) {
	entries := make([]Entry, total)

	var notify sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)

	for ordinal := range total {
		commit, err := iter.Next()
		if err != nil {
			_ = g.Wait()

			return nil, fmt.Errorf("walk ancestry: %w", err)
		}

		g.Go(func() error {
			entry, evalErr := c.evaluate(gctx, ordinal, commit, cache)
			if evalErr != nil {
				return evalErr
			}

			entries[ordinal] = entry

			if opts.OnCommit != nil {
				notify.Lock()
				opts.OnCommit(entry)
				notify.Unlock()
			}

			return nil
		})
	}

	err := g.Wait()
	if err != nil {
		return nil, err
	}

	return entries, nil
}

func (c *Collector) evaluate(ctx context.Context, ordinal int, commit gitlib.Commit, cache *objcache.Cache) (Entry, error) {
	ctx, span := c.tracer.Start(ctx, "linecount.Evaluate", trace.WithAttributes(
		attribute.String("commit", commit.Hash.String()),
		attribute.Int("ordinal", ordinal),
	))
	defer span.End()

	lines, err := c.evaluator.Evaluate(ctx, commit, cache)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "evaluate failed")

		return Entry{}, err
	}

	span.SetAttributes(attribute.Int("lines", lines))

	c.logger.DebugContext(ctx, "commit evaluated",
		"commit", commit.Hash.Short(),
		"ordinal", ordinal,
		"lines", lines,
	)

	return Entry{
		Ordinal: ordinal,
		Commit:  commit.Hash,
		When:    commit.When,
		Lines:   lines,
	}, nil
}
