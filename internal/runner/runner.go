package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/bakkerme/subwatch/internal/core"
	"github.com/bakkerme/subwatch/internal/dedupe"
	"github.com/bakkerme/subwatch/internal/filter"
	"github.com/bakkerme/subwatch/internal/report"
	"github.com/bakkerme/subwatch/internal/retry"
	"github.com/bakkerme/subwatch/internal/schedule"
	"github.com/bakkerme/subwatch/internal/sources/reddit"
)

// ErrEmptyFeed terminates the loop when a structurally valid listing has no posts.
var ErrEmptyFeed = errors.New("no posts found: the subreddit might be invalid or empty")

type State string

const (
	StateRunning    State = "running"
	StateTerminated State = "terminated"
)

var tracer = otel.Tracer("github.com/bakkerme/subwatch/internal/runner")

type Config struct {
	// URL is the listing endpoint, built once at startup.
	URL      string
	Schedule cron.Schedule
	Filter   *filter.Rule
	// Retries is the number of extra attempts for a transient fetch failure. Zero keeps a
	// failed fetch fatal on the first attempt.
	Retries        int
	RetryBaseDelay time.Duration
}

// TickResult counts what happened to the entries of one snapshot.
type TickResult struct {
	Fetched  int
	Reported int
	Skipped  int
	Filtered int
}

// Runner is the poll loop. It owns the seen set and is driven from a single goroutine.
type Runner struct {
	logger   *slog.Logger
	fetcher  reddit.Fetcher
	seen     dedupe.SeenStore
	reporter report.Reporter
	config   Config

	state  State
	reason error
	ticks  int

	now  func() time.Time
	wait func(ctx context.Context, sched cron.Schedule, now time.Time) error
}

func New(logger *slog.Logger, fetcher reddit.Fetcher, seen dedupe.SeenStore, reporter report.Reporter, config Config) (*Runner, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if reporter == nil {
		return nil, fmt.Errorf("reporter is required")
	}
	if config.URL == "" {
		return nil, fmt.Errorf("listing url is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if seen == nil {
		seen = dedupe.NewMemoryStore(0)
	}
	if config.Schedule == nil {
		config.Schedule = schedule.Every(0)
	}
	if config.Retries < 0 {
		config.Retries = 0
	}
	return &Runner{
		logger:   logger,
		fetcher:  fetcher,
		seen:     seen,
		reporter: reporter,
		config:   config,
		state:    StateRunning,
		now:      time.Now,
		wait:     schedule.Wait,
	}, nil
}

func (r *Runner) State() State {
	return r.state
}

// Reason is the error that terminated the loop, or nil while running.
func (r *Runner) Reason() error {
	return r.reason
}

// Run ticks until a fatal condition and returns it. Cancelling ctx stops the loop and
// returns nil.
func (r *Runner) Run(ctx context.Context) error {
	for {
		if _, err := r.Tick(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		now := r.now()
		if next := r.config.Schedule.Next(now); next.After(now) {
			r.logger.Info("Waiting for next poll", slog.Duration("interval", next.Sub(now)), slog.Int("seen", r.seen.Len()))
		}
		if err := r.wait(ctx, r.config.Schedule, now); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			r.terminate(err)
			return err
		}
	}
}

// Tick runs one fetch-filter-report cycle. Any returned error is fatal and leaves the runner
// terminated.
func (r *Runner) Tick(ctx context.Context) (TickResult, error) {
	if r.state == StateTerminated {
		return TickResult{}, r.reason
	}
	r.ticks++
	ctx = core.WithTick(core.WithLogger(ctx, r.logger), r.ticks)
	logger := core.LoggerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "subwatch.tick")
	defer span.End()
	span.SetAttributes(attribute.Int("subwatch.tick", r.ticks), attribute.String("reddit.url", r.config.URL))

	logger.Info("Loading new posts", slog.String("url", r.config.URL))
	snapshot, err := r.fetch(ctx)
	if err == nil && len(snapshot) == 0 {
		err = ErrEmptyFeed
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.terminate(err)
		return TickResult{}, err
	}

	result := TickResult{Fetched: len(snapshot)}
	for _, entry := range snapshot {
		if r.seen.HasSeen(entry.ID) {
			result.Skipped++
			continue
		}
		r.seen.MarkSeen(entry.ID)

		matched, err := r.config.Filter.Match(entry)
		if err != nil {
			logger.Warn("Filter rule failed, reporting post anyway", slog.String("post_id", entry.ID), slog.String("error", err.Error()))
			matched = true
		}
		if !matched {
			result.Filtered++
			continue
		}
		if entry.CreatedErr != nil {
			logger.Debug("Post has an unusable creation date", slog.String("post_id", entry.ID), slog.String("error", entry.CreatedErr.Error()))
		}
		if err := r.reporter.Report(ctx, entry); err != nil {
			err = fmt.Errorf("report post %s: %w", entry.ID, err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			r.terminate(err)
			return result, err
		}
		result.Reported++
	}

	span.SetAttributes(
		attribute.Int("subwatch.fetched", result.Fetched),
		attribute.Int("subwatch.reported", result.Reported),
		attribute.Int("subwatch.skipped", result.Skipped),
		attribute.Int("subwatch.filtered", result.Filtered),
	)
	logger.Info("Printed the posts",
		slog.Int("fetched", result.Fetched),
		slog.Int("reported", result.Reported),
		slog.Int("skipped", result.Skipped),
		slog.Int("filtered", result.Filtered),
	)
	return result, nil
}

func (r *Runner) fetch(ctx context.Context) (core.Snapshot, error) {
	if r.config.Retries == 0 {
		return r.fetcher.Fetch(ctx, r.config.URL)
	}

	logger := core.LoggerFromContext(ctx)
	var snapshot core.Snapshot
	err := retry.Do(ctx, retry.Config{
		Attempts:  r.config.Retries + 1,
		BaseDelay: r.config.RetryBaseDelay,
		MaxDelay:  30 * time.Second,
		Retryable: reddit.IsTransient,
		OnRetry: func(attempt int, delay time.Duration, err error) {
			logger.Warn("Fetch failed, retrying", slog.Int("attempt", attempt), slog.Duration("delay", delay), slog.String("error", err.Error()))
		},
	}, func() error {
		var err error
		snapshot, err = r.fetcher.Fetch(ctx, r.config.URL)
		return err
	})
	return snapshot, err
}

func (r *Runner) terminate(reason error) {
	r.state = StateTerminated
	r.reason = reason
}
