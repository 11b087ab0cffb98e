package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/bakkerme/subwatch/internal/config"
	"github.com/bakkerme/subwatch/internal/dedupe"
	"github.com/bakkerme/subwatch/internal/filter"
	"github.com/bakkerme/subwatch/internal/observability/otelx"
	"github.com/bakkerme/subwatch/internal/report"
	"github.com/bakkerme/subwatch/internal/runner"
	"github.com/bakkerme/subwatch/internal/schedule"
	"github.com/bakkerme/subwatch/internal/sources/reddit"
	"github.com/bakkerme/subwatch/internal/sources/reddit/impl"
)

func main() {
	opts, err := config.ParseArgs(os.Args[1:])
	if err != nil {
		if errors.Is(err, config.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	var doc *config.Document
	if opts.ConfigPath != "" {
		doc, err = config.LoadDocument(opts.ConfigPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(2)
		}
	}

	watch, warnings := config.Resolve(opts, doc)
	for _, warning := range warnings {
		fmt.Fprintln(os.Stderr, warning)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: watch.LogLevel}))
	env := config.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := otelx.Init(ctx, logger, env.OTel)
	if err != nil {
		logger.Warn("tracing disabled", "error", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			logger.Warn("otel shutdown failed", "error", err)
		}
	}()

	if err := run(ctx, logger, watch, env); err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching posts: %v\n", err)
		// os.Exit skips deferred calls.
		stop()
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = shutdown(flushCtx)
		cancel()
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, watch config.Watch, env config.EnvConfig) error {
	var fetcher reddit.Fetcher
	switch {
	case watch.UseAPI:
		fetcher = reddit.NewClientFetcher(logger, env.Reddit.HTTPTimeout, env.Reddit.UserAgent, "")
	case watch.Backend == reddit.FormatRSS:
		fetcher = impl.NewFeedFetcher(env.Reddit.HTTPTimeout, env.Reddit.UserAgent)
	default:
		fetcher = impl.NewFetcher(env.Reddit.HTTPTimeout, env.Reddit.UserAgent)
	}

	sched := schedule.Every(watch.Interval)
	if watch.Cron != "" {
		parsed, err := schedule.Parse(watch.Cron)
		if err != nil {
			return err
		}
		sched = parsed
	}

	rule, err := filter.Compile(watch.Filter)
	if err != nil {
		return err
	}

	reporter, err := report.New(report.Format(watch.Format), report.Options{
		Styled: watch.Color && os.Getenv("NO_COLOR") == "" && term.IsTerminal(int(os.Stdout.Fd())),
	})
	if err != nil {
		return err
	}

	r, err := runner.New(logger, fetcher, dedupe.NewMemoryStore(watch.SeenLimit), reporter, runner.Config{
		URL:            watch.URL(env.Reddit.Origin),
		Schedule:       sched,
		Filter:         rule,
		Retries:        watch.Retries,
		RetryBaseDelay: time.Second,
	})
	if err != nil {
		return err
	}

	logger.Info("watching subreddit",
		"subreddit", watch.Listing.Subreddit,
		"sort", watch.Listing.Sort,
		"interval", watch.Interval,
		"backend", backendName(watch),
	)
	return r.Run(ctx)
}

func backendName(watch config.Watch) string {
	if watch.UseAPI {
		return "api"
	}
	return string(watch.Backend)
}
