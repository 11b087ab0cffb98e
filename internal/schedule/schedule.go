package schedule

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

var parser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Every returns a schedule that fires exactly d after the previous activation, without
// snapping to whole seconds. A zero (or negative) interval fires immediately.
func Every(d time.Duration) cron.Schedule {
	if d <= 0 {
		return immediate{}
	}
	return fixedDelay(d)
}

// Parse accepts a standard cron expression (with optional seconds field), a descriptor such
// as "@hourly" or "@every 90s", and a leading "CRON_TZ=<zone>".
func Parse(spec string) (cron.Schedule, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, fmt.Errorf("cron schedule is required")
	}
	sched, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("parse cron schedule %q: %w", spec, err)
	}
	return sched, nil
}

// Wait blocks until the schedule's next activation after now, or until ctx is done.
func Wait(ctx context.Context, sched cron.Schedule, now time.Time) error {
	next := sched.Next(now)
	if next.IsZero() {
		return fmt.Errorf("schedule has no further activations")
	}
	delay := next.Sub(now)
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type immediate struct{}

func (immediate) Next(t time.Time) time.Time { return t }

type fixedDelay time.Duration

func (d fixedDelay) Next(t time.Time) time.Time { return t.Add(time.Duration(d)) }
