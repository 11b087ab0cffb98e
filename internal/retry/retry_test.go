package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errTransient = errors.New("transient")

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Config{Attempts: 3, BaseDelay: time.Millisecond, Jitter: time.Millisecond}, func() error {
		calls++
		if calls < 3 {
			return errTransient
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestDoReturnsLastErrorUnwrapped(t *testing.T) {
	err := Do(context.Background(), Config{Attempts: 2, BaseDelay: time.Millisecond, Jitter: time.Millisecond}, func() error {
		return errTransient
	})
	if err != errTransient {
		t.Fatalf("Do() error = %v, want %v", err, errTransient)
	}
}

func TestDoStopsOnNonRetryable(t *testing.T) {
	permanent := errors.New("permanent")
	calls := 0
	err := Do(context.Background(), Config{
		Attempts:  5,
		BaseDelay: time.Millisecond,
		Jitter:    time.Millisecond,
		Retryable: func(err error) bool { return errors.Is(err, errTransient) },
	}, func() error {
		calls++
		return permanent
	})
	if !errors.Is(err, permanent) {
		t.Fatalf("Do() error = %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestDoHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Do(ctx, Config{Attempts: 3, BaseDelay: time.Second}, func() error {
		return errTransient
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Do() error = %v, want context.Canceled", err)
	}
}
