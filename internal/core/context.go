package core

import "context"

type tickKey struct{}

func WithTick(ctx context.Context, tick int) context.Context {
	if ctx == nil || tick <= 0 {
		return ctx
	}
	return context.WithValue(ctx, tickKey{}, tick)
}

func TickFromContext(ctx context.Context) int {
	if ctx == nil {
		return 0
	}
	if v, ok := ctx.Value(tickKey{}).(int); ok {
		return v
	}
	return 0
}
