package mock

import (
	"context"
	"errors"

	"github.com/bakkerme/subwatch/internal/core"
)

// ErrExhausted is returned once every scripted response has been consumed.
var ErrExhausted = errors.New("mock fetcher: no responses left")

// Response is one scripted fetch result.
type Response struct {
	Snapshot core.Snapshot
	Err      error
}

// Fetcher replays Responses in order and records every requested URL.
type Fetcher struct {
	Responses []Response
	Calls     []string
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (core.Snapshot, error) {
	_ = ctx
	f.Calls = append(f.Calls, url)
	if len(f.Responses) == 0 {
		return nil, ErrExhausted
	}
	response := f.Responses[0]
	f.Responses = f.Responses[1:]
	if response.Err != nil {
		return nil, response.Err
	}
	return response.Snapshot, nil
}
