package impl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bakkerme/subwatch/internal/core"
	"github.com/bakkerme/subwatch/internal/sources/reddit"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultUserAgent = "subwatch/0.1"
	maxBodySize      = 10 << 20 // 10 MiB
)

var tracer = otel.Tracer("github.com/bakkerme/subwatch/internal/sources/reddit/impl")

// Fetcher reads the listing's .json representation over plain HTTP.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

func NewFetcher(timeout time.Duration, userAgent string) *Fetcher {
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (core.Snapshot, error) {
	ctx, span := tracer.Start(ctx, "reddit.fetch", trace.WithAttributes(
		attribute.String("reddit.backend", string(reddit.FormatJSON)),
		attribute.String("reddit.url", url),
	))
	defer span.End()

	body, err := get(ctx, f.client, url, f.userAgent, "application/json")
	if err != nil {
		return nil, endSpan(span, err)
	}
	snapshot, err := decodeListing(body)
	if err != nil {
		return nil, endSpan(span, err)
	}
	span.SetAttributes(attribute.Int("reddit.entries", len(snapshot)))
	return snapshot, nil
}

// get performs one GET and returns the body of a 2xx response. Every failure is a *reddit.FetchError.
func get(ctx context.Context, client *http.Client, url, userAgent, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, reddit.NetworkError(err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", accept)

	resp, err := client.Do(req)
	if err != nil {
		return nil, reddit.NetworkError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, reddit.NetworkError(fmt.Errorf("read body: %w", err))
	}
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, reddit.StatusError(resp.StatusCode, body)
	}
	if int64(len(body)) > maxBodySize {
		err := fmt.Errorf("response larger than %d bytes", maxBodySize)
		return nil, &reddit.FetchError{Kind: reddit.KindMalformed, Message: "Response body too large", Err: err}
	}
	return body, nil
}

func endSpan(span trace.Span, err error) error {
	var fetchErr *reddit.FetchError
	if errors.As(err, &fetchErr) {
		span.SetAttributes(attribute.String("reddit.error_kind", string(fetchErr.Kind)))
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// The pointers distinguish a missing field from its zero value.
type listingResponse struct {
	Data *struct {
		Children *[]listingChild `json:"children"`
	} `json:"data"`
}

type listingChild struct {
	Data *listingPost `json:"data"`
}

type listingPost struct {
	ID         *string  `json:"id"`
	Title      *string  `json:"title"`
	CreatedUTC *float64 `json:"created_utc"`
	Permalink  *string  `json:"permalink"`
}

func decodeListing(body []byte) (core.Snapshot, error) {
	var payload listingResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, reddit.MalformedError(err)
	}
	if payload.Data == nil || payload.Data.Children == nil {
		return nil, reddit.MalformedError(fmt.Errorf("missing data.children: %w", reddit.ErrShape))
	}

	children := *payload.Data.Children
	snapshot := make(core.Snapshot, 0, len(children))
	for i, child := range children {
		post := child.Data
		if post == nil || post.ID == nil || post.CreatedUTC == nil || post.Permalink == nil {
			return nil, reddit.MalformedError(fmt.Errorf("child %d lacks id, created_utc or permalink: %w", i, reddit.ErrShape))
		}
		title := ""
		if post.Title != nil {
			title = *post.Title
		}
		snapshot = append(snapshot, core.NewEntry(*post.ID, title, *post.Permalink, *post.CreatedUTC))
	}
	return snapshot, nil
}
