package impl

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bakkerme/subwatch/internal/core"
	"github.com/bakkerme/subwatch/internal/sources/reddit"
	"github.com/mmcdole/gofeed"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// FeedFetcher reads the listing's .rss (Atom) representation.
type FeedFetcher struct {
	client    *http.Client
	parser    *gofeed.Parser
	userAgent string
}

func NewFeedFetcher(timeout time.Duration, userAgent string) *FeedFetcher {
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &FeedFetcher{
		client:    &http.Client{Timeout: timeout},
		parser:    gofeed.NewParser(),
		userAgent: userAgent,
	}
}

func (f *FeedFetcher) Fetch(ctx context.Context, url string) (core.Snapshot, error) {
	ctx, span := tracer.Start(ctx, "reddit.fetch", trace.WithAttributes(
		attribute.String("reddit.backend", string(reddit.FormatRSS)),
		attribute.String("reddit.url", url),
	))
	defer span.End()

	body, err := get(ctx, f.client, url, f.userAgent, "application/atom+xml, application/rss+xml")
	if err != nil {
		return nil, endSpan(span, err)
	}
	feed, err := f.parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, endSpan(span, &reddit.FetchError{
			Kind:    reddit.KindMalformed,
			Message: fmt.Sprintf("Malformed feed: %v", err),
			Err:     err,
		})
	}

	snapshot := make(core.Snapshot, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		snapshot = append(snapshot, feedEntry(item))
	}
	span.SetAttributes(attribute.Int("reddit.entries", len(snapshot)))
	return snapshot, nil
}

func feedEntry(item *gofeed.Item) core.Entry {
	id := strings.TrimPrefix(item.GUID, "t3_")
	if id == "" {
		id = item.Link
	}
	created := -1.0
	if item.PublishedParsed != nil {
		created = float64(item.PublishedParsed.Unix())
	} else if item.UpdatedParsed != nil {
		created = float64(item.UpdatedParsed.Unix())
	}
	entry := core.NewEntry(id, item.Title, item.Link, created)
	if item.PublishedParsed == nil && item.UpdatedParsed == nil {
		entry.CreatedErr = fmt.Errorf("feed entry has no published or updated date")
	}
	return entry
}
