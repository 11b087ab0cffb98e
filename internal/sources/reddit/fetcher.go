package reddit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bakkerme/subwatch/internal/core"
	goreddit "github.com/vartanbeno/go-reddit/v2/reddit"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	defaultUserAgent = "subwatch/0.1"
	defaultLimit     = 25
	maxErrorBodySize = 64 << 10
)

var tracer = otel.Tracer("github.com/bakkerme/subwatch/internal/sources/reddit")

// ClientFetcher reads listings through the go-reddit read-only client.
type ClientFetcher struct {
	client  *goreddit.Client
	initErr error
	limit   int
	logger  *slog.Logger
}

// NewClientFetcher builds a read-only go-reddit client. baseURL overrides the API origin and is
// mostly useful in tests.
func NewClientFetcher(logger *slog.Logger, timeout time.Duration, userAgent, baseURL string) *ClientFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	opts := []goreddit.Opt{
		goreddit.WithHTTPClient(&http.Client{Timeout: timeout, Transport: errorBodyTransport{}}),
		goreddit.WithUserAgent(userAgent),
	}
	if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
		opts = append(opts, goreddit.WithBaseURL(baseURL))
	}
	client, err := goreddit.NewReadonlyClient(opts...)
	return &ClientFetcher{client: client, initErr: err, limit: defaultLimit, logger: logger}
}

func (f *ClientFetcher) Fetch(ctx context.Context, url string) (core.Snapshot, error) {
	ctx, span := tracer.Start(ctx, "reddit.fetch")
	defer span.End()
	span.SetAttributes(attribute.String("reddit.backend", "api"), attribute.String("reddit.url", url))

	snapshot, err := f.fetch(ctx, url)
	if err != nil {
		var fetchErr *FetchError
		if errors.As(err, &fetchErr) {
			span.SetAttributes(attribute.String("reddit.error_kind", string(fetchErr.Kind)))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("reddit.entries", len(snapshot)))
	return snapshot, nil
}

func (f *ClientFetcher) fetch(ctx context.Context, url string) (core.Snapshot, error) {
	if f.initErr != nil {
		return nil, NetworkError(fmt.Errorf("init reddit client: %w", f.initErr))
	}
	listing, err := ParseListingURL(url)
	if err != nil {
		return nil, NetworkError(err)
	}

	f.logger.Debug("Fetching Reddit posts via API client", slog.String("subreddit", listing.Subreddit), slog.String("sort", listing.Sort))
	var errorBody []byte
	ctx = context.WithValue(ctx, errorBodyKey{}, &errorBody)
	posts, resp, err := f.listPosts(ctx, listing)
	if err != nil {
		return nil, classifyClientError(err, resp, errorBody)
	}

	snapshot := make(core.Snapshot, 0, len(posts))
	for _, post := range posts {
		if post == nil {
			continue
		}
		if post.ID == "" || post.Permalink == "" || post.Created == nil {
			return nil, MalformedError(fmt.Errorf("post lacks id, created_utc or permalink: %w", ErrShape))
		}
		snapshot = append(snapshot, core.NewEntry(post.ID, post.Title, post.Permalink, float64(post.Created.Unix())))
	}
	return snapshot, nil
}

func (f *ClientFetcher) listPosts(ctx context.Context, listing Listing) ([]*goreddit.Post, *goreddit.Response, error) {
	opts := goreddit.ListOptions{Limit: f.limit}
	switch listing.Sort {
	case "hot":
		return f.client.Subreddit.HotPosts(ctx, listing.Subreddit, &opts)
	case "new":
		return f.client.Subreddit.NewPosts(ctx, listing.Subreddit, &opts)
	case "rising":
		return f.client.Subreddit.RisingPosts(ctx, listing.Subreddit, &opts)
	case "top":
		return f.client.Subreddit.TopPosts(ctx, listing.Subreddit, &goreddit.ListPostOptions{ListOptions: opts})
	case "controversial":
		return f.client.Subreddit.ControversialPosts(ctx, listing.Subreddit, &goreddit.ListPostOptions{ListOptions: opts})
	default:
		return nil, nil, fmt.Errorf("unsupported reddit sort: %q", listing.Sort)
	}
}

// classifyClientError maps go-reddit failures onto fetch errors. body is the raw payload of a
// non-2xx response, if one was captured.
func classifyClientError(err error, resp *goreddit.Response, body []byte) *FetchError {
	var (
		errResp   *goreddit.ErrorResponse
		rateErr   *goreddit.RateLimitError
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &errResp):
		return apiStatusError(errResp.Response, body, err)
	case errors.As(err, &rateErr):
		return apiStatusError(rateErr.Response, body, err)
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		return MalformedError(err)
	case resp != nil && resp.Response != nil && resp.StatusCode >= http.StatusBadRequest:
		return apiStatusError(resp.Response, body, err)
	default:
		return NetworkError(err)
	}
}

func apiStatusError(resp *http.Response, body []byte, err error) *FetchError {
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	fetchErr := StatusError(status, body)
	fetchErr.Err = err
	return fetchErr
}

type errorBodyKey struct{}

// errorBodyTransport copies the body of a non-2xx response into the buffer carried by the
// request context, then hands the client an identical body to decode.
type errorBodyTransport struct {
	base http.RoundTripper
}

func (t errorBodyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	resp, err := base.RoundTrip(req)
	if err != nil || resp.StatusCode < 300 {
		return resp, err
	}
	sink, ok := req.Context().Value(errorBodyKey{}).(*[]byte)
	if !ok || sink == nil {
		return resp, nil
	}
	data, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	_ = resp.Body.Close()
	*sink = data
	resp.Body = io.NopCloser(bytes.NewReader(data))
	if readErr != nil {
		return nil, readErr
	}
	return resp, nil
}
