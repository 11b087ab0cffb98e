package reddit

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/bakkerme/subwatch/internal/core"
)

// DefaultSort is used when no sort is given or the given one is unknown.
const DefaultSort = "hot"

// Sorts lists the listing orders reddit accepts.
var Sorts = []string{"hot", "new", "top", "rising", "controversial"}

// Format selects the listing representation requested from reddit.
type Format string

const (
	FormatJSON Format = "json"
	FormatRSS  Format = "rss"
)

// Listing identifies a subreddit listing.
type Listing struct {
	Subreddit string
	Sort      string
}

// Fetcher retrieves one listing snapshot. Implementations make a single attempt per call and
// report failures as *FetchError.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (core.Snapshot, error)
}

// NormalizeSort returns the lower-cased sort and true when it is known, or DefaultSort and false.
func NormalizeSort(raw string) (string, bool) {
	sort := strings.ToLower(strings.TrimSpace(raw))
	for _, s := range Sorts {
		if s == sort {
			return sort, true
		}
	}
	return DefaultSort, false
}

// URL builds the listing endpoint, e.g. https://www.reddit.com/r/rust/hot/.json.
func (l Listing) URL(origin string, format Format) string {
	origin = strings.TrimRight(strings.TrimSpace(origin), "/")
	if origin == "" {
		origin = core.Origin
	}
	if !strings.Contains(origin, "://") {
		origin = "https://" + origin
	}
	if format == "" {
		format = FormatJSON
	}
	return fmt.Sprintf("%s/r/%s/%s/.%s", origin, url.PathEscape(l.Subreddit), url.PathEscape(l.Sort), format)
}

// ParseListingURL recovers the listing from an endpoint built by Listing.URL.
func ParseListingURL(raw string) (Listing, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Listing{}, fmt.Errorf("parse listing url: %w", err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 3 || parts[0] != "r" || parts[1] == "" {
		return Listing{}, fmt.Errorf("not a subreddit listing url: %q", raw)
	}
	sort, ok := NormalizeSort(parts[2])
	if !ok {
		return Listing{}, fmt.Errorf("unsupported reddit sort %q in %q", parts[2], raw)
	}
	return Listing{Subreddit: parts[1], Sort: sort}, nil
}
