package core

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Origin is the site every listing permalink is relative to.
const Origin = "https://www.reddit.com"

// UntitledPlaceholder is reported when the source omits a post title.
const UntitledPlaceholder = "(untitled)"

// Entry is a single post pulled out of a listing.
// ID is the only deduplication key; it is stable across fetches of the same post.
type Entry struct {
	ID         string    `json:"id" yaml:"id"`
	Title      string    `json:"title" yaml:"title"`
	URL        string    `json:"url" yaml:"url"`
	CreatedUTC float64   `json:"created_utc" yaml:"created_utc"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
	// CreatedErr is an entry-level failure: the post is still reported, only its date is not.
	CreatedErr error `json:"-" yaml:"-"`
}

// Snapshot is the ordered result of one fetch.
type Snapshot []Entry

// NewEntry builds an Entry from raw listing fields.
func NewEntry(id, title, permalink string, createdUTC float64) Entry {
	if strings.TrimSpace(title) == "" {
		title = UntitledPlaceholder
	}
	entry := Entry{
		ID:         id,
		Title:      title,
		URL:        PostURL(permalink),
		CreatedUTC: createdUTC,
	}
	entry.CreatedAt, entry.CreatedErr = EntryTime(createdUTC)
	return entry
}

// PostURL joins the origin with a source-relative permalink.
func PostURL(permalink string) string {
	if permalink == "" {
		return ""
	}
	if strings.HasPrefix(permalink, "http://") || strings.HasPrefix(permalink, "https://") {
		return permalink
	}
	if strings.HasPrefix(permalink, "/") {
		return Origin + permalink
	}
	return Origin + "/" + permalink
}

// maxUnixSeconds keeps the result inside the range time.Time can format.
const maxUnixSeconds = 253402300799 // 9999-12-31T23:59:59Z

// EntryTime converts a creation timestamp in (possibly fractional) Unix seconds.
// The fraction is truncated.
func EntryTime(createdUTC float64) (time.Time, error) {
	switch {
	case math.IsNaN(createdUTC) || math.IsInf(createdUTC, 0):
		return time.Time{}, fmt.Errorf("timestamp %v is not a number", createdUTC)
	case createdUTC < 0:
		return time.Time{}, fmt.Errorf("timestamp %v is negative", createdUTC)
	case createdUTC > maxUnixSeconds:
		return time.Time{}, fmt.Errorf("timestamp %v is out of range", createdUTC)
	}
	return time.Unix(int64(createdUTC), 0).UTC(), nil
}
