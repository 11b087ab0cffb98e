package core

import (
	"math"
	"strings"
	"testing"
	"time"
)

func TestNewEntryJoinsPermalinkAndDefaultsTitle(t *testing.T) {
	entry := NewEntry("abc", "", "/r/golang/comments/abc/x/", 1700000000.75)
	if entry.Title != UntitledPlaceholder {
		t.Fatalf("title = %q, want placeholder", entry.Title)
	}
	if entry.URL != "https://www.reddit.com/r/golang/comments/abc/x/" {
		t.Fatalf("url = %q", entry.URL)
	}
	if entry.CreatedErr != nil {
		t.Fatalf("unexpected created error: %v", entry.CreatedErr)
	}
	if !entry.CreatedAt.Equal(time.Unix(1700000000, 0)) {
		t.Fatalf("created at = %v", entry.CreatedAt)
	}
}

func TestEntryTimeRejectsUnrepresentable(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{-5, "negative"},
		{math.NaN(), "not a number"},
		{math.Inf(1), "not a number"},
		{1e300, "out of range"},
	}
	for _, tc := range cases {
		_, err := EntryTime(tc.in)
		if err == nil {
			t.Fatalf("EntryTime(%v) expected error", tc.in)
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("EntryTime(%v) error = %q, want %q", tc.in, err, tc.want)
		}
	}
}

func TestPostURL(t *testing.T) {
	cases := map[string]string{
		"":                         "",
		"/r/go/comments/1/":        "https://www.reddit.com/r/go/comments/1/",
		"r/go/comments/1/":         "https://www.reddit.com/r/go/comments/1/",
		"https://example.com/post": "https://example.com/post",
	}
	for in, want := range cases {
		if got := PostURL(in); got != want {
			t.Fatalf("PostURL(%q) = %q, want %q", in, got, want)
		}
	}
}
