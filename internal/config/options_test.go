package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bakkerme/subwatch/internal/sources/reddit"
)

func resolveArgs(t *testing.T, args ...string) (Watch, []string) {
	t.Helper()
	opts, err := ParseArgs(args)
	if err != nil {
		t.Fatalf("ParseArgs(%v) error = %v", args, err)
	}
	return Resolve(opts, nil)
}

func TestResolveDefaults(t *testing.T) {
	w, warnings := resolveArgs(t)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings %v", warnings)
	}
	if w.Listing.Subreddit != "rust" || w.Listing.Sort != "hot" || w.Interval != 60*time.Second {
		t.Fatalf("watch = %+v", w)
	}
	if got := w.URL("www.reddit.com"); got != "https://www.reddit.com/r/rust/hot/.json" {
		t.Fatalf("URL() = %q", got)
	}
	if w.Format != "text" || w.Retries != 0 || w.SeenLimit != 0 || w.UseAPI {
		t.Fatalf("watch = %+v", w)
	}
	if w.LogLevel != slog.LevelInfo {
		t.Fatalf("log level = %v", w.LogLevel)
	}
}

func TestResolvePositionalArgs(t *testing.T) {
	w, warnings := resolveArgs(t, "golang", "new", "30")
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings %v", warnings)
	}
	if w.Listing.Subreddit != "golang" || w.Listing.Sort != "new" || w.Interval != 30*time.Second {
		t.Fatalf("watch = %+v", w)
	}
}

func TestResolveInvalidSortFallsBackToHot(t *testing.T) {
	w, warnings := resolveArgs(t, "golang", "bogus")
	if w.Listing.Sort != "hot" {
		t.Fatalf("sort = %q, want hot", w.Listing.Sort)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "'bogus'") {
		t.Fatalf("warnings = %v", warnings)
	}
	if got := w.URL(""); !strings.Contains(got, "/hot/") {
		t.Fatalf("URL() = %q, want /hot/", got)
	}
}

func TestResolveInvalidIntervalFallsBack(t *testing.T) {
	w, warnings := resolveArgs(t, "golang", "top", "soon")
	if w.Interval != DefaultInterval {
		t.Fatalf("interval = %v", w.Interval)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "'soon'") {
		t.Fatalf("warnings = %v", warnings)
	}

	w, _ = resolveArgs(t, "golang", "top", "0")
	if w.Interval != 0 {
		t.Fatalf("interval = %v, want 0", w.Interval)
	}
}

func TestResolveFlags(t *testing.T) {
	w, _ := resolveArgs(t, "--backend", "rss", "--format", "html", "--retries", "2", "--seen-limit", "100",
		"--filter", "title.length > 3", "--no-color", "--log-level", "debug", "golang")
	if got := w.URL("www.reddit.com"); got != "https://www.reddit.com/r/golang/hot/.rss" {
		t.Fatalf("URL() = %q", got)
	}
	if w.Format != "html" || w.Retries != 2 || w.SeenLimit != 100 || w.Filter != "title.length > 3" {
		t.Fatalf("watch = %+v", w)
	}
	if w.Color || w.LogLevel != slog.LevelDebug {
		t.Fatalf("watch = %+v", w)
	}

	w, _ = resolveArgs(t, "--backend", "api")
	if !w.UseAPI || w.Backend != reddit.FormatJSON {
		t.Fatalf("watch = %+v", w)
	}
}

func TestParseArgsRejectsUnknownChoice(t *testing.T) {
	if _, err := ParseArgs([]string{"--format", "pdf"}); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestResolveDocumentDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watch.yaml")
	data := "subreddit: golang\nsort: rising\ninterval: 2m\nretries: 1\nseen_limit: 10\nbackend: rss\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write document: %v", err)
	}
	doc, err := LoadDocument(path)
	if err != nil {
		t.Fatalf("LoadDocument() error = %v", err)
	}

	opts, err := ParseArgs([]string{"programming"})
	if err != nil {
		t.Fatalf("ParseArgs() error = %v", err)
	}
	w, warnings := Resolve(opts, doc)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings %v", warnings)
	}
	if w.Listing.Subreddit != "programming" {
		t.Fatalf("subreddit = %q, command line should win", w.Listing.Subreddit)
	}
	if w.Listing.Sort != "rising" || w.Interval != 2*time.Minute || w.Retries != 1 || w.SeenLimit != 10 {
		t.Fatalf("watch = %+v", w)
	}
	if w.Backend != reddit.FormatRSS {
		t.Fatalf("backend = %q", w.Backend)
	}
}

func TestParseDocument(t *testing.T) {
	if _, err := ParseDocument([]byte("subreddit: go\nunknown: 1\n")); err == nil {
		t.Fatalf("expected error for unknown key")
	}
	if _, err := ParseDocument([]byte("retries: -1\n")); err == nil {
		t.Fatalf("expected error for negative retries")
	}
	doc, err := ParseDocument(nil)
	if err != nil {
		t.Fatalf("empty document error = %v", err)
	}
	if doc.Subreddit != "" {
		t.Fatalf("doc = %+v", doc)
	}
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("REDDIT_HTTP_TIMEOUT", "3s")
	t.Setenv("REDDIT_USER_AGENT", "subwatch-test")
	t.Setenv("REDDIT_ORIGIN", "old.reddit.com")
	t.Setenv("OTEL_ENABLED", "yes")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "a=1, b=2,broken")
	t.Setenv("OTEL_TRACES_SAMPLE_RATIO", "7")

	env := LoadEnv()
	if env.Reddit.HTTPTimeout != 3*time.Second || env.Reddit.UserAgent != "subwatch-test" || env.Reddit.Origin != "old.reddit.com" {
		t.Fatalf("reddit env = %+v", env.Reddit)
	}
	if !env.OTel.Enabled || env.OTel.SampleRatio != 1 || !env.OTel.Insecure {
		t.Fatalf("otel env = %+v", env.OTel)
	}
	if len(env.OTel.Headers) != 2 || env.OTel.Headers["b"] != "2" {
		t.Fatalf("headers = %v", env.OTel.Headers)
	}
}
