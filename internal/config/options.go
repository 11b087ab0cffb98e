package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"

	"github.com/bakkerme/subwatch/internal/sources/reddit"
)

const (
	DefaultSubreddit = "rust"
	DefaultInterval  = 60 * time.Second
)

// Options is the command line. The positional arguments mirror `subwatch [subreddit] [sort] [interval]`.
type Options struct {
	ConfigPath string `short:"c" long:"config" env:"SUBWATCH_CONFIG" description:"YAML document with watch defaults"`
	Backend    string `long:"backend" env:"SUBWATCH_BACKEND" choice:"json" choice:"rss" choice:"api" description:"Listing source: reddit .json, .rss feed, or the API client"`
	Format     string `long:"format" env:"SUBWATCH_FORMAT" choice:"text" choice:"markdown" choice:"html" description:"Report format"`
	Filter     string `long:"filter" env:"SUBWATCH_FILTER" description:"Only report posts matching this expression, e.g. 'title.length > 10'"`
	Cron       string `long:"cron" env:"SUBWATCH_CRON" description:"Poll on a cron schedule instead of the fixed interval"`
	Retries    *int   `long:"retries" env:"SUBWATCH_RETRIES" description:"Extra attempts for network, 429 and 5xx failures (default 0: fail on first error)"`
	SeenLimit  *int   `long:"seen-limit" env:"SUBWATCH_SEEN_LIMIT" description:"Forget the oldest post ids beyond this many (default 0: never forget)"`
	NoColor    bool   `long:"no-color" description:"Disable styled terminal output"`
	LogLevel   string `long:"log-level" env:"SUBWATCH_LOG_LEVEL" default:"info" choice:"debug" choice:"info" choice:"warn" choice:"error" description:"Diagnostic log level"`

	Args struct {
		Subreddit string `positional-arg-name:"subreddit" description:"Subreddit to watch (default rust)"`
		Sort      string `positional-arg-name:"sort" description:"hot, new, top, rising or controversial (default hot)"`
		Interval  string `positional-arg-name:"interval" description:"Seconds between polls, or a duration such as 90s or 5m (default 60)"`
	} `positional-args:"yes"`
}

// ErrHelp is returned when the user asked for usage; it has already been printed.
var ErrHelp = errors.New("help requested")

// ParseArgs parses command-line arguments (without the program name). Parse errors and usage
// are printed by go-flags before returning.
func ParseArgs(args []string) (*Options, error) {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	parser.Name = "subwatch"
	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return nil, ErrHelp
		}
		return nil, fmt.Errorf("failed to parse arguments: %w", err)
	}
	return &opts, nil
}

// Watch is the resolved, immutable poll configuration.
type Watch struct {
	Listing   reddit.Listing
	Interval  time.Duration
	Backend   reddit.Format
	UseAPI    bool
	Format    string
	Filter    string
	Cron      string
	Retries   int
	SeenLimit int
	Color     bool
	LogLevel  slog.Level
}

// Resolve merges command line, document and defaults, in that order of precedence.
// Invalid sort and interval values fall back to defaults; the returned warnings say so.
func Resolve(opts *Options, doc *Document) (Watch, []string) {
	if opts == nil {
		opts = &Options{}
	}
	if doc == nil {
		doc = &Document{}
	}
	var warnings []string

	w := Watch{
		Listing: reddit.Listing{
			Subreddit: firstNonEmpty(opts.Args.Subreddit, doc.Subreddit, DefaultSubreddit),
		},
		Interval:  DefaultInterval,
		Backend:   reddit.FormatJSON,
		Format:    firstNonEmpty(opts.Format, doc.Format, "text"),
		Filter:    firstNonEmpty(opts.Filter, doc.Filter),
		Cron:      firstNonEmpty(opts.Cron, doc.Cron),
		Retries:   firstNonNil(opts.Retries, doc.Retries),
		SeenLimit: firstNonNil(opts.SeenLimit, doc.SeenLimit),
		Color:     !opts.NoColor,
		LogLevel:  parseLevel(opts.LogLevel),
	}

	rawSort := firstNonEmpty(opts.Args.Sort, doc.Sort, reddit.DefaultSort)
	sort, ok := reddit.NormalizeSort(rawSort)
	if !ok {
		warnings = append(warnings, fmt.Sprintf("Invalid sort method: '%s'. Switching to default: '%s'.", rawSort, reddit.DefaultSort))
	}
	w.Listing.Sort = sort

	if rawInterval := firstNonEmpty(opts.Args.Interval, doc.Interval); rawInterval != "" {
		interval, err := ParseInterval(rawInterval)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("Invalid interval: '%s'. Switching to default: %d seconds.", rawInterval, int(DefaultInterval/time.Second)))
		} else {
			w.Interval = interval
		}
	}

	rawBackend := firstNonEmpty(opts.Backend, doc.Backend, "json")
	switch strings.ToLower(rawBackend) {
	case "rss":
		w.Backend = reddit.FormatRSS
	case "api":
		w.UseAPI = true
	case "json":
	default:
		warnings = append(warnings, fmt.Sprintf("Invalid backend: '%s'. Switching to default: 'json'.", rawBackend))
	}
	if w.Retries < 0 {
		w.Retries = 0
	}
	if w.SeenLimit < 0 {
		w.SeenLimit = 0
	}
	return w, warnings
}

// URL is the listing endpoint for the resolved watch.
func (w Watch) URL(origin string) string {
	return w.Listing.URL(origin, w.Backend)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func firstNonNil(values ...*int) int {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return 0
}

func parseLevel(raw string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(raw))); err != nil {
		return slog.LevelInfo
	}
	return level
}
