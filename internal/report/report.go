package report

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/bakkerme/subwatch/internal/core"
)

// Reporter prints newly seen entries.
type Reporter interface {
	Report(ctx context.Context, entry core.Entry) error
}

type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// DateLayout renders creation times, e.g. "2024-05-01 14:00:00 +02:00".
const DateLayout = "2006-01-02 15:04:05 -07:00"

// Options configures a reporter. Zero values mean stdout, stderr, local time and no styling.
type Options struct {
	Out      io.Writer
	Err      io.Writer
	Location *time.Location
	Styled   bool
}

func (o Options) withDefaults() Options {
	if o.Out == nil {
		o.Out = os.Stdout
	}
	if o.Err == nil {
		o.Err = os.Stderr
	}
	if o.Location == nil {
		o.Location = time.Local
	}
	return o
}

// New returns the reporter for a format name.
func New(format Format, opts Options) (Reporter, error) {
	switch Format(strings.ToLower(strings.TrimSpace(string(format)))) {
	case "", FormatText:
		return NewText(opts), nil
	case FormatMarkdown:
		return NewMarkdown(opts, false), nil
	case FormatHTML:
		return NewMarkdown(opts, true), nil
	default:
		return nil, fmt.Errorf("unsupported report format %q (expected text, markdown or html)", format)
	}
}

// dateFailure is written to the error stream instead of a creation date.
func dateFailure(w io.Writer, entry core.Entry) error {
	_, err := fmt.Fprintf(w, "Invalid creation date for post %s: %v\n", entry.ID, entry.CreatedErr)
	return err
}
