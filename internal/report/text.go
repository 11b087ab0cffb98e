package report

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/bakkerme/subwatch/internal/core"
)

var (
	titleColor = lipgloss.Color("#39D353")
	linkColor  = lipgloss.Color("#58A6FF")
	dateColor  = lipgloss.Color("#A371F7")
)

// Text writes the plain four-line block per entry: title, link, creation date, blank line.
type Text struct {
	opts       Options
	titleStyle lipgloss.Style
	linkStyle  lipgloss.Style
	dateStyle  lipgloss.Style
}

func NewText(opts Options) *Text {
	opts = opts.withDefaults()
	renderer := lipgloss.NewRenderer(opts.Out)
	return &Text{
		opts:       opts,
		titleStyle: renderer.NewStyle().Foreground(titleColor).Bold(true),
		linkStyle:  renderer.NewStyle().Foreground(linkColor).Underline(true),
		dateStyle:  renderer.NewStyle().Foreground(dateColor),
	}
}

func (r *Text) Report(ctx context.Context, entry core.Entry) error {
	_ = ctx
	out := r.opts.Out
	if _, err := fmt.Fprintf(out, "Title: %s\n", r.style(r.titleStyle, entry.Title)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(out, "Link to post: %s\n", r.style(r.linkStyle, entry.URL)); err != nil {
		return err
	}
	if entry.CreatedErr != nil {
		if err := dateFailure(r.opts.Err, entry); err != nil {
			return err
		}
	} else {
		created := entry.CreatedAt.In(r.opts.Location).Format(DateLayout)
		if _, err := fmt.Fprintf(out, "Creation date: %s\n", r.style(r.dateStyle, created)); err != nil {
			return err
		}
	}
	_, err := io.WriteString(out, "\n")
	return err
}

func (r *Text) style(style lipgloss.Style, s string) string {
	if !r.opts.Styled {
		return s
	}
	return style.Render(s)
}
