package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"github.com/bakkerme/subwatch/internal/core"
)

// Markdown writes each entry as a markdown section, optionally converted to HTML.
type Markdown struct {
	opts      Options
	html      bool
	converter goldmark.Markdown
}

func NewMarkdown(opts Options, html bool) *Markdown {
	return &Markdown{
		opts:      opts.withDefaults(),
		html:      html,
		converter: newMarkdownConverter(),
	}
}

func (r *Markdown) Report(ctx context.Context, entry core.Entry) error {
	_ = ctx
	if entry.CreatedErr != nil {
		if err := dateFailure(r.opts.Err, entry); err != nil {
			return err
		}
	}
	block := renderEntry(entry, r.opts)
	if !r.html {
		_, err := io.WriteString(r.opts.Out, block)
		return err
	}
	html, err := renderMarkdown(r.converter, block)
	if err != nil {
		return fmt.Errorf("render entry %s: %w", entry.ID, err)
	}
	_, err = io.WriteString(r.opts.Out, html)
	return err
}

func renderEntry(entry core.Entry, opts Options) string {
	var b strings.Builder
	fmt.Fprintf(&b, "### [%s](<%s>)\n\n", escapeMarkdown(entry.Title), entry.URL)
	if entry.CreatedErr == nil {
		fmt.Fprintf(&b, "_Created %s_\n\n", entry.CreatedAt.In(opts.Location).Format(DateLayout))
	}
	return b.String()
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "`", "\\`", `*`, `\*`, `_`, `\_`, `[`, `\[`, `]`, `\]`,
	`<`, `\<`, `>`, `\>`, `#`, `\#`, `|`, `\|`, `!`, `\!`,
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

func renderMarkdown(converter goldmark.Markdown, input string) (string, error) {
	var buf bytes.Buffer
	if err := converter.Convert([]byte(input), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func newMarkdownConverter() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)
}
