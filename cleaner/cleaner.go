// Package cleaner turns job description markup into Markdown and plain text.
package cleaner

import (
	"log/slog"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
)

// Cleaner converts description HTML. The converter is created once and
// reused (goroutine-safe).
type Cleaner struct {
	mdConverter *converter.Converter
	domain      string
}

// New creates a Cleaner. domain resolves relative links, e.g.
// "https://www.linkedin.com".
func New(domain string) *Cleaner {
	return &Cleaner{
		mdConverter: newMarkdownConverter(),
		domain:      domain,
	}
}

// Description is a cleaned description.
type Description struct {
	Markdown string
	Text     string
}

// Clean narrows rawHTML to the description body, strips UI noise and
// renders it as Markdown and plain text.
func (c *Cleaner) Clean(rawHTML string) (*Description, error) {
	region, err := Region(rawHTML, ContentSelector)
	if err != nil {
		slog.Debug("description region not isolated, using full markup", "error", err)
		region = rawHTML
	}

	body, err := sanitize(region)
	if err != nil {
		return nil, err
	}

	md, err := toMarkdown(c.mdConverter, body, c.domain)
	if err != nil {
		return nil, err
	}
	text, err := PlainText(body)
	if err != nil {
		return nil, err
	}
	return &Description{Markdown: md, Text: text}, nil
}
