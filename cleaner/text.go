package cleaner

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// noise is removed from descriptions before conversion.
var noise = []string{
	"script", "style", "svg", "button",
	"[aria-hidden=true]",
	".visually-hidden",
	".artdeco-button",
	".jobs-description__footer",
}

// NormalizeText collapses every run of whitespace into a single space and
// trims the result.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// PlainText returns the text of an HTML fragment, one line per block
// element, with blank lines collapsed.
func PlainText(rawHTML string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return "", err
	}
	stripNoise(doc)

	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("p, li, div, h1, h2, h3, h4, h5, h6, tr").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	var lines []string
	for _, line := range strings.Split(doc.Text(), "\n") {
		if line = NormalizeText(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}

func stripNoise(doc *goquery.Document) {
	for _, selector := range noise {
		doc.Find(selector).Remove()
	}
}

// sanitize parses rawHTML, removes noise and renders the body back.
func sanitize(rawHTML string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return "", err
	}
	stripNoise(doc)
	return doc.Find("body").Html()
}
