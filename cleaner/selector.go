package cleaner

import (
	"bytes"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// ContentSelector matches the body of a description panel, without the
// panel heading and the "see more" toolbar.
const ContentSelector = ".jobs-description__content, .jobs-box__html-content, #job-details"

// Region returns the outer HTML of the first element matching selector,
// which may be a comma separated group. When nothing matches, rawHTML is
// returned unchanged.
func Region(rawHTML string, selector string) (string, error) {
	sel, err := cascadia.ParseGroup(selector)
	if err != nil {
		return "", err
	}

	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return "", err
	}

	node := cascadia.Query(doc, sel)
	if node == nil {
		return rawHTML, nil
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, node); err != nil {
		return "", err
	}
	return buf.String(), nil
}
