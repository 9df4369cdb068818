package extractor

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Page is one fetched listing page in both parsed and plain-text form.
// Selectors run against Doc; the regex cascades run against Text.
type Page struct {
	URL  string
	Doc  *goquery.Document
	Text string
}

// NewPage parses raw HTML into a Page. A parse failure here means the
// page as a whole is unusable; the caller skips the URL and moves on.
func NewPage(url, html string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML for %s: %w", url, err)
	}
	// Script and style contents would pollute the regex cascades, so
	// the plain-text view is built from a stripped copy of the body.
	body := doc.Find("body").Clone()
	body.Find("script, style, noscript").Remove()
	return &Page{
		URL:  url,
		Doc:  doc,
		Text: normalizeWhitespace(body.Text()),
	}, nil
}
