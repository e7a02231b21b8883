package content

import (
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"NewsDesk/internal/ports"
)

// Filter sanitises article bodies and derives the plain text sent to the classifier.
type Filter struct {
	ugc    *bluemonday.Policy
	strict *bluemonday.Policy
}

var _ ports.ContentFilter = (*Filter)(nil)

// NewFilter creates a filter with a UGC policy for stored content.
func NewFilter() *Filter {
	p := bluemonday.UGCPolicy()
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)

	return &Filter{
		ugc:    p,
		strict: bluemonday.StrictPolicy(),
	}
}

// Sanitize strips scripts, handlers and unsafe markup while keeping basic formatting.
// Text without markup is returned as written.
func (f *Filter) Sanitize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.Contains(trimmed, "<") {
		return trimmed
	}
	return strings.TrimSpace(f.ugc.Sanitize(trimmed))
}

// PlainText returns the readable text of raw with entities decoded and whitespace collapsed.
func (f *Filter) PlainText(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if !strings.ContainsAny(trimmed, "<&") {
		return normalizeWhitespace(trimmed)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(trimmed))
	if err != nil {
		return normalizeWhitespace(html.UnescapeString(f.strict.Sanitize(trimmed)))
	}
	doc.Find("script, style, noscript").Remove()

	var parts []string
	doc.Find("p, li, h1, h2, h3, h4, h5, h6, blockquote, pre").Each(func(_ int, s *goquery.Selection) {
		if s.ParentsFiltered("p, li, blockquote").Length() > 0 {
			return
		}
		if text := normalizeWhitespace(s.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	if len(parts) == 0 {
		return normalizeWhitespace(doc.Text())
	}
	return strings.Join(parts, " ")
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
