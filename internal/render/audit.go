package render

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var missingMarker = regexp.MustCompile(`\b(undefined|null|NaN)\b`)

// AuditVisibleText returns the visible text snippets of document that carry a
// literal undefined, null or NaN. Markup, styles and comments are ignored.
func AuditVisibleText(document string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(document))
	if err != nil {
		return nil, fmt.Errorf("parse rendered html: %w", err)
	}
	doc.Find("style, script").Remove()

	var findings []string
	doc.Find("body, body *").Each(func(_ int, sel *goquery.Selection) {
		// own text only, so a marker is reported once at its innermost element
		own := sel.Clone().Children().Remove().End().Text()
		own = strings.TrimSpace(own)
		if own != "" && missingMarker.MatchString(own) {
			findings = append(findings, goquery.NodeName(sel)+": "+own)
		}
	})
	return findings, nil
}
