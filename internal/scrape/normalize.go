package scrape

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// interactiveRoles are the sub-elements stripped from an item before text
// extraction: reaction buttons, inline comment boxes and hyperlinks all leak
// into the visible text otherwise.
var interactiveRoles = []string{"button", "textbox", "link"}

// Normalizer classifies feed items and extracts their clean display text.
type Normalizer struct {
	commentLabel string
}

// NewNormalizer builds a normalizer that treats items carrying an aria-label
// containing commentLabel (the platform's "comment by" marker) as comments.
func NewNormalizer(commentLabel string) *Normalizer {
	return &Normalizer{commentLabel: commentLabel}
}

// IsComment reports whether the item is a comment rather than a top-level
// post. Comment items are dropped entirely; callers must check this before
// running any other extractor.
func (n *Normalizer) IsComment(html string) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return false
	}
	return doc.Find(fmt.Sprintf(`[aria-label*=%q]`, n.commentLabel)).Length() > 0
}

// Normalize strips interactive sub-elements from the item's content and
// returns the remaining visible text, trimmed. An empty result means the item
// carries no usable text and should be skipped.
func (n *Normalizer) Normalize(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse item html: %w", err)
	}
	for _, role := range interactiveRoles {
		doc.Find(fmt.Sprintf(`[role=%q]`, role)).Remove()
	}
	return strings.TrimSpace(doc.Text()), nil
}
