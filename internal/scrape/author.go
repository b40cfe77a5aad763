package scrape

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Author identifies the poster. Either field may be empty when the profile
// link is missing or carries an unrecognized href shape.
type Author struct {
	ID   string
	Name string
}

const profileNameSelector = `div[data-ad-rendering-role="profile_name"] a`

// The numeric id appears in two href shapes; the /user/ path form wins when
// both could match.
var (
	userHrefPattern    = regexp.MustCompile(`/user/(\d+)`)
	profileHrefPattern = regexp.MustCompile(`profile\.php\?id=(\d+)`)
)

// ResolveAuthor extracts the author id and display name from the item's
// profile-name anchor.
func ResolveAuthor(html string) Author {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Author{}
	}

	anchor := doc.Find(profileNameSelector).First()
	if anchor.Length() == 0 {
		return Author{}
	}

	href, _ := anchor.Attr("href")
	var id string
	if m := userHrefPattern.FindStringSubmatch(href); m != nil {
		id = m[1]
	} else if m := profileHrefPattern.FindStringSubmatch(href); m != nil {
		id = m[1]
	}

	return Author{
		ID:   id,
		Name: strings.TrimSpace(anchor.Text()),
	}
}
