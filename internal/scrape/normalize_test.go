package scrape

import (
	"strings"
	"testing"
)

const commentLabel = "תגובה של"

func TestIsComment(t *testing.T) {
	n := NewNormalizer(commentLabel)

	tests := []struct {
		name string
		html string
		want bool
	}{
		{
			name: "comment item",
			html: `<div role="article" aria-label="תגובה של דנה לוי"><div>מעוניינת!</div></div>`,
			want: true,
		},
		{
			name: "nested comment marker",
			html: `<div role="article"><div aria-label="תגובה של יוסי">text</div></div>`,
			want: true,
		},
		{
			name: "top level post",
			html: `<div role="article"><div>דירת 3 חדרים להשכרה</div></div>`,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := n.IsComment(tt.html); got != tt.want {
				t.Errorf("IsComment = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalizeStripsInteractiveElements(t *testing.T) {
	n := NewNormalizer(commentLabel)

	html := `<div role="article">
		<div>דירת 3 חדרים להשכרה בפלורנטין</div>
		<div role="button">Like</div>
		<a role="link" href="https://example.com/share">Share this post</a>
		<div role="textbox">Write a comment</div>
	</div>`

	got, err := n.Normalize(html)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	if !strings.Contains(got, "דירת 3 חדרים להשכרה בפלורנטין") {
		t.Errorf("expected post body in text, got %q", got)
	}
	for _, noise := range []string{"Like", "Share this post", "Write a comment"} {
		if strings.Contains(got, noise) {
			t.Errorf("expected %q to be stripped, got %q", noise, got)
		}
	}
}

func TestNormalizeEmptyItem(t *testing.T) {
	n := NewNormalizer(commentLabel)

	got, err := n.Normalize(`<div role="article"><div role="button">Like</div></div>`)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if got != "" {
		t.Errorf("expected empty text, got %q", got)
	}
}
