package scrape

import "testing"

func TestResolveAuthor(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		wantID   string
		wantName string
	}{
		{
			name:     "user path href",
			html:     `<div data-ad-rendering-role="profile_name"><a href="https://www.facebook.com/groups/333/user/123456789/">Dana Levi</a></div>`,
			wantID:   "123456789",
			wantName: "Dana Levi",
		},
		{
			name:     "profile.php href",
			html:     `<div data-ad-rendering-role="profile_name"><a href="/profile.php?id=987654&fref=nf"> Yossi Cohen </a></div>`,
			wantID:   "987654",
			wantName: "Yossi Cohen",
		},
		{
			name:     "user path wins over profile.php",
			html:     `<div data-ad-rendering-role="profile_name"><a href="/user/111/profile.php?id=222">Someone</a></div>`,
			wantID:   "111",
			wantName: "Someone",
		},
		{
			name:     "anchor without numeric id",
			html:     `<div data-ad-rendering-role="profile_name"><a href="/groups/ronkin/">Group Page</a></div>`,
			wantID:   "",
			wantName: "Group Page",
		},
		{
			name:     "no profile anchor",
			html:     `<div><a href="/user/123/">Elsewhere</a></div>`,
			wantID:   "",
			wantName: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveAuthor(tt.html)
			if got.ID != tt.wantID {
				t.Errorf("ID = %q, want %q", got.ID, tt.wantID)
			}
			if got.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", got.Name, tt.wantName)
			}
		})
	}
}
