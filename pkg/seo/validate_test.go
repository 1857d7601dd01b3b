package seo

import (
	"strings"
	"testing"
)

func perfectMeta() MetaData {
	return MetaData{
		Title:         strings.Repeat("t", 45),
		Description:   strings.Repeat("d", 140),
		OGTitle:       "OG",
		OGDescription: "OG description",
		OGImage:       "https://example.com/og.png",
		TwitterCard:   "summary",
		TwitterImage:  "https://example.com/tw.png",
		Canonical:     "https://example.com/",
		Viewport:      "width=device-width",
		H1:            []string{"Heading"},
	}
}

func TestValidatePerfectPage(t *testing.T) {
	v := Validate(perfectMeta(), DefaultLimits())

	if v.OverallScore != 100 {
		t.Errorf("OverallScore: got %d, want 100", v.OverallScore)
	}
	for _, s := range v.Sections() {
		if s.Status != StatusSuccess {
			t.Errorf("%s: status %s, messages %v", s.Label, s.Status, s.Messages)
		}
		if len(s.Messages) != 1 {
			t.Errorf("%s: want one confirmation message, got %v", s.Label, s.Messages)
		}
	}
	if v.Title.Messages[0] != "Title length is optimal" {
		t.Errorf("title message: %q", v.Title.Messages[0])
	}
}

func TestValidateEmptyPage(t *testing.T) {
	v := Validate(MetaData{}, DefaultLimits())

	// 15 + 15 + 9 + 5 + 5 + 5 + 10
	if v.OverallScore != 36 {
		t.Errorf("OverallScore: got %d, want 36", v.OverallScore)
	}
	if v.Title.Status != StatusError || v.Title.Messages[0] != "Missing title tag" {
		t.Errorf("Title: %+v", v.Title)
	}
	if v.Description.Status != StatusError || v.Description.Messages[0] != "Missing meta description" {
		t.Errorf("Description: %+v", v.Description)
	}
	want := "Missing Open Graph tags: og:title, og:description, og:image"
	if v.OpenGraph.Messages[0] != want {
		t.Errorf("OpenGraph: got %q", v.OpenGraph.Messages[0])
	}
	if len(v.Technical.Messages) != 2 {
		t.Errorf("Technical should report canonical and viewport: %v", v.Technical.Messages)
	}
	if v.Title.Score() != 0 || v.OpenGraph.Score() != 50 || perfectSection().Score() != 100 {
		t.Error("section scores should be 0 for error, 50 for warning, 100 for success")
	}
}

func perfectSection() Section { return Section{Status: StatusSuccess} }

func TestValidateDeductions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*MetaData)
		score  int
		check  func(Validation) string
	}{
		{
			name:   "short title",
			mutate: func(m *MetaData) { m.Title = "Short" },
			score:  95,
			check: func(v Validation) string {
				return v.Title.Messages[0]
			},
		},
		{
			name:   "long description",
			mutate: func(m *MetaData) { m.Description = strings.Repeat("x", 200) },
			score:  95,
			check: func(v Validation) string {
				return v.Description.Messages[0]
			},
		},
		{
			name:   "one og tag missing",
			mutate: func(m *MetaData) { m.OGImage = "" },
			score:  97,
		},
		{
			name:   "twitter card without image",
			mutate: func(m *MetaData) { m.TwitterImage = "" },
			score:  97,
		},
		{
			name:   "no twitter card",
			mutate: func(m *MetaData) { m.TwitterCard = ""; m.TwitterImage = "" },
			score:  95,
		},
		{
			name:   "multiple h1",
			mutate: func(m *MetaData) { m.H1 = []string{"a", "b", "c"} },
			score:  95,
		},
		{
			name:   "alt missing below cap",
			mutate: func(m *MetaData) { m.TotalImages, m.ImageAltMissing = 4, 3 },
			score:  94,
		},
		{
			name:   "alt missing capped",
			mutate: func(m *MetaData) { m.TotalImages, m.ImageAltMissing = 20, 20 },
			score:  90,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md := perfectMeta()
			tt.mutate(&md)
			v := Validate(md, DefaultLimits())
			if v.OverallScore != tt.score {
				t.Errorf("score: got %d, want %d", v.OverallScore, tt.score)
			}
			if tt.check != nil {
				if msg := tt.check(v); !strings.Contains(msg, "Recommended: ") {
					t.Errorf("length message: %q", msg)
				}
			}
		})
	}
}

func TestValidateCountsRunes(t *testing.T) {
	md := perfectMeta()
	md.Title = strings.Repeat("é", 40)
	v := Validate(md, DefaultLimits())
	if v.Title.Status != StatusSuccess {
		t.Errorf("40 runes should be within 30-60: %v", v.Title.Messages)
	}
}

func TestValidateScoreFloor(t *testing.T) {
	v := Validate(MetaData{ImageAltMissing: 50, TotalImages: 50}, Limits{})
	if v.OverallScore < 0 {
		t.Errorf("score must not go negative: %d", v.OverallScore)
	}
}

func TestBuildPreviews(t *testing.T) {
	t.Run("Fallbacks", func(t *testing.T) {
		p := BuildPreviews(MetaData{}, "https://example.com:8080/page")

		if p.Google.Title != "Untitled Page" || p.Google.Description != "No description available" {
			t.Errorf("Google: %+v", p.Google)
		}
		if p.Google.URL != "https://example.com:8080/page" {
			t.Errorf("Google URL: %q", p.Google.URL)
		}
		if p.Facebook.SiteName != "example.com:8080" || p.Facebook.URL != "https://example.com:8080/page" {
			t.Errorf("Facebook: %+v", p.Facebook)
		}
		if p.Twitter.CardType != "summary" || p.Twitter.Site != "example.com:8080" {
			t.Errorf("Twitter: %+v", p.Twitter)
		}
	})

	t.Run("PlatformTagsWin", func(t *testing.T) {
		md := MetaData{
			Title:        "Generic",
			OGTitle:      "Open Graph",
			TwitterTitle: "Twitter",
			OGImage:      "og.png",
		}
		p := BuildPreviews(md, "https://example.com")

		if p.Google.Title != "Generic" || p.Facebook.Title != "Open Graph" ||
			p.Twitter.Title != "Twitter" || p.LinkedIn.Title != "Open Graph" {
			t.Errorf("titles: %q %q %q %q", p.Google.Title, p.Facebook.Title, p.Twitter.Title, p.LinkedIn.Title)
		}
		if p.Twitter.Image != "og.png" {
			t.Errorf("Twitter image should fall back to og:image, got %q", p.Twitter.Image)
		}
	})

	t.Run("Truncation", func(t *testing.T) {
		long := strings.Repeat("a", 400)
		p := BuildPreviews(MetaData{Title: long, Description: long}, "https://example.com")

		limits := []struct {
			name string
			got  string
			max  int
		}{
			{"google title", p.Google.Title, 60},
			{"google description", p.Google.Description, 160},
			{"facebook title", p.Facebook.Title, 100},
			{"facebook description", p.Facebook.Description, 300},
			{"twitter title", p.Twitter.Title, 70},
			{"twitter description", p.Twitter.Description, 200},
			{"linkedin title", p.LinkedIn.Title, 100},
			{"linkedin description", p.LinkedIn.Description, 300},
		}
		for _, l := range limits {
			if len(l.got) != l.max || !strings.HasSuffix(l.got, "...") {
				t.Errorf("%s: len %d, want %d ending in ...", l.name, len(l.got), l.max)
			}
		}
	})
}
