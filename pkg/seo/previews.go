package seo

import "net/url"

const (
	untitled      = "Untitled Page"
	noDescription = "No description available"
)

// Preview is how one platform would render a link to the page.
type Preview struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	URL         string `json:"url,omitempty" yaml:"url,omitempty"`
	Image       string `json:"image,omitempty" yaml:"image,omitempty"`
	SiteName    string `json:"site_name,omitempty" yaml:"site_name,omitempty"`
	CardType    string `json:"card_type,omitempty" yaml:"card_type,omitempty"`
	Site        string `json:"site,omitempty" yaml:"site,omitempty"`
}

// Previews holds the per-platform previews.
type Previews struct {
	Google   Preview `json:"google" yaml:"google"`
	Facebook Preview `json:"facebook" yaml:"facebook"`
	Twitter  Preview `json:"twitter" yaml:"twitter"`
	LinkedIn Preview `json:"linkedin" yaml:"linkedin"`
}

// BuildPreviews derives platform previews for pageURL, falling back from
// platform-specific tags to the generic ones.
func BuildPreviews(md MetaData, pageURL string) Previews {
	var host string
	if u, err := url.Parse(pageURL); err == nil {
		host = u.Host
	}

	return Previews{
		Google: Preview{
			Title:       Truncate(first(md.Title, untitled), 60),
			Description: Truncate(first(md.Description, noDescription), 160),
			URL:         pageURL,
		},
		Facebook: Preview{
			Title:       Truncate(first(md.OGTitle, md.Title, untitled), 100),
			Description: Truncate(first(md.OGDescription, md.Description, noDescription), 300),
			Image:       md.OGImage,
			SiteName:    first(md.OGSiteName, host),
			URL:         first(md.OGURL, pageURL),
		},
		Twitter: Preview{
			Title:       Truncate(first(md.TwitterTitle, md.OGTitle, md.Title, untitled), 70),
			Description: Truncate(first(md.TwitterDescription, md.OGDescription, md.Description, noDescription), 200),
			Image:       first(md.TwitterImage, md.OGImage),
			CardType:    first(md.TwitterCard, "summary"),
			Site:        first(md.TwitterSite, host),
		},
		LinkedIn: Preview{
			Title:       Truncate(first(md.OGTitle, md.Title, untitled), 100),
			Description: Truncate(first(md.OGDescription, md.Description, noDescription), 300),
			Image:       md.OGImage,
			SiteName:    first(md.OGSiteName, host),
		},
	}
}

func first(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
