package seo

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// MetaData holds the SEO-relevant tags of a page.
type MetaData struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Keywords    string `json:"keywords" yaml:"keywords"`
	Canonical   string `json:"canonical" yaml:"canonical"`
	Robots      string `json:"robots" yaml:"robots"`
	Viewport    string `json:"viewport" yaml:"viewport"`
	Charset     string `json:"charset" yaml:"charset"`

	OGTitle       string `json:"og_title" yaml:"og_title"`
	OGDescription string `json:"og_description" yaml:"og_description"`
	OGImage       string `json:"og_image" yaml:"og_image"`
	OGURL         string `json:"og_url" yaml:"og_url"`
	OGType        string `json:"og_type" yaml:"og_type"`
	OGSiteName    string `json:"og_site_name" yaml:"og_site_name"`

	TwitterCard        string `json:"twitter_card" yaml:"twitter_card"`
	TwitterTitle       string `json:"twitter_title" yaml:"twitter_title"`
	TwitterDescription string `json:"twitter_description" yaml:"twitter_description"`
	TwitterImage       string `json:"twitter_image" yaml:"twitter_image"`
	TwitterSite        string `json:"twitter_site" yaml:"twitter_site"`

	H1 []string `json:"h1_tags" yaml:"h1_tags"`
	H2 []string `json:"h2_tags" yaml:"h2_tags"`

	TotalImages     int `json:"total_images" yaml:"total_images"`
	ImageAltMissing int `json:"image_alt_missing" yaml:"image_alt_missing"`
}

// Extract walks a parsed document and collects its meta data.
func Extract(doc *html.Node) MetaData {
	md := MetaData{H1: []string{}, H2: []string{}}
	titleSeen, canonicalSeen := false, false

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Title:
				if !titleSeen {
					titleSeen = true
					md.Title = strings.TrimSpace(textContent(n))
				}
			case atom.Meta:
				extractMeta(&md, n)
			case atom.Link:
				if !canonicalSeen && hasToken(attr(n, "rel"), "canonical") {
					canonicalSeen = true
					md.Canonical = attr(n, "href")
				}
			case atom.H1:
				md.H1 = append(md.H1, strings.TrimSpace(textContent(n)))
			case atom.H2:
				md.H2 = append(md.H2, strings.TrimSpace(textContent(n)))
			case atom.Img:
				md.TotalImages++
				if attr(n, "alt") == "" {
					md.ImageAltMissing++
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return md
}

// extractMeta applies one <meta> tag. Later tags of the same name win.
func extractMeta(md *MetaData, n *html.Node) {
	name := strings.ToLower(attr(n, "name"))
	property := strings.ToLower(attr(n, "property"))
	content := strings.TrimSpace(attr(n, "content"))

	switch {
	case name == "description":
		md.Description = content
	case name == "keywords":
		md.Keywords = content
	case name == "robots":
		md.Robots = content
	case name == "viewport":
		md.Viewport = content

	case property == "og:title":
		md.OGTitle = content
	case property == "og:description":
		md.OGDescription = content
	case property == "og:image":
		md.OGImage = content
	case property == "og:url":
		md.OGURL = content
	case property == "og:type":
		md.OGType = content
	case property == "og:site_name":
		md.OGSiteName = content

	case name == "twitter:card":
		md.TwitterCard = content
	case name == "twitter:title":
		md.TwitterTitle = content
	case name == "twitter:description":
		md.TwitterDescription = content
	case name == "twitter:image":
		md.TwitterImage = content
	case name == "twitter:site":
		md.TwitterSite = content

	default:
		if cs := attr(n, "charset"); cs != "" {
			md.Charset = cs
		}
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasToken(list, token string) bool {
	for _, f := range strings.Fields(list) {
		if strings.EqualFold(f, token) {
			return true
		}
	}
	return false
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
