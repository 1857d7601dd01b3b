package seo

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Status is the outcome of one validation section.
type Status string

const (
	StatusSuccess Status = "success"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
)

// Limits are the recommended length ranges, in characters.
type Limits struct {
	TitleMin       int `json:"title_min" yaml:"title_min"`
	TitleMax       int `json:"title_max" yaml:"title_max"`
	DescriptionMin int `json:"description_min" yaml:"description_min"`
	DescriptionMax int `json:"description_max" yaml:"description_max"`
}

// DefaultLimits returns the common search-engine display limits.
func DefaultLimits() Limits {
	return Limits{TitleMin: 30, TitleMax: 60, DescriptionMin: 120, DescriptionMax: 160}
}

// Section is the result of validating one group of tags.
type Section struct {
	Status   Status   `json:"status" yaml:"status"`
	Messages []string `json:"messages" yaml:"messages"`
}

// Score rates the section for aggregate statistics: 100 when it passed,
// 50 with warnings and 0 on error.
func (s Section) Score() int {
	switch s.Status {
	case StatusSuccess:
		return 100
	case StatusWarning:
		return 50
	default:
		return 0
	}
}

func (s *Section) fail(status Status, msg string) {
	if s.Status != StatusError {
		s.Status = status
	}
	s.Messages = append(s.Messages, msg)
}

func (s *Section) pass(msg string) {
	if s.Status == StatusSuccess {
		s.Messages = append(s.Messages, msg)
	}
}

// Validation holds every section and the overall 0-100 score.
type Validation struct {
	Title        Section `json:"title" yaml:"title"`
	Description  Section `json:"description" yaml:"description"`
	OpenGraph    Section `json:"og_tags" yaml:"og_tags"`
	Twitter      Section `json:"twitter_tags" yaml:"twitter_tags"`
	Technical    Section `json:"technical" yaml:"technical"`
	Content      Section `json:"content" yaml:"content"`
	OverallScore int     `json:"overall_score" yaml:"overall_score"`
}

// Sections returns the sections in display order with their labels.
func (v Validation) Sections() []NamedSection {
	return []NamedSection{
		{"Title", v.Title},
		{"Description", v.Description},
		{"Open Graph", v.OpenGraph},
		{"Twitter Card", v.Twitter},
		{"Technical", v.Technical},
		{"Content", v.Content},
	}
}

// NamedSection pairs a section with its display label.
type NamedSection struct {
	Label string
	Section
}

// Validate checks md against limits and presence rules.
func Validate(md MetaData, limits Limits) Validation {
	newSection := func() Section { return Section{Status: StatusSuccess, Messages: []string{}} }
	v := Validation{
		Title:       newSection(),
		Description: newSection(),
		OpenGraph:   newSection(),
		Twitter:     newSection(),
		Technical:   newSection(),
		Content:     newSection(),
	}
	deduction := 0

	deduction += validateLength(&v.Title, md.Title, "title tag", "Title", limits.TitleMin, limits.TitleMax)
	deduction += validateLength(&v.Description, md.Description, "meta description", "Description", limits.DescriptionMin, limits.DescriptionMax)

	var ogMissing []string
	if md.OGTitle == "" {
		ogMissing = append(ogMissing, "og:title")
	}
	if md.OGDescription == "" {
		ogMissing = append(ogMissing, "og:description")
	}
	if md.OGImage == "" {
		ogMissing = append(ogMissing, "og:image")
	}
	if len(ogMissing) > 0 {
		v.OpenGraph.fail(StatusWarning, "Missing Open Graph tags: "+strings.Join(ogMissing, ", "))
		deduction += 3 * len(ogMissing)
	}
	v.OpenGraph.pass("All essential Open Graph tags present")

	if md.TwitterCard == "" {
		v.Twitter.fail(StatusWarning, "Missing Twitter Card type")
		deduction += 5
	} else if md.TwitterImage == "" {
		v.Twitter.fail(StatusWarning, "Twitter Card specified but missing image")
		deduction += 3
	}
	v.Twitter.pass("Twitter Card tags are properly configured")

	if md.Canonical == "" {
		v.Technical.fail(StatusWarning, "Missing canonical URL")
		deduction += 5
	}
	if md.Viewport == "" {
		v.Technical.fail(StatusWarning, "Missing viewport meta tag")
		deduction += 5
	}
	v.Technical.pass("Technical SEO tags are properly configured")

	switch n := len(md.H1); {
	case n == 0:
		v.Content.fail(StatusWarning, "No H1 tags found")
		deduction += 10
	case n > 1:
		v.Content.fail(StatusWarning, fmt.Sprintf("Multiple H1 tags found (%d). Use only one H1 per page", n))
		deduction += 5
	}
	if md.ImageAltMissing > 0 {
		v.Content.fail(StatusWarning, fmt.Sprintf("%d out of %d images missing alt attributes", md.ImageAltMissing, md.TotalImages))
		deduction += min(2*md.ImageAltMissing, 10)
	}
	v.Content.pass("Content structure is well optimized")

	v.OverallScore = max(0, 100-deduction)
	return v
}

func validateLength(s *Section, value, missing, label string, lo, hi int) int {
	if value == "" {
		s.fail(StatusError, "Missing "+missing)
		return 15
	}
	n := utf8.RuneCountInString(value)
	switch {
	case n < lo:
		s.fail(StatusWarning, fmt.Sprintf("%s too short (%d chars). Recommended: %d-%d characters", label, n, lo, hi))
		return 5
	case n > hi:
		s.fail(StatusWarning, fmt.Sprintf("%s too long (%d chars). Recommended: %d-%d characters", label, n, lo, hi))
		return 5
	}
	s.pass(label + " length is optimal")
	return 0
}
