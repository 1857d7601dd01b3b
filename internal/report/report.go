// Package report renders analysis results for people and machines and
// archives them to S3.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/metalens/pkg/seo"
)

// Format is an output format.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// Formats lists every supported format.
var Formats = []Format{FormatText, FormatJSON, FormatYAML, FormatMarkdown, FormatHTML}

// ParseFormat returns the format named s.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatYAML, FormatMarkdown, FormatHTML:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	case "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown format %q", s)
}

// Render renders res in format f.
func Render(f Format, res *seo.Result) ([]byte, error) {
	switch f {
	case FormatText:
		return []byte(Text(res)), nil
	case FormatJSON:
		return JSON(res)
	case FormatYAML:
		return YAML(res)
	case FormatMarkdown:
		return []byte(Markdown(res)), nil
	case FormatHTML:
		return HTML(res)
	}
	return nil, fmt.Errorf("unknown format %q", f)
}

// JSON renders res as indented JSON.
func JSON(res *seo.Result) ([]byte, error) {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// YAML renders res as YAML.
func YAML(res *seo.Result) ([]byte, error) {
	return yaml.Marshal(res)
}

// Grade returns the label for a 0-100 score.
func Grade(score int) string {
	switch {
	case score >= 80:
		return "good"
	case score >= 50:
		return "needs work"
	default:
		return "poor"
	}
}

// Text renders a terminal summary.
func Text(res *seo.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", res.URL)
	fmt.Fprintf(&b, "Score: %d/100 (%s)\n\n", res.Score(), Grade(res.Score()))
	for _, s := range res.Validation.Sections() {
		fmt.Fprintf(&b, "[%s] %s\n", statusMark(s.Status), s.Label)
		for _, m := range s.Messages {
			fmt.Fprintf(&b, "    %s\n", m)
		}
	}
	return b.String()
}

func statusMark(s seo.Status) string {
	switch s {
	case seo.StatusSuccess:
		return "ok"
	case seo.StatusWarning:
		return "!!"
	default:
		return "XX"
	}
}

var markdownTmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"cell":  cell,
	"grade": Grade,
	"mark":  statusMark,
}).Parse(`# SEO report: {{cell .Domain}}

- URL: {{cell .URL}}
- Score: **{{.Score}}/100** ({{grade .Score}})
- Analyzed: {{.AnalyzedAt.Format "2006-01-02 15:04:05 MST"}}

## Checks

| Section | Status | Findings |
|---|---|---|
{{- range .Validation.Sections}}
| {{.Label}} | {{.Status}} | {{range $i, $m := .Messages}}{{if $i}}; {{end}}{{cell $m}}{{end}} |
{{- end}}

## Meta tags

| Tag | Value |
|---|---|
| title | {{cell .Meta.Title}} |
| description | {{cell .Meta.Description}} |
| keywords | {{cell .Meta.Keywords}} |
| canonical | {{cell .Meta.Canonical}} |
| robots | {{cell .Meta.Robots}} |
| viewport | {{cell .Meta.Viewport}} |
| charset | {{cell .Meta.Charset}} |
| og:title | {{cell .Meta.OGTitle}} |
| og:description | {{cell .Meta.OGDescription}} |
| og:image | {{cell .Meta.OGImage}} |
| og:url | {{cell .Meta.OGURL}} |
| og:type | {{cell .Meta.OGType}} |
| og:site_name | {{cell .Meta.OGSiteName}} |
| twitter:card | {{cell .Meta.TwitterCard}} |
| twitter:title | {{cell .Meta.TwitterTitle}} |
| twitter:description | {{cell .Meta.TwitterDescription}} |
| twitter:image | {{cell .Meta.TwitterImage}} |
| twitter:site | {{cell .Meta.TwitterSite}} |

Headings: {{len .Meta.H1}} H1, {{len .Meta.H2}} H2. Images: {{.Meta.TotalImages}}, {{.Meta.ImageAltMissing}} without alt text.

## Previews

### Google
**{{cell .Previews.Google.Title}}**  
{{cell .Previews.Google.URL}}  
{{cell .Previews.Google.Description}}

### Facebook
**{{cell .Previews.Facebook.Title}}** ({{cell .Previews.Facebook.SiteName}})  
{{cell .Previews.Facebook.Description}}

### Twitter
**{{cell .Previews.Twitter.Title}}** ({{cell .Previews.Twitter.CardType}}, {{cell .Previews.Twitter.Site}})  
{{cell .Previews.Twitter.Description}}

### LinkedIn
**{{cell .Previews.LinkedIn.Title}}** ({{cell .Previews.LinkedIn.SiteName}})  
{{cell .Previews.LinkedIn.Description}}
`))

// Markdown renders res as a GitHub-flavored Markdown report.
func Markdown(res *seo.Result) string {
	var buf bytes.Buffer
	if err := markdownTmpl.Execute(&buf, res); err != nil {
		// Only reachable through a template bug.
		panic(fmt.Sprintf("report: markdown template: %v", err))
	}
	return buf.String()
}

var cellEscaper = strings.NewReplacer(
	`\`, `\\`,
	"|", `\|`,
	"<", `\<`,
	">", `\>`,
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
	"[", `\[`,
	"]", `\]`,
	"\r", " ",
	"\n", " ",
)

// cell escapes s for use inside Markdown text and table cells.
func cell(s string) string {
	if s == "" {
		return "-"
	}
	return cellEscaper.Replace(s)
}
