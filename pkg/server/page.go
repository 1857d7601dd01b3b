package server

import (
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/vango-dev/metalens/internal/report"
	"github.com/vango-dev/metalens/pkg/dom"
	"github.com/vango-dev/metalens/pkg/pref"
	"github.com/vango-dev/metalens/pkg/seo"
)

// Element IDs of the page model.
const (
	appID         = "app"
	themeButtonID = "theme-toggle"
	formID        = "analyze-form"
	inputID       = "url-input"
	buttonID      = "analyze-btn"
	examplesID    = "examples"
	resultID      = "result"
	resultCardID  = "result-card"
)

const (
	// exampleAttr carries the URL of an example button.
	exampleAttr = "data-url"

	// copyAttr carries the text a copy button puts on the clipboard.
	copyAttr = "data-copy"

	highlightClass = "example-highlight"
	invalidClass   = "is-invalid"
	validClass     = "is-valid"
)

var exampleURLs = []string{
	"https://github.com",
	"https://www.python.org",
	"https://developer.mozilla.org",
}

// newPage builds the initial page model. Construction patches are
// discarded; the caller starts from a clean document.
func newPage(theme pref.Theme) *dom.Document {
	doc := dom.NewDocument()
	doc.Body().SetAttr(pref.ThemeAttr, string(theme))

	header := doc.Create("div", "").
		AddClass("d-flex justify-content-between align-items-center mb-4").
		AppendChild(
			doc.Create("h1", "").AddClass("h3 mb-0").SetText("metalens"),
			doc.Create("button", themeButtonID).
				AddClass("btn btn-outline-secondary btn-sm").
				SetAttr("type", "button").
				SetText("Toggle theme"),
		)

	form := doc.Create("form", formID).
		AddClass("mb-3").
		SetAttr("action", "/analyze").
		SetAttr("method", "post").
		AppendChild(doc.Create("div", "").AddClass("input-group").AppendChild(
			doc.Create("input", inputID).
				AddClass("form-control").
				SetAttr("type", "text").
				SetAttr("name", "url").
				SetAttr("placeholder", "https://example.com").
				SetAttr("autocomplete", "off"),
			doc.Create("button", buttonID).
				AddClass("btn btn-primary").
				SetAttr("type", "submit").
				SetText("Analyze"),
		))

	examples := doc.Create("div", examplesID).
		AddClass("mb-4").
		AppendChild(doc.Create("span", "").AddClass("text-body-secondary me-2").SetText("Try:"))
	for i, u := range exampleURLs {
		examples.AppendChild(doc.Create("button", fmt.Sprintf("example-%d", i)).
			AddClass("btn btn-link btn-sm example-url").
			SetAttr("type", "button").
			SetAttr(exampleAttr, u).
			SetText(seo.FormatURL(u)))
	}

	app := doc.Create("div", appID).
		AddClass("container py-4").
		AppendChild(header, form, examples, doc.Create("div", resultID))
	if err := doc.Append(dom.BodyID, app); err != nil {
		panic(err)
	}
	doc.Flush()
	return doc
}

// renderResult replaces the result card with one for res.
func renderResult(doc *dom.Document, res *seo.Result) error {
	if _, ok := doc.Lookup(resultCardID); ok {
		if err := doc.Remove(resultCardID); err != nil {
			return err
		}
	}
	return doc.Append(resultID, resultCard(doc, res))
}

func resultCard(doc *dom.Document, res *seo.Result) *dom.Element {
	score := res.Score()
	body := doc.Create("div", "").AddClass("card-body").AppendChild(
		doc.Create("h2", "result-title").AddClass("h5").SetText(seo.FormatURL(res.URL)),
		doc.Create("p", "result-score").
			AddClass("fs-4", scoreClass(score)).
			SetText(fmt.Sprintf("%d/100 (%s)", score, report.Grade(score))),
	)

	sections := doc.Create("ul", "result-sections").AddClass("list-group mb-3")
	for _, sec := range res.Validation.Sections() {
		sections.AppendChild(doc.Create("li", "").
			AddClass("list-group-item", "status-"+string(sec.Status)).
			SetText(fmt.Sprintf("%s (%d): %s", sec.Label, sec.Score(), strings.Join(sec.Messages, "; "))))
	}
	body.AppendChild(sections)

	previews := doc.Create("div", "result-previews").AddClass("row g-3 mb-3")
	for _, p := range []struct {
		name string
		seo.Preview
	}{
		{"Google", res.Previews.Google},
		{"Facebook", res.Previews.Facebook},
		{"Twitter", res.Previews.Twitter},
		{"LinkedIn", res.Previews.LinkedIn},
	} {
		card := doc.Create("div", "").AddClass("border rounded p-2 h-100").AppendChild(
			doc.Create("div", "").AddClass("small text-body-secondary").SetText(p.name),
			doc.Create("div", "").AddClass("fw-semibold").SetText(p.Title),
			doc.Create("div", "").AddClass("small").SetText(p.Description),
		)
		if site := firstNonEmpty(p.SiteName, p.Site, p.URL); site != "" {
			card.AppendChild(doc.Create("div", "").AddClass("small text-success").SetText(site))
		}
		previews.AppendChild(doc.Create("div", "").AddClass("col-md-6").AppendChild(card))
	}
	body.AppendChild(previews)

	md := res.Meta
	table := doc.Create("table", "result-meta").AddClass("table table-sm")
	for _, row := range [][2]string{
		{"Title", md.Title},
		{"Description", md.Description},
		{"Canonical", md.Canonical},
		{"og:title", md.OGTitle},
		{"og:image", md.OGImage},
		{"twitter:card", md.TwitterCard},
	} {
		value := doc.Create("td", "").SetText(row[1])
		tr := doc.Create("tr", "").AppendChild(
			doc.Create("th", "").AddClass("text-nowrap").SetText(row[0]),
			value,
		)
		action := doc.Create("td", "").AddClass("text-end")
		if row[1] != "" {
			action.AppendChild(doc.Create("button", "").
				AddClass("btn btn-outline-secondary btn-sm").
				SetAttr("type", "button").
				SetAttr(copyAttr, row[1]).
				SetText("Copy"))
		}
		table.AppendChild(tr.AppendChild(action))
	}
	body.AppendChild(table)

	return doc.Create("div", resultCardID).AddClass("card").AppendChild(body)
}

func scoreClass(score int) string {
	switch {
	case score >= 80:
		return "text-success"
	case score >= 50:
		return "text-warning"
	default:
		return "text-danger"
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>metalens</title>
<link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/bootstrap@5.3.3/dist/css/bootstrap.min.css">
<style>
.loading{opacity:.65;pointer-events:none}
.example-highlight{background-color:var(--bs-warning-bg-subtle)}
.status-success{border-left:4px solid var(--bs-success)}
.status-warning{border-left:4px solid var(--bs-warning)}
.status-error{border-left:4px solid var(--bs-danger)}
</style>
<script src="{{.Client}}" defer></script>
</head>
{{.Body}}
</html>
`))

// writePage renders doc inside the HTML shell.
func writePage(w io.Writer, doc *dom.Document) error {
	return pageTemplate.Execute(w, struct {
		Client string
		Body   template.HTML
	}{
		Client: ClientPath,
		Body:   template.HTML(doc.HTML()),
	})
}
