// Package seo fetches web pages and scores their meta tags.
//
// An Analyzer fetches a page, extracts its title, description, Open Graph
// and Twitter Card tags along with a few structural signals, validates
// them against length limits and presence rules, and builds the snippet
// previews search engines and social networks would show.
//
//	a := seo.NewAnalyzer(seo.WithTimeout(10 * time.Second))
//	res, err := a.Analyze(ctx, "example.com")
//	if err != nil {
//		return err // an *errors.Error with a fetch code
//	}
//	fmt.Println(res.Validation.OverallScore)
//
// Extraction, validation and previews are plain functions over parsed
// HTML and can be used without the fetcher.
package seo
