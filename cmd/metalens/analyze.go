package main

import (
	"context"
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/vango-dev/metalens/internal/errors"
	"github.com/vango-dev/metalens/internal/report"
	"github.com/vango-dev/metalens/internal/store"
	"github.com/vango-dev/metalens/pkg/seo"
)

func analyzeCmd(a *app) *cobra.Command {
	var (
		format string
		save   bool
	)

	cmd := &cobra.Command{
		Use:   "analyze <url>...",
		Short: "Analyze one or more pages",
		Long: `Fetch each URL and print its SEO report.

URLs without a scheme are fetched over https. With more than one URL a
progress bar is drawn on stderr. Pages that fail are reported at the
end and make the command exit non-zero.

Examples:
  metalens analyze example.com
  metalens analyze --format json https://go.dev https://python.org
  metalens analyze --save example.com`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}
			return runAnalyze(cmd.Context(), a, cmd.OutOrStdout(), cmd.ErrOrStderr(), args, f, save)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(report.FormatText), "Output format (text, json, yaml, markdown, html)")
	cmd.Flags().BoolVar(&save, "save", false, "Store the results in the history database")

	return cmd
}

type failure struct {
	url string
	err error
}

func runAnalyze(ctx context.Context, a *app, out, errOut io.Writer, urls []string, f report.Format, save bool) error {
	var db *store.DB
	if save {
		var err error
		if db, err = a.openStore(); err != nil {
			return err
		}
		defer db.Close()
	}

	analyzer := a.newAnalyzer()

	var bar *progressbar.ProgressBar
	if len(urls) > 1 {
		bar = progressbar.NewOptions(len(urls),
			progressbar.OptionSetWriter(errOut),
			progressbar.OptionSetDescription("Analyzing"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	results := make([]*seo.Result, 0, len(urls))
	var failures []failure
	for _, u := range urls {
		res, err := analyzer.Analyze(ctx, u)
		if bar != nil {
			_ = bar.Add(1)
		}
		if err != nil {
			failures = append(failures, failure{url: u, err: err})
			continue
		}
		if db != nil {
			if err := db.SaveAnalysis(ctx, res); err != nil {
				return err
			}
		}
		results = append(results, res)
	}
	if bar != nil {
		_ = bar.Finish()
	}

	for i, res := range results {
		body, err := report.Render(f, res)
		if err != nil {
			return errors.New(errors.CodeExport).Wrap(err)
		}
		if i > 0 && (f == report.FormatText || f == report.FormatMarkdown) {
			fmt.Fprintln(out)
		}
		if _, err := out.Write(body); err != nil {
			return err
		}
	}

	if save && len(results) > 0 {
		success(errOut, "Saved %d analyses to %s", len(results), db.Path())
	}

	switch {
	case len(failures) == 0:
		return nil
	case len(urls) == 1:
		return failures[0].err
	}
	for _, fl := range failures {
		errorMsg(errOut, "%s: %s", fl.url, errors.UserMessage(fl.err))
	}
	return fmt.Errorf("%d of %d analyses failed", len(failures), len(urls))
}
