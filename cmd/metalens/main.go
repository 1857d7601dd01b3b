// Command metalens analyzes the SEO meta tags of web pages, from the
// terminal or through a live web UI.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/metalens/internal/config"
	"github.com/vango-dev/metalens/internal/errors"
	"github.com/vango-dev/metalens/internal/report"
	"github.com/vango-dev/metalens/internal/store"
	"github.com/vango-dev/metalens/pkg/seo"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┌┬┐┌─┐┌┬┐┌─┐┬  ┌─┐┌┐┌┌─┐
  │││├┤  │ ├─┤│  ├┤ │││└─┐
  ┴ ┴└─┘ ┴ ┴ ┴┴─┘└─┘┘└┘└─┘
`

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.Fprint(os.Stderr, err)
		os.Exit(1)
	}
}

// app carries the state shared by every subcommand. It is filled in by
// the root command's pre-run hook.
type app struct {
	configPath string
	logLevel   string
	logFormat  string

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "metalens",
		Short: "Analyze the SEO meta tags of web pages",
		Long: `metalens fetches a page and scores its SEO metadata.

It checks the title, the meta description, Open Graph tags and Twitter
Card tags, and renders search and social previews. Use it from the
terminal or start the live web UI:

  • metalens analyze https://example.com
  • metalens serve --addr :8080
  • metalens history --limit 20`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", config.ConfigFileName, "Path to the configuration file")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.StringVar(&a.logFormat, "log-format", "", "Log format (text, json)")

	rootCmd.AddCommand(
		serveCmd(a),
		analyzeCmd(a),
		historyCmd(a),
		exportCmd(a),
		versionCmd(),
	)

	return rootCmd
}

// load reads the configuration, applies flag overrides and installs the
// default logger.
func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = cfg.Log.NewLogger(cmd.ErrOrStderr())
	slog.SetDefault(a.logger)
	return nil
}

func (a *app) openStore() (*store.DB, error) {
	return store.Open(a.cfg.Store.Path)
}

func (a *app) newAnalyzer() *seo.Analyzer {
	ac := a.cfg.Analyzer
	return seo.NewAnalyzer(
		seo.WithUserAgent(ac.UserAgent),
		seo.WithTimeout(ac.Timeout),
		seo.WithMaxBodyBytes(ac.MaxBodyBytes),
		seo.WithLimits(seo.Limits{
			TitleMin:       ac.TitleMin,
			TitleMax:       ac.TitleMax,
			DescriptionMin: ac.DescriptionMin,
			DescriptionMax: ac.DescriptionMax,
		}),
		seo.WithLogger(a.logger),
	)
}

// newExporter returns the S3 exporter, or an M030 error when no bucket
// is configured.
func (a *app) newExporter(ctx context.Context) (*report.S3Exporter, error) {
	ec := a.cfg.Export
	if ec.Bucket == "" {
		return nil, errors.New(errors.CodeExport).
			WithDetail("No export bucket is configured.").
			WithSuggestion("Set export.bucket in " + config.ConfigFileName + " or METALENS_EXPORT_BUCKET.")
	}
	client, err := report.NewS3Client(ctx, ec)
	if err != nil {
		return nil, err
	}
	return report.NewS3Exporter(client, ec.Bucket, ec.Prefix, a.logger), nil
}

// printBanner prints the metalens ASCII art banner.
func printBanner(w io.Writer) {
	fmt.Fprint(w, banner)
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}

// errorMsg prints an error message.
func errorMsg(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[31m✗\033[0m %s\n", fmt.Sprintf(format, args...))
}
