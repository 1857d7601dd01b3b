package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/metalens/internal/report"
	"github.com/vango-dev/metalens/internal/store"
)

const historyTimeLayout = "2006-01-02 15:04"

func historyCmd(a *app) *cobra.Command {
	var (
		limit  int
		format string
		domain string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored analyses",
		Long: `List the most recent stored analyses, newest first.

With --domain, print the aggregate statistics of one domain instead.

Examples:
  metalens history
  metalens history --limit 50 --format json
  metalens history --domain example.com`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch format {
			case "table", string(report.FormatJSON), string(report.FormatYAML):
			default:
				return fmt.Errorf("unknown format %q (want table, json or yaml)", format)
			}

			db, err := a.openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			out := cmd.OutOrStdout()
			if domain != "" {
				stats, err := db.DomainStats(cmd.Context(), strings.ToLower(domain))
				if err != nil {
					return err
				}
				if format == "table" {
					printDomainStats(out, stats)
					return nil
				}
				return encode(out, format, stats)
			}

			list, err := db.RecentAnalyses(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if format == "table" {
				if len(list) == 0 {
					info(out, "No analyses stored yet")
					return nil
				}
				return printSummaries(out, list)
			}
			return encode(out, format, list)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of analyses to list")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format (table, json, yaml)")
	cmd.Flags().StringVarP(&domain, "domain", "d", "", "Show statistics for one domain")

	return cmd
}

func encode(w io.Writer, format string, v any) error {
	if format == string(report.FormatYAML) {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printSummaries(w io.Writer, list []store.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSCORE\tDOMAIN\tANALYZED\tTITLE")
	for _, s := range list {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n",
			s.ID, s.OverallScore, s.Domain,
			s.AnalyzedAt.Local().Format(historyTimeLayout),
			truncate(s.Title, 50))
	}
	return tw.Flush()
}

func printDomainStats(w io.Writer, s *store.DomainStats) {
	fmt.Fprintf(w, "%s\n\n", s.Domain)
	fmt.Fprintf(w, "  Analyses:      %d\n", s.TotalAnalyses)
	fmt.Fprintf(w, "  Last analysis: %s\n", s.LastAnalysis.Local().Format(historyTimeLayout))
	fmt.Fprintf(w, "  Average score: %.1f (%s)\n", s.AvgOverallScore, report.Grade(int(s.AvgOverallScore+0.5)))
	fmt.Fprintf(w, "  Best / worst:  %d / %d\n", s.BestScore, s.WorstScore)
	fmt.Fprintf(w, "  Title:         %.1f\n", s.AvgTitleScore)
	fmt.Fprintf(w, "  Description:   %.1f\n", s.AvgDescriptionScore)
	fmt.Fprintf(w, "  Open Graph:    %.1f\n", s.AvgOGScore)
	fmt.Fprintf(w, "  Twitter Card:  %.1f\n", s.AvgTwitterScore)
	if !s.CreatedAt.IsZero() {
		fmt.Fprintf(w, "  Tracked since: %s\n", s.CreatedAt.Local().Format(historyTimeLayout))
	}
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
