package main

import (
	"github.com/spf13/cobra"
)

func exportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Upload a stored analysis report to S3",
		Long: `Upload the JSON and HTML reports of a stored analysis to the
configured S3 bucket.

Examples:
  metalens export 3f2a9c1e-0b7d-4f7a-9a53-0c6d2b1e8f10
  METALENS_EXPORT_BUCKET=reports metalens export <id>`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exp, err := a.newExporter(cmd.Context())
			if err != nil {
				return err
			}

			db, err := a.openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			res, err := db.Analysis(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			keys, err := exp.Export(cmd.Context(), res)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, key := range keys {
				success(out, "Uploaded s3://%s/%s", a.cfg.Export.Bucket, key)
			}
			return nil
		},
	}

	return cmd
}
