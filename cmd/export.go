package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/company-directory/internal/export"
	"github.com/sells-group/company-directory/internal/query"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write filtered companies to a CSV or XLSX file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		f, err := filterFromFlags(cmd.Flags())
		if err != nil {
			return err
		}
		if f.Limit == 0 {
			f.Limit = cfg.Query.MaxLimit
		}

		return withQuery(cmd, func(svc *query.Service) error {
			out, err := svc.Filter(cmd.Context(), f)
			if err != nil {
				return err
			}
			if err := export.WriteFile(exportOut, out); err != nil {
				return err
			}
			zap.L().Info("export written", zap.String("path", exportOut), zap.Int("companies", len(out)))
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d companies to %s\n", len(out), exportOut)
			return nil
		})
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output file (.csv or .xlsx, required)")
	_ = exportCmd.MarkFlagRequired("out")
	addFilterFlags(exportCmd.Flags())

	rootCmd.AddCommand(exportCmd)
}
