package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/company-directory/internal/query"
)

var runsLimit int

var categoriesCmd = &cobra.Command{
	Use:       "categories <types|sector|domain|capability|dimension>",
	Short:     "List the distinct values of a category",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"types", "sector", "domain", "capability", "dimension"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return withQuery(cmd, func(svc *query.Service) error {
			out, err := svc.Categories(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printStrings(cmd.OutOrStdout(), outputFormat, out, fmt.Sprintf("No %s found.", args[0]))
		})
	},
}

var citiesCmd = &cobra.Command{
	Use:   "cities",
	Short: "List cities with their company counts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withQuery(cmd, func(svc *query.Service) error {
			out, err := svc.Cities(cmd.Context())
			if err != nil {
				return err
			}
			return printCities(cmd.OutOrStdout(), outputFormat, out)
		})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the directory",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withQuery(cmd, func(svc *query.Service) error {
			s, err := svc.Stats(cmd.Context())
			if err != nil {
				return err
			}
			return printStats(cmd.OutOrStdout(), outputFormat, s)
		})
	},
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent import runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withQuery(cmd, func(svc *query.Service) error {
			runs, err := svc.ImportRuns(cmd.Context(), runsLimit)
			if err != nil {
				return err
			}
			return printRuns(cmd.OutOrStdout(), outputFormat, runs)
		})
	},
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "number of runs to show")

	rootCmd.AddCommand(categoriesCmd)
	rootCmd.AddCommand(citiesCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(runsCmd)
}
