package main

import (
	"context"
	"io"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/company-directory/internal/fetcher"
	"github.com/sells-group/company-directory/internal/importer"
)

var (
	importJSONPath string
	importCSVPath  string
	importAll      bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load company sources into the store",
}

var importPrimaryCmd = &cobra.Command{
	Use:   "primary",
	Short: "Import the my.ai.se JSON export (reseeds existing ids)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runImport(cmd, importJSONPath, true, cfg.Import.PrimarySource,
			func(ctx context.Context, im *importer.Importer, r io.Reader) (*importer.Result, error) {
				return im.Primary(ctx, r)
			})
	},
}

var importSecondaryCmd = &cobra.Command{
	Use:   "secondary",
	Short: "Import the EU startup CSV, skipping companies already in the store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runImport(cmd, importCSVPath, false, cfg.Import.SecondarySource,
			func(ctx context.Context, im *importer.Importer, r io.Reader) (*importer.Result, error) {
				return im.Secondary(ctx, r)
			})
	},
}

type importFunc func(context.Context, *importer.Importer, io.Reader) (*importer.Result, error)

func runImport(cmd *cobra.Command, src string, create bool, source string, fn importFunc) error {
	ctx := cmd.Context()

	st, err := initStore(ctx, create)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	im := importer.New(st, importOptions())
	res, err := importer.Track(ctx, st, source, src, func(ctx context.Context) (*importer.Result, error) {
		rc, err := fetcher.Open(ctx, newFetcher(), src)
		if err != nil {
			return nil, err
		}
		defer rc.Close() //nolint:errcheck
		return fn(ctx, im, rc)
	})
	if err != nil {
		return eris.Wrapf(err, "import %s", source)
	}

	return printResult(cmd.OutOrStdout(), outputFormat, source, res)
}

func importOptions() importer.Options {
	return importer.Options{
		PrimarySource:          cfg.Import.PrimarySource,
		SecondarySource:        cfg.Import.SecondarySource,
		ProgressEvery:          cfg.Import.ProgressEvery,
		SecondaryProgressEvery: cfg.Import.SecondaryProgressEvery,
		OnlyUnique:             !importAll,
	}
}

func newFetcher() *fetcher.HTTPFetcher {
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent: cfg.Import.UserAgent,
		Timeout:   time.Duration(cfg.Import.HTTPTimeoutSecs) * time.Second,
	})
}

func init() {
	importPrimaryCmd.Flags().StringVar(&importJSONPath, "json", "", "path or URL of the JSON export (required)")
	_ = importPrimaryCmd.MarkFlagRequired("json")

	importSecondaryCmd.Flags().StringVar(&importCSVPath, "csv", "", "path or URL of the semicolon-separated CSV (required)")
	importSecondaryCmd.Flags().BoolVar(&importAll, "all", false, "import rows even when the name is already known")
	_ = importSecondaryCmd.MarkFlagRequired("csv")

	importCmd.AddCommand(importPrimaryCmd)
	importCmd.AddCommand(importSecondaryCmd)
	rootCmd.AddCommand(importCmd)
}
