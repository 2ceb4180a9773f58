package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sells-group/company-directory/internal/company"
	"github.com/sells-group/company-directory/internal/query"
)

var (
	searchLimit int

	randomCount    int
	randomType     string
	randomRelevant bool
)

var searchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Find companies whose name contains a term",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withQuery(cmd, func(svc *query.Service) error {
			out, err := svc.Search(cmd.Context(), strings.Join(args, " "), searchLimit)
			if err != nil {
				return err
			}
			return printCompanies(cmd.OutOrStdout(), outputFormat, out)
		})
	},
}

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "List companies matching every given criterion",
	RunE: func(cmd *cobra.Command, _ []string) error {
		f, err := filterFromFlags(cmd.Flags())
		if err != nil {
			return err
		}
		return withQuery(cmd, func(svc *query.Service) error {
			out, err := svc.Filter(cmd.Context(), f)
			if err != nil {
				return err
			}
			return printCompanies(cmd.OutOrStdout(), outputFormat, out)
		})
	},
}

var randomCmd = &cobra.Command{
	Use:   "random",
	Short: "Pick random companies",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withQuery(cmd, func(svc *query.Service) error {
			out, err := svc.Random(cmd.Context(), company.RandomFilter{
				Count:        randomCount,
				Type:         randomType,
				OnlyRelevant: randomRelevant,
			})
			if err != nil {
				return err
			}
			return printCompanies(cmd.OutOrStdout(), outputFormat, out)
		})
	},
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one company with all its tags",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return eris.Errorf("invalid company id %q", args[0])
		}
		return withQuery(cmd, func(svc *query.Service) error {
			d, ok, err := svc.Detail(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !ok {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Company %d not found.\n", id)
				return nil
			}
			return printDetail(cmd.OutOrStdout(), outputFormat, d)
		})
	},
}

// withQuery opens the existing store for the duration of fn.
func withQuery(cmd *cobra.Command, fn func(*query.Service) error) error {
	st, err := initStore(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	return fn(newQueryService(st))
}

// addFilterFlags registers the flags read by filterFromFlags.
func addFilterFlags(fs *pflag.FlagSet) {
	fs.String("type", "", "organization type")
	fs.String("sector", "", "sector tag")
	fs.String("domain", "", "domain tag")
	fs.String("capability", "", "AI capability tag")
	fs.String("city", "", "city (case-insensitive)")
	fs.Bool("greater-stockholm", false, "only companies inside (true) or outside (false) Greater Stockholm")
	fs.Int("min-quality", 0, "minimum quality score (0-100)")
	fs.Bool("relevant", false, "only corporations, startups and suppliers")
	fs.Int("limit", 0, "maximum number of results (0 = default)")
}

// filterFromFlags builds a filter from flags registered by addFilterFlags.
// --greater-stockholm is only active when given explicitly.
func filterFromFlags(fs *pflag.FlagSet) (company.Filter, error) {
	var f company.Filter
	var err error

	get := func(name string) string {
		if err != nil {
			return ""
		}
		var v string
		v, err = fs.GetString(name)
		return v
	}
	f.Type = get("type")
	f.Sector = get("sector")
	f.Domain = get("domain")
	f.Capability = get("capability")
	f.City = get("city")
	if err != nil {
		return f, eris.Wrap(err, "read filter flags")
	}

	if fs.Changed("greater-stockholm") {
		gs, gerr := fs.GetBool("greater-stockholm")
		if gerr != nil {
			return f, eris.Wrap(gerr, "read filter flags")
		}
		f.GreaterStockholm = &gs
	}
	if f.MinQuality, err = fs.GetInt("min-quality"); err != nil {
		return f, eris.Wrap(err, "read filter flags")
	}
	if f.MinQuality < 0 || f.MinQuality > 100 {
		return f, eris.Errorf("--min-quality must be between 0 and 100 (got %d)", f.MinQuality)
	}
	if f.OnlyRelevant, err = fs.GetBool("relevant"); err != nil {
		return f, eris.Wrap(err, "read filter flags")
	}
	if f.Limit, err = fs.GetInt("limit"); err != nil {
		return f, eris.Wrap(err, "read filter flags")
	}
	return f, nil
}

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", 0, "maximum number of results (0 = default)")

	addFilterFlags(filterCmd.Flags())

	randomCmd.Flags().IntVar(&randomCount, "count", 1, "number of companies")
	randomCmd.Flags().StringVar(&randomType, "type", "", "organization type")
	randomCmd.Flags().BoolVar(&randomRelevant, "relevant", false, "only corporations, startups and suppliers")

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(filterCmd)
	rootCmd.AddCommand(randomCmd)
	rootCmd.AddCommand(showCmd)
}
