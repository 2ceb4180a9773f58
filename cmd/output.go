package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/company-directory/internal/company"
	"github.com/sells-group/company-directory/internal/importer"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

// render writes v as JSON or YAML, or calls table for the default format.
func render(out io.Writer, format string, v any, table func(io.Writer)) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(v), "encode json")
	case formatYAML:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return eris.Wrap(err, "encode yaml")
		}
		return eris.Wrap(enc.Close(), "encode yaml")
	default:
		table(out)
		return nil
	}
}

func printCompanies(out io.Writer, format string, cs []company.Company) error {
	return render(out, format, cs, func(out io.Writer) {
		if len(cs) == 0 {
			_, _ = fmt.Fprintln(out, "No companies found.")
			return
		}
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "ID\tNAME\tTYPE\tCITY\tQUALITY\tWEBSITE")
		_, _ = fmt.Fprintln(w, "--\t----\t----\t----\t-------\t-------")
		for _, c := range cs {
			_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\n",
				c.ID, truncate(c.Name, 40), c.Type, c.City, c.QualityScore, c.Website)
		}
		_ = w.Flush()
	})
}

func printDetail(out io.Writer, format string, d *company.Detail) error {
	return render(out, format, d, func(out io.Writer) {
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		field := func(label, value string) {
			if value != "" {
				_, _ = fmt.Fprintf(w, "%s:\t%s\n", label, value)
			}
		}
		field("ID", fmt.Sprint(d.ID))
		field("Name", d.Name)
		field("Type", d.Type)
		field("Website", d.Website)
		field("Logo", d.LogoURL)
		field("Owner", d.Owner)
		field("Maturity", d.Maturity)
		field("City", d.City)
		field("Country", d.Country)
		if d.GreaterStockholm != nil {
			field("Greater Stockholm", yesNo(*d.GreaterStockholm))
		}
		field("Source", d.Source)
		field("Source page", d.SourceURL)
		field("Quality", fmt.Sprint(d.QualityScore))
		field("Sectors", strings.Join(d.Sectors, ", "))
		field("Domains", strings.Join(d.Domains, ", "))
		field("AI capabilities", strings.Join(d.Capabilities, ", "))
		field("Dimensions", strings.Join(d.Dimensions, ", "))
		_ = w.Flush()
		if d.Description != "" {
			_, _ = fmt.Fprintf(out, "\n%s\n", d.Description)
		}
	})
}

func printStrings(out io.Writer, format string, values []string, empty string) error {
	return render(out, format, values, func(out io.Writer) {
		if len(values) == 0 {
			_, _ = fmt.Fprintln(out, empty)
			return
		}
		for _, v := range values {
			_, _ = fmt.Fprintln(out, v)
		}
	})
}

func printCities(out io.Writer, format string, cities []company.CityCount) error {
	return render(out, format, cities, func(out io.Writer) {
		if len(cities) == 0 {
			_, _ = fmt.Fprintln(out, "No cities found.")
			return
		}
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "CITY\tCOMPANIES")
		for _, c := range cities {
			_, _ = fmt.Fprintf(w, "%s\t%d\n", c.City, c.Count)
		}
		_ = w.Flush()
	})
}

func printStats(out io.Writer, format string, s *company.Stats) error {
	return render(out, format, s, func(out io.Writer) {
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintf(w, "Companies:\t%d\n", s.Companies)
		for _, c := range s.BySource {
			_, _ = fmt.Fprintf(w, "  source %s:\t%d\n", orDash(c.Name), c.Count)
		}
		for _, c := range s.ByType {
			_, _ = fmt.Fprintf(w, "  type %s:\t%d\n", orDash(c.Name), c.Count)
		}
		_, _ = fmt.Fprintf(w, "Quality avg/min/max:\t%.1f / %d / %d\n", s.QualityAvg, s.QualityMin, s.QualityMax)
		for _, c := range s.Tags {
			_, _ = fmt.Fprintf(w, "Tags %s:\t%d\n", c.Name, c.Count)
		}
		_, _ = fmt.Fprintf(w, "With city:\t%d\n", s.WithCity)
		_, _ = fmt.Fprintf(w, "Greater Stockholm:\t%d\n", s.GreaterStockholm)
		_ = w.Flush()
	})
}

func printRuns(out io.Writer, format string, runs []company.ImportRun) error {
	return render(out, format, runs, func(out io.Writer) {
		if len(runs) == 0 {
			_, _ = fmt.Fprintln(out, "No import runs found.")
			return
		}
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "ID\tSOURCE\tSTATUS\tSTARTED\tIMPORTED\tDUPLICATES\tSKIPPED\tERRORS")
		_, _ = fmt.Fprintln(w, "--\t------\t------\t-------\t--------\t----------\t-------\t------")
		for _, r := range runs {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
				truncateID(r.ID), r.Source, r.Status, r.StartedAt.Format("2006-01-02 15:04"),
				r.Imported, r.Duplicates, r.Skipped, r.Errors)
		}
		_ = w.Flush()
	})
}

func printResult(out io.Writer, format, source string, res *importer.Result) error {
	return render(out, format, res, func(out io.Writer) {
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintf(w, "Source:\t%s\n", source)
		_, _ = fmt.Fprintf(w, "Records:\t%d\n", res.Total)
		_, _ = fmt.Fprintf(w, "Imported:\t%d\n", res.Imported)
		_, _ = fmt.Fprintf(w, "Duplicates:\t%d\n", res.Duplicates)
		_, _ = fmt.Fprintf(w, "Skipped:\t%d\n", res.Skipped)
		_, _ = fmt.Fprintf(w, "Errors:\t%d\n", res.Errors)
		_ = w.Flush()
	})
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
