package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/company-directory/internal/company"
	"github.com/sells-group/company-directory/internal/query"
)

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Browse the directory interactively",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withQuery(cmd, func(svc *query.Service) error {
			return runMenu(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), svc)
		})
	},
}

const menuText = `
1) Search by name
2) Filter
3) Random company
4) Categories
5) Cities
6) Show company
q) Quit
`

// menu reads answers line by line. EOF on input ends the session.
type menu struct {
	svc *query.Service
	in  *bufio.Scanner
	out io.Writer
}

func runMenu(ctx context.Context, in io.Reader, out io.Writer, svc *query.Service) error {
	m := &menu{svc: svc, in: bufio.NewScanner(in), out: out}

	for {
		_, _ = fmt.Fprint(out, menuText)
		choice, ok := m.ask("Choice: ")
		if !ok {
			return m.in.Err()
		}

		var err error
		switch strings.ToLower(choice) {
		case "1", "search":
			err = m.search(ctx)
		case "2", "filter":
			err = m.filter(ctx)
		case "3", "random":
			err = m.random(ctx)
		case "4", "categories":
			err = m.categories(ctx)
		case "5", "cities":
			err = m.cities(ctx)
		case "6", "show":
			err = m.show(ctx)
		case "q", "quit", "exit":
			_, _ = fmt.Fprintln(out, "Bye.")
			return nil
		case "":
			continue
		default:
			_, _ = fmt.Fprintf(out, "Unknown choice %q.\n", choice)
		}
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (m *menu) ask(prompt string) (string, bool) {
	_, _ = fmt.Fprint(m.out, prompt)
	if !m.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(m.in.Text()), true
}

func (m *menu) search(ctx context.Context) error {
	term, ok := m.ask("Name contains: ")
	if !ok || term == "" {
		return nil
	}
	out, err := m.svc.Search(ctx, term, 0)
	if err != nil {
		return err
	}
	return printCompanies(m.out, formatTable, out)
}

func (m *menu) filter(ctx context.Context) error {
	var f company.Filter
	f.Type, _ = m.ask("Type (blank for any): ")
	f.Sector, _ = m.ask("Sector contains (blank for any): ")
	f.Domain, _ = m.ask("Domain contains (blank for any): ")
	f.Capability, _ = m.ask("AI capability contains (blank for any): ")
	f.City, _ = m.ask("City (blank for any): ")
	f.GreaterStockholm = m.askTriState("Greater Stockholm? [y/n, blank for any]: ")

	if v, _ := m.ask("Min quality 0-100 (blank for any): "); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > 100 {
			_, _ = fmt.Fprintln(m.out, "Quality must be a number between 0 and 100.")
			return nil
		}
		f.MinQuality = n
	}
	if v, _ := m.ask("Only relevant types? [y/N]: "); isYes(v) {
		f.OnlyRelevant = true
	}

	out, err := m.svc.Filter(ctx, f)
	if err != nil {
		return err
	}
	return printCompanies(m.out, formatTable, out)
}

// Random picks are capped at menuMaxRandom per request.
const menuMaxRandom = 10

func (m *menu) random(ctx context.Context) error {
	n, _ := m.ask(fmt.Sprintf("How many (1-%d): ", menuMaxRandom))
	count := menuCount(n)
	v, _ := m.ask("Only relevant types? [y/N]: ")

	out, err := m.svc.Random(ctx, company.RandomFilter{Count: count, OnlyRelevant: isYes(v)})
	if err != nil {
		return err
	}
	return printCompanies(m.out, formatTable, out)
}

// menuCount parses a requested count, clamped to 1..menuMaxRandom.
// Anything unparsable means one.
func menuCount(v string) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 1
	}
	return min(max(n, 1), menuMaxRandom)
}

// askTriState maps a yes answer to true, any other answer to false and a
// blank answer to nil.
func (m *menu) askTriState(prompt string) *bool {
	v, _ := m.ask(prompt)
	if v == "" {
		return nil
	}
	b := isYes(v)
	return &b
}

func (m *menu) categories(ctx context.Context) error {
	kind, ok := m.ask("Category (types, sector, domain, capability, dimension): ")
	if !ok || kind == "" {
		return nil
	}
	kind = strings.ToLower(kind)
	if kind != query.CategoryTypes && kind != "type" {
		if _, err := company.ParseTagKind(kind); err != nil {
			_, _ = fmt.Fprintf(m.out, "Unknown category %q.\n", kind)
			return nil
		}
	}
	out, err := m.svc.Categories(ctx, kind)
	if err != nil {
		return err
	}
	return printStrings(m.out, formatTable, out, fmt.Sprintf("No %s found.", kind))
}

func (m *menu) cities(ctx context.Context) error {
	out, err := m.svc.Cities(ctx)
	if err != nil {
		return err
	}
	return printCities(m.out, formatTable, out)
}

func (m *menu) show(ctx context.Context) error {
	v, ok := m.ask("Company id: ")
	if !ok || v == "" {
		return nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		_, _ = fmt.Fprintf(m.out, "%q is not a company id.\n", v)
		return nil
	}
	d, found, err := m.svc.Detail(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		_, _ = fmt.Fprintf(m.out, "Company %d not found.\n", id)
		return nil
	}
	return printDetail(m.out, formatTable, d)
}

func isYes(s string) bool {
	switch strings.ToLower(s) {
	case "y", "yes", "j", "ja":
		return true
	}
	return false
}

func init() {
	rootCmd.AddCommand(menuCmd)
}
