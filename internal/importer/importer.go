// Package importer loads the two directory sources into a company.Store.
package importer

import (
	"github.com/sells-group/company-directory/internal/company"
	"go.uber.org/zap"
)

// Source tags written to companies.source.
const (
	PrimarySource   = "my.ai.se"
	SecondarySource = "eu-site"
)

// SecondaryType is the organization type given to every secondary row;
// the CSV carries no type taxonomy.
const SecondaryType = "startup"

// SecondaryColumns are the CSV headers the secondary pass requires.
var SecondaryColumns = []string{
	"name",
	"description",
	"website",
	"image_url",
	"Location",
	"Greater Stockholm Y/N",
	"type",
	"source_page",
}

// Options configures an Importer.
type Options struct {
	PrimarySource          string
	SecondarySource        string
	ProgressEvery          int
	SecondaryProgressEvery int
	// OnlyUnique skips secondary rows whose normalized name is already known.
	OnlyUnique bool
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		PrimarySource:          PrimarySource,
		SecondarySource:        SecondarySource,
		ProgressEvery:          100,
		SecondaryProgressEvery: 50,
		OnlyUnique:             true,
	}
}

// Result tallies one import pass.
type Result struct {
	Total      int `json:"total" yaml:"total"`
	Imported   int `json:"imported" yaml:"imported"`
	Duplicates int `json:"duplicates" yaml:"duplicates"`
	Skipped    int `json:"skipped" yaml:"skipped"`
	Errors     int `json:"errors" yaml:"errors"`
}

func (r *Result) fields() []zap.Field {
	return []zap.Field{
		zap.Int("total", r.Total),
		zap.Int("imported", r.Imported),
		zap.Int("duplicates", r.Duplicates),
		zap.Int("skipped", r.Skipped),
		zap.Int("errors", r.Errors),
	}
}

// Importer runs import passes against a store.
type Importer struct {
	store company.Store
	opts  Options
}

// New creates an Importer. Zero option fields fall back to DefaultOptions,
// except OnlyUnique which is taken as given.
func New(store company.Store, opts Options) *Importer {
	def := DefaultOptions()
	if opts.PrimarySource == "" {
		opts.PrimarySource = def.PrimarySource
	}
	if opts.SecondarySource == "" {
		opts.SecondarySource = def.SecondarySource
	}
	if opts.ProgressEvery <= 0 {
		opts.ProgressEvery = def.ProgressEvery
	}
	if opts.SecondaryProgressEvery <= 0 {
		opts.SecondaryProgressEvery = def.SecondaryProgressEvery
	}
	return &Importer{store: store, opts: opts}
}
