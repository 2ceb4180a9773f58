// Package query is the read-only lookup layer shared by the HTTP API and
// the CLI.
package query

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/company-directory/internal/company"
)

// CategoryTypes is the Categories kind that lists organization types.
const CategoryTypes = "types"

const defaultSuggestLimit = 25

// Limits bounds the size of list results.
type Limits struct {
	Default int
	Max     int
}

// DefaultLimits returns the limits used when nothing is configured.
func DefaultLimits() Limits {
	return Limits{Default: 100, Max: 500}
}

// Service answers directory queries. A Service without a store returns
// empty results and "not found" instead of errors.
type Service struct {
	store  company.Store
	limits Limits
}

// NewService creates a Service. store may be nil.
func NewService(store company.Store, limits Limits) *Service {
	def := DefaultLimits()
	if limits.Default <= 0 {
		limits.Default = def.Default
	}
	if limits.Max <= 0 {
		limits.Max = def.Max
	}
	if limits.Max < limits.Default {
		limits.Max = limits.Default
	}
	return &Service{store: store, limits: limits}
}

// Limit resolves a requested limit: non-positive means the default, and
// anything above the maximum is capped.
func (s *Service) Limit(n int) int {
	if n <= 0 {
		return s.limits.Default
	}
	if n > s.limits.Max {
		return s.limits.Max
	}
	return n
}

func (s *Service) ready() bool {
	return s != nil && s.store != nil
}

// Search finds companies whose name contains term, best quality first.
func (s *Service) Search(ctx context.Context, term string, limit int) ([]company.Company, error) {
	if !s.ready() {
		return []company.Company{}, nil
	}
	out, err := s.store.SearchByName(ctx, strings.TrimSpace(term), s.Limit(limit))
	if err != nil {
		return nil, eris.Wrap(err, "query: search")
	}
	return out, nil
}

// Filter returns companies matching every active field of f.
func (s *Service) Filter(ctx context.Context, f company.Filter) ([]company.Company, error) {
	if !s.ready() {
		return []company.Company{}, nil
	}
	if f.MinQuality < 0 || f.MinQuality > 100 {
		return nil, eris.Errorf("query: min quality %d is outside 0-100", f.MinQuality)
	}
	f.Type = strings.TrimSpace(f.Type)
	f.Sector = strings.TrimSpace(f.Sector)
	f.Domain = strings.TrimSpace(f.Domain)
	f.Capability = strings.TrimSpace(f.Capability)
	f.City = strings.TrimSpace(f.City)
	f.Limit = s.Limit(f.Limit)
	if excludedType(f.Type, f.OnlyRelevant) {
		return []company.Company{}, nil
	}

	out, err := s.store.FilterCompanies(ctx, f)
	if err != nil {
		return nil, eris.Wrap(err, "query: filter")
	}
	return out, nil
}

// Random returns up to f.Count companies chosen at random.
func (s *Service) Random(ctx context.Context, f company.RandomFilter) ([]company.Company, error) {
	if !s.ready() {
		return []company.Company{}, nil
	}
	if f.Count <= 0 {
		f.Count = 1
	}
	if f.Count > s.limits.Max {
		f.Count = s.limits.Max
	}
	f.Type = strings.TrimSpace(f.Type)
	if excludedType(f.Type, f.OnlyRelevant) {
		return []company.Company{}, nil
	}
	out, err := s.store.RandomCompanies(ctx, f)
	if err != nil {
		return nil, eris.Wrap(err, "query: random")
	}
	return out, nil
}

// excludedType reports a type filter that the relevance filter rules out,
// so no row can match.
func excludedType(typ string, onlyRelevant bool) bool {
	return onlyRelevant && typ != "" && !company.IsRelevantType(typ)
}

// Daily picks the company of the day: a relevant company with website,
// logo and description, or any relevant company when none is complete.
func (s *Service) Daily(ctx context.Context) (*company.Company, bool, error) {
	for _, complete := range []bool{true, false} {
		out, err := s.Random(ctx, company.RandomFilter{Count: 1, OnlyRelevant: true, Complete: complete})
		if err != nil {
			return nil, false, err
		}
		if len(out) > 0 {
			return &out[0], true, nil
		}
	}
	return nil, false, nil
}

// Detail returns a company with all its tag names. The bool is false when
// no company has the id.
func (s *Service) Detail(ctx context.Context, id int64) (*company.Detail, bool, error) {
	if !s.ready() {
		return nil, false, nil
	}
	c, err := s.store.GetCompany(ctx, id)
	if err != nil {
		return nil, false, eris.Wrapf(err, "query: detail %d", id)
	}
	if c == nil {
		return nil, false, nil
	}
	tags, err := s.store.GetTags(ctx, id)
	if err != nil {
		return nil, false, eris.Wrapf(err, "query: tags of %d", id)
	}
	return company.NewDetail(*c, tags), true, nil
}

// Categories lists the distinct organization types (kind "types") or the
// names of one tag category, sorted.
func (s *Service) Categories(ctx context.Context, kind string) ([]string, error) {
	kind = strings.ToLower(strings.TrimSpace(kind))
	if kind == CategoryTypes || kind == "type" {
		if !s.ready() {
			return []string{}, nil
		}
		out, err := s.store.ListTypes(ctx)
		if err != nil {
			return nil, eris.Wrap(err, "query: list types")
		}
		return out, nil
	}

	tk, err := company.ParseTagKind(kind)
	if err != nil {
		return nil, err
	}
	if !s.ready() {
		return []string{}, nil
	}
	out, err := s.store.ListTags(ctx, tk)
	if err != nil {
		return nil, eris.Wrapf(err, "query: list %s", tk)
	}
	return out, nil
}

// Cities lists cities with their company counts, most companies first.
func (s *Service) Cities(ctx context.Context) ([]company.CityCount, error) {
	if !s.ready() {
		return []company.CityCount{}, nil
	}
	out, err := s.store.CityCounts(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "query: cities")
	}
	return out, nil
}

// SuggestTypes completes an organization type prefix, case-insensitively.
func (s *Service) SuggestTypes(ctx context.Context, prefix string, limit int) ([]string, error) {
	if !s.ready() {
		return []string{}, nil
	}
	out, err := s.store.SuggestTypes(ctx, strings.TrimSpace(prefix), s.suggestLimit(limit))
	if err != nil {
		return nil, eris.Wrap(err, "query: suggest types")
	}
	return out, nil
}

// SuggestCities completes a city prefix, case-insensitively.
func (s *Service) SuggestCities(ctx context.Context, prefix string, limit int) ([]string, error) {
	if !s.ready() {
		return []string{}, nil
	}
	out, err := s.store.SuggestCities(ctx, strings.TrimSpace(prefix), s.suggestLimit(limit))
	if err != nil {
		return nil, eris.Wrap(err, "query: suggest cities")
	}
	return out, nil
}

func (s *Service) suggestLimit(n int) int {
	if n <= 0 {
		return defaultSuggestLimit
	}
	return s.Limit(n)
}

// Stats summarizes the directory. An unconnected service reports zeros.
func (s *Service) Stats(ctx context.Context) (*company.Stats, error) {
	if !s.ready() {
		return &company.Stats{BySource: []company.Count{}, ByType: []company.Count{}, Tags: []company.Count{}}, nil
	}
	st, err := s.store.Stats(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "query: stats")
	}
	return st, nil
}

// ImportRuns lists recent import runs, newest first.
func (s *Service) ImportRuns(ctx context.Context, limit int) ([]company.ImportRun, error) {
	if !s.ready() {
		return []company.ImportRun{}, nil
	}
	out, err := s.store.ListImportRuns(ctx, s.Limit(limit))
	if err != nil {
		return nil, eris.Wrap(err, "query: import runs")
	}
	return out, nil
}
