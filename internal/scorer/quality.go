// Package scorer computes completeness-based quality scores for company rows.
package scorer

import (
	"strings"
	"unicode/utf8"
)

// Credit is one enrichment field a source schema rewards when present.
type Credit struct {
	Field   string
	Present bool
	Points  int
}

// Profile is the source-independent view of a record being scored.
type Profile struct {
	Name        string
	Website     string
	Type        string
	Description string
	Enrichment  []Credit
}

// Weights controls how many points each signal is worth.
type Weights struct {
	Name             int
	Website          int
	Type             int
	DescriptionTier  int
	DescriptionSteps []int
	EnrichmentCap    int
	Max              int
}

// DefaultWeights returns the weights used by both import passes.
// Name, website, type, three description tiers and the enrichment cap sum to 100.
func DefaultWeights() Weights {
	return Weights{
		Name:             15,
		Website:          15,
		Type:             10,
		DescriptionTier:  10,
		DescriptionSteps: []int{50, 200, 500},
		EnrichmentCap:    30,
		Max:              100,
	}
}

// Quality scores p with DefaultWeights.
func Quality(p Profile) int {
	return DefaultWeights().Score(p)
}

// Score returns the clamped quality score of p. Same input, same score.
func (w Weights) Score(p Profile) int {
	score := 0

	if present(p.Name) {
		score += w.Name
	}
	if present(p.Website) {
		score += w.Website
	}
	if present(p.Type) {
		score += w.Type
	}

	n := utf8.RuneCountInString(p.Description)
	for _, step := range w.DescriptionSteps {
		if n > step {
			score += w.DescriptionTier
		}
	}

	score += w.enrichment(p.Enrichment)

	return clamp(score, 0, w.Max)
}

func (w Weights) enrichment(credits []Credit) int {
	total := 0
	for _, c := range credits {
		if c.Present && c.Points > 0 {
			total += c.Points
		}
	}
	if total > w.EnrichmentCap {
		return w.EnrichmentCap
	}
	return total
}

// Present reports whether a text field counts as filled in.
func Present(s string) bool {
	return present(s)
}

// PresentList reports whether a list field has at least one non-blank entry.
func PresentList(items []string) bool {
	for _, s := range items {
		if present(s) {
			return true
		}
	}
	return false
}

func present(s string) bool {
	return strings.TrimSpace(s) != ""
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
