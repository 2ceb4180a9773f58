// Package company defines the directory record types and their persistence.
package company

import (
	"time"

	"github.com/rotisserie/eris"
)

// Company is one organization in the directory.
type Company struct {
	ID          int64  `json:"id" yaml:"id" db:"id"`
	Name        string `json:"name" yaml:"name" db:"name"`
	Website     string `json:"website,omitempty" yaml:"website,omitempty" db:"website"`
	Type        string `json:"type,omitempty" yaml:"type,omitempty" db:"type"`
	LogoURL     string `json:"logo_url,omitempty" yaml:"logo_url,omitempty" db:"logo_url"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" db:"description"`
	Owner       string `json:"owner,omitempty" yaml:"owner,omitempty" db:"owner"`
	Maturity    string `json:"maturity,omitempty" yaml:"maturity,omitempty" db:"maturity"`

	// Location
	City             string `json:"city,omitempty" yaml:"city,omitempty" db:"location_city"`
	Country          string `json:"country,omitempty" yaml:"country,omitempty" db:"location_country"`
	GreaterStockholm *bool  `json:"greater_stockholm,omitempty" yaml:"greater_stockholm,omitempty" db:"location_greater_stockholm"`

	// Provenance
	SourceURL string `json:"source_url,omitempty" yaml:"source_url,omitempty" db:"metadata_source_url"`
	Source    string `json:"source" yaml:"source" db:"source"`

	IsSwedish      bool      `json:"is_swedish" yaml:"is_swedish" db:"is_swedish"`
	AcceptsInterns *bool     `json:"accepts_interns,omitempty" yaml:"accepts_interns,omitempty" db:"accepts_interns"`
	LastUpdated    time.Time `json:"last_updated" yaml:"last_updated" db:"last_updated"`
	QualityScore   int       `json:"quality_score" yaml:"quality_score" db:"data_quality_score"`
}

// DefaultCountry is stored when a record carries no country.
const DefaultCountry = "Sweden"

// RelevantTypes are the organization types considered relevant for
// internship seekers.
var RelevantTypes = []string{"corporation", "startup", "supplier"}

// IsRelevantType reports whether t is one of RelevantTypes.
func IsRelevantType(t string) bool {
	for _, r := range RelevantTypes {
		if r == t {
			return true
		}
	}
	return false
}

// TagKind names one of the four tag categories.
type TagKind string

// Tag categories.
const (
	TagSector     TagKind = "sector"
	TagDomain     TagKind = "domain"
	TagCapability TagKind = "capability"
	TagDimension  TagKind = "dimension"
)

// TagKinds lists the categories in display order.
var TagKinds = []TagKind{TagSector, TagDomain, TagCapability, TagDimension}

// tagSchema maps a category onto its tag table, join table and FK column.
type tagSchema struct {
	table     string
	joinTable string
	fkColumn  string
}

var tagSchemas = map[TagKind]tagSchema{
	TagSector:     {table: "sectors", joinTable: "company_sectors", fkColumn: "sector_id"},
	TagDomain:     {table: "domains", joinTable: "company_domains", fkColumn: "domain_id"},
	TagCapability: {table: "ai_capabilities", joinTable: "company_ai_capabilities", fkColumn: "capability_id"},
	TagDimension:  {table: "dimensions", joinTable: "company_dimensions", fkColumn: "dimension_id"},
}

// ParseTagKind accepts a category name, also in plural form.
func ParseTagKind(s string) (TagKind, error) {
	switch s {
	case "sector", "sectors":
		return TagSector, nil
	case "domain", "domains":
		return TagDomain, nil
	case "capability", "capabilities", "ai_capabilities":
		return TagCapability, nil
	case "dimension", "dimensions":
		return TagDimension, nil
	}
	return "", eris.Errorf("company: unknown tag kind %q", s)
}

func (k TagKind) schema() (tagSchema, error) {
	ts, ok := tagSchemas[k]
	if !ok {
		return tagSchema{}, eris.Errorf("company: unknown tag kind %q", string(k))
	}
	return ts, nil
}

// TagSet carries the tag names of one company, per category.
type TagSet map[TagKind][]string

// WriteMode selects how SaveCompany treats an existing row with the same id.
type WriteMode int

const (
	// Replace overwrites an existing row (primary reseeding).
	Replace WriteMode = iota
	// Insert fails when the id already exists.
	Insert
)

// Detail is a company together with the names of all its tags.
type Detail struct {
	Company      `yaml:",inline"`
	Sectors      []string `json:"sectors" yaml:"sectors"`
	Domains      []string `json:"domains" yaml:"domains"`
	Capabilities []string `json:"ai_capabilities" yaml:"ai_capabilities"`
	Dimensions   []string `json:"dimensions" yaml:"dimensions"`
}

// NewDetail builds a Detail whose tag lists are never nil.
func NewDetail(c Company, tags TagSet) *Detail {
	list := func(k TagKind) []string {
		if v := tags[k]; v != nil {
			return v
		}
		return []string{}
	}
	return &Detail{
		Company:      c,
		Sectors:      list(TagSector),
		Domains:      list(TagDomain),
		Capabilities: list(TagCapability),
		Dimensions:   list(TagDimension),
	}
}

// Filter is a conjunctive filter over companies. Zero fields are inactive.
type Filter struct {
	Type             string `json:"type,omitempty"`
	Sector           string `json:"sector,omitempty"`
	Domain           string `json:"domain,omitempty"`
	Capability       string `json:"capability,omitempty"`
	City             string `json:"city,omitempty"`
	GreaterStockholm *bool  `json:"greater_stockholm,omitempty"`
	MinQuality       int    `json:"min_quality,omitempty"`
	OnlyRelevant     bool   `json:"only_relevant,omitempty"`
	Limit            int    `json:"limit,omitempty"`
}

// RandomFilter selects a random sample of companies.
type RandomFilter struct {
	Count        int    `json:"count"`
	Type         string `json:"type,omitempty"`
	OnlyRelevant bool   `json:"only_relevant,omitempty"`
	// Complete requires website, logo and description to be present.
	Complete bool `json:"complete,omitempty"`
}

// CityCount is a city with the number of companies located there.
type CityCount struct {
	City  string `json:"city" yaml:"city"`
	Count int    `json:"count" yaml:"count"`
}

// Count is a labelled counter used in Stats.
type Count struct {
	Name  string `json:"name" yaml:"name"`
	Count int    `json:"count" yaml:"count"`
}

// Stats summarizes the directory contents.
type Stats struct {
	Companies        int     `json:"companies" yaml:"companies"`
	BySource         []Count `json:"by_source" yaml:"by_source"`
	ByType           []Count `json:"by_type" yaml:"by_type"`
	QualityAvg       float64 `json:"quality_avg" yaml:"quality_avg"`
	QualityMin       int     `json:"quality_min" yaml:"quality_min"`
	QualityMax       int     `json:"quality_max" yaml:"quality_max"`
	Tags             []Count `json:"tags" yaml:"tags"`
	WithCity         int     `json:"with_city" yaml:"with_city"`
	GreaterStockholm int     `json:"greater_stockholm" yaml:"greater_stockholm"`
}

// ImportRunStatus is the lifecycle state of an import run.
type ImportRunStatus string

// Import run states.
const (
	ImportRunning  ImportRunStatus = "running"
	ImportComplete ImportRunStatus = "complete"
	ImportFailed   ImportRunStatus = "failed"
)

// ImportRun records one import pass.
type ImportRun struct {
	ID          string          `json:"id" yaml:"id"`
	Source      string          `json:"source" yaml:"source"`
	Location    string          `json:"location" yaml:"location"`
	Status      ImportRunStatus `json:"status" yaml:"status"`
	StartedAt   time.Time       `json:"started_at" yaml:"started_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	Imported    int             `json:"imported" yaml:"imported"`
	Duplicates  int             `json:"duplicates" yaml:"duplicates"`
	Skipped     int             `json:"skipped" yaml:"skipped"`
	Errors      int             `json:"errors" yaml:"errors"`
	Error       string          `json:"error,omitempty" yaml:"error,omitempty"`
}
