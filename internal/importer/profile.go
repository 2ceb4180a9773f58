package importer

import (
	"github.com/sells-group/company-directory/internal/company"
	"github.com/sells-group/company-directory/internal/scorer"
)

// PrimaryProfile maps an export record onto the scorer's field set.
func PrimaryProfile(r *PrimaryRecord) scorer.Profile {
	return scorer.Profile{
		Name:        r.Name.String(),
		Website:     r.Website.String(),
		Type:        r.Type.String(),
		Description: r.Description.String(),
		Enrichment: []scorer.Credit{
			{Field: "logo", Present: scorer.Present(r.Logo.String()), Points: 5},
			{Field: "owner", Present: scorer.Present(r.Owner.String()), Points: 5},
			{Field: "maturity", Present: scorer.Present(r.Maturity.String()), Points: 5},
			{Field: "sector", Present: scorer.PresentList(r.Sectors), Points: 5},
			{Field: "domain", Present: scorer.PresentList(r.Domains), Points: 5},
			{Field: "capability", Present: scorer.PresentList(r.Capabilities), Points: 5},
		},
	}
}

// SecondaryProfile maps a CSV-sourced company and its capability tags onto
// the scorer's field set.
func SecondaryProfile(c *company.Company, capabilities []string) scorer.Profile {
	return scorer.Profile{
		Name:        c.Name,
		Website:     c.Website,
		Type:        c.Type,
		Description: c.Description,
		Enrichment: []scorer.Credit{
			{Field: "logo", Present: scorer.Present(c.LogoURL), Points: 10},
			{Field: "city", Present: scorer.Present(c.City), Points: 10},
			{Field: "source_page", Present: scorer.Present(c.SourceURL), Points: 5},
			{Field: "capability", Present: scorer.PresentList(capabilities), Points: 5},
		},
	}
}
