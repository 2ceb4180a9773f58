package importer

import (
	"context"
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/company-directory/internal/company"
	"github.com/sells-group/company-directory/internal/fetcher"
	"github.com/sells-group/company-directory/internal/scorer"
)

// Primary loads the JSON export. Rows are written with company.Replace so
// that a rerun reseeds the same ids. A malformed record is counted and
// logged; reading errors abort the pass.
func (im *Importer) Primary(ctx context.Context, r io.Reader) (*Result, error) {
	log := zap.L().With(zap.String("source", im.opts.PrimarySource))
	res := &Result{}

	recCh, errCh := fetcher.DecodeRecords(ctx, r)
	for raw := range recCh {
		if err := ctx.Err(); err != nil {
			return res, eris.Wrap(err, "importer: primary cancelled")
		}
		res.Total++

		skipped, err := im.importPrimary(ctx, raw)
		switch {
		case err != nil:
			res.Errors++
			log.Warn("importer: primary record failed",
				zap.Int("record", res.Total),
				zap.Error(err),
			)
			continue
		case skipped:
			res.Skipped++
			continue
		}

		res.Imported++
		if res.Imported%im.opts.ProgressEvery == 0 {
			log.Info("importer: primary progress", zap.Int("imported", res.Imported))
		}
	}
	for err := range errCh {
		if err != nil {
			return res, eris.Wrap(err, "importer: read primary source")
		}
	}

	log.Info("importer: primary complete", res.fields()...)
	return res, nil
}

func (im *Importer) importPrimary(ctx context.Context, raw json.RawMessage) (skipped bool, err error) {
	rec, err := DecodePrimaryRecord(raw)
	if err != nil {
		return false, err
	}
	if rec.Name.String() == "" {
		return true, nil
	}

	c := &company.Company{
		ID:           rec.ID.Value(),
		Name:         rec.Name.String(),
		Website:      rec.Website.String(),
		Type:         rec.Type.String(),
		LogoURL:      rec.Logo.String(),
		Description:  rec.Description.String(),
		Owner:        rec.Owner.String(),
		Maturity:     rec.Maturity.String(),
		Country:      company.DefaultCountry,
		Source:       im.opts.PrimarySource,
		IsSwedish:    true,
		QualityScore: scorer.Quality(PrimaryProfile(rec)),
	}
	tags := company.TagSet{
		company.TagSector:     rec.Sectors,
		company.TagDomain:     rec.Domains,
		company.TagCapability: rec.Capabilities,
		company.TagDimension:  rec.Dimensions,
	}

	if err := im.store.SaveCompany(ctx, c, tags, company.Replace); err != nil {
		return false, eris.Wrapf(err, "importer: save %q", c.Name)
	}
	return false, nil
}
