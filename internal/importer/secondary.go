package importer

import (
	"context"
	"io"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/company-directory/internal/company"
	"github.com/sells-group/company-directory/internal/fetcher"
	"github.com/sells-group/company-directory/internal/resolve"
	"github.com/sells-group/company-directory/internal/scorer"
)

// Secondary loads the semicolon-separated EU list after the primary pass.
// Each row whose normalized name is not yet known becomes a new company
// with the next free id; known names are counted as duplicates and never
// touch the store. A missing column, an unreadable source or a failed name
// preload aborts the pass. Row failures are counted and the pass continues.
func (im *Importer) Secondary(ctx context.Context, r io.Reader) (*Result, error) {
	log := zap.L().With(zap.String("source", im.opts.SecondarySource))
	res := &Result{}

	rowCh, errCh, err := fetcher.StreamCSVRows(ctx, r, fetcher.CSVOptions{
		Delimiter:  ';',
		LazyQuotes: true,
	}, SecondaryColumns...)
	if err != nil {
		return res, eris.Wrap(err, "importer: secondary source")
	}

	seen, err := im.knownNames(ctx)
	if err != nil {
		// unblock the reader goroutine before giving up
		drain(rowCh)
		return res, err
	}
	log.Debug("importer: loaded known names", zap.Int("names", len(seen)))

	for row := range rowCh {
		if err := ctx.Err(); err != nil {
			return res, eris.Wrap(err, "importer: secondary cancelled")
		}
		res.Total++

		key, duplicate, err := im.importSecondary(ctx, row, seen)
		switch {
		case err != nil:
			res.Errors++
			log.Warn("importer: secondary row failed",
				zap.Int("line", row.Line),
				zap.String("name", row.Get("name")),
				zap.Error(err),
			)
			continue
		case duplicate:
			res.Duplicates++
			log.Debug("importer: duplicate skipped",
				zap.Int("line", row.Line),
				zap.String("key", key),
			)
			continue
		}

		res.Imported++
		if res.Imported%im.opts.SecondaryProgressEvery == 0 {
			log.Info("importer: secondary progress", zap.Int("imported", res.Imported))
		}
	}
	for err := range errCh {
		if err != nil {
			return res, eris.Wrap(err, "importer: read secondary source")
		}
	}

	log.Info("importer: secondary complete", res.fields()...)
	return res, nil
}

// knownNames returns the normalized names of every stored company.
func (im *Importer) knownNames(ctx context.Context) (map[string]struct{}, error) {
	names, err := im.store.CompanyNames(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "importer: load existing names")
	}
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if key := resolve.NormalizeName(n); key != "" {
			seen[key] = struct{}{}
		}
	}
	return seen, nil
}

func (im *Importer) importSecondary(ctx context.Context, row fetcher.Row, seen map[string]struct{}) (key string, duplicate bool, err error) {
	name := row.Get("name")
	key = resolve.NormalizeName(name)
	if key == "" {
		return "", false, eris.New("importer: name is required")
	}
	if _, ok := seen[key]; ok && im.opts.OnlyUnique {
		return key, true, nil
	}

	city, _ := resolve.ExtractCity(row.Get("Location"))
	greaterStockholm := resolve.ParseGreaterStockholm(row.Get("Greater Stockholm Y/N"))
	capabilities := resolve.SplitTags(row.Get("type"))

	id, err := im.store.NextID(ctx)
	if err != nil {
		return key, false, eris.Wrap(err, "importer: allocate id")
	}

	c := &company.Company{
		ID:               id,
		Name:             name,
		Website:          row.Get("website"),
		Type:             SecondaryType,
		LogoURL:          row.Get("image_url"),
		Description:      row.Get("description"),
		City:             city,
		Country:          company.DefaultCountry,
		GreaterStockholm: &greaterStockholm,
		SourceURL:        row.Get("source_page"),
		Source:           im.opts.SecondarySource,
		IsSwedish:        true,
	}
	c.QualityScore = scorer.Quality(SecondaryProfile(c, capabilities))

	tags := company.TagSet{company.TagCapability: capabilities}
	if err := im.store.SaveCompany(ctx, c, tags, company.Insert); err != nil {
		return key, false, eris.Wrapf(err, "importer: save %q", name)
	}

	seen[key] = struct{}{}
	return key, false, nil
}

func drain[T any](ch <-chan T) {
	go func() {
		for range ch { //nolint:revive // drain
		}
	}()
}
