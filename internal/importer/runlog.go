package importer

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/company-directory/internal/company"
)

// Track records fn as an import run: a running row before it starts and the
// final counts or error after it returns. The result and error of fn are
// passed through unchanged.
func Track(ctx context.Context, store company.Store, source, location string, fn func(context.Context) (*Result, error)) (*Result, error) {
	run := &company.ImportRun{Source: source, Location: location}
	if err := store.StartImportRun(ctx, run); err != nil {
		return nil, eris.Wrap(err, "importer: start import run")
	}
	log := zap.L().With(zap.String("run_id", run.ID), zap.String("source", source))
	log.Info("importer: run started", zap.String("location", location))

	res, runErr := fn(ctx)

	if res != nil {
		run.Imported = res.Imported
		run.Duplicates = res.Duplicates
		run.Skipped = res.Skipped
		run.Errors = res.Errors
	}
	run.Status = company.ImportComplete
	if runErr != nil {
		run.Status = company.ImportFailed
		run.Error = runErr.Error()
	}

	// record the outcome even when fn stopped on cancellation
	if err := store.FinishImportRun(context.WithoutCancel(ctx), run); err != nil {
		if runErr != nil {
			log.Error("importer: finish import run", zap.Error(err))
			return res, runErr
		}
		return res, eris.Wrap(err, "importer: finish import run")
	}

	log.Info("importer: run finished", zap.String("status", string(run.Status)))
	return res, runErr
}
