package importer

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/company-directory/internal/company"
)

func TestTrack_RecordsResult(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	res, err := Track(ctx, st, SecondarySource, "eu.csv", func(context.Context) (*Result, error) {
		return &Result{Total: 5, Imported: 3, Duplicates: 1, Errors: 1}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Imported)

	runs, err := st.ListImportRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	run := runs[0]
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, SecondarySource, run.Source)
	assert.Equal(t, "eu.csv", run.Location)
	assert.Equal(t, company.ImportComplete, run.Status)
	assert.Equal(t, 3, run.Imported)
	assert.Equal(t, 1, run.Duplicates)
	assert.Equal(t, 1, run.Errors)
	assert.NotNil(t, run.CompletedAt)
	assert.Empty(t, run.Error)
}

func TestTrack_RecordsFailure(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := Track(ctx, st, PrimarySource, "export.json", func(context.Context) (*Result, error) {
		return &Result{Imported: 2}, eris.New("importer: read primary source: unexpected EOF")
	})
	require.Error(t, err)

	runs, err := st.ListImportRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, company.ImportFailed, runs[0].Status)
	assert.Equal(t, 2, runs[0].Imported)
	assert.Contains(t, runs[0].Error, "unexpected EOF")
}

func TestTrack_RealImport(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	im := New(st, DefaultOptions())

	_, err := Track(ctx, st, SecondarySource, "inline", func(ctx context.Context) (*Result, error) {
		return im.Secondary(ctx, csvInput("Alpha;;;;;;;", "Alpha AB;;;;;;;"))
	})
	require.NoError(t, err)

	runs, err := st.ListImportRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 1, runs[0].Imported)
	assert.Equal(t, 1, runs[0].Duplicates)
}
