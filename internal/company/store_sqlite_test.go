package company

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func boolp(b bool) *bool { return &b }

// seedDirectory stores a small mixed directory used by the query tests.
func seedDirectory(t *testing.T, st Store) {
	t.Helper()
	ctx := context.Background()
	rows := []struct {
		c    Company
		tags TagSet
	}{
		{
			c: Company{ID: 1, Name: "Kognic", Website: "https://kognic.com", Type: "startup",
				LogoURL: "https://kognic.com/logo.png", Description: "Annotation platform for autonomous driving",
				Source: "my.ai.se", IsSwedish: true, QualityScore: 80},
			tags: TagSet{
				TagSector:     {"Automotive", "Transport"},
				TagDomain:     {"Computer Vision"},
				TagCapability: {"Perception"},
				TagDimension:  {"Data"},
			},
		},
		{
			c: Company{ID: 2, Name: "Volvo Cars", Website: "https://volvocars.com", Type: "corporation",
				Source: "my.ai.se", IsSwedish: true, QualityScore: 60},
			tags: TagSet{TagSector: {"Automotive", "Automotive Software"}},
		},
		{
			c:    Company{ID: 3, Name: "KTH", Type: "academia", Source: "my.ai.se", IsSwedish: true, QualityScore: 40},
			tags: TagSet{TagDomain: {"Research"}},
		},
		{
			c: Company{ID: 4, Name: "NewCo", Website: "https://newco.se", Type: "startup", City: "Stockholm",
				GreaterStockholm: boolp(true), SourceURL: "https://eu.example/newco", Source: "eu-site",
				IsSwedish: true, QualityScore: 55},
			tags: TagSet{TagCapability: {"NLP", "Chatbots"}},
		},
		{
			c: Company{ID: 5, Name: "Lund Robotics", Type: "startup", City: "Lund",
				GreaterStockholm: boolp(false), Source: "eu-site", IsSwedish: true, QualityScore: 30},
			tags: TagSet{TagCapability: {"Robotics"}},
		},
	}
	for i := range rows {
		require.NoError(t, st.SaveCompany(ctx, &rows[i].c, rows[i].tags, Insert))
	}
}

func companyIDs(cs []Company) []int64 {
	ids := make([]int64, len(cs))
	for i, c := range cs {
		ids[i] = c.ID
	}
	return ids
}

func TestSQLite_SaveAndGetCompany(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	c := &Company{
		ID: 42, Name: "AI Sweden", Website: "https://ai.se", Type: "supplier",
		Description: "National center for applied AI", Owner: "Foundation", Maturity: "Scale-up",
		Source: "my.ai.se", IsSwedish: true, AcceptsInterns: boolp(true), QualityScore: 77,
	}
	require.NoError(t, st.SaveCompany(ctx, c, TagSet{TagSector: {"Public"}}, Replace))
	assert.False(t, c.LastUpdated.IsZero())
	assert.Equal(t, DefaultCountry, c.Country)

	got, err := st.GetCompany(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "AI Sweden", got.Name)
	assert.Equal(t, "https://ai.se", got.Website)
	assert.Equal(t, "supplier", got.Type)
	assert.Equal(t, "Foundation", got.Owner)
	assert.Equal(t, "Scale-up", got.Maturity)
	assert.Equal(t, "Sweden", got.Country)
	assert.Nil(t, got.GreaterStockholm)
	require.NotNil(t, got.AcceptsInterns)
	assert.True(t, *got.AcceptsInterns)
	assert.True(t, got.IsSwedish)
	assert.Equal(t, 77, got.QualityScore)
	assert.Empty(t, got.City)
	assert.Empty(t, got.LogoURL)
	assert.False(t, got.LastUpdated.IsZero())
}

func TestSQLite_GetCompany_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	got, err := st.GetCompany(context.Background(), 999)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLite_SaveCompany_RequiresName(t *testing.T) {
	st := newTestSQLiteStore(t)

	err := st.SaveCompany(context.Background(), &Company{ID: 1, Name: "   "}, nil, Insert)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")

	n, err := st.NextID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSQLite_SaveCompany_ClampsQuality(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.SaveCompany(ctx, &Company{ID: 1, Name: "High", QualityScore: 140}, nil, Insert))
	require.NoError(t, st.SaveCompany(ctx, &Company{ID: 2, Name: "Low", QualityScore: -5}, nil, Insert))

	high, err := st.GetCompany(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 100, high.QualityScore)
	low, err := st.GetCompany(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, low.QualityScore)
}

func TestSQLite_ReplaceOverwritesRow(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.SaveCompany(ctx, &Company{ID: 7, Name: "Old Name", Type: "startup"}, nil, Replace))
	require.NoError(t, st.SaveCompany(ctx, &Company{ID: 7, Name: "New Name", Type: "corporation"}, nil, Replace))

	got, err := st.GetCompany(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "New Name", got.Name)
	assert.Equal(t, "corporation", got.Type)

	names, err := st.CompanyNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"New Name"}, names)
}

func TestSQLite_InsertRejectsExistingID(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.SaveCompany(ctx, &Company{ID: 3, Name: "First"}, nil, Insert))
	err := st.SaveCompany(ctx, &Company{ID: 3, Name: "Second"}, TagSet{TagCapability: {"Vision"}}, Insert)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlite: insert company 3")

	got, err := st.GetCompany(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "First", got.Name)

	// The failed write must not leave tags or links behind.
	tags, err := st.GetTags(ctx, 3)
	require.NoError(t, err)
	assert.Empty(t, tags[TagCapability])
	caps, err := st.ListTags(ctx, TagCapability)
	require.NoError(t, err)
	assert.Empty(t, caps)
}

func TestSQLite_TagsAreSharedAndDeduplicated(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.SaveCompany(ctx, &Company{ID: 1, Name: "A"},
		TagSet{TagCapability: {"NLP", " NLP ", "", "Vision"}}, Insert))
	require.NoError(t, st.SaveCompany(ctx, &Company{ID: 2, Name: "B"},
		TagSet{TagCapability: {"NLP"}}, Insert))

	caps, err := st.ListTags(ctx, TagCapability)
	require.NoError(t, err)
	assert.Equal(t, []string{"NLP", "Vision"}, caps)

	tags, err := st.GetTags(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"NLP", "Vision"}, tags[TagCapability])
	assert.NotNil(t, tags[TagSector])
	assert.Empty(t, tags[TagSector])

	// Reseeding keeps existing links and adds new ones.
	require.NoError(t, st.SaveCompany(ctx, &Company{ID: 2, Name: "B"},
		TagSet{TagCapability: {"NLP", "Speech"}}, Replace))
	tags, err = st.GetTags(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"NLP", "Speech"}, tags[TagCapability])
}

func TestSQLite_NextID(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	n, err := st.NextID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, st.SaveCompany(ctx, &Company{ID: 1234, Name: "Big"}, nil, Replace))
	require.NoError(t, st.SaveCompany(ctx, &Company{ID: 7, Name: "Small"}, nil, Replace))

	n, err = st.NextID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1235), n)
}

func TestSQLite_SearchByName(t *testing.T) {
	st := newTestSQLiteStore(t)
	seedDirectory(t, st)
	ctx := context.Background()

	got, err := st.SearchByName(ctx, "O", 10)
	require.NoError(t, err)
	// Ordered by quality: Kognic (80), Volvo Cars (60), NewCo (55), Lund Robotics (30).
	assert.Equal(t, []int64{1, 2, 4, 5}, companyIDs(got))

	got, err = st.SearchByName(ctx, "o", 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = st.SearchByName(ctx, "zzz", 10)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSQLite_SearchByName_EscapesWildcards(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	require.NoError(t, st.SaveCompany(ctx, &Company{ID: 1, Name: "100% AI"}, nil, Insert))
	require.NoError(t, st.SaveCompany(ctx, &Company{ID: 2, Name: "1000 Labs"}, nil, Insert))

	got, err := st.SearchByName(ctx, "100%", 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, companyIDs(got))
}

func TestSQLite_FilterCompanies(t *testing.T) {
	st := newTestSQLiteStore(t)
	seedDirectory(t, st)
	ctx := context.Background()

	tests := []struct {
		name   string
		filter Filter
		want   []int64
	}{
		{"no filters", Filter{}, []int64{1, 2, 4, 3, 5}},
		{"type exact", Filter{Type: "startup"}, []int64{1, 4, 5}},
		{"sector substring once per company", Filter{Sector: "auto"}, []int64{1, 2}},
		{"domain substring", Filter{Domain: "vision"}, []int64{1}},
		{"capability substring", Filter{Capability: "bot"}, []int64{4, 5}},
		{"city substring", Filter{City: "stock"}, []int64{4}},
		{"greater stockholm false", Filter{GreaterStockholm: boolp(false)}, []int64{5}},
		{"min quality", Filter{MinQuality: 55}, []int64{1, 2, 4}},
		{"relevant only", Filter{OnlyRelevant: true}, []int64{1, 2, 4, 5}},
		{"conjunctive", Filter{Type: "startup", Sector: "auto", MinQuality: 50}, []int64{1}},
		{"limit", Filter{Limit: 2}, []int64{1, 2}},
		{"nothing matches", Filter{Sector: "auto", Capability: "nlp"}, []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := st.FilterCompanies(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, companyIDs(got))
		})
	}
}

func TestSQLite_RandomCompanies(t *testing.T) {
	st := newTestSQLiteStore(t)
	seedDirectory(t, st)
	ctx := context.Background()

	got, err := st.RandomCompanies(ctx, RandomFilter{Count: 3})
	require.NoError(t, err)
	assert.Len(t, got, 3)

	got, err = st.RandomCompanies(ctx, RandomFilter{Count: 10, Type: "startup"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 4, 5}, companyIDs(got))

	got, err = st.RandomCompanies(ctx, RandomFilter{Count: 10, OnlyRelevant: true})
	require.NoError(t, err)
	for _, c := range got {
		assert.True(t, IsRelevantType(c.Type), c.Type)
	}

	got, err = st.RandomCompanies(ctx, RandomFilter{Count: 10, Complete: true})
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, companyIDs(got))

	got, err = st.RandomCompanies(ctx, RandomFilter{})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSQLite_Listings(t *testing.T) {
	st := newTestSQLiteStore(t)
	seedDirectory(t, st)
	ctx := context.Background()

	types, err := st.ListTypes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"academia", "corporation", "startup"}, types)

	sectors, err := st.ListTags(ctx, TagSector)
	require.NoError(t, err)
	assert.Equal(t, []string{"Automotive", "Automotive Software", "Transport"}, sectors)

	_, err = st.ListTags(ctx, TagKind("bogus"))
	require.Error(t, err)

	cities, err := st.CityCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []CityCount{{City: "Lund", Count: 1}, {City: "Stockholm", Count: 1}}, cities)

	sugg, err := st.SuggestTypes(ctx, "ST", 25)
	require.NoError(t, err)
	assert.Equal(t, []string{"startup"}, sugg)

	sugg, err = st.SuggestCities(ctx, "l", 25)
	require.NoError(t, err)
	assert.Equal(t, []string{"Lund"}, sugg)

	sugg, err = st.SuggestTypes(ctx, "", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"academia", "corporation"}, sugg)
}

func TestSQLite_Stats(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	empty, err := st.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Companies)
	assert.Empty(t, empty.BySource)
	assert.InDelta(t, 0, empty.QualityAvg, 0.001)

	seedDirectory(t, st)
	stats, err := st.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 5, stats.Companies)
	assert.Equal(t, []Count{{Name: "my.ai.se", Count: 3}, {Name: "eu-site", Count: 2}}, stats.BySource)
	assert.Equal(t, Count{Name: "startup", Count: 3}, stats.ByType[0])
	assert.InDelta(t, 53.0, stats.QualityAvg, 0.001)
	assert.Equal(t, 30, stats.QualityMin)
	assert.Equal(t, 80, stats.QualityMax)
	assert.Equal(t, []Count{
		{Name: "sector", Count: 3},
		{Name: "domain", Count: 2},
		{Name: "capability", Count: 4},
		{Name: "dimension", Count: 1},
	}, stats.Tags)
	assert.Equal(t, 2, stats.WithCity)
	assert.Equal(t, 1, stats.GreaterStockholm)
}

func TestSQLite_ImportRuns(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	first := &ImportRun{Source: "my.ai.se", Location: "companies.json"}
	require.NoError(t, st.StartImportRun(ctx, first))
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, ImportRunning, first.Status)

	first.Status = ImportComplete
	first.Imported = 10
	first.Skipped = 1
	require.NoError(t, st.FinishImportRun(ctx, first))
	require.NotNil(t, first.CompletedAt)

	second := &ImportRun{Source: "eu-site", Location: "eu.csv"}
	require.NoError(t, st.StartImportRun(ctx, second))

	runs, err := st.ListImportRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second.ID, runs[0].ID)
	assert.Equal(t, ImportRunning, runs[0].Status)
	assert.Nil(t, runs[0].CompletedAt)
	assert.Equal(t, first.ID, runs[1].ID)
	assert.Equal(t, ImportComplete, runs[1].Status)
	assert.Equal(t, 10, runs[1].Imported)
	assert.Equal(t, 1, runs[1].Skipped)
	assert.NotNil(t, runs[1].CompletedAt)

	err = st.FinishImportRun(ctx, &ImportRun{ID: "missing", Status: ImportFailed})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "import run not found")
}

func TestSQLite_MigrateIdempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	require.NoError(t, st.Migrate(context.Background()))
	require.NoError(t, st.Ping(context.Background()))
}

func TestSQLite_InMemorySharedAcrossGoroutines(t *testing.T) {
	ctx := context.Background()
	st, err := NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(ctx))
	require.NoError(t, st.SaveCompany(ctx, &Company{ID: 1, Name: "Kognic", Type: "startup"}, nil, Replace))

	assert.Equal(t, 1, st.db.Stats().MaxOpenConnections)

	g, gctx := errgroup.WithContext(ctx)
	for range 8 {
		g.Go(func() error {
			c, err := st.GetCompany(gctx, 1)
			if err != nil {
				return err
			}
			if c == nil {
				return eris.New("company 1 not visible")
			}
			_, err = st.SearchByName(gctx, "kog", 10)
			return err
		})
	}
	require.NoError(t, g.Wait())
}
