package company

import "context"

// Store defines persistence operations for the company directory.
type Store interface {
	// Writes
	SaveCompany(ctx context.Context, c *Company, tags TagSet, mode WriteMode) error
	NextID(ctx context.Context) (int64, error)
	CompanyNames(ctx context.Context) ([]string, error)

	// Reads
	GetCompany(ctx context.Context, id int64) (*Company, error)
	GetTags(ctx context.Context, companyID int64) (TagSet, error)
	SearchByName(ctx context.Context, term string, limit int) ([]Company, error)
	FilterCompanies(ctx context.Context, f Filter) ([]Company, error)
	RandomCompanies(ctx context.Context, f RandomFilter) ([]Company, error)
	ListTypes(ctx context.Context) ([]string, error)
	ListTags(ctx context.Context, kind TagKind) ([]string, error)
	CityCounts(ctx context.Context) ([]CityCount, error)
	SuggestTypes(ctx context.Context, prefix string, limit int) ([]string, error)
	SuggestCities(ctx context.Context, prefix string, limit int) ([]string, error)
	Stats(ctx context.Context) (*Stats, error)

	// Import runs
	StartImportRun(ctx context.Context, run *ImportRun) error
	FinishImportRun(ctx context.Context, run *ImportRun) error
	ListImportRuns(ctx context.Context, limit int) ([]ImportRun, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*PostgresStore)(nil)
)
