package company

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// dialect captures the differences between the SQLite and Postgres SQL the
// stores emit. Queries are written with ? placeholders and rebound.
type dialect struct {
	name   string
	like   string
	dollar bool
}

var (
	sqliteDialect   = dialect{name: "sqlite", like: "LIKE"}
	postgresDialect = dialect{name: "postgres", like: "ILIKE", dollar: true}
)

// rebind rewrites ? placeholders to $n for Postgres.
func (d dialect) rebind(q string) string {
	if !d.dollar {
		return q
	}
	var b strings.Builder
	b.Grow(len(q) + 16)
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

type scannable interface {
	Scan(dest ...any) error
}

// rowSet is satisfied by pgx.Rows and by the *sql.Rows adapter.
type rowSet interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// conn is the driver seam: *sql.DB / *sql.Tx on SQLite, db.Pool / pgx.Tx
// on Postgres.
type conn interface {
	exec(ctx context.Context, q string, args ...any) (int64, error)
	query(ctx context.Context, q string, args ...any) (rowSet, error)
	queryRow(ctx context.Context, q string, args ...any) scannable
}

type txConn interface {
	conn
	commit(ctx context.Context) error
	rollback(ctx context.Context) error
}

type driver interface {
	conn
	begin(ctx context.Context) (txConn, error)
}

// sqlStore implements every Store operation that is plain SQL. The
// SQLite and Postgres stores embed it and add their lifecycle methods.
type sqlStore struct {
	d   dialect
	drv driver
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows)
}

func (s *sqlStore) exec(ctx context.Context, c conn, q string, args ...any) (int64, error) {
	return c.exec(ctx, s.d.rebind(q), args...)
}

func (s *sqlStore) queryRow(ctx context.Context, c conn, q string, args ...any) scannable {
	return c.queryRow(ctx, s.d.rebind(q), args...)
}

// --- Companies ---

// companyColumns is the standard column list for company queries.
const companyColumns = `c.id, c.name, c.website, c.type, c.logo_url, c.description, c.owner, c.maturity,
	c.location_city, c.location_country, c.location_greater_stockholm,
	c.metadata_source_url, c.source, c.is_swedish, c.accepts_interns,
	c.last_updated, c.data_quality_score`

var companyWriteColumns = []string{
	"id", "name", "website", "type", "logo_url", "description", "owner", "maturity",
	"location_city", "location_country", "location_greater_stockholm",
	"metadata_source_url", "source", "is_swedish", "accepts_interns",
	"last_updated", "data_quality_score",
}

// insertCompanySQL returns a plain INSERT for Insert mode and an upsert on
// id for Replace mode. Both engines accept the ON CONFLICT form.
func insertCompanySQL(mode WriteMode) string {
	q := `INSERT INTO companies (` + strings.Join(companyWriteColumns, ", ") + `) VALUES (` +
		strings.TrimSuffix(strings.Repeat("?, ", len(companyWriteColumns)), ", ") + `)`
	if mode != Replace {
		return q
	}
	sets := make([]string, 0, len(companyWriteColumns)-1)
	for _, col := range companyWriteColumns[1:] {
		sets = append(sets, col+" = excluded."+col)
	}
	return q + ` ON CONFLICT (id) DO UPDATE SET ` + strings.Join(sets, ", ")
}

func companyArgs(c *Company) []any {
	return []any{
		c.ID, c.Name, nilIfEmpty(c.Website), nilIfEmpty(c.Type), nilIfEmpty(c.LogoURL),
		nilIfEmpty(c.Description), nilIfEmpty(c.Owner), nilIfEmpty(c.Maturity),
		nilIfEmpty(c.City), nilIfEmpty(c.Country), nilIfNoBool(c.GreaterStockholm),
		nilIfEmpty(c.SourceURL), nilIfEmpty(c.Source), c.IsSwedish, nilIfNoBool(c.AcceptsInterns),
		c.LastUpdated, c.QualityScore,
	}
}

// SaveCompany writes the row and links its tags in one transaction. Tags
// are created on first reference; existing links are left alone.
func (s *sqlStore) SaveCompany(ctx context.Context, c *Company, tags TagSet, mode WriteMode) error {
	if c == nil {
		return eris.Errorf("%s: save company: nil company", s.d.name)
	}
	if strings.TrimSpace(c.Name) == "" {
		return eris.Errorf("%s: save company %d: name is required", s.d.name, c.ID)
	}
	if c.Country == "" {
		c.Country = DefaultCountry
	}
	c.QualityScore = clampScore(c.QualityScore)
	c.LastUpdated = time.Now().UTC()

	tx, err := s.drv.begin(ctx)
	if err != nil {
		return eris.Wrapf(err, "%s: begin save company %d", s.d.name, c.ID)
	}
	defer tx.rollback(ctx) //nolint:errcheck

	if _, err := s.exec(ctx, tx, insertCompanySQL(mode), companyArgs(c)...); err != nil {
		return eris.Wrapf(err, "%s: insert company %d", s.d.name, c.ID)
	}

	for _, kind := range TagKinds {
		for _, name := range tags[kind] {
			if err := s.linkTag(ctx, tx, c.ID, kind, name); err != nil {
				return err
			}
		}
	}

	return eris.Wrapf(tx.commit(ctx), "%s: commit company %d", s.d.name, c.ID)
}

// linkTag gets or creates the tag and links it to the company if absent.
func (s *sqlStore) linkTag(ctx context.Context, tx conn, companyID int64, kind TagKind, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	ts, err := kind.schema()
	if err != nil {
		return err
	}

	tagID, err := s.upsertTag(ctx, tx, ts.table, name)
	if err != nil {
		return err
	}

	q := fmt.Sprintf(`INSERT INTO %s (company_id, %s) VALUES (?, ?) ON CONFLICT DO NOTHING`, ts.joinTable, ts.fkColumn)
	if _, err := s.exec(ctx, tx, q, companyID, tagID); err != nil {
		return eris.Wrapf(err, "%s: link %s %q to company %d", s.d.name, kind, name, companyID)
	}
	return nil
}

func (s *sqlStore) upsertTag(ctx context.Context, tx conn, table, name string) (int64, error) {
	if _, err := s.exec(ctx, tx, `INSERT INTO `+table+` (name) VALUES (?) ON CONFLICT (name) DO NOTHING`, name); err != nil {
		return 0, eris.Wrapf(err, "%s: create %s %q", s.d.name, table, name)
	}
	var id int64
	if err := s.queryRow(ctx, tx, `SELECT id FROM `+table+` WHERE name = ?`, name).Scan(&id); err != nil {
		return 0, eris.Wrapf(err, "%s: lookup %s %q", s.d.name, table, name)
	}
	return id, nil
}

// NextID returns one more than the highest id in the store, 1 when empty.
func (s *sqlStore) NextID(ctx context.Context) (int64, error) {
	var next int64
	if err := s.queryRow(ctx, s.drv, `SELECT COALESCE(MAX(id), 0) + 1 FROM companies`).Scan(&next); err != nil {
		return 0, eris.Wrapf(err, "%s: next id", s.d.name)
	}
	return next, nil
}

// CompanyNames returns the display name of every stored company.
func (s *sqlStore) CompanyNames(ctx context.Context) ([]string, error) {
	return s.queryStrings(ctx, "company names", `SELECT name FROM companies`)
}

// GetCompany fetches a company by id. Returns nil, nil when absent.
func (s *sqlStore) GetCompany(ctx context.Context, id int64) (*Company, error) {
	c, err := scanCompany(s.queryRow(ctx, s.drv, `SELECT `+companyColumns+` FROM companies c WHERE c.id = ?`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "%s: get company %d", s.d.name, id)
	}
	return c, nil
}

// GetTags returns the tag names of a company for every category. Each
// category is present with a non-nil, name-sorted list.
func (s *sqlStore) GetTags(ctx context.Context, companyID int64) (TagSet, error) {
	tags := make(TagSet, len(TagKinds))
	for _, kind := range TagKinds {
		ts, _ := kind.schema()
		q := fmt.Sprintf(`SELECT t.name FROM %s t JOIN %s j ON t.id = j.%s WHERE j.company_id = ? ORDER BY t.name`,
			ts.table, ts.joinTable, ts.fkColumn)
		names, err := s.queryStrings(ctx, "get "+ts.table, q, companyID)
		if err != nil {
			return nil, err
		}
		tags[kind] = names
	}
	return tags, nil
}

// SearchByName matches a name substring, best quality first.
func (s *sqlStore) SearchByName(ctx context.Context, term string, limit int) ([]Company, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `SELECT ` + companyColumns + ` FROM companies c
		WHERE c.name ` + s.d.like + ` ? ESCAPE '\'
		ORDER BY c.data_quality_score DESC, c.name
		LIMIT ?`
	return s.queryCompanies(ctx, "search by name", q, "%"+escapeLike(term)+"%", limit)
}

// FilterCompanies applies every active filter conjunctively.
func (s *sqlStore) FilterCompanies(ctx context.Context, f Filter) ([]Company, error) {
	q, args := buildFilterQuery(s.d, f)
	return s.queryCompanies(ctx, "filter companies", q, args...)
}

func buildFilterQuery(d dialect, f Filter) (string, []any) {
	query := `SELECT DISTINCT ` + companyColumns + ` FROM companies c`
	var conditions []string
	var args []any

	joinTag := func(kind TagKind, alias, value string) {
		ts, _ := kind.schema()
		query += fmt.Sprintf(` JOIN %s %sj ON c.id = %sj.company_id JOIN %s %s ON %sj.%s = %s.id`,
			ts.joinTable, alias, alias, ts.table, alias, alias, ts.fkColumn, alias)
		conditions = append(conditions, alias+`.name `+d.like+` ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(value)+"%")
	}
	if f.Sector != "" {
		joinTag(TagSector, "s", f.Sector)
	}
	if f.Domain != "" {
		joinTag(TagDomain, "d", f.Domain)
	}
	if f.Capability != "" {
		joinTag(TagCapability, "ac", f.Capability)
	}

	if f.Type != "" {
		conditions = append(conditions, `c.type = ?`)
		args = append(args, f.Type)
	}
	if f.MinQuality > 0 {
		conditions = append(conditions, `c.data_quality_score >= ?`)
		args = append(args, f.MinQuality)
	}
	if f.City != "" {
		conditions = append(conditions, `c.location_city `+d.like+` ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(f.City)+"%")
	}
	if f.GreaterStockholm != nil {
		conditions = append(conditions, `c.location_greater_stockholm = ?`)
		args = append(args, *f.GreaterStockholm)
	}
	if f.OnlyRelevant {
		cond, relArgs := relevantCondition()
		conditions = append(conditions, cond)
		args = append(args, relArgs...)
	}

	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, ` AND `)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` ORDER BY c.data_quality_score DESC, c.name LIMIT ?`
	args = append(args, limit)
	return query, args
}

func relevantCondition() (string, []any) {
	args := make([]any, len(RelevantTypes))
	for i, t := range RelevantTypes {
		args[i] = t
	}
	return `c.type IN (` + strings.TrimSuffix(strings.Repeat("?, ", len(RelevantTypes)), ", ") + `)`, args
}

// RandomCompanies samples up to f.Count matching companies.
func (s *sqlStore) RandomCompanies(ctx context.Context, f RandomFilter) ([]Company, error) {
	q, args := buildRandomQuery(f)
	return s.queryCompanies(ctx, "random companies", q, args...)
}

func buildRandomQuery(f RandomFilter) (string, []any) {
	query := `SELECT ` + companyColumns + ` FROM companies c`
	var conditions []string
	var args []any

	if f.Type != "" {
		conditions = append(conditions, `c.type = ?`)
		args = append(args, f.Type)
	}
	if f.OnlyRelevant {
		cond, relArgs := relevantCondition()
		conditions = append(conditions, cond)
		args = append(args, relArgs...)
	}
	if f.Complete {
		conditions = append(conditions,
			`COALESCE(c.website, '') <> ''`,
			`COALESCE(c.logo_url, '') <> ''`,
			`COALESCE(c.description, '') <> ''`)
	}
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, ` AND `)
	}

	count := f.Count
	if count <= 0 {
		count = 1
	}
	query += ` ORDER BY RANDOM() LIMIT ?`
	args = append(args, count)
	return query, args
}

// ListTypes returns the distinct organization types, sorted.
func (s *sqlStore) ListTypes(ctx context.Context) ([]string, error) {
	return s.queryStrings(ctx, "list types",
		`SELECT DISTINCT type FROM companies WHERE type IS NOT NULL AND type <> '' ORDER BY type`)
}

// ListTags returns every tag name of a category, sorted.
func (s *sqlStore) ListTags(ctx context.Context, kind TagKind) ([]string, error) {
	ts, err := kind.schema()
	if err != nil {
		return nil, err
	}
	return s.queryStrings(ctx, "list "+ts.table, `SELECT name FROM `+ts.table+` ORDER BY name`)
}

// CityCounts returns each city with its company count, largest first.
func (s *sqlStore) CityCounts(ctx context.Context) ([]CityCount, error) {
	counts, err := s.queryCounts(ctx, "city counts", `
		SELECT location_city, COUNT(*) AS n FROM companies
		WHERE location_city IS NOT NULL AND location_city <> ''
		GROUP BY location_city
		ORDER BY n DESC, location_city`)
	if err != nil {
		return nil, err
	}
	cities := make([]CityCount, len(counts))
	for i, c := range counts {
		cities[i] = CityCount{City: c.Name, Count: c.Count}
	}
	return cities, nil
}

// SuggestTypes returns types starting with prefix, case-insensitively.
func (s *sqlStore) SuggestTypes(ctx context.Context, prefix string, limit int) ([]string, error) {
	return s.suggest(ctx, "type", prefix, limit)
}

// SuggestCities returns cities starting with prefix, case-insensitively.
func (s *sqlStore) SuggestCities(ctx context.Context, prefix string, limit int) ([]string, error) {
	return s.suggest(ctx, "location_city", prefix, limit)
}

func (s *sqlStore) suggest(ctx context.Context, column, prefix string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 25
	}
	q := fmt.Sprintf(`SELECT DISTINCT %[1]s FROM companies
		WHERE %[1]s IS NOT NULL AND LOWER(%[1]s) LIKE ? ESCAPE '\'
		ORDER BY %[1]s LIMIT ?`, column)
	return s.queryStrings(ctx, "suggest "+column, q, escapeLike(strings.ToLower(prefix))+"%", limit)
}

// Stats summarizes the store.
func (s *sqlStore) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{}

	if err := s.queryRow(ctx, s.drv, `SELECT COUNT(*) FROM companies`).Scan(&st.Companies); err != nil {
		return nil, eris.Wrapf(err, "%s: count companies", s.d.name)
	}

	var err error
	if st.BySource, err = s.queryCounts(ctx, "count by source",
		`SELECT COALESCE(source, ''), COUNT(*) FROM companies GROUP BY source ORDER BY 2 DESC, 1`); err != nil {
		return nil, err
	}
	if st.ByType, err = s.queryCounts(ctx, "count by type",
		`SELECT COALESCE(type, ''), COUNT(*) FROM companies GROUP BY type ORDER BY 2 DESC, 1`); err != nil {
		return nil, err
	}

	err = s.queryRow(ctx, s.drv, `
		SELECT COALESCE(CAST(AVG(data_quality_score) AS DOUBLE PRECISION), 0.0),
			COALESCE(MIN(data_quality_score), 0),
			COALESCE(MAX(data_quality_score), 0)
		FROM companies`).Scan(&st.QualityAvg, &st.QualityMin, &st.QualityMax)
	if err != nil {
		return nil, eris.Wrapf(err, "%s: quality stats", s.d.name)
	}

	st.Tags = make([]Count, 0, len(TagKinds))
	for _, kind := range TagKinds {
		ts, _ := kind.schema()
		var n int
		if err := s.queryRow(ctx, s.drv, `SELECT COUNT(*) FROM `+ts.table).Scan(&n); err != nil {
			return nil, eris.Wrapf(err, "%s: count %s", s.d.name, ts.table)
		}
		st.Tags = append(st.Tags, Count{Name: string(kind), Count: n})
	}

	err = s.queryRow(ctx, s.drv, `
		SELECT COUNT(*) FROM companies WHERE location_city IS NOT NULL AND location_city <> ''`).Scan(&st.WithCity)
	if err != nil {
		return nil, eris.Wrapf(err, "%s: count located", s.d.name)
	}
	err = s.queryRow(ctx, s.drv, `
		SELECT COUNT(*) FROM companies WHERE location_greater_stockholm = ?`, true).Scan(&st.GreaterStockholm)
	if err != nil {
		return nil, eris.Wrapf(err, "%s: count greater stockholm", s.d.name)
	}

	return st, nil
}

// --- Import runs ---

// StartImportRun inserts a running import_runs row and fills in its id
// and start time.
func (s *sqlStore) StartImportRun(ctx context.Context, run *ImportRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	run.Status = ImportRunning
	run.StartedAt = time.Now().UTC()

	_, err := s.exec(ctx, s.drv,
		`INSERT INTO import_runs (id, source, location, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Source, run.Location, string(run.Status), run.StartedAt,
	)
	return eris.Wrapf(err, "%s: start import run", s.d.name)
}

// FinishImportRun records the final status and counters of a run.
func (s *sqlStore) FinishImportRun(ctx context.Context, run *ImportRun) error {
	now := time.Now().UTC()
	run.CompletedAt = &now

	n, err := s.exec(ctx, s.drv, `
		UPDATE import_runs
		SET status = ?, completed_at = ?, imported = ?, duplicates = ?, skipped = ?, errors = ?, error = ?
		WHERE id = ?`,
		string(run.Status), now, run.Imported, run.Duplicates, run.Skipped, run.Errors, nilIfEmpty(run.Error),
		run.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "%s: finish import run %s", s.d.name, run.ID)
	}
	return checkRowsAffected(n, "import run", run.ID)
}

// ListImportRuns returns the most recent runs first.
func (s *sqlStore) ListImportRuns(ctx context.Context, limit int) ([]ImportRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.drv.query(ctx, s.d.rebind(`
		SELECT id, source, location, status, started_at, completed_at,
			imported, duplicates, skipped, errors, error
		FROM import_runs ORDER BY started_at DESC LIMIT ?`), limit)
	if err != nil {
		return nil, eris.Wrapf(err, "%s: list import runs", s.d.name)
	}
	defer rows.Close()

	runs := []ImportRun{}
	for rows.Next() {
		var r ImportRun
		var status string
		var completed sql.NullTime
		var errMsg sql.NullString
		if err := rows.Scan(&r.ID, &r.Source, &r.Location, &status, &r.StartedAt, &completed,
			&r.Imported, &r.Duplicates, &r.Skipped, &r.Errors, &errMsg); err != nil {
			return nil, eris.Wrapf(err, "%s: scan import run", s.d.name)
		}
		r.Status = ImportRunStatus(status)
		if completed.Valid {
			t := completed.Time
			r.CompletedAt = &t
		}
		r.Error = errMsg.String
		runs = append(runs, r)
	}
	return runs, eris.Wrapf(rows.Err(), "%s: list import runs iterate", s.d.name)
}

// --- scanning helpers ---

func scanCompany(row scannable) (*Company, error) {
	var (
		c                                               Company
		website, typ, logo, desc, owner, maturity, city sql.NullString
		country, sourceURL, source                      sql.NullString
		greaterStockholm, swedish, interns              sql.NullBool
		quality                                         sql.NullInt64
	)
	err := row.Scan(&c.ID, &c.Name, &website, &typ, &logo, &desc, &owner, &maturity,
		&city, &country, &greaterStockholm,
		&sourceURL, &source, &swedish, &interns,
		&c.LastUpdated, &quality)
	if err != nil {
		return nil, err
	}
	c.Website = website.String
	c.Type = typ.String
	c.LogoURL = logo.String
	c.Description = desc.String
	c.Owner = owner.String
	c.Maturity = maturity.String
	c.City = city.String
	c.Country = country.String
	c.GreaterStockholm = boolPtr(greaterStockholm)
	c.SourceURL = sourceURL.String
	c.Source = source.String
	c.IsSwedish = swedish.Bool
	c.AcceptsInterns = boolPtr(interns)
	c.QualityScore = int(quality.Int64)
	return &c, nil
}

func (s *sqlStore) queryCompanies(ctx context.Context, op, q string, args ...any) ([]Company, error) {
	rows, err := s.drv.query(ctx, s.d.rebind(q), args...)
	if err != nil {
		return nil, eris.Wrapf(err, "%s: %s", s.d.name, op)
	}
	defer rows.Close()

	companies := []Company{}
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, eris.Wrapf(err, "%s: %s scan", s.d.name, op)
		}
		companies = append(companies, *c)
	}
	return companies, eris.Wrapf(rows.Err(), "%s: %s iterate", s.d.name, op)
}

func (s *sqlStore) queryStrings(ctx context.Context, op, q string, args ...any) ([]string, error) {
	rows, err := s.drv.query(ctx, s.d.rebind(q), args...)
	if err != nil {
		return nil, eris.Wrapf(err, "%s: %s", s.d.name, op)
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var v sql.NullString
		if err := rows.Scan(&v); err != nil {
			return nil, eris.Wrapf(err, "%s: %s scan", s.d.name, op)
		}
		if v.Valid {
			values = append(values, v.String)
		}
	}
	return values, eris.Wrapf(rows.Err(), "%s: %s iterate", s.d.name, op)
}

func (s *sqlStore) queryCounts(ctx context.Context, op, q string, args ...any) ([]Count, error) {
	rows, err := s.drv.query(ctx, s.d.rebind(q), args...)
	if err != nil {
		return nil, eris.Wrapf(err, "%s: %s", s.d.name, op)
	}
	defer rows.Close()

	counts := []Count{}
	for rows.Next() {
		var c Count
		if err := rows.Scan(&c.Name, &c.Count); err != nil {
			return nil, eris.Wrapf(err, "%s: %s scan", s.d.name, op)
		}
		counts = append(counts, c)
	}
	return counts, eris.Wrapf(rows.Err(), "%s: %s iterate", s.d.name, op)
}

func checkRowsAffected(n int64, entity, id string) error {
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

// escapeLike escapes LIKE metacharacters for use with ESCAPE '\'.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nilIfNoBool(b *bool) any {
	if b == nil {
		return nil
	}
	return *b
}

func boolPtr(b sql.NullBool) *bool {
	if !b.Valid {
		return nil
	}
	v := b.Bool
	return &v
}
