package company

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	sqlStore
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path over a single
// connection and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// One connection: pragmas stay in effect and ":memory:" stays one database.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{
		sqlStore: sqlStore{d: sqliteDialect, drv: sqliteDB{sqliteConn{db}, db}},
		db:       db,
	}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS companies (
	id                         INTEGER PRIMARY KEY,
	name                       TEXT NOT NULL,
	website                    TEXT,
	type                       TEXT,
	logo_url                   TEXT,
	description                TEXT,
	owner                      TEXT,
	maturity                   TEXT,
	location_city              TEXT,
	location_country           TEXT DEFAULT 'Sweden',
	location_greater_stockholm BOOLEAN,
	metadata_source_url        TEXT,
	source                     TEXT,
	is_swedish                 BOOLEAN DEFAULT 1,
	accepts_interns            BOOLEAN,
	last_updated               DATETIME,
	data_quality_score         INTEGER DEFAULT 0
);

CREATE TABLE IF NOT EXISTS sectors (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT UNIQUE NOT NULL
);

CREATE TABLE IF NOT EXISTS domains (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT UNIQUE NOT NULL
);

CREATE TABLE IF NOT EXISTS ai_capabilities (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT UNIQUE NOT NULL
);

CREATE TABLE IF NOT EXISTS dimensions (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT UNIQUE NOT NULL
);

CREATE TABLE IF NOT EXISTS company_sectors (
	company_id INTEGER REFERENCES companies(id),
	sector_id  INTEGER REFERENCES sectors(id),
	PRIMARY KEY (company_id, sector_id)
);

CREATE TABLE IF NOT EXISTS company_domains (
	company_id INTEGER REFERENCES companies(id),
	domain_id  INTEGER REFERENCES domains(id),
	PRIMARY KEY (company_id, domain_id)
);

CREATE TABLE IF NOT EXISTS company_ai_capabilities (
	company_id    INTEGER REFERENCES companies(id),
	capability_id INTEGER REFERENCES ai_capabilities(id),
	PRIMARY KEY (company_id, capability_id)
);

CREATE TABLE IF NOT EXISTS company_dimensions (
	company_id   INTEGER REFERENCES companies(id),
	dimension_id INTEGER REFERENCES dimensions(id),
	PRIMARY KEY (company_id, dimension_id)
);

CREATE TABLE IF NOT EXISTS import_runs (
	id           TEXT PRIMARY KEY,
	source       TEXT NOT NULL,
	location     TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'running',
	started_at   DATETIME NOT NULL,
	completed_at DATETIME,
	imported     INTEGER NOT NULL DEFAULT 0,
	duplicates   INTEGER NOT NULL DEFAULT 0,
	skipped      INTEGER NOT NULL DEFAULT 0,
	errors       INTEGER NOT NULL DEFAULT 0,
	error        TEXT
);

CREATE INDEX IF NOT EXISTS idx_company_name ON companies(name);
CREATE INDEX IF NOT EXISTS idx_company_type ON companies(type);
CREATE INDEX IF NOT EXISTS idx_company_swedish ON companies(is_swedish);
CREATE INDEX IF NOT EXISTS idx_location_city ON companies(location_city);
CREATE INDEX IF NOT EXISTS idx_location_stockholm ON companies(location_greater_stockholm);
CREATE INDEX IF NOT EXISTS idx_import_runs_started ON import_runs(started_at);
`

// Migrate creates the schema if it does not exist.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Ping verifies the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

// Close closes the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// sqlQuerier is implemented by both *sql.DB and *sql.Tx.
type sqlQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type sqliteConn struct {
	q sqlQuerier
}

func (c sqliteConn) exec(ctx context.Context, q string, args ...any) (int64, error) {
	res, err := c.q.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (c sqliteConn) query(ctx context.Context, q string, args ...any) (rowSet, error) {
	rows, err := c.q.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return sqlRows{rows}, nil
}

func (c sqliteConn) queryRow(ctx context.Context, q string, args ...any) scannable {
	return c.q.QueryRowContext(ctx, q, args...)
}

type sqliteDB struct {
	sqliteConn
	db *sql.DB
}

func (d sqliteDB) begin(ctx context.Context) (txConn, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return sqliteTx{sqliteConn{tx}, tx}, nil
}

type sqliteTx struct {
	sqliteConn
	tx *sql.Tx
}

func (t sqliteTx) commit(context.Context) error   { return t.tx.Commit() }
func (t sqliteTx) rollback(context.Context) error { return t.tx.Rollback() }

// sqlRows adapts *sql.Rows to rowSet.
type sqlRows struct {
	*sql.Rows
}

func (r sqlRows) Close() { r.Rows.Close() } //nolint:errcheck
