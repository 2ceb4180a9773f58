package company

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/company-directory/internal/db"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	sqlStore
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	s := NewPostgresStore(pool)
	s.closeFn = pool.Close
	return s, nil
}

// NewPostgresStore wraps an existing pool.
func NewPostgresStore(pool db.Pool) *PostgresStore {
	return &PostgresStore{
		sqlStore: sqlStore{d: postgresDialect, drv: pgDB{pgConn{pool}, pool}},
		pool:     pool,
	}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS companies (
	id                         BIGINT PRIMARY KEY,
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
	is_swedish                 BOOLEAN DEFAULT TRUE,
	accepts_interns            BOOLEAN,
	last_updated               TIMESTAMPTZ,
	data_quality_score         INTEGER DEFAULT 0
);

CREATE TABLE IF NOT EXISTS sectors (
	id   BIGSERIAL PRIMARY KEY,
	name TEXT UNIQUE NOT NULL
);

CREATE TABLE IF NOT EXISTS domains (
	id   BIGSERIAL PRIMARY KEY,
	name TEXT UNIQUE NOT NULL
);

CREATE TABLE IF NOT EXISTS ai_capabilities (
	id   BIGSERIAL PRIMARY KEY,
	name TEXT UNIQUE NOT NULL
);

CREATE TABLE IF NOT EXISTS dimensions (
	id   BIGSERIAL PRIMARY KEY,
	name TEXT UNIQUE NOT NULL
);

CREATE TABLE IF NOT EXISTS company_sectors (
	company_id BIGINT REFERENCES companies(id),
	sector_id  BIGINT REFERENCES sectors(id),
	PRIMARY KEY (company_id, sector_id)
);

CREATE TABLE IF NOT EXISTS company_domains (
	company_id BIGINT REFERENCES companies(id),
	domain_id  BIGINT REFERENCES domains(id),
	PRIMARY KEY (company_id, domain_id)
);

CREATE TABLE IF NOT EXISTS company_ai_capabilities (
	company_id    BIGINT REFERENCES companies(id),
	capability_id BIGINT REFERENCES ai_capabilities(id),
	PRIMARY KEY (company_id, capability_id)
);

CREATE TABLE IF NOT EXISTS company_dimensions (
	company_id   BIGINT REFERENCES companies(id),
	dimension_id BIGINT REFERENCES dimensions(id),
	PRIMARY KEY (company_id, dimension_id)
);

CREATE TABLE IF NOT EXISTS import_runs (
	id           TEXT PRIMARY KEY,
	source       TEXT NOT NULL,
	location     TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'running',
	started_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at TIMESTAMPTZ,
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

// Ping verifies the pool can reach the server.
func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

// Migrate creates the schema if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

// Close releases the pool when this store created it.
func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// pgQuerier is implemented by both db.Pool and pgx.Tx.
type pgQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type pgConn struct {
	q pgQuerier
}

func (c pgConn) exec(ctx context.Context, q string, args ...any) (int64, error) {
	tag, err := c.q.Exec(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (c pgConn) query(ctx context.Context, q string, args ...any) (rowSet, error) {
	return c.q.Query(ctx, q, args...)
}

func (c pgConn) queryRow(ctx context.Context, q string, args ...any) scannable {
	return c.q.QueryRow(ctx, q, args...)
}

type pgDB struct {
	pgConn
	pool db.Pool
}

func (d pgDB) begin(ctx context.Context) (txConn, error) {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return pgTx{pgConn{tx}, tx}, nil
}

type pgTx struct {
	pgConn
	tx pgx.Tx
}

func (t pgTx) commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t pgTx) rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }
