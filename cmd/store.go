package main

import (
	"context"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/company-directory/internal/company"
	"github.com/sells-group/company-directory/internal/query"
)

// initStore opens the configured store and brings its schema up to date.
// A missing SQLite file is only created when create is set (migrate and
// the primary import); every other command needs an existing database.
func initStore(ctx context.Context, create bool) (company.Store, error) {
	if err := cfg.Validate("store"); err != nil {
		return nil, err
	}

	var (
		st  company.Store
		err error
	)
	switch cfg.Store.Driver {
	case "sqlite":
		path := sqlitePath(cfg.Store.DatabaseURL)
		if !create && path != "" {
			if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
				return nil, eris.Errorf("sqlite: database %s does not exist (run migrate or import primary first)", path)
			}
		}
		st, err = company.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		st, err = company.NewPostgres(ctx, cfg.Store.DatabaseURL, &company.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	zap.L().Debug("store ready", zap.String("driver", cfg.Store.Driver))
	return st, nil
}

// sqlitePath extracts the file path from a SQLite DSN. In-memory databases
// have no path.
func sqlitePath(dsn string) string {
	p := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	if p == ":memory:" || p == "" {
		return ""
	}
	return p
}

func newQueryService(st company.Store) *query.Service {
	return query.NewService(st, query.Limits{
		Default: cfg.Query.DefaultLimit,
		Max:     cfg.Query.MaxLimit,
	})
}
