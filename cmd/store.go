package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/atlas-research/bench-cli/internal/store"
)

// openStore opens the configured backend and ensures the schema is current.
func openStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "data/bench.db"
		}
		if dir := filepath.Dir(dsn); dir != "." && dsn != ":memory:" {
			if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
				return nil, eris.Wrapf(mkErr, "create database dir %s", dir)
			}
		}
		st, err = store.NewSQLite(dsn)
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate")
	}
	return st, nil
}
