package client

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/dmitrijs2005/turismap/internal/client/migrations"
	"github.com/dmitrijs2005/turismap/internal/client/repositories/cache"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

// Cache backends.
const (
	CacheSQLite = "sqlite"
	CacheBolt   = "bolt"
)

func RunMigrations(ctx context.Context, db *sql.DB) error {
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.Migrations)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("migrate cache: %w", err)
	}
	return nil
}

func InitDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// OpenCache opens the local cache inside dir using the requested backend.
func OpenCache(ctx context.Context, backend, dir string) (cache.Repository, error) {
	switch backend {
	case CacheSQLite, "":
		db, err := InitDatabase(ctx, filepath.Join(dir, "turismap.db"))
		if err != nil {
			return nil, err
		}
		return cache.NewSQLiteRepository(db), nil
	case CacheBolt:
		return cache.NewBoltRepository(filepath.Join(dir, "turismap.bolt"))
	default:
		return nil, fmt.Errorf("unknown cache backend %q", backend)
	}
}
