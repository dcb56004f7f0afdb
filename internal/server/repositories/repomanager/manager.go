// Package repomanager vends the repositories of the configured storage
// backend and runs units of work across them.
package repomanager

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/turismap/internal/server/config"
	"github.com/dmitrijs2005/turismap/internal/server/repositories/documents"
	"github.com/dmitrijs2005/turismap/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/turismap/internal/server/repositories/users"
)

// Repositories bundles the stores one unit of work operates on.
type Repositories struct {
	Users         users.Repository
	RefreshTokens refreshtokens.Repository
	Documents     documents.Repository
}

type RepositoryManager interface {
	Repositories() Repositories
	// InTx runs fn against repositories sharing one transaction where the
	// backend has them, and serialized with other InTx calls otherwise.
	// fn must not call InTx again.
	InTx(ctx context.Context, fn func(ctx context.Context, r Repositories) error) error
	RunMigrations(ctx context.Context) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Open connects to the backend named by cfg.StorageBackend and prepares
// its schema.
func Open(ctx context.Context, cfg *config.Config) (RepositoryManager, error) {
	var (
		m   RepositoryManager
		err error
	)
	switch cfg.StorageBackend {
	case config.StorageMemory, "":
		m = NewMemoryRepositoryManager()
	case config.StoragePostgres:
		m, err = OpenPostgres(cfg.DatabaseDSN)
	case config.StorageMongo:
		m, err = OpenMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
	if err != nil {
		return nil, fmt.Errorf("%s storage: %w", cfg.StorageBackend, err)
	}

	if err := m.RunMigrations(ctx); err != nil {
		_ = m.Close(ctx)
		return nil, fmt.Errorf("migrations: %w", err)
	}
	return m, nil
}
