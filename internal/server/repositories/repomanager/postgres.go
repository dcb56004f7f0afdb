package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/turismap/internal/dbx"
	"github.com/dmitrijs2005/turismap/internal/server/migrations"
	"github.com/dmitrijs2005/turismap/internal/server/repositories/documents"
	"github.com/dmitrijs2005/turismap/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/turismap/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager binds the Postgres repositories either to the
// pool or to a transaction.
type PostgresRepositoryManager struct {
	db *sql.DB
}

// OpenPostgres opens a pgx-backed pool for dsn.
func OpenPostgres(dsn string) (*PostgresRepositoryManager, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	return NewPostgresRepositoryManager(db), nil
}

func NewPostgresRepositoryManager(db *sql.DB) *PostgresRepositoryManager {
	return &PostgresRepositoryManager{db: db}
}

func (m *PostgresRepositoryManager) bind(db dbx.DBTX) Repositories {
	return Repositories{
		Users:         users.NewPostgresRepository(db),
		RefreshTokens: refreshtokens.NewPostgresRepository(db),
		Documents:     documents.NewPostgresRepository(db),
	}
}

func (m *PostgresRepositoryManager) Repositories() Repositories {
	return m.bind(m.db)
}

func (m *PostgresRepositoryManager) InTx(ctx context.Context, fn func(ctx context.Context, r Repositories) error) error {
	return dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, m.bind(tx))
	})
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded schema.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, m.db, ".")
}

func (m *PostgresRepositoryManager) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

func (m *PostgresRepositoryManager) Close(context.Context) error {
	return m.db.Close()
}
