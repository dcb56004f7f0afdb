package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/turismap/internal/dbx"
)

type SQLiteRepository struct {
	db     dbx.DBTX
	closer func() error
}

// NewSQLiteRepository works on any DBTX. Close is a no-op unless db is a
// *sql.DB, in which case it closes the database.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	r := &SQLiteRepository{db: db, closer: func() error { return nil }}
	if sdb, ok := db.(*sql.DB); ok {
		r.closer = sdb.Close
	}
	return r
}

func (r *SQLiteRepository) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM cache WHERE namespace = ? AND key = ?`, namespace, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cache[%s/%s]: %w", namespace, key, err)
	}
	return value, nil
}

func (r *SQLiteRepository) Set(ctx context.Context, namespace, key string, value []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cache (namespace, key, value, updated_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(namespace, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, namespace, key, value)
	if err != nil {
		return fmt.Errorf("failed to set cache[%s/%s]: %w", namespace, key, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, namespace, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cache WHERE namespace = ? AND key = ?`, namespace, key)
	if err != nil {
		return fmt.Errorf("failed to delete cache[%s/%s]: %w", namespace, key, err)
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context, namespace string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cache WHERE namespace = ?`, namespace)
	if err != nil {
		return fmt.Errorf("failed to clear cache[%s]: %w", namespace, err)
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context, namespace string) (map[string][]byte, error) {
	type row struct {
		key   string
		value []byte
	}
	rows, err := dbx.Collect(ctx, r.db, func(rs *sql.Rows) (row, error) {
		var v row
		err := rs.Scan(&v.key, &v.value)
		return v, err
	}, `SELECT key, value FROM cache WHERE namespace = ?`, namespace)
	if err != nil {
		return nil, fmt.Errorf("failed to list cache[%s]: %w", namespace, err)
	}

	result := make(map[string][]byte, len(rows))
	for _, v := range rows {
		result[v.key] = v.value
	}
	return result, nil
}

func (r *SQLiteRepository) Close() error {
	return r.closer()
}
