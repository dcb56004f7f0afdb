package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/turismap/internal/common"
	"github.com/dmitrijs2005/turismap/internal/dbx"
	"github.com/dmitrijs2005/turismap/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// PostgresRepository keeps every collection in one JSONB table. Filters
// become containment tests (@>), which the GIN index on data serves.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, doc models.Document) error {
	data, err := json.Marshal(doc.Data)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	query := `
		INSERT INTO documents (collection, id, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := r.db.ExecContext(ctx, query, doc.Collection, doc.ID, data, doc.CreatedAt, doc.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, doc models.Document) error {
	data, err := json.Marshal(doc.Data)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	query := `
		INSERT INTO documents (collection, id, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (collection, id) DO UPDATE
		SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, doc.Collection, doc.ID, data, doc.CreatedAt, doc.UpdatedAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, collection, id string) (*models.Document, error) {
	query := `
		SELECT data, created_at, updated_at
		FROM documents
		WHERE collection = $1 AND id = $2
	`
	doc := &models.Document{Collection: collection, ID: id}
	var data []byte
	if err := r.db.QueryRowContext(ctx, query, collection, id).Scan(&data, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if err := json.Unmarshal(data, &doc.Data); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

// containment renders f as the JSON a matching data value must contain.
func containment(f models.Filter) ([]byte, error) {
	switch f.Op {
	case models.OpEqual:
		return json.Marshal(map[string]any{f.Field: f.Value})
	case models.OpArrayContains:
		return json.Marshal(map[string]any{f.Field: []any{f.Value}})
	default:
		return nil, fmt.Errorf("%w: unsupported operator %q", common.ErrValidation, f.Op)
	}
}

func (r *PostgresRepository) Query(ctx context.Context, collection string, filters []models.Filter) ([]models.Document, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT id, data, created_at, updated_at FROM documents WHERE collection = $1`)
	args := []any{collection}
	for _, f := range filters {
		c, err := containment(f)
		if err != nil {
			return nil, err
		}
		args = append(args, c)
		fmt.Fprintf(&sb, ` AND data @> $%d::jsonb`, len(args))
	}
	sb.WriteString(` ORDER BY created_at, id`)

	out, err := dbx.Collect(ctx, r.db, func(rows *sql.Rows) (models.Document, error) {
		doc := models.Document{Collection: collection}
		var data []byte
		if err := rows.Scan(&doc.ID, &data, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return doc, err
		}
		if err := json.Unmarshal(data, &doc.Data); err != nil {
			return doc, fmt.Errorf("decode document %s: %w", doc.ID, err)
		}
		return doc, nil
	}, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Replace(ctx context.Context, doc models.Document) error {
	data, err := json.Marshal(doc.Data)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	query := `
		UPDATE documents SET data = $3, updated_at = $4
		WHERE collection = $1 AND id = $2
	`
	res, err := r.db.ExecContext(ctx, query, doc.Collection, doc.ID, data, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, collection, id string) error {
	query := `
		DELETE FROM documents
		WHERE collection = $1 AND id = $2
	`
	res, err := r.db.ExecContext(ctx, query, collection, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}
