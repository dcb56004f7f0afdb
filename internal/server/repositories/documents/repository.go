// Package documents stores the schemaless records of every collection.
package documents

import (
	"context"

	"github.com/dmitrijs2005/turismap/internal/server/models"
)

// Repository is implemented by the memory, Postgres and Mongo stores. All
// of them return common.ErrNotFound for a missing record and
// common.ErrAlreadyExists when Insert hits a taken id.
type Repository interface {
	Insert(ctx context.Context, doc models.Document) error
	// Upsert writes doc whole. An existing record keeps its CreatedAt.
	Upsert(ctx context.Context, doc models.Document) error
	Get(ctx context.Context, collection, id string) (*models.Document, error)
	// Query returns the records matching every filter, oldest first.
	Query(ctx context.Context, collection string, filters []models.Filter) ([]models.Document, error)
	// Replace overwrites the data of an existing record.
	Replace(ctx context.Context, doc models.Document) error
	Delete(ctx context.Context, collection, id string) error
}
