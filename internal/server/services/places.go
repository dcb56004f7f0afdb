package services

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/turismap/internal/common"
	"github.com/dmitrijs2005/turismap/internal/server/models"
	"github.com/dmitrijs2005/turismap/internal/server/repositories/repomanager"
)

//go:embed places.json
var builtinPlaces []byte

// placeSeed is the checked part of a seeded place; the record keeps every
// field of the source object.
type placeSeed struct {
	ID       string  `json:"id" validate:"required"`
	Title    string  `json:"title" validate:"required"`
	Category string  `json:"category" validate:"oneof=cultural nature adventure craft"`
	Section  string  `json:"section" validate:"omitempty,oneof=suggested popular"`
	Rating   float64 `json:"rating" validate:"gte=0,lte=5"`
}

// LoadPlaces reads the place list from path, or returns the built-in list
// when path is empty.
func LoadPlaces(path string) ([]byte, error) {
	if path == "" {
		return builtinPlaces, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read places: %w", err)
	}
	return b, nil
}

func parsePlaces(raw []byte) ([]models.Document, error) {
	var objs []map[string]any
	if err := json.Unmarshal(raw, &objs); err != nil {
		return nil, fmt.Errorf("%w: places: %v", common.ErrValidation, err)
	}

	docs := make([]models.Document, 0, len(objs))
	seen := make(map[string]bool, len(objs))
	for i, obj := range objs {
		b, err := json.Marshal(obj)
		if err != nil {
			return nil, err
		}
		var p placeSeed
		if err := json.Unmarshal(b, &p); err != nil {
			return nil, fmt.Errorf("%w: place %d: %v", common.ErrValidation, i, err)
		}
		if err := validateInput(p); err != nil {
			return nil, fmt.Errorf("place %d: %w", i, err)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("%w: duplicate place id %q", common.ErrValidation, p.ID)
		}
		seen[p.ID] = true

		docs = append(docs, models.Document{
			Collection: common.CollectionPlaces,
			ID:         p.ID,
			Data:       cleanData(obj),
		})
	}
	return docs, nil
}

// SeedPlaces stores the places in raw that are not stored yet and returns
// how many were added. Stored places are never overwritten.
func SeedPlaces(ctx context.Context, m repomanager.RepositoryManager, raw []byte, now time.Time) (int, error) {
	docs, err := parsePlaces(raw)
	if err != nil {
		return 0, err
	}

	added := 0
	err = m.InTx(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		for _, d := range docs {
			_, err := r.Documents.Get(ctx, d.Collection, d.ID)
			switch {
			case err == nil:
				continue
			case !errors.Is(err, common.ErrNotFound):
				return fmt.Errorf("get place %s: %w", d.ID, err)
			}

			d.CreatedAt, d.UpdatedAt = now, now
			if err := r.Documents.Insert(ctx, d); err != nil {
				return fmt.Errorf("insert place %s: %w", d.ID, err)
			}
			added++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}
