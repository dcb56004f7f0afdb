package services

import (
	"context"

	"github.com/dmitrijs2005/turismap/internal/client/client"
	"github.com/dmitrijs2005/turismap/internal/client/models"
	"github.com/dmitrijs2005/turismap/internal/common"
)

// PlaceStore reads the places collection. The server rejects writes.
type PlaceStore struct {
	docs client.Documents
}

func NewPlaceStore(docs client.Documents) *PlaceStore {
	return &PlaceStore{docs: docs}
}

func (s *PlaceStore) All(ctx context.Context) ([]models.Place, error) {
	docs, err := s.docs.Query(ctx, common.CollectionPlaces)
	if err != nil {
		return nil, err
	}
	return decodeAll[models.Place](docs)
}

// Get returns nil when the place does not exist.
func (s *PlaceStore) Get(ctx context.Context, id string) (*models.Place, error) {
	d, err := s.docs.Get(ctx, common.CollectionPlaces, id)
	if err != nil || d == nil {
		return nil, err
	}
	var p models.Place
	if err := decode(*d, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
