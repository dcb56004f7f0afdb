package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/turismap/internal/client/client"
	"github.com/dmitrijs2005/turismap/internal/client/models"
	"github.com/dmitrijs2005/turismap/internal/common"
)

// FavoriteStore keeps favorites in the favorites collection, one record per
// user and place.
type FavoriteStore struct {
	docs client.Documents
}

func NewFavoriteStore(docs client.Documents) *FavoriteStore {
	return &FavoriteStore{docs: docs}
}

type favoriteRecord struct {
	UserID  string  `json:"userId"`
	PlaceID string  `json:"placeId"`
	Title   string  `json:"title"`
	Rating  float64 `json:"rating"`
}

func (s *FavoriteStore) List(ctx context.Context, userID string) ([]models.FavoriteEntry, error) {
	docs, err := s.docs.Query(ctx, common.CollectionFavorites, eq("userId", userID))
	if err != nil {
		return nil, err
	}
	return decodeAll[models.FavoriteEntry](docs)
}

// Add creates the favorite unless the user already has one for the place.
// The image reference stays on the device.
func (s *FavoriteStore) Add(ctx context.Context, userID string, e models.FavoriteEntry) error {
	existing, err := s.docs.Query(ctx, common.CollectionFavorites, eq("userId", userID), eq("placeId", e.PlaceID))
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	data, err := body(favoriteRecord{UserID: userID, PlaceID: e.PlaceID, Title: e.Title, Rating: e.Rating})
	if err != nil {
		return err
	}
	_, err = s.docs.Create(ctx, common.CollectionFavorites, data)
	return err
}

// Remove deletes every record of placeID for the user.
func (s *FavoriteStore) Remove(ctx context.Context, userID, placeID string) error {
	docs, err := s.docs.Query(ctx, common.CollectionFavorites, eq("userId", userID), eq("placeId", placeID))
	if err != nil {
		return err
	}
	for _, d := range docs {
		if err := s.docs.Delete(ctx, common.CollectionFavorites, d.ID); err != nil && !errors.Is(err, common.ErrNotFound) {
			return err
		}
	}
	return nil
}
