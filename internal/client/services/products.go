package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/turismap/internal/client/client"
	"github.com/dmitrijs2005/turismap/internal/client/models"
	"github.com/dmitrijs2005/turismap/internal/common"
	"github.com/dmitrijs2005/turismap/internal/rpc"
)

// ProductStore serves both the seller's own catalog and the read-only
// tourist views over the products collection.
type ProductStore struct {
	docs client.Documents
}

func NewProductStore(docs client.Documents) *ProductStore {
	return &ProductStore{docs: docs}
}

func (s *ProductStore) query(ctx context.Context, filters ...rpc.Filter) ([]models.Product, error) {
	docs, err := s.docs.Query(ctx, common.CollectionProducts, filters...)
	if err != nil {
		return nil, err
	}
	return decodeAll[models.Product](docs)
}

func (s *ProductStore) ListBySeller(ctx context.Context, sellerID string) ([]models.Product, error) {
	return s.query(ctx, eq("sellerId", sellerID))
}

func (s *ProductStore) Create(ctx context.Context, sellerID, sellerName string, sp models.SellerProduct) (models.Product, error) {
	data, err := body(models.Product{SellerProduct: sp, SellerID: sellerID, SellerName: sellerName})
	if err != nil {
		return models.Product{}, err
	}
	id, err := s.docs.Create(ctx, common.CollectionProducts, data)
	if err != nil {
		return models.Product{}, err
	}

	created, err := s.Get(ctx, id)
	if err != nil {
		return models.Product{}, err
	}
	if created == nil {
		return models.Product{}, fmt.Errorf("product %s vanished after create: %w", id, common.ErrNotFound)
	}
	return *created, nil
}

func (s *ProductStore) Update(ctx context.Context, id string, patch models.ProductPatch) error {
	return s.docs.Update(ctx, common.CollectionProducts, id, productPatchData(patch))
}

func (s *ProductStore) Delete(ctx context.Context, id string) error {
	return s.docs.Delete(ctx, common.CollectionProducts, id)
}

func (s *ProductStore) All(ctx context.Context) ([]models.Product, error) {
	return s.query(ctx)
}

func (s *ProductStore) Available(ctx context.Context) ([]models.Product, error) {
	return s.query(ctx, eq("available", true))
}

// ByPlace lists the available products linked to placeID.
func (s *ProductStore) ByPlace(ctx context.Context, placeID string) ([]models.Product, error) {
	return s.query(ctx, contains("placeIds", placeID), eq("available", true))
}

func (s *ProductStore) Get(ctx context.Context, id string) (*models.Product, error) {
	d, err := s.docs.Get(ctx, common.CollectionProducts, id)
	if err != nil || d == nil {
		return nil, err
	}
	var p models.Product
	if err := decode(*d, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func productPatchData(p models.ProductPatch) map[string]any {
	m := map[string]any{}
	if p.Title != nil {
		m["title"] = *p.Title
	}
	if p.Price != nil {
		m["price"] = *p.Price
	}
	if p.Description != nil {
		m["description"] = *p.Description
	}
	if p.ImageRef != nil {
		m["image"] = *p.ImageRef
	}
	if p.Available != nil {
		m["available"] = *p.Available
	}
	if p.PlaceIDs != nil {
		m["placeIds"] = p.PlaceIDs
	}
	return m
}
