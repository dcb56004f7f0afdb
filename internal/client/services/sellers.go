package services

import (
	"context"

	"github.com/dmitrijs2005/turismap/internal/client/client"
	"github.com/dmitrijs2005/turismap/internal/client/models"
	"github.com/dmitrijs2005/turismap/internal/common"
	"github.com/dmitrijs2005/turismap/internal/logging"
	"github.com/dmitrijs2005/turismap/internal/rpc"
)

// SellerStore keeps storefronts in the sellers collection under the
// seller's user id.
type SellerStore struct {
	docs client.Documents
	log  logging.Logger
}

func NewSellerStore(docs client.Documents, log logging.Logger) *SellerStore {
	if log == nil {
		log = logging.Nop()
	}
	return &SellerStore{docs: docs, log: log}
}

func (s *SellerStore) Get(ctx context.Context, sellerID string) (*models.StoreProfile, error) {
	d, err := s.docs.Get(ctx, common.CollectionSellers, sellerID)
	if err != nil || d == nil {
		return nil, err
	}
	var p models.StoreProfile
	if err := decode(*d, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Save upserts the storefront with merge semantics. The server keeps the
// original createdAt.
func (s *SellerStore) Save(ctx context.Context, sellerID string, p models.StoreProfile) error {
	data, err := body(p)
	if err != nil {
		return err
	}
	data["userId"] = sellerID
	return s.docs.Put(ctx, common.CollectionSellers, sellerID, data, true)
}

func (s *SellerStore) Update(ctx context.Context, sellerID string, patch models.StorePatch) error {
	return s.docs.Update(ctx, common.CollectionSellers, sellerID, storePatchData(patch))
}

// Watch streams storefront snapshots to fn until the returned func is
// called. Snapshots that cannot be decoded are logged and skipped.
func (s *SellerStore) Watch(ctx context.Context, sellerID string, fn func(*models.StoreProfile)) (func(), error) {
	return s.docs.Subscribe(ctx, common.CollectionSellers, sellerID, func(d *rpc.Document) {
		if d == nil {
			fn(nil)
			return
		}
		var p models.StoreProfile
		if err := decode(*d, &p); err != nil {
			s.log.Warn(ctx, "bad storefront snapshot", "seller", sellerID, "error", err)
			return
		}
		fn(&p)
	})
}

func storePatchData(p models.StorePatch) map[string]any {
	m := map[string]any{}
	if p.StoreName != nil {
		m["storeName"] = *p.StoreName
	}
	if p.StoreOwner != nil {
		m["storeOwner"] = *p.StoreOwner
	}
	if p.StoreDescription != nil {
		m["storeDescription"] = *p.StoreDescription
	}
	if p.StoreLogo != nil {
		m["storeLogo"] = *p.StoreLogo
	}
	if p.PixKey != nil {
		m["pixKey"] = *p.PixKey
	}
	if p.PixKeyType != nil {
		m["pixKeyType"] = string(*p.PixKeyType)
	}
	return m
}
