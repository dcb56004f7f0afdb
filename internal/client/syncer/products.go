package syncer

import (
	"context"

	"github.com/dmitrijs2005/turismap/internal/client/models"
	"github.com/dmitrijs2005/turismap/internal/client/repositories/cache"
)

type ProductsRemote interface {
	ListBySeller(ctx context.Context, sellerID string) ([]models.Product, error)
	Create(ctx context.Context, sellerID, sellerName string, p models.SellerProduct) (models.Product, error)
	Update(ctx context.Context, id string, patch models.ProductPatch) error
	Delete(ctx context.Context, id string) error
}

// Products is a seller's own catalog.
type Products struct {
	sellerID   string
	sellerName string
	remote     ProductsRemote
	cfg        config
	queue      *KeyedQueue
	items      *list[models.Product]
}

func NewProducts(sellerID, sellerName string, remote ProductsRemote, opts ...Option) *Products {
	return &Products{
		sellerID:   sellerID,
		sellerName: sellerName,
		remote:     remote,
		cfg:        newConfig(opts),
		queue:      NewKeyedQueue(),
		items:      newList(func(p models.Product) string { return p.ID }),
	}
}

func (p *Products) cacheKey() string { return p.sellerID + "/products" }

func (p *Products) persist(ctx context.Context) {
	p.cfg.save(ctx, cache.NamespaceSeller, p.cacheKey(), p.items.snapshot())
}

func (p *Products) Restore(ctx context.Context) error {
	var cached []models.Product
	ok, err := p.cfg.load(ctx, cache.NamespaceSeller, p.cacheKey(), &cached)
	if err != nil || !ok {
		return err
	}
	if p.items.len() == 0 {
		p.items.replace(cached)
	}
	return nil
}

func (p *Products) Load(ctx context.Context) error {
	products, err := p.remote.ListBySeller(ctx, p.sellerID)
	if err != nil {
		if p.cfg.clearOnFail {
			p.items.replace(nil)
			p.persist(ctx)
		}
		p.cfg.log.Warn(ctx, "products load failed", "seller", p.sellerID, "error", err)
		return err
	}
	p.items.replace(products)
	p.persist(ctx)
	return nil
}

func (p *Products) Create(ctx context.Context, product models.SellerProduct) (models.Product, error) {
	created, err := p.remote.Create(ctx, p.sellerID, p.sellerName, product)
	if err != nil {
		return models.Product{}, err
	}
	p.items.prepend(created)
	p.persist(ctx)
	p.cfg.log.Info(ctx, "product created", "product", created.ID)
	return created, nil
}

func (p *Products) Update(ctx context.Context, id string, patch models.ProductPatch) error {
	if patch.Empty() {
		return nil
	}
	err := p.queue.Do(ctx, id, func(ctx context.Context) error {
		if err := p.remote.Update(ctx, id, patch); err != nil {
			return err
		}
		stamp := p.cfg.now()
		p.items.update(id, func(old models.Product) models.Product {
			updated := patch.Apply(old)
			updated.UpdatedAt = stamp
			return updated
		})
		return nil
	})
	if err != nil {
		return err
	}
	p.persist(ctx)
	return nil
}

// SetAvailable flips only the available flag.
func (p *Products) SetAvailable(ctx context.Context, id string, available bool) error {
	return p.Update(ctx, id, models.ProductPatch{Available: &available})
}

func (p *Products) Delete(ctx context.Context, id string) error {
	err := p.queue.Do(ctx, id, func(ctx context.Context) error {
		if err := p.remote.Delete(ctx, id); err != nil {
			return err
		}
		p.items.remove(id)
		return nil
	})
	if err != nil {
		return err
	}
	p.persist(ctx)
	return nil
}

func (p *Products) Get(id string) (models.Product, bool) { return p.items.get(id) }

func (p *Products) List() []models.Product { return p.items.snapshot() }
