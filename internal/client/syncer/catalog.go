package syncer

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/turismap/internal/client/models"
	"github.com/dmitrijs2005/turismap/internal/client/repositories/cache"
)

// CatalogRemote is the read-only product view offered to tourists.
type CatalogRemote interface {
	All(ctx context.Context) ([]models.Product, error)
	Available(ctx context.Context) ([]models.Product, error)
	ByPlace(ctx context.Context, placeID string) ([]models.Product, error)
	// Get returns nil when the product does not exist.
	Get(ctx context.Context, id string) (*models.Product, error)
}

// Catalog holds the last product listing fetched by a tourist.
type Catalog struct {
	remote CatalogRemote
	cfg    config
	items  *list[models.Product]

	mu    sync.Mutex
	scope string
}

func NewCatalog(remote CatalogRemote, opts ...Option) *Catalog {
	return &Catalog{
		remote: remote,
		cfg:    newConfig(opts),
		items:  newList(func(p models.Product) string { return p.ID }),
	}
}

type catalogSnapshot struct {
	Scope    string           `json:"scope"`
	Products []models.Product `json:"products"`
}

func (c *Catalog) Restore(ctx context.Context) error {
	var snap catalogSnapshot
	ok, err := c.cfg.load(ctx, cache.NamespaceCatalog, "last", &snap)
	if err != nil || !ok {
		return err
	}
	if c.items.len() == 0 {
		c.items.replace(snap.Products)
		c.mu.Lock()
		c.scope = snap.Scope
		c.mu.Unlock()
	}
	return nil
}

func (c *Catalog) fill(ctx context.Context, scope string, fetch func(context.Context) ([]models.Product, error)) error {
	products, err := fetch(ctx)
	if err != nil {
		c.cfg.log.Warn(ctx, "catalog load failed", "scope", scope, "error", err)
		if c.cfg.clearOnFail {
			c.items.replace(nil)
		}
		return err
	}
	c.items.replace(products)

	c.mu.Lock()
	c.scope = scope
	c.mu.Unlock()

	c.cfg.save(ctx, cache.NamespaceCatalog, "last", catalogSnapshot{Scope: scope, Products: products})
	return nil
}

func (c *Catalog) LoadAll(ctx context.Context) error {
	return c.fill(ctx, "all", c.remote.All)
}

func (c *Catalog) LoadAvailable(ctx context.Context) error {
	return c.fill(ctx, "available", c.remote.Available)
}

// LoadByPlace lists available products linked to placeID.
func (c *Catalog) LoadByPlace(ctx context.Context, placeID string) error {
	return c.fill(ctx, "place:"+placeID, func(ctx context.Context) ([]models.Product, error) {
		return c.remote.ByPlace(ctx, placeID)
	})
}

// Get fetches one product from the server; nil means it does not exist.
func (c *Catalog) Get(ctx context.Context, id string) (*models.Product, error) {
	return c.remote.Get(ctx, id)
}

func (c *Catalog) List() []models.Product { return c.items.snapshot() }

// Scope describes the last successful listing: "all", "available" or
// "place:<id>".
func (c *Catalog) Scope() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scope
}
