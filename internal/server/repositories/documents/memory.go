package documents

import (
	"context"
	"sort"
	"sync"

	"github.com/dmitrijs2005/turismap/internal/common"
	"github.com/dmitrijs2005/turismap/internal/server/models"
)

type MemoryRepository struct {
	mu          sync.RWMutex
	collections map[string]map[string]models.Document
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{collections: make(map[string]map[string]models.Document)}
}

func (r *MemoryRepository) collection(name string) map[string]models.Document {
	c, ok := r.collections[name]
	if !ok {
		c = make(map[string]models.Document)
		r.collections[name] = c
	}
	return c
}

func (r *MemoryRepository) Insert(ctx context.Context, doc models.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := r.collection(doc.Collection)
	if _, ok := c[doc.ID]; ok {
		return common.ErrAlreadyExists
	}
	c[doc.ID] = doc.Clone()
	return nil
}

func (r *MemoryRepository) Upsert(ctx context.Context, doc models.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := r.collection(doc.Collection)
	if cur, ok := c[doc.ID]; ok {
		doc.CreatedAt = cur.CreatedAt
	}
	c[doc.ID] = doc.Clone()
	return nil
}

func (r *MemoryRepository) Get(ctx context.Context, collection, id string) (*models.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.collections[collection][id]
	if !ok {
		return nil, common.ErrNotFound
	}
	d = d.Clone()
	return &d, nil
}

func (r *MemoryRepository) Query(ctx context.Context, collection string, filters []models.Filter) ([]models.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.Document
	for _, d := range r.collections[collection] {
		if models.MatchAll(d.Data, filters) {
			out = append(out, d.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryRepository) Replace(ctx context.Context, doc models.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := r.collections[doc.Collection]
	cur, ok := c[doc.ID]
	if !ok {
		return common.ErrNotFound
	}
	cur.Data = models.CloneData(doc.Data)
	cur.UpdatedAt = doc.UpdatedAt
	c[doc.ID] = cur
	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, collection, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := r.collections[collection]
	if _, ok := c[id]; !ok {
		return common.ErrNotFound
	}
	delete(c, id)
	return nil
}
