package syncer

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/dmitrijs2005/turismap/internal/client/models"
	"github.com/dmitrijs2005/turismap/internal/common"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProductsRemote struct {
	mu       sync.Mutex
	products map[string]models.Product
	patches  []models.ProductPatch
	next     int
	err      error
}

func newFakeProductsRemote() *fakeProductsRemote {
	return &fakeProductsRemote{products: map[string]models.Product{}}
}

func (r *fakeProductsRemote) ListBySeller(_ context.Context, sellerID string) ([]models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	var out []models.Product
	for _, p := range r.products {
		if p.SellerID == sellerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeProductsRemote) Create(_ context.Context, sellerID, sellerName string, sp models.SellerProduct) (models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return models.Product{}, r.err
	}
	r.next++
	sp.ID = fmt.Sprintf("prod-%d", r.next)
	p := models.Product{SellerProduct: sp, SellerID: sellerID, SellerName: sellerName}
	r.products[p.ID] = p
	return p, nil
}

func (r *fakeProductsRemote) Update(_ context.Context, id string, patch models.ProductPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patches = append(r.patches, patch)
	if r.err != nil {
		return r.err
	}
	p, ok := r.products[id]
	if !ok {
		return common.ErrNotFound
	}
	r.products[id] = patch.Apply(p)
	return nil
}

func (r *fakeProductsRemote) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if _, ok := r.products[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.products, id)
	return nil
}

func sampleProduct() models.SellerProduct {
	return models.SellerProduct{
		Title:       "Acarajé",
		Price:       12.5,
		Description: "Bahian street food",
		Available:   true,
		PlaceIDs:    []string{"pelourinho"},
	}
}

func TestProducts_CreateCarriesSeller(t *testing.T) {
	p := NewProducts("s1", "Dona Maria", newFakeProductsRemote())
	created, err := p.Create(context.Background(), sampleProduct())
	require.NoError(t, err)

	assert.Equal(t, "s1", created.SellerID)
	assert.Equal(t, "Dona Maria", created.SellerName)
	got, ok := p.Get(created.ID)
	require.True(t, ok)
	assert.Equal(t, created, got)
}

func TestProducts_SetAvailableTouchesOnlyFlag(t *testing.T) {
	remote := newFakeProductsRemote()
	p := NewProducts("s1", "Dona Maria", remote)
	ctx := context.Background()

	created, err := p.Create(ctx, sampleProduct())
	require.NoError(t, err)
	require.NoError(t, p.SetAvailable(ctx, created.ID, false))

	got, ok := p.Get(created.ID)
	require.True(t, ok)
	assert.False(t, got.Available)

	want := created
	want.Available = false
	if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(models.Product{}, "UpdatedAt")); diff != "" {
		t.Errorf("product mismatch (-want +got):\n%s", diff)
	}

	require.Len(t, remote.patches, 1)
	off := false
	assert.Equal(t, models.ProductPatch{Available: &off}, remote.patches[0])
}

func TestProducts_UpdateFailureKeepsLocal(t *testing.T) {
	remote := newFakeProductsRemote()
	p := NewProducts("s1", "Dona Maria", remote)
	ctx := context.Background()
	created, err := p.Create(ctx, sampleProduct())
	require.NoError(t, err)

	remote.err = common.ErrRemoteUnavailable
	require.ErrorIs(t, p.SetAvailable(ctx, created.ID, false), common.ErrRemoteUnavailable)

	got, _ := p.Get(created.ID)
	assert.True(t, got.Available)
}

func TestProducts_DeleteAndLoad(t *testing.T) {
	remote := newFakeProductsRemote()
	p := NewProducts("s1", "Dona Maria", remote)
	ctx := context.Background()

	a, err := p.Create(ctx, sampleProduct())
	require.NoError(t, err)
	b, err := p.Create(ctx, sampleProduct())
	require.NoError(t, err)
	require.NoError(t, p.Delete(ctx, a.ID))

	fresh := NewProducts("s1", "Dona Maria", remote)
	require.NoError(t, fresh.Load(ctx))
	list := fresh.List()
	require.Len(t, list, 1)
	assert.Equal(t, b.ID, list[0].ID)

	assert.ErrorIs(t, p.Delete(ctx, a.ID), common.ErrNotFound)
}

func TestProducts_LoadFailure(t *testing.T) {
	remote := newFakeProductsRemote()
	p := NewProducts("s1", "Dona Maria", remote, WithClearOnLoadFailure())
	ctx := context.Background()
	_, err := p.Create(ctx, sampleProduct())
	require.NoError(t, err)

	remote.err = common.ErrRemoteUnavailable
	require.ErrorIs(t, p.Load(ctx), common.ErrRemoteUnavailable)
	assert.Empty(t, p.List())
}

func TestProducts_PersistAndRestore(t *testing.T) {
	store := newMemCache()
	p := NewProducts("s1", "Dona Maria", newFakeProductsRemote(), WithCache(store))
	ctx := context.Background()
	created, err := p.Create(ctx, sampleProduct())
	require.NoError(t, err)

	again := NewProducts("s1", "Dona Maria", newFakeProductsRemote(), WithCache(store))
	require.NoError(t, again.Restore(ctx))
	_, ok := again.Get(created.ID)
	assert.True(t, ok)
}
