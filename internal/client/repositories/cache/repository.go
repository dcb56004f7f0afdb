// Package cache persists client state between runs. Values are opaque
// bytes grouped by namespace; the cache is never authoritative and is
// rebuilt from the server on every load.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
)

// Namespaces used by the synchronizers. Keys inside a namespace are user ids.
const (
	NamespaceFavorites = "turismap-favorites"
	NamespacePlans     = "turismap-plans"
	NamespaceSeller    = "turismap-seller"
	NamespaceAuth      = "turismap-auth"
	NamespaceCatalog   = "turismap-catalog"
	NamespacePlaces    = "turismap-places"
)

type Repository interface {
	// Get returns (nil, nil) when the key is absent.
	Get(ctx context.Context, namespace, key string) ([]byte, error)
	Set(ctx context.Context, namespace, key string, value []byte) error
	Delete(ctx context.Context, namespace, key string) error
	List(ctx context.Context, namespace string) (map[string][]byte, error)
	Clear(ctx context.Context, namespace string) error
	Close() error
}

// LoadJSON decodes the value stored under namespace/key into v.
// It reports false when nothing is stored.
func LoadJSON(ctx context.Context, r Repository, namespace, key string, v any) (bool, error) {
	b, err := r.Get(ctx, namespace, key)
	if err != nil {
		return false, err
	}
	if b == nil {
		return false, nil
	}
	if err := json.Unmarshal(b, v); err != nil {
		return false, fmt.Errorf("decode cache[%s/%s]: %w", namespace, key, err)
	}
	return true, nil
}

// SaveJSON stores v encoded as JSON under namespace/key.
func SaveJSON(ctx context.Context, r Repository, namespace, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode cache[%s/%s]: %w", namespace, key, err)
	}
	return r.Set(ctx, namespace, key, b)
}
