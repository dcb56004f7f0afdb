package cache

import (
	"context"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

// BoltRepository keeps one bucket per namespace.
type BoltRepository struct {
	db *bbolt.DB
}

func NewBoltRepository(path string) (*BoltRepository, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt cache: %w", err)
	}
	return &BoltRepository{db: db}, nil
}

func (r *BoltRepository) Get(_ context.Context, namespace, key string) ([]byte, error) {
	var value []byte
	err := r.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(namespace))
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			// v is only valid inside the transaction
			value = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get cache[%s/%s]: %w", namespace, key, err)
	}
	return value, nil
}

func (r *BoltRepository) Set(_ context.Context, namespace, key string, value []byte) error {
	err := r.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(namespace))
		if err != nil {
			return err
		}
		return b.Put([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("failed to set cache[%s/%s]: %w", namespace, key, err)
	}
	return nil
}

func (r *BoltRepository) Delete(_ context.Context, namespace, key string) error {
	err := r.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(namespace))
		if b == nil {
			return nil
		}
		return b.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("failed to delete cache[%s/%s]: %w", namespace, key, err)
	}
	return nil
}

func (r *BoltRepository) List(_ context.Context, namespace string) (map[string][]byte, error) {
	result := make(map[string][]byte)
	err := r.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(namespace))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			result[string(k)] = append([]byte(nil), v...)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list cache[%s]: %w", namespace, err)
	}
	return result, nil
}

func (r *BoltRepository) Clear(_ context.Context, namespace string) error {
	err := r.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket([]byte(namespace)) == nil {
			return nil
		}
		return tx.DeleteBucket([]byte(namespace))
	})
	if err != nil {
		return fmt.Errorf("failed to clear cache[%s]: %w", namespace, err)
	}
	return nil
}

func (r *BoltRepository) Close() error {
	return r.db.Close()
}
