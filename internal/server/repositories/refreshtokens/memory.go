package refreshtokens

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/turismap/internal/common"
	"github.com/dmitrijs2005/turismap/internal/server/models"
)

type MemoryRepository struct {
	mu     sync.Mutex
	tokens map[string]models.RefreshToken
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{tokens: make(map[string]models.RefreshToken)}
}

func (r *MemoryRepository) Create(ctx context.Context, userID string, token string, validity time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	r.tokens[digest(token)] = models.RefreshToken{UserID: userID, ExpiresAt: now.Add(validity), CreatedAt: now}
	return nil
}

func (r *MemoryRepository) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tokens[digest(token)]
	if !ok {
		return nil, common.ErrNotFound
	}
	t.Token = token
	return &t, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := digest(token)
	if _, ok := r.tokens[key]; !ok {
		return common.ErrNotFound
	}
	delete(r.tokens, key)
	return nil
}
