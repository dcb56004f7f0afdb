package repomanager

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/turismap/internal/server/repositories/documents"
	"github.com/dmitrijs2005/turismap/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/turismap/internal/server/repositories/users"
)

// MemoryRepositoryManager keeps everything in process memory. Data is lost
// on restart.
type MemoryRepositoryManager struct {
	mu    sync.Mutex
	repos Repositories
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{repos: Repositories{
		Users:         users.NewMemoryRepository(),
		RefreshTokens: refreshtokens.NewMemoryRepository(),
		Documents:     documents.NewMemoryRepository(),
	}}
}

func (m *MemoryRepositoryManager) Repositories() Repositories { return m.repos }

func (m *MemoryRepositoryManager) InTx(ctx context.Context, fn func(ctx context.Context, r Repositories) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx, m.repos)
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context) error { return nil }
func (m *MemoryRepositoryManager) Ping(context.Context) error          { return nil }
func (m *MemoryRepositoryManager) Close(context.Context) error         { return nil }
