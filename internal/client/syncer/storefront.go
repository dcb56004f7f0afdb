package syncer

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/turismap/internal/client/models"
	"github.com/dmitrijs2005/turismap/internal/client/repositories/cache"
)

type StoreRemote interface {
	// Get returns nil when the seller has no storefront yet.
	Get(ctx context.Context, sellerID string) (*models.StoreProfile, error)
	// Save creates the storefront or merges into the existing one, keeping
	// its creation time.
	Save(ctx context.Context, sellerID string, s models.StoreProfile) error
	Update(ctx context.Context, sellerID string, patch models.StorePatch) error
	Watch(ctx context.Context, sellerID string, fn func(*models.StoreProfile)) (func(), error)
}

// Storefront mirrors the seller's store profile.
type Storefront struct {
	sellerID string
	remote   StoreRemote
	cfg      config
	queue    *KeyedQueue

	mu      sync.RWMutex
	profile *models.StoreProfile
	subs    map[*Subscription]struct{}
}

func NewStorefront(sellerID string, remote StoreRemote, opts ...Option) *Storefront {
	return &Storefront{
		sellerID: sellerID,
		remote:   remote,
		cfg:      newConfig(opts),
		queue:    NewKeyedQueue(),
		subs:     make(map[*Subscription]struct{}),
	}
}

func (s *Storefront) cacheKey() string { return s.sellerID + "/store" }

func (s *Storefront) set(ctx context.Context, p *models.StoreProfile) {
	s.mu.Lock()
	s.profile = p
	s.mu.Unlock()
	s.cfg.save(ctx, cache.NamespaceSeller, s.cacheKey(), p)
}

func (s *Storefront) Restore(ctx context.Context) error {
	var cached *models.StoreProfile
	ok, err := s.cfg.load(ctx, cache.NamespaceSeller, s.cacheKey(), &cached)
	if err != nil || !ok {
		return err
	}
	s.mu.Lock()
	if s.profile == nil {
		s.profile = cached
	}
	s.mu.Unlock()
	return nil
}

// Profile returns the last known storefront.
func (s *Storefront) Profile() (models.StoreProfile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return models.StoreProfile{}, false
	}
	return *s.profile, true
}

func (s *Storefront) Load(ctx context.Context) error {
	return s.queue.Do(ctx, s.sellerID, func(ctx context.Context) error {
		p, err := s.remote.Get(ctx, s.sellerID)
		if err != nil {
			s.cfg.log.Warn(ctx, "storefront load failed", "seller", s.sellerID, "error", err)
			return err
		}
		s.set(ctx, p)
		return nil
	})
}

func (s *Storefront) Save(ctx context.Context, profile models.StoreProfile) error {
	profile.SellerID = s.sellerID
	return s.queue.Do(ctx, s.sellerID, func(ctx context.Context) error {
		if err := s.remote.Save(ctx, s.sellerID, profile); err != nil {
			return err
		}
		s.mu.RLock()
		if s.profile != nil && !s.profile.CreatedAt.IsZero() {
			profile.CreatedAt = s.profile.CreatedAt
		} else {
			profile.CreatedAt = s.cfg.now()
		}
		s.mu.RUnlock()
		profile.UpdatedAt = s.cfg.now()
		s.set(ctx, &profile)
		return nil
	})
}

func (s *Storefront) Update(ctx context.Context, patch models.StorePatch) error {
	return s.queue.Do(ctx, s.sellerID, func(ctx context.Context) error {
		if err := s.remote.Update(ctx, s.sellerID, patch); err != nil {
			return err
		}
		s.mu.RLock()
		var cur models.StoreProfile
		if s.profile != nil {
			cur = *s.profile
		}
		s.mu.RUnlock()

		next := patch.Apply(cur)
		next.SellerID = s.sellerID
		next.UpdatedAt = s.cfg.now()
		s.set(ctx, &next)
		return nil
	})
}

func (s *Storefront) SetPix(ctx context.Context, key string, kt models.PixKeyType) error {
	return s.Update(ctx, models.StorePatch{PixKey: &key, PixKeyType: &kt})
}

func (s *Storefront) SetLogo(ctx context.Context, ref string) error {
	return s.Update(ctx, models.StorePatch{StoreLogo: &ref})
}

// Watch keeps the local profile in step with remote changes until the
// returned subscription is released. onChange, if set, sees every update;
// nil means the storefront was deleted.
func (s *Storefront) Watch(ctx context.Context, onChange func(*models.StoreProfile)) (*Subscription, error) {
	release, err := s.remote.Watch(ctx, s.sellerID, func(p *models.StoreProfile) {
		s.set(context.Background(), p)
		if onChange != nil {
			onChange(p)
		}
	})
	if err != nil {
		return nil, err
	}

	sub := newSubscription(ctx, release, func(sub *Subscription) {
		s.mu.Lock()
		delete(s.subs, sub)
		s.mu.Unlock()
	})

	s.mu.Lock()
	select {
	case <-sub.Done():
		// already released by its context
	default:
		s.subs[sub] = struct{}{}
	}
	s.mu.Unlock()

	return sub, nil
}

// Close releases every open subscription.
func (s *Storefront) Close() {
	s.mu.Lock()
	subs := make([]*Subscription, 0, len(s.subs))
	for sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub.Close()
	}
}

// Subscriptions returns the number of open subscriptions.
func (s *Storefront) Subscriptions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}
