// Package session holds everything bound to one signed-in user. A Session
// is created on sign in and closed on sign out; nothing user specific lives
// outside it.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrijs2005/turismap/internal/client/client"
	"github.com/dmitrijs2005/turismap/internal/client/models"
	"github.com/dmitrijs2005/turismap/internal/client/repositories/cache"
	"github.com/dmitrijs2005/turismap/internal/client/services"
	"github.com/dmitrijs2005/turismap/internal/client/syncer"
	"github.com/dmitrijs2005/turismap/internal/logging"
)

// ErrNoStorefront is returned by storefront operations of a session that
// has no storefront, i.e. a tourist session.
var ErrNoStorefront = errors.New("session has no storefront")

// Deps are the process-wide collaborators a session is built from.
type Deps struct {
	Docs  client.Documents
	Media *services.MediaService
	Cache cache.Repository
	Log   logging.Logger

	// Options are appended to the defaults of every synchronizer.
	Options []syncer.Option
}

// Session is the per-user dependency container. Tourist sessions carry
// favorites and plans, seller sessions carry products and the storefront;
// both can browse the places and the product catalog.
type Session struct {
	Profile models.Profile

	Favorites  *syncer.Favorites
	Plans      *syncer.Plans
	Products   *syncer.Products
	Storefront *syncer.Storefront
	Catalog    *syncer.Catalog
	Places     *syncer.Places
	Media      *services.MediaService

	log    logging.Logger
	ctx    context.Context
	cancel context.CancelFunc

	closeOnce sync.Once
	closeErr  error
}

// Open builds the synchronizers for p and fills them from the local cache.
// It makes no remote calls; use Refresh for that.
func Open(ctx context.Context, deps Deps, p models.Profile) (*Session, error) {
	log := deps.Log
	if log == nil {
		log = logging.Nop()
	}
	log = log.With("user", p.ID, "role", string(p.Role))

	opts := []syncer.Option{syncer.WithLogger(log)}
	if deps.Cache != nil {
		opts = append(opts, syncer.WithCache(deps.Cache))
	}
	opts = append(opts, syncer.WithErrorHandler(func(op, key string, err error) {
		log.Error(context.Background(), "background sync failed", "op", op, "key", key, "error", err)
	}))
	opts = append(opts, deps.Options...)

	sctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		Profile: p,
		Media:   deps.Media,
		log:     log,
		ctx:     sctx,
		cancel:  cancel,
	}

	products := services.NewProductStore(deps.Docs)
	s.Catalog = syncer.NewCatalog(products, opts...)
	s.Places = syncer.NewPlaces(services.NewPlaceStore(deps.Docs), opts...)

	switch p.Role {
	case models.RoleTourist:
		s.Favorites = syncer.NewFavorites(p.ID, services.NewFavoriteStore(deps.Docs), opts...)
		s.Plans = syncer.NewPlans(p.ID, services.NewPlanStore(deps.Docs), opts...)
	case models.RoleSeller:
		s.Products = syncer.NewProducts(p.ID, p.Name, products, opts...)
		s.Storefront = syncer.NewStorefront(p.ID, services.NewSellerStore(deps.Docs, log), opts...)
	default:
		cancel()
		return nil, errors.New("session: unknown role " + string(p.Role))
	}

	if err := s.restore(ctx); err != nil {
		log.Warn(ctx, "local cache not restored", "error", err)
	}
	return s, nil
}

func (s *Session) restore(ctx context.Context) error {
	var errs []error
	add := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}
	add(s.Catalog.Restore(ctx))
	add(s.Places.Restore(ctx))
	if s.Favorites != nil {
		add(s.Favorites.Restore(ctx))
		add(s.Plans.Restore(ctx))
	}
	if s.Products != nil {
		add(s.Products.Restore(ctx))
		add(s.Storefront.Restore(ctx))
	}
	return errors.Join(errs...)
}

// Refresh loads every synchronizer of the session from the server. All
// loads are attempted; their errors are joined.
func (s *Session) Refresh(ctx context.Context) error {
	var errs []error
	add := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}
	add(s.Places.Load(ctx))
	if s.Favorites != nil {
		add(s.Favorites.Load(ctx))
		add(s.Plans.Load(ctx))
	}
	if s.Products != nil {
		add(s.Products.Load(ctx))
		add(s.Storefront.Load(ctx))
	}
	return errors.Join(errs...)
}

// WatchStore subscribes to remote storefront changes for the lifetime of
// the session. Tourist sessions get ErrNoStorefront.
func (s *Session) WatchStore(onChange func(*models.StoreProfile)) (*syncer.Subscription, error) {
	if s.Storefront == nil {
		return nil, ErrNoStorefront
	}
	return s.Storefront.Watch(s.ctx, onChange)
}

// Context is cancelled when the session closes.
func (s *Session) Context() context.Context { return s.ctx }

// Close commits pending favorite removals and releases subscriptions. The
// local cache is kept. Close is safe to call more than once.
func (s *Session) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		if s.Favorites != nil {
			s.closeErr = s.Favorites.Close(ctx)
		}
		if s.Storefront != nil {
			s.Storefront.Close()
		}
		s.cancel()
		s.log.Info(ctx, "session closed")
	})
	return s.closeErr
}
