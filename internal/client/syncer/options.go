// Package syncer keeps the client's local view of favorites, plans and
// seller data in step with the remote document store.
//
// Favorites are optimistic: changes show up locally at once and are pushed
// in the background, with removals held back for a grace window so they can
// be undone. Plans, products and the storefront are not: local state only
// changes after the remote call succeeds. In every synchronizer, remote
// operations that target the same record run in submission order.
package syncer

import (
	"context"
	"time"

	"github.com/dmitrijs2005/turismap/internal/client/repositories/cache"
	"github.com/dmitrijs2005/turismap/internal/logging"
)

// DefaultGraceWindow is how long a removed favorite can still be restored.
const DefaultGraceWindow = 4 * time.Second

// config is shared by every synchronizer constructor.
type config struct {
	cache         cache.Repository
	log           logging.Logger
	now           func() time.Time
	after         AfterFunc
	grace         time.Duration
	clearOnFail   bool
	remoteTimeout time.Duration
	onError       func(op, key string, err error)
}

func newConfig(opts []Option) config {
	c := config{
		log:           logging.Nop(),
		now:           time.Now,
		after:         realAfterFunc,
		grace:         DefaultGraceWindow,
		remoteTimeout: 15 * time.Second,
		onError:       func(string, string, error) {},
	}
	for _, o := range opts {
		o(&c)
	}
	return c
}

type Option func(*config)

// WithCache persists local state so it survives restarts.
func WithCache(r cache.Repository) Option {
	return func(c *config) { c.cache = r }
}

func WithLogger(l logging.Logger) Option {
	return func(c *config) { c.log = l }
}

// WithClock replaces time.Now and time.AfterFunc.
func WithClock(now func() time.Time, after AfterFunc) Option {
	return func(c *config) {
		if now != nil {
			c.now = now
		}
		if after != nil {
			c.after = after
		}
	}
}

// WithGraceWindow sets how long a favorite removal stays undoable.
func WithGraceWindow(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.grace = d
		}
	}
}

// WithClearOnLoadFailure makes a failed Load empty the local list instead
// of keeping the last synced one.
func WithClearOnLoadFailure() Option {
	return func(c *config) { c.clearOnFail = true }
}

// WithRemoteTimeout bounds remote calls made in the background.
func WithRemoteTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.remoteTimeout = d
		}
	}
}

// WithErrorHandler receives failures of background operations, which have
// no caller to return them to.
func WithErrorHandler(fn func(op, key string, err error)) Option {
	return func(c *config) {
		if fn != nil {
			c.onError = fn
		}
	}
}

func (c config) save(ctx context.Context, namespace, key string, v any) {
	if c.cache == nil {
		return
	}
	if err := cache.SaveJSON(ctx, c.cache, namespace, key, v); err != nil {
		c.log.Warn(ctx, "cache write failed", "namespace", namespace, "error", err)
	}
}

func (c config) load(ctx context.Context, namespace, key string, v any) (bool, error) {
	if c.cache == nil {
		return false, nil
	}
	return cache.LoadJSON(ctx, c.cache, namespace, key, v)
}
