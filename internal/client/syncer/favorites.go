package syncer

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrijs2005/turismap/internal/client/models"
	"github.com/dmitrijs2005/turismap/internal/client/repositories/cache"
)

// FavoritesRemote is the server side of the favorites list.
type FavoritesRemote interface {
	List(ctx context.Context, userID string) ([]models.FavoriteEntry, error)
	Add(ctx context.Context, userID string, e models.FavoriteEntry) error
	// Remove deletes every remote record of placeID; deleting an absent
	// favorite is not an error.
	Remove(ctx context.Context, userID, placeID string) error
}

type pendingRemoval struct {
	models.PendingRemoval
	seq uint64
}

// Favorites is the optimistic favorites list of one user.
type Favorites struct {
	userID string
	remote FavoritesRemote
	cfg    config
	queue  *KeyedQueue
	timers *Deferrer

	persistMu sync.Mutex
	commits   sync.WaitGroup

	mu       sync.Mutex
	entries  []models.FavoriteEntry
	inflight map[string]struct{}
	pending  map[string]pendingRemoval
	order    []string
	seq      uint64
	closed   bool
}

func NewFavorites(userID string, remote FavoritesRemote, opts ...Option) *Favorites {
	cfg := newConfig(opts)
	return &Favorites{
		userID:   userID,
		remote:   remote,
		cfg:      cfg,
		queue:    NewKeyedQueue(),
		timers:   NewDeferrer(cfg.after),
		inflight: make(map[string]struct{}),
		pending:  make(map[string]pendingRemoval),
	}
}

func (f *Favorites) indexLocked(placeID string) int {
	for i, e := range f.entries {
		if e.PlaceID == placeID {
			return i
		}
	}
	return -1
}

func (f *Favorites) removeLocked(placeID string) (models.FavoriteEntry, bool) {
	i := f.indexLocked(placeID)
	if i < 0 {
		return models.FavoriteEntry{}, false
	}
	e := f.entries[i]
	f.entries = append(f.entries[:i:i], f.entries[i+1:]...)
	return e, true
}

func (f *Favorites) prependLocked(e models.FavoriteEntry) {
	if f.indexLocked(e.PlaceID) >= 0 {
		return
	}
	f.entries = append([]models.FavoriteEntry{e}, f.entries...)
}

func (f *Favorites) dropPendingLocked(placeID string) {
	delete(f.pending, placeID)
	for i, k := range f.order {
		if k == placeID {
			f.order = append(f.order[:i:i], f.order[i+1:]...)
			break
		}
	}
}

// persist writes the visible list to the cache. Writers are serialized so
// the last write always carries the latest state.
func (f *Favorites) persist(ctx context.Context) {
	f.persistMu.Lock()
	defer f.persistMu.Unlock()
	f.cfg.save(ctx, cache.NamespaceFavorites, f.userID, f.Entries())
}

// Restore fills an empty list from the cache.
func (f *Favorites) Restore(ctx context.Context) error {
	var cached []models.FavoriteEntry
	ok, err := f.cfg.load(ctx, cache.NamespaceFavorites, f.userID, &cached)
	if err != nil || !ok {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.entries) == 0 {
		f.entries = dedupe(cached)
	}
	return nil
}

func dedupe(in []models.FavoriteEntry) []models.FavoriteEntry {
	seen := make(map[string]struct{}, len(in))
	out := make([]models.FavoriteEntry, 0, len(in))
	for _, e := range in {
		if _, ok := seen[e.PlaceID]; ok {
			continue
		}
		seen[e.PlaceID] = struct{}{}
		out = append(out, e)
	}
	return out
}

// Load replaces the local list with the remote one. Favorites whose removal
// is pending stay hidden and favorites whose creation is still in flight
// stay visible. On failure the previous list is kept, unless the
// synchronizer was built WithClearOnLoadFailure.
func (f *Favorites) Load(ctx context.Context) error {
	remote, err := f.remote.List(ctx, f.userID)
	if err != nil {
		if f.cfg.clearOnFail {
			f.mu.Lock()
			f.entries = nil
			f.mu.Unlock()
			f.persist(ctx)
		}
		f.cfg.log.Warn(ctx, "favorites load failed", "user", f.userID, "error", err)
		return err
	}

	f.mu.Lock()
	next := make([]models.FavoriteEntry, 0, len(remote))
	for _, e := range dedupe(remote) {
		if _, hidden := f.pending[e.PlaceID]; hidden {
			continue
		}
		// the remote never stores images, keep the one we have
		if i := f.indexLocked(e.PlaceID); i >= 0 && e.ImageRef == "" {
			e.ImageRef = f.entries[i].ImageRef
		}
		next = append(next, e)
	}
	for _, e := range f.entries {
		if _, ok := f.inflight[e.PlaceID]; !ok {
			continue
		}
		if !containsPlace(next, e.PlaceID) {
			next = append(next, e)
		}
	}
	f.entries = next
	f.mu.Unlock()

	f.persist(ctx)
	return nil
}

func containsPlace(entries []models.FavoriteEntry, placeID string) bool {
	for _, e := range entries {
		if e.PlaceID == placeID {
			return true
		}
	}
	return false
}

// IsFavorite reports whether placeID is in the visible list.
func (f *Favorites) IsFavorite(placeID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.indexLocked(placeID) >= 0
}

// Entries returns a copy of the visible list, head first.
func (f *Favorites) Entries() []models.FavoriteEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.FavoriteEntry(nil), f.entries...)
}

// Pending returns the removals still inside their grace window, oldest
// first.
func (f *Favorites) Pending() []models.PendingRemoval {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.PendingRemoval, 0, len(f.order))
	for _, k := range f.order {
		out = append(out, f.pending[k].PendingRemoval)
	}
	return out
}

// cancelTimerLocked stops the deferred delete of placeID if it has not
// started yet.
func (f *Favorites) cancelTimerLocked(placeID string) bool {
	if !f.timers.Cancel(placeID) {
		return false
	}
	f.commits.Done()
	return true
}

// restoreLocked cancels the pending removal of placeID and puts the entry
// back at the head. It fails once the remote delete has started.
func (f *Favorites) restoreLocked(placeID string) bool {
	pr, ok := f.pending[placeID]
	if !ok || !f.cancelTimerLocked(placeID) {
		return false
	}
	f.dropPendingLocked(placeID)
	f.prependLocked(pr.Entry)
	return true
}

// Add appends e locally and creates it remotely. A failed remote create
// takes the entry back out. Adding a favorite whose removal is still
// undoable just undoes the removal.
func (f *Favorites) Add(ctx context.Context, e models.FavoriteEntry) error {
	defer f.persist(ctx)

	err := Optimistic(
		func() bool {
			f.mu.Lock()
			defer f.mu.Unlock()
			if f.restoreLocked(e.PlaceID) {
				f.cfg.log.Debug(ctx, "favorite removal cancelled by add", "place", e.PlaceID)
				return false
			}
			if f.indexLocked(e.PlaceID) >= 0 {
				return false
			}
			f.entries = append(f.entries, e)
			f.inflight[e.PlaceID] = struct{}{}
			return true
		},
		func() error {
			defer func() {
				f.mu.Lock()
				delete(f.inflight, e.PlaceID)
				f.mu.Unlock()
			}()
			return f.queue.Do(ctx, e.PlaceID, func(ctx context.Context) error {
				return f.remote.Add(ctx, f.userID, e)
			})
		},
		func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			if _, ok := f.pending[e.PlaceID]; ok && f.cancelTimerLocked(e.PlaceID) {
				// nothing was created, so there is nothing to delete
				f.dropPendingLocked(e.PlaceID)
			}
			f.removeLocked(e.PlaceID)
		},
	)
	if err != nil {
		f.cfg.log.Warn(ctx, "favorite add rolled back", "place", e.PlaceID, "error", err)
	}
	return err
}

// Remove hides placeID at once and deletes it remotely after the grace
// window. It reports false when placeID is not a visible favorite.
func (f *Favorites) Remove(ctx context.Context, placeID string) bool {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return false
	}
	e, ok := f.removeLocked(placeID)
	if !ok {
		f.mu.Unlock()
		return false
	}

	f.seq++
	pr := pendingRemoval{
		PendingRemoval: models.PendingRemoval{Entry: e, Expiry: f.cfg.now().Add(f.cfg.grace)},
		seq:            f.seq,
	}
	f.cancelTimerLocked(placeID)
	f.dropPendingLocked(placeID)
	f.pending[placeID] = pr
	f.order = append(f.order, placeID)
	f.commits.Add(1)
	f.timers.Schedule(placeID, f.cfg.grace, func(ctx context.Context) error {
		defer f.commits.Done()
		return f.commitRemoval(ctx, pr)
	})
	f.mu.Unlock()

	f.persist(ctx)
	return true
}

// commitRemoval performs the remote delete of an expired removal. When the
// delete fails the entry becomes visible again, since the remote still
// holds it. The delete is bounded by both parent and the remote timeout.
func (f *Favorites) commitRemoval(parent context.Context, pr pendingRemoval) error {
	placeID := pr.Entry.PlaceID
	ctx, cancel := context.WithTimeout(parent, f.cfg.remoteTimeout)
	defer cancel()

	err := f.queue.Do(ctx, placeID, func(ctx context.Context) error {
		return f.remote.Remove(ctx, f.userID, placeID)
	})

	f.mu.Lock()
	if cur, ok := f.pending[placeID]; ok && cur.seq == pr.seq {
		f.dropPendingLocked(placeID)
	}
	if _, again := f.pending[placeID]; err != nil && !again {
		f.prependLocked(pr.Entry)
	}
	f.mu.Unlock()

	if err != nil {
		f.cfg.log.Error(ctx, "favorite delete failed, entry restored", "place", placeID, "error", err)
		f.cfg.onError("favorites.remove", placeID, err)
	} else {
		f.cfg.log.Debug(ctx, "favorite deleted", "place", placeID)
	}
	f.persist(context.WithoutCancel(parent))
	return err
}

// Undo restores the most recent removal that is still inside its grace
// window. It reports false when there is nothing to undo.
func (f *Favorites) Undo(ctx context.Context) bool {
	f.mu.Lock()
	restored := false
	for i := len(f.order) - 1; i >= 0; i-- {
		if f.restoreLocked(f.order[i]) {
			restored = true
			break
		}
	}
	f.mu.Unlock()

	if restored {
		f.persist(ctx)
	}
	return restored
}

// UndoRemoval restores placeID if its removal is still undoable.
func (f *Favorites) UndoRemoval(ctx context.Context, placeID string) bool {
	f.mu.Lock()
	restored := f.restoreLocked(placeID)
	f.mu.Unlock()

	if restored {
		f.persist(ctx)
	}
	return restored
}

// Toggle flips placeID in the local list only; nothing is sent remotely.
// It returns whether the place is a favorite afterwards.
func (f *Favorites) Toggle(ctx context.Context, e models.FavoriteEntry) bool {
	f.mu.Lock()
	var now bool
	switch {
	case f.restoreLocked(e.PlaceID):
		now = true
	case f.indexLocked(e.PlaceID) >= 0:
		f.removeLocked(e.PlaceID)
		now = false
	default:
		f.entries = append(f.entries, e)
		now = true
	}
	f.mu.Unlock()

	f.persist(ctx)
	return now
}

// Flush commits every pending removal immediately. Deletes run under ctx,
// so a deadline on ctx also bounds the ones already started.
func (f *Favorites) Flush(ctx context.Context) error {
	f.mu.Lock()
	keys := append([]string(nil), f.order...)
	f.mu.Unlock()

	var errs []error
	for _, k := range keys {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		if _, err := f.timers.Fire(ctx, k); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close flushes pending removals, waits for deletes already under way and
// refuses further removals.
func (f *Favorites) Close(ctx context.Context) error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()

	err := f.Flush(ctx)

	done := make(chan struct{})
	go func() {
		f.commits.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		err = errors.Join(err, ctx.Err())
	}
	return err
}
