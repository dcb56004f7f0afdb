package syncer

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/turismap/internal/client/models"
	"github.com/dmitrijs2005/turismap/internal/client/repositories/cache"
	"github.com/dmitrijs2005/turismap/internal/common"
)

// ErrUnknownPlace is returned by Places.Check for ids the catalog lacks.
var ErrUnknownPlace = fmt.Errorf("%w: unknown place", common.ErrValidation)

// PlacesRemote reads the places collection.
type PlacesRemote interface {
	All(ctx context.Context) ([]models.Place, error)
	// Get returns nil when the place does not exist.
	Get(ctx context.Context, id string) (*models.Place, error)
}

// Places is the read-only catalog of points of interest. It is shared by
// every signed-in user and cached under one key.
type Places struct {
	remote PlacesRemote
	cfg    config
	items  *list[models.Place]
}

func NewPlaces(remote PlacesRemote, opts ...Option) *Places {
	return &Places{
		remote: remote,
		cfg:    newConfig(opts),
		items:  newList(func(p models.Place) string { return p.ID }),
	}
}

const placesKey = "all"

// Restore fills an empty catalog from the local cache.
func (p *Places) Restore(ctx context.Context) error {
	var cached []models.Place
	ok, err := p.cfg.load(ctx, cache.NamespacePlaces, placesKey, &cached)
	if err != nil || !ok {
		return err
	}
	if p.items.len() == 0 {
		p.items.replace(cached)
	}
	return nil
}

// Load replaces the catalog with the remote one. On failure the previous
// catalog stays unless the clear-on-failure option is set.
func (p *Places) Load(ctx context.Context) error {
	places, err := p.remote.All(ctx)
	if err != nil {
		p.cfg.log.Warn(ctx, "places load failed", "error", err)
		if p.cfg.clearOnFail {
			p.items.replace(nil)
		}
		return err
	}
	p.items.replace(places)
	p.cfg.save(ctx, cache.NamespacePlaces, placesKey, places)
	return nil
}

func (p *Places) List() []models.Place { return p.items.snapshot() }

func (p *Places) Len() int { return p.items.len() }

// Get looks id up in the loaded catalog.
func (p *Places) Get(id string) (models.Place, bool) { return p.items.get(id) }

// Fetch asks the server for one place, for ids the loaded catalog lacks.
func (p *Places) Fetch(ctx context.Context, id string) (*models.Place, error) {
	if pl, ok := p.items.get(id); ok {
		return &pl, nil
	}
	return p.remote.Get(ctx, id)
}

// ByCategory lists the loaded places of category c in catalog order.
func (p *Places) ByCategory(c models.PlaceCategory) []models.Place {
	return p.filter(func(pl models.Place) bool { return pl.Category == c })
}

// Section lists the loaded places shown under section, such as
// models.SectionPopular.
func (p *Places) Section(section string) []models.Place {
	return p.filter(func(pl models.Place) bool { return pl.Section == section })
}

func (p *Places) filter(keep func(models.Place) bool) []models.Place {
	var out []models.Place
	for _, pl := range p.items.snapshot() {
		if keep(pl) {
			out = append(out, pl)
		}
	}
	return out
}

// Check reports the ids missing from the catalog with ErrUnknownPlace.
// An empty catalog, never loaded or cached, checks nothing.
func (p *Places) Check(ids []string) error {
	if p.items.len() == 0 {
		return nil
	}
	var missing []string
	for _, id := range ids {
		if _, ok := p.items.get(id); !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrUnknownPlace, strings.Join(missing, ", "))
	}
	return nil
}
