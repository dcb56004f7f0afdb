package syncer

import (
	"context"

	"github.com/dmitrijs2005/turismap/internal/client/models"
	"github.com/dmitrijs2005/turismap/internal/client/repositories/cache"
)

type PlansRemote interface {
	List(ctx context.Context, userID string) ([]models.Plan, error)
	// Create stores p and returns it with its id and timestamps set.
	Create(ctx context.Context, userID string, p models.Plan) (models.Plan, error)
	Update(ctx context.Context, id string, patch models.PlanPatch) error
	Delete(ctx context.Context, id string) error
}

// Plans mirrors a user's itineraries. Local state changes only after the
// remote call succeeds.
type Plans struct {
	userID string
	remote PlansRemote
	cfg    config
	queue  *KeyedQueue
	items  *list[models.Plan]
}

func NewPlans(userID string, remote PlansRemote, opts ...Option) *Plans {
	return &Plans{
		userID: userID,
		remote: remote,
		cfg:    newConfig(opts),
		queue:  NewKeyedQueue(),
		items:  newList(func(p models.Plan) string { return p.ID }),
	}
}

func (p *Plans) persist(ctx context.Context) {
	p.cfg.save(ctx, cache.NamespacePlans, p.userID, p.items.snapshot())
}

func (p *Plans) Restore(ctx context.Context) error {
	var cached []models.Plan
	ok, err := p.cfg.load(ctx, cache.NamespacePlans, p.userID, &cached)
	if err != nil || !ok {
		return err
	}
	if p.items.len() == 0 {
		p.items.replace(cached)
	}
	return nil
}

func (p *Plans) Load(ctx context.Context) error {
	plans, err := p.remote.List(ctx, p.userID)
	if err != nil {
		if p.cfg.clearOnFail {
			p.items.replace(nil)
			p.persist(ctx)
		}
		p.cfg.log.Warn(ctx, "plans load failed", "user", p.userID, "error", err)
		return err
	}
	p.items.replace(plans)
	p.persist(ctx)
	return nil
}

// Create stores a new plan and puts it at the head of the list.
func (p *Plans) Create(ctx context.Context, plan models.Plan) (models.Plan, error) {
	plan.UserID = p.userID
	created, err := p.remote.Create(ctx, p.userID, plan)
	if err != nil {
		return models.Plan{}, err
	}
	p.items.prepend(created)
	p.persist(ctx)
	p.cfg.log.Info(ctx, "plan created", "plan", created.ID)
	return created, nil
}

func (p *Plans) Update(ctx context.Context, id string, patch models.PlanPatch) error {
	if patch.Empty() {
		return nil
	}
	err := p.queue.Do(ctx, id, func(ctx context.Context) error {
		if err := p.remote.Update(ctx, id, patch); err != nil {
			return err
		}
		stamp := p.cfg.now()
		p.items.update(id, func(old models.Plan) models.Plan {
			updated := patch.Apply(old)
			updated.UpdatedAt = stamp
			return updated
		})
		return nil
	})
	if err != nil {
		return err
	}
	p.persist(ctx)
	return nil
}

func (p *Plans) Delete(ctx context.Context, id string) error {
	err := p.queue.Do(ctx, id, func(ctx context.Context) error {
		if err := p.remote.Delete(ctx, id); err != nil {
			return err
		}
		p.items.remove(id)
		return nil
	})
	if err != nil {
		return err
	}
	p.persist(ctx)
	return nil
}

func (p *Plans) Get(id string) (models.Plan, bool) { return p.items.get(id) }

func (p *Plans) List() []models.Plan { return p.items.snapshot() }
