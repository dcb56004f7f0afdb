package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/turismap/internal/client/client"
	"github.com/dmitrijs2005/turismap/internal/client/models"
	"github.com/dmitrijs2005/turismap/internal/common"
)

type PlanStore struct {
	docs client.Documents
}

func NewPlanStore(docs client.Documents) *PlanStore {
	return &PlanStore{docs: docs}
}

func (s *PlanStore) List(ctx context.Context, userID string) ([]models.Plan, error) {
	docs, err := s.docs.Query(ctx, common.CollectionPlans, eq("userId", userID))
	if err != nil {
		return nil, err
	}
	return decodeAll[models.Plan](docs)
}

// Create stores p and reads it back so the caller sees the server stamps.
func (s *PlanStore) Create(ctx context.Context, userID string, p models.Plan) (models.Plan, error) {
	p.UserID = userID
	data, err := body(p)
	if err != nil {
		return models.Plan{}, err
	}
	id, err := s.docs.Create(ctx, common.CollectionPlans, data)
	if err != nil {
		return models.Plan{}, err
	}

	d, err := s.docs.Get(ctx, common.CollectionPlans, id)
	if err != nil {
		return models.Plan{}, err
	}
	if d == nil {
		return models.Plan{}, fmt.Errorf("plan %s vanished after create: %w", id, common.ErrNotFound)
	}
	var created models.Plan
	if err := decode(*d, &created); err != nil {
		return models.Plan{}, err
	}
	return created, nil
}

func (s *PlanStore) Update(ctx context.Context, id string, patch models.PlanPatch) error {
	return s.docs.Update(ctx, common.CollectionPlans, id, planPatchData(patch))
}

func (s *PlanStore) Delete(ctx context.Context, id string) error {
	return s.docs.Delete(ctx, common.CollectionPlans, id)
}

func planPatchData(p models.PlanPatch) map[string]any {
	m := map[string]any{}
	if p.Name != nil {
		m["name"] = *p.Name
	}
	if p.StartDate != nil {
		m["startDate"] = *p.StartDate
	}
	if p.EndDate != nil {
		m["endDate"] = *p.EndDate
	}
	if p.Offline != nil {
		m["offline"] = *p.Offline
	}
	if p.Places != nil {
		m["places"] = p.Places
	}
	return m
}
