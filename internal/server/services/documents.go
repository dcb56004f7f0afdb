package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/turismap/internal/common"
	"github.com/dmitrijs2005/turismap/internal/server/auth"
	"github.com/dmitrijs2005/turismap/internal/server/changefeed"
	"github.com/dmitrijs2005/turismap/internal/server/models"
	"github.com/dmitrijs2005/turismap/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// Fields the server owns. Clients may send them back; they are dropped.
var reservedFields = []string{"id", "createdAt", "updatedAt"}

// rule says who may touch the records of a collection.
type rule struct {
	// ownerField names the data field holding the owner's user id. Empty
	// means the record id itself is the owner's user id.
	ownerField string
	// private records are visible to their owner only.
	private bool
	// writeRole, when set, is the role required to write.
	writeRole string
	// readOnly collections are filled by the server only.
	readOnly bool
}

var rules = map[string]rule{
	common.CollectionUsers:     {},
	common.CollectionFavorites: {ownerField: "userId", private: true},
	common.CollectionPlans:     {ownerField: "userId", private: true},
	common.CollectionProducts:  {ownerField: "sellerId", writeRole: models.RoleSeller},
	common.CollectionSellers:   {writeRole: models.RoleSeller},
	common.CollectionPlaces:    {readOnly: true},
}

func ruleFor(collection string) (rule, error) {
	r, ok := rules[collection]
	if !ok || !common.IsKnownCollection(collection) {
		return rule{}, fmt.Errorf("%w: %q", common.ErrUnknownCollection, collection)
	}
	return r, nil
}

func (r rule) owner(id string, data map[string]any) string {
	if r.ownerField == "" {
		return id
	}
	s, _ := data[r.ownerField].(string)
	return s
}

func (r rule) checkWrite(caller auth.Identity) error {
	if caller.UserID == "" {
		return common.ErrUnauthorized
	}
	if r.readOnly {
		return fmt.Errorf("%w: collection is read-only", common.ErrForbidden)
	}
	if r.writeRole != "" && caller.Role != r.writeRole {
		return fmt.Errorf("%w: %s role required", common.ErrForbidden, r.writeRole)
	}
	return nil
}

// claim makes sure data will belong to the caller, filling in the owner
// field when the client left it out.
func (r rule) claim(caller auth.Identity, id string, data map[string]any) error {
	if r.ownerField == "" {
		if id != caller.UserID {
			return fmt.Errorf("%w: record belongs to another user", common.ErrForbidden)
		}
		return nil
	}
	v, ok := data[r.ownerField]
	if !ok || v == nil || v == "" {
		data[r.ownerField] = caller.UserID
		return nil
	}
	if s, _ := v.(string); s != caller.UserID {
		return fmt.Errorf("%w: %s must be the caller", common.ErrForbidden, r.ownerField)
	}
	return nil
}

func cleanData(data map[string]any) map[string]any {
	out := models.CloneData(data)
	if out == nil {
		out = map[string]any{}
	}
	for _, f := range reservedFields {
		delete(out, f)
	}
	return out
}

func overlay(base, patch map[string]any) map[string]any {
	out := models.CloneData(base)
	if out == nil {
		out = map[string]any{}
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}

// DocumentService enforces ownership on top of the document repository and
// announces every committed write.
type DocumentService struct {
	repomanager repomanager.RepositoryManager
	publisher   changefeed.Publisher
	hub         *changefeed.Hub
	now         func() time.Time
}

// NewDocumentService publishes through publisher and serves subscriptions
// from hub. publisher is expected to include hub.
func NewDocumentService(m repomanager.RepositoryManager, publisher changefeed.Publisher, hub *changefeed.Hub) *DocumentService {
	if hub == nil {
		hub = changefeed.NewHub()
	}
	if publisher == nil {
		publisher = hub
	}
	return &DocumentService{
		repomanager: m,
		publisher:   publisher,
		hub:         hub,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *DocumentService) publish(ctx context.Context, typ string, d models.Document) {
	s.publisher.Publish(ctx, changefeed.Change{Type: typ, Document: d})
}

// Create stores data under a new id.
func (s *DocumentService) Create(ctx context.Context, caller auth.Identity, collection string, data map[string]any) (models.Document, error) {
	r, err := ruleFor(collection)
	if err != nil {
		return models.Document{}, err
	}
	if err := r.checkWrite(caller); err != nil {
		return models.Document{}, err
	}
	if r.ownerField == "" {
		return models.Document{}, fmt.Errorf("%w: %s records are written with Put", common.ErrForbidden, collection)
	}

	data = cleanData(data)
	if err := r.claim(caller, "", data); err != nil {
		return models.Document{}, err
	}

	now := s.now()
	doc := models.Document{Collection: collection, ID: uuid.NewString(), Data: data, CreatedAt: now, UpdatedAt: now}
	if err := s.repomanager.Repositories().Documents.Insert(ctx, doc); err != nil {
		return models.Document{}, fmt.Errorf("insert %s: %w", collection, err)
	}

	s.publish(ctx, changefeed.ChangeSnapshot, doc)
	return doc, nil
}

// Put writes the record with a fixed id. With merge the stored fields not
// present in data survive; either way the original createdAt is kept.
func (s *DocumentService) Put(ctx context.Context, caller auth.Identity, collection, id string, data map[string]any, merge bool) (models.Document, error) {
	r, err := ruleFor(collection)
	if err != nil {
		return models.Document{}, err
	}
	if err := r.checkWrite(caller); err != nil {
		return models.Document{}, err
	}
	if id == "" {
		return models.Document{}, fmt.Errorf("%w: id is required", common.ErrValidation)
	}

	data = cleanData(data)
	var doc models.Document
	err = s.repomanager.InTx(ctx, func(ctx context.Context, repos repomanager.Repositories) error {
		now := s.now()
		doc = models.Document{Collection: collection, ID: id, Data: data, CreatedAt: now, UpdatedAt: now}

		existing, err := repos.Documents.Get(ctx, collection, id)
		switch {
		case errors.Is(err, common.ErrNotFound):
		case err != nil:
			return err
		default:
			if r.owner(id, existing.Data) != caller.UserID {
				return fmt.Errorf("%w: record belongs to another user", common.ErrForbidden)
			}
			if merge {
				doc.Data = overlay(existing.Data, data)
			}
			doc.CreatedAt = existing.CreatedAt
		}

		if err := r.claim(caller, id, doc.Data); err != nil {
			return err
		}
		return repos.Documents.Upsert(ctx, doc)
	})
	if err != nil {
		return models.Document{}, fmt.Errorf("put %s/%s: %w", collection, id, err)
	}

	s.publish(ctx, changefeed.ChangeSnapshot, doc)
	return doc, nil
}

func (s *DocumentService) readable(r rule, caller auth.Identity, d *models.Document) bool {
	return !r.private || r.owner(d.ID, d.Data) == caller.UserID
}

// Get returns common.ErrNotFound for missing records and for private
// records of other users alike.
func (s *DocumentService) Get(ctx context.Context, caller auth.Identity, collection, id string) (*models.Document, error) {
	r, err := ruleFor(collection)
	if err != nil {
		return nil, err
	}
	d, err := s.repomanager.Repositories().Documents.Get(ctx, collection, id)
	if err != nil {
		return nil, err
	}
	if !s.readable(r, caller, d) {
		return nil, common.ErrNotFound
	}
	return d, nil
}

// Query returns matching records oldest first. On private collections the
// result is narrowed to the caller's own records.
func (s *DocumentService) Query(ctx context.Context, caller auth.Identity, collection string, filters []models.Filter) ([]models.Document, error) {
	r, err := ruleFor(collection)
	if err != nil {
		return nil, err
	}
	for _, f := range filters {
		if f.Field == "" {
			return nil, fmt.Errorf("%w: filter field is required", common.ErrValidation)
		}
		if f.Op != models.OpEqual && f.Op != models.OpArrayContains {
			return nil, fmt.Errorf("%w: unsupported operator %q", common.ErrValidation, f.Op)
		}
	}
	if r.private {
		filters = append(append([]models.Filter(nil), filters...),
			models.Filter{Field: r.ownerField, Op: models.OpEqual, Value: caller.UserID})
	}
	return s.repomanager.Repositories().Documents.Query(ctx, collection, filters)
}

// Update merges partial into an existing record. The owner cannot be
// changed.
func (s *DocumentService) Update(ctx context.Context, caller auth.Identity, collection, id string, partial map[string]any) (models.Document, error) {
	r, err := ruleFor(collection)
	if err != nil {
		return models.Document{}, err
	}
	if err := r.checkWrite(caller); err != nil {
		return models.Document{}, err
	}

	partial = cleanData(partial)
	var doc models.Document
	err = s.repomanager.InTx(ctx, func(ctx context.Context, repos repomanager.Repositories) error {
		existing, err := repos.Documents.Get(ctx, collection, id)
		if err != nil {
			return err
		}
		if r.owner(id, existing.Data) != caller.UserID {
			return fmt.Errorf("%w: record belongs to another user", common.ErrForbidden)
		}

		doc = *existing
		doc.Data = overlay(existing.Data, partial)
		doc.UpdatedAt = s.now()
		if r.owner(id, doc.Data) != caller.UserID {
			return fmt.Errorf("%w: %s cannot change", common.ErrForbidden, r.ownerField)
		}
		return repos.Documents.Replace(ctx, doc)
	})
	if err != nil {
		return models.Document{}, fmt.Errorf("update %s/%s: %w", collection, id, err)
	}

	s.publish(ctx, changefeed.ChangeSnapshot, doc)
	return doc, nil
}

func (s *DocumentService) Delete(ctx context.Context, caller auth.Identity, collection, id string) error {
	r, err := ruleFor(collection)
	if err != nil {
		return err
	}
	if err := r.checkWrite(caller); err != nil {
		return err
	}

	err = s.repomanager.InTx(ctx, func(ctx context.Context, repos repomanager.Repositories) error {
		existing, err := repos.Documents.Get(ctx, collection, id)
		if err != nil {
			return err
		}
		if r.owner(id, existing.Data) != caller.UserID {
			return fmt.Errorf("%w: record belongs to another user", common.ErrForbidden)
		}
		return repos.Documents.Delete(ctx, collection, id)
	})
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}

	s.publish(ctx, changefeed.ChangeDeleted, models.Document{Collection: collection, ID: id})
	return nil
}

// Subscription is an open watch on one record.
type Subscription struct {
	// Current is the record at subscription time, nil when absent.
	Current *models.Document
	Changes <-chan changefeed.Change
	Cancel  func()
}

// Subscribe starts watching before reading the current state, so no write
// between the two is missed. Callers filter Changes through Visible.
func (s *DocumentService) Subscribe(ctx context.Context, caller auth.Identity, collection, id string) (*Subscription, error) {
	if _, err := ruleFor(collection); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, fmt.Errorf("%w: id is required", common.ErrValidation)
	}

	changes, cancel := s.hub.Subscribe(collection, id)

	cur, err := s.Get(ctx, caller, collection, id)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		cancel()
		return nil, err
	}
	return &Subscription{Current: cur, Changes: changes, Cancel: cancel}, nil
}

// Visible reports whether caller may see the snapshot carried by c.
func (s *DocumentService) Visible(caller auth.Identity, c changefeed.Change) bool {
	if c.Type == changefeed.ChangeDeleted {
		return true
	}
	r, err := ruleFor(c.Document.Collection)
	if err != nil {
		return false
	}
	return s.readable(r, caller, &c.Document)
}
