package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/turismap/internal/client/models"
	"github.com/dmitrijs2005/turismap/internal/client/services"
	"github.com/dmitrijs2005/turismap/internal/client/session"
	"github.com/dmitrijs2005/turismap/internal/client/syncer"
	"github.com/dmitrijs2005/turismap/internal/client/validate"
	"github.com/dmitrijs2005/turismap/internal/common"
	"github.com/dmitrijs2005/turismap/internal/logging"
)

type staticSessions struct{ s *session.Session }

func (s staticSessions) Current() *session.Session { return s.s }

// stubAnswers feeds the given answers to the prompts in order.
func stubAnswers(t *testing.T, answers ...string) {
	t.Helper()
	origST, origGP := getSimpleText, getPassword
	var mu sync.Mutex
	getSimpleText = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		if len(answers) == 0 {
			return "", io.EOF
		}
		a := answers[0]
		answers = answers[1:]
		return a, nil
	}
	getPassword = func(_ io.Writer) ([]byte, error) { return []byte("secret1"), nil }
	t.Cleanup(func() {
		getSimpleText = origST
		getPassword = origGP
	})
}

type fakeAuthenticator struct {
	pings   atomic.Int64
	pingErr atomic.Bool

	signIn  validate.SignIn
	signUp  validate.SignUp
	profile models.Profile
	err     error
	signOut int
}

func (f *fakeAuthenticator) SignUp(_ context.Context, in validate.SignUp) (models.Profile, error) {
	f.signUp = in
	return f.profile, f.err
}
func (f *fakeAuthenticator) SignIn(_ context.Context, in validate.SignIn) (models.Profile, error) {
	f.signIn = in
	return f.profile, f.err
}
func (f *fakeAuthenticator) SignOut(context.Context) error { f.signOut++; return nil }
func (f *fakeAuthenticator) Current() (models.Profile, bool) {
	return f.profile, f.profile.ID != ""
}
func (f *fakeAuthenticator) Restore(context.Context) (models.Profile, bool, error) {
	return models.Profile{}, false, nil
}
func (f *fakeAuthenticator) OnSessionChange(fn func(*models.Profile)) func() { return func() {} }
func (f *fakeAuthenticator) Ping(context.Context) error {
	f.pings.Add(1)
	if f.pingErr.Load() {
		return common.ErrRemoteUnavailable
	}
	return nil
}

var _ services.Authenticator = (*fakeAuthenticator)(nil)

type fakeFavRemote struct {
	mu      sync.Mutex
	adds    []string
	removes []string
}

func (f *fakeFavRemote) List(context.Context, string) ([]models.FavoriteEntry, error) { return nil, nil }
func (f *fakeFavRemote) Add(_ context.Context, _ string, e models.FavoriteEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adds = append(f.adds, e.PlaceID)
	return nil
}
func (f *fakeFavRemote) Remove(_ context.Context, _ string, placeID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removes = append(f.removes, placeID)
	return nil
}

type fakePlanRemote struct {
	creates int
	updates []models.PlanPatch
}

func (f *fakePlanRemote) List(context.Context, string) ([]models.Plan, error) { return nil, nil }
func (f *fakePlanRemote) Create(_ context.Context, userID string, p models.Plan) (models.Plan, error) {
	f.creates++
	p.ID = "plan-1"
	p.UserID = userID
	return p, nil
}
func (f *fakePlanRemote) Update(_ context.Context, _ string, patch models.PlanPatch) error {
	f.updates = append(f.updates, patch)
	return nil
}
func (f *fakePlanRemote) Delete(context.Context, string) error { return nil }

type fakeProductRemote struct {
	items   []models.Product
	patches []models.ProductPatch
	err     error
}

func (f *fakeProductRemote) ListBySeller(context.Context, string) ([]models.Product, error) {
	return f.items, f.err
}
func (f *fakeProductRemote) Create(_ context.Context, sellerID, sellerName string, p models.SellerProduct) (models.Product, error) {
	p.ID = "prod-1"
	return models.Product{SellerProduct: p, SellerID: sellerID, SellerName: sellerName}, f.err
}
func (f *fakeProductRemote) Update(_ context.Context, _ string, patch models.ProductPatch) error {
	f.patches = append(f.patches, patch)
	return f.err
}
func (f *fakeProductRemote) Delete(context.Context, string) error { return f.err }
func (f *fakeProductRemote) All(context.Context) ([]models.Product, error) {
	return f.items, f.err
}
func (f *fakeProductRemote) Available(context.Context) ([]models.Product, error) {
	return f.items, f.err
}
func (f *fakeProductRemote) ByPlace(_ context.Context, placeID string) ([]models.Product, error) {
	var out []models.Product
	for _, p := range f.items {
		for _, id := range p.PlaceIDs {
			if id == placeID {
				out = append(out, p)
			}
		}
	}
	return out, f.err
}
func (f *fakeProductRemote) Get(_ context.Context, id string) (*models.Product, error) {
	for _, p := range f.items {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, f.err
}

type fakeStoreRemote struct {
	saved   *models.StoreProfile
	patches []models.StorePatch
}

func (f *fakeStoreRemote) Get(context.Context, string) (*models.StoreProfile, error) {
	return f.saved, nil
}
func (f *fakeStoreRemote) Save(_ context.Context, _ string, s models.StoreProfile) error {
	f.saved = &s
	return nil
}
func (f *fakeStoreRemote) Update(_ context.Context, _ string, patch models.StorePatch) error {
	f.patches = append(f.patches, patch)
	return nil
}
func (f *fakeStoreRemote) Watch(context.Context, string, func(*models.StoreProfile)) (func(), error) {
	return nil, errors.New("not supported")
}

type testRig struct {
	app      *App
	out      *bytes.Buffer
	favs     *fakeFavRemote
	plans    *fakePlanRemote
	products *fakeProductRemote
	store    *fakeStoreRemote
}

func newTouristRig(t *testing.T) *testRig {
	t.Helper()
	r := &testRig{
		out:      &bytes.Buffer{},
		favs:     &fakeFavRemote{},
		plans:    &fakePlanRemote{},
		products: &fakeProductRemote{},
	}
	opts := []syncer.Option{syncer.WithGraceWindow(time.Hour)}
	s := &session.Session{
		Profile:   models.Profile{ID: "u1", Email: "ana@example.com", Name: "Ana", Role: models.RoleTourist},
		Favorites: syncer.NewFavorites("u1", r.favs, opts...),
		Plans:     syncer.NewPlans("u1", r.plans, opts...),
		Catalog:   syncer.NewCatalog(r.products, opts...),
	}
	r.app = r.newApp(s)
	return r
}

func newSellerRig(t *testing.T) *testRig {
	t.Helper()
	r := &testRig{
		out:      &bytes.Buffer{},
		products: &fakeProductRemote{},
		store:    &fakeStoreRemote{},
	}
	s := &session.Session{
		Profile:    models.Profile{ID: "s1", Email: "seller@example.com", Name: "Bia", Role: models.RoleSeller},
		Products:   syncer.NewProducts("s1", "Bia", r.products),
		Storefront: syncer.NewStorefront("s1", r.store),
		Catalog:    syncer.NewCatalog(r.products),
	}
	r.app = r.newApp(s)
	return r
}

func (r *testRig) newApp(s *session.Session) *App {
	return &App{
		auth:     &fakeAuthenticator{},
		sessions: staticSessions{s: s},
		validate: validate.New(),
		log:      logging.Nop(),
		reader:   bufio.NewReader(bytes.NewReader(nil)),
		out:      r.out,
	}
}

func (r *testRig) session() *session.Session { return r.app.sessions.Current() }

type fakePlaceRemote struct {
	places []models.Place
	err    error
}

func (f *fakePlaceRemote) All(context.Context) ([]models.Place, error) {
	return f.places, f.err
}
func (f *fakePlaceRemote) Get(_ context.Context, id string) (*models.Place, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, p := range f.places {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, nil
}

// withPlaces gives the rig's session a places catalog served by remote.
func (r *testRig) withPlaces(remote *fakePlaceRemote) *testRig {
	r.session().Places = syncer.NewPlaces(remote)
	return r
}

func manausPlaces() *fakePlaceRemote {
	return &fakePlaceRemote{places: []models.Place{
		{ID: "1", Title: "Teatro Amazonas", Location: "Manaus, AM", Rating: 4.8, ImageRef: "teatro.jpg",
			Category: models.CategoryCultural, Section: models.SectionSuggested, SellerName: "Manaus Cultural"},
		{ID: "2", Title: "Praia da Ponta Negra", Location: "Manaus, AM", Rating: 4.5,
			Category: models.CategoryNature, Section: models.SectionSuggested},
		{ID: "5", Title: "Passeio de Barco", Location: "Rio Negro", Rating: 4.6,
			Category: models.CategoryAdventure, Section: models.SectionPopular},
	}}
}
