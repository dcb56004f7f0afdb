package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/turismap/internal/client/client"
	"github.com/dmitrijs2005/turismap/internal/client/models"
	"github.com/dmitrijs2005/turismap/internal/client/repositories/cache"
	"github.com/dmitrijs2005/turismap/internal/client/validate"
	"github.com/dmitrijs2005/turismap/internal/common"
	"github.com/dmitrijs2005/turismap/internal/logging"
	"github.com/dmitrijs2005/turismap/internal/rpc"
)

const sessionKey = "session"

// RoleMismatchError reports that an account signed in under a role it does
// not hold. It matches common.ErrAuthMismatch.
type RoleMismatchError struct {
	Registered models.Role
}

func (e *RoleMismatchError) Error() string {
	return fmt.Sprintf("this email is registered as a %s", e.Registered)
}

func (e *RoleMismatchError) Unwrap() error { return common.ErrAuthMismatch }

// Authenticator is what the session manager and the CLI need from auth.
type Authenticator interface {
	SignUp(ctx context.Context, in validate.SignUp) (models.Profile, error)
	SignIn(ctx context.Context, in validate.SignIn) (models.Profile, error)
	SignOut(ctx context.Context) error
	Current() (models.Profile, bool)
	Restore(ctx context.Context) (models.Profile, bool, error)
	OnSessionChange(fn func(*models.Profile)) func()
	Ping(ctx context.Context) error
}

type storedSession struct {
	Profile      models.Profile `json:"profile"`
	AccessToken  string         `json:"accessToken"`
	RefreshToken string         `json:"refreshToken"`
}

// AuthService signs users in and out and tells listeners about it.
type AuthService struct {
	auth     client.Auth
	store    cache.Repository
	validate *validate.Validator
	log      logging.Logger

	// notifyMu orders change deliveries; listeners must not sign in or out
	// from inside the callback.
	notifyMu sync.Mutex

	mu        sync.RWMutex
	current   *models.Profile
	listeners map[int]func(*models.Profile)
	nextID    int
}

// NewAuthService builds the service. store may be nil, in which case
// sessions are not remembered between runs.
func NewAuthService(auth client.Auth, store cache.Repository, log logging.Logger) *AuthService {
	if log == nil {
		log = logging.Nop()
	}
	return &AuthService{
		auth:      auth,
		store:     store,
		validate:  validate.New(),
		log:       log,
		listeners: make(map[int]func(*models.Profile)),
	}
}

func (a *AuthService) SignUp(ctx context.Context, in validate.SignUp) (models.Profile, error) {
	if err := a.validate.SignUp(in); err != nil {
		return models.Profile{}, err
	}

	sess, err := a.auth.SignUp(ctx, rpc.Credentials{
		Email:    in.Email,
		Password: in.Password,
		Name:     in.Name,
		Role:     string(in.Role),
	})
	if err != nil {
		return models.Profile{}, err
	}

	profile, err := sessionProfile(sess)
	if err != nil {
		a.auth.SignOut()
		return models.Profile{}, err
	}
	a.establish(ctx, profile, sess)
	a.log.Info(ctx, "signed up", "user", profile.ID, "role", profile.Role)
	return profile, nil
}

// SignIn authenticates and checks that the account holds the requested
// role. On a mismatch the fresh session is dropped and a
// *RoleMismatchError returned.
func (a *AuthService) SignIn(ctx context.Context, in validate.SignIn) (models.Profile, error) {
	if err := a.validate.SignIn(in); err != nil {
		return models.Profile{}, err
	}

	sess, err := a.auth.SignIn(ctx, in.Email, in.Password)
	if err != nil {
		return models.Profile{}, err
	}

	profile, err := sessionProfile(sess)
	if err != nil {
		a.auth.SignOut()
		return models.Profile{}, err
	}
	if profile.Role != in.Role {
		a.auth.SignOut()
		a.log.Warn(ctx, "sign in with wrong role", "user", profile.ID, "registered", profile.Role, "requested", in.Role)
		return models.Profile{}, &RoleMismatchError{Registered: profile.Role}
	}

	a.establish(ctx, profile, sess)
	a.log.Info(ctx, "signed in", "user", profile.ID, "role", profile.Role)
	return profile, nil
}

// SignOut notifies listeners first, so the closing session can still
// commit pending work with valid credentials, and only then drops the
// tokens.
func (a *AuthService) SignOut(ctx context.Context) error {
	a.change(nil)
	a.auth.SignOut()

	if a.store != nil {
		return a.store.Delete(ctx, cache.NamespaceAuth, sessionKey)
	}
	return nil
}

func (a *AuthService) Current() (models.Profile, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.current == nil {
		return models.Profile{}, false
	}
	return *a.current, true
}

// Restore resumes the session remembered from a previous run, if any.
func (a *AuthService) Restore(ctx context.Context) (models.Profile, bool, error) {
	if a.store == nil {
		return models.Profile{}, false, nil
	}

	var saved storedSession
	ok, err := cache.LoadJSON(ctx, a.store, cache.NamespaceAuth, sessionKey, &saved)
	if err != nil || !ok || saved.RefreshToken == "" {
		return models.Profile{}, false, err
	}

	a.auth.SetTokens(saved.AccessToken, saved.RefreshToken)
	p := saved.Profile
	a.change(&p)
	return p, true, nil
}

// OnSessionChange calls fn with the current profile right away and again
// on every sign in and sign out (nil). The returned func unregisters fn.
func (a *AuthService) OnSessionChange(fn func(*models.Profile)) func() {
	a.notifyMu.Lock()
	a.mu.Lock()
	id := a.nextID
	a.nextID++
	a.listeners[id] = fn
	cur := a.current
	a.mu.Unlock()
	fn(cur)
	a.notifyMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			a.mu.Lock()
			delete(a.listeners, id)
			a.mu.Unlock()
		})
	}
}

func (a *AuthService) Ping(ctx context.Context) error {
	return a.auth.Ping(ctx)
}

func (a *AuthService) establish(ctx context.Context, p models.Profile, sess rpc.Session) {
	if a.store != nil {
		rec := storedSession{Profile: p, AccessToken: sess.AccessToken, RefreshToken: sess.RefreshToken}
		if err := cache.SaveJSON(ctx, a.store, cache.NamespaceAuth, sessionKey, rec); err != nil {
			a.log.Warn(ctx, "session not cached", "error", err)
		}
	}
	a.change(&p)
}

func (a *AuthService) change(p *models.Profile) {
	a.notifyMu.Lock()
	defer a.notifyMu.Unlock()

	a.mu.Lock()
	if p != nil {
		cp := *p
		p = &cp
	}
	a.current = p
	fns := make([]func(*models.Profile), 0, len(a.listeners))
	for _, fn := range a.listeners {
		fns = append(fns, fn)
	}
	a.mu.Unlock()

	for _, fn := range fns {
		fn(p)
	}
}

func sessionProfile(sess rpc.Session) (models.Profile, error) {
	var p models.Profile
	if err := rpc.FromMap(sess.Profile, &p); err != nil {
		return models.Profile{}, fmt.Errorf("decode profile: %w", err)
	}
	if p.ID == "" {
		return models.Profile{}, fmt.Errorf("session without profile: %w", common.ErrInternal)
	}
	return p, nil
}
