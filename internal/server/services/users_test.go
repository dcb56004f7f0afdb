package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/turismap/internal/common"
	"github.com/dmitrijs2005/turismap/internal/cryptox"
	"github.com/dmitrijs2005/turismap/internal/server/auth"
	"github.com/dmitrijs2005/turismap/internal/server/changefeed"
	"github.com/dmitrijs2005/turismap/internal/server/config"
	"github.com/dmitrijs2005/turismap/internal/server/models"
	"github.com/dmitrijs2005/turismap/internal/server/repositories/repomanager"
	usersrepo "github.com/dmitrijs2005/turismap/internal/server/repositories/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- helpers ---

var cheapHash = cryptox.Params{Time: 1, Memory: 1024, Threads: 1, SaltLen: 16, KeyLen: 32}

type recordingPublisher struct {
	mu  sync.Mutex
	got []changefeed.Change
}

func (p *recordingPublisher) Publish(_ context.Context, c changefeed.Change) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = append(p.got, c)
}

func (p *recordingPublisher) changes() []changefeed.Change {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]changefeed.Change(nil), p.got...)
}

func newUserService(t *testing.T, rm repomanager.RepositoryManager) (*UserService, *recordingPublisher) {
	t.Helper()
	cfg := &config.Config{
		SecretKey:                    "k",
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 2 * time.Hour,
	}
	pub := &recordingPublisher{}
	s := NewUserService(rm, pub, cfg)
	s.hashParams = cheapHash
	return s, pub
}

func signUp(t *testing.T, s *UserService, email, role string) (*models.User, *TokenPair) {
	t.Helper()
	u, pair, err := s.SignUp(context.Background(), SignUpInput{Email: email, Password: "secret1", Name: "Ana", Role: role})
	require.NoError(t, err)
	return u, pair
}

// fakeManager hands out fixed repositories and runs InTx inline.
type fakeManager struct {
	repos repomanager.Repositories
	txErr error
}

func (m *fakeManager) Repositories() repomanager.Repositories { return m.repos }
func (m *fakeManager) InTx(ctx context.Context, fn func(ctx context.Context, r repomanager.Repositories) error) error {
	if m.txErr != nil {
		return m.txErr
	}
	return fn(ctx, m.repos)
}
func (m *fakeManager) RunMigrations(context.Context) error { return nil }
func (m *fakeManager) Ping(context.Context) error          { return nil }
func (m *fakeManager) Close(context.Context) error         { return nil }

type brokenUsers struct{ usersrepo.Repository }

func (brokenUsers) GetByEmail(context.Context, string) (*models.User, error) {
	return nil, errors.New("connection reset")
}

// --- tests ---

func TestSignUp_CreatesAccountProfileAndTokens(t *testing.T) {
	rm := repomanager.NewMemoryRepositoryManager()
	s, pub := newUserService(t, rm)

	u, pair := signUp(t, s, "  Ana@Example.com ", models.RoleSeller)

	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	id, err := s.Authenticate(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, auth.Identity{UserID: u.ID, Role: models.RoleSeller}, id)

	profile, err := rm.Repositories().Documents.Get(context.Background(), common.CollectionUsers, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", profile.Data["name"])
	assert.Equal(t, models.RoleSeller, profile.Data["role"])
	assert.NotContains(t, profile.Data, "id")

	changes := pub.changes()
	require.Len(t, changes, 1)
	assert.Equal(t, u.ID, changes[0].Document.ID)
}

func TestSignUp_Validation(t *testing.T) {
	s, _ := newUserService(t, repomanager.NewMemoryRepositoryManager())

	cases := map[string]SignUpInput{
		"bad email":      {Email: "nope", Password: "secret1", Name: "Ana", Role: models.RoleTourist},
		"short password": {Email: "a@b.co", Password: "12345", Name: "Ana", Role: models.RoleTourist},
		"no name":        {Email: "a@b.co", Password: "secret1", Name: "  ", Role: models.RoleTourist},
		"bad role":       {Email: "a@b.co", Password: "secret1", Name: "Ana", Role: "admin"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := s.SignUp(context.Background(), in)
			assert.ErrorIs(t, err, common.ErrValidation)
		})
	}
}

func TestSignUp_DuplicateEmail(t *testing.T) {
	s, _ := newUserService(t, repomanager.NewMemoryRepositoryManager())
	signUp(t, s, "ana@example.com", models.RoleTourist)

	_, _, err := s.SignUp(context.Background(), SignUpInput{Email: "ANA@example.com", Password: "secret1", Name: "Ana", Role: models.RoleTourist})
	assert.ErrorIs(t, err, common.ErrAlreadyExists)
}

func TestSignIn(t *testing.T) {
	s, _ := newUserService(t, repomanager.NewMemoryRepositoryManager())
	u, _ := signUp(t, s, "ana@example.com", models.RoleTourist)
	ctx := context.Background()

	got, pair, err := s.SignIn(ctx, SignInInput{Email: "Ana@Example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.NotEmpty(t, pair.RefreshToken)

	_, _, err = s.SignIn(ctx, SignInInput{Email: "ana@example.com", Password: "wrong-pass"})
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	_, _, err = s.SignIn(ctx, SignInInput{Email: "ghost@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	_, _, err = s.SignIn(ctx, SignInInput{Email: "", Password: "secret1"})
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestSignIn_RepositoryFailureIsInternal(t *testing.T) {
	mem := repomanager.NewMemoryRepositoryManager().Repositories()
	rm := &fakeManager{repos: repomanager.Repositories{Users: brokenUsers{}, RefreshTokens: mem.RefreshTokens, Documents: mem.Documents}}
	s, _ := newUserService(t, rm)

	_, _, err := s.SignIn(context.Background(), SignInInput{Email: "ana@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, common.ErrInternal)
}

func TestRefreshToken_RotatesOnce(t *testing.T) {
	s, _ := newUserService(t, repomanager.NewMemoryRepositoryManager())
	u, pair := signUp(t, s, "ana@example.com", models.RoleTourist)
	ctx := context.Background()

	got, next, err := s.RefreshToken(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	_, _, err = s.RefreshToken(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	_, _, err = s.RefreshToken(ctx, next.RefreshToken)
	assert.NoError(t, err)
}

func TestRefreshToken_UnknownAndExpired(t *testing.T) {
	rm := repomanager.NewMemoryRepositoryManager()
	s, _ := newUserService(t, rm)
	u, _ := signUp(t, s, "ana@example.com", models.RoleTourist)
	ctx := context.Background()

	_, _, err := s.RefreshToken(ctx, "")
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	_, _, err = s.RefreshToken(ctx, "deadbeef")
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	require.NoError(t, rm.Repositories().RefreshTokens.Create(ctx, u.ID, "stale", -time.Minute))
	_, _, err = s.RefreshToken(ctx, "stale")
	assert.ErrorIs(t, err, common.ErrRefreshTokenExpired)
}

func TestRefreshToken_TransactionFailure(t *testing.T) {
	mem := repomanager.NewMemoryRepositoryManager()
	require.NoError(t, mem.Repositories().RefreshTokens.Create(context.Background(), "u1", "tok", time.Hour))

	rm := &fakeManager{repos: mem.Repositories(), txErr: errors.New("tx begin failed")}
	s, _ := newUserService(t, rm)

	_, _, err := s.RefreshToken(context.Background(), "tok")
	assert.EqualError(t, err, "tx begin failed")
}

func TestAuthenticate_RejectsForeignToken(t *testing.T) {
	s, _ := newUserService(t, repomanager.NewMemoryRepositoryManager())
	token, err := auth.GenerateToken(auth.Identity{UserID: "u1"}, []byte("other"), time.Minute)
	require.NoError(t, err)

	_, err = s.Authenticate(token)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}
