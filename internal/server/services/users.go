// Package services contains server-side business logic: accounts and
// tokens, the document store rules, and media presigning.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/turismap/internal/common"
	"github.com/dmitrijs2005/turismap/internal/cryptox"
	"github.com/dmitrijs2005/turismap/internal/server/auth"
	"github.com/dmitrijs2005/turismap/internal/server/changefeed"
	"github.com/dmitrijs2005/turismap/internal/server/config"
	"github.com/dmitrijs2005/turismap/internal/server/models"
	"github.com/dmitrijs2005/turismap/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type SignUpInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
	Name     string `validate:"required"`
	Role     string `validate:"required,oneof=tourist seller"`
}

type SignInInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// UserService registers accounts, checks credentials and rotates tokens.
// Every new account also gets a profile record in the users collection.
type UserService struct {
	repomanager                  repomanager.RepositoryManager
	publisher                    changefeed.Publisher
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	hashParams                   cryptox.Params

	dummyOnce sync.Once
	dummyHash string
}

func NewUserService(m repomanager.RepositoryManager, publisher changefeed.Publisher, cfg *config.Config) *UserService {
	if publisher == nil {
		publisher = changefeed.Fanout{}
	}
	return &UserService{
		repomanager:                  m,
		publisher:                    publisher,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		hashParams:                   cryptox.DefaultParams,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func identityOf(u *models.User) auth.Identity {
	return auth.Identity{UserID: u.ID, Role: u.Role}
}

// profileDocument is the users collection record mirroring u.
func profileDocument(u *models.User) models.Document {
	data := u.Profile()
	delete(data, "id")
	delete(data, "createdAt")
	return models.Document{
		Collection: common.CollectionUsers,
		ID:         u.ID,
		Data:       data,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.CreatedAt,
	}
}

// SignUp creates the account and its profile and signs it in. A taken
// email yields common.ErrAlreadyExists.
func (s *UserService) SignUp(ctx context.Context, in SignUpInput) (*models.User, *TokenPair, error) {
	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(in); err != nil {
		return nil, nil, err
	}

	hash, err := cryptox.HashPassword(in.Password, s.hashParams)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{Email: in.Email, Name: in.Name, Role: in.Role, PasswordHash: hash}

	var (
		pair    *TokenPair
		profile models.Document
	)
	err = s.repomanager.InTx(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		created, err := r.Users.Create(ctx, user)
		if err != nil {
			return err
		}
		user = created

		profile = profileDocument(user)
		if err := r.Documents.Upsert(ctx, profile); err != nil {
			return fmt.Errorf("store profile: %w", err)
		}

		pair, err = s.generateTokenPair(ctx, r, identityOf(user))
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, nil, fmt.Errorf("email %s: %w", in.Email, common.ErrAlreadyExists)
		}
		return nil, nil, fmt.Errorf("error creating user: %w", err)
	}

	s.publisher.Publish(ctx, changefeed.Change{Type: changefeed.ChangeSnapshot, Document: profile})
	return user, pair, nil
}

// verifyDummy spends the same work as a real password check, so a missing
// account cannot be told apart by response time.
func (s *UserService) verifyDummy(password string) {
	s.dummyOnce.Do(func() {
		seed, err := common.MakeRandHexString(16)
		if err != nil {
			return
		}
		s.dummyHash, _ = cryptox.HashPassword(seed, s.hashParams)
	})
	if s.dummyHash != "" {
		_, _ = cryptox.VerifyPassword(password, s.dummyHash)
	}
}

// SignIn checks the credentials and returns a fresh token pair. Unknown
// emails and wrong passwords both yield common.ErrUnauthorized.
func (s *UserService) SignIn(ctx context.Context, in SignInInput) (*models.User, *TokenPair, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validateInput(in); err != nil {
		return nil, nil, err
	}

	user, err := s.repomanager.Repositories().Users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.verifyDummy(in.Password)
			return nil, nil, common.ErrUnauthorized
		}
		return nil, nil, fmt.Errorf("%w: %v", common.ErrInternal, err)
	}

	ok, err := cryptox.VerifyPassword(in.Password, user.PasswordHash)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", common.ErrInternal, err)
	}
	if !ok {
		return nil, nil, common.ErrUnauthorized
	}

	var pair *TokenPair
	err = s.repomanager.InTx(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		pair, err = s.generateTokenPair(ctx, r, identityOf(user))
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// RefreshToken redeems a refresh token once and returns a new pair.
// Expired tokens yield common.ErrRefreshTokenExpired; unknown or already
// redeemed ones common.ErrInvalidToken.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*models.User, *TokenPair, error) {
	if refreshToken == "" {
		return nil, nil, common.ErrInvalidToken
	}

	token, err := s.repomanager.Repositories().RefreshTokens.Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil, common.ErrInvalidToken
		}
		return nil, nil, fmt.Errorf("error searching refresh token: %w", err)
	}
	if token.Expired(time.Now()) {
		return nil, nil, common.ErrRefreshTokenExpired
	}

	var (
		user *models.User
		pair *TokenPair
	)
	err = s.repomanager.InTx(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		if err := r.RefreshTokens.Delete(ctx, refreshToken); err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return common.ErrInvalidToken
			}
			return fmt.Errorf("error deleting refresh token: %w", err)
		}

		u, err := r.Users.GetByID(ctx, token.UserID)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return common.ErrInvalidToken
			}
			return err
		}
		user = u

		pair, err = s.generateTokenPair(ctx, r, identityOf(user))
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Authenticate verifies an access token.
func (s *UserService) Authenticate(accessToken string) (auth.Identity, error) {
	return auth.ParseToken(accessToken, s.jwtSecret)
}

func (s *UserService) generateTokenPair(ctx context.Context, r repomanager.Repositories, id auth.Identity) (*TokenPair, error) {
	access, err := auth.GenerateToken(id, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("%w: sign token: %v", common.ErrInternal, err)
	}
	refresh, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, fmt.Errorf("%w: refresh token: %v", common.ErrInternal, err)
	}
	if err := r.RefreshTokens.Create(ctx, id.UserID, refresh, s.refreshTokenValidityDuration); err != nil {
		return nil, fmt.Errorf("%w: store refresh token: %v", common.ErrInternal, err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
