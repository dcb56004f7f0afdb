// Package users stores accounts and their credentials.
package users

import (
	"context"

	"github.com/dmitrijs2005/turismap/internal/server/models"
)

type Repository interface {
	// Create assigns user.ID when it is empty. A taken email yields
	// common.ErrAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}
