package users

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/turismap/internal/common"
	"github.com/dmitrijs2005/turismap/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMongoRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("create", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		r := NewMongoRepository(mt.DB)
		u, err := r.Create(context.Background(), &models.User{Email: "ana@example.com", Role: models.RoleTourist})
		require.NoError(mt, err)
		assert.NotEmpty(mt, u.ID)
	})

	mt.Run("duplicate email", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))

		r := NewMongoRepository(mt.DB)
		_, err := r.Create(context.Background(), &models.User{Email: "ana@example.com"})
		assert.ErrorIs(mt, err, common.ErrAlreadyExists)
	})

	mt.Run("get by email", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + MongoCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "u-1"},
			{Key: "email", Value: "ana@example.com"},
			{Key: "name", Value: "Ana"},
			{Key: "role", Value: "tourist"},
			{Key: "passwordHash", Value: "h"},
			{Key: "createdAt", Value: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		}))

		r := NewMongoRepository(mt.DB)
		u, err := r.GetByEmail(context.Background(), "ana@example.com")
		require.NoError(mt, err)
		assert.Equal(mt, "u-1", u.ID)
		assert.Equal(mt, "h", u.PasswordHash)
	})

	mt.Run("not found", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + MongoCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		r := NewMongoRepository(mt.DB)
		_, err := r.GetByID(context.Background(), "ghost")
		assert.ErrorIs(mt, err, common.ErrNotFound)
	})
}
