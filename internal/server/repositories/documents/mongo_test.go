package documents

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/turismap/internal/common"
	"github.com/dmitrijs2005/turismap/internal/server/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMongoFilter(t *testing.T) {
	got, err := mongoFilter([]models.Filter{
		{Field: "userId", Op: models.OpEqual, Value: "u1"},
		{Field: "placeIds", Op: models.OpArrayContains, Value: "p1"},
	})
	require.NoError(t, err)
	want := bson.D{{Key: "data.userId", Value: "u1"}, {Key: "data.placeIds", Value: "p1"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("filter mismatch (-want +got):\n%s", diff)
	}

	_, err = mongoFilter([]models.Filter{{Field: "price", Op: "<", Value: 3}})
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestMongoRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("get", func(mt *mtest.T) {
		at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+".plans", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "p1"},
			{Key: "data", Value: bson.D{{Key: "name", Value: "Rio"}, {Key: "places", Value: bson.A{"a", "b"}}}},
			{Key: "createdAt", Value: at},
			{Key: "updatedAt", Value: at},
		}))

		r := NewMongoRepository(mt.DB)
		got, err := r.Get(context.Background(), "plans", "p1")
		require.NoError(mt, err)
		assert.Equal(mt, "Rio", got.Data["name"])
		assert.Equal(mt, []any{"a", "b"}, got.Data["places"])
		assert.True(mt, got.CreatedAt.Equal(at))
	})

	mt.Run("get missing", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+".plans", mtest.FirstBatch))

		r := NewMongoRepository(mt.DB)
		_, err := r.Get(context.Background(), "plans", "nope")
		assert.ErrorIs(mt, err, common.ErrNotFound)
	})

	mt.Run("insert duplicate", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key error"}))

		r := NewMongoRepository(mt.DB)
		err := r.Insert(context.Background(), models.Document{Collection: "plans", ID: "p1"})
		assert.ErrorIs(mt, err, common.ErrAlreadyExists)
	})

	mt.Run("replace missing", func(mt *mtest.T) {
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 0}, {Key: "nModified", Value: 0}})

		r := NewMongoRepository(mt.DB)
		err := r.Replace(context.Background(), models.Document{Collection: "plans", ID: "p1"})
		assert.ErrorIs(mt, err, common.ErrNotFound)
	})

	mt.Run("query", func(mt *mtest.T) {
		ns := mt.DB.Name() + ".favorites"
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "f1"}, {Key: "data", Value: bson.D{{Key: "userId", Value: "u1"}}}},
			bson.D{{Key: "_id", Value: "f2"}, {Key: "data", Value: bson.D{{Key: "userId", Value: "u1"}}}},
		))

		r := NewMongoRepository(mt.DB)
		got, err := r.Query(context.Background(), "favorites", []models.Filter{{Field: "userId", Op: models.OpEqual, Value: "u1"}})
		require.NoError(mt, err)
		require.Len(mt, got, 2)
		assert.Equal(mt, "f2", got[1].ID)
		assert.Equal(mt, "favorites", got[1].Collection)
	})
}
