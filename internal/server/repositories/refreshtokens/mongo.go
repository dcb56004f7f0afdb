package refreshtokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/turismap/internal/common"
	"github.com/dmitrijs2005/turismap/internal/server/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const MongoCollection = "refresh_tokens"

type mongoToken struct {
	Hash      string    `bson:"_id"`
	UserID    string    `bson:"userId"`
	ExpiresAt time.Time `bson:"expiresAt"`
	CreatedAt time.Time `bson:"createdAt"`
}

// MongoRepository keys tokens by digest. A TTL index on expiresAt lets the
// server drop stale tokens on its own.
type MongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{collection: db.Collection(MongoCollection)}
}

func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expiresAt", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	return err
}

func (r *MongoRepository) Create(ctx context.Context, userID string, token string, validity time.Duration) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	_, err := r.collection.InsertOne(ctx, mongoToken{
		Hash:      digest(token),
		UserID:    userID,
		ExpiresAt: now.Add(validity),
		CreatedAt: now,
	})
	if err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	return nil
}

func (r *MongoRepository) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	var m mongoToken
	if err := r.collection.FindOne(ctx, bson.M{"_id": digest(token)}).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find refresh token: %w", err)
	}
	return &models.RefreshToken{UserID: m.UserID, Token: token, ExpiresAt: m.ExpiresAt, CreatedAt: m.CreatedAt}, nil
}

func (r *MongoRepository) Delete(ctx context.Context, token string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": digest(token)})
	if err != nil {
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}
	if res.DeletedCount == 0 {
		return common.ErrNotFound
	}
	return nil
}
