package documents

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

type mongoDocument struct {
	ID        string    `bson:"_id"`
	Data      bson.M    `bson:"data"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

func (m mongoDocument) model(collection string) models.Document {
	data, _ := models.Normalize(map[string]any(m.Data)).(map[string]any)
	return models.Document{
		Collection: collection,
		ID:         m.ID,
		Data:       data,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

// MongoRepository maps each collection to a Mongo collection of the same
// name. The body sits under "data" so it can never clash with _id.
type MongoRepository struct {
	db *mongo.Database
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{db: db}
}

func (r *MongoRepository) Insert(ctx context.Context, doc models.Document) error {
	_, err := r.db.Collection(doc.Collection).InsertOne(ctx, mongoDocument{
		ID:        doc.ID,
		Data:      bson.M(doc.Data),
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

func (r *MongoRepository) Upsert(ctx context.Context, doc models.Document) error {
	update := bson.M{
		"$set":         bson.M{"data": bson.M(doc.Data), "updatedAt": doc.UpdatedAt},
		"$setOnInsert": bson.M{"createdAt": doc.CreatedAt},
	}
	_, err := r.db.Collection(doc.Collection).UpdateByID(ctx, doc.ID, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}
	return nil
}

func (r *MongoRepository) Get(ctx context.Context, collection, id string) (*models.Document, error) {
	var m mongoDocument
	if err := r.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find document: %w", err)
	}
	doc := m.model(collection)
	return &doc, nil
}

// mongoFilter translates filters. Mongo equality on an array field already
// means "contains", so both operators map to the same clause.
func mongoFilter(filters []models.Filter) (bson.D, error) {
	out := bson.D{}
	for _, f := range filters {
		switch f.Op {
		case models.OpEqual, models.OpArrayContains:
			out = append(out, bson.E{Key: "data." + f.Field, Value: f.Value})
		default:
			return nil, fmt.Errorf("%w: unsupported operator %q", common.ErrValidation, f.Op)
		}
	}
	return out, nil
}

func (r *MongoRepository) Query(ctx context.Context, collection string, filters []models.Filter) ([]models.Document, error) {
	filter, err := mongoFilter(filters)
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.db.Collection(collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer cursor.Close(ctx)

	var found []mongoDocument
	if err := cursor.All(ctx, &found); err != nil {
		return nil, fmt.Errorf("failed to decode documents: %w", err)
	}

	out := make([]models.Document, 0, len(found))
	for _, m := range found {
		out = append(out, m.model(collection))
	}
	return out, nil
}

func (r *MongoRepository) Replace(ctx context.Context, doc models.Document) error {
	update := bson.M{"$set": bson.M{"data": bson.M(doc.Data), "updatedAt": doc.UpdatedAt}}
	res, err := r.db.Collection(doc.Collection).UpdateByID(ctx, doc.ID, update)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	if res.MatchedCount == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *MongoRepository) Delete(ctx context.Context, collection, id string) error {
	res, err := r.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if res.DeletedCount == 0 {
		return common.ErrNotFound
	}
	return nil
}
