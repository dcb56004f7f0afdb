package repomanager

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/turismap/internal/server/repositories/documents"
	"github.com/dmitrijs2005/turismap/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/turismap/internal/server/repositories/users"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoRepositoryManager works on standalone deployments too, so InTx
// only serializes units of work within this process.
type MongoRepositoryManager struct {
	client *mongo.Client
	mu     sync.Mutex

	users  *users.MongoRepository
	tokens *refreshtokens.MongoRepository
	docs   *documents.MongoRepository
}

// OpenMongo connects to uri and checks the connection.
func OpenMongo(ctx context.Context, uri, database string) (*MongoRepositoryManager, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return NewMongoRepositoryManager(client, client.Database(database)), nil
}

func NewMongoRepositoryManager(client *mongo.Client, db *mongo.Database) *MongoRepositoryManager {
	return &MongoRepositoryManager{
		client: client,
		users:  users.NewMongoRepository(db),
		tokens: refreshtokens.NewMongoRepository(db),
		docs:   documents.NewMongoRepository(db),
	}
}

func (m *MongoRepositoryManager) Repositories() Repositories {
	return Repositories{Users: m.users, RefreshTokens: m.tokens, Documents: m.docs}
}

func (m *MongoRepositoryManager) InTx(ctx context.Context, fn func(ctx context.Context, r Repositories) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx, m.Repositories())
}

// RunMigrations creates the indexes the account stores rely on.
func (m *MongoRepositoryManager) RunMigrations(ctx context.Context) error {
	if err := m.users.EnsureIndexes(ctx); err != nil {
		return err
	}
	return m.tokens.EnsureIndexes(ctx)
}

func (m *MongoRepositoryManager) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

func (m *MongoRepositoryManager) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
