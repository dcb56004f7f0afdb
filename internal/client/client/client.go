package client

import (
	"context"

	"github.com/dmitrijs2005/turismap/internal/rpc"
)

// Documents is the remote document store contract.
type Documents interface {
	Create(ctx context.Context, collection string, data map[string]any) (string, error)
	Put(ctx context.Context, collection, id string, data map[string]any, merge bool) error
	// Get returns nil and no error when the document does not exist.
	Get(ctx context.Context, collection, id string) (*rpc.Document, error)
	Query(ctx context.Context, collection string, filters ...rpc.Filter) ([]rpc.Document, error)
	Update(ctx context.Context, collection, id string, data map[string]any) error
	Delete(ctx context.Context, collection, id string) error
	// Subscribe calls fn with every new snapshot of the document, or with
	// nil once it is deleted. The returned func releases the subscription
	// and may be called any number of times.
	Subscribe(ctx context.Context, collection, id string, fn func(*rpc.Document)) (func(), error)
}

// Auth is the remote authentication contract.
type Auth interface {
	SignUp(ctx context.Context, creds rpc.Credentials) (rpc.Session, error)
	SignIn(ctx context.Context, email, password string) (rpc.Session, error)
	SignOut()
	Tokens() (access, refresh string)
	SetTokens(access, refresh string)
	Ping(ctx context.Context) error
}

// Media issues presigned object storage URLs.
type Media interface {
	PresignPut(ctx context.Context, contentType string) (key, url string, err error)
	PresignGet(ctx context.Context, key string) (string, error)
}

type Client interface {
	Documents
	Auth
	Media
	Close() error
}
