// Package grpc exposes the services over the hand-declared Turismap gRPC
// services.
package grpc

import (
	"context"
	"net"
	"sync"

	"github.com/dmitrijs2005/turismap/internal/logging"
	"github.com/dmitrijs2005/turismap/internal/rpc"
	"github.com/dmitrijs2005/turismap/internal/server/auth"
	"github.com/dmitrijs2005/turismap/internal/server/changefeed"
	"github.com/dmitrijs2005/turismap/internal/server/models"
	"github.com/dmitrijs2005/turismap/internal/server/services"
	"google.golang.org/grpc"
)

type UserService interface {
	SignUp(ctx context.Context, in services.SignUpInput) (*models.User, *services.TokenPair, error)
	SignIn(ctx context.Context, in services.SignInInput) (*models.User, *services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*models.User, *services.TokenPair, error)
	Authenticate(accessToken string) (auth.Identity, error)
}

type DocumentService interface {
	Create(ctx context.Context, caller auth.Identity, collection string, data map[string]any) (models.Document, error)
	Put(ctx context.Context, caller auth.Identity, collection, id string, data map[string]any, merge bool) (models.Document, error)
	Get(ctx context.Context, caller auth.Identity, collection, id string) (*models.Document, error)
	Query(ctx context.Context, caller auth.Identity, collection string, filters []models.Filter) ([]models.Document, error)
	Update(ctx context.Context, caller auth.Identity, collection, id string, partial map[string]any) (models.Document, error)
	Delete(ctx context.Context, caller auth.Identity, collection, id string) error
	Subscribe(ctx context.Context, caller auth.Identity, collection, id string) (*services.Subscription, error)
	Visible(caller auth.Identity, c changefeed.Change) bool
}

type MediaService interface {
	PresignPut(ctx context.Context, caller auth.Identity, contentType string) (key, url string, err error)
	PresignGet(ctx context.Context, caller auth.Identity, key string) (string, error)
}

var (
	_ rpc.AuthServer     = (*GRPCServer)(nil)
	_ rpc.DocumentServer = (*GRPCServer)(nil)
	_ rpc.MediaServer    = (*GRPCServer)(nil)
)

type GRPCServer struct {
	address   string
	users     UserService
	documents DocumentService
	media     MediaService
	logger    logging.Logger

	// shutdown ends open subscriptions, which GracefulStop would wait on.
	shutdown     chan struct{}
	shutdownOnce sync.Once
}

// NewGRPCServer wires the services. media may be nil, in which case the
// media calls answer Unavailable.
func NewGRPCServer(address string, l logging.Logger, us UserService, ds DocumentService, ms MediaService) *GRPCServer {
	return &GRPCServer{
		address:   address,
		logger:    l.With("module", "grpc_server"),
		users:     us,
		documents: ds,
		media:     ms,
		shutdown:  make(chan struct{}),
	}
}

// NewServer builds a grpc.Server with the interceptors and every service
// registered.
func (s *GRPCServer) NewServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{
		grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessTokenInterceptor),
		grpc.ChainStreamInterceptor(s.streamAccessTokenInterceptor),
	}, opts...)

	srv := grpc.NewServer(opts...)
	rpc.RegisterAuthServer(srv, s)
	rpc.RegisterDocumentServer(srv, s)
	rpc.RegisterMediaServer(srv, s)
	return srv
}

// Serve accepts connections on lis until ctx is done.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.NewServer()

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.shutdownOnce.Do(func() { close(s.shutdown) })
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}
	<-stopped
	return nil
}

func (s *GRPCServer) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, lis)
}
