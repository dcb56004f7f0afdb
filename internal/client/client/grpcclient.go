package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dmitrijs2005/turismap/internal/common"
	"github.com/dmitrijs2005/turismap/internal/rpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type GRPCClient struct {
	endpointURL string
	dialOpts    []grpc.DialOption
	conn        *grpc.ClientConn
	callTimeout time.Duration

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	if token != "" {
		md.Set(common.AccessTokenHeaderName, token)
	}

	return metadata.NewOutgoingContext(ctx, md)
}

func isTokenExpired(err error) bool {
	st, ok := status.FromError(err)
	if !ok {
		return false
	}
	return st.Code() == codes.Unauthenticated && st.Message() == common.ErrTokenExpired.Error()
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if rpc.PublicMethods[method] {
		return invoker(ctx, method, req, reply, cc, opts...)
	}

	access, _ := s.Tokens()
	err := invoker(withAccessToken(ctx, access), method, req, reply, cc, opts...)
	if err == nil || !isTokenExpired(err) {
		return err
	}

	if rerr := s.refresh(ctx); rerr != nil {
		return err
	}

	access, _ = s.Tokens()
	return invoker(withAccessToken(ctx, access), method, req, reply, cc, opts...)
}

func (s *GRPCClient) streamTokenInterceptor(
	ctx context.Context,
	desc *grpc.StreamDesc,
	cc *grpc.ClientConn,
	method string,
	streamer grpc.Streamer,
	opts ...grpc.CallOption,
) (grpc.ClientStream, error) {
	access, _ := s.Tokens()
	return streamer(withAccessToken(ctx, access), desc, cc, method, opts...)
}

// refresh swaps the token pair using the refresh token.
func (s *GRPCClient) refresh(ctx context.Context) error {
	_, refresh := s.Tokens()
	if refresh == "" {
		return common.ErrUnauthorized
	}

	var sess rpc.Session
	if err := rpc.Invoke(ctx, s.conn, rpc.MethodRefresh, rpc.RefreshRequest{RefreshToken: refresh}, &sess); err != nil {
		return err
	}

	s.SetTokens(sess.AccessToken, sess.RefreshToken)
	return nil
}

// NewGRPCClient dials endpointURL lazily. Extra dial options are appended
// after the defaults, so tests can swap the transport.
func NewGRPCClient(endpointURL string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, dialOpts: opts, callTimeout: 10 * time.Second}
	if err := c.InitGRPCClient(); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient() error {
	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor),
		grpc.WithStreamInterceptor(s.streamTokenInterceptor),
	}
	opts = append(opts, s.dialOpts...)

	conn, err := grpc.NewClient(s.endpointURL, opts...)
	if err != nil {
		return err
	}
	s.conn = conn
	return nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func (s *GRPCClient) Tokens() (string, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken, s.refreshToken
}

func (s *GRPCClient) SetTokens(access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = access
	s.refreshToken = refresh
}

func (s *GRPCClient) invoke(ctx context.Context, method string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	if err := rpc.Invoke(ctx, s.conn, method, in, out); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *GRPCClient) SignUp(ctx context.Context, creds rpc.Credentials) (rpc.Session, error) {
	var sess rpc.Session
	if err := s.invoke(ctx, rpc.MethodSignUp, creds, &sess); err != nil {
		return rpc.Session{}, err
	}
	s.SetTokens(sess.AccessToken, sess.RefreshToken)
	return sess, nil
}

func (s *GRPCClient) SignIn(ctx context.Context, email, password string) (rpc.Session, error) {
	var sess rpc.Session
	if err := s.invoke(ctx, rpc.MethodSignIn, rpc.Credentials{Email: email, Password: password}, &sess); err != nil {
		return rpc.Session{}, err
	}
	s.SetTokens(sess.AccessToken, sess.RefreshToken)
	return sess, nil
}

// SignOut forgets the token pair. Tokens are stateless on the server, so
// no call is made.
func (s *GRPCClient) SignOut() {
	s.SetTokens("", "")
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	var resp rpc.PingResponse
	if err := s.invoke(ctx, rpc.MethodPing, struct{}{}, &resp); err != nil {
		return err
	}
	if resp.Status != "OK" {
		return ErrUnavailable
	}
	return nil
}

func (s *GRPCClient) Create(ctx context.Context, collection string, data map[string]any) (string, error) {
	var resp rpc.DocumentResponse
	req := rpc.DocumentRequest{Collection: collection, Data: data}
	if err := s.invoke(ctx, rpc.MethodCreate, req, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (s *GRPCClient) Put(ctx context.Context, collection, id string, data map[string]any, merge bool) error {
	req := rpc.DocumentRequest{Collection: collection, ID: id, Data: data, Merge: merge}
	return s.invoke(ctx, rpc.MethodPut, req, nil)
}

func (s *GRPCClient) Get(ctx context.Context, collection, id string) (*rpc.Document, error) {
	var resp rpc.DocumentResponse
	req := rpc.DocumentRequest{Collection: collection, ID: id}
	if err := s.invoke(ctx, rpc.MethodGet, req, &resp); err != nil {
		return nil, err
	}
	if !resp.Found {
		return nil, nil
	}
	return resp.Document, nil
}

func (s *GRPCClient) Query(ctx context.Context, collection string, filters ...rpc.Filter) ([]rpc.Document, error) {
	var resp rpc.DocumentResponse
	req := rpc.DocumentRequest{Collection: collection, Filters: filters}
	if err := s.invoke(ctx, rpc.MethodQuery, req, &resp); err != nil {
		return nil, err
	}
	return resp.Documents, nil
}

func (s *GRPCClient) Update(ctx context.Context, collection, id string, data map[string]any) error {
	req := rpc.DocumentRequest{Collection: collection, ID: id, Data: data}
	return s.invoke(ctx, rpc.MethodUpdate, req, nil)
}

func (s *GRPCClient) Delete(ctx context.Context, collection, id string) error {
	req := rpc.DocumentRequest{Collection: collection, ID: id}
	return s.invoke(ctx, rpc.MethodDelete, req, nil)
}

func (s *GRPCClient) Subscribe(ctx context.Context, collection, id string, fn func(*rpc.Document)) (func(), error) {
	ctx, cancel := context.WithCancel(ctx)

	stream, err := rpc.Subscribe(ctx, s.conn, rpc.DocumentRequest{Collection: collection, ID: id})
	if err != nil {
		cancel()
		return nil, s.mapError(err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			ev, err := stream.Recv()
			if err != nil {
				return
			}
			switch ev.Type {
			case rpc.EventSnapshot:
				fn(ev.Document)
			case rpc.EventDeleted:
				fn(nil)
			}
		}
	}()

	var once sync.Once
	release := func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}
	return release, nil
}

func (s *GRPCClient) PresignPut(ctx context.Context, contentType string) (string, string, error) {
	var resp rpc.PresignResponse
	if err := s.invoke(ctx, rpc.MethodPresignPut, rpc.PresignRequest{ContentType: contentType}, &resp); err != nil {
		return "", "", err
	}
	return resp.Key, resp.URL, nil
}

func (s *GRPCClient) PresignGet(ctx context.Context, key string) (string, error) {
	var resp rpc.PresignResponse
	if err := s.invoke(ctx, rpc.MethodPresignGet, rpc.PresignRequest{Key: key}, &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) {
		return ErrUnavailable
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return ErrUnauthorized
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	case codes.NotFound:
		return ErrNotFound
	case codes.AlreadyExists:
		return fmt.Errorf("%w: %s", common.ErrAlreadyExists, st.Message())
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", common.ErrValidation, st.Message())
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
