package grpc

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/turismap/internal/common"
	"github.com/dmitrijs2005/turismap/internal/rpc"
	"github.com/dmitrijs2005/turismap/internal/server/auth"
	"github.com/dmitrijs2005/turismap/internal/server/changefeed"
	"github.com/dmitrijs2005/turismap/internal/server/models"
	"github.com/dmitrijs2005/turismap/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// toStatus maps service errors to the codes clients switch on.
func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, common.ErrTokenExpired):
		return status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
	case errors.Is(err, common.ErrValidation), errors.Is(err, common.ErrUnknownCollection):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, common.ErrAlreadyExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, common.ErrUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrRefreshTokenExpired):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, common.ErrForbidden):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		s.logger.Error(ctx, "internal error", "error", err)
		return status.Error(codes.Internal, "internal error")
	}
}

func decode(in *structpb.Struct, v any) error {
	if err := rpc.Decode(in, v); err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return nil
}

func (s *GRPCServer) reply(ctx context.Context, v any) (*structpb.Struct, error) {
	out, err := rpc.Encode(v)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return out, nil
}

func caller(ctx context.Context) (auth.Identity, error) {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		return auth.Identity{}, status.Error(codes.Unauthenticated, "missing token")
	}
	return id, nil
}

// toWire puts the server-owned timestamps back into the body.
func toWire(d models.Document) rpc.Document {
	data := models.CloneData(d.Data)
	if data == nil {
		data = map[string]any{}
	}
	data["createdAt"] = d.CreatedAt.UTC().Format(time.RFC3339Nano)
	data["updatedAt"] = d.UpdatedAt.UTC().Format(time.RFC3339Nano)
	return rpc.Document{ID: d.ID, Data: data}
}

func toFilters(in []rpc.Filter) []models.Filter {
	out := make([]models.Filter, 0, len(in))
	for _, f := range in {
		out = append(out, models.Filter{Field: f.Field, Op: f.Op, Value: f.Value})
	}
	return out
}

func (s *GRPCServer) session(ctx context.Context, u *models.User, pair *services.TokenPair) (*structpb.Struct, error) {
	return s.reply(ctx, rpc.Session{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		Profile:      u.Profile(),
	})
}

// --- auth ---

func (s *GRPCServer) SignUp(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req rpc.Credentials
	if err := decode(in, &req); err != nil {
		return nil, err
	}

	u, pair, err := s.users.SignUp(ctx, services.SignUpInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Role:     req.Role,
	})
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	s.logger.Info(ctx, "Registered", "user_id", u.ID, "role", u.Role)
	return s.session(ctx, u, pair)
}

func (s *GRPCServer) SignIn(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req rpc.Credentials
	if err := decode(in, &req); err != nil {
		return nil, err
	}

	u, pair, err := s.users.SignIn(ctx, services.SignInInput{Email: req.Email, Password: req.Password})
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return s.session(ctx, u, pair)
}

func (s *GRPCServer) Refresh(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req rpc.RefreshRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}

	u, pair, err := s.users.RefreshToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return s.session(ctx, u, pair)
}

func (s *GRPCServer) Ping(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return s.reply(ctx, rpc.PingResponse{Status: "OK"})
}

// --- documents ---

func (s *GRPCServer) documentRequest(ctx context.Context, in *structpb.Struct) (auth.Identity, rpc.DocumentRequest, error) {
	var req rpc.DocumentRequest
	id, err := caller(ctx)
	if err != nil {
		return id, req, err
	}
	if err := decode(in, &req); err != nil {
		return id, req, err
	}
	return id, req, nil
}

func (s *GRPCServer) Create(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, req, err := s.documentRequest(ctx, in)
	if err != nil {
		return nil, err
	}

	d, err := s.documents.Create(ctx, id, req.Collection, req.Data)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	w := toWire(d)
	return s.reply(ctx, rpc.DocumentResponse{ID: d.ID, Found: true, Document: &w})
}

func (s *GRPCServer) Put(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, req, err := s.documentRequest(ctx, in)
	if err != nil {
		return nil, err
	}

	d, err := s.documents.Put(ctx, id, req.Collection, req.ID, req.Data, req.Merge)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	w := toWire(d)
	return s.reply(ctx, rpc.DocumentResponse{ID: d.ID, Found: true, Document: &w})
}

// Get answers Found=false for a missing record instead of an error.
func (s *GRPCServer) Get(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, req, err := s.documentRequest(ctx, in)
	if err != nil {
		return nil, err
	}

	d, err := s.documents.Get(ctx, id, req.Collection, req.ID)
	if errors.Is(err, common.ErrNotFound) {
		return s.reply(ctx, rpc.DocumentResponse{ID: req.ID})
	}
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	w := toWire(*d)
	return s.reply(ctx, rpc.DocumentResponse{ID: d.ID, Found: true, Document: &w})
}

func (s *GRPCServer) Query(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, req, err := s.documentRequest(ctx, in)
	if err != nil {
		return nil, err
	}

	docs, err := s.documents.Query(ctx, id, req.Collection, toFilters(req.Filters))
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	resp := rpc.DocumentResponse{Documents: make([]rpc.Document, 0, len(docs))}
	for _, d := range docs {
		resp.Documents = append(resp.Documents, toWire(d))
	}
	return s.reply(ctx, resp)
}

func (s *GRPCServer) Update(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, req, err := s.documentRequest(ctx, in)
	if err != nil {
		return nil, err
	}

	d, err := s.documents.Update(ctx, id, req.Collection, req.ID, req.Data)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	w := toWire(d)
	return s.reply(ctx, rpc.DocumentResponse{ID: d.ID, Found: true, Document: &w})
}

func (s *GRPCServer) Delete(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, req, err := s.documentRequest(ctx, in)
	if err != nil {
		return nil, err
	}

	if err := s.documents.Delete(ctx, id, req.Collection, req.ID); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return s.reply(ctx, rpc.DocumentResponse{ID: req.ID})
}

func event(typ string, d *models.Document) rpc.Event {
	if typ == changefeed.ChangeDeleted || d == nil {
		return rpc.Event{Type: rpc.EventDeleted}
	}
	w := toWire(*d)
	return rpc.Event{Type: rpc.EventSnapshot, Document: &w}
}

func (s *GRPCServer) send(stream rpc.SubscribeStream, ev rpc.Event) error {
	out, err := rpc.Encode(ev)
	if err != nil {
		return s.toStatus(stream.Context(), err)
	}
	return stream.Send(out)
}

// Subscribe sends the current state first, a deleted event when there is
// none, then one event per change until the client goes away.
func (s *GRPCServer) Subscribe(in *structpb.Struct, stream rpc.SubscribeStream) error {
	ctx := stream.Context()
	id, req, err := s.documentRequest(ctx, in)
	if err != nil {
		return err
	}

	sub, err := s.documents.Subscribe(ctx, id, req.Collection, req.ID)
	if err != nil {
		return s.toStatus(ctx, err)
	}
	defer sub.Cancel()

	if err := s.send(stream, event(changefeed.ChangeSnapshot, sub.Current)); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.shutdown:
			return nil
		case c, ok := <-sub.Changes:
			if !ok {
				return nil
			}
			if !s.documents.Visible(id, c) {
				continue
			}
			if err := s.send(stream, event(c.Type, &c.Document)); err != nil {
				return err
			}
		}
	}
}

// --- media ---

func (s *GRPCServer) mediaRequest(ctx context.Context, in *structpb.Struct) (auth.Identity, rpc.PresignRequest, error) {
	var req rpc.PresignRequest
	id, err := caller(ctx)
	if err != nil {
		return id, req, err
	}
	if s.media == nil {
		return id, req, status.Error(codes.Unavailable, "media storage is not configured")
	}
	if err := decode(in, &req); err != nil {
		return id, req, err
	}
	return id, req, nil
}

func (s *GRPCServer) PresignPut(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, req, err := s.mediaRequest(ctx, in)
	if err != nil {
		return nil, err
	}

	key, url, err := s.media.PresignPut(ctx, id, req.ContentType)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return s.reply(ctx, rpc.PresignResponse{Key: key, URL: url})
}

func (s *GRPCServer) PresignGet(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, req, err := s.mediaRequest(ctx, in)
	if err != nil {
		return nil, err
	}

	url, err := s.media.PresignGet(ctx, id, req.Key)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return s.reply(ctx, rpc.PresignResponse{Key: req.Key, URL: url})
}
