package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	AuthServiceName     = "turismap.v1.AuthService"
	DocumentServiceName = "turismap.v1.DocumentService"
	MediaServiceName    = "turismap.v1.MediaService"
)

// Full method names, as seen by interceptors.
const (
	MethodSignUp  = "/" + AuthServiceName + "/SignUp"
	MethodSignIn  = "/" + AuthServiceName + "/SignIn"
	MethodRefresh = "/" + AuthServiceName + "/Refresh"
	MethodPing    = "/" + AuthServiceName + "/Ping"

	MethodCreate    = "/" + DocumentServiceName + "/Create"
	MethodPut       = "/" + DocumentServiceName + "/Put"
	MethodGet       = "/" + DocumentServiceName + "/Get"
	MethodQuery     = "/" + DocumentServiceName + "/Query"
	MethodUpdate    = "/" + DocumentServiceName + "/Update"
	MethodDelete    = "/" + DocumentServiceName + "/Delete"
	MethodSubscribe = "/" + DocumentServiceName + "/Subscribe"

	MethodPresignPut = "/" + MediaServiceName + "/PresignPut"
	MethodPresignGet = "/" + MediaServiceName + "/PresignGet"
)

// PublicMethods do not require an access token.
var PublicMethods = map[string]bool{
	MethodSignUp:  true,
	MethodSignIn:  true,
	MethodRefresh: true,
	MethodPing:    true,
}

type unaryFunc func(srv any, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)

func unary(name, fullMethod string, call unaryFunc) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv, ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// AuthServer issues and refreshes sessions.
type AuthServer interface {
	SignUp(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SignIn(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Refresh(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Ping(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var AuthServiceDesc = grpc.ServiceDesc{
	ServiceName: AuthServiceName,
	HandlerType: (*AuthServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("SignUp", MethodSignUp, func(srv any, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
			return srv.(AuthServer).SignUp(ctx, in)
		}),
		unary("SignIn", MethodSignIn, func(srv any, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
			return srv.(AuthServer).SignIn(ctx, in)
		}),
		unary("Refresh", MethodRefresh, func(srv any, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
			return srv.(AuthServer).Refresh(ctx, in)
		}),
		unary("Ping", MethodPing, func(srv any, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
			return srv.(AuthServer).Ping(ctx, in)
		}),
	},
	Metadata: "turismap/v1/turismap.proto",
}

func RegisterAuthServer(s grpc.ServiceRegistrar, srv AuthServer) {
	s.RegisterService(&AuthServiceDesc, srv)
}

// DocumentServer is the generic collection store.
type DocumentServer interface {
	Create(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Put(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Get(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Query(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Update(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Delete(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Subscribe(*structpb.Struct, SubscribeStream) error
}

// SubscribeStream is the server side of a Subscribe call.
type SubscribeStream interface {
	Send(*structpb.Struct) error
	grpc.ServerStream
}

type subscribeStream struct {
	grpc.ServerStream
}

func (x *subscribeStream) Send(m *structpb.Struct) error {
	return x.ServerStream.SendMsg(m)
}

func subscribeHandler(srv any, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(DocumentServer).Subscribe(in, &subscribeStream{stream})
}

var DocumentServiceDesc = grpc.ServiceDesc{
	ServiceName: DocumentServiceName,
	HandlerType: (*DocumentServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Create", MethodCreate, func(srv any, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
			return srv.(DocumentServer).Create(ctx, in)
		}),
		unary("Put", MethodPut, func(srv any, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
			return srv.(DocumentServer).Put(ctx, in)
		}),
		unary("Get", MethodGet, func(srv any, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
			return srv.(DocumentServer).Get(ctx, in)
		}),
		unary("Query", MethodQuery, func(srv any, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
			return srv.(DocumentServer).Query(ctx, in)
		}),
		unary("Update", MethodUpdate, func(srv any, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
			return srv.(DocumentServer).Update(ctx, in)
		}),
		unary("Delete", MethodDelete, func(srv any, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
			return srv.(DocumentServer).Delete(ctx, in)
		}),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Subscribe",
			Handler:       subscribeHandler,
			ServerStreams: true,
		},
	},
	Metadata: "turismap/v1/turismap.proto",
}

func RegisterDocumentServer(s grpc.ServiceRegistrar, srv DocumentServer) {
	s.RegisterService(&DocumentServiceDesc, srv)
}

// MediaServer hands out presigned object storage URLs.
type MediaServer interface {
	PresignPut(context.Context, *structpb.Struct) (*structpb.Struct, error)
	PresignGet(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var MediaServiceDesc = grpc.ServiceDesc{
	ServiceName: MediaServiceName,
	HandlerType: (*MediaServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("PresignPut", MethodPresignPut, func(srv any, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
			return srv.(MediaServer).PresignPut(ctx, in)
		}),
		unary("PresignGet", MethodPresignGet, func(srv any, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
			return srv.(MediaServer).PresignGet(ctx, in)
		}),
	},
	Metadata: "turismap/v1/turismap.proto",
}

func RegisterMediaServer(s grpc.ServiceRegistrar, srv MediaServer) {
	s.RegisterService(&MediaServiceDesc, srv)
}
