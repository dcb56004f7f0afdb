package rpc

import (
	"context"
	"errors"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Invoke encodes in, performs the unary call and decodes the reply into out
// (out may be nil).
func Invoke(ctx context.Context, cc grpc.ClientConnInterface, method string, in, out any, opts ...grpc.CallOption) error {
	req, err := Encode(in)
	if err != nil {
		return err
	}
	reply := new(structpb.Struct)
	if err := cc.Invoke(ctx, method, req, reply, opts...); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return Decode(reply, out)
}

// EventStream is the client side of a Subscribe call.
type EventStream struct {
	stream grpc.ClientStream
}

// Subscribe opens the server stream for req.
func Subscribe(ctx context.Context, cc grpc.ClientConnInterface, req DocumentRequest, opts ...grpc.CallOption) (*EventStream, error) {
	stream, err := cc.NewStream(ctx, &DocumentServiceDesc.Streams[0], MethodSubscribe, opts...)
	if err != nil {
		return nil, err
	}
	in, err := Encode(req)
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return &EventStream{stream: stream}, nil
}

// Recv blocks for the next event. It returns io.EOF when the server ends
// the stream.
func (s *EventStream) Recv() (Event, error) {
	m := new(structpb.Struct)
	if err := s.stream.RecvMsg(m); err != nil {
		if errors.Is(err, io.EOF) {
			return Event{}, io.EOF
		}
		return Event{}, err
	}
	var ev Event
	err := Decode(m, &ev)
	return ev, err
}
