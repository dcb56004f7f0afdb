// Package rpc declares the Turismap gRPC services by hand. Every message is
// a google.protobuf.Struct, so the wire stays plain protobuf while the Go
// side works with ordinary tagged structs converted by Encode and Decode.
package rpc

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Encode converts v to a Struct through its JSON form, so json tags, time
// values and typed slices all map to the obvious Struct representation.
func Encode(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	st := &structpb.Struct{}
	if err := protojson.Unmarshal(b, st); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return st, nil
}

// Decode fills v from st. A nil Struct leaves v untouched.
func Decode(st *structpb.Struct, v any) error {
	if st == nil {
		return nil
	}
	b, err := protojson.Marshal(st)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

// ToMap converts any JSON-serializable value into a generic document body.
func ToMap(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// FromMap is the inverse of ToMap.
func FromMap(m map[string]any, v any) error {
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}
