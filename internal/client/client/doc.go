// Package client talks to the Turismap backend.
//
// GRPCClient implements the Client contract over gRPC: it keeps the
// connection, attaches the access token to every call, refreshes it once
// when the server reports it expired, and maps gRPC status codes to the
// sentinel errors in package common (ErrRemoteUnavailable, ErrNotFound,
// ErrUnauthorized, ErrValidation).
//
// InitDatabase opens the local SQLite cache and applies the embedded goose
// migrations.
package client
