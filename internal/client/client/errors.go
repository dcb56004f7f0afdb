package client

import "github.com/dmitrijs2005/turismap/internal/common"

// Aliases kept so callers of this package can match transport failures
// without importing common.
var (
	ErrUnavailable  = common.ErrRemoteUnavailable
	ErrUnauthorized = common.ErrUnauthorized
	ErrNotFound     = common.ErrNotFound
)
