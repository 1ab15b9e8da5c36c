package session

import (
	"context"
	"errors"
)

var ErrSessionNotFound = errors.New("session not found")

// Store keeps server-side sessions keyed by an opaque session id.
type Store interface {
	Save(ctx context.Context, sessionID string, userID int64) error
	Lookup(ctx context.Context, sessionID string) (int64, error)
	Delete(ctx context.Context, sessionID string) error
}
