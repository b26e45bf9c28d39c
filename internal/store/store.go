// Package store holds call session records and the atomic gating-token
// operations the coordinator relies on.
package store

import (
	"context"
	"errors"

	"ai-call-coordinator-service/internal/models"
)

// ErrMissingCallID is returned when a session without a call id is upserted.
var ErrMissingCallID = errors.New("call id is required")

// Store is the session record contract. Implementations must treat
// SetGatingToken and ClearGatingToken as strict compare-and-set: a token
// that does not match is rejected, never overwritten.
type Store interface {
	// GetByCallID returns the session for callID, or nil when unknown.
	GetByCallID(ctx context.Context, callID string) (*models.CallSession, error)

	// UpsertCall inserts or replaces the session keyed by its call id.
	UpsertCall(ctx context.Context, session *models.CallSession) error

	// GetAllSessions returns a snapshot of every tracked session.
	GetAllSessions(ctx context.Context) ([]*models.CallSession, error)

	// SetGatingToken sets the gating token for callID and disables audio
	// capture. Returns true if the token was absent or already equal to
	// token; false if a different token is active or the call is unknown.
	SetGatingToken(ctx context.Context, callID, token string) (bool, error)

	// ClearGatingToken clears the gating token for callID and re-enables
	// audio capture. Returns true if the token was absent already or
	// matched token and is now cleared; false otherwise.
	ClearGatingToken(ctx context.Context, callID, token string) (bool, error)
}
