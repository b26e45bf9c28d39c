package store

import (
	"context"
	"sync"

	"ai-call-coordinator-service/internal/models"
)

// Memory is an in-process Store keyed by call id. Safe for concurrent
// use. Sessions are stored and returned as copies so callers never share
// memory with the store.
type Memory struct {
	mu       sync.RWMutex
	sessions map[string]*models.CallSession
}

// NewMemory creates an empty in-memory session store.
func NewMemory() *Memory {
	return &Memory{
		sessions: make(map[string]*models.CallSession),
	}
}

// GetByCallID returns a copy of the session for callID, or nil when unknown.
func (m *Memory) GetByCallID(ctx context.Context, callID string) (*models.CallSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[callID]
	if !ok {
		return nil, nil
	}
	return s.Clone(), nil
}

// UpsertCall inserts or replaces the session keyed by its call id.
func (m *Memory) UpsertCall(ctx context.Context, session *models.CallSession) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if session == nil || session.CallID == "" {
		return ErrMissingCallID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.CallID] = session.Clone()
	return nil
}

// Delete removes the session for callID. Removing an unknown call is a no-op.
func (m *Memory) Delete(ctx context.Context, callID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, callID)
	return nil
}

// GetAllSessions returns a snapshot of every tracked session.
func (m *Memory) GetAllSessions(ctx context.Context) ([]*models.CallSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.CallSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s.Clone())
	}
	return out, nil
}

// SetGatingToken atomically sets the gating token and disables capture.
func (m *Memory) SetGatingToken(ctx context.Context, callID, token string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[callID]
	if !ok {
		return false, nil
	}
	if s.GatingToken != "" && s.GatingToken != token {
		return false, nil
	}
	s.GatingToken = token
	s.TTSPlaying = true
	s.AudioCaptureEnabled = false
	return true, nil
}

// ClearGatingToken atomically clears a matching gating token and
// re-enables capture. Clearing when no token is present succeeds.
func (m *Memory) ClearGatingToken(ctx context.Context, callID, token string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[callID]
	if !ok {
		return false, nil
	}
	if s.GatingToken != "" && s.GatingToken != token {
		return false, nil
	}
	s.GatingToken = ""
	s.TTSPlaying = false
	s.AudioCaptureEnabled = true
	return true, nil
}
