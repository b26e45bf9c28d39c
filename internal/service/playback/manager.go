// Package playback drives TTS playback episodes against the gating
// coordinator. It owns the interrupt policy: the coordinator reports
// barge-in attempts, the manager decides what to do with them.
package playback

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ai-call-coordinator-service/internal/observability/logging"
	"ai-call-coordinator-service/internal/service/coordinator"
)

// Manager coordinates playback episodes for active calls. It satisfies
// coordinator.PlaybackManager and must be attached with
// SetPlaybackManager after both sides are constructed.
type Manager struct {
	coord         *coordinator.Coordinator
	fallbackDelay time.Duration
	log           zerolog.Logger

	mu          sync.Mutex
	interrupted map[string]bool
}

// NewManager creates a playback manager. fallbackDelay bounds how long
// capture may stay disabled if the end-of-playback signal is lost.
func NewManager(coord *coordinator.Coordinator, fallbackDelay time.Duration) *Manager {
	return &Manager{
		coord:         coord,
		fallbackDelay: fallbackDelay,
		log:           logging.WithComponent("playback-manager"),
		interrupted:   make(map[string]bool),
	}
}

// BeginPlayback mints a playback id and gates audio capture for it. On
// success a capture fallback is scheduled so the call can never be left
// deaf, and the episode's interrupt flag is cleared. Returns ok=false
// when another episode is still gating the call; no audio must be
// emitted then.
func (m *Manager) BeginPlayback(ctx context.Context, callId string) (string, bool) {
	playbackId := uuid.NewString()
	if !m.coord.OnTTSStart(ctx, callId, playbackId) {
		m.log.Warn().Str("callId", callId).Msg("Playback rejected, another episode is gating")
		return "", false
	}

	m.mu.Lock()
	delete(m.interrupted, callId)
	m.mu.Unlock()

	m.coord.ScheduleCaptureFallback(callId, m.fallbackDelay)
	m.log.Info().Str("callId", callId).Str("playbackId", playbackId).Msg("Playback started")
	return playbackId, true
}

// CompletePlayback ungates capture when playback finishes normally.
// Returns false when the episode's token was already superseded.
func (m *Manager) CompletePlayback(ctx context.Context, callId, playbackId string) bool {
	return m.coord.OnTTSEnd(ctx, callId, playbackId, "playback-finished")
}

// AbortPlayback ungates capture when playback failed to produce audio.
func (m *Manager) AbortPlayback(ctx context.Context, callId, playbackId string) {
	m.coord.CancelTTS(ctx, callId, playbackId)
}

// NotifyBargeIn records that the caller interrupted the current episode.
// The synthesis loop polls Interrupted to stop feeding audio.
func (m *Manager) NotifyBargeIn(callId string) {
	m.mu.Lock()
	m.interrupted[callId] = true
	m.mu.Unlock()
	m.log.Info().Str("callId", callId).Msg("Barge-in reported, stopping playback feed")
}

// Interrupted reports whether the current episode for callId was barged
// into.
func (m *Manager) Interrupted(callId string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.interrupted[callId]
}

// Forget drops interrupt tracking for a call that has ended.
func (m *Manager) Forget(callId string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.interrupted, callId)
}
