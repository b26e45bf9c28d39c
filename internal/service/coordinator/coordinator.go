// Package coordinator gates upstream audio capture around TTS playback
// episodes, detects barge-in attempts, and keeps the conversation
// metrics in sync with the session store.
package coordinator

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"ai-call-coordinator-service/internal/events"
	"ai-call-coordinator-service/internal/models"
	"ai-call-coordinator-service/internal/observability/logging"
	"ai-call-coordinator-service/internal/observability/metrics"
	"ai-call-coordinator-service/internal/store"
)

// PlaybackManager is the optional collaborator notified when a caller
// interrupts active playback. It is attached after construction because
// the playback driver itself depends on the coordinator.
type PlaybackManager interface {
	NotifyBargeIn(callId string)
}

// Summary aggregates conversation gating counters for health reporting.
type Summary struct {
	GatingActive    int   `json:"gating_active"`
	CaptureDisabled int   `json:"capture_disabled"`
	BargeInTotal    int64 `json:"barge_in_total"`
}

// Coordinator is the single source of truth for audio-capture gating
// decisions. Per-call ephemeral state (barge-in flags, totals, fallback
// timers) lives here and is created on RegisterCall and discarded on
// UnregisterCall; the durable session record belongs to the store.
//
// All gating mutations go through the store's compare-and-set token
// operations, which resolve any ordering ambiguity between racing
// start/end notifications.
type Coordinator struct {
	store   store.Store
	metrics *metrics.Metrics
	events  *events.Publisher
	log     zerolog.Logger

	mu          sync.Mutex
	playback    PlaybackManager
	bargeSeen   map[string]bool
	bargeTotals map[string]int64
	fallbacks   map[string]*fallbackTask
}

// New creates a coordinator backed by the given session store. The event
// publisher may be nil when conversation events are not wanted.
func New(s store.Store, m *metrics.Metrics, pub *events.Publisher) *Coordinator {
	return &Coordinator{
		store:       s,
		metrics:     m,
		events:      pub,
		log:         logging.WithComponent("conversation-coordinator"),
		bargeSeen:   make(map[string]bool),
		bargeTotals: make(map[string]int64),
		fallbacks:   make(map[string]*fallbackTask),
	}
}

// SetPlaybackManager attaches the playback manager after construction.
// The coordinator tolerates the reference being unset and skips the
// barge-in notification until it is attached.
func (c *Coordinator) SetPlaybackManager(pm PlaybackManager) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playback = pm
}

// RegisterCall initialises ephemeral state for a newly tracked call.
// Idempotent; re-registering the same call id preserves its barge-in
// total and clears any stray fallback left from a prior lifecycle.
func (c *Coordinator) RegisterCall(ctx context.Context, session *models.CallSession) {
	c.log.Debug().Str("callId", session.CallID).Msg("Registering call")

	c.mu.Lock()
	c.bargeSeen[session.CallID] = false
	if _, ok := c.bargeTotals[session.CallID]; !ok {
		c.bargeTotals[session.CallID] = 0
	}
	c.mu.Unlock()

	c.cancelCaptureFallback(session.CallID)
	c.refreshMetrics(ctx)
}

// UnregisterCall discards all ephemeral state for a call. Any pending
// fallback is cancelled and awaited first, so no timer can fire after
// the call has been torn down.
func (c *Coordinator) UnregisterCall(ctx context.Context, callId string) {
	c.log.Debug().Str("callId", callId).Msg("Unregistering call")

	c.cancelCaptureFallback(callId)

	c.mu.Lock()
	delete(c.bargeSeen, callId)
	delete(c.bargeTotals, callId)
	c.mu.Unlock()

	c.refreshMetrics(ctx)
}

// SyncFromSession refreshes gauges after an externally applied session
// change.
func (c *Coordinator) SyncFromSession(ctx context.Context, session *models.CallSession) {
	c.refreshMetrics(ctx)
}

// OnTTSStart gates audio capture for a playback episode. Returns false
// when a different episode is already gating the call or the store
// rejects the mutation; the playback driver must not emit audio then.
func (c *Coordinator) OnTTSStart(ctx context.Context, callId, playbackId string) bool {
	c.log.Info().
		Str("callId", callId).
		Str("playbackId", playbackId).
		Msg("Gating audio capture for playback")

	ok, err := c.store.SetGatingToken(ctx, callId, playbackId)
	if err != nil {
		c.log.Error().Err(err).Str("callId", callId).Msg("Gating token set failed")
		return false
	}
	if !ok {
		return false
	}

	c.mu.Lock()
	c.bargeSeen[callId] = false
	c.mu.Unlock()

	c.refreshMetrics(ctx)
	c.publishGating(ctx, models.EventGatingStarted, callId, playbackId, "")
	return true
}

// OnTTSEnd clears the gating token set by playbackId and re-enables
// capture. A stale end notification carrying an old playback id is
// rejected and leaves the newer episode's gating intact. The reason is
// diagnostic only.
func (c *Coordinator) OnTTSEnd(ctx context.Context, callId, playbackId, reason string) bool {
	c.log.Info().
		Str("callId", callId).
		Str("playbackId", playbackId).
		Str("reason", reason).
		Msg("Clearing audio capture gating")

	ok, err := c.store.ClearGatingToken(ctx, callId, playbackId)
	if err != nil {
		c.log.Error().Err(err).Str("callId", callId).Msg("Gating token clear failed")
		return false
	}
	if !ok {
		return false
	}

	c.mu.Lock()
	c.bargeSeen[callId] = false
	c.mu.Unlock()

	c.refreshMetrics(ctx)
	c.publishGating(ctx, models.EventGatingCleared, callId, playbackId, reason)
	return true
}

// CancelTTS clears gating when playback fails before producing audio.
func (c *Coordinator) CancelTTS(ctx context.Context, callId, playbackId string) {
	c.OnTTSEnd(ctx, callId, playbackId, "playback-cancelled")
}

// NoteAudioDuringTTS records a barge-in attempt. Only the first audio
// chunk of a gating episode counts; later chunks are no-ops until the
// episode ends or a new one starts. Unknown calls get ephemeral state
// lazily so accounting survives out-of-order arrival.
func (c *Coordinator) NoteAudioDuringTTS(callId string) {
	c.mu.Lock()
	if _, ok := c.bargeSeen[callId]; !ok {
		c.bargeSeen[callId] = false
	}
	if _, ok := c.bargeTotals[callId]; !ok {
		c.bargeTotals[callId] = 0
	}
	if c.bargeSeen[callId] {
		c.mu.Unlock()
		return
	}
	c.bargeSeen[callId] = true
	c.bargeTotals[callId]++
	total := c.bargeTotals[callId]
	pm := c.playback
	c.mu.Unlock()

	c.log.Debug().Str("callId", callId).Int64("total", total).Msg("Barge-in attempt detected")
	c.metrics.RecordBargeIn()

	if pm != nil {
		pm.NotifyBargeIn(callId)
	}
	c.publishBargeIn(callId, total)
}

// UpdateConversationState persists a conversation state change and
// reflects it in the state gauge. Unknown states, unknown calls and
// unchanged states are benign no-ops.
func (c *Coordinator) UpdateConversationState(ctx context.Context, callId, state string) {
	if !models.ValidConversationState(state) {
		c.log.Debug().Str("callId", callId).Str("state", state).Msg("Unknown conversation state requested")
		return
	}
	session, err := c.store.GetByCallID(ctx, callId)
	if err != nil {
		c.log.Debug().Err(err).Str("callId", callId).Msg("Conversation state read failed")
		return
	}
	if session == nil {
		c.log.Debug().Str("callId", callId).Msg("Conversation state update for unknown call")
		return
	}
	if session.ConversationState == state {
		return
	}
	session.ConversationState = state
	if err := c.store.UpsertCall(ctx, session); err != nil {
		c.log.Warn().Err(err).Str("callId", callId).Msg("Conversation state write failed")
		return
	}
	c.refreshMetrics(ctx)
}

// ScheduleCaptureFallback arranges for capture to be re-enabled after
// delay if the normal end-of-playback path never runs. At most one
// fallback is live per call; scheduling again supersedes the previous
// one (cancelled and awaited before the replacement is installed).
func (c *Coordinator) ScheduleCaptureFallback(callId string, delay time.Duration) {
	c.log.Info().
		Str("callId", callId).
		Dur("delay", delay).
		Int("pendingTimers", c.PendingTimerCount()+1).
		Msg("Scheduling capture fallback")

	c.cancelCaptureFallback(callId)

	t := newFallbackTask()
	c.mu.Lock()
	c.fallbacks[callId] = t
	c.mu.Unlock()

	go c.runCaptureFallback(t, callId, delay)
}

// PendingTimerCount returns the number of fallback actions scheduled and
// not yet resolved. Diagnostic only.
func (c *Coordinator) PendingTimerCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.fallbacks {
		if t.Pending() {
			n++
		}
	}
	return n
}

// Summary computes aggregate gating counters from a fresh store snapshot
// plus the per-call barge-in totals of currently tracked calls.
func (c *Coordinator) Summary(ctx context.Context) (Summary, error) {
	sessions, err := c.store.GetAllSessions(ctx)
	if err != nil {
		return Summary{}, err
	}

	var out Summary
	for _, s := range sessions {
		if s.TTSPlaying {
			out.GatingActive++
		}
		if !s.AudioCaptureEnabled {
			out.CaptureDisabled++
		}
	}

	c.mu.Lock()
	for _, n := range c.bargeTotals {
		out.BargeInTotal += n
	}
	c.mu.Unlock()

	return out, nil
}

// runCaptureFallback is the body of a scheduled fallback task. After the
// delay it re-validates the capture flag from the store rather than
// trusting the state seen at scheduling time. A panic here is contained
// to this task; other calls' timers are unaffected.
func (c *Coordinator) runCaptureFallback(t *fallbackTask, callId string, delay time.Duration) {
	defer t.finish()
	defer func() {
		if r := recover(); r != nil {
			c.log.Error().Str("callId", callId).Interface("panic", r).Msg("Capture fallback failed")
		}
	}()

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-t.ctx.Done():
		c.log.Info().Str("callId", callId).Str("reason", "task_cancelled").Msg("Capture fallback cancelled")
		return
	case <-timer.C:
	}

	session, err := c.store.GetByCallID(t.ctx, callId)
	if err != nil {
		c.log.Debug().Err(err).Str("callId", callId).Msg("Capture fallback session read failed")
		return
	}
	if session == nil || session.AudioCaptureEnabled {
		return
	}

	// Last cancellation check before the recovery effect.
	select {
	case <-t.ctx.Done():
		c.log.Info().Str("callId", callId).Str("reason", "task_cancelled").Msg("Capture fallback cancelled")
		return
	default:
	}

	session.AudioCaptureEnabled = true
	if err := c.store.UpsertCall(t.ctx, session); err != nil {
		c.log.Error().Err(err).Str("callId", callId).Msg("Capture fallback write failed")
		return
	}
	c.refreshMetrics(t.ctx)
	c.log.Info().
		Str("callId", callId).
		Str("result", "capture_re_enabled").
		Msg("Capture fallback executed")
}

// cancelCaptureFallback removes the call's fallback task and waits for
// it to terminate. No-op when none is scheduled.
func (c *Coordinator) cancelCaptureFallback(callId string) {
	c.mu.Lock()
	t, ok := c.fallbacks[callId]
	if ok {
		delete(c.fallbacks, callId)
	}
	c.mu.Unlock()
	if ok {
		t.Cancel()
	}
}

// refreshMetrics recomputes the gauges from a full store snapshot. A
// failed snapshot read only skips the refresh; the next state-affecting
// event restores consistency.
func (c *Coordinator) refreshMetrics(ctx context.Context) {
	sessions, err := c.store.GetAllSessions(ctx)
	if err != nil {
		c.log.Debug().Err(err).Msg("Metrics refresh skipped, session snapshot unavailable")
		return
	}

	gatingActive := 0
	captureDisabled := 0
	stateCounts := make(map[string]int, len(models.ConversationStates))
	for _, s := range sessions {
		if s.TTSPlaying {
			gatingActive++
		}
		if !s.AudioCaptureEnabled {
			captureDisabled++
		}
		stateCounts[s.ConversationState]++
	}

	c.metrics.SetGatingActive(gatingActive)
	c.metrics.SetCaptureDisabled(captureDisabled)
	for _, state := range models.ConversationStates {
		c.metrics.SetConversationState(state, stateCounts[state])
	}
}

func (c *Coordinator) publishGating(ctx context.Context, eventType, callId, playbackId, reason string) {
	if c.events == nil {
		return
	}
	ev := models.GatingEvent{
		EventType:  eventType,
		CallID:     callId,
		PlaybackID: playbackId,
		Reason:     reason,
		Timestamp:  time.Now().UnixMilli(),
	}
	if err := c.events.PublishGating(ctx, callId, ev); err != nil {
		c.log.Warn().Err(err).Str("callId", callId).Msg("Gating event publish failed")
	}
}

func (c *Coordinator) publishBargeIn(callId string, total int64) {
	if c.events == nil {
		return
	}
	ev := models.BargeInEvent{
		EventType: models.EventBargeIn,
		CallID:    callId,
		Total:     total,
		Timestamp: time.Now().UnixMilli(),
	}
	if err := c.events.PublishBargeIn(context.Background(), callId, ev); err != nil {
		c.log.Warn().Err(err).Str("callId", callId).Msg("Barge-in event publish failed")
	}
}
