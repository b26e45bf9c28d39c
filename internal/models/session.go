// Package models defines the data structures shared across the service.
package models

import "time"

// Conversation states tracked by the state gauge. Anything else is
// rejected by the coordinator.
const (
	StateGreeting   = "greeting"
	StateListening  = "listening"
	StateProcessing = "processing"
)

// ConversationStates lists the accepted conversation states in gauge
// label order.
var ConversationStates = []string{StateGreeting, StateListening, StateProcessing}

// ValidConversationState reports whether state is one of the accepted
// conversation states.
func ValidConversationState(state string) bool {
	for _, s := range ConversationStates {
		if s == state {
			return true
		}
	}
	return false
}

// CallSession is the per-call record held by the session store.
//
// AudioCaptureEnabled is false exactly while a gating token is present,
// apart from the short window where the capture fallback re-enables
// capture before a stale token is cleared.
type CallSession struct {
	CallID              string    `json:"callId"`
	CallerID            string    `json:"callerId,omitempty"`
	AudioCaptureEnabled bool      `json:"audioCaptureEnabled"`
	GatingToken         string    `json:"gatingToken,omitempty"`
	TTSPlaying          bool      `json:"ttsPlaying"`
	ConversationState   string    `json:"conversationState"`
	StartedAt           time.Time `json:"startedAt"`
}

// NewCallSession returns a session with capture enabled and the initial
// greeting state.
func NewCallSession(callID, callerID string) *CallSession {
	return &CallSession{
		CallID:              callID,
		CallerID:            callerID,
		AudioCaptureEnabled: true,
		ConversationState:   StateGreeting,
		StartedAt:           time.Now().UTC(),
	}
}

// Clone returns a copy of the session so callers can mutate it without
// sharing memory with the store.
func (s *CallSession) Clone() *CallSession {
	cp := *s
	return &cp
}
