package models

// Event types published to the conversation topics.
const (
	EventGatingStarted = "conversation.gating.started"
	EventGatingCleared = "conversation.gating.cleared"
	EventBargeIn       = "conversation.bargein.detected"
)

// GatingEvent is emitted when a playback episode gates or ungates audio
// capture for a call.
type GatingEvent struct {
	EventType  string `json:"eventType"`
	CallID     string `json:"callId"`
	PlaybackID string `json:"playbackId"`
	Reason     string `json:"reason,omitempty"`
	Timestamp  int64  `json:"timestamp"`
}

// BargeInEvent is emitted once per gating episode when the caller is
// detected speaking over active playback.
type BargeInEvent struct {
	EventType string `json:"eventType"`
	CallID    string `json:"callId"`
	Total     int64  `json:"total"`
	Timestamp int64  `json:"timestamp"`
}
