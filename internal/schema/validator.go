// Package schema validates outgoing event envelopes before publish.
package schema

import (
	"fmt"

	"ai-call-coordinator-service/internal/models"
)

type Validator struct{}

func New() *Validator {
	return &Validator{}
}

// Validate checks the required envelope fields of a conversation event.
// Unknown event types pass through untouched.
func (v *Validator) Validate(event any) error {
	switch ev := event.(type) {
	case models.GatingEvent:
		if ev.EventType == "" || ev.CallID == "" || ev.PlaybackID == "" {
			return fmt.Errorf("gating event missing required fields: %+v", ev)
		}
	case models.BargeInEvent:
		if ev.EventType == "" || ev.CallID == "" {
			return fmt.Errorf("barge-in event missing required fields: %+v", ev)
		}
	}
	return nil
}
