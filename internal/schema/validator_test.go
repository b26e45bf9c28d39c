package schema

import (
	"testing"

	"ai-call-coordinator-service/internal/models"
)

func TestValidate_GatingEvent(t *testing.T) {
	v := New()

	valid := models.GatingEvent{
		EventType:  models.EventGatingStarted,
		CallID:     "c1",
		PlaybackID: "p1",
		Timestamp:  1,
	}
	if err := v.Validate(valid); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	missing := models.GatingEvent{EventType: models.EventGatingStarted, CallID: "c1"}
	if err := v.Validate(missing); err == nil {
		t.Error("expected error for missing playback id")
	}
}

func TestValidate_BargeInEvent(t *testing.T) {
	v := New()

	valid := models.BargeInEvent{EventType: models.EventBargeIn, CallID: "c1", Total: 1}
	if err := v.Validate(valid); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if err := v.Validate(models.BargeInEvent{}); err == nil {
		t.Error("expected error for empty envelope")
	}
}

func TestValidate_UnknownTypePassesThrough(t *testing.T) {
	v := New()

	if err := v.Validate(map[string]string{"k": "v"}); err != nil {
		t.Errorf("unknown event types should pass, got %v", err)
	}
}
