package events

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"ai-call-coordinator-service/internal/models"
	"ai-call-coordinator-service/internal/observability/metrics"
)

func testMetrics() *metrics.Metrics {
	return metrics.New(prometheus.NewRegistry())
}

func TestNew_DisabledMode(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"disabled", &Config{Enabled: false, Brokers: []string{"localhost:9092"}}},
		{"no brokers", &Config{Enabled: true, Brokers: []string{}}},
		{"nil brokers", &Config{Enabled: true, Brokers: nil}},
		{"nil config", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.cfg, testMetrics())
			if p == nil {
				t.Fatal("expected non-nil publisher")
			}
			if p.enabled {
				t.Error("expected publisher to be disabled")
			}
			if p.writerGating != nil {
				t.Error("expected nil gating writer when disabled")
			}
			if p.writerBargeIn != nil {
				t.Error("expected nil barge-in writer when disabled")
			}
		})
	}
}

func TestNew_ConfigValues(t *testing.T) {
	cfg := &Config{
		Enabled:      false,
		Brokers:      []string{"localhost:9092"},
		TopicGating:  "test.gating",
		TopicBargeIn: "test.bargein",
		Principal:    "test-principal",
	}

	p := New(cfg, testMetrics())

	if p.principal != "test-principal" {
		t.Errorf("expected principal 'test-principal', got %s", p.principal)
	}
	if p.topicGating != "test.gating" {
		t.Errorf("expected gating topic 'test.gating', got %s", p.topicGating)
	}
	if p.topicBargeIn != "test.bargein" {
		t.Errorf("expected barge-in topic 'test.bargein', got %s", p.topicBargeIn)
	}
}

func TestPublishGating_Disabled(t *testing.T) {
	p := New(&Config{Enabled: false}, testMetrics())

	ev := models.GatingEvent{
		EventType:  models.EventGatingStarted,
		CallID:     "c1",
		PlaybackID: "p1",
		Timestamp:  time.Now().UnixMilli(),
	}
	if err := p.PublishGating(context.Background(), "c1", ev); err != nil {
		t.Errorf("expected no error when disabled, got %v", err)
	}
}

func TestPublishBargeIn_Disabled(t *testing.T) {
	p := New(&Config{Enabled: false}, testMetrics())

	ev := models.BargeInEvent{
		EventType: models.EventBargeIn,
		CallID:    "c1",
		Total:     1,
		Timestamp: time.Now().UnixMilli(),
	}
	if err := p.PublishBargeIn(context.Background(), "c1", ev); err != nil {
		t.Errorf("expected no error when disabled, got %v", err)
	}
}

func TestPublish_RejectsInvalidEnvelope(t *testing.T) {
	p := New(&Config{Enabled: false}, testMetrics())

	// Missing call id fails schema validation
	ev := models.GatingEvent{EventType: models.EventGatingStarted, PlaybackID: "p1"}
	if err := p.PublishGating(context.Background(), "c1", ev); err == nil {
		t.Error("expected validation error for incomplete envelope")
	}
}

func TestPublish_InvalidJSON(t *testing.T) {
	p := New(&Config{Enabled: false}, testMetrics())

	// Channels are not marshalable
	event := make(chan int)
	if err := p.PublishGating(context.Background(), "c1", event); err == nil {
		t.Error("expected error for unmarshalable event")
	}
}

func TestPublisher_Close_NoWriters(t *testing.T) {
	p := New(&Config{Enabled: false}, testMetrics())

	if err := p.Close(); err != nil {
		t.Errorf("expected no error closing disabled publisher, got %v", err)
	}
}

func TestPublisher_NilMetrics(t *testing.T) {
	p := New(&Config{Enabled: false}, nil)

	ev := models.BargeInEvent{
		EventType: models.EventBargeIn,
		CallID:    "c1",
		Timestamp: time.Now().UnixMilli(),
	}
	if err := p.PublishBargeIn(context.Background(), "c1", ev); err != nil {
		t.Errorf("expected no error with nil metrics, got %v", err)
	}
}
