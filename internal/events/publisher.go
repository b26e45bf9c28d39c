// Package events provides event publishing functionality.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"ai-call-coordinator-service/internal/observability/metrics"
	"ai-call-coordinator-service/internal/schema"
)

// Publisher publishes conversation events to separate Kafka topics.
type Publisher struct {
	writerGating  *kafka.Writer
	writerBargeIn *kafka.Writer
	principal     string
	topicGating   string
	topicBargeIn  string
	enabled       bool
	metrics       *metrics.Metrics
	validator     *schema.Validator
}

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers      []string
	TopicGating  string
	TopicBargeIn string
	Principal    string
	Enabled      bool
}

// New creates a Kafka event publisher with separate topics for gating and
// barge-in events. With Kafka disabled or no brokers configured the
// publisher runs in log-only mode.
func New(cfg *Config, m *metrics.Metrics) *Publisher {
	validator := schema.New()

	if cfg == nil {
		log.Info().Msg("Kafka disabled (nil config), using log-only mode")
		return &Publisher{
			enabled:   false,
			metrics:   m,
			validator: validator,
		}
	}

	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("Kafka disabled, using log-only mode")
		return &Publisher{
			principal:    cfg.Principal,
			topicGating:  cfg.TopicGating,
			topicBargeIn: cfg.TopicBargeIn,
			enabled:      false,
			metrics:      m,
			validator:    validator,
		}
	}

	// Longer dial timeouts for DNS resolution in Kubernetes
	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}

	transport := &kafka.Transport{
		Dial: dialer.DialFunc,
	}

	writerGating := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.TopicGating,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}

	writerBargeIn := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.TopicBargeIn,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topicGating", cfg.TopicGating).
		Str("topicBargeIn", cfg.TopicBargeIn).
		Str("principal", cfg.Principal).
		Msg("Kafka publisher initialized")

	return &Publisher{
		writerGating:  writerGating,
		writerBargeIn: writerBargeIn,
		principal:     cfg.Principal,
		topicGating:   cfg.TopicGating,
		topicBargeIn:  cfg.TopicBargeIn,
		enabled:       true,
		metrics:       m,
		validator:     validator,
	}
}

// PublishGating publishes a gating lifecycle event to the gating topic.
func (p *Publisher) PublishGating(ctx context.Context, key string, event any) error {
	return p.publish(ctx, p.writerGating, p.topicGating, "gating", key, event)
}

// PublishBargeIn publishes a barge-in event to the barge-in topic.
func (p *Publisher) PublishBargeIn(ctx context.Context, key string, event any) error {
	return p.publish(ctx, p.writerBargeIn, p.topicBargeIn, "bargein", key, event)
}

// publish is the internal method that writes to a specific Kafka writer.
func (p *Publisher) publish(ctx context.Context, writer *kafka.Writer, topic, eventType, key string, event any) error {
	start := time.Now()

	if err := p.validator.Validate(event); err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("Event failed schema validation")
		return err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("Failed to marshal event")
		return err
	}

	log.Debug().
		Str("principal", p.principal).
		Str("topic", topic).
		Str("key", key).
		RawJSON("payload", payload).
		Msg("Publishing event")

	// If Kafka is disabled, just log
	if !p.enabled || writer == nil {
		p.recordPublish(topic, eventType, nil, time.Since(start).Seconds())
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(eventType)},
			{Key: "principal", Value: []byte(p.principal)},
		},
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		log.Error().
			Err(err).
			Str("topic", topic).
			Str("key", key).
			Msg("Failed to write to Kafka")
		p.recordPublish(topic, eventType, err, time.Since(start).Seconds())
		return err
	}

	p.recordPublish(topic, eventType, nil, time.Since(start).Seconds())
	return nil
}

func (p *Publisher) recordPublish(topic, eventType string, err error, latencySeconds float64) {
	if p.metrics == nil {
		return
	}
	p.metrics.RecordEventPublish(topic, eventType, err, latencySeconds)
}

// Close closes both Kafka writers.
func (p *Publisher) Close() error {
	var err error
	if p.writerGating != nil {
		if e := p.writerGating.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing gating writer")
			err = e
		}
	}
	if p.writerBargeIn != nil {
		if e := p.writerBargeIn.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing barge-in writer")
			err = e
		}
	}
	return err
}
