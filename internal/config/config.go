// Package config loads service configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ServiceConfig identifies the service and its listen ports.
type ServiceConfig struct {
	Principal string
	HTTPPort  string
	GRPCPort  string
}

// KafkaConfig configures the conversation event publisher.
type KafkaConfig struct {
	Enabled      bool
	Brokers      []string
	TopicGating  string
	TopicBargeIn string
	Principal    string
}

// CoordinatorConfig configures the gating coordinator.
type CoordinatorConfig struct {
	CaptureFallbackDelay time.Duration
}

// ObservabilityConfig configures logging and metrics exposition.
type ObservabilityConfig struct {
	LogLevel    string
	LogFormat   string
	MetricsPort string
}

// Configuration is the full service configuration.
type Configuration struct {
	Service       ServiceConfig
	Kafka         KafkaConfig
	Coordinator   CoordinatorConfig
	Observability ObservabilityConfig
}

// Load reads configuration from the environment, after loading a local
// .env file when present.
func Load() *Configuration {
	_ = godotenv.Load()

	principal := envOrDefault("SERVICE_PRINCIPAL", "svc-call-coordinator")

	return &Configuration{
		Service: ServiceConfig{
			Principal: principal,
			HTTPPort:  envOrDefault("HTTP_PORT", "8080"),
			GRPCPort:  envOrDefault("GRPC_PORT", "50051"),
		},
		Kafka: KafkaConfig{
			Enabled:      boolOrDefault("KAFKA_ENABLED", false),
			Brokers:      listOrDefault("KAFKA_BROKERS", nil),
			TopicGating:  envOrDefault("KAFKA_TOPIC_GATING", "conversation.gating"),
			TopicBargeIn: envOrDefault("KAFKA_TOPIC_BARGEIN", "conversation.bargein"),
			Principal:    principal,
		},
		Coordinator: CoordinatorConfig{
			CaptureFallbackDelay: durationOrDefault("CAPTURE_FALLBACK_DELAY", 12*time.Second),
		},
		Observability: ObservabilityConfig{
			LogLevel:    envOrDefault("LOG_LEVEL", "info"),
			LogFormat:   envOrDefault("LOG_FORMAT", "json"),
			MetricsPort: envOrDefault("METRICS_PORT", "9090"),
		},
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func boolOrDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func listOrDefault(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

func durationOrDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
