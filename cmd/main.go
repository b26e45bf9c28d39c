package main

import (
	"context"
	"net"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"ai-call-coordinator-service/internal/app"
	"ai-call-coordinator-service/internal/config"
	"ai-call-coordinator-service/internal/events"
	httpapi "ai-call-coordinator-service/internal/http"
	"ai-call-coordinator-service/internal/observability"
	"ai-call-coordinator-service/internal/observability/metrics"
	"ai-call-coordinator-service/internal/service/coordinator"
	"ai-call-coordinator-service/internal/service/playback"
	"ai-call-coordinator-service/internal/store"
)

func main() {
	cfg := config.Load()
	application := app.New(cfg)
	logger := application.Logger

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	sessions := store.NewMemory()

	// Kafka publisher with separate topics for gating and barge-in events
	publisher := events.New(&events.Config{
		Enabled:      cfg.Kafka.Enabled,
		Brokers:      cfg.Kafka.Brokers,
		TopicGating:  cfg.Kafka.TopicGating,
		TopicBargeIn: cfg.Kafka.TopicBargeIn,
		Principal:    cfg.Kafka.Principal,
	}, m)
	defer publisher.Close()

	coord := coordinator.New(sessions, m, publisher)
	driver := playback.NewManager(coord, cfg.Coordinator.CaptureFallbackDelay)
	coord.SetPlaybackManager(driver)

	// Metrics exposition
	obs := observability.NewServer(":"+cfg.Observability.MetricsPort, registry)
	obs.Start()

	// Health/summary surface
	httpServer := &stdhttp.Server{
		Addr:    ":" + cfg.Service.HTTPPort,
		Handler: httpapi.NewRouter(application, coord),
	}
	go func() {
		logger.Info().Str("addr", httpServer.Addr).Msg("Starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			logger.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	lis, err := net.Listen("tcp", ":"+cfg.Service.GRPCPort)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to listen")
	}

	server := grpc.NewServer()

	// Register gRPC health check service for container probes
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(server, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)

	// Enable gRPC reflection for debugging tools like grpcurl
	reflection.Register(server)

	go func() {
		logger.Info().Str("port", cfg.Service.GRPCPort).Msg("gRPC server started")
		if err := server.Serve(lis); err != nil {
			logger.Fatal().Err(err).Msg("gRPC serve failed")
		}
	}()

	if err := application.Start(); err != nil {
		logger.Fatal().Err(err).Msg("Application start failed")
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info().Msg("Shutting down")
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	server.GracefulStop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctx)
	_ = obs.Shutdown(ctx)
	application.Shutdown()
}
