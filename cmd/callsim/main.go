// Command callsim drives a scripted call against an in-process gating
// coordinator: register, gate for playback, barge in, complete, then a
// lost end-of-playback signal recovered by the capture fallback.
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"ai-call-coordinator-service/internal/models"
	"ai-call-coordinator-service/internal/observability/logging"
	"ai-call-coordinator-service/internal/observability/metrics"
	"ai-call-coordinator-service/internal/service/coordinator"
	"ai-call-coordinator-service/internal/service/playback"
	"ai-call-coordinator-service/internal/store"
)

func main() {
	logging.Init(logging.Config{Level: "debug", Format: "console", TimeFormat: time.RFC3339})

	ctx := context.Background()
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	sessions := store.NewMemory()

	coord := coordinator.New(sessions, m, nil)
	driver := playback.NewManager(coord, 2*time.Second)
	coord.SetPlaybackManager(driver)

	callId := uuid.NewString()
	session := models.NewCallSession(callId, "+15550100")
	if err := sessions.UpsertCall(ctx, session); err != nil {
		panic(err)
	}
	coord.RegisterCall(ctx, session)

	// Normal episode with a barge-in
	playbackId, ok := driver.BeginPlayback(ctx, callId)
	if !ok {
		panic("playback rejected")
	}
	coord.UpdateConversationState(ctx, callId, models.StateProcessing)

	for i := 0; i < 3; i++ {
		coord.NoteAudioDuringTTS(callId)
	}
	fmt.Printf("interrupted=%v\n", driver.Interrupted(callId))

	driver.CompletePlayback(ctx, callId, playbackId)
	coord.UpdateConversationState(ctx, callId, models.StateListening)

	// Episode whose end signal is lost; fallback re-enables capture
	if _, ok := driver.BeginPlayback(ctx, callId); !ok {
		panic("second playback rejected")
	}
	fmt.Println("waiting for capture fallback...")
	time.Sleep(3 * time.Second)

	got, err := sessions.GetByCallID(ctx, callId)
	if err != nil {
		panic(err)
	}
	fmt.Printf("captureEnabled=%v pendingTimers=%d\n", got.AudioCaptureEnabled, coord.PendingTimerCount())

	summary, err := coord.Summary(ctx)
	if err != nil {
		panic(err)
	}
	fmt.Printf("summary: gating=%d disabled=%d bargeIns=%d\n",
		summary.GatingActive, summary.CaptureDisabled, summary.BargeInTotal)

	coord.UnregisterCall(ctx, callId)
	driver.Forget(callId)
	if err := sessions.Delete(ctx, callId); err != nil {
		panic(err)
	}
}
