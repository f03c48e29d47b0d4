package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"chunkscheduler/internal/world"
)

func TestPrometheusSinkRecordsAllMethodsWithoutPanicking(t *testing.T) {
	sink := NewPrometheusSink(DefaultConfig())

	sink.SetQueueDepth(3)
	sink.IncDroppedNodes()
	sink.SetInFlight(world.Noise, 1)
	sink.SetInFlight(world.Noise, -1)
	sink.ObserveStageDuration(world.Surface, 0.25)
	sink.IncStageResult(world.Surface, true)
	sink.IncStageResult(world.Surface, false)
	sink.SetHolders(12)
	sink.ObserveChainLength(6)
}

func TestPrometheusSinkHandlerExportsRegisteredMetrics(t *testing.T) {
	sink := NewPrometheusSink(DefaultConfig())
	sink.SetQueueDepth(7)
	sink.IncStageResult(world.Full, true)
	sink.ObserveChainLength(4)

	req := httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody)
	w := httptest.NewRecorder()
	sink.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	body := w.Body.String()
	if !strings.Contains(body, "chunkscheduler_ready_queue_depth") {
		t.Error("expected ready_queue_depth metric in output")
	}
	if !strings.Contains(body, "chunkscheduler_stage_results_total") {
		t.Error("expected stage_results_total metric in output")
	}
	if !strings.Contains(body, "chunkscheduler_chain_length_stages") {
		t.Error("expected chain_length_stages metric in output")
	}
}
