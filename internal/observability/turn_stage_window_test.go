package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestStageWindowSnapshot(t *testing.T) {
	w := NewStageWindow(8)
	w.Observe("dispatch_searchable", 500)
	w.Observe("dispatch_searchable", 700)
	w.Observe("dispatch_searchable", 900)
	w.Observe("", 10)
	w.Observe("translate", -1)
	w.ObserveIndicator("openrouter_network")
	w.ObserveIndicator("openrouter_network")

	snap := w.Snapshot()
	if snap.WindowSize != 8 {
		t.Fatalf("WindowSize = %d, want 8", snap.WindowSize)
	}
	if len(snap.Stages) != 1 {
		t.Fatalf("len(Stages) = %d, want 1", len(snap.Stages))
	}
	s := snap.Stages[0]
	if s.Samples != 3 || s.LastMS != 900 || s.P50MS != 700 {
		t.Fatalf("stage = %+v, want 3 samples, last 900, p50 700", s)
	}
	if s.P95MS <= 700 || s.P95MS > 900 {
		t.Fatalf("P95MS = %.2f, want (700,900]", s.P95MS)
	}
	if s.TargetP95MS != 2500 {
		t.Fatalf("TargetP95MS = %.2f, want 2500", s.TargetP95MS)
	}
	if len(snap.Indicators) != 1 || snap.Indicators[0].Count != 2 {
		t.Fatalf("Indicators = %+v, want openrouter_network x2", snap.Indicators)
	}
}

func TestStageWindowWrapsAround(t *testing.T) {
	w := NewStageWindow(3)
	for i := 1; i <= 5; i++ {
		w.Observe("translate", float64(i*100))
	}
	s := w.Snapshot().Stages[0]
	if s.Samples != 3 {
		t.Fatalf("Samples = %d, want 3", s.Samples)
	}
	if s.AvgMS != 400 {
		t.Fatalf("AvgMS = %.2f, want 400 over the last three samples", s.AvgMS)
	}

	w.Reset()
	if got := len(w.Snapshot().Stages); got != 0 {
		t.Fatalf("Stages after Reset = %d, want 0", got)
	}
}

func TestMetricsRecordOnPrivateRegistry(t *testing.T) {
	m := NewMetrics("zoya_test", prometheus.NewRegistry())
	m.ObserveTurn("searchable", "duckduckgo", 120*time.Millisecond)
	m.ObserveFailure("openrouter", "auth")
	m.ObserveInterrupt()
	m.SetConversationMessages(7)

	if got := testutil.ToFloat64(m.Turns.WithLabelValues("searchable", "duckduckgo")); got != 1 {
		t.Fatalf("turns = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.BackendFailures.WithLabelValues("openrouter", "auth")); got != 1 {
		t.Fatalf("failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ConversationMessages); got != 7 {
		t.Fatalf("conversation_messages = %v, want 7", got)
	}
	if got := len(m.Stages().Stages); got != 1 {
		t.Fatalf("stages = %d, want turn_total", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveTurn("personal", "canned", time.Millisecond)
	m.ObserveFailure("x", "y")
	m.ObserveInterrupt()
	m.ObserveSessionEvent("start")
	m.SetConversationMessages(1)
	m.ObserveStage("classify", time.Millisecond)
	_ = m.Stages()
}
