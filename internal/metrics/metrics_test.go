package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObservePass(t *testing.T) {
	m := New()

	m.ObservePass(map[string]int{"person": 2, "Foreign Object": 1}, true, 0.04)
	m.ObservePass(map[string]int{"person": 1}, false, 0.02)

	if got := testutil.ToFloat64(m.DetectionPasses); got != 2 {
		t.Errorf("passes = %v, expected 2", got)
	}
	if got := testutil.ToFloat64(m.Detections.WithLabelValues("person")); got != 3 {
		t.Errorf("person detections = %v, expected 3", got)
	}
	if got := testutil.ToFloat64(m.Detections.WithLabelValues("Foreign Object")); got != 1 {
		t.Errorf("foreign detections = %v, expected 1", got)
	}
	if got := testutil.ToFloat64(m.AlertActive); got != 0 {
		t.Errorf("alert gauge = %v, expected 0 after clear pass", got)
	}
	if got := testutil.ToFloat64(m.AlertPasses); got != 1 {
		t.Errorf("alert passes = %v, expected 1", got)
	}
	if n := testutil.CollectAndCount(m.PassDuration); n != 1 {
		t.Errorf("histogram series = %d, expected 1", n)
	}
}

func TestHandler_ExposesRegisteredMetrics(t *testing.T) {
	m := New()
	m.ActiveSessions.Inc()
	m.FramesEmitted.Add(5)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		"monitor_active_sessions 1",
		"monitor_frames_emitted_total 5",
		"go_goroutines",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
