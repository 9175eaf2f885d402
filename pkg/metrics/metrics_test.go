package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserve_CountsRunsAndResponses(t *testing.T) {
	m := NewCascadeMetrics()

	m.Observe("team_change", OutcomeOK, time.Now(), 3, 1, 0)
	m.Observe("team_change", OutcomePartial, time.Now(), 1, 0, 2)

	if got := testutil.ToFloat64(m.runs.WithLabelValues("team_change", OutcomeOK)); got != 1 {
		t.Errorf("期望 ok 次数=1，实际=%v", got)
	}
	if got := testutil.ToFloat64(m.responses.WithLabelValues("team_change", "deleted")); got != 4 {
		t.Errorf("期望删除数=4，实际=%v", got)
	}
	if got := testutil.ToFloat64(m.responses.WithLabelValues("team_change", "failed")); got != 2 {
		t.Errorf("期望失败数=2，实际=%v", got)
	}
}

func TestObserve_NilSafe(t *testing.T) {
	var m *CascadeMetrics
	m.Observe("team_change", OutcomeOK, time.Now(), 1, 1, 1) // 不应 panic
}

func TestHandler_ExposesCascadeMetrics(t *testing.T) {
	m := NewCascadeMetrics()
	m.Observe("email_change", OutcomeOK, time.Now(), 0, 2, 0)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "peer_feedback_cascade_runs_total") {
		t.Error("输出中缺少 peer_feedback_cascade_runs_total")
	}
}
