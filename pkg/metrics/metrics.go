package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 级联结果标签
const (
	OutcomeOK      = "ok"
	OutcomePartial = "partial" // 有单条失败但继续执行
	OutcomeError   = "error"
	OutcomeBusy    = "busy" // 同一学生的级联正在进行
)

// CascadeMetrics 名册级联指标
type CascadeMetrics struct {
	registry *prometheus.Registry

	runs      *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	responses *prometheus.CounterVec
}

// NewCascadeMetrics 创建独立 Registry 并注册全部指标
func NewCascadeMetrics() *CascadeMetrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &CascadeMetrics{
		registry: reg,
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "peer_feedback",
			Name:      "cascade_runs_total",
			Help:      "Roster-change cascades by operation and outcome.",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "peer_feedback",
			Name:      "cascade_duration_seconds",
			Help:      "Roster-change cascade latency.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		}, []string{"operation"}),
		responses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "peer_feedback",
			Name:      "cascade_responses_total",
			Help:      "Responses touched by cascades, by action (deleted, updated, failed).",
		}, []string{"operation", "action"}),
	}
	reg.MustRegister(m.runs, m.duration, m.responses)
	return m
}

// Observe 记录一次级联；m 为 nil 时不做任何事
func (m *CascadeMetrics) Observe(operation, outcome string, started time.Time, deleted, updated, failed int) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(operation, outcome).Inc()
	m.duration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
	m.responses.WithLabelValues(operation, "deleted").Add(float64(deleted))
	m.responses.WithLabelValues(operation, "updated").Add(float64(updated))
	m.responses.WithLabelValues(operation, "failed").Add(float64(failed))
}

// Registry 暴露底层 Registry（测试读取指标）
func (m *CascadeMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler /metrics 端点
func (m *CascadeMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
