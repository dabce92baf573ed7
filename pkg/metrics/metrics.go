package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 周循环相关指标
// 使用独立 Registry，测试中可多次创建互不冲突
type Metrics struct {
	registry     *prometheus.Registry
	advanceTotal *prometheus.CounterVec
	loopActive   prometheus.Gauge
}

// Trigger 推进来源
const (
	TriggerCron  = "cron"
	TriggerAdmin = "admin"
)

// New 创建并注册指标
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		advanceTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ojt",
			Name:      "week_advance_total",
			Help:      "Week advance attempts by trigger and outcome.",
		}, []string{"trigger", "outcome"}),
		loopActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ojt",
			Name:      "week_loop_active",
			Help:      "1 when the weekly loop is running.",
		}),
	}
	reg.MustRegister(
		m.advanceTotal,
		m.loopActive,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveAdvance 记录一次推进结果；m 为 nil 时忽略
func (m *Metrics) ObserveAdvance(trigger, outcome string) {
	if m == nil {
		return
	}
	m.advanceTotal.WithLabelValues(trigger, outcome).Inc()
}

// SetLoopActive 更新循环状态指标
func (m *Metrics) SetLoopActive(active bool) {
	if m == nil {
		return
	}
	if active {
		m.loopActive.Set(1)
	} else {
		m.loopActive.Set(0)
	}
}

// Handler 返回 /metrics 处理器
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry 暴露底层 Registry（测试读取）
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
