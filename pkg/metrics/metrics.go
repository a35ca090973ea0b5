package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 認可判定の結果ラベル。
const (
	ResultAllow = "allow"
	ResultDeny  = "deny"
	ResultSkip  = "skip"
)

// Metrics はプロキシが記録するメトリクスの集合。
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	guardDecisions  *prometheus.CounterVec
	backendErrors   *prometheus.CounterVec
	backendDuration *prometheus.HistogramVec
}

// New は新しいレジストリにメトリクスを登録して返す。
// プロセス全体のデフォルトレジストリは使用しない。
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "herald",
				Name:      "requests_total",
				Help:      "Total number of proxied requests (unknown domains use an empty domain label)",
			},
			[]string{"domain", "method", "status"},
		),
		guardDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "herald",
				Name:      "guard_decisions_total",
				Help:      "Total number of authorization decisions",
			},
			[]string{"result"},
		),
		backendErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "herald",
				Name:      "backend_errors_total",
				Help:      "Total number of backend transport failures",
			},
			[]string{"domain"},
		),
		backendDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "herald",
				Name:      "backend_duration_seconds",
				Help:      "Duration of backend round trips",
				Buckets: []float64{
					.001, .005, .01, .025,
					.05, .1, .25, .5,
					1, 2.5, 5, 10,
				},
			},
			[]string{"domain"},
		),
	}
}

// ObserveRequest は処理済みリクエストを1件記録する。
func (m *Metrics) ObserveRequest(domain, method string, status int) {
	m.requestsTotal.WithLabelValues(domain, method, strconv.Itoa(status)).Inc()
}

// ObserveGuard は認可判定の結果を1件記録する。
func (m *Metrics) ObserveGuard(result string) {
	m.guardDecisions.WithLabelValues(result).Inc()
}

// ObserveBackend はバックエンド呼び出しの所要時間と失敗を記録する。
func (m *Metrics) ObserveBackend(domain string, elapsed time.Duration, failed bool) {
	m.backendDuration.WithLabelValues(domain).Observe(elapsed.Seconds())
	if failed {
		m.backendErrors.WithLabelValues(domain).Inc()
	}
}

// Handler はメトリクスを公開するHTTPハンドラを返す。
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}
