// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層およびミドルウェアから利用する。
type MetricsCollector interface {
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
	RecordCompetitionCreated()
	RecordCompetitionUpdated()
	RecordCompetitionDeleted()
	RecordJoin()
	SetEventSubscribers(count int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpStatus          *prometheus.CounterVec
	requestLatency      prometheus.Histogram
	competitionsCreated prometheus.Counter
	competitionsUpdated prometheus.Counter
	competitionsDeleted prometheus.Counter
	joins               prometheus.Counter
	eventSubscribers    prometheus.Gauge
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taikai_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "taikai_request_latency_seconds",
			Help:    "HTTPリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		competitionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taikai_competitions_created_total",
			Help: "作成された大会の合計数",
		}),
		competitionsUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taikai_competitions_updated_total",
			Help: "更新された大会の合計数",
		}),
		competitionsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taikai_competitions_deleted_total",
			Help: "削除された大会の合計数",
		}),
		joins: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taikai_joins_total",
			Help: "参加登録の合計数",
		}),
		eventSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "taikai_event_subscribers",
			Help: "変更通知ストリームの現在の購読者数",
		}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.requestLatency,
		c.competitionsCreated,
		c.competitionsUpdated,
		c.competitionsDeleted,
		c.joins,
		c.eventSubscribers,
	)

	return c
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエストのレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// RecordCompetitionCreated は大会の作成を記録する。
func (c *Collector) RecordCompetitionCreated() {
	c.competitionsCreated.Inc()
}

// RecordCompetitionUpdated は大会の更新を記録する。
func (c *Collector) RecordCompetitionUpdated() {
	c.competitionsUpdated.Inc()
}

// RecordCompetitionDeleted は大会の削除を記録する。
func (c *Collector) RecordCompetitionDeleted() {
	c.competitionsDeleted.Inc()
}

// RecordJoin は参加登録を記録する。
func (c *Collector) RecordJoin() {
	c.joins.Inc()
}

// SetEventSubscribers は変更通知ストリームの購読者数を設定する。
func (c *Collector) SetEventSubscribers(count int) {
	c.eventSubscribers.Set(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
