package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics はアプリケーションのメトリクスを管理する
type Metrics struct {
	// HTTPリクエストの総数（method, path, status_code）
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPリクエストのレイテンシ（method, path）
	HTTPRequestDuration *prometheus.HistogramVec

	// 販売処理の結果（status: success, not_found, policy_rejected, seat_unavailable, payment_declined, conflict, error）
	TicketSalesTotal *prometheus.CounterVec

	// 販売処理の所要時間（status）
	TicketSaleDuration *prometheus.HistogramVec

	// 検索キャッシュの参照結果（result: hit, miss, error）
	SearchCacheRequestsTotal *prometheus.CounterVec

	// 座席表の生成結果（result: created, already_exists, error）
	SeatMapGenerationsTotal *prometheus.CounterVec
}

// New は新しいMetricsインスタンスを作成し、デフォルトレジストリに登録する
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry は指定したレジストリにメトリクスを登録する
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		TicketSalesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ticket_sales_total",
				Help: "Total number of ticket sale attempts by outcome",
			},
			[]string{"status"},
		),
		TicketSaleDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ticket_sale_duration_seconds",
				Help:    "Time spent processing a ticket sale",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"status"},
		),
		SearchCacheRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "search_cache_requests_total",
				Help: "Journey search cache lookups by result",
			},
			[]string{"result"},
		),
		SeatMapGenerationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seat_map_generations_total",
				Help: "Lazy seat map generation attempts by result",
			},
			[]string{"result"},
		),
	}

	// レジストリに登録
	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.TicketSalesTotal,
		m.TicketSaleDuration,
		m.SearchCacheRequestsTotal,
		m.SeatMapGenerationsTotal,
	)

	return m
}

// ObserveSale は販売結果を記録する。nilの場合は何もしない
func (m *Metrics) ObserveSale(status string, seconds float64) {
	if m == nil {
		return
	}
	m.TicketSalesTotal.WithLabelValues(status).Inc()
	m.TicketSaleDuration.WithLabelValues(status).Observe(seconds)
}

// ObserveSearchCache は検索キャッシュの参照結果を記録する
func (m *Metrics) ObserveSearchCache(result string) {
	if m == nil {
		return
	}
	m.SearchCacheRequestsTotal.WithLabelValues(result).Inc()
}

// ObserveSeatMapGeneration は座席表生成の結果を記録する
func (m *Metrics) ObserveSeatMapGeneration(result string) {
	if m == nil {
		return
	}
	m.SeatMapGenerationsTotal.WithLabelValues(result).Inc()
}

// デフォルトのメトリクスインスタンス
var defaultMetrics *Metrics

// Init はデフォルトのメトリクスインスタンスを初期化する
func Init() *Metrics {
	defaultMetrics = New()
	return defaultMetrics
}

// Get はデフォルトのメトリクスインスタンスを返す
func Get() *Metrics {
	return defaultMetrics
}
