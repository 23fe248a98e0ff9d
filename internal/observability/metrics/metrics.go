package metrics

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"strconv"
)

type Outcome string

const (
	Success                  Outcome       = "success"
	Error                    Outcome       = "error"
	MetricRequestTimeout     time.Duration = 5 * time.Second
	MetricRequestIdleTimeout time.Duration = 10 * time.Second
)

func (O Outcome) String() string {
	return string(O)
}

var (
	once                           sync.Once
	metricsRouter                  *chi.Mux
	oracleClientLatency            *prometheus.HistogramVec
	queueSendErrorCounter          prometheus.Counter
	clientRequestDurationHistogram *prometheus.HistogramVec
	pollerDurationHistogram        *prometheus.HistogramVec
	assessmentDecisionCounter      *prometheus.CounterVec
	monitoringRunDuration          *prometheus.HistogramVec
	priceEventProcessingDuration   *prometheus.HistogramVec
	protocolRiskScoreGauge         prometheus.Gauge
	aggregateLtvGauge              prometheus.Gauge
	totalValueLockedGauge          prometheus.Gauge
	atRiskPositionsGauge           prometheus.Gauge
	emergencyModeGauge             prometheus.Gauge
	dbLatency                      *prometheus.HistogramVec
)

// Init initializes the metrics package.
func Init(metricsPort int) {
	once.Do(func() {
		initMetricsRouter(metricsPort)
		registerMetrics()
	})
}

// initMetricsRouter initializes the metrics router.
func initMetricsRouter(metricsPort int) {
	metricsRouter = chi.NewRouter()
	metricsRouter.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})
	// Create a custom server with timeout settings
	metricsAddr := fmt.Sprintf(":%d", metricsPort)
	server := &http.Server{
		Addr:         metricsAddr,
		Handler:      metricsRouter,
		ReadTimeout:  MetricRequestTimeout,
		WriteTimeout: MetricRequestTimeout,
		IdleTimeout:  MetricRequestIdleTimeout,
	}

	// Start the server in a separate goroutine
	go func() {
		log.Printf("Starting metrics server on %s", metricsAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msgf("Error starting metrics server on %s", metricsAddr)
		}
	}()
}

// registerMetrics initializes and register the Prometheus metrics.
func registerMetrics() {
	defaultHistogramBucketsSeconds := []float64{0.1, 0.5, 1, 2.5, 5, 10, 30}

	// client requests are the ones sending to other service
	clientRequestDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "client_request_duration_seconds",
			Help:    "Histogram of outgoing client request durations in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"baseurl", "method", "path", "status"},
	)

	oracleClientLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "oracle_client_latency_seconds",
			Help:    "Histogram of price oracle client durations in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"method", "status"},
	)

	// add a counter for the number of errors from the fail to push message into queue
	queueSendErrorCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "queue_send_error_count",
			Help: "The total number of errors when sending messages to the queue",
		},
	)

	pollerDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "poller_duration_seconds",
			Help:    "Histogram of poller durations in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"type", "status"},
	)

	assessmentDecisionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_assessment_decisions_total",
			Help: "Borrowing risk assessment outcomes split by decision and rejection reason",
		},
		[]string{"decision", "reason"},
	)

	monitoringRunDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "risk_monitoring_run_duration_seconds",
			Help:    "Monitoring engine run duration in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"status"},
	)

	priceEventProcessingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "price_event_processing_duration_seconds",
			Help:    "Queued price update processing duration in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"status", "retry"},
	)

	protocolRiskScoreGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "protocol_risk_score",
			Help: "Protocol risk score from the last monitoring run",
		},
	)

	aggregateLtvGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "protocol_aggregate_ltv",
			Help: "Aggregate loan-to-value percent from the last monitoring run",
		},
	)

	totalValueLockedGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "protocol_total_value_locked",
			Help: "Total collateral value locked across lending positions",
		},
	)

	atRiskPositionsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "at_risk_positions_count",
			Help: "Number of positions inside the liquidation health band",
		},
	)

	emergencyModeGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "protocol_emergency_mode",
			Help: "1 while the protocol is in emergency mode, 0 otherwise",
		},
	)

	dbLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "db_latency_seconds",
			Help: "DB latency in seconds splitted by method and execution status",
		},
		[]string{"method", "status"},
	)

	prometheus.MustRegister(
		oracleClientLatency,
		queueSendErrorCounter,
		clientRequestDurationHistogram,
		pollerDurationHistogram,
		assessmentDecisionCounter,
		monitoringRunDuration,
		priceEventProcessingDuration,
		protocolRiskScoreGauge,
		aggregateLtvGauge,
		totalValueLockedGauge,
		atRiskPositionsGauge,
		emergencyModeGauge,
		dbLatency,
	)
}

func RecordOracleClientLatency(d time.Duration, method string, failure bool) {
	status := Success
	if failure {
		status = Error
	}

	oracleClientLatency.WithLabelValues(method, status.String()).Observe(d.Seconds())
}

func RecordDbLatency(d time.Duration, method string, failure bool) {
	status := Success
	if failure {
		status = Error
	}

	dbLatency.WithLabelValues(method, status.String()).Observe(d.Seconds())
}

// RecordAssessmentDecision counts one assessment outcome. reason is empty
// for approvals.
func RecordAssessmentDecision(approved bool, reason string) {
	decision := "approved"
	if !approved {
		decision = "rejected"
	}

	assessmentDecisionCounter.WithLabelValues(decision, reason).Inc()
}

func RecordMonitoringRunDuration(d time.Duration, failure bool) {
	status := Success
	if failure {
		status = Error
	}

	monitoringRunDuration.WithLabelValues(status.String()).Observe(d.Seconds())
}

func RecordPriceEventProcessingDuration(d time.Duration, retry int, failure bool) {
	status := Success
	if failure {
		status = Error
	}

	retryStr := strconv.Itoa(retry)

	priceEventProcessingDuration.WithLabelValues(status.String(), retryStr).Observe(d.Seconds())
}

// RecordProtocolRiskSnapshot refreshes the protocol-level gauges after a
// monitoring run.
func RecordProtocolRiskSnapshot(riskScore, aggregateLtv, totalValueLocked uint64, emergencyMode bool) {
	protocolRiskScoreGauge.Set(float64(riskScore))
	aggregateLtvGauge.Set(float64(aggregateLtv))
	totalValueLockedGauge.Set(float64(totalValueLocked))

	if emergencyMode {
		emergencyModeGauge.Set(1)
	} else {
		emergencyModeGauge.Set(0)
	}
}

func RecordAtRiskPositionsCount(count uint64) {
	atRiskPositionsGauge.Set(float64(count))
}

// StartClientRequestDurationTimer starts a timer to measure outgoing client request duration.
func StartClientRequestDurationTimer(baseUrl, method, path string) func(statusCode int) {
	startTime := time.Now()
	return func(statusCode int) {
		duration := time.Since(startTime).Seconds()
		clientRequestDurationHistogram.WithLabelValues(
			baseUrl,
			method,
			path,
			fmt.Sprintf("%d", statusCode),
		).Observe(duration)
	}
}

func RecordQueueSendError() {
	queueSendErrorCounter.Inc()
}
