package metrics

import (
	"context"
	"runtime"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Registry is the service registry exposed on /api/metrics.
	Registry = prometheus.NewRegistry()

	factory = promauto.With(Registry)

	// Buckets tuned for request latencies from a few milliseconds up to tens of seconds
	CustomAPIBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 8, 13, 21, 34}

	// HTTP Metrics
	HTTPRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_server_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: CustomAPIBuckets,
		},
		[]string{"http_request_method", "http_route", "http_response_status_code"},
	)

	HTTPRequestTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_server_request_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"http_request_method", "http_route", "http_response_status_code"},
	)

	ActiveRequests = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "http_server_active_requests",
			Help: "Number of active HTTP requests",
		},
		[]string{"http_request_method"},
	)

	// Store Metrics (postgres, mongodb, memory)
	StoreOperationDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_client_operation_duration_seconds",
			Help:    "Store operation duration in seconds",
			Buckets: CustomAPIBuckets,
		},
		[]string{"driver", "operation", "status"},
	)

	StoreOperationTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_client_operation_total",
			Help: "Total number of store operations",
		},
		[]string{"driver", "operation", "status"},
	)

	// Cache Metrics
	CacheHits = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_name"},
	)

	CacheMisses = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_name"},
	)

	CacheSize = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Number of entries in cache",
		},
		[]string{"cache_name"},
	)

	// Storage Client Metrics (payment slips)
	StorageRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storage_client_operation_duration_seconds",
			Help:    "Storage client operation duration in seconds",
			Buckets: CustomAPIBuckets,
		},
		[]string{"operation", "status"},
	)

	StorageRequestTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storage_client_operation_total",
			Help: "Total number of storage client operations",
		},
		[]string{"operation", "status"},
	)

	// Business Metrics
	MatchRequests = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentorhub_match_requests_total",
			Help: "Total number of mentor matching requests",
		},
		[]string{"status"},
	)

	MatchResultsReturned = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mentorhub_match_results_returned",
			Help:    "Number of matches returned per matching request",
			Buckets: []float64{0, 1, 3, 5, 10, 20, 50},
		},
	)

	MatchDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mentorhub_match_duration_seconds",
			Help:    "Time spent scoring and ranking candidates",
			Buckets: prometheus.DefBuckets,
		},
	)

	BookingAttempts = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentorhub_booking_attempts_total",
			Help: "Booking attempts by outcome",
		},
		[]string{"status"}, // success, conflict, invalid_slot, not_found, error
	)

	BookingCancellations = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentorhub_booking_cancellations_total",
			Help: "Booking cancellations by outcome",
		},
		[]string{"status"},
	)

	PaymentSlipUploads = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentorhub_payment_slip_uploads_total",
			Help: "Payment slip upload requests by outcome",
		},
		[]string{"status"},
	)

	ReminderTasks = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mentorhub_reminder_tasks_total",
			Help: "Reminder tasks by stage and outcome",
		},
		[]string{"stage", "status"}, // stage: enqueue, process
	)

	// Infrastructure Metrics
	GoRoutines = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "process_runtime_go_goroutines",
			Help: "Number of goroutines",
		},
	)

	HeapAlloc = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "process_runtime_go_mem_heap_alloc_bytes",
			Help: "Heap allocated bytes",
		},
	)

	serviceInfo = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mentorhub_service_info",
			Help: "Static service information",
		},
		[]string{"service_name"},
	)
)

// Init registers the default Go and process collectors and publishes the service name.
func Init(serviceName string) {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	serviceInfo.WithLabelValues(strings.TrimSpace(serviceName)).Set(1)
}

// RecordInfrastructureMetrics samples runtime gauges every 15s until ctx is done
func RecordInfrastructureMetrics(ctx context.Context) {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		defer ticker.Stop()
		for {
			sampleRuntime()
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

func sampleRuntime() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	GoRoutines.Set(float64(runtime.NumGoroutine()))
	HeapAlloc.Set(float64(m.HeapAlloc))
}

// MeasureDuration measures the duration of an operation
func MeasureDuration(start time.Time) float64 {
	return time.Since(start).Seconds()
}

// RecordStoreOperation records a single store call.
func RecordStoreOperation(driver, operation, status string, duration float64) {
	StoreOperationDuration.WithLabelValues(driver, operation, status).Observe(duration)
	StoreOperationTotal.WithLabelValues(driver, operation, status).Inc()
}
