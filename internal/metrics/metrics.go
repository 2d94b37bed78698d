package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/malinka/malinka/internal/store"
)

// Reload results.
const (
	ReloadChanged   = "changed"
	ReloadUnchanged = "unchanged"
	ReloadFailed    = "failed"
)

// Collector holds all Prometheus metrics for the dashboard.
type Collector struct {
	registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	tabRenders      *prometheus.CounterVec
	datasetRows     *prometheus.GaugeVec
	skippedRows     *prometheus.GaugeVec
	reloads         *prometheus.CounterVec
	fallback        prometheus.Gauge
	lastLoad        prometheus.Gauge
	tableHealth     *prometheus.GaugeVec
	healthCheck     *prometheus.HistogramVec
}

// New creates all metrics on a private registry, together with the Go
// runtime and process collectors.
func New() *Collector {
	c := newCollector("malinka")
	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

func newCollector(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests by route and status",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15),
			},
			[]string{"route", "method", "status"},
		),
		tabRenders: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tab_renders_total",
				Help:      "Total number of rendered dashboard pages per tab",
			},
			[]string{"tab"},
		),
		datasetRows: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "dataset_rows",
				Help:      "Number of rows loaded per table",
			},
			[]string{"table"},
		),
		skippedRows: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "dataset_skipped_rows",
				Help:      "Number of rows rejected by the parser per table",
			},
			[]string{"table"},
		),
		reloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reloads_total",
				Help:      "Total number of data reloads by result",
			},
			[]string{"result"},
		),
		fallback: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "dataset_fallback",
				Help:      "Whether the built-in sample data is served (1=sample, 0=loaded)",
			},
		),
		lastLoad: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "dataset_last_load_timestamp_seconds",
				Help:      "Unix time of the last successful data load",
			},
		),
		tableHealth: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "source_table_health",
				Help:      "Health status of a source table (1=healthy, 0=unhealthy)",
			},
			[]string{"table"},
		),
		healthCheck: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "health_check_duration_seconds",
				Help:      "Duration of source table probes",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"table"},
		),
	}

	c.registry.MustRegister(
		c.requestDuration,
		c.tabRenders,
		c.datasetRows,
		c.skippedRows,
		c.reloads,
		c.fallback,
		c.lastLoad,
		c.tableHealth,
		c.healthCheck,
	)
	return c
}

// Registry returns the registry the metrics live in.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// ObserveRequest records one HTTP request.
func (c *Collector) ObserveRequest(route, method string, status int, d time.Duration) {
	c.requestDuration.WithLabelValues(route, method, strconv.Itoa(status)).Observe(d.Seconds())
}

// TabRendered counts a rendered page.
func (c *Collector) TabRendered(tab string) {
	c.tabRenders.WithLabelValues(tab).Inc()
}

// DatasetLoaded publishes the size and origin of a new snapshot.
func (c *Collector) DatasetLoaded(ds *store.Dataset) {
	for table, n := range ds.RowCounts() {
		c.datasetRows.WithLabelValues(table).Set(float64(n))
	}
	for _, table := range store.Tables {
		c.skippedRows.WithLabelValues(table).Set(float64(ds.Skipped[table]))
	}
	if ds.Fallback {
		c.fallback.Set(1)
		return
	}
	c.fallback.Set(0)
	c.lastLoad.Set(float64(ds.LoadedAt.Unix()))
}

// Reload counts a reload attempt by result.
func (c *Collector) Reload(result string) {
	c.reloads.WithLabelValues(result).Inc()
}

// SetTableHealth sets the health gauge for a source table.
func (c *Collector) SetTableHealth(table string, healthy bool) {
	val := 0.0
	if healthy {
		val = 1.0
	}
	c.tableHealth.WithLabelValues(table).Set(val)
}

// HealthCheckCompleted records the duration of one table probe.
func (c *Collector) HealthCheckCompleted(table string, d time.Duration) {
	c.healthCheck.WithLabelValues(table).Observe(d.Seconds())
}
