// Package observability wires Prometheus metrics and OpenTelemetry tracing.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"multinet/application/ports"
	querybus "multinet/application/queries/bus"
	"multinet/infrastructure/persistence/decorators"
	pkgerrors "multinet/pkg/errors"
)

// Collector holds all Prometheus metrics for the service. Each collector owns
// its registry, so tests can create as many as they like.
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Store metrics
	StoreOperations *prometheus.CounterVec
	StoreDuration   *prometheus.HistogramVec

	// Ingest and graph metrics
	IngestedRecords  *prometheus.CounterVec
	GraphValidations *prometheus.CounterVec
	ViolationsFound  prometheus.Counter

	// Bus metrics
	BusEvents   *prometheus.CounterVec
	BusDuration *prometheus.HistogramVec
}

var (
	_ ports.Metrics           = (*Collector)(nil)
	_ querybus.Metrics        = (*Collector)(nil)
	_ decorators.StoreMetrics = (*Collector)(nil)
)

// NewCollector creates a collector whose metric names start with namespace
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		StoreOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_operations_total",
				Help:      "Total number of store operations",
			},
			[]string{"operation", "status"},
		),
		StoreDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "store_operation_duration_seconds",
				Help:      "Store operation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		IngestedRecords: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "records_ingested_total",
				Help:      "Total number of records written by uploads",
			},
			[]string{"role"},
		),
		GraphValidations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "graph_validations_total",
				Help:      "Total number of graph integrity checks",
			},
			[]string{"outcome"},
		),
		ViolationsFound: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "graph_violations_total",
				Help:      "Total number of integrity violations reported",
			},
		),
		BusEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bus_events_total",
				Help:      "Query bus dispatches by event and query type",
			},
			[]string{"event", "type"},
		),
		BusDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "bus_duration_seconds",
				Help:      "Query handling duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"metric", "type"},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.HTTPRequests,
		c.HTTPDuration,
		c.StoreOperations,
		c.StoreDuration,
		c.IngestedRecords,
		c.GraphValidations,
		c.ViolationsFound,
		c.BusEvents,
		c.BusDuration,
	)
	return c
}

// Registry returns the Prometheus registry for this collector
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// ObserveHTTPRequest records one served request
func (c *Collector) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveStoreOperation implements decorators.StoreMetrics. The table is
// left out of the labels to keep cardinality bounded.
func (c *Collector) ObserveStoreOperation(operation, _ string, duration time.Duration, err error) {
	c.StoreOperations.WithLabelValues(operation, storeStatus(err)).Inc()
	c.StoreDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func storeStatus(err error) string {
	switch {
	case err == nil:
		return "ok"
	case pkgerrors.IsNotFound(err):
		return "not_found"
	case pkgerrors.IsConflict(err):
		return "conflict"
	case pkgerrors.IsUnavailable(err):
		return "unavailable"
	default:
		return "error"
	}
}

// RecordsIngested implements ports.Metrics
func (c *Collector) RecordsIngested(role string, n int) {
	c.IngestedRecords.WithLabelValues(role).Add(float64(n))
}

// GraphValidation implements ports.Metrics
func (c *Collector) GraphValidation(passed bool, violations int) {
	outcome := "passed"
	if !passed {
		outcome = "failed"
	}
	c.GraphValidations.WithLabelValues(outcome).Inc()
	c.ViolationsFound.Add(float64(violations))
}

// StartTimer implements querybus.Metrics
func (c *Collector) StartTimer(metric, label string) querybus.Timer {
	return timer{prometheus.NewTimer(c.BusDuration.WithLabelValues(metric, label))}
}

// Increment implements querybus.Metrics
func (c *Collector) Increment(metric, label string) {
	c.BusEvents.WithLabelValues(metric, label).Inc()
}

type timer struct {
	t *prometheus.Timer
}

func (t timer) Stop() { t.t.ObserveDuration() }
