package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apmc_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "apmc_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// ReportsGenerated counts tax reports, farmer bills and missing-bag scans.
	ReportsGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apmc_reports_generated_total",
			Help: "Reports generated by kind and granularity",
		},
		[]string{"kind", "type"},
	)

	TenantProvisioning = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apmc_tenant_provisioning_total",
			Help: "Tenant schema create/drop attempts by outcome",
		},
		[]string{"op", "outcome"},
	)

	LotsCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "apmc_lots_completed_total",
			Help: "Lots transitioned to completed",
		},
	)
)

// Register adds every collector to reg.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		RequestCounter, RequestDuration, ReportsGenerated, TenantProvisioning, LotsCompleted,
	} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// Middleware records request counts and latency keyed by the matched route.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
		path := c.Route().Path
		RequestCounter.WithLabelValues(c.Method(), path, strconv.Itoa(status)).Inc()
		RequestDuration.WithLabelValues(c.Method(), path).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler exposes the default gatherer over fiber.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
