// Package metrics exposes the prometheus instruments served on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

var Module = fx.Module("observability.metrics",
	fx.Provide(New),
)

type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	TokensDebited   prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gramwave_http_requests_total",
				Help: "Requests by method, route and status code",
			},
			[]string{"method", "route", "code"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gramwave_http_request_duration_seconds",
				Help:    "Request latency by method and route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		TokensDebited: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "gramwave_tokens_debited_total",
				Help: "Tokens debited from principal balances",
			},
		),
	}
	m.MustRegister(prometheus.DefaultRegisterer)
	return m
}

func (m *Metrics) MustRegister(r prometheus.Registerer) {
	r.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.TokensDebited,
	)
}

// GinMiddleware records request counts and latency per route.
func GinMiddleware(m *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.RequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
