// ABOUTME: Prometheus metrics for the web server
// ABOUTME: Counts requests by method, route pattern and status
package web

import "github.com/prometheus/client_golang/prometheus"

var (
	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "taxdesk_http_requests_total",
		Help: "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	portalRejected = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "taxdesk_portal_rate_limited_total",
		Help: "Upload portal requests rejected by the rate limiter.",
	})
)

func init() {
	prometheus.MustRegister(httpRequests, portalRejected)
}
