package composer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	proxyRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vitebridge_composer_requests_total",
		Help: "Total requests proxied to the application",
	})

	proxyErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vitebridge_composer_errors_total",
		Help: "Composer requests that could not be proxied, by reason",
	}, []string{"reason"})

	// AppRestarts counts watch-triggered application restarts.
	AppRestarts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vitebridge_app_restarts_total",
		Help: "Total watch-triggered application restarts",
	})
)
