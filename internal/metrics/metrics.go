package metrics

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
)

// HTTP client metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "protoclient_http_requests_total",
			Help: "Total number of HTTP requests sent, by method and response code",
		},
		[]string{"method", "code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "protoclient_http_request_duration_seconds",
			Help:    "Duration of HTTP exchanges in seconds, from dial to end of body",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

// POP3 client metrics
var (
	POP3CommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "protoclient_pop3_commands_total",
			Help: "Total number of POP3 commands issued, by command and result",
		},
		[]string{"command", "result"},
	)

	POP3SessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "protoclient_pop3_sessions_total",
			Help: "Total number of POP3 connection attempts, by result",
		},
		[]string{"result"},
	)
)

// WriteText writes every metric in the default registry to w using the
// Prometheus text exposition format.
func WriteText(w io.Writer) error {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
