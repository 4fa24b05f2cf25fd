package quota

import "github.com/prometheus/client_golang/prometheus"

var (
	checksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quota_checks_total",
			Help: "Quota checks by result (allowed|denied|error).",
		},
		[]string{"result"},
	)

	tokensRecorded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quota_tokens_recorded_total",
			Help: "Token-equivalents recorded against the quota, by charge kind.",
		},
		[]string{"kind"},
	)

	usedTokens = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "quota_used_tokens",
			Help: "Token-equivalents used in the current window, as last observed.",
		},
	)
)

func init() {
	prometheus.MustRegister(checksTotal, tokensRecorded, usedTokens)
}
