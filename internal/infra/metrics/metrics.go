package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	codesIssued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pcred_codes_issued_total",
			Help: "Codes issued, by source (generated/explicit).",
		},
		[]string{"source"},
	)

	redemptions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pcred_redemptions_total",
			Help: "Redemption attempts by outcome (success/rejected/error).",
		},
		[]string{"status"},
	)

	rateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pcred_rate_limited_total",
			Help: "Requests rejected by the rate limiter.",
		},
	)

	codesPurged = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pcred_codes_purged_total",
			Help: "Expired unused codes removed by purge sweeps.",
		},
	)
)

// MustRegister registers collectors with the default registry (idempotent).
func MustRegister() {
	once.Do(func() {
		prometheus.MustRegister(codesIssued, redemptions, rateLimited, codesPurged)
	})
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func IncCodeIssued(source string) { codesIssued.WithLabelValues(norm(source)).Inc() }

func IncRedemption(status string) { redemptions.WithLabelValues(norm(status)).Inc() }

func IncRateLimited() { rateLimited.Inc() }

func AddCodesPurged(n int) {
	if n > 0 {
		codesPurged.Add(float64(n))
	}
}
