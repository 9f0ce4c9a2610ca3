package compare

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	siblingSetsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "taxdiff_sibling_sets_total",
		Help: "Sibling sets compared",
	})

	groupsComparedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "taxdiff_groups_compared_total",
		Help: "Groups compared against their siblings",
	})

	siblingSetFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "taxdiff_sibling_set_failures_total",
		Help: "Sibling set comparisons that failed",
	})

	siblingSetDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "taxdiff_sibling_set_duration_seconds",
		Help:    "Time to compare one sibling set",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
	})

	distinguishingTagsFound = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "taxdiff_distinguishing_tags",
		Help:    "Distinguishing tags found per group",
		Buckets: []float64{0, 1, 5, 10, 50, 100, 500, 1000},
	})
)

// WriteMetrics dumps the process metrics in the text exposition format, for
// collection by a node exporter textfile collector.
func WriteMetrics(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
