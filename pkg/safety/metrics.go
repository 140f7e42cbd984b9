package safety

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	injectionMatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ielts",
		Subsystem: "safety",
		Name:      "injection_matches_total",
		Help:      "Prompt-injection spans filtered from submissions, by catalog category.",
	}, []string{"category"})

	piiDetections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ielts",
		Subsystem: "safety",
		Name:      "pii_detections_total",
		Help:      "Submissions flagged for personal information, by category.",
	}, []string{"category"})

	contentRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ielts",
		Subsystem: "safety",
		Name:      "content_rejections_total",
		Help:      "Submissions rejected by the content gate, by reason.",
	}, []string{"reason"})

	outputRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ielts",
		Subsystem: "safety",
		Name:      "output_rejections_total",
		Help:      "Model responses rejected by the output validator.",
	}, []string{"schema", "kind"})
)
