package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Render pipeline metrics. Outcome labels: "success", "refunded_retryable",
// "refunded_fatal", "rejected".
var (
	RendersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "renderdesk",
		Name:      "renders_total",
		Help:      "Render attempts by provider and outcome.",
	}, []string{"provider", "outcome"})

	RenderDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "renderdesk",
		Name:      "render_duration_seconds",
		Help:      "Wall time of provider generation calls.",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 30, 45, 60, 90},
	}, []string{"provider"})

	CreditsDebited = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "renderdesk",
		Name:      "credits_debited_total",
		Help:      "Total credits debited for renders.",
	})

	CreditsRefunded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "renderdesk",
		Name:      "credits_refunded_total",
		Help:      "Total credits refunded after failed renders.",
	})
)
