package llm

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storyweave_llm_requests_total",
			Help: "Total number of model requests.",
		},
		[]string{"provider", "model", "status"},
	)
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storyweave_llm_request_duration_seconds",
			Help:    "Histogram of model request durations.",
			Buckets: []float64{0.5, 1, 2, 4, 8, 16, 32, 64},
		},
		[]string{"provider", "model"},
	)
	replyLength = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storyweave_llm_reply_bytes",
			Help:    "Histogram of model reply sizes.",
			Buckets: prometheus.ExponentialBuckets(64, 2, 10),
		},
		[]string{"provider", "model"},
	)
)

type meteredClient struct {
	next     Client
	provider string
	model    string
}

// WithMetrics records request counts, durations and reply sizes for c.
func WithMetrics(c Client, provider string, model string) Client {
	return &meteredClient{next: c, provider: provider, model: model}
}

func (m *meteredClient) Complete(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	reply, err := m.next.Complete(ctx, prompt)
	requestDuration.WithLabelValues(m.provider, m.model).Observe(time.Since(start).Seconds())

	if err != nil {
		requestsTotal.WithLabelValues(m.provider, m.model, "error").Inc()
		return "", err
	}
	requestsTotal.WithLabelValues(m.provider, m.model, "success").Inc()
	replyLength.WithLabelValues(m.provider, m.model).Observe(float64(len(reply)))
	return reply, nil
}
