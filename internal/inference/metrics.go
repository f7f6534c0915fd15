package inference

import "github.com/prometheus/client_golang/prometheus"

var (
	predictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "classifier_predictions_total", Help: "Count of predictions by label"},
		[]string{"label"},
	)
	inferenceLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "classifier_inference_duration_seconds",
			Help:    "Latency of model backend calls",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() { prometheus.MustRegister(predictionsTotal, inferenceLatency) }
