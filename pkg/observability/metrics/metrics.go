package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/resistx/platform/pkg/faults"
	"github.com/resistx/platform/pkg/schema"
)

var (
	predictionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "resistx",
		Subsystem: "serving",
		Name:      "predictions_total",
		Help:      "Predictions answered, by result label.",
	}, []string{"result"})

	faultsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "resistx",
		Subsystem: "serving",
		Name:      "faults_total",
		Help:      "Prediction requests that failed, by fault kind.",
	}, []string{"kind"})

	predictionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "resistx",
		Subsystem: "serving",
		Name:      "prediction_duration_seconds",
		Help:      "Time spent validating and scoring one feature record.",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	})
)

func ObservePrediction(outcome schema.Outcome, elapsed time.Duration) {
	predictionsTotal.WithLabelValues(string(outcome)).Inc()
	predictionDuration.Observe(elapsed.Seconds())
}

func ObserveFault(kind faults.Kind) {
	faultsTotal.WithLabelValues(kind.String()).Inc()
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
