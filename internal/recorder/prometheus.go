package recorder

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder exports pipeline activity as Prometheus metrics.
type PrometheusRecorder struct {
	runs          *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
	instruments   *prometheus.HistogramVec
	fetches       *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	lastRate      *prometheus.GaugeVec
}

// NewPrometheusRecorder creates the collectors and registers them with reg.
func NewPrometheusRecorder(reg prometheus.Registerer) (*PrometheusRecorder, error) {
	r := &PrometheusRecorder{
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketlens_pipeline_runs_total",
				Help: "Total number of pipeline runs by outcome",
			},
			[]string{"pipeline", "outcome"},
		),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "marketlens_pipeline_duration_seconds",
				Help:    "Duration of pipeline runs in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"pipeline"},
		),
		instruments: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "marketlens_screener_instruments",
				Help:    "Number of instruments per successful run",
				Buckets: []float64{1, 2, 3, 5, 10, 20, 50},
			},
			[]string{"pipeline"},
		),
		fetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketlens_provider_fetches_total",
				Help: "Total number of market data fetches",
			},
			[]string{"provider", "pipeline", "failed"},
		),
		fetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "marketlens_provider_fetch_duration_seconds",
				Help:    "Duration of market data fetches in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"provider", "pipeline"},
		),
		lastRate: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "marketlens_fx_last_rate",
				Help: "Latest exchange rate served per pair",
			},
			[]string{"pair"},
		),
	}

	for _, c := range []prometheus.Collector{r.runs, r.runDuration, r.instruments, r.fetches, r.fetchDuration, r.lastRate} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *PrometheusRecorder) RecordRun(evt *RunEvent) {
	r.runs.WithLabelValues(evt.Pipeline, evt.Outcome).Inc()
	r.runDuration.WithLabelValues(evt.Pipeline).Observe(evt.Duration.Seconds())
	if evt.Outcome == OutcomeOK {
		r.instruments.WithLabelValues(evt.Pipeline).Observe(float64(evt.Instruments))
	}
}

func (r *PrometheusRecorder) RecordFetch(evt *FetchEvent) {
	r.fetches.WithLabelValues(evt.Provider, evt.Pipeline, strconv.FormatBool(evt.Failed)).Inc()
	r.fetchDuration.WithLabelValues(evt.Provider, evt.Pipeline).Observe(evt.Duration.Seconds())
}

func (r *PrometheusRecorder) RecordRate(pair string, rate float64) {
	r.lastRate.WithLabelValues(pair).Set(rate)
}
