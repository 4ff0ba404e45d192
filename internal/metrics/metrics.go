package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"tradewatch/internal/agent/engine"
	"tradewatch/internal/market"
)

// Recorder 用 Prometheus 实现 engine.Observer。
type Recorder struct {
	runsTotal     prometheus.Counter
	runInFlight   prometheus.Gauge
	runDuration   prometheus.Histogram
	outcomesTotal *prometheus.CounterVec
	fetchErrors   *prometheus.CounterVec
	stageLatency  *prometheus.HistogramVec
	lastPrice     *prometheus.GaugeVec
	lastRun       prometheus.Gauge
}

var _ engine.Observer = (*Recorder)(nil)

// New 在 reg 上注册指标；reg 为 nil 时使用默认 registry。
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		runsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "tradewatch_runs_total",
			Help: "Total number of pipeline runs started",
		}),
		runInFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "tradewatch_run_in_flight",
			Help: "1 while a pipeline run is active",
		}),
		runDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "tradewatch_run_duration_seconds",
			Help:    "Wall time of a complete pipeline run",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		outcomesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tradewatch_outcomes_total",
			Help: "Per-instrument outcomes by state and failure reason",
		}, []string{"symbol", "state", "reason"}),
		fetchErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tradewatch_fetch_errors_total",
			Help: "Failed data-source calls that left an evidence field absent",
		}, []string{"symbol"}),
		stageLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tradewatch_stage_duration_seconds",
			Help:    "Duration of pipeline stages in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage", "result"}),
		lastPrice: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tradewatch_last_price",
			Help: "Current price reported in the latest decision for a symbol",
		}, []string{"symbol"}),
		lastRun: f.NewGauge(prometheus.GaugeOpts{
			Name: "tradewatch_last_run_timestamp_seconds",
			Help: "Unix time the latest run finished",
		}),
	}
}

func (r *Recorder) RunStarted(string, int) {
	r.runsTotal.Inc()
	r.runInFlight.Set(1)
}

func (r *Recorder) StageDone(_ string, kind market.Kind, stage engine.State, elapsed time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	label := string(stage)
	if kind != "" {
		label += ":" + string(kind)
	}
	r.stageLatency.WithLabelValues(label, result).Observe(elapsed.Seconds())
}

func (r *Recorder) OutcomeRecorded(o engine.Outcome) {
	reason := ""
	if o.Failure != nil {
		reason = string(o.Failure.Reason)
	}
	r.outcomesTotal.WithLabelValues(o.Symbol, string(o.State), reason).Inc()
	if n := len(o.FetchErrors); n > 0 {
		r.fetchErrors.WithLabelValues(o.Symbol).Add(float64(n))
	}
	if o.Decision != nil {
		r.lastPrice.WithLabelValues(o.Symbol).Set(o.Decision.CurrentPrice)
	}
}

func (r *Recorder) RunFinished(rep engine.Report) {
	r.runInFlight.Set(0)
	r.runDuration.Observe(rep.FinishedAt.Sub(rep.StartedAt).Seconds())
	r.lastRun.Set(float64(rep.FinishedAt.Unix()))
}
