package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"tradewatch/internal/agent/engine"
	"tradewatch/internal/decision"
	"tradewatch/internal/market"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.RunStarted("run-1", 2)
	assert.Equal(t, 1.0, testutil.ToFloat64(r.runInFlight))

	r.StageDone("", market.KindHoldings, engine.StateFetching, 120*time.Millisecond, errors.New("boom"))
	r.StageDone("AAPL", "", engine.StateInferring, time.Second, nil)

	r.OutcomeRecorded(engine.Outcome{
		Symbol:   "AAPL",
		State:    engine.StateDecided,
		Decision: &decision.TradeDecision{Symbol: "AAPL", Action: "BUY", CurrentPrice: 189.5},
	})
	r.OutcomeRecorded(engine.Outcome{
		Symbol:      "BTC",
		State:       engine.StateFailed,
		Failure:     &engine.Failure{Reason: engine.ReasonInsufficientEvidence, Stage: engine.StateAggregating},
		FetchErrors: []string{"price: 502", "technical: 502"},
	})

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r.RunFinished(engine.Report{StartedAt: start, FinishedAt: start.Add(3 * time.Second)})

	assert.Equal(t, 1.0, testutil.ToFloat64(r.runsTotal))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.runInFlight))
	assert.Equal(t, 189.5, testutil.ToFloat64(r.lastPrice.WithLabelValues("AAPL")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.outcomesTotal.WithLabelValues("BTC", "FAILED", "InsufficientEvidence")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.outcomesTotal.WithLabelValues("AAPL", "DECIDED", "")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.fetchErrors.WithLabelValues("BTC")))
	assert.Equal(t, float64(start.Add(3*time.Second).Unix()), testutil.ToFloat64(r.lastRun))
	assert.Equal(t, 2, testutil.CollectAndCount(r.stageLatency))
}
