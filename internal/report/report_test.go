package report

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"tradewatch/internal/agent/engine"
	"tradewatch/internal/decision"
	"tradewatch/internal/types"
)

func sampleReport() engine.Report {
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	stop := 180.0
	return engine.Report{
		RunID:      "run-7",
		StartedAt:  start,
		FinishedAt: start.Add(2 * time.Second),
		Outcomes: []engine.Outcome{
			{
				Symbol:   "AAPL",
				Category: types.CategoryEquity,
				State:    engine.StateDecided,
				Decision: &decision.TradeDecision{Symbol: "AAPL", Action: "BUY", Rationale: "earnings beat", CurrentPrice: 189.5, StopLoss: &stop},
			},
			{
				Symbol:   "BTC",
				Category: types.CategoryCrypto,
				State:    engine.StateFailed,
				Failure:  &engine.Failure{Reason: engine.ReasonInsufficientEvidence, Stage: engine.StateAggregating, Detail: "price snapshot absent"},
			},
		},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatTable, f)
	f, err = ParseFormat(" JSON ")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)
	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleReport(), FormatTable))
	out := buf.String()
	assert.Contains(t, out, "run-7")
	assert.Contains(t, out, "decided=1 failed=1")
	assert.Contains(t, out, "AAPL")
	assert.Contains(t, out, "189.5")
	assert.Contains(t, out, "earnings beat")
	assert.Contains(t, out, "InsufficientEvidence")
	assert.Contains(t, out, "[AGGREGATING] price snapshot absent")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("AAPL")), bytes.Index(buf.Bytes(), []byte("BTC")))
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleReport(), FormatJSON))

	var doc struct {
		RunID    string `json:"run_id"`
		Outcomes []struct {
			Symbol   string         `json:"symbol"`
			State    string         `json:"state"`
			Decision map[string]any `json:"decision"`
			Failure  map[string]any `json:"failure"`
		} `json:"outcomes"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "run-7", doc.RunID)
	require.Len(t, doc.Outcomes, 2)
	assert.Equal(t, "BUY", doc.Outcomes[0].Decision["action"])
	assert.Nil(t, doc.Outcomes[0].Failure)
	assert.Equal(t, "InsufficientEvidence", doc.Outcomes[1].Failure["reason"])
	assert.Nil(t, doc.Outcomes[1].Decision)
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleReport(), FormatYAML))

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "run-7", doc["run_id"])
	outcomes, ok := doc["outcomes"].([]any)
	require.True(t, ok)
	assert.Len(t, outcomes, 2)
}
