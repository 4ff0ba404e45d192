package decision

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tradewatch/internal/market"
	"tradewatch/internal/pipeline"
	"tradewatch/internal/schema"
	"tradewatch/internal/types"
)

func testSnapshot(t *testing.T) schema.Snapshot {
	t.Helper()
	reg, err := schema.NewRegistry("", false)
	require.NoError(t, err)
	return reg.Snapshot()
}

func testSchema(t *testing.T, c types.Category) *schema.OutputSchema {
	t.Helper()
	out, err := testSnapshot(t).For(c)
	require.NoError(t, err)
	return out
}

func testRunContext(t *testing.T) *pipeline.RunContext {
	t.Helper()
	at := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	rc := pipeline.NewRunContext("run-1", at, market.MustPayload(`{"totalProfit":12}`), nil)
	rc.Currency = "USD"
	rc.Schemas = testSnapshot(t)
	return rc
}

func payload(doc string) *market.Payload {
	p := market.MustPayload(doc)
	return &p
}
