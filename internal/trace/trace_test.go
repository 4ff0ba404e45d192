package trace

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartSpanDisabled(t *testing.T) {
	require.NoError(t, Init(Options{Enabled: false}))
	ctx, span := StartSpan(context.Background(), "noop")
	span.End()
	assert.False(t, Enabled())
	_, _, ok := Fields(ctx)
	assert.False(t, ok)
}

func TestStartSpanExports(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(Options{Enabled: true, ServiceName: "tradewatch-test", Writer: &buf}))
	assert.True(t, Enabled())

	ctx, span := StartSpan(context.Background(), "pipeline.run")
	traceID, spanID, ok := Fields(ctx)
	assert.True(t, ok)
	assert.NotEmpty(t, traceID)
	assert.NotEmpty(t, spanID)
	span.End()

	require.NoError(t, Shutdown(context.Background()))
	assert.Contains(t, buf.String(), "pipeline.run")
	assert.False(t, Enabled())
}
