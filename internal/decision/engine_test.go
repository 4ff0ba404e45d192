package decision

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tradewatch/internal/gateway/provider"
	"tradewatch/internal/types"
)

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) ID() string { return "mock" }

func (m *MockProvider) Call(ctx context.Context, payload provider.ChatPayload) (provider.Reply, error) {
	args := m.Called(ctx, payload)
	if fn, ok := args.Get(0).(func() provider.Reply); ok {
		return fn(), args.Error(1)
	}
	return args.Get(0).(provider.Reply), args.Error(1)
}

func testRequest(t *testing.T) Request {
	return Request{Symbol: "AAPL", Category: types.CategoryEquity, System: "sys", User: "usr", Schema: testSchema(t, types.CategoryEquity)}
}

func TestInferText(t *testing.T) {
	p := new(MockProvider)
	p.On("Call", mock.Anything, mock.MatchedBy(func(cp provider.ChatPayload) bool {
		return cp.System == "sys" && cp.User == "usr" && cp.Tool == nil
	})).Return(provider.Reply{Kind: provider.ReplyText, Text: `{"action":"BUY"}`}, nil)

	raw, err := NewEngine(p, false).Infer(context.Background(), testRequest(t))
	require.NoError(t, err)
	assert.Equal(t, `{"action":"BUY"}`, raw)
	p.AssertExpectations(t)
}

func TestInferToolCall(t *testing.T) {
	p := new(MockProvider)
	p.On("Call", mock.Anything, mock.MatchedBy(func(cp provider.ChatPayload) bool {
		return cp.Tool != nil && cp.Tool.Name == "execute_trade"
	})).Return(provider.Reply{Kind: provider.ReplyToolCall, ToolName: "execute_trade", Arguments: `{"action":"SELL"}`}, nil)

	raw, err := NewEngine(p, true).Infer(context.Background(), testRequest(t))
	require.NoError(t, err)
	assert.Equal(t, `{"action":"SELL"}`, raw)
}

func TestInferEmptyReply(t *testing.T) {
	p := new(MockProvider)
	p.On("Call", mock.Anything, mock.Anything).Return(provider.Reply{}, nil)

	_, err := NewEngine(p, false).Infer(context.Background(), testRequest(t))
	var ierr *InferenceError
	require.ErrorAs(t, err, &ierr)
	assert.ErrorIs(t, err, ErrEmptyReply)
}

func TestInferTransportError(t *testing.T) {
	p := new(MockProvider)
	p.On("Call", mock.Anything, mock.Anything).Return(provider.Reply{}, errors.New("502 bad gateway"))

	_, err := NewEngine(p, false).Infer(context.Background(), testRequest(t))
	var ierr *InferenceError
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, "mock", ierr.Provider)
	assert.Contains(t, err.Error(), "502 bad gateway")
}

func TestInferCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := new(MockProvider)
	p.On("Call", mock.Anything, mock.Anything).Return(provider.Reply{}, errors.New("request aborted"))

	_, err := NewEngine(p, false).Infer(ctx, testRequest(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInferRecoversPanic(t *testing.T) {
	p := new(MockProvider)
	p.On("Call", mock.Anything, mock.Anything).Return(func() provider.Reply { panic("boom") }, nil)

	_, err := NewEngine(p, false).Infer(context.Background(), testRequest(t))
	var ierr *InferenceError
	require.ErrorAs(t, err, &ierr)
	assert.Contains(t, err.Error(), "boom")
}

func TestInferWithoutProvider(t *testing.T) {
	_, err := NewEngine(nil, false).Infer(context.Background(), testRequest(t))
	var ierr *InferenceError
	assert.ErrorAs(t, err, &ierr)
}
