// Package markettest provides testify mocks for the market interfaces.
package markettest

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"tradewatch/internal/market"
)

type MockSource struct {
	mock.Mock
}

var _ market.Source = (*MockSource)(nil)

func payload(args mock.Arguments) (market.Payload, error) {
	p, _ := args.Get(0).(market.Payload)
	return p, args.Error(1)
}

func (m *MockSource) Holdings(ctx context.Context) (market.Payload, error) {
	return payload(m.Called(ctx))
}

func (m *MockSource) StockPrice(ctx context.Context, symbol, stockID string) (market.Payload, error) {
	return payload(m.Called(ctx, symbol, stockID))
}

func (m *MockSource) CryptoPrice(ctx context.Context, symbol string, since time.Time) (market.Payload, error) {
	return payload(m.Called(ctx, symbol, since))
}

func (m *MockSource) StockTechnicals(ctx context.Context, symbol, stockID string) (market.Payload, error) {
	return payload(m.Called(ctx, symbol, stockID))
}

func (m *MockSource) CryptoTechnicals(ctx context.Context, symbol string) (market.Payload, error) {
	return payload(m.Called(ctx, symbol))
}

func (m *MockSource) PositionOverview(ctx context.Context, symbol, stockID string) (market.Payload, error) {
	return payload(m.Called(ctx, symbol, stockID))
}

func (m *MockSource) CorporateActions(ctx context.Context, symbol, stockID string) (market.Payload, error) {
	return payload(m.Called(ctx, symbol, stockID))
}

func (m *MockSource) Statement(ctx context.Context, kind market.Kind, symbol, stockID string) (market.Payload, error) {
	return payload(m.Called(ctx, kind, symbol, stockID))
}

type MockNews struct {
	mock.Mock
}

var _ market.NewsSource = (*MockNews)(nil)

func (m *MockNews) Headlines(ctx context.Context, symbol string) (market.Payload, error) {
	return payload(m.Called(ctx, symbol))
}

// Fail builds a FetchError for stubbing failed calls.
func Fail(kind market.Kind, symbol string, status int) error {
	return &market.FetchError{Kind: kind, Symbol: symbol, Status: status, Cause: context.DeadlineExceeded}
}
