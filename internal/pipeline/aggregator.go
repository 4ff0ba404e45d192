package pipeline

import (
	"context"
	"errors"
	"fmt"

	"tradewatch/internal/market"
	"tradewatch/internal/types"
)

// Builder 为某个标的组装采集中间件。
type Builder interface {
	Build(inst types.Instrument, rc *RunContext) ([]Middleware, error)
}

// ErrContract marks programming or configuration contract violations.
var ErrContract = errors.New("contract violation")

// Aggregator 为单个标的采集并合并证据。
type Aggregator struct {
	builder Builder
	limit   int
}

// NewAggregator limit 为单个 stage 内的并发上限。
func NewAggregator(builder Builder, limit int) *Aggregator {
	return &Aggregator{builder: builder, limit: limit}
}

// Aggregate 不会因数据源失败返回错误：失败字段缺失并记入 Failures。
// 只有契约错误（未知类别、股票缺少 provider id）或 ctx 取消才返回 error。
func (a *Aggregator) Aggregate(ctx context.Context, inst types.Instrument, rc *RunContext) (EvidenceBundle, error) {
	switch inst.Category {
	case types.CategoryCrypto:
	case types.CategoryEquity:
		if inst.ProviderID == "" {
			return EvidenceBundle{}, fmt.Errorf("%w: equity %s has no provider id", ErrContract, inst.Symbol)
		}
	default:
		return EvidenceBundle{}, fmt.Errorf("%w: unknown category %q for %s", ErrContract, inst.Category, inst.Symbol)
	}
	mws, err := a.builder.Build(inst, rc)
	if err != nil {
		return EvidenceBundle{}, fmt.Errorf("%w: %v", ErrContract, err)
	}
	ac := NewContext(inst, rc)
	if err := New("aggregate."+string(inst.Category), a.limit, mws...).Run(ctx, ac); err != nil {
		return EvidenceBundle{}, err
	}
	if err := ctx.Err(); err != nil {
		return EvidenceBundle{}, err
	}
	return collect(ac), nil
}

func collect(ac *AnalysisContext) EvidenceBundle {
	get := func(k market.Kind) *market.Payload {
		if p, ok := ac.Evidence(k); ok {
			return &p
		}
		return nil
	}
	b := EvidenceBundle{
		Instrument:          ac.Instrument,
		PriceSnapshot:       get(market.KindPrice),
		TechnicalIndicators: get(market.KindTechnical),
		PortfolioPosition:   get(market.KindPosition),
		CorporateActions:    get(market.KindCorporateActions),
		NewsItems:           get(market.KindNews),
		Failures:            ac.Failures(),
	}
	if h, ok := ac.Run.Holdings(); ok {
		b.HoldingsSnapshot = &h
	}
	fs := &FinancialStatements{
		BalanceSheet: get(market.KindBalanceSheet),
		CashFlow:     get(market.KindCashFlow),
		Income:       get(market.KindIncome),
	}
	if fs.any() {
		b.FinancialStatements = fs
	}
	b.evaluate()
	return b
}
