package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"tradewatch/internal/market"
	"tradewatch/internal/types"
)

// FetchFailure 是一次失败的数据采集（DataFetchFailed）。
type FetchFailure struct {
	Kind       market.Kind `json:"kind"`
	Middleware string      `json:"middleware"`
	Status     int         `json:"status,omitempty"`
	Err        error       `json:"-"`
}

func (f FetchFailure) Error() string {
	if f.Err == nil {
		return string(f.Kind)
	}
	return fmt.Sprintf("%s: %v", f.Kind, f.Err)
}

// FinancialStatements 三张报表各自可缺失。
type FinancialStatements struct {
	BalanceSheet *market.Payload
	CashFlow     *market.Payload
	Income       *market.Payload
}

func (f *FinancialStatements) any() bool {
	return f != nil && (f.BalanceSheet != nil || f.CashFlow != nil || f.Income != nil)
}

// EvidenceBundle 是一个标的在一次运行中合并后的证据，按值传递。
// nil 字段表示缺失（失败或不适用）。
type EvidenceBundle struct {
	Instrument          types.Instrument
	PriceSnapshot       *market.Payload
	TechnicalIndicators *market.Payload
	HoldingsSnapshot    *market.Payload
	PortfolioPosition   *market.Payload
	FinancialStatements *FinancialStatements
	CorporateActions    *market.Payload
	NewsItems           *market.Payload

	Failures           []FetchFailure
	Insufficient       bool
	InsufficientReason string
}

var (
	errNoPrice  = errors.New("price snapshot absent")
	errNoSignal = errors.New("no technical, position or statement evidence")
)

// evaluate 应用最小可用集规则：价格 + 至少一个决策信号。
func (b *EvidenceBundle) evaluate() {
	switch {
	case b.PriceSnapshot == nil:
		b.Insufficient, b.InsufficientReason = true, errNoPrice.Error()
	case b.TechnicalIndicators == nil && b.PortfolioPosition == nil && !b.FinancialStatements.any():
		b.Insufficient, b.InsufficientReason = true, errNoSignal.Error()
	default:
		b.Insufficient, b.InsufficientReason = false, ""
	}
}

// Present 列出已有的证据类型，顺序固定。
func (b EvidenceBundle) Present() []market.Kind {
	var out []market.Kind
	add := func(k market.Kind, p *market.Payload) {
		if p != nil {
			out = append(out, k)
		}
	}
	add(market.KindPrice, b.PriceSnapshot)
	add(market.KindTechnical, b.TechnicalIndicators)
	add(market.KindHoldings, b.HoldingsSnapshot)
	add(market.KindPosition, b.PortfolioPosition)
	if fs := b.FinancialStatements; fs != nil {
		add(market.KindBalanceSheet, fs.BalanceSheet)
		add(market.KindCashFlow, fs.CashFlow)
		add(market.KindIncome, fs.Income)
	}
	add(market.KindCorporateActions, b.CorporateActions)
	add(market.KindNews, b.NewsItems)
	return out
}

// FailureSummary 汇总失败采集，便于报告展示。
func (b EvidenceBundle) FailureSummary() string {
	if len(b.Failures) == 0 {
		return ""
	}
	parts := make([]string, 0, len(b.Failures))
	for _, f := range b.Failures {
		parts = append(parts, f.Error())
	}
	return strings.Join(parts, "; ")
}
