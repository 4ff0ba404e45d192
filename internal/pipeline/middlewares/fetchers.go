package middlewares

import (
	"context"
	"fmt"

	"tradewatch/internal/market"
	"tradewatch/internal/pipeline"
	"tradewatch/internal/types"
)

// NewPriceFetcher 股票取当前价，加密货币取当日起的 OHLC。
func NewPriceFetcher(cfg FetcherConfig, src market.Source) *Fetcher {
	cfg.Kind = market.KindPrice
	return newFetcher(cfg, func(ctx context.Context, ac *pipeline.AnalysisContext) (market.Payload, error) {
		inst := ac.Instrument
		if inst.Category == types.CategoryCrypto {
			return src.CryptoPrice(ctx, inst.Symbol, ac.Run.EvaluatedAt)
		}
		return src.StockPrice(ctx, inst.Symbol, inst.ProviderID)
	})
}

func NewTechnicalFetcher(cfg FetcherConfig, src market.Source) *Fetcher {
	cfg.Kind = market.KindTechnical
	return newFetcher(cfg, func(ctx context.Context, ac *pipeline.AnalysisContext) (market.Payload, error) {
		inst := ac.Instrument
		if inst.Category == types.CategoryCrypto {
			return src.CryptoTechnicals(ctx, inst.Symbol)
		}
		return src.StockTechnicals(ctx, inst.Symbol, inst.ProviderID)
	})
}

func NewPositionFetcher(cfg FetcherConfig, src market.Source) *Fetcher {
	cfg.Kind = market.KindPosition
	return newFetcher(cfg, func(ctx context.Context, ac *pipeline.AnalysisContext) (market.Payload, error) {
		return src.PositionOverview(ctx, ac.Instrument.Symbol, ac.Instrument.ProviderID)
	})
}

// NewCorporateActionsFetcher 空列表视为无证据，不算失败。
func NewCorporateActionsFetcher(cfg FetcherConfig, src market.Source) *Fetcher {
	cfg.Kind = market.KindCorporateActions
	return newFetcher(cfg, func(ctx context.Context, ac *pipeline.AnalysisContext) (market.Payload, error) {
		p, err := src.CorporateActions(ctx, ac.Instrument.Symbol, ac.Instrument.ProviderID)
		if err != nil || p.Empty() {
			return market.Payload{}, err
		}
		return p, nil
	})
}

func NewStatementFetcher(cfg FetcherConfig, kind market.Kind, src market.Source) (*Fetcher, error) {
	switch kind {
	case market.KindBalanceSheet, market.KindCashFlow, market.KindIncome:
	default:
		return nil, fmt.Errorf("not a statement kind: %s", kind)
	}
	cfg.Kind = kind
	return newFetcher(cfg, func(ctx context.Context, ac *pipeline.AnalysisContext) (market.Payload, error) {
		return src.Statement(ctx, kind, ac.Instrument.Symbol, ac.Instrument.ProviderID)
	}), nil
}

// NewNewsFetcher 属于增强阶段；没有价格证据时跳过，避免浪费配额。
func NewNewsFetcher(cfg FetcherConfig, src market.NewsSource) *Fetcher {
	cfg.Kind = market.KindNews
	return newFetcher(cfg, func(ctx context.Context, ac *pipeline.AnalysisContext) (market.Payload, error) {
		if _, ok := ac.Evidence(market.KindPrice); !ok {
			return market.Payload{}, nil
		}
		p, err := src.Headlines(ctx, ac.Instrument.Symbol)
		if err != nil || p.Empty() {
			return market.Payload{}, err
		}
		return p, nil
	})
}
