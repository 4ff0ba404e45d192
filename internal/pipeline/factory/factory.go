package factory

import (
	"fmt"
	"time"

	"tradewatch/internal/market"
	"tradewatch/internal/pipeline"
	"tradewatch/internal/pipeline/middlewares"
	"tradewatch/internal/types"
)

const (
	stageCollect = 0
	stageEnrich  = 1
)

// Factory 按标的类别组装采集中间件。
type Factory struct {
	Source market.Source
	News   market.NewsSource
	// Timeout 为单次采集的超时；0 表示只受运行级 ctx 约束。
	Timeout time.Duration
}

var _ pipeline.Builder = (*Factory)(nil)

// Build 加密货币：价格 + 技术指标；股票另加持仓、公司行动和三张报表。
// 新闻在增强阶段执行，且仅在 RunContext 打开时加入。
func (f *Factory) Build(inst types.Instrument, rc *pipeline.RunContext) ([]pipeline.Middleware, error) {
	if f.Source == nil {
		return nil, fmt.Errorf("factory has no data source")
	}
	base := middlewares.FetcherConfig{Stage: stageCollect, Timeout: f.Timeout}
	mws := []pipeline.Middleware{
		middlewares.NewPriceFetcher(base, f.Source),
		middlewares.NewTechnicalFetcher(base, f.Source),
	}
	switch inst.Category {
	case types.CategoryCrypto:
	case types.CategoryEquity:
		mws = append(mws,
			middlewares.NewPositionFetcher(base, f.Source),
			middlewares.NewCorporateActionsFetcher(base, f.Source),
		)
		for _, kind := range market.StatementKinds {
			mw, err := middlewares.NewStatementFetcher(base, kind, f.Source)
			if err != nil {
				return nil, err
			}
			mws = append(mws, mw)
		}
	default:
		return nil, fmt.Errorf("unknown category %q", inst.Category)
	}
	if rc != nil && rc.NewsEnabled && f.News != nil {
		mws = append(mws, middlewares.NewNewsFetcher(middlewares.FetcherConfig{Stage: stageEnrich, Timeout: f.Timeout}, f.News))
	}
	return mws, nil
}
