package middlewares

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tradewatch/internal/market"
	"tradewatch/internal/pipeline"
)

// FetchFunc 执行一次数据拉取。
type FetchFunc func(ctx context.Context, ac *pipeline.AnalysisContext) (market.Payload, error)

// FetcherConfig 控制单个采集步骤。
type FetcherConfig struct {
	Name    string
	Kind    market.Kind
	Stage   int
	Timeout time.Duration
}

// Fetcher 把一次拉取结果写入 AnalysisContext；失败由 pipeline 记录。
type Fetcher struct {
	meta  pipeline.MiddlewareMeta
	fetch FetchFunc
}

func newFetcher(cfg FetcherConfig, fetch FetchFunc) *Fetcher {
	return &Fetcher{
		meta: pipeline.MiddlewareMeta{
			Name:    nameOrDefault(cfg.Name, string(cfg.Kind)),
			Kind:    cfg.Kind,
			Stage:   cfg.Stage,
			Timeout: cfg.Timeout,
		},
		fetch: fetch,
	}
}

// Meta 实现 pipeline.Middleware。
func (f *Fetcher) Meta() pipeline.MiddlewareMeta { return f.meta }

// Handle 拉取数据。
func (f *Fetcher) Handle(ctx context.Context, ac *pipeline.AnalysisContext) error {
	if ac == nil {
		return fmt.Errorf("nil analysis context")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := f.fetch(ctx, ac)
	if err != nil {
		return err
	}
	ac.SetEvidence(f.meta.Kind, p)
	return nil
}

func nameOrDefault(val, fallback string) string {
	if val = strings.TrimSpace(val); val != "" {
		return val
	}
	return fallback
}
