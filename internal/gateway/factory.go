package gateway

import (
	"fmt"
	"time"

	"tradewatch/internal/config"
	"tradewatch/internal/gateway/news"
	"tradewatch/internal/gateway/pluang"
	"tradewatch/internal/market"
	"tradewatch/internal/pkg/retry"
)

// NewSourceFromConfig 构造券商数据源。
func NewSourceFromConfig(cfg *config.Config) (market.Source, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	ds := cfg.DataSource
	pc := pluang.Config{
		BaseURL:          ds.BaseURL,
		Token:            cfg.Credentials.DataSourceToken,
		Timeout:          ds.Timeout(),
		Currency:         ds.Currency,
		HoldingsCategory: ds.HoldingsCategory,
		HoldingsPageSize: ds.HoldingsPageSize,
		TimeFrame:        ds.TimeFrame,
		StatementPeriod:  ds.StatementPeriod,
		StatementFormat:  ds.StatementFormat,
		Headers:          ds.Headers,
		Retry:            retryPolicy(ds.Retry),
	}
	if ds.Breaker.Enabled {
		pc.BreakerThreshold = ds.Breaker.Threshold
		pc.BreakerCooldown = time.Duration(ds.Breaker.CooldownSeconds) * time.Second
	}
	return pluang.New(pc), nil
}

// NewNewsSourceFromConfig 在新闻关闭时返回 nil。
func NewNewsSourceFromConfig(cfg *config.Config) market.NewsSource {
	if cfg == nil || !cfg.News.Enabled {
		return nil
	}
	n := cfg.News
	return news.New(news.Config{
		BaseURL:  n.BaseURL,
		APIKey:   cfg.Credentials.NewsKey,
		Language: n.Language,
		Category: n.Category,
		MaxItems: n.MaxItems,
		Timeout:  time.Duration(n.TimeoutSeconds) * time.Second,
		Retry:    retryPolicy(cfg.DataSource.Retry),
	})
}

func retryPolicy(rc config.RetryConfig) retry.Policy {
	return retry.FromConfig(
		rc.MaxRetries,
		time.Duration(rc.BaseDelayMS)*time.Millisecond,
		time.Duration(rc.MaxDelayMS)*time.Millisecond,
		rc.Multiplier,
		pluang.Retryable,
	)
}
