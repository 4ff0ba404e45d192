package pluang

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"tradewatch/internal/market"
)

func (c *Client) Holdings(ctx context.Context) (market.Payload, error) {
	return c.get(ctx, request{
		kind: market.KindHoldings,
		path: pathHoldings,
		query: map[string]string{
			"isTodayReturn": "true",
			"pageSize":      strconv.Itoa(c.cfg.HoldingsPageSize),
			"page":          "1",
			"currency":      c.cfg.Currency,
			"category":      c.cfg.HoldingsCategory,
			"sortKey":       "value_desc",
		},
	})
}

func (c *Client) StockPrice(ctx context.Context, symbol, stockID string) (market.Payload, error) {
	p, err := c.get(ctx, request{
		kind:   market.KindPrice,
		symbol: symbol,
		path:   pathStockPrice,
		query:  map[string]string{"globalStockIds": stockID},
	})
	if err != nil {
		return p, err
	}
	// 响应按 stockId 分组
	if sub, ok := p.Sub(stockID); ok {
		return sub, nil
	}
	return p, nil
}

func (c *Client) CryptoPrice(ctx context.Context, symbol string, since time.Time) (market.Payload, error) {
	day := since.UTC().Truncate(24 * time.Hour)
	return c.get(ctx, request{
		kind:   market.KindPrice,
		symbol: symbol,
		path:   pathCryptoOHLC,
		params: map[string]string{"symbol": symbol},
		query: map[string]string{
			"timeFrame": c.cfg.TimeFrame,
			"startDate": day.Format("2006-01-02T15:04:05.000Z"),
		},
	})
}

func (c *Client) StockTechnicals(ctx context.Context, symbol, stockID string) (market.Payload, error) {
	return c.get(ctx, request{
		kind:   market.KindTechnical,
		symbol: symbol,
		path:   pathTechnicals,
		query: map[string]string{
			"timeFrame":     c.cfg.TimeFrame,
			"assetCategory": "global_stock",
			"assetId":       stockID,
		},
	})
}

func (c *Client) CryptoTechnicals(ctx context.Context, symbol string) (market.Payload, error) {
	return c.get(ctx, request{
		kind:   market.KindTechnical,
		symbol: symbol,
		path:   pathTechnicals,
		query: map[string]string{
			"timeFrame":     c.cfg.TimeFrame,
			"assetCategory": "cryptocurrency",
			"assetSymbol":   symbol,
		},
	})
}

func (c *Client) PositionOverview(ctx context.Context, symbol, stockID string) (market.Payload, error) {
	return c.get(ctx, request{
		kind:   market.KindPosition,
		symbol: symbol,
		path:   pathPosition,
		params: map[string]string{"stockId": stockID},
	})
}

// CorporateActions 只返回 upcoming 列表。
func (c *Client) CorporateActions(ctx context.Context, symbol, stockID string) (market.Payload, error) {
	p, err := c.get(ctx, request{
		kind:   market.KindCorporateActions,
		symbol: symbol,
		path:   pathCorporate,
		params: map[string]string{"stockId": stockID},
	})
	if err != nil {
		return p, err
	}
	if sub, ok := p.Sub("upcoming"); ok {
		return sub, nil
	}
	return market.MustPayload("[]"), nil
}

func (c *Client) Statement(ctx context.Context, kind market.Kind, symbol, stockID string) (market.Payload, error) {
	endpoint, ok := statementEndpoints[kind]
	if !ok {
		return market.Payload{}, &market.FetchError{Kind: kind, Symbol: symbol, Cause: fmt.Errorf("unsupported statement kind")}
	}
	return c.get(ctx, request{
		kind:   kind,
		symbol: symbol,
		path:   fmt.Sprintf(pathStatementFmt, endpoint),
		query: map[string]string{
			"stockId":    stockID,
			"timePeriod": c.cfg.StatementPeriod,
			"dataFormat": c.cfg.StatementFormat,
		},
	})
}
