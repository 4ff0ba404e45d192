// Package pluang implements market.Source on top of the Pluang brokerage API.
package pluang

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"tradewatch/internal/logger"
	"tradewatch/internal/market"
	"tradewatch/internal/pkg/circuit"
	"tradewatch/internal/pkg/retry"
	"tradewatch/internal/pkg/text"
)

const (
	pathHoldings     = "/api/v4/portfolio/asset-holdings"
	pathStockPrice   = "/api/v4/asset/global-stock/price/currentPriceByStockIds"
	pathCryptoOHLC   = "/api/v4/asset/cryptocurrency/price/ohlcStatsByDateRange/{symbol}"
	pathTechnicals   = "/api/v4/technical-indicators/summary"
	pathPosition     = "/api/v4/asset/global-stock/{stockId}/overview/position"
	pathCorporate    = "/api/v4/asset/global-stock/{stockId}/corporateActions"
	pathStatementFmt = "/api/v3/asset/global-stock/financials/%s"
)

var statementEndpoints = map[market.Kind]string{
	market.KindBalanceSheet: "balanceSheet",
	market.KindCashFlow:     "cashflowStatement",
	market.KindIncome:       "incomeStatement",
}

type Config struct {
	BaseURL          string
	Token            string
	Timeout          time.Duration
	Currency         string
	HoldingsCategory string
	HoldingsPageSize int
	TimeFrame        string
	StatementPeriod  string
	StatementFormat  string
	Headers          map[string]string
	Retry            retry.Policy

	// BreakerThreshold 为 0 时不启用熔断。
	BreakerThreshold int
	BreakerCooldown  time.Duration
}

// Client 实现 market.Source。不缓存任何响应。
type Client struct {
	cfg      Config
	http     *resty.Client
	retry    retry.Policy
	breakers map[market.Kind]*circuit.Breaker
}

var _ market.Source = (*Client)(nil)

func New(cfg Config) *Client {
	hc := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeaders(cfg.Headers).
		SetAuthToken(cfg.Token)
	policy := cfg.Retry
	if policy == nil {
		policy = retry.None{}
	}
	c := &Client{cfg: cfg, http: hc, retry: policy}
	if cfg.BreakerThreshold > 0 {
		c.breakers = make(map[market.Kind]*circuit.Breaker)
		for _, k := range []market.Kind{
			market.KindHoldings, market.KindPrice, market.KindTechnical, market.KindPosition,
			market.KindCorporateActions, market.KindBalanceSheet, market.KindCashFlow, market.KindIncome,
		} {
			c.breakers[k] = circuit.New("pluang."+string(k), cfg.BreakerThreshold, cfg.BreakerCooldown)
		}
	}
	return c
}

// Retryable is the retry predicate for this client's errors.
func Retryable(err error) bool {
	fe, ok := market.AsFetchError(err)
	return ok && fe.Temporary()
}

type request struct {
	kind   market.Kind
	symbol string
	path   string
	params map[string]string
	query  map[string]string
}

func (c *Client) get(ctx context.Context, req request) (market.Payload, error) {
	var out market.Payload
	call := func() error {
		return c.retry.Do(ctx, func() error {
			p, err := c.once(ctx, req)
			if err != nil {
				return err
			}
			out = p
			return nil
		})
	}
	var err error
	if b := c.breakers[req.kind]; b != nil {
		err = b.Do(call, func(err error) bool { return !errors.Is(err, context.Canceled) })
	} else {
		err = call()
	}
	if err != nil {
		if _, ok := market.AsFetchError(err); !ok {
			err = &market.FetchError{Kind: req.kind, Symbol: req.symbol, Cause: err}
		}
		logger.Debugf("pluang %s %s failed: %v", req.kind, req.symbol, err)
		return market.Payload{}, err
	}
	return out, nil
}

func (c *Client) once(ctx context.Context, req request) (market.Payload, error) {
	r := c.http.R().SetContext(ctx)
	if len(req.params) > 0 {
		r.SetPathParams(req.params)
	}
	if len(req.query) > 0 {
		r.SetQueryParams(req.query)
	}
	resp, err := r.Get(req.path)
	if err != nil {
		return market.Payload{}, &market.FetchError{Kind: req.kind, Symbol: req.symbol, Cause: err}
	}
	if !resp.IsSuccess() {
		return market.Payload{}, &market.FetchError{
			Kind:   req.kind,
			Symbol: req.symbol,
			Status: resp.StatusCode(),
			Cause:  fmt.Errorf("%s: %s", http.StatusText(resp.StatusCode()), text.Truncate(strings.TrimSpace(resp.String()), 200)),
		}
	}
	p, err := market.NewPayload(resp.Body())
	if err != nil {
		return market.Payload{}, &market.FetchError{Kind: req.kind, Symbol: req.symbol, Status: resp.StatusCode(), Cause: err}
	}
	return p, nil
}
