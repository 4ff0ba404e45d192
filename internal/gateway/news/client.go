// Package news fetches business headlines from newsdata.io.
package news

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"tradewatch/internal/market"
	"tradewatch/internal/pkg/retry"
	"tradewatch/internal/pkg/text"
)

type Config struct {
	BaseURL  string
	APIKey   string
	Language string
	Category string
	MaxItems int
	Timeout  time.Duration
	Retry    retry.Policy
}

type Client struct {
	cfg   Config
	http  *resty.Client
	retry retry.Policy
}

var _ market.NewsSource = (*Client)(nil)

func New(cfg Config) *Client {
	policy := cfg.Retry
	if policy == nil {
		policy = retry.None{}
	}
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = 5
	}
	return &Client{
		cfg:   cfg,
		http:  resty.New().SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).SetTimeout(cfg.Timeout),
		retry: policy,
	}
}

type headline struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Source      string `json:"source,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
}

// Headlines 返回精简后的新闻列表（标题、摘要、来源、时间）。
func (c *Client) Headlines(ctx context.Context, symbol string) (market.Payload, error) {
	var out market.Payload
	err := c.retry.Do(ctx, func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"apikey":   c.cfg.APIKey,
				"q":        fmt.Sprintf("%q", symbol+" stock"),
				"language": c.cfg.Language,
				"category": c.cfg.Category,
			}).
			Get("/news")
		if err != nil {
			return &market.FetchError{Kind: market.KindNews, Symbol: symbol, Cause: err}
		}
		if !resp.IsSuccess() {
			return &market.FetchError{
				Kind:   market.KindNews,
				Symbol: symbol,
				Status: resp.StatusCode(),
				Cause:  fmt.Errorf("%s: %s", http.StatusText(resp.StatusCode()), text.Truncate(resp.String(), 200)),
			}
		}
		p, err := c.project(resp.Body())
		if err != nil {
			return &market.FetchError{Kind: market.KindNews, Symbol: symbol, Status: resp.StatusCode(), Cause: err}
		}
		out = p
		return nil
	})
	if err != nil {
		return market.Payload{}, err
	}
	return out, nil
}

func (c *Client) project(body []byte) (market.Payload, error) {
	if !gjson.ValidBytes(body) {
		return market.Payload{}, market.ErrInvalidPayload
	}
	root := gjson.ParseBytes(body)
	if status := root.Get("status").String(); status != "" && status != "success" {
		return market.Payload{}, fmt.Errorf("newsdata status %s: %s", status, root.Get("results.message").String())
	}
	items := make([]headline, 0, c.cfg.MaxItems)
	root.Get("results").ForEach(func(_, v gjson.Result) bool {
		title := strings.TrimSpace(v.Get("title").String())
		if title == "" {
			return true
		}
		items = append(items, headline{
			Title:       title,
			Description: text.Truncate(strings.TrimSpace(v.Get("description").String()), 400),
			Source:      v.Get("source_id").String(),
			PublishedAt: v.Get("pubDate").String(),
		})
		return len(items) < c.cfg.MaxItems
	})
	raw, err := json.Marshal(items)
	if err != nil {
		return market.Payload{}, err
	}
	return market.NewPayload(raw)
}
