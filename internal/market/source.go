package market

import (
	"context"
	"time"
)

// Kind 标识一种证据数据。
type Kind string

const (
	KindHoldings         Kind = "holdings"
	KindPrice            Kind = "price"
	KindTechnical        Kind = "technical"
	KindPosition         Kind = "position"
	KindCorporateActions Kind = "corporate_actions"
	KindBalanceSheet     Kind = "balance_sheet"
	KindCashFlow         Kind = "cash_flow"
	KindIncome           Kind = "income_statement"
	KindNews             Kind = "news"
)

// StatementKinds 按固定顺序列出三张财务报表。
var StatementKinds = []Kind{KindBalanceSheet, KindCashFlow, KindIncome}

// Source 是券商数据接口：每种数据一个方法，每次调用恰好一次鉴权 GET。
// 实现不得缓存，失败统一返回 *FetchError。
type Source interface {
	Holdings(ctx context.Context) (Payload, error)

	StockPrice(ctx context.Context, symbol, stockID string) (Payload, error)

	// CryptoPrice 返回从 since 当天 00:00 UTC 起的 OHLC 统计。
	CryptoPrice(ctx context.Context, symbol string, since time.Time) (Payload, error)

	StockTechnicals(ctx context.Context, symbol, stockID string) (Payload, error)

	CryptoTechnicals(ctx context.Context, symbol string) (Payload, error)

	PositionOverview(ctx context.Context, symbol, stockID string) (Payload, error)

	CorporateActions(ctx context.Context, symbol, stockID string) (Payload, error)

	// Statement 只接受 StatementKinds 中的类型。
	Statement(ctx context.Context, kind Kind, symbol, stockID string) (Payload, error)
}

// NewsSource 提供按标的检索的新闻。
type NewsSource interface {
	Headlines(ctx context.Context, symbol string) (Payload, error)
}
