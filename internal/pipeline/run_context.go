package pipeline

import (
	"time"

	"tradewatch/internal/market"
	"tradewatch/internal/schema"
)

// RunContext 是一次运行内所有标的共享的只读数据。构造后不得修改。
type RunContext struct {
	RunID       string
	EvaluatedAt time.Time
	Currency    string
	FXNote      string
	NewsEnabled bool
	Schemas     schema.Snapshot

	holdings    market.Payload
	holdingsErr error
}

// NewRunContext 固定账户持仓快照；err 非空表示本次运行没有持仓数据。
func NewRunContext(runID string, at time.Time, holdings market.Payload, holdingsErr error) *RunContext {
	return &RunContext{RunID: runID, EvaluatedAt: at, holdings: holdings, holdingsErr: holdingsErr}
}

// Holdings 返回账户持仓快照（Payload 本身不可变）。
func (rc *RunContext) Holdings() (market.Payload, bool) {
	if rc == nil || rc.holdings.IsZero() {
		return market.Payload{}, false
	}
	return rc.holdings, true
}

func (rc *RunContext) HoldingsErr() error {
	if rc == nil {
		return nil
	}
	return rc.holdingsErr
}

// EvaluationDate 以 UTC 日期字符串呈现。
func (rc *RunContext) EvaluationDate() string {
	return rc.EvaluatedAt.UTC().Format("2006-01-02")
}
