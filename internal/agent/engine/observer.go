package engine

import (
	"time"

	"tradewatch/internal/market"
)

// Observer 接收运行过程中的事件，用于指标等旁路记录。实现必须并发安全。
type Observer interface {
	RunStarted(runID string, instruments int)
	// StageDone symbol 为空表示运行级步骤（如持仓拉取），kind 仅对数据拉取有意义。
	StageDone(symbol string, kind market.Kind, stage State, elapsed time.Duration, err error)
	OutcomeRecorded(o Outcome)
	RunFinished(r Report)
}

type NopObserver struct{}

func (NopObserver) RunStarted(string, int) {}
func (NopObserver) StageDone(string, market.Kind, State, time.Duration, error) {}
func (NopObserver) OutcomeRecorded(Outcome) {}
func (NopObserver) RunFinished(Report) {}
