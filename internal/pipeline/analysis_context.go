package pipeline

import (
	"sync"
	"time"

	"tradewatch/internal/market"
	"tradewatch/internal/types"
)

// AnalysisContext 表示某个标的在一次 Pipeline 执行过程中的上下文。
// 中间件并发写入，读取方拿到的都是副本。
type AnalysisContext struct {
	Instrument types.Instrument
	Run        *RunContext
	StartedAt  time.Time

	mu       sync.RWMutex
	evidence map[market.Kind]market.Payload
	failures []FetchFailure
}

// NewContext 初始化上下文。
func NewContext(inst types.Instrument, rc *RunContext) *AnalysisContext {
	return &AnalysisContext{
		Instrument: inst,
		Run:        rc,
		StartedAt:  time.Now(),
		evidence:   make(map[market.Kind]market.Payload),
	}
}

// SetEvidence 保存一种证据；零值 payload 被忽略。
func (ac *AnalysisContext) SetEvidence(kind market.Kind, p market.Payload) {
	if p.IsZero() {
		return
	}
	ac.mu.Lock()
	defer ac.mu.Unlock()
	ac.evidence[kind] = p
}

func (ac *AnalysisContext) Evidence(kind market.Kind) (market.Payload, bool) {
	ac.mu.RLock()
	defer ac.mu.RUnlock()
	p, ok := ac.evidence[kind]
	return p, ok
}

// RecordFailure 记录一次失败的采集。
func (ac *AnalysisContext) RecordFailure(err *MiddlewareError) {
	if err == nil {
		return
	}
	f := FetchFailure{Kind: err.Kind, Middleware: err.Middleware, Err: err.Err}
	if fe, ok := market.AsFetchError(err.Err); ok {
		f.Status = fe.Status
	}
	ac.mu.Lock()
	defer ac.mu.Unlock()
	ac.failures = append(ac.failures, f)
}

func (ac *AnalysisContext) Failures() []FetchFailure {
	ac.mu.RLock()
	defer ac.mu.RUnlock()
	return append([]FetchFailure(nil), ac.failures...)
}
