package engine

import (
	"time"

	"tradewatch/internal/decision"
	"tradewatch/internal/market"
	"tradewatch/internal/pipeline"
	"tradewatch/internal/types"
)

// State 是单个标的在一次运行中的状态。DECIDED 与 FAILED 为终态。
type State string

const (
	StateFetching    State = "FETCHING"
	StateAggregating State = "AGGREGATING"
	StateComposing   State = "COMPOSING"
	StateInferring   State = "INFERRING"
	StateParsing     State = "PARSING"
	StateDecided     State = "DECIDED"
	StateFailed      State = "FAILED"
)

type Reason string

const (
	ReasonDataFetchFailed      Reason = "DataFetchFailed"
	ReasonInsufficientEvidence Reason = "InsufficientEvidence"
	ReasonInferenceFailed      Reason = "InferenceFailed"
	ReasonUnparsableDecision   Reason = "UnparsableDecision"
	ReasonCancelled            Reason = "Cancelled"
)

// Failure 说明无法得到建议的原因；Stage 是失败发生时所处的状态。
type Failure struct {
	Reason Reason `json:"reason" yaml:"reason"`
	Stage  State  `json:"stage" yaml:"stage"`
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// Outcome 是每个标的每次运行的终态记录，创建后不再修改。
type Outcome struct {
	Symbol   string                  `json:"symbol" yaml:"symbol"`
	Category types.Category          `json:"category" yaml:"category"`
	State    State                   `json:"state" yaml:"state"`
	Decision *decision.TradeDecision `json:"decision,omitempty" yaml:"decision,omitempty"`
	Failure  *Failure                `json:"failure,omitempty" yaml:"failure,omitempty"`

	Evidence    []market.Kind `json:"evidence,omitempty" yaml:"evidence,omitempty"`
	FetchErrors []string      `json:"fetch_errors,omitempty" yaml:"fetch_errors,omitempty"`
	Elapsed     time.Duration `json:"elapsed_ns" yaml:"elapsed"`
}

func (o Outcome) Decided() bool { return o.State == StateDecided }

type Report struct {
	RunID         string    `json:"run_id" yaml:"run_id"`
	StartedAt     time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt    time.Time `json:"finished_at" yaml:"finished_at"`
	HoldingsError string    `json:"holdings_error,omitempty" yaml:"holdings_error,omitempty"`
	Outcomes      []Outcome `json:"outcomes" yaml:"outcomes"`
}

// Counts 返回已决策与失败的标的数。
func (r Report) Counts() (decided, failed int) {
	for _, o := range r.Outcomes {
		if o.Decided() {
			decided++
		} else {
			failed++
		}
	}
	return decided, failed
}

func decided(inst types.Instrument, d decision.TradeDecision, b pipeline.EvidenceBundle) Outcome {
	return Outcome{
		Symbol:      inst.Symbol,
		Category:    inst.Category,
		State:       StateDecided,
		Decision:    &d,
		Evidence:    b.Present(),
		FetchErrors: fetchErrors(b.Failures),
	}
}

func failed(inst types.Instrument, stage State, reason Reason, detail string) Outcome {
	return Outcome{
		Symbol:   inst.Symbol,
		Category: inst.Category,
		State:    StateFailed,
		Failure:  &Failure{Reason: reason, Stage: stage, Detail: detail},
	}
}

func failedWithEvidence(inst types.Instrument, stage State, reason Reason, detail string, b pipeline.EvidenceBundle) Outcome {
	o := failed(inst, stage, reason, detail)
	o.Evidence = b.Present()
	o.FetchErrors = fetchErrors(b.Failures)
	return o
}

func fetchErrors(fs []pipeline.FetchFailure) []string {
	if len(fs) == 0 {
		return nil
	}
	out := make([]string, 0, len(fs))
	for _, f := range fs {
		out = append(out, f.Error())
	}
	return out
}
