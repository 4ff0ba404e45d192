package decision

import (
	"tradewatch/internal/schema"
	"tradewatch/internal/types"
)

// TradeDecision 是解析并校验后的交易建议。可选数值字段为 nil 表示模型未给出。
type TradeDecision struct {
	Symbol       string         `json:"symbol" yaml:"symbol"`
	Action       string         `json:"action" yaml:"action"`
	Rationale    string         `json:"rationale" yaml:"rationale"`
	CurrentPrice float64        `json:"current_price" yaml:"current_price"`
	EntryPrice   *float64       `json:"entry_price,omitempty" yaml:"entry_price,omitempty"`
	StopLoss     *float64       `json:"stop_loss,omitempty" yaml:"stop_loss,omitempty"`
	TakeProfit   *float64       `json:"take_profit,omitempty" yaml:"take_profit,omitempty"`
	Confidence   *float64       `json:"confidence,omitempty" yaml:"confidence,omitempty"`
	Extras       map[string]any `json:"extras,omitempty" yaml:"extras,omitempty"`
}

// Request 是渲染好的提示词与输出约定（DecisionRequest）。
type Request struct {
	Symbol   string
	Category types.Category
	System   string
	User     string
	Schema   *schema.OutputSchema
}
