package provider

import (
	"context"

	einoschema "github.com/cloudwego/eino/schema"
)

type ChatPayload struct {
	System string
	User   string
	// Tool 非空时以函数调用方式约束输出。
	Tool *einoschema.ToolInfo
}

type ReplyKind int

const (
	ReplyNone ReplyKind = iota
	ReplyText
	ReplyToolCall
)

func (k ReplyKind) String() string {
	switch k {
	case ReplyText:
		return "text"
	case ReplyToolCall:
		return "tool_call"
	default:
		return "none"
	}
}

// Reply 是模型的原始回复：文本与函数调用参数至多一个有值。
type Reply struct {
	Kind      ReplyKind
	Text      string
	ToolName  string
	Arguments string
}

// Payload 返回有值的那一侧；ReplyNone 时为空串。
func (r Reply) Payload() string {
	switch r.Kind {
	case ReplyText:
		return r.Text
	case ReplyToolCall:
		return r.Arguments
	default:
		return ""
	}
}

type ModelProvider interface {
	ID() string
	Call(ctx context.Context, payload ChatPayload) (Reply, error)
}
