package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	einoschema "github.com/cloudwego/eino/schema"
)

// EinoProvider 通过 eino ChatModel 调用兼容 OpenAI 的补全接口。
type EinoProvider struct {
	id   string
	chat model.ToolCallingChatModel
}

func NewEinoProvider(id string, chat model.ToolCallingChatModel) *EinoProvider {
	return &EinoProvider{id: id, chat: chat}
}

func (p *EinoProvider) ID() string { return p.id }

func (p *EinoProvider) Call(ctx context.Context, payload ChatPayload) (Reply, error) {
	msgs := make([]*einoschema.Message, 0, 2)
	if strings.TrimSpace(payload.System) != "" {
		msgs = append(msgs, einoschema.SystemMessage(payload.System))
	}
	msgs = append(msgs, einoschema.UserMessage(payload.User))

	chat := p.chat
	if payload.Tool != nil {
		bound, err := p.chat.WithTools([]*einoschema.ToolInfo{payload.Tool})
		if err != nil {
			return Reply{}, fmt.Errorf("bind tool %s: %w", payload.Tool.Name, err)
		}
		chat = bound
	}
	msg, err := chat.Generate(ctx, msgs)
	if err != nil {
		return Reply{}, err
	}
	return replyFromMessage(msg), nil
}

// replyFromMessage 文本优先，其次第一个带参数的函数调用。
func replyFromMessage(msg *einoschema.Message) Reply {
	if msg == nil {
		return Reply{}
	}
	if text := strings.TrimSpace(msg.Content); text != "" {
		return Reply{Kind: ReplyText, Text: text}
	}
	for _, call := range msg.ToolCalls {
		args := strings.TrimSpace(call.Function.Arguments)
		if args == "" {
			continue
		}
		return Reply{Kind: ReplyToolCall, ToolName: call.Function.Name, Arguments: args}
	}
	return Reply{}
}
