package decision

import (
	"context"
	"encoding/json"
	"fmt"

	"tradewatch/internal/gateway/provider"
	"tradewatch/internal/logger"
	"tradewatch/internal/pkg/jsonutil"
)

// Engine 调用模型并把两种回复形态归一为同一个字符串。
type Engine struct {
	Provider        provider.ModelProvider
	UseFunctionCall bool
}

func NewEngine(p provider.ModelProvider, useFunctionCall bool) *Engine {
	return &Engine{Provider: p, UseFunctionCall: useFunctionCall}
}

// Infer 返回待解析的原始 JSON 文本；失败一律为 *InferenceError。
func (e *Engine) Infer(ctx context.Context, req Request) (raw string, err error) {
	if e == nil || e.Provider == nil {
		return "", &InferenceError{Provider: "none", Cause: fmt.Errorf("no model provider configured")}
	}
	id := e.Provider.ID()
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("provider %s panic for %s: %v", id, req.Symbol, r)
			raw, err = "", &InferenceError{Provider: id, Cause: fmt.Errorf("panic: %v", r)}
		}
	}()

	payload := provider.ChatPayload{System: req.System, User: req.User}
	var toolDump string
	if e.UseFunctionCall && req.Schema != nil {
		payload.Tool = provider.ToolFromSchema(req.Schema)
		if b, mErr := json.Marshal(req.Schema.JSONSchema()); mErr == nil {
			toolDump = req.Schema.Name + " " + string(b)
		}
	}
	logger.LogLLMRequest(id, req.Symbol, req.System, req.User, toolDump)

	reply, callErr := e.Provider.Call(ctx, payload)
	if callErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			callErr = fmt.Errorf("%w: %v", ctxErr, callErr)
		}
		logger.Warnf("provider %s call failed for %s: %v", id, req.Symbol, callErr)
		return "", &InferenceError{Provider: id, Cause: callErr}
	}
	logger.LogLLMResponse(id, req.Symbol, reply.Kind.String(), jsonutil.Pretty(reply.Payload()))
	if reply.Kind == provider.ReplyNone || reply.Payload() == "" {
		return "", &InferenceError{Provider: id, Cause: ErrEmptyReply}
	}
	if reply.Kind == provider.ReplyToolCall {
		logger.Debugf("provider %s answered %s via tool %s", id, req.Symbol, reply.ToolName)
	}
	return reply.Payload(), nil
}
