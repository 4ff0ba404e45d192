package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
)

type ModelCfg struct {
	Provider    string
	APIURL      string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// BuildProviderFromConfig 目前只支持 OpenAI 兼容接口（openai / deepseek / qwen 等）。
func BuildProviderFromConfig(ctx context.Context, m ModelCfg) (ModelProvider, error) {
	switch strings.ToLower(strings.TrimSpace(m.Provider)) {
	case "", "openai", "deepseek", "qwen", "openai-compatible":
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", m.Provider)
	}
	temp := float32(m.Temperature)
	cfg := &openai.ChatModelConfig{
		BaseURL:     strings.TrimRight(m.APIURL, "/"),
		APIKey:      m.APIKey,
		Model:       m.Model,
		Temperature: &temp,
		Timeout:     m.Timeout,
	}
	if m.MaxTokens > 0 {
		maxTokens := m.MaxTokens
		cfg.MaxTokens = &maxTokens
	}
	chat, err := openai.NewChatModel(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init chat model: %w", err)
	}
	id := m.Provider
	if id == "" {
		id = "openai"
	}
	return NewEinoProvider(id+":"+m.Model, chat), nil
}
