package config

import (
	"strings"
	"time"
)

// Config 是 tradewatch 的主配置载体。
type Config struct {
	App         AppConfig          `toml:"app"`
	DataSource  DataSourceConfig   `toml:"datasource"`
	News        NewsConfig         `toml:"news"`
	AI          AIConfig           `toml:"ai"`
	Prompt      PromptConfig       `toml:"prompt"`
	Schema      SchemaConfig       `toml:"schema"`
	Pipeline    PipelineConfig     `toml:"pipeline"`
	Trace       TraceConfig        `toml:"trace"`
	Instruments []InstrumentConfig `toml:"instruments"`

	// Credentials 不从配置文件读取，只来自环境变量。
	Credentials Credentials `toml:"-"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	LogFmt   string `toml:"log_format"`
	HTTPAddr string `toml:"http_addr"`
	LogPath  string `toml:"log_path"`
	LLMLog   string `toml:"llm_log_path"`
	LLMDump  bool   `toml:"llm_dump_payload"`
}

// DataSourceConfig 描述券商数据接口。
type DataSourceConfig struct {
	BaseURL          string            `toml:"base_url"`
	TimeoutSeconds   int               `toml:"timeout_seconds"`
	Currency         string            `toml:"currency"`
	HoldingsCategory string            `toml:"holdings_category"`
	HoldingsPageSize int               `toml:"holdings_page_size"`
	TimeFrame        string            `toml:"time_frame"`
	StatementPeriod  string            `toml:"statement_period"`
	StatementFormat  string            `toml:"statement_format"`
	Headers          map[string]string `toml:"headers"`
	Retry            RetryConfig       `toml:"retry"`
	Breaker          BreakerConfig     `toml:"breaker"`
}

// RetryConfig 为空（max_retries=0）时不重试。
type RetryConfig struct {
	MaxRetries  int     `toml:"max_retries"`
	BaseDelayMS int     `toml:"base_delay_ms"`
	MaxDelayMS  int     `toml:"max_delay_ms"`
	Multiplier  float64 `toml:"multiplier"`
}

type BreakerConfig struct {
	Enabled         bool `toml:"enabled"`
	Threshold       int  `toml:"threshold"`
	CooldownSeconds int  `toml:"cooldown_seconds"`
}

type NewsConfig struct {
	Enabled        bool   `toml:"enabled"`
	BaseURL        string `toml:"base_url"`
	Language       string `toml:"language"`
	Category       string `toml:"category"`
	MaxItems       int    `toml:"max_items"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type AIConfig struct {
	Provider        string  `toml:"provider"`
	APIURL          string  `toml:"api_url"`
	Model           string  `toml:"model"`
	Temperature     float64 `toml:"temperature"`
	MaxTokens       int     `toml:"max_tokens"`
	TimeoutSeconds  int     `toml:"timeout_seconds"`
	UseFunctionCall bool    `toml:"use_function_call"`
}

type PromptConfig struct {
	Dir      string       `toml:"dir"`
	Currency string       `toml:"currency"`
	FXNote   string       `toml:"fx_note"`
	Locale   LocaleConfig `toml:"locale"`
}

// LocaleConfig 决定模型回复中数字的解析方式。
type LocaleConfig struct {
	ThousandsSeparator string   `toml:"thousands_separator"`
	DecimalSeparator   string   `toml:"decimal_separator"`
	CurrencySymbols    []string `toml:"currency_symbols"`
}

type SchemaConfig struct {
	Path  string `toml:"path"`
	Watch bool   `toml:"watch"`
}

type PipelineConfig struct {
	MaxConcurrency      int    `toml:"max_concurrency"`
	RunTimeoutSeconds   int    `toml:"run_timeout_seconds"`
	Interval            string `toml:"interval"`
	OffsetSeconds       int    `toml:"offset_seconds"`
	RunImmediately      bool   `toml:"run_immediately"`
	FetchConcurrency    int    `toml:"fetch_concurrency"`
	FetchTimeoutSeconds int    `toml:"fetch_timeout_seconds"`
}

type TraceConfig struct {
	Enabled     bool   `toml:"enabled"`
	ServiceName string `toml:"service_name"`
}

// InstrumentConfig 对应一个待分析的标的。
type InstrumentConfig struct {
	Symbol     string `toml:"symbol"`
	Category   string `toml:"category"`
	ProviderID string `toml:"provider_id"`
}

// Credentials 来自环境变量（可由 .env 提供）。
type Credentials struct {
	DataSourceToken string
	AIKey           string
	NewsKey         string
}

func (d DataSourceConfig) Timeout() time.Duration {
	return time.Duration(d.TimeoutSeconds) * time.Second
}

func (a AIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

func (p PipelineConfig) RunTimeout() time.Duration {
	if p.RunTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(p.RunTimeoutSeconds) * time.Second
}

// FetchTimeout 限制单次采集；0 表示只受运行级超时约束。
func (p PipelineConfig) FetchTimeout() time.Duration {
	if p.FetchTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(p.FetchTimeoutSeconds) * time.Second
}

type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return false
	}
	_, ok := k[path]
	return ok
}

// fieldDefault 描述单个字段的默认值设置规则。
type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
