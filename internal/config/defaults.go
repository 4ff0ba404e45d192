package config

import (
	"strings"
)

// 默认值常量
const (
	defaultAppEnv            = "dev"
	defaultAppLogLevel       = "info"
	defaultAppLogFormat      = "text"
	defaultAppHTTPAddr       = ":9991"
	defaultAppLogPath        = "logs/tradewatch.log"
	defaultAppLLMLogPath     = "logs/tradewatch-llm.log"
	defaultDataSourceURL     = "https://api-pluang.pluang.com"
	defaultDataSourceTimeout = 15
	defaultCurrency          = "USD"
	defaultHoldingsCategory  = "global_equity"
	defaultHoldingsPageSize  = 50
	defaultTimeFrame         = "DAILY"
	defaultStatementPeriod   = "QUARTER"
	defaultStatementFormat   = "TEXT"
	defaultRetryBaseDelayMS  = 500
	defaultRetryMaxDelayMS   = 8000
	defaultRetryMultiplier   = 2.0
	defaultBreakerThreshold  = 3
	defaultBreakerCooldown   = 60
	defaultNewsURL           = "https://newsdata.io/api/1"
	defaultNewsLanguage      = "en"
	defaultNewsCategory      = "business"
	defaultNewsMaxItems      = 5
	defaultNewsTimeout       = 10
	defaultAIProvider        = "openai"
	defaultAIURL             = "https://api.openai.com/v1"
	defaultAIModel           = "gpt-4o-mini"
	defaultAITimeout         = 60
	defaultPromptDir         = "prompts"
	defaultDecimalSeparator  = "."
	defaultThousandsSep      = ","
	defaultMaxConcurrency    = 1
	defaultFetchConcurrency  = 4
	defaultRunTimeout        = 600
	defaultInterval          = "1h"
	defaultTraceService      = "tradewatch"
)

var defaultHeaders = map[string]string{
	"accept":     "application/json",
	"origin":     "https://trade.pluang.com",
	"referer":    "https://trade.pluang.com/",
	"user-agent": "Mozilla/5.0 (Windows NT 10.0; Win64; x64)",
}

// applyDefaults 为所有子配置应用默认值。
func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.DataSource.applyDefaults(keys)
	c.News.applyDefaults(keys)
	c.AI.applyDefaults(keys)
	c.Prompt.applyDefaults(keys)
	c.Pipeline.applyDefaults(keys)
	applyFieldDefaults(keys, stringFieldDefault("trace.service_name", &c.Trace.ServiceName, defaultTraceService))
	for i := range c.Instruments {
		inst := &c.Instruments[i]
		inst.Symbol = strings.ToUpper(strings.TrimSpace(inst.Symbol))
		inst.Category = strings.ToUpper(strings.TrimSpace(inst.Category))
		inst.ProviderID = strings.TrimSpace(inst.ProviderID)
	}
}

func (a *AppConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.log_format", &a.LogFmt, defaultAppLogFormat),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
		stringFieldDefault("app.log_path", &a.LogPath, defaultAppLogPath),
		stringFieldDefault("app.llm_log_path", &a.LLMLog, defaultAppLLMLogPath),
	)
}

func (d *DataSourceConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		stringFieldDefault("datasource.base_url", &d.BaseURL, defaultDataSourceURL),
		stringFieldDefault("datasource.currency", &d.Currency, defaultCurrency),
		stringFieldDefault("datasource.holdings_category", &d.HoldingsCategory, defaultHoldingsCategory),
		stringFieldDefault("datasource.time_frame", &d.TimeFrame, defaultTimeFrame),
		stringFieldDefault("datasource.statement_period", &d.StatementPeriod, defaultStatementPeriod),
		stringFieldDefault("datasource.statement_format", &d.StatementFormat, defaultStatementFormat),
		intFieldDefault("datasource.timeout_seconds", &d.TimeoutSeconds, defaultDataSourceTimeout),
		intFieldDefault("datasource.holdings_page_size", &d.HoldingsPageSize, defaultHoldingsPageSize),
		intFieldDefault("datasource.retry.base_delay_ms", &d.Retry.BaseDelayMS, defaultRetryBaseDelayMS),
		intFieldDefault("datasource.retry.max_delay_ms", &d.Retry.MaxDelayMS, defaultRetryMaxDelayMS),
		intFieldDefault("datasource.breaker.threshold", &d.Breaker.Threshold, defaultBreakerThreshold),
		intFieldDefault("datasource.breaker.cooldown_seconds", &d.Breaker.CooldownSeconds, defaultBreakerCooldown),
		fieldDefault{
			key:   "datasource.retry.multiplier",
			need:  func() bool { return d.Retry.Multiplier <= 1 },
			apply: func() { d.Retry.Multiplier = defaultRetryMultiplier },
		},
	)
	if d.Retry.MaxRetries < 0 {
		d.Retry.MaxRetries = 0
	}
	// viper 会把 header 名转成小写，这里统一补齐缺省值。
	if d.Headers == nil {
		d.Headers = make(map[string]string, len(defaultHeaders))
	}
	for k, v := range defaultHeaders {
		if _, ok := d.Headers[k]; !ok {
			d.Headers[k] = v
		}
	}
}

func (n *NewsConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		stringFieldDefault("news.base_url", &n.BaseURL, defaultNewsURL),
		stringFieldDefault("news.language", &n.Language, defaultNewsLanguage),
		stringFieldDefault("news.category", &n.Category, defaultNewsCategory),
		intFieldDefault("news.max_items", &n.MaxItems, defaultNewsMaxItems),
		intFieldDefault("news.timeout_seconds", &n.TimeoutSeconds, defaultNewsTimeout),
	)
}

func (a *AIConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		stringFieldDefault("ai.provider", &a.Provider, defaultAIProvider),
		stringFieldDefault("ai.api_url", &a.APIURL, defaultAIURL),
		stringFieldDefault("ai.model", &a.Model, defaultAIModel),
		intFieldDefault("ai.timeout_seconds", &a.TimeoutSeconds, defaultAITimeout),
	)
	if a.Temperature < 0 {
		a.Temperature = 0
	}
}

func (p *PromptConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		stringFieldDefault("prompt.dir", &p.Dir, defaultPromptDir),
		stringFieldDefault("prompt.currency", &p.Currency, defaultCurrency),
		stringFieldDefault("prompt.locale.decimal_separator", &p.Locale.DecimalSeparator, defaultDecimalSeparator),
		stringFieldDefault("prompt.locale.thousands_separator", &p.Locale.ThousandsSeparator, defaultThousandsSep),
		fieldDefault{
			key:   "prompt.locale.currency_symbols",
			need:  func() bool { return len(p.Locale.CurrencySymbols) == 0 },
			apply: func() { p.Locale.CurrencySymbols = []string{"$", "US$", "USD", "Rp", "IDR"} },
		},
	)
}

func (p *PipelineConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		intFieldDefault("pipeline.max_concurrency", &p.MaxConcurrency, defaultMaxConcurrency),
		intFieldDefault("pipeline.fetch_concurrency", &p.FetchConcurrency, defaultFetchConcurrency),
		intFieldDefault("pipeline.run_timeout_seconds", &p.RunTimeoutSeconds, defaultRunTimeout),
		stringFieldDefault("pipeline.interval", &p.Interval, defaultInterval),
		boolFieldDefault("pipeline.run_immediately", &p.RunImmediately, true),
	)
}

// Helper functions

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key:   key,
		need:  func() bool { return strings.TrimSpace(*target) == "" },
		apply: func() { *target = def },
	}
}

func intFieldDefault(key string, target *int, def int) fieldDefault {
	return fieldDefault{
		key:   key,
		need:  func() bool { return *target <= 0 },
		apply: func() { *target = def },
	}
}

func boolFieldDefault(key string, target *bool, def bool) fieldDefault {
	return fieldDefault{
		key:   key,
		apply: func() { *target = def },
	}
}
