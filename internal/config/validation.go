package config

import (
	"fmt"
	"strings"

	"tradewatch/internal/scheduler"
)

// validate 对配置进行基础校验；任何错误都会中止启动。
func validate(c *Config) error {
	if err := c.DataSource.validate(); err != nil {
		return err
	}
	if err := c.AI.validate(); err != nil {
		return err
	}
	if err := c.Prompt.Locale.validate(); err != nil {
		return err
	}
	if err := c.Pipeline.validate(); err != nil {
		return err
	}
	return validateInstruments(c.Instruments)
}

func (d *DataSourceConfig) validate() error {
	if strings.TrimSpace(d.BaseURL) == "" {
		return fmt.Errorf("datasource.base_url cannot be empty")
	}
	if d.Retry.MaxRetries > 10 {
		return fmt.Errorf("datasource.retry.max_retries must be <= 10")
	}
	if d.Retry.MaxDelayMS < d.Retry.BaseDelayMS {
		return fmt.Errorf("datasource.retry.max_delay_ms must be >= base_delay_ms")
	}
	return nil
}

func (a *AIConfig) validate() error {
	if strings.TrimSpace(a.Model) == "" {
		return fmt.Errorf("ai.model cannot be empty")
	}
	if strings.TrimSpace(a.APIURL) == "" {
		return fmt.Errorf("ai.api_url cannot be empty")
	}
	if a.Temperature > 2 {
		return fmt.Errorf("ai.temperature must be in [0,2]")
	}
	if a.MaxTokens < 0 {
		return fmt.Errorf("ai.max_tokens must be >= 0")
	}
	return nil
}

func (l *LocaleConfig) validate() error {
	dec := l.DecimalSeparator
	if dec != "." && dec != "," {
		return fmt.Errorf("prompt.locale.decimal_separator must be \".\" or \",\"")
	}
	if l.ThousandsSeparator == dec {
		return fmt.Errorf("prompt.locale separators must differ")
	}
	return nil
}

func (p *PipelineConfig) validate() error {
	if p.MaxConcurrency < 1 {
		return fmt.Errorf("pipeline.max_concurrency must be >= 1")
	}
	if p.FetchTimeoutSeconds < 0 {
		return fmt.Errorf("pipeline.fetch_timeout_seconds must be >= 0")
	}
	if p.OffsetSeconds < 0 {
		return fmt.Errorf("pipeline.offset_seconds must be >= 0")
	}
	if _, ok := scheduler.ParseIntervalDuration(p.Interval); !ok {
		return fmt.Errorf("pipeline.interval invalid: %q", p.Interval)
	}
	return nil
}

func validateInstruments(list []InstrumentConfig) error {
	if len(list) == 0 {
		return fmt.Errorf("instruments requires at least one entry")
	}
	seen := make(map[string]bool, len(list))
	for i, inst := range list {
		if inst.Symbol == "" {
			return fmt.Errorf("instruments[%d] missing symbol", i)
		}
		if seen[inst.Symbol] {
			return fmt.Errorf("instruments contains duplicate symbol %s", inst.Symbol)
		}
		seen[inst.Symbol] = true
		switch inst.Category {
		case "CRYPTO":
		case "EQUITY":
			if inst.ProviderID == "" {
				return fmt.Errorf("instruments.%s: equity requires provider_id", inst.Symbol)
			}
		default:
			return fmt.Errorf("instruments.%s: unknown category %q", inst.Symbol, inst.Category)
		}
	}
	return nil
}
