package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"tradewatch/internal/agent/engine"
	"tradewatch/internal/config"
	"tradewatch/internal/decision"
	"tradewatch/internal/gateway"
	"tradewatch/internal/gateway/provider"
	"tradewatch/internal/logger"
	"tradewatch/internal/market"
	"tradewatch/internal/metrics"
	"tradewatch/internal/pipeline"
	"tradewatch/internal/pipeline/factory"
	"tradewatch/internal/pkg/convert"
	"tradewatch/internal/prompt"
	"tradewatch/internal/schema"
	"tradewatch/internal/trace"
	livehttp "tradewatch/internal/transport/http/live"
	"tradewatch/internal/types"
)

// Version 由 -ldflags 注入。
var Version = "dev"

type AppBuilder struct {
	cfg *config.Config

	sourceFn        func(*config.Config) (market.Source, error)
	newsFn          func(*config.Config) market.NewsSource
	providerFn      func(context.Context, provider.ModelCfg) (provider.ModelProvider, error)
	promptManagerFn func(string) (*prompt.Manager, error)
	schemaFn        func(config.SchemaConfig) (*schema.Registry, error)

	metricsRegistry *prometheus.Registry
}

type AppBuilderOption func(*AppBuilder)

func NewAppBuilder(cfg *config.Config, opts ...AppBuilderOption) *AppBuilder {
	b := &AppBuilder{
		cfg:             cfg,
		sourceFn:        gateway.NewSourceFromConfig,
		newsFn:          gateway.NewNewsSourceFromConfig,
		providerFn:      provider.BuildProviderFromConfig,
		promptManagerFn: loadPromptManager,
		schemaFn:        loadSchemaRegistry,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

func loadPromptManager(dir string) (*prompt.Manager, error) {
	pm := prompt.NewManager(dir)
	if err := pm.Load(); err != nil {
		return nil, err
	}
	return pm, nil
}

func loadSchemaRegistry(sc config.SchemaConfig) (*schema.Registry, error) {
	return schema.NewRegistry(sc.Path, sc.Watch)
}

func newMetricsRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func (b *AppBuilder) Build(ctx context.Context) (*App, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if b.cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	cfg := b.cfg
	logger.SetLevel(cfg.App.LogLevel)

	instruments, err := InstrumentsFromConfig(cfg.Instruments)
	if err != nil {
		return nil, err
	}
	logger.Infof("✓ 已加载 %d 个标的: %s", len(instruments), joinInstruments(instruments))

	src, err := b.sourceFn(cfg)
	if err != nil {
		return nil, fmt.Errorf("初始化数据源失败: %w", err)
	}
	var news market.NewsSource
	if b.newsFn != nil {
		news = b.newsFn(cfg)
	}

	pm, err := b.promptManagerFn(cfg.Prompt.Dir)
	if err != nil {
		return nil, fmt.Errorf("加载提示词模板失败: %w", err)
	}
	composer, err := decision.NewComposer(pm)
	if err != nil {
		return nil, fmt.Errorf("解析提示词模板失败: %w", err)
	}

	mp, err := b.providerFn(ctx, ModelConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("初始化模型失败: %w", err)
	}
	logger.Infof("✓ 模型已就绪: %s (function_call=%v)", mp.ID(), cfg.AI.UseFunctionCall)

	registry, err := b.schemaFn(cfg.Schema)
	if err != nil {
		return nil, fmt.Errorf("加载输出 schema 失败: %w", err)
	}
	registry.OnChange(func(s schema.Snapshot) {
		logger.Infof("输出 schema 已更新 version=%d，下一次运行生效", s.Version)
	})

	if err := trace.Init(trace.Options{
		Enabled:     cfg.Trace.Enabled,
		ServiceName: cfg.Trace.ServiceName,
		Version:     Version,
	}); err != nil {
		return nil, fmt.Errorf("初始化 trace 失败: %w", err)
	}

	metricsReg := b.metricsRegistry
	if metricsReg == nil {
		metricsReg = newMetricsRegistry()
	}
	recorder := metrics.New(metricsReg)

	aggregator := pipeline.NewAggregator(&factory.Factory{
		Source:  src,
		News:    news,
		Timeout: cfg.Pipeline.FetchTimeout(),
	}, cfg.Pipeline.FetchConcurrency)
	driver := engine.NewDriver(engine.DriverParams{
		Instruments: instruments,
		Holdings:    src,
		Aggregator:  aggregator,
		Composer:    composer,
		Engine:      decision.NewEngine(mp, cfg.AI.UseFunctionCall),
		Parser:      decision.NewParser(LocaleFromConfig(cfg.Prompt.Locale)),
		Schemas:     registry,
		Settings: engine.Settings{
			Currency:       Currency(cfg),
			FXNote:         strings.TrimSpace(cfg.Prompt.FXNote),
			NewsEnabled:    news != nil,
			MaxConcurrency: cfg.Pipeline.MaxConcurrency,
			RunTimeout:     cfg.Pipeline.RunTimeout(),
		},
		Observer: recorder,
	})

	httpFn := func(ctx context.Context) (*livehttp.Server, error) {
		return livehttp.NewServer(livehttp.ServerConfig{
			Addr:        cfg.App.HTTPAddr,
			Runner:      driver,
			Schemas:     registry,
			Gatherer:    metricsReg,
			BaseContext: ctx,
		})
	}

	return &App{
		cfg:     cfg,
		driver:  driver,
		schemas: registry,
		httpFn:  httpFn,
		Summary: &StartupSummary{
			Instruments:  instruments,
			Model:        mp.ID(),
			FunctionCall: cfg.AI.UseFunctionCall,
			News:         news != nil,
			Interval:     cfg.Pipeline.Interval,
			HTTPAddr:     cfg.App.HTTPAddr,
			Trace:        trace.Enabled(),
			Prompts:      pm.Names(),
			Schemas:      registry.Snapshot(),
		},
	}, nil
}

// InstrumentsFromConfig 保持配置顺序。
func InstrumentsFromConfig(list []config.InstrumentConfig) ([]types.Instrument, error) {
	out := make([]types.Instrument, 0, len(list))
	for i, ic := range list {
		cat, err := types.ParseCategory(ic.Category)
		if err != nil {
			return nil, fmt.Errorf("instruments[%d]: %w", i, err)
		}
		out = append(out, types.Instrument{
			Symbol:     strings.ToUpper(strings.TrimSpace(ic.Symbol)),
			Category:   cat,
			ProviderID: strings.TrimSpace(ic.ProviderID),
		})
	}
	return out, nil
}

// ModelConfig maps the ai section plus the API key onto the provider config.
func ModelConfig(cfg *config.Config) provider.ModelCfg {
	return provider.ModelCfg{
		Provider:    cfg.AI.Provider,
		APIURL:      cfg.AI.APIURL,
		APIKey:      cfg.Credentials.AIKey,
		Model:       cfg.AI.Model,
		Temperature: cfg.AI.Temperature,
		MaxTokens:   cfg.AI.MaxTokens,
		Timeout:     cfg.AI.Timeout(),
	}
}

// LocaleFromConfig 未配置货币符号时沿用默认集合。
func LocaleFromConfig(lc config.LocaleConfig) convert.Locale {
	loc := convert.Locale{
		Thousands:       lc.ThousandsSeparator,
		Decimal:         lc.DecimalSeparator,
		CurrencySymbols: append([]string(nil), lc.CurrencySymbols...),
	}
	if loc.Decimal == "" {
		loc.Decimal = convert.DefaultLocale.Decimal
	}
	if len(loc.CurrencySymbols) == 0 {
		loc.CurrencySymbols = append([]string(nil), convert.DefaultLocale.CurrencySymbols...)
	}
	return loc
}

// Currency 优先 prompt.currency，其次数据源报价货币。
func Currency(cfg *config.Config) string {
	if c := strings.TrimSpace(cfg.Prompt.Currency); c != "" {
		return c
	}
	return strings.TrimSpace(cfg.DataSource.Currency)
}

func joinInstruments(list []types.Instrument) string {
	parts := make([]string, 0, len(list))
	for _, inst := range list {
		parts = append(parts, inst.String())
	}
	return strings.Join(parts, ", ")
}

func WithSource(fn func(*config.Config) (market.Source, error)) AppBuilderOption {
	return func(b *AppBuilder) {
		if fn != nil {
			b.sourceFn = fn
		}
	}
}

// WithNews 传入 nil 时关闭新闻。
func WithNews(fn func(*config.Config) market.NewsSource) AppBuilderOption {
	return func(b *AppBuilder) {
		b.newsFn = fn
	}
}

func WithModelProvider(fn func(context.Context, provider.ModelCfg) (provider.ModelProvider, error)) AppBuilderOption {
	return func(b *AppBuilder) {
		if fn != nil {
			b.providerFn = fn
		}
	}
}

func WithPromptManager(fn func(string) (*prompt.Manager, error)) AppBuilderOption {
	return func(b *AppBuilder) {
		if fn != nil {
			b.promptManagerFn = fn
		}
	}
}

func WithSchemaRegistry(fn func(config.SchemaConfig) (*schema.Registry, error)) AppBuilderOption {
	return func(b *AppBuilder) {
		if fn != nil {
			b.schemaFn = fn
		}
	}
}

func WithMetricsRegistry(reg *prometheus.Registry) AppBuilderOption {
	return func(b *AppBuilder) {
		if reg != nil {
			b.metricsRegistry = reg
		}
	}
}
