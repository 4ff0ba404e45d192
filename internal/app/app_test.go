package app

import (
	"bytes"
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tradewatch/internal/agent/engine"
	"tradewatch/internal/config"
	"tradewatch/internal/gateway/provider"
	"tradewatch/internal/market"
	"tradewatch/internal/market/markettest"
	"tradewatch/internal/types"
)

type fakeModel struct {
	reply provider.Reply
	calls int
}

func (f *fakeModel) ID() string { return "fake:model" }

func (f *fakeModel) Call(context.Context, provider.ChatPayload) (provider.Reply, error) {
	f.calls++
	return f.reply, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		App: config.AppConfig{LogLevel: "error", HTTPAddr: "127.0.0.1:0"},
		DataSource: config.DataSourceConfig{
			Currency: "USD",
		},
		AI: config.AIConfig{Provider: "openai", Model: "m", APIURL: "http://localhost"},
		Prompt: config.PromptConfig{
			Dir:    t.TempDir(),
			FXNote: "  1 USD = 16,000 IDR ",
			Locale: config.LocaleConfig{ThousandsSeparator: ",", DecimalSeparator: "."},
		},
		Pipeline: config.PipelineConfig{Interval: "1h", MaxConcurrency: 1},
		Instruments: []config.InstrumentConfig{
			{Symbol: "btc", Category: "crypto"},
		},
	}
}

func buildTestApp(t *testing.T, src market.Source, model provider.ModelProvider) *App {
	t.Helper()
	a, err := NewAppBuilder(testConfig(t),
		WithSource(func(*config.Config) (market.Source, error) { return src, nil }),
		WithNews(nil),
		WithModelProvider(func(context.Context, provider.ModelCfg) (provider.ModelProvider, error) { return model, nil }),
		WithMetricsRegistry(prometheus.NewRegistry()),
	).Build(context.Background())
	require.NoError(t, err)
	return a
}

func TestBuildAndRunOnce(t *testing.T) {
	src := new(markettest.MockSource)
	src.On("Holdings", mock.Anything).Return(market.MustPayload(`{"totalValue":1000}`), nil).Once()
	src.On("CryptoPrice", mock.Anything, "BTC", mock.Anything).Return(market.MustPayload(`[{"close":64000}]`), nil)
	src.On("CryptoTechnicals", mock.Anything, "BTC").Return(market.MustPayload(`{"summary":"SELL"}`), nil)
	model := &fakeModel{reply: provider.Reply{
		Kind: provider.ReplyText,
		Text: "Signal:\n{\"action\":\"neutral\",\"rationale\":\"range bound\",\"current_price\":\"$64,000\"}",
	}}

	a := buildTestApp(t, src, model)
	rep, err := a.RunOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, rep.Outcomes, 1)

	out := rep.Outcomes[0]
	assert.Equal(t, "BTC", out.Symbol)
	require.Equal(t, engine.StateDecided, out.State, "failure: %+v", out.Failure)
	assert.Equal(t, "NEUTRAL", out.Decision.Action)
	assert.Equal(t, "BTC", out.Decision.Symbol)
	assert.InDelta(t, 64000, out.Decision.CurrentPrice, 1e-9)
	assert.Equal(t, 1, model.calls)

	latest, ok := a.Driver().Latest()
	require.True(t, ok)
	assert.Equal(t, rep.RunID, latest.RunID)
	src.AssertExpectations(t)
}

func TestBuildRejectsUnknownCategory(t *testing.T) {
	cfg := testConfig(t)
	cfg.Instruments = []config.InstrumentConfig{{Symbol: "X", Category: "bond"}}
	_, err := NewAppBuilder(cfg,
		WithSource(func(*config.Config) (market.Source, error) { return new(markettest.MockSource), nil }),
		WithModelProvider(func(context.Context, provider.ModelCfg) (provider.ModelProvider, error) { return &fakeModel{}, nil }),
	).Build(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "instruments[0]")
}

func TestInstrumentsFromConfigKeepsOrder(t *testing.T) {
	list, err := InstrumentsFromConfig([]config.InstrumentConfig{
		{Symbol: " aapl ", Category: "EQUITY", ProviderID: "10003"},
		{Symbol: "eth", Category: "crypto"},
	})
	require.NoError(t, err)
	assert.Equal(t, []types.Instrument{
		{Symbol: "AAPL", Category: types.CategoryEquity, ProviderID: "10003"},
		{Symbol: "ETH", Category: types.CategoryCrypto},
	}, list)
}

func TestLocaleAndCurrencyFromConfig(t *testing.T) {
	loc := LocaleFromConfig(config.LocaleConfig{ThousandsSeparator: ".", DecimalSeparator: ",", CurrencySymbols: []string{"Rp"}})
	v, err := loc.Normalize("Rp 1.234,5")
	require.NoError(t, err)
	assert.InDelta(t, 1234.5, v, 1e-9)

	def := LocaleFromConfig(config.LocaleConfig{})
	assert.Equal(t, ".", def.Decimal)
	assert.NotEmpty(t, def.CurrencySymbols)

	cfg := &config.Config{DataSource: config.DataSourceConfig{Currency: "IDR"}}
	assert.Equal(t, "IDR", Currency(cfg))
	cfg.Prompt.Currency = "USD"
	assert.Equal(t, "USD", Currency(cfg))
}

func TestStartupSummaryListsInstruments(t *testing.T) {
	a := buildTestApp(t, new(markettest.MockSource), &fakeModel{})
	var buf bytes.Buffer
	a.Summary.Fprint(&buf)
	out := buf.String()
	assert.Contains(t, out, "BTC(CRYPTO)")
	assert.Contains(t, out, "fake:model")
	assert.Contains(t, out, "record_crypto_signal")
}
