package decision

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradewatch/internal/pkg/convert"
	"tradewatch/internal/types"
)

func TestParseText(t *testing.T) {
	out := testSchema(t, types.CategoryEquity)
	raw := "Here is my call:\n```json\n" + `{"action":" buy ","rationale":"strong quarter","current_price":"$1,234.50","stop_loss":1100,"confidence":"72%","risk_level":"low","sentiment":null,"unknown":"x"}` + "\n```"

	d, err := NewParser(convert.DefaultLocale).Parse(raw, out)
	require.NoError(t, err)
	assert.Equal(t, "BUY", d.Action)
	assert.Equal(t, "strong quarter", d.Rationale)
	assert.Equal(t, 1234.5, d.CurrentPrice)
	require.NotNil(t, d.StopLoss)
	assert.Equal(t, 1100.0, *d.StopLoss)
	require.NotNil(t, d.Confidence)
	assert.Equal(t, 72.0, *d.Confidence)
	assert.Nil(t, d.EntryPrice)
	assert.Equal(t, map[string]any{"risk_level": "LOW"}, d.Extras)
}

func TestParseNotJSON(t *testing.T) {
	_, err := NewParser(convert.DefaultLocale).Parse("not json", testSchema(t, types.CategoryEquity))
	var perr *UnparsableError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "not json", perr.RawText)
	assert.Empty(t, perr.Field)
	assert.ErrorIs(t, err, ErrNoJSON)
}

func TestParseRejectsArray(t *testing.T) {
	_, err := NewParser(convert.DefaultLocale).Parse(`[{"action":"BUY"}]`, testSchema(t, types.CategoryEquity))
	assert.ErrorIs(t, err, ErrNotObject)
}

func TestParseProseWithBrackets(t *testing.T) {
	raw := `Based on the evidence [technical summary, income statement], my decision: {"action":"BUY","rationale":"trend [up]","current_price":187.5}`
	d, err := NewParser(convert.DefaultLocale).Parse(raw, testSchema(t, types.CategoryEquity))
	require.NoError(t, err)
	assert.Equal(t, "BUY", d.Action)
	assert.Equal(t, "trend [up]", d.Rationale)
	assert.Equal(t, 187.5, d.CurrentPrice)
}

func TestParseRejectsFencedArray(t *testing.T) {
	_, err := NewParser(convert.DefaultLocale).Parse("```json\n[{\"action\":\"BUY\"}]\n```", testSchema(t, types.CategoryEquity))
	assert.ErrorIs(t, err, ErrNotObject)
}

func TestParseMalformedGroupingFailsField(t *testing.T) {
	out := testSchema(t, types.CategoryEquity)
	p := NewParser(convert.DefaultLocale)
	for _, price := range []string{"1,23", "12,,3", "1.234,50"} {
		_, err := p.Parse(`{"action":"HOLD","rationale":"r","current_price":"`+price+`"}`, out)
		var perr *UnparsableError
		require.ErrorAs(t, err, &perr, price)
		assert.Equal(t, "current_price", perr.Field)
		assert.ErrorIs(t, err, convert.ErrNotNumeric)
	}
}

func TestParseLocaleNumbers(t *testing.T) {
	out := testSchema(t, types.CategoryEquity)
	p := NewParser(convert.DefaultLocale)

	d, err := p.Parse(`{"action":"HOLD","rationale":"r","current_price":"1,234.50"}`, out)
	require.NoError(t, err)
	assert.Equal(t, 1234.50, d.CurrentPrice)

	_, err = p.Parse(`{"action":"HOLD","rationale":"r","current_price":"abc"}`, out)
	var perr *UnparsableError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "current_price", perr.Field)
	assert.ErrorIs(t, err, convert.ErrNotNumeric)
}

func TestParseCommaDecimalLocale(t *testing.T) {
	locale := convert.Locale{Thousands: ".", Decimal: ",", CurrencySymbols: []string{"Rp"}}
	d, err := NewParser(locale).Parse(`{"action":"SELL","rationale":"r","current_price":"Rp 1.234,50"}`, testSchema(t, types.CategoryEquity))
	require.NoError(t, err)
	assert.Equal(t, 1234.50, d.CurrentPrice)
}

func TestParseUnknownEnum(t *testing.T) {
	_, err := NewParser(convert.DefaultLocale).Parse(`{"action":"MAYBE","rationale":"r","current_price":10}`, testSchema(t, types.CategoryEquity))
	var perr *UnparsableError
	require.ErrorAs(t, err, &perr)
}

func TestParseCryptoNeutral(t *testing.T) {
	crypto := testSchema(t, types.CategoryCrypto)
	p := NewParser(convert.DefaultLocale)

	d, err := p.Parse(`{"action":"neutral","rationale":"range bound","current_price":64000.5,"sell_price":"66,000"}`, crypto)
	require.NoError(t, err)
	assert.Equal(t, "NEUTRAL", d.Action)
	assert.Equal(t, map[string]any{"sell_price": 66000.0}, d.Extras)

	_, err = p.Parse(`{"action":"HOLD","rationale":"r","current_price":1}`, crypto)
	assert.Error(t, err)
}

func TestParseMissingRequired(t *testing.T) {
	_, err := NewParser(convert.DefaultLocale).Parse(`{"action":"BUY","current_price":10}`, testSchema(t, types.CategoryEquity))
	var perr *UnparsableError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "rationale", perr.Field)
	assert.True(t, errors.Is(err, ErrMissing))
}

func TestParseOutOfRange(t *testing.T) {
	_, err := NewParser(convert.DefaultLocale).Parse(`{"action":"BUY","rationale":"r","current_price":10,"confidence":140}`, testSchema(t, types.CategoryEquity))
	var perr *UnparsableError
	assert.ErrorAs(t, err, &perr)
}

func TestParseIsPure(t *testing.T) {
	out := testSchema(t, types.CategoryEquity)
	p := NewParser(convert.DefaultLocale)
	inputs := []string{
		`{"action":"BUY","rationale":"r","current_price":"1,000","take_profit":1200}`,
		`{"action":"MAYBE","rationale":"r","current_price":1}`,
		"not json",
	}
	for _, raw := range inputs {
		d1, err1 := p.Parse(raw, out)
		d2, err2 := p.Parse(raw, out)
		assert.Equal(t, d1, d2)
		assert.Equal(t, err1, err2)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	out := testSchema(t, types.CategoryEquity)
	entry, stop, tp, conf := 101.25, 95.0, 120.75, 64.0
	want := TradeDecision{
		Action:       "SELL",
		Rationale:    "margin compression",
		CurrentPrice: 104.37,
		EntryPrice:   &entry,
		StopLoss:     &stop,
		TakeProfit:   &tp,
		Confidence:   &conf,
		Extras:       map[string]any{"financial_health": "WEAK", "next_quarter_price": 98.5},
	}
	raw, err := Encode(want, out)
	require.NoError(t, err)

	got, err := NewParser(convert.DefaultLocale).Parse(raw, out)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	minimal := TradeDecision{Action: "HOLD", Rationale: "wait", CurrentPrice: 3}
	raw, err = Encode(minimal, out)
	require.NoError(t, err)
	got, err = NewParser(convert.DefaultLocale).Parse(raw, out)
	require.NoError(t, err)
	assert.Equal(t, minimal, got)
}
