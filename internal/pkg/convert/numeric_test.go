package convert

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocaleNormalize(t *testing.T) {
	us := DefaultLocale
	id := Locale{Thousands: ".", Decimal: ",", CurrencySymbols: []string{"Rp", "$"}}

	tests := []struct {
		name   string
		locale Locale
		in     any
		want   float64
	}{
		{"plain float", us, 187.5, 187.5},
		{"json number", us, json.Number("1234.5"), 1234.5},
		{"us grouped", us, "1,234.50", 1234.5},
		{"us currency", us, "$1,234.50", 1234.5},
		{"percent", us, "12.5%", 12.5},
		{"id grouped", id, "1.234,50", 1234.5},
		{"id currency", id, "Rp 2.500.000", 2500000},
		{"negative", us, "-3.25", -3.25},
		{"negative currency", us, "-$1,000", -1000},
		{"leading decimal", us, ".5", 0.5},
		{"id decimal only", id, "1.234.567,5", 1234567.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.locale.Normalize(tt.in)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestLocaleNormalizeRejects(t *testing.T) {
	for _, in := range []any{"abc", "", true, map[string]any{}, nil} {
		_, err := DefaultLocale.Normalize(in)
		assert.ErrorIs(t, err, ErrNotNumeric, "%v", in)
	}
}

func TestLocaleNormalizeRejectsMalformedGrouping(t *testing.T) {
	id := Locale{Thousands: ".", Decimal: ",", CurrencySymbols: []string{"Rp"}}
	cases := []struct {
		locale Locale
		in     string
	}{
		{DefaultLocale, "1,23"},
		{DefaultLocale, "12,,3"},
		{DefaultLocale, "1.234,50"},
		{DefaultLocale, "1,2345.6"},
		{DefaultLocale, ",123"},
		{DefaultLocale, "1.2.3"},
		{DefaultLocale, "12."},
		{DefaultLocale, "1e5"},
		{DefaultLocale, "-"},
		{id, "1,234.50"},
		{id, "1.23"},
	}
	for _, tc := range cases {
		_, err := tc.locale.Normalize(tc.in)
		assert.ErrorIs(t, err, ErrNotNumeric, "%q", tc.in)
	}
}
