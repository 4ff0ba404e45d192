// Package convert provides type conversion utilities.
package convert

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrNotNumeric = errors.New("not a numeric value")

// Locale describes how numbers are written in free text.
type Locale struct {
	Thousands       string
	Decimal         string
	CurrencySymbols []string
}

// DefaultLocale is the en-US convention: "1,234.56".
var DefaultLocale = Locale{Thousands: ",", Decimal: ".", CurrencySymbols: []string{"$", "US$", "USD"}}

// ParseDecimal reads a locale-formatted number such as "$1,234.50",
// "Rp 1.234,50" or "12.5%" into an exact decimal. Thousands separators
// must split the integer part into groups of three; anything else
// ("1,23", "12,,3", a second decimal separator) is rejected.
func (l Locale) ParseDecimal(raw string) (decimal.Decimal, error) {
	bad := func() (decimal.Decimal, error) {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrNotNumeric, raw)
	}
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty", ErrNotNumeric)
	}
	sign, signed, s := cutSign(s)
	for _, sym := range l.CurrencySymbols {
		if sym == "" {
			continue
		}
		s = strings.TrimSpace(strings.TrimPrefix(s, sym))
		s = strings.TrimSpace(strings.TrimSuffix(s, sym))
	}
	if !signed {
		sign, _, s = cutSign(s)
	}
	s = strings.TrimSuffix(s, "%")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "")

	dec := l.Decimal
	if dec == "" {
		dec = "."
	}
	parts := strings.Split(s, dec)
	if len(parts) > 2 {
		return bad()
	}
	whole, frac := parts[0], ""
	if len(parts) == 2 {
		frac = parts[1]
		if !allDigits(frac) {
			return bad()
		}
	}
	if l.Thousands != "" && strings.Contains(whole, l.Thousands) {
		groups := strings.Split(whole, l.Thousands)
		if n := len(groups[0]); n < 1 || n > 3 || !allDigits(groups[0]) {
			return bad()
		}
		for _, g := range groups[1:] {
			if len(g) != 3 || !allDigits(g) {
				return bad()
			}
		}
		whole = strings.Join(groups, "")
	} else if whole != "" && !allDigits(whole) {
		return bad()
	}
	if whole == "" && frac == "" {
		return bad()
	}
	canonical := sign + whole
	if canonical == sign {
		canonical += "0"
	}
	if frac != "" {
		canonical += "." + frac
	}
	d, err := decimal.NewFromString(canonical)
	if err != nil {
		return bad()
	}
	return d, nil
}

// cutSign 剥离前导正负号，返回 "-" 或 ""。
func cutSign(s string) (sign string, found bool, rest string) {
	switch {
	case strings.HasPrefix(s, "-"):
		return "-", true, strings.TrimSpace(s[1:])
	case strings.HasPrefix(s, "+"):
		return "", true, strings.TrimSpace(s[1:])
	}
	return "", false, s
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Normalize converts a decoded JSON value (number or formatted string) to
// float64. Booleans, objects and arrays are rejected.
func (l Locale) Normalize(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case json.Number:
		d, err := decimal.NewFromString(t.String())
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrNotNumeric, t.String())
		}
		return d.InexactFloat64(), nil
	case string:
		d, err := l.ParseDecimal(t)
		if err != nil {
			return 0, err
		}
		return d.InexactFloat64(), nil
	default:
		return 0, fmt.Errorf("%w: %T", ErrNotNumeric, v)
	}
}
