package types

import (
	"fmt"
	"strings"
)

// Category 标识标的所属的资产类别。
type Category string

const (
	CategoryCrypto Category = "CRYPTO"
	CategoryEquity Category = "EQUITY"
)

// ParseCategory 接受大小写不敏感的类别名。
func ParseCategory(raw string) (Category, error) {
	switch c := Category(strings.ToUpper(strings.TrimSpace(raw))); c {
	case CategoryCrypto, CategoryEquity:
		return c, nil
	default:
		return "", fmt.Errorf("unknown category %q", raw)
	}
}

func (c Category) String() string { return string(c) }

// Instrument 是一次运行中的分析对象，来自配置且不可变。
type Instrument struct {
	Symbol     string   `json:"symbol"`
	Category   Category `json:"category"`
	ProviderID string   `json:"provider_id,omitempty"`
}

func (i Instrument) IsEquity() bool { return i.Category == CategoryEquity }

func (i Instrument) String() string {
	if i.ProviderID == "" {
		return fmt.Sprintf("%s(%s)", i.Symbol, i.Category)
	}
	return fmt.Sprintf("%s(%s#%s)", i.Symbol, i.Category, i.ProviderID)
}
