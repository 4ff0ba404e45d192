package market

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/tidwall/gjson"

	"tradewatch/internal/pkg/jsonutil"
)

var ErrInvalidPayload = errors.New("invalid json payload")

// Payload 是上游返回的不透明 JSON 文档。创建后不可修改，可在并发读者间共享。
// 字段只通过 Get/Float/CurrentPrice 读取。
type Payload struct {
	raw []byte
}

// NewPayload 校验并复制 body；若文档带有 {"data": ...} 包裹则取出 data。
func NewPayload(body []byte) (Payload, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || !json.Valid(trimmed) {
		return Payload{}, ErrInvalidPayload
	}
	root := gjson.ParseBytes(trimmed)
	if data := root.Get("data"); root.IsObject() && data.Exists() {
		if data.Type == gjson.Null {
			return Payload{}, ErrInvalidPayload
		}
		trimmed = []byte(data.Raw)
	}
	cp := make([]byte, len(trimmed))
	copy(cp, trimmed)
	return Payload{raw: cp}, nil
}

// MustPayload is for literals in tests and defaults.
func MustPayload(doc string) Payload {
	p, err := NewPayload([]byte(doc))
	if err != nil {
		panic(err)
	}
	return p
}

func (p Payload) IsZero() bool { return len(p.raw) == 0 }

// Get 使用 gjson 路径读取字段。
func (p Payload) Get(path string) gjson.Result {
	if p.IsZero() {
		return gjson.Result{}
	}
	return gjson.GetBytes(p.raw, path)
}

// Sub 把路径处的子文档包装为新的 Payload。
func (p Payload) Sub(path string) (Payload, bool) {
	res := p.Get(path)
	if !res.Exists() || res.Type == gjson.Null {
		return Payload{}, false
	}
	return Payload{raw: []byte(res.Raw)}, true
}

// Empty reports whether the document carries no content (null, {} or []).
func (p Payload) Empty() bool {
	if p.IsZero() {
		return true
	}
	res := gjson.ParseBytes(p.raw)
	switch {
	case res.Type == gjson.Null:
		return true
	case res.IsArray():
		return len(res.Array()) == 0
	case res.IsObject():
		return len(res.Map()) == 0
	}
	return false
}

// Float 读取数值字段，兼容字符串形式的数字。
func (p Payload) Float(path string) (float64, bool) {
	res := p.Get(path)
	switch res.Type {
	case gjson.Number:
		return res.Float(), true
	case gjson.String:
		f := gjson.Parse(strings.TrimSpace(res.Str))
		if f.Type == gjson.Number {
			return f.Float(), true
		}
	}
	return 0, false
}

var priceFieldPaths = []string{
	"currentPrice", "price", "lastPrice", "close", "currentMidPrice",
	"*.currentPrice", "*.price", "*.lastPrice", "*.close",
}

// CurrentPrice 在常见字段名中查找最新价格；价格快照的形态因资产而异。
// 数组（OHLC 序列）取最后一个元素。
func (p Payload) CurrentPrice() (float64, bool) {
	doc := p
	if root := gjson.ParseBytes(p.raw); root.IsArray() {
		items := root.Array()
		if len(items) == 0 {
			return 0, false
		}
		doc = Payload{raw: []byte(items[len(items)-1].Raw)}
	}
	for _, path := range priceFieldPaths {
		if v, ok := doc.Float(path); ok && v > 0 {
			return v, true
		}
	}
	return 0, false
}

// Compact 返回紧凑 JSON 文本，供 prompt 嵌入。
func (p Payload) Compact() string {
	if p.IsZero() {
		return ""
	}
	return jsonutil.Compact(p.raw)
}

func (p Payload) Bytes() []byte {
	cp := make([]byte, len(p.raw))
	copy(cp, p.raw)
	return cp
}

func (p Payload) MarshalJSON() ([]byte, error) {
	if p.IsZero() {
		return []byte("null"), nil
	}
	return p.Bytes(), nil
}
