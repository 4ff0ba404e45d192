package decision

import (
	"encoding/json"
	"fmt"
	"strings"

	"tradewatch/internal/pkg/convert"
	"tradewatch/internal/pkg/jsonutil"
	"tradewatch/internal/schema"
)

// Parser 把模型回复解析为 TradeDecision。没有内部状态，Parse 为纯函数。
type Parser struct {
	Locale convert.Locale
}

func NewParser(locale convert.Locale) Parser { return Parser{Locale: locale} }

func (p Parser) Parse(raw string, out *schema.OutputSchema) (TradeDecision, error) {
	if out == nil {
		return TradeDecision{}, fmt.Errorf("parse decision: output schema is nil")
	}
	fail := func(field string, cause error) (TradeDecision, error) {
		return TradeDecision{}, &UnparsableError{RawText: raw, Field: field, Cause: cause}
	}
	if jsonutil.LooksLikeArray(raw) {
		return fail("", ErrNotObject)
	}
	block, ok := jsonutil.ExtractObject(raw)
	if !ok {
		return fail("", ErrNoJSON)
	}
	var doc map[string]any
	dec := json.NewDecoder(strings.NewReader(block))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return fail("", err)
	}
	if doc == nil {
		return fail("", ErrNotObject)
	}

	norm, field, err := p.normalize(doc, out)
	if err != nil {
		return fail(field, err)
	}
	if err := out.Validate(norm); err != nil {
		return fail("", err)
	}
	return toDecision(norm, out), nil
}

// normalize 只保留约定中声明的字段：数字按 locale 规范化，枚举去空白并大写，
// 可选字段为 null 视为缺失。
func (p Parser) normalize(doc map[string]any, out *schema.OutputSchema) (map[string]any, string, error) {
	norm := make(map[string]any, len(out.Fields))
	for _, f := range out.Fields {
		v, present := doc[f.Name]
		if !present || v == nil {
			if f.Required {
				return nil, f.Name, ErrMissing
			}
			continue
		}
		switch f.Type {
		case schema.TypeNumber:
			n, err := p.Locale.Normalize(v)
			if err != nil {
				return nil, f.Name, err
			}
			norm[f.Name] = n
		case schema.TypeEnum:
			s, ok := v.(string)
			if !ok {
				return nil, f.Name, fmt.Errorf("expected string enum, got %T", v)
			}
			norm[f.Name] = strings.ToUpper(strings.TrimSpace(s))
		default:
			s, ok := v.(string)
			if !ok {
				return nil, f.Name, fmt.Errorf("expected text, got %T", v)
			}
			norm[f.Name] = strings.TrimSpace(s)
		}
	}
	return norm, "", nil
}

func toDecision(doc map[string]any, out *schema.OutputSchema) TradeDecision {
	var d TradeDecision
	for _, f := range out.Fields {
		v, ok := doc[f.Name]
		if !ok {
			continue
		}
		switch f.Role {
		case schema.RoleAction:
			d.Action = v.(string)
		case schema.RoleRationale:
			d.Rationale = v.(string)
		case schema.RoleCurrentPrice:
			d.CurrentPrice = v.(float64)
		case schema.RoleEntryPrice:
			d.EntryPrice = floatPtr(v)
		case schema.RoleStopLoss:
			d.StopLoss = floatPtr(v)
		case schema.RoleTakeProfit:
			d.TakeProfit = floatPtr(v)
		case schema.RoleConfidence:
			d.Confidence = floatPtr(v)
		default:
			if d.Extras == nil {
				d.Extras = make(map[string]any)
			}
			d.Extras[f.Name] = v
		}
	}
	return d
}

func floatPtr(v any) *float64 {
	f := v.(float64)
	return &f
}

// Encode 按输出约定序列化决策，Parse(Encode(d)) 得到与 d 相同的结果（Symbol 除外）。
func Encode(d TradeDecision, out *schema.OutputSchema) (string, error) {
	if out == nil {
		return "", fmt.Errorf("encode decision: output schema is nil")
	}
	doc := make(map[string]any, len(out.Fields))
	for _, f := range out.Fields {
		switch f.Role {
		case schema.RoleAction:
			doc[f.Name] = d.Action
		case schema.RoleRationale:
			doc[f.Name] = d.Rationale
		case schema.RoleCurrentPrice:
			doc[f.Name] = d.CurrentPrice
		case schema.RoleEntryPrice:
			putFloat(doc, f.Name, d.EntryPrice)
		case schema.RoleStopLoss:
			putFloat(doc, f.Name, d.StopLoss)
		case schema.RoleTakeProfit:
			putFloat(doc, f.Name, d.TakeProfit)
		case schema.RoleConfidence:
			putFloat(doc, f.Name, d.Confidence)
		default:
			if v, ok := d.Extras[f.Name]; ok {
				doc[f.Name] = v
			}
		}
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func putFloat(doc map[string]any, name string, v *float64) {
	if v != nil {
		doc[name] = *v
	}
}
