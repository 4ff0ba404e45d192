package schema

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"tradewatch/internal/types"
)

type FieldType string

const (
	TypeString FieldType = "string"
	TypeNumber FieldType = "number"
	TypeEnum   FieldType = "enum"
)

// Role 把 schema 字段映射到 TradeDecision 的固定属性；空 Role 的字段进入 Extras。
type Role string

const (
	RoleAction       Role = "action"
	RoleRationale    Role = "rationale"
	RoleCurrentPrice Role = "current_price"
	RoleEntryPrice   Role = "entry_price"
	RoleStopLoss     Role = "stop_loss"
	RoleTakeProfit   Role = "take_profit"
	RoleConfidence   Role = "confidence"
)

var knownRoles = map[Role]FieldType{
	RoleAction:       TypeEnum,
	RoleRationale:    TypeString,
	RoleCurrentPrice: TypeNumber,
	RoleEntryPrice:   TypeNumber,
	RoleStopLoss:     TypeNumber,
	RoleTakeProfit:   TypeNumber,
	RoleConfidence:   TypeNumber,
}

type Field struct {
	Name        string    `yaml:"name"`
	Type        FieldType `yaml:"type"`
	Role        Role      `yaml:"role"`
	Description string    `yaml:"description"`
	Required    bool      `yaml:"required"`
	Enum        []string  `yaml:"enum"`
	Minimum     *float64  `yaml:"minimum"`
	Maximum     *float64  `yaml:"maximum"`
}

// OutputSchema 是某一类别的决策输出约定。构建后只读，可在并发中共享。
type OutputSchema struct {
	Category    types.Category
	Name        string
	Description string
	Version     int
	Fields      []Field

	compiled *jsonschema.Schema
	byRole   map[Role]int
}

type definition struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Version     int     `yaml:"version"`
	Fields      []Field `yaml:"fields"`
}

func build(category types.Category, def definition) (*OutputSchema, error) {
	s := &OutputSchema{
		Category:    category,
		Name:        strings.TrimSpace(def.Name),
		Description: strings.TrimSpace(def.Description),
		Version:     def.Version,
		byRole:      make(map[Role]int),
	}
	if s.Name == "" {
		return nil, fmt.Errorf("schema %s: name is required", category)
	}
	if s.Version <= 0 {
		s.Version = 1
	}
	names := make(map[string]bool)
	for i, f := range def.Fields {
		f.Name = strings.TrimSpace(f.Name)
		f.Role = Role(strings.ToLower(strings.TrimSpace(string(f.Role))))
		f.Type = FieldType(strings.ToLower(strings.TrimSpace(string(f.Type))))
		if f.Name == "" {
			return nil, fmt.Errorf("schema %s: fields[%d] missing name", category, i)
		}
		if names[f.Name] {
			return nil, fmt.Errorf("schema %s: duplicate field %s", category, f.Name)
		}
		names[f.Name] = true
		switch f.Type {
		case TypeString, TypeNumber:
		case TypeEnum:
			if len(f.Enum) == 0 {
				return nil, fmt.Errorf("schema %s: enum field %s has no values", category, f.Name)
			}
			for j, v := range f.Enum {
				f.Enum[j] = strings.ToUpper(strings.TrimSpace(v))
			}
		default:
			return nil, fmt.Errorf("schema %s: field %s has unsupported type %q", category, f.Name, f.Type)
		}
		if f.Role != "" {
			want, ok := knownRoles[f.Role]
			if !ok {
				return nil, fmt.Errorf("schema %s: field %s has unknown role %q", category, f.Name, f.Role)
			}
			if want != f.Type {
				return nil, fmt.Errorf("schema %s: role %s requires type %s", category, f.Role, want)
			}
			if _, dup := s.byRole[f.Role]; dup {
				return nil, fmt.Errorf("schema %s: role %s assigned twice", category, f.Role)
			}
			s.byRole[f.Role] = len(s.Fields)
		}
		s.Fields = append(s.Fields, f)
	}
	for _, r := range []Role{RoleAction, RoleRationale, RoleCurrentPrice} {
		idx, ok := s.byRole[r]
		if !ok {
			return nil, fmt.Errorf("schema %s: a field with role %s is required", category, r)
		}
		if !s.Fields[idx].Required {
			return nil, fmt.Errorf("schema %s: field %s (role %s) must be required", category, s.Fields[idx].Name, r)
		}
	}
	compiled, err := compile(s.JSONSchema())
	if err != nil {
		return nil, fmt.Errorf("schema %s: compile failed: %w", category, err)
	}
	s.compiled = compiled
	return s, nil
}

func compile(doc map[string]any) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", strings.NewReader(string(raw))); err != nil {
		return nil, err
	}
	return compiler.Compile("schema.json")
}

// FieldFor returns the field bound to role.
func (s *OutputSchema) FieldFor(role Role) (Field, bool) {
	idx, ok := s.byRole[role]
	if !ok {
		return Field{}, false
	}
	return s.Fields[idx], true
}

// Actions 返回动作字段允许的取值。
func (s *OutputSchema) Actions() []string {
	f, _ := s.FieldFor(RoleAction)
	return append([]string(nil), f.Enum...)
}

// JSONSchema 生成 draft-07 风格的对象 schema；额外字段被允许但会被忽略。
func (s *OutputSchema) JSONSchema() map[string]any {
	props := make(map[string]any, len(s.Fields))
	required := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		prop := map[string]any{}
		switch f.Type {
		case TypeNumber:
			prop["type"] = "number"
			if f.Minimum != nil {
				prop["minimum"] = *f.Minimum
			}
			if f.Maximum != nil {
				prop["maximum"] = *f.Maximum
			}
		case TypeEnum:
			prop["type"] = "string"
			enum := make([]any, len(f.Enum))
			for i, v := range f.Enum {
				enum[i] = v
			}
			prop["enum"] = enum
		default:
			prop["type"] = "string"
		}
		if f.Description != "" {
			prop["description"] = f.Description
		}
		props[f.Name] = prop
		if f.Required {
			required = append(required, f.Name)
		}
	}
	sort.Strings(required)
	return map[string]any{
		"$schema":    "http://json-schema.org/draft-07/schema#",
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

// Validate 校验已规范化的文档（数字已为 float64，枚举已大写）。
func (s *OutputSchema) Validate(doc map[string]any) error {
	if s.compiled == nil {
		return fmt.Errorf("schema %s not compiled", s.Category)
	}
	return s.compiled.Validate(doc)
}

// Describe 渲染给模型看的字段说明，字段顺序与定义一致。
func (s *OutputSchema) Describe() string {
	var b strings.Builder
	b.WriteString("Reply with exactly one JSON object and nothing else. Fields:\n")
	for _, f := range s.Fields {
		b.WriteString("- ")
		b.WriteString(f.Name)
		b.WriteString(" (")
		if f.Required {
			b.WriteString("required, ")
		} else {
			b.WriteString("optional, ")
		}
		switch f.Type {
		case TypeEnum:
			b.WriteString("one of: ")
			b.WriteString(strings.Join(f.Enum, " | "))
		case TypeNumber:
			b.WriteString("plain number without currency symbols or thousands separators")
			if f.Minimum != nil && f.Maximum != nil {
				fmt.Fprintf(&b, ", between %g and %g", *f.Minimum, *f.Maximum)
			}
		default:
			b.WriteString("text")
		}
		b.WriteString(")")
		if f.Description != "" {
			b.WriteString(": ")
			b.WriteString(f.Description)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
