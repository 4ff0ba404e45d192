package provider

import (
	einoschema "github.com/cloudwego/eino/schema"

	"tradewatch/internal/schema"
)

// ToolFromSchema 把输出约定转换为函数调用定义。
func ToolFromSchema(s *schema.OutputSchema) *einoschema.ToolInfo {
	if s == nil {
		return nil
	}
	params := make(map[string]*einoschema.ParameterInfo, len(s.Fields))
	for _, f := range s.Fields {
		p := &einoschema.ParameterInfo{
			Type:     einoschema.String,
			Desc:     f.Description,
			Required: f.Required,
		}
		switch f.Type {
		case schema.TypeNumber:
			p.Type = einoschema.Number
		case schema.TypeEnum:
			p.Enum = append([]string(nil), f.Enum...)
		}
		params[f.Name] = p
	}
	return &einoschema.ToolInfo{
		Name:        s.Name,
		Desc:        s.Description,
		ParamsOneOf: einoschema.NewParamsOneOfByParams(params),
	}
}
