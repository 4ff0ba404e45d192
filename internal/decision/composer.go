package decision

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"tradewatch/internal/market"
	"tradewatch/internal/pipeline"
	"tradewatch/internal/types"
)

// TemplateSource 提供可覆盖的模板文本，prompt.Manager 实现该接口。
type TemplateSource interface {
	Get(name string) (string, bool)
}

// Composer 把证据渲染为提示词。模板在构造时解析，之后只读。
type Composer struct {
	system *template.Template
	user   map[types.Category]*template.Template
}

func NewComposer(src TemplateSource) (*Composer, error) {
	sys, err := parseTemplate(src, TemplateSystem, defaultSystemTemplate)
	if err != nil {
		return nil, err
	}
	crypto, err := parseTemplate(src, TemplateCrypto, defaultCryptoTemplate)
	if err != nil {
		return nil, err
	}
	equity, err := parseTemplate(src, TemplateEquity, defaultEquityTemplate)
	if err != nil {
		return nil, err
	}
	return &Composer{
		system: sys,
		user: map[types.Category]*template.Template{
			types.CategoryCrypto: crypto,
			types.CategoryEquity: equity,
		},
	}, nil
}

func parseTemplate(src TemplateSource, name, fallback string) (*template.Template, error) {
	body := fallback
	if src != nil {
		if v, ok := src.Get(name); ok {
			body = v
		}
	}
	tpl, err := template.New(name).Option("missingkey=error").Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse %s template: %w", name, err)
	}
	return tpl, nil
}

type evidenceSection struct {
	Name string
	Body string
}

type promptView struct {
	Symbol       string
	Market       string
	Date         string
	Currency     string
	FXNote       string
	Actions      string
	OutputSchema string
	HasNews      bool
	Sections     []evidenceSection
}

// Compose 渲染一个标的的请求。纯函数：不做 I/O，相同输入得到相同输出。
func (c *Composer) Compose(inst types.Instrument, bundle pipeline.EvidenceBundle, rc *pipeline.RunContext) (Request, error) {
	if rc == nil {
		return Request{}, fmt.Errorf("compose %s: run context is nil", inst.Symbol)
	}
	userTpl, ok := c.user[inst.Category]
	if !ok {
		return Request{}, fmt.Errorf("compose %s: no template for category %q", inst.Symbol, inst.Category)
	}
	out, err := rc.Schemas.For(inst.Category)
	if err != nil {
		return Request{}, fmt.Errorf("compose %s: %w", inst.Symbol, err)
	}
	view := promptView{
		Symbol:       inst.Symbol,
		Market:       marketLabel(inst.Category),
		Date:         rc.EvaluationDate(),
		Currency:     rc.Currency,
		FXNote:       strings.TrimSpace(rc.FXNote),
		Actions:      joinActions(out.Actions()),
		OutputSchema: out.Describe(),
		HasNews:      bundle.NewsItems != nil,
		Sections:     sections(bundle),
	}
	var sys, usr bytes.Buffer
	if err := c.system.Execute(&sys, view); err != nil {
		return Request{}, fmt.Errorf("render system prompt: %w", err)
	}
	if err := userTpl.Execute(&usr, view); err != nil {
		return Request{}, fmt.Errorf("render %s prompt: %w", inst.Category, err)
	}
	return Request{
		Symbol:   inst.Symbol,
		Category: inst.Category,
		System:   strings.TrimSpace(sys.String()),
		User:     strings.TrimSpace(usr.String()),
		Schema:   out,
	}, nil
}

func marketLabel(c types.Category) string {
	if c == types.CategoryCrypto {
		return "cryptocurrency"
	}
	return "equity"
}

func joinActions(actions []string) string {
	switch len(actions) {
	case 0:
		return ""
	case 1:
		return actions[0]
	}
	return strings.Join(actions[:len(actions)-1], ", ") + " or " + actions[len(actions)-1]
}

// sections 按固定顺序列出已有证据，缺失字段不出现。
func sections(b pipeline.EvidenceBundle) []evidenceSection {
	var out []evidenceSection
	add := func(kind market.Kind, p *market.Payload) {
		if p == nil {
			return
		}
		out = append(out, evidenceSection{Name: string(kind), Body: neutralize(p.Compact())})
	}
	add(market.KindPrice, b.PriceSnapshot)
	add(market.KindTechnical, b.TechnicalIndicators)
	add(market.KindHoldings, b.HoldingsSnapshot)
	add(market.KindPosition, b.PortfolioPosition)
	if fs := b.FinancialStatements; fs != nil {
		add(market.KindBalanceSheet, fs.BalanceSheet)
		add(market.KindCashFlow, fs.CashFlow)
		add(market.KindIncome, fs.Income)
	}
	add(market.KindCorporateActions, b.CorporateActions)
	add(market.KindNews, b.NewsItems)
	return out
}

var markerEscaper = strings.NewReplacer("<<<", "< < <", ">>>", "> > >")

// neutralize 防止数据内容伪造证据边界。
func neutralize(s string) string { return markerEscaper.Replace(s) }
