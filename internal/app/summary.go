package app

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"tradewatch/internal/schema"
	"tradewatch/internal/types"
)

type StartupSummary struct {
	Instruments  []types.Instrument
	Model        string
	FunctionCall bool
	News         bool
	Interval     string
	HTTPAddr     string
	Trace        bool
	Prompts      []string
	Schemas      schema.Snapshot
}

func (s *StartupSummary) Print() { s.Fprint(os.Stdout) }

func (s *StartupSummary) Fprint(w io.Writer) {
	if s == nil {
		return
	}
	title := "启动配置摘要 (STARTUP SUMMARY)"
	fmt.Fprintln(w, strings.Repeat("=", 80))
	fmt.Fprintf(w, "%*s\n", 40+len(title)/2, title)
	fmt.Fprintln(w, strings.Repeat("=", 80))

	fmt.Fprintln(w, "[标的 (INSTRUMENTS)]")
	if len(s.Instruments) == 0 {
		fmt.Fprintln(w, "  (无配置)")
	}
	for i, inst := range s.Instruments {
		fmt.Fprintf(w, "  %d. %s\n", i+1, inst)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[模型 (MODEL)]")
	fmt.Fprintf(w, "  模型: %s\n", s.Model)
	fmt.Fprintf(w, "  Function call: %v\n", s.FunctionCall)
	fmt.Fprintf(w, "  新闻增强: %v\n", s.News)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[调度 (SCHEDULE)]")
	fmt.Fprintf(w, "  周期: %s\n", s.Interval)
	fmt.Fprintf(w, "  HTTP: %s\n", s.HTTPAddr)
	fmt.Fprintf(w, "  Trace: %v\n", s.Trace)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[输出约定与提示词 (SCHEMAS & PROMPTS)]")
	cats := make([]string, 0, len(s.Schemas.Schemas))
	for c := range s.Schemas.Schemas {
		cats = append(cats, string(c))
	}
	sort.Strings(cats)
	for _, c := range cats {
		out := s.Schemas.Schemas[types.Category(c)]
		fmt.Fprintf(w, "  > %s: %s v%d (actions: %s)\n", c, out.Name, out.Version, formatList(out.Actions()))
	}
	fmt.Fprintf(w, "  模板覆盖: %s\n", formatList(s.Prompts))
	fmt.Fprintln(w, strings.Repeat("=", 80))
}

func formatList(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}
