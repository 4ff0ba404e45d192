package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"tradewatch/internal/agent/engine"
	"tradewatch/internal/pkg/text"
)

type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatTable:
		return FormatTable, nil
	case FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown report format %q (table|json|yaml)", s)
	}
}

// Write 输出报告；表格只用于人读，json/yaml 为完整结构。
func Write(w io.Writer, rep engine.Report, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rep); err != nil {
			return err
		}
		return enc.Close()
	default:
		_, err := io.WriteString(w, Table(rep))
		return err
	}
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			MarginBottom(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3B82F6"))

	decidedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	failedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	noteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))
)

var columns = []struct {
	title string
	width int
}{
	{"SYMBOL", 10},
	{"TYPE", 8},
	{"STATE", 9},
	{"ACTION", 22},
	{"PRICE", 12},
	{"ENTRY", 12},
	{"STOP", 12},
	{"TARGET", 12},
	{"CONF", 6},
}

// Table 渲染终端表格，每行下方附理由或失败详情。
func Table(rep engine.Report) string {
	var b strings.Builder
	decided, failed := rep.Counts()
	title := fmt.Sprintf("Run %s  %s  decided=%d failed=%d  (%s)",
		rep.RunID,
		rep.StartedAt.UTC().Format(time.RFC3339),
		decided, failed,
		rep.FinishedAt.Sub(rep.StartedAt).Truncate(time.Millisecond))
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	if rep.HoldingsError != "" {
		b.WriteString(noteStyle.Render("holdings unavailable: " + rep.HoldingsError))
		b.WriteString("\n")
	}

	head := make([]string, len(columns))
	for i, c := range columns {
		head[i] = pad(c.title, c.width)
	}
	b.WriteString(headerStyle.Render(strings.Join(head, " ")))
	b.WriteString("\n")

	for _, o := range rep.Outcomes {
		cells := []string{o.Symbol, string(o.Category), string(o.State), "-", "-", "-", "-", "-", "-"}
		note := ""
		style := failedStyle
		if d := o.Decision; d != nil {
			style = decidedStyle
			cells[3] = d.Action
			cells[4] = num(&d.CurrentPrice)
			cells[5] = num(d.EntryPrice)
			cells[6] = num(d.StopLoss)
			cells[7] = num(d.TakeProfit)
			cells[8] = num(d.Confidence)
			note = d.Rationale
		} else if f := o.Failure; f != nil {
			cells[3] = string(f.Reason)
			note = fmt.Sprintf("[%s] %s", f.Stage, f.Detail)
		}
		row := make([]string, len(cells))
		for i, c := range cells {
			row[i] = pad(c, columns[i].width)
		}
		row[2] = style.Render(row[2])
		b.WriteString(strings.Join(row, " "))
		b.WriteString("\n")
		if note = strings.TrimSpace(note); note != "" {
			b.WriteString(noteStyle.Render("    " + text.Truncate(note, 160)))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func pad(s string, width int) string {
	if len(s) > width {
		s = s[:width-1] + "~"
	}
	return s + strings.Repeat(" ", width-len(s))
}

func num(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
