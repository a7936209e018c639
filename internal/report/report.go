// Package report renders portfolio allocations for the terminal or for files.
package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"sbisec-trading-bot/internal/types"
)

// Format specifies the output format of a report
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ParseFormat accepts the names of the supported formats.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatText, FormatJSON, FormatCSV:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format: %s", s)
	}
}

// Render writes the portfolio in the requested format.
func Render(p *types.Portfolio, format Format) (string, error) {
	switch format {
	case FormatText:
		return renderText(p), nil
	case FormatJSON:
		return renderJSON(p)
	case FormatCSV:
		return renderCSV(p)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// Save renders the portfolio into dir and returns the file path.
func Save(p *types.Portfolio, format Format, dir string) (string, error) {
	content, err := Render(p, format)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	name := fmt.Sprintf("portfolio_%s.%s", p.FetchedAt.Format("2006-01-02_15-04-05"), format)
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", err
	}
	return path, nil
}

func renderText(p *types.Portfolio) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Name", "Valuation", "Weight %"})
	for _, a := range p.Allocations {
		t.AppendRow(table.Row{a.Name, a.Total, fmt.Sprintf("%.2f", a.Percent)})
	}
	t.AppendFooter(table.Row{"Total", p.Total, "100.00"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, AlignFooter: text.AlignRight},
		{Number: 3, Align: text.AlignRight, AlignFooter: text.AlignRight},
	})
	t.SetStyle(table.StyleRounded)
	return t.Render() + "\n"
}

func renderJSON(p *types.Portfolio) (string, error) {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func renderCSV(p *types.Portfolio) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	rows := [][]string{{"name", "valuation", "percent"}}
	for _, a := range p.Allocations {
		rows = append(rows, []string{
			a.Name,
			strconv.FormatInt(a.Total, 10),
			strconv.FormatFloat(a.Percent, 'f', 4, 64),
		})
	}
	if err := w.WriteAll(rows); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Rows renders raw table rows, such as the account holdings page.
func Rows(rows [][]string) string {
	t := table.NewWriter()
	for _, r := range rows {
		row := make(table.Row, len(r))
		for i, c := range r {
			row[i] = c
		}
		t.AppendRow(row)
	}
	t.SetStyle(table.StyleRounded)
	return t.Render() + "\n"
}
