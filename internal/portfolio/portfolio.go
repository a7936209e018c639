// Package portfolio reads holdings tables off brokerage pages and computes
// how the total is split between holdings.
package portfolio

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"sbisec-trading-bot/internal/page"
	"sbisec-trading-bot/internal/types"
)

// Holdings rows on the portfolio page: the spot section and the investment
// trust section. The parser inserts tbody under every table.
const (
	spotRowsExpr  = "/html/body/div[3]/div/table/tbody/tr/td/table[4]/tbody/tr[2]/td/table/tbody/tr"
	trustRowsExpr = "/html/body/div[3]/div/table/tbody/tr/td/table[4]/tbody/tr[6]/td/table/tbody/tr"

	// AssetsRowsExpr locates the rows of the holdings page reached through
	// account management.
	AssetsRowsExpr = "//form/table[2]/tbody/tr[1]/td[2]/table[6]/tbody/tr/td/table/tbody/tr"

	headerCell      = "取引"
	nameColumn      = 1
	valuationColumn = 10
)

var ErrEmptyPortfolio = errors.New("portfolio: total valuation is zero")

// Rows returns the cell texts of every row matched by expr.
func Rows(doc *page.Document, expr string) ([][]string, error) {
	trs, err := doc.FindAll(expr)
	if err != nil {
		return nil, err
	}
	rows := make([][]string, 0, len(trs))
	for _, tr := range trs {
		cells := page.Children(tr)
		row := make([]string, 0, len(cells))
		for _, td := range cells {
			row = append(row, page.CellText(td))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ParseHoldings reads both holdings sections of the portfolio page. Header
// rows are skipped; a data row too short to carry a valuation is a
// PageStructureError.
func ParseHoldings(doc *page.Document) ([]types.Holding, error) {
	var holdings []types.Holding
	found := false
	for _, expr := range []string{spotRowsExpr, trustRowsExpr} {
		rows, err := Rows(doc, expr)
		if err != nil {
			return nil, err
		}
		found = found || len(rows) > 0
		for i, row := range rows {
			if len(row) > 0 && row[0] == headerCell {
				continue
			}
			if len(row) <= valuationColumn {
				return nil, &page.PageStructureError{
					Selector: fmt.Sprintf("(%s)[%d]/*[%d]", expr, i+1, valuationColumn+1),
					URL:      doc.Location(),
				}
			}
			valuation, err := ParseValuation(row[valuationColumn])
			if err != nil {
				return nil, fmt.Errorf("portfolio: row %q: %w", row[nameColumn], err)
			}
			holdings = append(holdings, types.Holding{
				Name:      row[nameColumn],
				Valuation: valuation,
				Cells:     row,
			})
		}
	}
	if !found {
		return nil, &page.PageStructureError{Selector: spotRowsExpr, URL: doc.Location()}
	}
	return holdings, nil
}

// ParseValuation reads an amount such as "1,234,567.89" as its integer part.
func ParseValuation(cell string) (int64, error) {
	s := strings.ReplaceAll(strings.TrimSpace(cell), ",", "")
	s, _, _ = strings.Cut(s, ".")
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse valuation %q: %w", cell, err)
	}
	return v, nil
}

// Allocate sums valuations per holding name, in order of first appearance,
// and gives each its percentage of the grand total.
func Allocate(holdings []types.Holding) ([]types.Allocation, int64, error) {
	totals := map[string]decimal.Decimal{}
	var order []string
	grand := decimal.Zero
	for _, h := range holdings {
		v := decimal.NewFromInt(h.Valuation)
		if _, seen := totals[h.Name]; !seen {
			order = append(order, h.Name)
		}
		totals[h.Name] = totals[h.Name].Add(v)
		grand = grand.Add(v)
	}
	if grand.IsZero() {
		return nil, 0, ErrEmptyPortfolio
	}

	hundred := decimal.NewFromInt(100)
	allocations := make([]types.Allocation, 0, len(order))
	for _, name := range order {
		total := totals[name]
		allocations = append(allocations, types.Allocation{
			Name:    name,
			Total:   total.IntPart(),
			Percent: total.Mul(hundred).Div(grand).InexactFloat64(),
		})
	}
	return allocations, grand.IntPart(), nil
}

// Build assembles the report of one portfolio read.
func Build(holdings []types.Holding, fetchedAt time.Time) (*types.Portfolio, error) {
	allocations, total, err := Allocate(holdings)
	if err != nil {
		return nil, err
	}
	return &types.Portfolio{
		Holdings:    holdings,
		Allocations: allocations,
		Total:       total,
		FetchedAt:   fetchedAt,
	}, nil
}
