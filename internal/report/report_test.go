package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sbisec-trading-bot/internal/types"
)

func samplePortfolio() *types.Portfolio {
	return &types.Portfolio{
		Allocations: []types.Allocation{
			{Name: "Fund A", Total: 600000, Percent: 60},
			{Name: "Fund B", Total: 400000, Percent: 40},
		},
		Total:     1000000,
		FetchedAt: time.Date(2024, 1, 5, 15, 4, 5, 0, time.UTC),
	}
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"text", "json", "csv"} {
		f, err := ParseFormat(s)
		require.NoError(t, err)
		assert.Equal(t, Format(s), f)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestRenderText(t *testing.T) {
	out, err := Render(samplePortfolio(), FormatText)
	require.NoError(t, err)
	assert.Contains(t, out, "Fund A")
	assert.Contains(t, out, "60.00")
	assert.Contains(t, out, "40.00")
	assert.Less(t, strings.Index(out, "Fund A"), strings.Index(out, "Fund B"))
}

func TestRenderCSV(t *testing.T) {
	out, err := Render(samplePortfolio(), FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "name,valuation,percent\nFund A,600000,60.0000\nFund B,400000,40.0000\n", out)
}

func TestRenderJSON(t *testing.T) {
	out, err := Render(samplePortfolio(), FormatJSON)
	require.NoError(t, err)

	var p types.Portfolio
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	assert.Equal(t, int64(1000000), p.Total)
	assert.Len(t, p.Allocations, 2)
}

func TestSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	path, err := Save(samplePortfolio(), FormatCSV, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "portfolio_2024-01-05_15-04-05.csv"), path)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), "name,valuation,percent\n"))
}

func TestRows(t *testing.T) {
	out := Rows([][]string{{"銘柄", "評価額"}, {"Fund A", "600,000"}})
	assert.Contains(t, out, "Fund A")
	assert.Contains(t, out, "600,000")
}
