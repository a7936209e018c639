package journal

import (
	"bufio"
	"compress/gzip"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type aggRow struct {
	Code     string
	Orders   int
	Failed   int
	Quantity int
	// Value sums quantity × price over orders with a numeric price.
	Value decimal.Decimal
}

func (j *Journal) summaryPath(t time.Time) string {
	return filepath.Join(j.dir, "summary", t.In(JST).Format("2006-01-02")+".csv")
}

// SummarizeDay aggregates the day's entries by security code into a CSV
// file and returns its path. A day without entries yields an empty path.
func (j *Journal) SummarizeDay(t time.Time) (string, error) {
	entries, err := j.readDay(t)
	if err != nil {
		return "", err
	}

	aggs := map[string]*aggRow{}
	for _, e := range entries {
		row := aggs[e.Code]
		if row == nil {
			row = &aggRow{Code: e.Code}
			aggs[e.Code] = row
		}
		row.Orders++
		if e.Error != "" {
			row.Failed++
			continue
		}
		row.Quantity += e.Quantity
		if price, err := decimal.NewFromString(strings.ReplaceAll(e.Price, ",", "")); err == nil {
			row.Value = row.Value.Add(price.Mul(decimal.NewFromInt(int64(e.Quantity))))
		}
	}
	if len(aggs) == 0 {
		return "", nil
	}

	codes := make([]string, 0, len(aggs))
	for k := range aggs {
		codes = append(codes, k)
	}
	sort.Strings(codes)

	outPath := j.summaryPath(t)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", err
	}
	out, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	w := csv.NewWriter(out)
	records := [][]string{{"code", "orders", "failed", "quantity", "gross_value"}}
	var total decimal.Decimal
	for _, code := range codes {
		r := aggs[code]
		records = append(records, []string{
			r.Code,
			strconv.Itoa(r.Orders),
			strconv.Itoa(r.Failed),
			strconv.Itoa(r.Quantity),
			r.Value.StringFixed(2),
		})
		total = total.Add(r.Value)
	}
	records = append(records, []string{"TOTAL", "", "", "", total.StringFixed(2)})
	if err := w.WriteAll(records); err != nil {
		return "", err
	}
	return outPath, nil
}

// readDay loads the day's entries from the compressed file, if the day was
// already rotated, and then from the plain file. Unparseable lines are
// skipped.
func (j *Journal) readDay(t time.Time) ([]Entry, error) {
	plain := j.dailyFilepath(t)
	var entries []Entry
	for _, p := range []string{plain + ".gz", plain} {
		got, err := readEntries(p)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		entries = append(entries, got...)
	}
	return entries, nil
}

func readEntries(p string) ([]Entry, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if filepath.Ext(p) == ".gz" {
		gr, err := gzip.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer gr.Close()
		r = gr
	}

	var entries []Entry
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, sc.Err()
}
