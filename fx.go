package dashboard

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"

	"github.com/Chiquitos-JP/trading-dashboard/date"
)

// RateMode selects how daily FX observations are applied to a settlement
// month.
type RateMode int

const (
	// RateAverage applies the arithmetic mean of the month's observations.
	RateAverage RateMode = iota
	// RateLast applies the month's last observation.
	RateLast
)

// ParseRateMode parses "average" or "last".
func ParseRateMode(s string) (RateMode, error) {
	switch s {
	case "average", "":
		return RateAverage, nil
	case "last":
		return RateLast, nil
	default:
		return 0, fmt.Errorf("unknown fx rate mode: %q", s)
	}
}

// FXTable holds per-month exchange rates derived from daily observations.
// Months with no observation have no rate; conversion against such a month is
// an ErrMissingFXRate, never a default of 1.
type FXTable struct {
	pair string
	avg  map[date.Month]decimal.Decimal
	last map[date.Month]decimal.Decimal
}

// NewFXTable aggregates daily observations into monthly average and
// month-end rates.
func NewFXTable(pair string, daily map[date.Date]decimal.Decimal) *FXTable {
	t := &FXTable{
		pair: pair,
		avg:  make(map[date.Month]decimal.Decimal),
		last: make(map[date.Month]decimal.Decimal),
	}
	sums := make(map[date.Month]decimal.Decimal)
	counts := make(map[date.Month]int64)
	lastDay := make(map[date.Month]date.Date)
	for d, rate := range daily {
		m := d.Month()
		sums[m] = sums[m].Add(rate)
		counts[m]++
		if prev, ok := lastDay[m]; !ok || prev.Before(d) {
			lastDay[m] = d
			t.last[m] = rate
		}
	}
	for m, sum := range sums {
		t.avg[m] = sum.Div(decimal.NewFromInt(counts[m]))
	}
	return t
}

// Pair returns the currency pair label, e.g. "DEXJPUS".
func (t *FXTable) Pair() string { return t.pair }

// Rate returns the rate for a settlement month under the given mode.
func (t *FXTable) Rate(m date.Month, mode RateMode) (decimal.Decimal, error) {
	rates := t.avg
	if mode == RateLast {
		rates = t.last
	}
	rate, ok := rates[m]
	if !ok {
		return decimal.Zero, fmt.Errorf("month %s: %w", m, ErrMissingFXRate)
	}
	return rate, nil
}

// LoadFXCSV reads a FRED-style observation file: a header line then
// "observation_date,<PAIR>" rows, with "." marking days without a quote.
func LoadFXCSV(path string) (*FXTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fx table: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse fx table: %w", err)
	}
	if len(records) == 0 || len(records[0]) < 2 {
		return nil, fmt.Errorf("fx table %s: missing observation header", path)
	}
	pair := strings.TrimSpace(records[0][1])

	daily := make(map[date.Date]decimal.Decimal)
	for _, rec := range records[1:] {
		if len(rec) < 2 {
			continue
		}
		value := strings.TrimSpace(rec[1])
		if value == "" || value == "." {
			continue
		}
		d, err := date.Parse(strings.TrimSpace(rec[0]))
		if err != nil {
			continue
		}
		rate, err := decimal.NewFromString(value)
		if err != nil {
			continue
		}
		daily[d] = rate
	}
	return NewFXTable(pair, daily), nil
}

// LoadFXJSON reads a FRED API observations response:
//
//	{"observations": [{"date": "2025-01-02", "value": "157.12"}, ...]}
//
// Days with value "." are skipped, as in the CSV form.
func LoadFXJSON(pair string, data []byte) (*FXTable, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse fx observations: %w", err)
	}
	obs, err := jsonpath.Get("$.observations[*]", doc)
	if err != nil {
		return nil, fmt.Errorf("fx observations: %w", err)
	}
	list, ok := obs.([]any)
	if !ok {
		return nil, fmt.Errorf("fx observations: unexpected shape %T", obs)
	}

	daily := make(map[date.Date]decimal.Decimal)
	for _, o := range list {
		entry, ok := o.(map[string]any)
		if !ok {
			continue
		}
		value, _ := entry["value"].(string)
		if value == "" || value == "." {
			continue
		}
		day, _ := entry["date"].(string)
		d, err := date.Parse(day)
		if err != nil {
			continue
		}
		rate, err := decimal.NewFromString(value)
		if err != nil {
			continue
		}
		daily[d] = rate
	}
	return NewFXTable(pair, daily), nil
}
