package dashboard

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/Chiquitos-JP/trading-dashboard/calendar"
	"github.com/Chiquitos-JP/trading-dashboard/date"
)

// KPIRow is the performance vector of one calendar month, recomputed
// wholesale from the master record set on every run. Ratio fields are
// explicitly undefined when their denominator is zero.
type KPIRow struct {
	Month date.Month

	Trades    int
	WinTrades int
	Symbols   int // distinct tickers traded

	Gain       Money // total realized gain
	GainOnly   Money // sum over winning trades
	LossOnly   Money // sum over losing trades
	Cost       Money // total acquisition cost
	Settlement Money // total settlement amount

	ActualTradeDays int
	MarketOpenDays  int
	KnownMonth      bool // false when the calendar cannot answer for this month

	WinRate         Ratio
	ReturnOnCost    Ratio
	ReturnOnSales   Ratio
	AvgGainPerTrade Ratio // reporting currency units per trade
	AvgGainPerDay   Ratio // reporting currency units per actual trade day
	AvgTradesPerDay Ratio
	ActivityRatio   Ratio // actual trade days / market open days
}

// Aggregate computes the KPI row for one month from the master record set.
// Records outside the month are ignored, so callers can always pass the full
// set.
func Aggregate(records []CanonicalRecord, m date.Month, cal *calendar.Calendar) KPIRow {
	row := KPIRow{Month: m}
	days := make(map[date.Date]struct{})
	symbols := make(map[string]struct{})
	for _, r := range records {
		if r.Month() != m {
			continue
		}
		row.Trades++
		days[r.SettlementDate] = struct{}{}
		symbols[r.Ticker] = struct{}{}
		row.Gain = row.Gain.Add(r.Gain)
		row.Cost = row.Cost.Add(r.Cost)
		row.Settlement = row.Settlement.Add(r.Settlement)
		if r.IsWin() {
			row.WinTrades++
			row.GainOnly = row.GainOnly.Add(r.Gain)
		} else {
			row.LossOnly = row.LossOnly.Add(r.Gain)
		}
	}
	row.ActualTradeDays = len(days)
	row.Symbols = len(symbols)
	row.MarketOpenDays, row.KnownMonth = cal.OpenDaysInMonth(m)

	deriveRatios(&row)
	return row
}

// deriveRatios computes the quotient fields from the summed counts, once, at
// the top level. Win counts are raw counts, never re-aggregated win rates.
func deriveRatios(row *KPIRow) {
	trades := decimal.NewFromInt(int64(row.Trades))
	tradeDays := decimal.NewFromInt(int64(row.ActualTradeDays))
	openDays := decimal.NewFromInt(int64(row.MarketOpenDays))

	row.WinRate = NewRatio(decimal.NewFromInt(int64(row.WinTrades)), trades)
	row.ReturnOnCost = NewRatio(row.Gain.Decimal(), row.Cost.Decimal())
	row.ReturnOnSales = NewRatio(row.Gain.Decimal(), row.Settlement.Decimal())
	row.AvgGainPerTrade = NewRatio(row.Gain.Decimal(), trades)
	row.AvgGainPerDay = NewRatio(row.Gain.Decimal(), tradeDays)
	row.AvgTradesPerDay = NewRatio(trades, tradeDays)
	if row.KnownMonth {
		row.ActivityRatio = NewRatio(tradeDays, openDays)
	}
}

// AggregateAll computes one KPI row per month that has at least one record,
// in month order. Months without trades are left to the plot assembler to
// fill.
func AggregateAll(records []CanonicalRecord, cal *calendar.Calendar) []KPIRow {
	months := make(map[date.Month]struct{})
	for _, r := range records {
		months[r.Month()] = struct{}{}
	}
	ordered := make([]date.Month, 0, len(months))
	for m := range months {
		ordered = append(ordered, m)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Before(ordered[j]) })

	rows := make([]KPIRow, 0, len(ordered))
	for _, m := range ordered {
		rows = append(rows, Aggregate(records, m, cal))
	}
	return rows
}

// AggregateRange computes a single KPI row over a month range (e.g. year to
// date): counts and totals are summed across the whole range and the ratios
// derived once at the end. The resulting row carries a zero Month.
func AggregateRange(records []CanonicalRecord, from, to date.Month, cal *calendar.Calendar) KPIRow {
	row := KPIRow{KnownMonth: true}
	days := make(map[date.Date]struct{})
	symbols := make(map[string]struct{})
	for _, r := range records {
		m := r.Month()
		if m.Before(from) || m.After(to) {
			continue
		}
		row.Trades++
		days[r.SettlementDate] = struct{}{}
		symbols[r.Ticker] = struct{}{}
		row.Gain = row.Gain.Add(r.Gain)
		row.Cost = row.Cost.Add(r.Cost)
		row.Settlement = row.Settlement.Add(r.Settlement)
		if r.IsWin() {
			row.WinTrades++
			row.GainOnly = row.GainOnly.Add(r.Gain)
		} else {
			row.LossOnly = row.LossOnly.Add(r.Gain)
		}
	}
	row.ActualTradeDays = len(days)
	row.Symbols = len(symbols)
	for m := range date.Months(from, to) {
		open, ok := cal.OpenDaysInMonth(m)
		if !ok {
			row.KnownMonth = false
			continue
		}
		row.MarketOpenDays += open
	}

	deriveRatios(&row)
	return row
}
