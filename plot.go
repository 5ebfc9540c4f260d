package dashboard

import "github.com/Chiquitos-JP/trading-dashboard/date"

// Sign classifies a month's realized gain for rendering.
type Sign int

const (
	Flat   Sign = 0
	Profit Sign = 1
	Loss   Sign = -1
)

func (s Sign) String() string {
	switch s {
	case Profit:
		return "profit"
	case Loss:
		return "loss"
	default:
		return "flat"
	}
}

// PlotRow is one point of the continuous chart axis: a KPI row extended with
// the actual/projected flag, the gain sign and the running cumulative gain.
// Projected and gap months carry zero sums and undefined ratios.
type PlotRow struct {
	KPIRow
	IsActual       bool
	Sign           Sign
	CumulativeGain Money
}

// AssemblePlot outer-joins the real KPI series with the future axis into one
// continuous, month-ordered sequence. Every month from the earliest to the
// latest of either input gets exactly one row: real months keep their values
// with IsActual set, gap and future months are zero-filled with ratios left
// undefined. The cumulative gain runs across actual months only.
func AssemblePlot(kpis []KPIRow, axis []date.Month) []PlotRow {
	byMonth := make(map[date.Month]KPIRow, len(kpis))
	var first, last date.Month
	record := func(m date.Month) {
		if first.IsZero() || m.Before(first) {
			first = m
		}
		if last.IsZero() || m.After(last) {
			last = m
		}
	}
	for _, k := range kpis {
		byMonth[k.Month] = k
		record(k.Month)
	}
	for _, m := range axis {
		record(m)
	}
	if first.IsZero() {
		return nil
	}

	var rows []PlotRow
	var cumulative Money
	for m := range date.Months(first, last) {
		row := PlotRow{KPIRow: KPIRow{Month: m}}
		if k, ok := byMonth[m]; ok {
			row.KPIRow = k
			row.IsActual = true
			cumulative = cumulative.Add(k.Gain)
			switch {
			case k.Gain.IsPositive():
				row.Sign = Profit
			case k.Gain.IsNegative():
				row.Sign = Loss
			}
		}
		row.CumulativeGain = cumulative
		rows = append(rows, row)
	}
	return rows
}
