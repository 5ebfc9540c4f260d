package cmd

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"

	dashboard "github.com/Chiquitos-JP/trading-dashboard"
	"github.com/Chiquitos-JP/trading-dashboard/date"
)

// summaryCmd holds the flags for the 'summary' subcommand.
type summaryCmd struct {
	from string
	to   string
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "display a period performance summary" }
func (*summaryCmd) Usage() string {
	return `tdash summary [-from <month>] [-to <month>]

  Aggregates the master record set over a month range (year to date by
  default) and prints the per-month KPI table plus the period totals. Counts
  are summed across the range and the ratios derived once at the end.
`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "", "First month of the range (defaults to January of the current year)")
	f.StringVar(&c.to, "to", "", "Last month of the range (defaults to the current month)")
}

func (c *summaryCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		return fail(err)
	}

	from := date.NewMonth(date.Today().Year(), 1)
	to := date.ThisMonth()
	if c.from != "" {
		if from, err = date.ParseMonth(c.from); err != nil {
			return fail(err)
		}
	}
	if c.to != "" {
		if to, err = date.ParseMonth(c.to); err != nil {
			return fail(err)
		}
	}

	master, err := dashboard.LoadMaster(cfg.MasterPath("merged"))
	if err != nil {
		return fail(err)
	}
	cal, err := loadCalendar(cfg)
	if err != nil {
		return fail(err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Performance %s to %s\n\n", from, to)
	b.WriteString("| month | trades | wins | win rate | gain | cum. activity |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for m := range date.Months(from, to) {
		row := dashboard.Aggregate(master, m, cal)
		if row.Trades == 0 {
			continue
		}
		fmt.Fprintf(&b, "| %s | %d | %d | %s | %s | %s |\n",
			m.Label(), row.Trades, row.WinTrades,
			row.WinRate.Percent(), row.Gain.SignedString(), row.ActivityRatio.Percent())
	}

	period := dashboard.AggregateRange(master, from, to, cal)
	fmt.Fprintf(&b, "\n## Period totals\n\n")
	fmt.Fprintf(&b, "- trades: %d (%d wins, win rate %s)\n", period.Trades, period.WinTrades, period.WinRate.Percent())
	fmt.Fprintf(&b, "- symbols traded: %d\n", period.Symbols)
	fmt.Fprintf(&b, "- realized gain: %s (wins %s, losses %s)\n",
		period.Gain.SignedString(), period.GainOnly.SignedString(), period.LossOnly.SignedString())
	fmt.Fprintf(&b, "- return on cost: %s, return on sales: %s\n",
		period.ReturnOnCost.Percent(), period.ReturnOnSales.Percent())
	fmt.Fprintf(&b, "- trade days: %d of %d open (%s)\n",
		period.ActualTradeDays, period.MarketOpenDays, period.ActivityRatio.Percent())

	printMarkdown(b.String())
	return subcommands.ExitSuccess
}
