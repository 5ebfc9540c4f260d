package cmd

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"

	"github.com/Chiquitos-JP/trading-dashboard/date"
)

// calendarCmd holds the flags for the 'calendar' subcommand.
type calendarCmd struct {
	month string
}

func (*calendarCmd) Name() string     { return "calendar" }
func (*calendarCmd) Synopsis() string { return "display market-open days for a month" }
func (*calendarCmd) Usage() string {
	return `tdash calendar [-m <month>]

  Prints the number of market-open days in a month and the holidays falling
  inside it, from the configured holiday table. Accepts "2025-01" and
  "Jan-25" month forms.
`
}

func (c *calendarCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.month, "m", "", "Month to inspect (defaults to the current month)")
}

func (c *calendarCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		return fail(err)
	}
	cal, err := loadCalendar(cfg)
	if err != nil {
		return fail(err)
	}

	m := date.ThisMonth()
	if c.month != "" {
		if m, err = date.ParseMonth(c.month); err != nil {
			return fail(err)
		}
	}

	open, ok := cal.OpenDaysInMonth(m)
	if !ok {
		return fail(fmt.Errorf("unknown month %q", c.month))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s — %s (table %s)\n\n", m.Label(), cal.Name(), cal.Version())
	fmt.Fprintf(&b, "- market-open days: **%d**\n", open)
	for d := range m.Days() {
		if name, ok := cal.Holiday(d); ok {
			fmt.Fprintf(&b, "- %s: %s\n", d, name)
		}
	}
	printMarkdown(b.String())
	return subcommands.ExitSuccess
}
