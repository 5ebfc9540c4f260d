// Package calendar answers market-open-day questions from a versioned holiday
// table. The table is plain data shipped with the binary or loaded from a
// file, never a live feed, so historical recomputation stays reproducible.
package calendar

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/Chiquitos-JP/trading-dashboard/date"
)

// Calendar reports whether the market behind it is open on a given day.
type Calendar struct {
	name     string
	version  string
	holidays map[date.Date]string
}

// New builds a calendar from an explicit holiday set. Mostly useful in tests;
// production code loads a table with Load or uses the embedded Default.
func New(name, version string, holidays map[date.Date]string) *Calendar {
	h := make(map[date.Date]string, len(holidays))
	for d, label := range holidays {
		h[d] = label
	}
	return &Calendar{name: name, version: version, holidays: h}
}

// Name returns the market name of the table ("NYSE").
func (c *Calendar) Name() string { return c.name }

// Version returns the holiday table version.
func (c *Calendar) Version() string { return c.version }

// IsOpen reports whether the market is open on d: a weekday that is not in
// the holiday table.
func (c *Calendar) IsOpen(d date.Date) bool {
	switch d.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	_, holiday := c.holidays[d]
	return !holiday
}

// Holiday returns the holiday label for d, if any.
func (c *Calendar) Holiday(d date.Date) (string, bool) {
	label, ok := c.holidays[d]
	return label, ok
}

// OpenDaysInMonth counts market-open days in m, first to last of the month
// inclusive. The unknown-month marker (zero Month) yields (0, false) so
// callers surface the gap instead of treating it as a zero-day month.
func (c *Calendar) OpenDaysInMonth(m date.Month) (int, bool) {
	if m.IsZero() {
		return 0, false
	}
	n := 0
	for d := range m.Days() {
		if c.IsOpen(d) {
			n++
		}
	}
	return n, true
}

// table is the serialized form of a holiday table file.
type table struct {
	Calendar string `json:"calendar"`
	Version  string `json:"version"`
	Holidays []struct {
		Date date.Date `json:"date"`
		Name string    `json:"name"`
	} `json:"holidays"`
}

// Load reads a holiday table from a JSON file.
func Load(path string) (*Calendar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read holiday table %q: %w", path, err)
	}
	var t table
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse holiday table %q: %w", path, err)
	}
	holidays := make(map[date.Date]string, len(t.Holidays))
	for _, h := range t.Holidays {
		holidays[h.Date] = h.Name
	}
	return &Calendar{name: t.Calendar, version: t.Version, holidays: holidays}, nil
}
