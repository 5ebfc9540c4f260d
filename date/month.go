package date

import (
	"encoding/json"
	"fmt"
	"iter"
	"time"
)

// MonthFormat is the canonical ISO form of a year-month.
const MonthFormat = "2006-01"

// labelFormat is the abbreviated human form found in broker exports ("Jan-25").
const labelFormat = "Jan-06"

// Month represents a calendar month with no day component. The zero Month is
// the "unknown month" marker: an identifier that could not be parsed.
type Month struct {
	y int
	m time.Month
}

// NewMonth returns a normalized Month for the given year and month. Out of
// range months roll over, mirroring time.Date behavior.
func NewMonth(year int, month time.Month) Month {
	t := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Month{y: t.Year(), m: t.Month()}
}

// MonthOf returns the month containing d.
func MonthOf(d Date) Month { return d.Month() }

// ThisMonth returns the current month.
func ThisMonth() Month { return MonthOf(Today()) }

// Year returns the year of the month.
func (m Month) Year() int { return m.y }

// Time returns the month of the year.
func (m Month) Time() time.Month { return m.m }

// IsZero reports whether m is the unknown-month marker.
func (m Month) IsZero() bool { return m.y == 0 && m.m == 0 }

// Start returns the first day of the month.
func (m Month) Start() Date { return New(m.y, m.m, 1) }

// End returns the last day of the month.
func (m Month) End() Date { return New(m.y, m.m+1, 0) }

// Days returns an iterator over every calendar day in the month.
func (m Month) Days() iter.Seq[Date] { return Range{From: m.Start(), To: m.End()}.Days() }

// AddMonths returns the month i months after m (before, for negative i).
func (m Month) AddMonths(i int) Month { return NewMonth(m.y, m.m+time.Month(i)) }

// Next returns the month immediately after m.
func (m Month) Next() Month { return m.AddMonths(1) }

// Before reports whether m is strictly before x.
func (m Month) Before(x Month) bool { return m.y < x.y || (m.y == x.y && m.m < x.m) }

// After reports whether m is strictly after x.
func (m Month) After(x Month) bool { return x.Before(m) }

// Compare returns -1, 0 or +1 comparing m to x chronologically.
func (m Month) Compare(x Month) int {
	switch {
	case m.Before(x):
		return -1
	case m.After(x):
		return 1
	default:
		return 0
	}
}

// String formats the month in its canonical ISO form ("2025-01").
func (m Month) String() string { return m.Start().Format(MonthFormat) }

// Label formats the month in the abbreviated human form ("Jan-25").
func (m Month) Label() string { return m.Start().Format(labelFormat) }

// ParseMonth parses a month identifier. It accepts the canonical ISO form
// ("2025-01"), the abbreviated label form ("Jan-25"), and the long label form
// ("Jan-2025"), normalizing all of them to the same Month value. An
// unparseable identifier yields an error; callers are expected to carry the
// zero Month as an explicit unknown marker rather than guessing.
func ParseMonth(str string) (Month, error) {
	for _, layout := range []string{MonthFormat, labelFormat, "Jan-2006"} {
		if t, err := time.Parse(layout, str); err == nil {
			return NewMonth(t.Year(), t.Month()), nil
		}
	}
	return Month{}, fmt.Errorf("invalid month %q: want %q or %q", str, MonthFormat, labelFormat)
}

// MustParseMonth is like ParseMonth but panics on error.
func MustParseMonth(str string) Month {
	m, err := ParseMonth(str)
	if err != nil {
		panic(err.Error())
	}
	return m
}

// Months returns an iterator yielding every month from 'from' to 'to'
// inclusive, in chronological order. It yields nothing when 'to' is before
// 'from'.
func Months(from, to Month) iter.Seq[Month] {
	return func(yield func(Month) bool) {
		for m := from; !m.After(to); m = m.Next() {
			if !yield(m) {
				return
			}
		}
	}
}

// UnmarshalJSON parses a month from its JSON string form.
func (m *Month) UnmarshalJSON(bytes []byte) error {
	var str string
	if err := json.Unmarshal(bytes, &str); err != nil {
		return err
	}
	p, err := ParseMonth(str)
	if err != nil {
		return err
	}
	*m = p
	return nil
}

func (m Month) MarshalJSON() ([]byte, error) {
	str := m.String()
	return json.Marshal(&str)
}

var _ json.Marshaler = (*Month)(nil)
var _ json.Unmarshaler = (*Month)(nil)
