package dashboard

import "github.com/Chiquitos-JP/trading-dashboard/date"

// FutureAxis returns the months strictly after last, up to and including
// horizon, one step per month. A horizon at or before last yields an empty
// axis, which callers treat as a no-op.
func FutureAxis(last, horizon date.Month) []date.Month {
	if !horizon.After(last) {
		return nil
	}
	var axis []date.Month
	for m := range date.Months(last.AddMonths(1), horizon) {
		axis = append(axis, m)
	}
	return axis
}
