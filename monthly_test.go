package dashboard

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chiquitos-JP/trading-dashboard/calendar"
	"github.com/Chiquitos-JP/trading-dashboard/date"
)

func month(s string) date.Month { return date.MustParseMonth(s) }

func TestAggregate(t *testing.T) {
	cal := calendar.NYSE()
	records := []CanonicalRecord{
		rec("2025-01-08", "AAPL", "rakuten", 0, 20000),
		rec("2025-01-08", "AAPL", "rakuten", 1, -5000),
		rec("2025-01-15", "NVDA", "sbi", 0, 10000),
		rec("2025-02-03", "TSLA", "sbi", 0, 999), // other month, ignored
	}

	row := Aggregate(records, month("2025-01"), cal)
	assert.Equal(t, 3, row.Trades)
	assert.Equal(t, 2, row.WinTrades)
	assert.Equal(t, 2, row.Symbols)
	assert.Equal(t, 2, row.ActualTradeDays)
	assert.Equal(t, 21, row.MarketOpenDays)
	assert.True(t, row.KnownMonth)

	assert.True(t, row.Gain.Decimal().Equal(decimal.NewFromInt(25000)))
	assert.True(t, row.GainOnly.Decimal().Equal(decimal.NewFromInt(30000)))
	assert.True(t, row.LossOnly.Decimal().Equal(decimal.NewFromInt(-5000)))
	// the split always reassembles the total
	assert.True(t, row.GainOnly.Add(row.LossOnly).Equal(row.Gain))

	winRate, ok := row.WinRate.Decimal()
	require.True(t, ok)
	assert.True(t, winRate.Equal(decimal.NewFromInt(2).Div(decimal.NewFromInt(3))))

	perDay, ok := row.AvgGainPerDay.Decimal()
	require.True(t, ok)
	assert.True(t, perDay.Equal(decimal.NewFromInt(12500)))
}

func TestAggregateEmptyMonthRatiosUndefined(t *testing.T) {
	cal := calendar.NYSE()
	row := Aggregate(nil, month("2025-06"), cal)

	assert.Equal(t, 0, row.Trades)
	assert.Positive(t, row.MarketOpenDays)
	assert.False(t, row.WinRate.Defined())
	assert.False(t, row.ReturnOnCost.Defined())
	assert.False(t, row.AvgGainPerTrade.Defined())
	assert.Equal(t, "-", row.WinRate.String())
	assert.Equal(t, "-", row.WinRate.Percent())
}

func TestAggregateWinCountNeverExceedsTrades(t *testing.T) {
	cal := calendar.NYSE()
	records := []CanonicalRecord{
		rec("2025-01-08", "AAPL", "rakuten", 0, 20000),
		rec("2025-01-09", "AAPL", "rakuten", 0, 0), // flat trade is not a win
	}
	row := Aggregate(records, month("2025-01"), cal)
	assert.Equal(t, 2, row.Trades)
	assert.Equal(t, 1, row.WinTrades)
	assert.LessOrEqual(t, row.WinTrades, row.Trades)
}

func TestAggregateUnknownMonth(t *testing.T) {
	cal := calendar.NYSE()
	row := Aggregate(nil, date.Month{}, cal)
	assert.False(t, row.KnownMonth)
	assert.Equal(t, 0, row.MarketOpenDays)
	assert.False(t, row.ActivityRatio.Defined())
}

func TestAggregateAllOrdered(t *testing.T) {
	cal := calendar.NYSE()
	records := []CanonicalRecord{
		rec("2025-03-05", "NVDA", "rakuten", 0, 1000),
		rec("2025-01-08", "AAPL", "rakuten", 0, 2000),
		rec("2025-01-15", "AAPL", "rakuten", 0, 3000),
	}
	rows := AggregateAll(records, cal)
	require.Len(t, rows, 2)
	assert.Equal(t, "2025-01", rows[0].Month.String())
	assert.Equal(t, "2025-03", rows[1].Month.String())
	assert.Equal(t, 2, rows[0].Trades)
}

func TestAggregateRange(t *testing.T) {
	cal := calendar.NYSE()
	records := []CanonicalRecord{
		rec("2025-01-08", "AAPL", "rakuten", 0, 20000),
		rec("2025-02-12", "AAPL", "rakuten", 0, -5000),
		rec("2025-03-05", "NVDA", "sbi", 0, 10000),
		rec("2025-06-02", "TSLA", "sbi", 0, 999), // outside the range
	}

	row := AggregateRange(records, month("2025-01"), month("2025-03"), cal)
	assert.True(t, row.Month.IsZero())
	assert.Equal(t, 3, row.Trades)
	assert.Equal(t, 2, row.WinTrades)
	assert.Equal(t, 2, row.Symbols)
	assert.Equal(t, 3, row.ActualTradeDays)

	jan, _ := cal.OpenDaysInMonth(month("2025-01"))
	feb, _ := cal.OpenDaysInMonth(month("2025-02"))
	mar, _ := cal.OpenDaysInMonth(month("2025-03"))
	assert.Equal(t, jan+feb+mar, row.MarketOpenDays)

	// ratios derived once from the summed counts
	winRate, ok := row.WinRate.Decimal()
	require.True(t, ok)
	assert.True(t, winRate.Equal(decimal.NewFromInt(2).Div(decimal.NewFromInt(3))))
}
