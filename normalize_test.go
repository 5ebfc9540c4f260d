package dashboard

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chiquitos-JP/trading-dashboard/broker"
	"github.com/Chiquitos-JP/trading-dashboard/date"
)

func usdRow(day, ticker string, settlement, gain int64) broker.Row {
	return broker.Row{
		SettlementDate: date.MustParse(day),
		Ticker:         ticker,
		Shares:         decimal.NewFromInt(10),
		Settlement:     decimal.NewFromInt(settlement),
		Cost:           decimal.NewFromInt(settlement - gain),
		Gain:           decimal.NewFromInt(gain),
		Currency:       "USD",
		Broker:         broker.SBI,
	}
}

func TestNormalizeConvertsToReportingCurrency(t *testing.T) {
	fx := NewFXTable("DEXJPUS", map[date.Date]decimal.Decimal{
		date.MustParse("2025-01-06"): decimal.NewFromInt(150),
	})
	n := NewNormalizer(fx, RateAverage, "JPY", nil)

	res, err := n.Normalize(&broker.Extract{
		Broker: broker.SBI,
		Rows:   []broker.Row{usdRow("2025-01-08", "TSLA", 8000, 400)},
	})
	require.NoError(t, err)
	require.Len(t, res.Records, 1)

	r := res.Records[0]
	assert.Equal(t, "JPY", r.Settlement.Currency())
	assert.True(t, r.Settlement.Decimal().Equal(decimal.NewFromInt(1200000)))
	assert.True(t, r.Gain.Decimal().Equal(decimal.NewFromInt(60000)))
	assert.Equal(t, "20250108|TSLA|sbi|0", r.NaturalKey())
}

func TestNormalizeKeepsReportingCurrencyRows(t *testing.T) {
	// no FX table needed when nothing requires conversion
	n := NewNormalizer(NewFXTable("DEXJPUS", nil), RateAverage, "JPY", nil)
	row := usdRow("2025-01-08", "AAPL", 370000, 20000)
	row.Currency = "JPY"
	row.Broker = broker.Rakuten

	res, err := n.Normalize(&broker.Extract{Broker: broker.Rakuten, Rows: []broker.Row{row}})
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.True(t, res.Records[0].Settlement.Decimal().Equal(decimal.NewFromInt(370000)))
}

func TestNormalizeMissingFXRateExcludesAndCounts(t *testing.T) {
	n := NewNormalizer(NewFXTable("DEXJPUS", nil), RateAverage, "JPY", nil)
	res, err := n.Normalize(&broker.Extract{
		Broker: broker.SBI,
		Rows:   []broker.Row{usdRow("2025-01-08", "TSLA", 8000, 400)},
	})
	require.NoError(t, err)
	assert.Empty(t, res.Records)
	assert.Equal(t, 1, res.MissingFX)
	assert.Equal(t, 1, res.Excluded())
}

func TestNormalizeBadSymbolExcludesAndCounts(t *testing.T) {
	n := NewNormalizer(NewFXTable("DEXJPUS", nil), RateAverage, "JPY", nil)
	row := usdRow("2025-01-08", "???", 8000, 400)
	row.Currency = "JPY"

	res, err := n.Normalize(&broker.Extract{Broker: broker.SBI, Rows: []broker.Row{row}})
	require.NoError(t, err)
	assert.Empty(t, res.Records)
	assert.Equal(t, 1, res.BadSymbol)
}

func TestNormalizeSymbolSpace(t *testing.T) {
	cases := map[string]string{
		"aapl":  "AAPL",
		" TSLA ": "TSLA",
		"ＮＶＤＡ": "NVDA", // full-width folds to ASCII
		"BRK.B": "BRK.B",
	}
	for in, want := range cases {
		got, err := NormalizeSymbol(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	for _, bad := range []string{"", "123", "???", "銘柄"} {
		_, err := NormalizeSymbol(bad)
		var symErr *SymbolError
		assert.ErrorAs(t, err, &symErr, bad)
	}
}
