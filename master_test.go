package dashboard

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chiquitos-JP/trading-dashboard/date"
)

func rec(day, ticker, broker string, seq int, gain int64) CanonicalRecord {
	return CanonicalRecord{
		SettlementDate: date.MustParse(day),
		Ticker:         ticker,
		Broker:         broker,
		Seq:            seq,
		Shares:         decimal.NewFromInt(10),
		Settlement:     M(int64(100000), "JPY"),
		Cost:           M(100000-gain, "JPY"),
		Gain:           M(gain, "JPY"),
	}
}

func TestMergeIdempotent(t *testing.T) {
	batch := []CanonicalRecord{
		rec("2025-01-08", "AAPL", "rakuten", 0, 20000),
		rec("2025-01-09", "NVDA", "rakuten", 0, -5000),
	}

	master, inserted, duplicates := Merge(nil, batch)
	require.Equal(t, 2, inserted)
	require.Equal(t, 0, duplicates)

	again, inserted, duplicates := Merge(master, batch)
	assert.Equal(t, 0, inserted)
	assert.Equal(t, 2, duplicates)
	assert.Equal(t, master, again)
}

func TestMergeSupersetInsertsOnlyNetNew(t *testing.T) {
	subset := []CanonicalRecord{
		rec("2025-01-08", "AAPL", "rakuten", 0, 20000),
	}
	superset := []CanonicalRecord{
		rec("2025-01-08", "AAPL", "rakuten", 0, 20000),
		rec("2025-01-08", "AAPL", "rakuten", 1, 3000),
		rec("2025-01-10", "TSLA", "sbi", 0, 7000),
	}

	master, _, _ := Merge(nil, subset)
	master, inserted, duplicates := Merge(master, superset)
	assert.Equal(t, 2, inserted)
	assert.Equal(t, 1, duplicates)
	assert.Len(t, master, 3)
}

func TestMergeSortsBySettlementDate(t *testing.T) {
	master, _, _ := Merge(nil, []CanonicalRecord{
		rec("2025-03-05", "NVDA", "rakuten", 0, 1),
		rec("2025-01-08", "AAPL", "rakuten", 0, 1),
		rec("2025-02-12", "TSLA", "sbi", 0, 1),
	})
	require.Len(t, master, 3)
	assert.Equal(t, "AAPL", master[0].Ticker)
	assert.Equal(t, "TSLA", master[1].Ticker)
	assert.Equal(t, "NVDA", master[2].Ticker)
}

func TestMergeDeduplicatesWithinBatch(t *testing.T) {
	batch := []CanonicalRecord{
		rec("2025-01-08", "AAPL", "rakuten", 0, 20000),
		rec("2025-01-08", "AAPL", "rakuten", 0, 20000),
	}
	master, inserted, duplicates := Merge(nil, batch)
	assert.Len(t, master, 1)
	assert.Equal(t, 1, inserted)
	assert.Equal(t, 1, duplicates)
}

func TestCheckIntegrity(t *testing.T) {
	ok := []CanonicalRecord{
		rec("2025-01-08", "AAPL", "rakuten", 0, 1),
		rec("2025-01-08", "AAPL", "rakuten", 1, 1),
	}
	assert.NoError(t, CheckIntegrity(ok))

	bad := append(ok, rec("2025-01-08", "AAPL", "rakuten", 1, 1))
	assert.ErrorIs(t, CheckIntegrity(bad), ErrMasterIntegrity)
}

func TestLastMonth(t *testing.T) {
	assert.True(t, LastMonth(nil).IsZero())

	master, _, _ := Merge(nil, []CanonicalRecord{
		rec("2025-01-08", "AAPL", "rakuten", 0, 1),
		rec("2025-03-05", "NVDA", "rakuten", 0, 1),
	})
	assert.Equal(t, "2025-03", LastMonth(master).String())
}

func TestMasterRoundTripAndBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "master_realized_pl_merged.parquet")
	master, _, _ := Merge(nil, []CanonicalRecord{
		rec("2025-01-08", "AAPL", "rakuten", 0, 20000),
		rec("2025-02-12", "TSLA", "sbi", 0, -3000),
	})

	require.NoError(t, SaveMaster(path, master))
	loaded, err := LoadMaster(path)
	require.NoError(t, err)
	assert.Equal(t, master, loaded)

	// a second save must copy the previous artifact aside first
	require.NoError(t, SaveMaster(path, master))
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	backups := 0
	for _, e := range entries {
		if e.Name() != filepath.Base(path) {
			backups++
		}
	}
	assert.Equal(t, 1, backups)
}

func TestLoadMasterMissingFileIsEmpty(t *testing.T) {
	records, err := LoadMaster(filepath.Join(t.TempDir(), "nope.parquet"))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSaveMasterRefusesIntegrityViolation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "master.parquet")
	dup := []CanonicalRecord{
		rec("2025-01-08", "AAPL", "rakuten", 0, 1),
		rec("2025-01-08", "AAPL", "rakuten", 0, 1),
	}
	assert.ErrorIs(t, SaveMaster(path, dup), ErrMasterIntegrity)
}
