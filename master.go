package dashboard

import (
	"fmt"
	"sort"

	"github.com/Chiquitos-JP/trading-dashboard/date"
)

// Merge combines an existing master record set with newly normalized records.
// Records whose natural key already exists are duplicates and are dropped;
// the rest are appended and the result is re-sorted by settlement date.
//
// Merge is a pure function of its inputs: merging the same batch twice yields
// an unchanged master and inserted == 0.
func Merge(existing, incoming []CanonicalRecord) (merged []CanonicalRecord, inserted, duplicates int) {
	seen := make(map[string]struct{}, len(existing))
	for _, r := range existing {
		seen[r.NaturalKey()] = struct{}{}
	}

	merged = make([]CanonicalRecord, len(existing), len(existing)+len(incoming))
	copy(merged, existing)
	for _, r := range incoming {
		key := r.NaturalKey()
		if _, ok := seen[key]; ok {
			duplicates++
			continue
		}
		seen[key] = struct{}{}
		merged = append(merged, r)
		inserted++
	}

	sortRecords(merged)
	return merged, inserted, duplicates
}

// sortRecords orders by settlement date, then by the remaining natural key
// fields for a deterministic layout.
func sortRecords(records []CanonicalRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.SettlementDate.Equal(b.SettlementDate) {
			return a.SettlementDate.Before(b.SettlementDate)
		}
		if a.Ticker != b.Ticker {
			return a.Ticker < b.Ticker
		}
		if a.Broker != b.Broker {
			return a.Broker < b.Broker
		}
		return a.Seq < b.Seq
	})
}

// CheckIntegrity verifies that natural keys are unique within a master record
// set. A violation indicates a correctness bug upstream and is fatal.
func CheckIntegrity(records []CanonicalRecord) error {
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		key := r.NaturalKey()
		if _, ok := seen[key]; ok {
			return fmt.Errorf("duplicate natural key %s: %w", key, ErrMasterIntegrity)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// LastMonth returns the settlement month of the latest record, or a zero
// Month for an empty set. Callers must pass a sorted master set.
func LastMonth(records []CanonicalRecord) date.Month {
	if len(records) == 0 {
		return date.Month{}
	}
	return records[len(records)-1].Month()
}
