// Package broker reads raw per-broker trade export files into a uniform row
// shape. Each broker ships its own header layout, encoding and quirks; the
// readers here absorb those differences so the rest of the pipeline only ever
// sees one schema.
package broker

import (
	"errors"
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"github.com/Chiquitos-JP/trading-dashboard/date"
)

// Broker names recognized by the factory.
const (
	Rakuten = "rakuten"
	SBI     = "sbi"
)

// ErrSchemaMismatch reports an extract whose header is missing required
// columns even after applying the broker's rename fallback list. The file is
// skipped; other sources keep going.
var ErrSchemaMismatch = errors.New("extract schema mismatch")

// Row is one trade row in uniform shape. Monetary totals are expressed in
// Currency; for Rakuten that is already JPY, for SBI it is USD and the
// normalizer converts it later.
type Row struct {
	ContractDate    date.Date // zero when the extract has no parseable value
	SettlementDate  date.Date
	Ticker          string
	StockName       string
	TransactionType string
	CustodyType     string
	Shares          decimal.Decimal
	UnitPrice       decimal.Decimal // settlement unit price, in the trade currency
	Settlement      decimal.Decimal // total settlement amount
	Cost            decimal.Decimal // total acquisition cost
	Gain            decimal.Decimal // realized gain
	Currency        string
	Broker          string
	Seq             int // position in the source extract, part of the natural key
}

// DropCounts records rows excluded during reading, by reason. Excluded rows
// are never silently folded into totals.
type DropCounts struct {
	Summary    int // total/subtotal decoration rows
	BadDate    int // unparseable settlement date
	NonNumeric int // numeric field that stayed non-numeric after cleanup
	Filtered   int // transaction types out of scope (e.g. open legs)
}

// Total returns the number of rows excluded for any reason.
func (d DropCounts) Total() int { return d.Summary + d.BadDate + d.NonNumeric + d.Filtered }

// Add sums two counters, e.g. across the files of one source.
func (d DropCounts) Add(o DropCounts) DropCounts {
	return DropCounts{
		Summary:    d.Summary + o.Summary,
		BadDate:    d.BadDate + o.BadDate,
		NonNumeric: d.NonNumeric + o.NonNumeric,
		Filtered:   d.Filtered + o.Filtered,
	}
}

// Extract is the result of reading one raw export file.
type Extract struct {
	Broker  string
	Rows    []Row
	Dropped DropCounts
}

// Reader parses one broker's raw export format.
type Reader interface {
	// Broker returns the source tag stamped on every row.
	Broker() string
	// Read parses a raw export. It fails with ErrSchemaMismatch when the
	// header cannot be mapped to the uniform schema; row-level problems are
	// counted in Extract.Dropped instead.
	Read(r io.Reader) (*Extract, error)
}

// ForBroker returns the reader for a broker name.
func ForBroker(name string) (Reader, error) {
	switch name {
	case Rakuten:
		return NewRakutenReader(), nil
	case SBI:
		return NewSBIReader(), nil
	default:
		return nil, fmt.Errorf("unknown broker %q", name)
	}
}
