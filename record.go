package dashboard

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"

	"github.com/Chiquitos-JP/trading-dashboard/date"
)

// CanonicalRecord is one trade event in its final typed form: settlement
// amounts converted to the reporting currency, the symbol normalized into the
// shared symbol space, and a natural key assigned. Records are never mutated
// after normalization.
type CanonicalRecord struct {
	ContractDate   date.Date
	SettlementDate date.Date
	Ticker         string
	StockName      string
	Shares         decimal.Decimal
	Settlement     Money // total settlement amount, reporting currency
	Cost           Money // total acquisition cost, reporting currency
	Gain           Money // realized gain, reporting currency
	Broker         string
	Seq            int // position among same-day same-ticker rows in the source extract
}

// NaturalKey identifies a trade event for deduplication: settlement date,
// ticker, broker and in-file sequence.
func (r CanonicalRecord) NaturalKey() string {
	return r.SettlementDate.Stamp() + "|" + r.Ticker + "|" + r.Broker + "|" + strconv.Itoa(r.Seq)
}

// Month returns the record's settlement month.
func (r CanonicalRecord) Month() date.Month { return r.SettlementDate.Month() }

// IsWin reports whether the trade realized a positive gain.
func (r CanonicalRecord) IsWin() bool { return r.Gain.IsPositive() }

// symbolPattern is the shared symbol space all brokers must map into.
var symbolPattern = regexp.MustCompile(`^[A-Z][A-Z0-9.\-]{0,9}$`)

// NormalizeSymbol maps a broker ticker into the shared symbol space:
// full-width characters folded to ASCII, upper-cased, whitespace stripped. A
// ticker that still does not fit the space yields a SymbolError.
func NormalizeSymbol(ticker string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(norm.NFKC.String(ticker)))
	s = strings.ReplaceAll(s, " ", "")
	if !symbolPattern.MatchString(s) {
		return "", &SymbolError{Ticker: ticker}
	}
	return s, nil
}
