package broker

import (
	"fmt"
	"io"
)

// sbiPreambleLines is the account banner SBI prints before the header row.
const sbiPreambleLines = 8

// sbiFallbacks maps canonical columns to SBI's header variants, compared
// after NFKC normalization.
var sbiFallbacks = map[string][]string{
	"contract_date":   {"建日(国内約定日)", "建日"},
	"settlement_date": {"決済日(国内約定日)", "決済日"},
	"custody_type":    {"預り区分"},
	"tx_type":         {"取引"},
	"ticker":          {"ティッカー", "ティッカーコード"},
	"stock_name":      {"銘柄", "銘柄名"},
	"shares":          {"数量"},
	"unit_price":      {"決済単価"},
	"gain":            {"決済損益"},
}

var sbiRequired = []string{"settlement_date", "tx_type", "ticker", "shares", "unit_price", "gain"}

// sbiClosingTypes: margin close legs. SBI's export has no realized gain on
// opening legs, so only these count as trades.
var sbiClosingTypes = map[string]bool{
	"返買": true, // buy to cover
	"返売": true, // sell to close
}

type sbiReader struct{}

// NewSBIReader returns the reader for SBI margin trading exports. Amounts are
// in USD; the export carries no settlement total or acquisition cost, both
// are derived (total = unit price x shares, cost = total - gain).
func NewSBIReader() Reader { return sbiReader{} }

func (sbiReader) Broker() string { return SBI }

func (sbiReader) Read(r io.Reader) (*Extract, error) {
	content, err := decodeAll(r)
	if err != nil {
		return nil, err
	}
	records, err := readRecords(content, sbiPreambleLines)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("sbi extract: empty file: %w", ErrSchemaMismatch)
	}

	index, missing := columnIndex(records[0], sbiFallbacks, sbiRequired)
	if len(missing) > 0 {
		return nil, fmt.Errorf("sbi extract: missing columns %v: %w", missing, ErrSchemaMismatch)
	}

	ex := &Extract{Broker: SBI}
	seq := make(map[string]int)
	for _, record := range records[1:] {
		if isSummaryRow(record, index, "contract_date", "settlement_date") {
			ex.Dropped.Summary++
			continue
		}
		txType := field(record, index, "tx_type")
		if !sbiClosingTypes[txType] {
			ex.Dropped.Filtered++
			continue
		}
		settled, ok := cleanDate(field(record, index, "settlement_date"))
		if !ok {
			ex.Dropped.BadDate++
			continue
		}
		shares, okN := cleanNumeric(field(record, index, "shares"))
		unitPrice, okU := cleanNumeric(field(record, index, "unit_price"))
		gain, okG := cleanNumeric(field(record, index, "gain"))
		if !okN || !okU || !okG {
			ex.Dropped.NonNumeric++
			continue
		}
		settlement := unitPrice.Mul(shares)
		contract, _ := cleanDate(field(record, index, "contract_date"))

		ticker := field(record, index, "ticker")
		key := settled.String() + "|" + ticker
		row := Row{
			ContractDate:    contract,
			SettlementDate:  settled,
			Ticker:          ticker,
			StockName:       field(record, index, "stock_name"),
			TransactionType: txType,
			CustodyType:     field(record, index, "custody_type"),
			Shares:          shares,
			UnitPrice:       unitPrice,
			Settlement:      settlement,
			Cost:            settlement.Sub(gain),
			Gain:            gain,
			Currency:        "USD",
			Broker:          SBI,
			Seq:             seq[key],
		}
		seq[key]++
		ex.Rows = append(ex.Rows, row)
	}
	return ex, nil
}
