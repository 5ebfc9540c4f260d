package broker

import (
	"fmt"
	"io"
)

// rakutenFallbacks maps canonical columns to the header variants Rakuten has
// shipped over time. Headers are compared after NFKC normalization.
var rakutenFallbacks = map[string][]string{
	"contract_date":   {"約定日"},
	"settlement_date": {"受渡日", "決済日"},
	"custody_type":    {"口座", "口座区分"},
	"tx_type":         {"取引", "取引区分"},
	"ticker":          {"ティッカーコード", "ティッカー"},
	"stock_name":      {"銘柄名", "銘柄"},
	"shares":          {"数量[株]", "数量"},
	"unit_price":      {"売却/決済単価[USドル]", "売却/決済単価"},
	"settlement":      {"売却/決済額[円]", "受渡金額[円]"},
	"gain":            {"実現損益[円]"},
}

var rakutenRequired = []string{"settlement_date", "tx_type", "ticker", "settlement", "gain"}

// rakutenClosingTypes are the transaction types that realize a gain or loss.
// Everything else (open legs, corporate actions) is out of scope for the
// realized P/L record.
var rakutenClosingTypes = map[string]bool{
	"売付": true, // sell
	"売埋": true, // close short
	"買埋": true, // close long
	"現渡": true, // delivery
}

type rakutenReader struct{}

// NewRakutenReader returns the reader for Rakuten realized P/L exports.
// Amounts in these exports are already in JPY.
func NewRakutenReader() Reader { return rakutenReader{} }

func (rakutenReader) Broker() string { return Rakuten }

func (rakutenReader) Read(r io.Reader) (*Extract, error) {
	content, err := decodeAll(r)
	if err != nil {
		return nil, err
	}
	records, err := readRecords(content, 0)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("rakuten extract: empty file: %w", ErrSchemaMismatch)
	}

	index, missing := columnIndex(records[0], rakutenFallbacks, rakutenRequired)
	if len(missing) > 0 {
		return nil, fmt.Errorf("rakuten extract: missing columns %v: %w", missing, ErrSchemaMismatch)
	}

	ex := &Extract{Broker: Rakuten}
	seq := make(map[string]int)
	for _, record := range records[1:] {
		if isSummaryRow(record, index, "contract_date", "settlement_date") {
			ex.Dropped.Summary++
			continue
		}
		txType := field(record, index, "tx_type")
		if !rakutenClosingTypes[txType] {
			ex.Dropped.Filtered++
			continue
		}
		settled, ok := cleanDate(field(record, index, "settlement_date"))
		if !ok {
			ex.Dropped.BadDate++
			continue
		}
		settlement, okS := cleanNumeric(field(record, index, "settlement"))
		gain, okG := cleanNumeric(field(record, index, "gain"))
		if !okS || !okG {
			ex.Dropped.NonNumeric++
			continue
		}
		shares, _ := cleanNumeric(field(record, index, "shares"))
		unitPrice, _ := cleanNumeric(field(record, index, "unit_price"))
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
			Currency:        "JPY",
			Broker:          Rakuten,
			Seq:             seq[key],
		}
		seq[key]++
		ex.Rows = append(ex.Rows, row)
	}

	return ex, nil
}
