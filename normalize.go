package dashboard

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Chiquitos-JP/trading-dashboard/broker"
)

// Normalizer converts raw broker rows into CanonicalRecords: reporting
// currency conversion by settlement month and symbol-space normalization.
// Rows that cannot be converted are excluded and counted, never defaulted.
type Normalizer struct {
	fx        *FXTable
	mode      RateMode
	reporting string
	log       *zap.Logger
}

// NewNormalizer builds a normalizer converting into the reporting currency.
func NewNormalizer(fx *FXTable, mode RateMode, reporting string, log *zap.Logger) *Normalizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Normalizer{fx: fx, mode: mode, reporting: reporting, log: log}
}

// NormalizeResult carries the canonical records of one extract plus the
// exclusion counts accumulated along the way.
type NormalizeResult struct {
	Broker    string
	Records   []CanonicalRecord
	Dropped   broker.DropCounts // carried over from the reader
	MissingFX int
	BadSymbol int
}

// Excluded returns the total number of rows excluded for any reason.
func (r *NormalizeResult) Excluded() int {
	return r.Dropped.Total() + r.MissingFX + r.BadSymbol
}

// Normalize converts one broker extract. Record-level failures (missing FX
// rate, unmappable symbol) exclude the row and increment a counter; they never
// fail the extract.
func (n *Normalizer) Normalize(ex *broker.Extract) (*NormalizeResult, error) {
	res := &NormalizeResult{Broker: ex.Broker, Dropped: ex.Dropped}
	for _, row := range ex.Rows {
		rec, err := n.normalizeRow(row)
		if err != nil {
			var symErr *SymbolError
			switch {
			case errors.Is(err, ErrMissingFXRate):
				res.MissingFX++
				n.log.Warn("row excluded",
					zap.String("broker", ex.Broker),
					zap.String("ticker", row.Ticker),
					zap.String("month", row.SettlementDate.String()),
					zap.Error(err))
			case errors.As(err, &symErr):
				res.BadSymbol++
				n.log.Warn("row excluded",
					zap.String("broker", ex.Broker),
					zap.String("ticker", row.Ticker),
					zap.Error(err))
			default:
				return nil, fmt.Errorf("normalize %s extract: %w", ex.Broker, err)
			}
			continue
		}
		res.Records = append(res.Records, rec)
	}
	return res, nil
}

func (n *Normalizer) normalizeRow(row broker.Row) (CanonicalRecord, error) {
	ticker, err := NormalizeSymbol(row.Ticker)
	if err != nil {
		return CanonicalRecord{}, err
	}

	settlement := M(row.Settlement, row.Currency)
	cost := M(row.Cost, row.Currency)
	gain := M(row.Gain, row.Currency)
	if row.Currency != n.reporting {
		rate, err := n.fx.Rate(row.SettlementDate.Month(), n.mode)
		if err != nil {
			return CanonicalRecord{}, err
		}
		settlement = M(row.Settlement.Mul(rate), n.reporting)
		cost = M(row.Cost.Mul(rate), n.reporting)
		gain = M(row.Gain.Mul(rate), n.reporting)
	}

	return CanonicalRecord{
		ContractDate:   row.ContractDate,
		SettlementDate: row.SettlementDate,
		Ticker:         ticker,
		StockName:      row.StockName,
		Shares:         row.Shares,
		Settlement:     settlement,
		Cost:           cost,
		Gain:           gain,
		Broker:         row.Broker,
		Seq:            row.Seq,
	}, nil
}
