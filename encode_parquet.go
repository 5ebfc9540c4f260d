package dashboard

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/shopspring/decimal"

	"github.com/Chiquitos-JP/trading-dashboard/date"
)

// masterRow is the flat parquet shape of a CanonicalRecord. Decimals are
// persisted as strings to keep amounts exact; dates as YYYYMMDD stamps.
type masterRow struct {
	ContractDate   string `parquet:"contract_date,optional"`
	SettlementDate string `parquet:"settlement_date"`
	Ticker         string `parquet:"ticker"`
	StockName      string `parquet:"stock_name,optional"`
	Shares         string `parquet:"shares"`
	Settlement     string `parquet:"ttl_amt_settlement"`
	Cost           string `parquet:"ttl_cost_acquisition"`
	Gain           string `parquet:"gain_realized"`
	Currency       string `parquet:"currency"`
	Broker         string `parquet:"broker"`
	Seq            int32  `parquet:"seq"`
}

func encodeRecord(r CanonicalRecord) masterRow {
	row := masterRow{
		SettlementDate: r.SettlementDate.Stamp(),
		Ticker:         r.Ticker,
		StockName:      r.StockName,
		Shares:         r.Shares.String(),
		Settlement:     r.Settlement.Decimal().String(),
		Cost:           r.Cost.Decimal().String(),
		Gain:           r.Gain.Decimal().String(),
		Currency:       r.Settlement.Currency(),
		Broker:         r.Broker,
		Seq:            int32(r.Seq),
	}
	if !r.ContractDate.IsZero() {
		row.ContractDate = r.ContractDate.Stamp()
	}
	return row
}

func decodeRecord(row masterRow) (CanonicalRecord, error) {
	settled, err := date.ParseStamp(row.SettlementDate)
	if err != nil {
		return CanonicalRecord{}, fmt.Errorf("master row: %w", err)
	}
	var contract date.Date
	if row.ContractDate != "" {
		if contract, err = date.ParseStamp(row.ContractDate); err != nil {
			return CanonicalRecord{}, fmt.Errorf("master row: %w", err)
		}
	}
	shares, err := decimal.NewFromString(row.Shares)
	if err != nil {
		return CanonicalRecord{}, fmt.Errorf("master row shares: %w", err)
	}
	settlement, err := decimal.NewFromString(row.Settlement)
	if err != nil {
		return CanonicalRecord{}, fmt.Errorf("master row settlement: %w", err)
	}
	cost, err := decimal.NewFromString(row.Cost)
	if err != nil {
		return CanonicalRecord{}, fmt.Errorf("master row cost: %w", err)
	}
	gain, err := decimal.NewFromString(row.Gain)
	if err != nil {
		return CanonicalRecord{}, fmt.Errorf("master row gain: %w", err)
	}
	return CanonicalRecord{
		ContractDate:   contract,
		SettlementDate: settled,
		Ticker:         row.Ticker,
		StockName:      row.StockName,
		Shares:         shares,
		Settlement:     M(settlement, row.Currency),
		Cost:           M(cost, row.Currency),
		Gain:           M(gain, row.Currency),
		Broker:         row.Broker,
		Seq:            int(row.Seq),
	}, nil
}

func encodeRecords(records []CanonicalRecord) []masterRow {
	rows := make([]masterRow, len(records))
	for i, r := range records {
		rows[i] = encodeRecord(r)
	}
	return rows
}

func decodeRecords(rows []masterRow) ([]CanonicalRecord, error) {
	records := make([]CanonicalRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := decodeRecord(row)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// kpiParquetRow is the flat parquet shape of a KPIRow. Ratio fields are
// optional strings; absence encodes "undefined", which must survive the round
// trip distinct from zero.
type kpiParquetRow struct {
	Month           string `parquet:"month"`
	Trades          int32  `parquet:"num_of_trades"`
	WinTrades       int32  `parquet:"num_of_win_trades"`
	Symbols         int32  `parquet:"num_of_symbols"`
	Gain            string `parquet:"ttl_gain_realized"`
	GainOnly        string `parquet:"ttl_gain_only"`
	LossOnly        string `parquet:"ttl_loss_only"`
	Cost            string `parquet:"ttl_cost_acquisition"`
	Settlement      string `parquet:"ttl_amt_settlement"`
	Currency        string `parquet:"currency"`
	ActualTradeDays int32  `parquet:"actual_trade_days"`
	MarketOpenDays  int32  `parquet:"market_open_days"`
	KnownMonth      bool   `parquet:"known_month"`
	WinRate         string `parquet:"win_rate,optional"`
	ReturnOnCost    string `parquet:"return_on_cost,optional"`
	ReturnOnSales   string `parquet:"return_on_sales,optional"`
	AvgGainPerTrade string `parquet:"avg_gain_realized_per_trade,optional"`
	AvgGainPerDay   string `parquet:"avg_gain_per_day,optional"`
	AvgTradesPerDay string `parquet:"avg_num_of_trades_per_day,optional"`
	ActivityRatio   string `parquet:"trading_activity_ratio,optional"`
}

// plotParquetRow extends the KPI shape with the continuous-axis columns.
type plotParquetRow struct {
	kpiParquetRow
	IsActual       bool   `parquet:"is_actual"`
	Sign           int32  `parquet:"gain_sign"`
	CumulativeGain string `parquet:"cum_gain_realized"`
}

func encodeRatio(r Ratio) string {
	v, ok := r.Decimal()
	if !ok {
		return ""
	}
	return v.String()
}

func decodeRatio(s string) (Ratio, error) {
	if s == "" {
		return Ratio{}, nil
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return Ratio{}, fmt.Errorf("ratio %q: %w", s, err)
	}
	return RatioOf(v), nil
}

func encodeKPI(k KPIRow) kpiParquetRow {
	return kpiParquetRow{
		Month:           k.Month.String(),
		Trades:          int32(k.Trades),
		WinTrades:       int32(k.WinTrades),
		Symbols:         int32(k.Symbols),
		Gain:            k.Gain.Decimal().String(),
		GainOnly:        k.GainOnly.Decimal().String(),
		LossOnly:        k.LossOnly.Decimal().String(),
		Cost:            k.Cost.Decimal().String(),
		Settlement:      k.Settlement.Decimal().String(),
		Currency:        k.Gain.Currency(),
		ActualTradeDays: int32(k.ActualTradeDays),
		MarketOpenDays:  int32(k.MarketOpenDays),
		KnownMonth:      k.KnownMonth,
		WinRate:         encodeRatio(k.WinRate),
		ReturnOnCost:    encodeRatio(k.ReturnOnCost),
		ReturnOnSales:   encodeRatio(k.ReturnOnSales),
		AvgGainPerTrade: encodeRatio(k.AvgGainPerTrade),
		AvgGainPerDay:   encodeRatio(k.AvgGainPerDay),
		AvgTradesPerDay: encodeRatio(k.AvgTradesPerDay),
		ActivityRatio:   encodeRatio(k.ActivityRatio),
	}
}

func decodeKPI(row kpiParquetRow) (KPIRow, error) {
	m, err := date.ParseMonth(row.Month)
	if err != nil {
		return KPIRow{}, fmt.Errorf("kpi row: %w", err)
	}
	k := KPIRow{
		Month:           m,
		Trades:          int(row.Trades),
		WinTrades:       int(row.WinTrades),
		Symbols:         int(row.Symbols),
		ActualTradeDays: int(row.ActualTradeDays),
		MarketOpenDays:  int(row.MarketOpenDays),
		KnownMonth:      row.KnownMonth,
	}
	amounts := []struct {
		src string
		dst *Money
	}{
		{row.Gain, &k.Gain},
		{row.GainOnly, &k.GainOnly},
		{row.LossOnly, &k.LossOnly},
		{row.Cost, &k.Cost},
		{row.Settlement, &k.Settlement},
	}
	for _, a := range amounts {
		v, err := decimal.NewFromString(a.src)
		if err != nil {
			return KPIRow{}, fmt.Errorf("kpi row %s: %w", row.Month, err)
		}
		*a.dst = M(v, row.Currency)
	}
	ratios := []struct {
		src string
		dst *Ratio
	}{
		{row.WinRate, &k.WinRate},
		{row.ReturnOnCost, &k.ReturnOnCost},
		{row.ReturnOnSales, &k.ReturnOnSales},
		{row.AvgGainPerTrade, &k.AvgGainPerTrade},
		{row.AvgGainPerDay, &k.AvgGainPerDay},
		{row.AvgTradesPerDay, &k.AvgTradesPerDay},
		{row.ActivityRatio, &k.ActivityRatio},
	}
	for _, r := range ratios {
		if *r.dst, err = decodeRatio(r.src); err != nil {
			return KPIRow{}, fmt.Errorf("kpi row %s: %w", row.Month, err)
		}
	}
	return k, nil
}

func encodePlot(p PlotRow) plotParquetRow {
	return plotParquetRow{
		kpiParquetRow:  encodeKPI(p.KPIRow),
		IsActual:       p.IsActual,
		Sign:           int32(p.Sign),
		CumulativeGain: p.CumulativeGain.Decimal().String(),
	}
}

func decodePlot(row plotParquetRow) (PlotRow, error) {
	k, err := decodeKPI(row.kpiParquetRow)
	if err != nil {
		return PlotRow{}, err
	}
	cum, err := decimal.NewFromString(row.CumulativeGain)
	if err != nil {
		return PlotRow{}, fmt.Errorf("plot row %s: %w", row.Month, err)
	}
	return PlotRow{
		KPIRow:         k,
		IsActual:       row.IsActual,
		Sign:           Sign(row.Sign),
		CumulativeGain: M(cum, row.Currency),
	}, nil
}

// LoadMaster reads a master artifact. A missing file is an empty master, not
// an error; the first run starts from nothing.
func LoadMaster(path string) ([]CanonicalRecord, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	rows, err := parquet.ReadFile[masterRow](path)
	if err != nil {
		return nil, fmt.Errorf("read master %s: %w", path, err)
	}
	records := make([]CanonicalRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := decodeRecord(row)
		if err != nil {
			return nil, fmt.Errorf("master %s: %w", path, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// SaveMaster writes a master artifact, copying any existing file aside with a
// timestamp suffix first. The integrity invariant is enforced on every save.
func SaveMaster(path string, records []CanonicalRecord) error {
	if err := CheckIntegrity(records); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("save master: %w", err)
	}
	if err := backupFile(path); err != nil {
		return err
	}

	if err := parquet.WriteFile(path, encodeRecords(records)); err != nil {
		return fmt.Errorf("write master %s: %w", path, err)
	}
	return nil
}

// backupFile copies an existing artifact aside before it is overwritten.
func backupFile(path string) error {
	src, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("backup master: %w", err)
	}
	defer src.Close()

	ext := filepath.Ext(path)
	stamp := time.Now().Format("20060102_150405")
	backup := path[:len(path)-len(ext)] + "_backup_" + stamp + ext
	dst, err := os.Create(backup)
	if err != nil {
		return fmt.Errorf("backup master: %w", err)
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("backup master: %w", err)
	}
	return nil
}
