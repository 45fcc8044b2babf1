// Package writers persists a finished run to a results folder.
//
// A results folder holds:
//
//	stats.yaml       terminal statistics
//	trades.parquet   closed trades
//	equity.parquet   one equity sample per bar
//	trades.csv       closed trades
//	rejections.csv   refused orders
//	logs.csv         strategy trace messages
package writers

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/parquet-go/parquet-go"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/recorder"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// File names inside a results folder.
const (
	StatsFile      = "stats.yaml"
	TradesParquet  = "trades.parquet"
	EquityParquet  = "equity.parquet"
	TradesCSV      = "trades.csv"
	RejectionsCSV  = "rejections.csv"
	LogsCSV        = "logs.csv"
	resultFileMode = 0o755
)

// TradeRecord is the parquet schema of a closed trade.
type TradeRecord struct {
	EntryBar     int64   `parquet:"entry_bar"`
	EntryTime    int64   `parquet:"entry_time,timestamp(millisecond)"`
	EntryPrice   float64 `parquet:"entry_price"`
	ExitBar      int64   `parquet:"exit_bar"`
	ExitTime     int64   `parquet:"exit_time,timestamp(millisecond)"`
	ExitPrice    float64 `parquet:"exit_price"`
	Size         int64   `parquet:"size"`
	PnL          float64 `parquet:"pnl"`
	ReturnPct    float64 `parquet:"return_pct"`
	Commission   float64 `parquet:"commission"`
	SlippageCost float64 `parquet:"slippage_cost"`
	CloseReason  string  `parquet:"close_reason"`
	Tag          string  `parquet:"tag"`
}

// EquityRecord is the parquet schema of an equity sample.
type EquityRecord struct {
	Bar          int64   `parquet:"bar"`
	Time         int64   `parquet:"time,timestamp(millisecond)"`
	Equity       float64 `parquet:"equity"`
	Cash         float64 `parquet:"cash"`
	PositionSize int64   `parquet:"position_size"`
	Drawdown     float64 `parquet:"drawdown"`
}

// logRecord flattens a log entry for CSV output.
type logRecord struct {
	Bar     int    `csv:"bar"`
	Time    string `csv:"time"`
	Level   string `csv:"level"`
	Message string `csv:"message"`
	Fields  string `csv:"fields"`
}

// WriteRecord writes every result file of record into dir, creating it if needed.
func WriteRecord(dir string, record *recorder.RunRecord) error {
	if err := os.MkdirAll(dir, resultFileMode); err != nil {
		return errors.Wrapf(errors.ErrCodeBacktestWriteFailed, err, "failed to create results folder %s", dir)
	}

	steps := []struct {
		name  string
		write func() error
	}{
		{StatsFile, func() error {
			return types.WriteRunStats(filepath.Join(dir, StatsFile), record.Stats())
		}},
		{TradesParquet, func() error {
			return writeParquet(filepath.Join(dir, TradesParquet), tradeRecords(record.Trades()))
		}},
		{EquityParquet, func() error {
			return writeParquet(filepath.Join(dir, EquityParquet), equityRecords(record.EquityCurve()))
		}},
		{TradesCSV, func() error {
			return writeCSV(filepath.Join(dir, TradesCSV), record.Trades())
		}},
		{RejectionsCSV, func() error {
			return writeCSV(filepath.Join(dir, RejectionsCSV), record.Rejections())
		}},
		{LogsCSV, func() error {
			return writeCSV(filepath.Join(dir, LogsCSV), logRecords(record.Logs()))
		}},
	}

	for _, step := range steps {
		if err := step.write(); err != nil {
			return errors.Wrapf(errors.ErrCodeBacktestWriteFailed, err, "failed to write %s", step.name)
		}
	}

	return nil
}

func tradeRecords(trades []types.Trade) []TradeRecord {
	records := make([]TradeRecord, len(trades))
	for i, trade := range trades {
		records[i] = TradeRecord{
			EntryBar:     int64(trade.EntryBar),
			EntryTime:    trade.EntryTime.UnixMilli(),
			EntryPrice:   trade.EntryPrice,
			ExitBar:      int64(trade.ExitBar),
			ExitTime:     trade.ExitTime.UnixMilli(),
			ExitPrice:    trade.ExitPrice,
			Size:         int64(trade.Size),
			PnL:          trade.PnL,
			ReturnPct:    trade.ReturnPct,
			Commission:   trade.Commission,
			SlippageCost: trade.SlippageCost,
			CloseReason:  string(trade.CloseReason),
			Tag:          trade.Tag,
		}
	}

	return records
}

func equityRecords(points []types.EquityPoint) []EquityRecord {
	records := make([]EquityRecord, len(points))
	for i, point := range points {
		records[i] = EquityRecord{
			Bar:          int64(point.Bar),
			Time:         point.Time.UnixMilli(),
			Equity:       point.Equity,
			Cash:         point.Cash,
			PositionSize: int64(point.PositionSize),
			Drawdown:     point.Drawdown,
		}
	}

	return records
}

func logRecords(entries []types.LogEntry) []logRecord {
	records := make([]logRecord, len(entries))
	for i, entry := range entries {
		records[i] = logRecord{
			Bar:     entry.Bar,
			Time:    entry.Time.Format(time.RFC3339),
			Level:   string(entry.Level),
			Message: entry.Message,
			Fields:  types.FormatLogFields(entry.Fields),
		}
	}

	return records
}

func writeParquet[T any](path string, records []T) error {
	return parquet.WriteFile(path, records)
}

// ReadParquet reads a parquet result file written by WriteRecord.
func ReadParquet[T any](path string) ([]T, error) {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return rows, nil
}

func writeCSV[T any](path string, rows []T) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return gocsv.MarshalFile(&rows, file)
}
