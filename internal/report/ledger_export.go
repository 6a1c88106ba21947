package report

import (
	"fmt"
	"io"

	"github.com/garyjia/budget-ledger/internal/application/service"
	"github.com/garyjia/budget-ledger/internal/domain/entity"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	categoriesSheet = "Categories"
	logsSheet       = "Budget Logs"
	timeLayout      = "2006-01-02 15:04:05"
)

var (
	categoryHeader = []interface{}{"ID", "Category", "Year", "Allocated", "Used", "Remaining"}
	logHeader      = []interface{}{"ID", "Date", "Category", "Type", "Amount", "Reason", "User"}
)

// LedgerExporter renders a fiscal-year ledger snapshot as an XLSX workbook
type LedgerExporter struct {
	logger *zap.Logger
}

// NewLedgerExporter creates a new ledger exporter
func NewLedgerExporter(logger *zap.Logger) *LedgerExporter {
	return &LedgerExporter{logger: logger}
}

// FileName returns the download name of the workbook for a fiscal year
func FileName(year int) string {
	return fmt.Sprintf("ledger_%d.xlsx", year)
}

// Write renders snapshot into w
func (e *LedgerExporter) Write(w io.Writer, snapshot *service.LedgerSnapshot) error {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			e.logger.Warn("Failed to close workbook", zap.Error(err))
		}
	}()

	if err := f.SetSheetName(f.GetSheetName(0), categoriesSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(logsSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	names := make(map[int64]string, len(snapshot.Categories))
	categoryRows := make([][]interface{}, 0, len(snapshot.Categories))
	for _, c := range snapshot.Categories {
		names[c.ID] = c.Name
		categoryRows = append(categoryRows, []interface{}{
			c.ID, c.Name, c.Year, amount(c.Allocated), amount(c.Used), amount(c.Remaining),
		})
	}
	if err := writeSheet(f, categoriesSheet, categoryHeader, categoryRows, headerStyle); err != nil {
		return err
	}

	logRows := make([][]interface{}, 0, len(snapshot.Logs))
	for _, l := range snapshot.Logs {
		logRows = append(logRows, []interface{}{
			l.ID, l.CreatedAt.Format(timeLayout), names[l.CategoryID], l.Type, amount(l.Amount), l.Reason, l.User,
		})
	}
	if err := writeSheet(f, logsSheet, logHeader, logRows, headerStyle); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	e.logger.Info("Ledger exported",
		zap.Int("year", snapshot.Year),
		zap.Int("categories", len(categoryRows)),
		zap.Int("logs", len(logRows)))

	return nil
}

func writeSheet(f *excelize.File, sheet string, header []interface{}, rows [][]interface{}, headerStyle int) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}

	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle); err != nil {
		return fmt.Errorf("failed to style %s header: %w", sheet, err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := row
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

// amount converts cents to a numeric cell value in major units
func amount(m entity.Money) float64 {
	return m.Decimal().InexactFloat64()
}
