// Package export renders booking reports as Excel workbooks for the
// staff report endpoint.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"stolik/internal/domain"
	"stolik/internal/models"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Bookings"

// Exporter builds a day-grid workbook: one column per date in the
// range, one row per table, every confirmed booking rendered into
// its cell. When dir is set, generated reports are also archived
// there.
type Exporter struct {
	store domain.Store
	dir   string
}

func NewExporter(store domain.Store, dir string) *Exporter {
	return &Exporter{store: store, dir: dir}
}

// BuildReport returns the workbook for [startDate, endDate]. The
// caller owns the file and must Close it.
func (e *Exporter) BuildReport(ctx context.Context, startDate, endDate time.Time) (*excelize.File, error) {
	if endDate.Before(startDate) {
		return nil, fmt.Errorf("invalid report range: %s after %s",
			startDate.Format(models.DateFormat), endDate.Format(models.DateFormat))
	}

	tables, err := e.store.ListTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tables: %w", err)
	}
	bookings, err := e.store.ListBookingsByDateRange(ctx, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}

	f := excelize.NewFile()
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Period: %s - %s",
		startDate.Format(models.DateFormat), endDate.Format(models.DateFormat)))

	dateCols := writeDateHeaders(f, startDate, endDate)
	writeTableRows(f, tables)
	fillBookings(f, tables, bookings, dateCols)

	_ = f.SetColWidth(sheetName, "A", "A", 22)

	return f, nil
}

// Archive writes a copy of the workbook to the exporter's directory
// and returns its path. A no-op when no directory is configured.
func (e *Exporter) Archive(f *excelize.File, startDate, endDate time.Time) (string, error) {
	if e.dir == "" {
		return "", nil
	}
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}
	path := filepath.Join(e.dir, fmt.Sprintf("bookings_%s_%s.xlsx",
		startDate.Format(models.DateFormat), endDate.Format(models.DateFormat)))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("archive report: %w", err)
	}
	return path, nil
}

// writeDateHeaders puts one date per column starting at B2 and
// returns the date -> column mapping.
func writeDateHeaders(f *excelize.File, startDate, endDate time.Time) map[string]int {
	cols := make(map[string]int)
	col := 2
	for d := startDate; !d.After(endDate); d = d.AddDate(0, 0, 1) {
		dateKey := d.Format(models.DateFormat)
		cell, _ := excelize.CoordinatesToCellName(col, 2)
		_ = f.SetCellValue(sheetName, cell, dateKey)
		width, _ := excelize.ColumnNumberToName(col)
		_ = f.SetColWidth(sheetName, width, width, 28)
		cols[dateKey] = col
		col++
	}
	return cols
}

func writeTableRows(f *excelize.File, tables []*models.Table) {
	for i, t := range tables {
		cell, _ := excelize.CoordinatesToCellName(1, 3+i)
		_ = f.SetCellValue(sheetName, cell, fmt.Sprintf("Table %d (%d seats, %s)", t.Number, t.Capacity, t.Location))
	}
}

func fillBookings(f *excelize.File, tables []*models.Table, bookings []*models.Booking, dateCols map[string]int) {
	rowByTable := make(map[string]int, len(tables))
	for i, t := range tables {
		rowByTable[t.ID] = 3 + i
	}

	for _, b := range bookings {
		if b.Status != models.StatusConfirmed {
			continue
		}
		row, ok := rowByTable[b.TableID]
		if !ok {
			continue
		}
		col, ok := dateCols[b.DateKey()]
		if !ok {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(col, row)
		entry := fmt.Sprintf("%s-%s (%d)", b.Slot.StartClock(), b.Slot.EndClock(), b.Guests)
		if existing, _ := f.GetCellValue(sheetName, cell); existing != "" {
			entry = existing + "; " + entry
		}
		_ = f.SetCellValue(sheetName, cell, entry)
	}
}
