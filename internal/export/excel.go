// Package export renders booking reports as Excel workbooks.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"ainaru/internal/scheduling"
)

// ExcelWriter abstracts workbook assembly so report layout stays testable
// without excelize.
type ExcelWriter interface {
	AddSheet(name string) error
	WriteHeader(columns []string) error
	WriteRow(row []interface{}) error
	Save(w io.Writer) error
	Close() error
}

// ExcelizeWriter implements ExcelWriter using the excelize library.
type ExcelizeWriter struct {
	file         *excelize.File
	currentSheet string
	currentRow   int
}

// NewExcelizeWriter creates a new Excel writer.
func NewExcelizeWriter() ExcelWriter {
	return &ExcelizeWriter{file: excelize.NewFile()}
}

// AddSheet adds a new sheet with the given name.
func (w *ExcelizeWriter) AddSheet(name string) error {
	// Excel caps sheet names at 31 chars.
	if len(name) > 31 {
		name = name[:31]
	}

	if w.currentSheet == "" {
		w.file.SetSheetName("Sheet1", name)
	} else {
		_, err := w.file.NewSheet(name)
		if err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	w.currentSheet = name
	w.currentRow = 1
	return nil
}

// WriteHeader writes bold column headers to the current sheet.
func (w *ExcelizeWriter) WriteHeader(columns []string) error {
	if w.currentSheet == "" {
		return fmt.Errorf("no active sheet")
	}

	for i, col := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, w.currentRow)
		if err != nil {
			return err
		}
		if err := w.file.SetCellValue(w.currentSheet, cell, col); err != nil {
			return err
		}
	}

	style, err := w.file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err == nil {
		startCell, _ := excelize.CoordinatesToCellName(1, w.currentRow)
		endCell, _ := excelize.CoordinatesToCellName(len(columns), w.currentRow)
		_ = w.file.SetCellStyle(w.currentSheet, startCell, endCell, style)
	}

	w.currentRow++
	return nil
}

// WriteRow writes a data row to the current sheet.
func (w *ExcelizeWriter) WriteRow(row []interface{}) error {
	if w.currentSheet == "" {
		return fmt.Errorf("no active sheet")
	}

	for i, val := range row {
		cell, err := excelize.CoordinatesToCellName(i+1, w.currentRow)
		if err != nil {
			return err
		}
		if err := w.file.SetCellValue(w.currentSheet, cell, val); err != nil {
			return err
		}
	}

	w.currentRow++
	return nil
}

// Save writes the workbook to w.
func (w *ExcelizeWriter) Save(wr io.Writer) error {
	return w.file.Write(wr)
}

// Close releases resources.
func (w *ExcelizeWriter) Close() error {
	return w.file.Close()
}

var reportColumns = []string{
	"Date", "Code", "Time", "Status", "Payment", "Therapist", "Service", "Price", "Notes",
}

// WriteMonthlyReport renders a monthly calendar as one sheet with a row per
// booking, days in chronological order.
func WriteMonthlyReport(w ExcelWriter, cal *scheduling.MonthlyCalendar) error {
	sheet := fmt.Sprintf("%04d-%02d", cal.Year, cal.Month)
	if err := w.AddSheet(sheet); err != nil {
		return err
	}
	if err := w.WriteHeader(reportColumns); err != nil {
		return err
	}

	for _, day := range cal.Days {
		for _, b := range day.Bookings {
			therapist := ""
			if b.TherapistID != nil {
				therapist = fmt.Sprintf("%d", *b.TherapistID)
			}
			row := []interface{}{
				day.Date,
				b.BookingCode,
				b.Interval().Display(),
				b.Status,
				b.PaymentStatus,
				therapist,
				b.ServiceID,
				b.TotalPrice,
				b.Notes,
			}
			if err := w.WriteRow(row); err != nil {
				return err
			}
		}
	}
	return nil
}
