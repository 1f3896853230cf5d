// Package export renders ledger reports as spreadsheets.
package export

import (
	"fmt"
	"io"

	"profitpath-api/internal/ledger"
	"profitpath-api/internal/service"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	SummarySheet    = "Summary"
	MovementSheet   = "Movements"
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var summaryHeadings = []string{
	"SKU", "Product", "Unit",
	"Opening Qty", "Opening Value",
	"In Qty", "In Value",
	"Out Qty", "Out Value",
	"Adjustment Qty", "Adjustment Value",
	"Closing Qty", "Closing Value",
}

var movementHeadings = []string{
	"SKU", "Product", "Date", "Entry Type", "Direction",
	"Reference", "Quantity", "Value", "Running Balance", "Notes",
}

// Filename is the download name for a year's movement workbook.
func Filename(fy ledger.FinancialYear) string {
	return fmt.Sprintf("movement-history-%s.xlsx", fy)
}

// MovementHistory writes a two sheet workbook: per-product totals and every
// movement with its running balance.
func MovementHistory(w io.Writer, ledgers []service.ProductLedger) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(MovementSheet); err != nil {
		return err
	}

	if err := writeRow(f, SummarySheet, 1, toCells(summaryHeadings)); err != nil {
		return err
	}
	if err := writeRow(f, MovementSheet, 1, toCells(movementHeadings)); err != nil {
		return err
	}

	movementRow := 2
	for i, l := range ledgers {
		err := writeRow(f, SummarySheet, i+2, []interface{}{
			l.SKU, l.Name, l.Unit,
			num(l.OpeningStock), num(l.OpeningValue),
			num(l.TotalIncoming), num(l.TotalIncomingValue),
			num(l.TotalOutgoing), num(l.TotalOutgoingValue),
			num(l.TotalAdjustment), num(l.TotalAdjustmentValue),
			num(l.ClosingStock), num(l.ClosingValue),
		})
		if err != nil {
			return err
		}

		for _, t := range l.Transactions {
			// unvalued rows leave the cell blank
			var value interface{}
			if t.TotalValue.Valid {
				value = num(t.TotalValue.Decimal)
			}
			err := writeRow(f, MovementSheet, movementRow, []interface{}{
				l.SKU, l.Name,
				t.TransactionDate.Format("2006-01-02"),
				string(t.EntryType), string(t.Direction),
				reference(t.ReferenceType, t.ReferenceNumber),
				num(t.Quantity), value, num(t.RunningBalance), t.Notes,
			})
			if err != nil {
				return err
			}
			movementRow++
		}
	}

	_, err := f.WriteTo(w)
	return err
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func toCells(headings []string) []interface{} {
	cells := make([]interface{}, len(headings))
	for i, h := range headings {
		cells[i] = h
	}
	return cells
}

func num(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

func reference[T ~string](kind T, number string) string {
	if number == "" {
		return string(kind)
	}
	return string(kind) + " " + number
}
