// Package export writes monthly reports to spreadsheet files.
package export

import (
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/Veraticus/expenses/internal/common"
	"github.com/Veraticus/expenses/internal/report"
)

// Column headers of every sheet.
var headers = []string{"Month", "Category", "Vendor", "Time", "Amount"}

const amountFormat = "#,##0.00"

type styles struct {
	header int
	month  int
	total  int
	amount int
}

// WriteXLSX writes one sheet per currency. Each month starts with a row
// holding its total, followed by a total row per category and one row per
// purchase.
func WriteXLSX(w io.Writer, reports map[string]*report.Collection, formatter *report.Formatter) error {
	if len(reports) == 0 {
		return fmt.Errorf("nothing to export: %w", common.ErrNoPurchases)
	}

	currencies := make([]string, 0, len(reports))
	for code := range reports {
		currencies = append(currencies, code)
	}
	sort.Strings(currencies)

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	st, err := newStyles(f)
	if err != nil {
		return err
	}

	for i, code := range currencies {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), code); err != nil {
				return fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(code); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", code, err)
		}

		if err := writeSheet(f, code, reports[code], formatter, st); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func newStyles(f *excelize.File) (styles, error) {
	var st styles
	var err error
	bold := &excelize.Font{Bold: true}
	numFmt := amountFormat

	if st.header, err = f.NewStyle(&excelize.Style{
		Font: bold,
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DDEBF7"}},
	}); err != nil {
		return st, fmt.Errorf("failed to create header style: %w", err)
	}
	if st.month, err = f.NewStyle(&excelize.Style{Font: bold, CustomNumFmt: &numFmt}); err != nil {
		return st, fmt.Errorf("failed to create month style: %w", err)
	}
	if st.total, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Italic: true}, CustomNumFmt: &numFmt}); err != nil {
		return st, fmt.Errorf("failed to create total style: %w", err)
	}
	if st.amount, err = f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt}); err != nil {
		return st, fmt.Errorf("failed to create amount style: %w", err)
	}
	return st, nil
}

func writeSheet(f *excelize.File, sheet string, c *report.Collection, formatter *report.Formatter, st styles) error {
	sw := sheetWriter{f: f, sheet: sheet}

	sw.row(st.header, toAny(headers)...)
	for _, month := range c.Months {
		sw.row(st.month, formatter.MonthTitle(month.Month), "", "", "", month.Total)
		for _, cat := range month.Categories {
			sw.row(st.total, "", cat.Category.Name, "", "", cat.Total)
			for _, e := range cat.Purchases {
				sw.row(st.amount, "", "", e.Vendor.Name, formatter.Timestamp(e.Purchase.Timestamp), e.Purchase.Amount)
			}
		}
	}
	if sw.err != nil {
		return fmt.Errorf("failed to write sheet %s: %w", sheet, sw.err)
	}

	widths := map[string]float64{"A": 16, "B": 18, "C": 28, "D": 32, "E": 14}
	for col, width := range widths {
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return fmt.Errorf("failed to size column %s: %w", col, err)
		}
	}
	return f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

// sheetWriter appends rows and keeps the first error.
type sheetWriter struct {
	err   error
	f     *excelize.File
	sheet string
	next  int
}

func (sw *sheetWriter) row(style int, values ...any) {
	if sw.err != nil {
		return
	}
	sw.next++
	start, err := excelize.CoordinatesToCellName(1, sw.next)
	if err != nil {
		sw.err = err
		return
	}
	if err := sw.f.SetSheetRow(sw.sheet, start, &values); err != nil {
		sw.err = err
		return
	}
	end, err := excelize.CoordinatesToCellName(len(values), sw.next)
	if err != nil {
		sw.err = err
		return
	}
	sw.err = sw.f.SetCellStyle(sw.sheet, start, end, style)
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
