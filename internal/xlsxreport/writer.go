// Package xlsxreport renders a vacation summary as an Excel workbook.
package xlsxreport

import (
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"vidalaboral/internal/domain"
)

// Sheet names and labels as they appear in the workbook.
const (
	SummarySheet = "Resumen"
	PeriodsSheet = "Períodos Detallados"
	SourceSheet  = "Situaciones"

	Title         = "RESUMEN DE VACACIONES NO SOLAPADAS"
	TotalLabel    = "Total de días de vacaciones no solapados:"
	CountLabel    = "Número de períodos:"
	TotalRowLabel = "TOTAL:"

	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	FileName    = "vacation_report.xlsx"
)

var periodHeaders = []string{"Fecha Inicio", "Fecha Fin", "Días"}

var sourceHeaders = []string{"Tipo", "Fecha Alta", "Fecha Baja"}

// Build creates the workbook. When periods is non-empty a third sheet lists
// the classified input periods the summary was computed from.
func Build(summary domain.Summary, periods []domain.Period) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName(f.GetSheetName(0), SummarySheet); err != nil {
		return nil, fmt.Errorf("renaming sheet: %w", err)
	}
	if err := writeSummary(f, summary); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("writing %s: %w", SummarySheet, err)
	}
	if err := writePeriods(f, summary); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("writing %s: %w", PeriodsSheet, err)
	}
	if len(periods) > 0 {
		if err := writeSource(f, periods); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("writing %s: %w", SourceSheet, err)
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

// Write builds the workbook and streams it to w.
func Write(w io.Writer, summary domain.Summary, periods []domain.Period) error {
	f, err := Build(summary, periods)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, summary domain.Summary) error {
	titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 16},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}
	labelStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	totalStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		return err
	}
	countStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Size: 14}})
	if err != nil {
		return err
	}

	cells := []struct {
		ref   string
		value interface{}
		style int
	}{
		{"A1", Title, titleStyle},
		{"A3", TotalLabel, labelStyle},
		{"B3", summary.TotalDays, totalStyle},
		{"A4", CountLabel, labelStyle},
		{"B4", len(summary.Segments), countStyle},
	}
	for _, c := range cells {
		if err := f.SetCellValue(SummarySheet, c.ref, c.value); err != nil {
			return err
		}
		if err := f.SetCellStyle(SummarySheet, c.ref, c.ref, c.style); err != nil {
			return err
		}
	}
	if err := f.MergeCell(SummarySheet, "A1", "C1"); err != nil {
		return err
	}
	return fitColumns(f, SummarySheet)
}

func writePeriods(f *excelize.File, summary domain.Summary) error {
	if _, err := f.NewSheet(PeriodsSheet); err != nil {
		return err
	}
	if err := writeHeader(f, PeriodsSheet, periodHeaders); err != nil {
		return err
	}

	for i, seg := range summary.Segments {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(PeriodsSheet, cell, &[]interface{}{seg.Start, seg.End, seg.Days}); err != nil {
			return err
		}
	}

	if len(summary.Segments) > 0 {
		bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			return err
		}
		row := len(summary.Segments) + 3
		label, _ := excelize.CoordinatesToCellName(2, row)
		total, _ := excelize.CoordinatesToCellName(3, row)
		if err := f.SetCellValue(PeriodsSheet, label, TotalRowLabel); err != nil {
			return err
		}
		if err := f.SetCellValue(PeriodsSheet, total, summary.TotalDays); err != nil {
			return err
		}
		if err := f.SetCellStyle(PeriodsSheet, label, total, bold); err != nil {
			return err
		}
	}
	return fitColumns(f, PeriodsSheet)
}

func writeSource(f *excelize.File, periods []domain.Period) error {
	if _, err := f.NewSheet(SourceSheet); err != nil {
		return err
	}
	if err := writeHeader(f, SourceSheet, sourceHeaders); err != nil {
		return err
	}
	for i, p := range periods {
		kind := "Contrato"
		if p.IsVacation {
			kind = "Vacaciones"
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SourceSheet, cell, &[]interface{}{kind, p.Start, p.End}); err != nil {
			return err
		}
	}
	return fitColumns(f, SourceSheet)
}

func writeHeader(f *excelize.File, sheet string, headers []string) error {
	style, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"366092"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}
	row := make([]interface{}, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &row); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	return f.SetCellStyle(sheet, "A1", last, style)
}

// fitColumns sizes each column to its longest value, clamped to [10, 50].
func fitColumns(f *excelize.File, sheet string) error {
	cols, err := f.GetCols(sheet)
	if err != nil {
		return err
	}
	for i, col := range cols {
		longest := 0
		for _, v := range col {
			if n := utf8.RuneCountInString(v); n > longest {
				longest = n
			}
		}
		width := float64(longest + 2)
		if width > 50 {
			width = 50
		}
		if width < 10 {
			width = 10
		}
		name, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, name, name, width); err != nil {
			return err
		}
	}
	return nil
}
