// Package export writes a rendered dashboard page as an XLSX workbook: one
// sheet with the KPI cards, one per chart with its data, one per table.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/malinka/malinka/internal/chart"
	"github.com/malinka/malinka/internal/dashboard"
)

// SummarySheet is the name of the KPI sheet.
const SummarySheet = "KPI"

// ContentType is the MIME type of the workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Workbook builds the workbook of a page. The caller closes the file.
func Workbook(p dashboard.Page) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		f.Close()
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, err
	}

	w := &sheetWriter{f: f, bold: bold}
	w.summary(p)
	for _, c := range p.Charts {
		w.chart(c)
	}
	for _, t := range p.Tables {
		w.table(t)
	}
	if w.err != nil {
		f.Close()
		return nil, fmt.Errorf("writing %s workbook: %w", p.Tab, w.err)
	}
	return f, nil
}

// Write streams the workbook of a page to out.
func Write(p dashboard.Page, out io.Writer) error {
	f, err := Workbook(p)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(out)
}

// SaveAs writes the workbook of a page to path.
func SaveAs(p dashboard.Page, path string) error {
	f, err := Workbook(p)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.SaveAs(path)
}

// sheetWriter keeps the first error so the sheet builders stay linear.
type sheetWriter struct {
	f    *excelize.File
	bold int
	err  error
}

func (w *sheetWriter) set(sheet string, col, row int, v any) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		w.err = err
		return
	}
	w.err = w.f.SetCellValue(sheet, cell, v)
}

func (w *sheetWriter) header(sheet string, row int, titles ...string) {
	for i, t := range titles {
		w.set(sheet, i+1, row, t)
	}
	if w.err != nil || len(titles) == 0 {
		return
	}
	first, _ := excelize.CoordinatesToCellName(1, row)
	last, _ := excelize.CoordinatesToCellName(len(titles), row)
	w.err = w.f.SetCellStyle(sheet, first, last, w.bold)
	if w.err == nil {
		lastCol, _ := excelize.ColumnNumberToName(len(titles))
		w.err = w.f.SetColWidth(sheet, "A", lastCol, 22)
	}
}

func (w *sheetWriter) newSheet(name string) {
	if w.err != nil {
		return
	}
	_, w.err = w.f.NewSheet(name)
}

func (w *sheetWriter) summary(p dashboard.Page) {
	w.set(SummarySheet, 1, 1, p.Title)
	w.set(SummarySheet, 1, 2, p.Subtitle)
	row := 3
	if p.Summary != "" {
		w.set(SummarySheet, 1, row, p.Summary)
		row++
	}
	row++
	w.header(SummarySheet, row, "Раздел", "Показатель", "Значение")
	for _, s := range p.Sections {
		for _, c := range s.Cards {
			row++
			w.set(SummarySheet, 1, row, s.Title)
			w.set(SummarySheet, 2, row, c.Title)
			w.set(SummarySheet, 3, row, c.Value)
		}
	}
}

// chart writes one row per label and one column per series.
func (w *sheetWriter) chart(c chart.Config) {
	name := sheetName("chart_" + c.ID)
	w.newSheet(name)
	w.set(name, 1, 1, c.Title)
	if c.IsEmpty() {
		w.set(name, 1, 2, c.Empty)
		return
	}

	cols := []string{labelColumn(c)}
	for _, s := range c.Series {
		cols = append(cols, s.Name)
	}
	if len(c.Series) == 1 && hasGroups(c.Series[0]) {
		cols = append(cols, "Группа")
	}
	w.header(name, 3, cols...)

	for i, label := range c.Labels() {
		row := i + 4
		w.set(name, 1, row, label)
		for j, s := range c.Series {
			if i < len(s.Data) {
				w.set(name, j+2, row, s.Data[i].Value)
			}
		}
		if len(c.Series) == 1 && hasGroups(c.Series[0]) {
			w.set(name, 3, row, c.Series[0].Data[i].Group)
		}
	}
}

func (w *sheetWriter) table(t dashboard.Table) {
	name := sheetName("table_" + t.ID)
	w.newSheet(name)
	w.set(name, 1, 1, t.Title)
	w.header(name, 3, t.Columns...)
	for i, r := range t.Rows {
		for j, v := range r {
			w.set(name, j+1, i+4, v)
		}
	}
}

func labelColumn(c chart.Config) string {
	if c.Type == chart.HBar && c.YLabel != "" {
		return c.YLabel
	}
	if c.XLabel != "" {
		return c.XLabel
	}
	return "Категория"
}

func hasGroups(s chart.Series) bool {
	for _, p := range s.Data {
		if p.Group != "" && p.Group != p.Label {
			return true
		}
	}
	return false
}

// sheetName truncates to the 31 characters Excel allows.
func sheetName(s string) string {
	r := []rune(s)
	if len(r) > 31 {
		r = r[:31]
	}
	return string(r)
}
