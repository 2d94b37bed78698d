// Package report prints a rendered dashboard page as terminal tables.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/malinka/malinka/internal/chart"
	"github.com/malinka/malinka/internal/dashboard"
)

var (
	titleColor   = color.New(color.FgCyan, color.Bold)
	sectionColor = color.New(color.FgYellow)
	warnColor    = color.New(color.FgRed)
	mutedColor   = color.New(color.Faint)
)

// Options selects what a report includes.
type Options struct {
	// Charts adds the data of every chart after the KPI cards.
	Charts bool
	// Limit caps the rows printed per chart or table; zero prints all.
	Limit int
}

// Write prints p to out and returns the first write error.
func Write(out io.Writer, p dashboard.Page, opts Options) error {
	ew := &errWriter{w: out}
	var w io.Writer = ew

	titleColor.Fprintf(w, "\n=== %s ===\n", p.Title)
	mutedColor.Fprintln(w, p.Subtitle)
	if p.Summary != "" {
		fmt.Fprintln(w, p.Summary)
	}
	if p.Error != "" {
		warnColor.Fprintln(w, p.Error)
	}
	if p.Fallback {
		warnColor.Fprintln(w, "Внимание: показаны демонстрационные данные")
	}

	for _, s := range p.Sections {
		heading := s.Title
		if heading == "" {
			heading = "Ключевые показатели"
		}
		sectionColor.Fprintf(w, "\n%s\n", heading)
		table := newTable(w, "Показатель", "Значение")
		for _, c := range s.Cards {
			value := c.Value
			if c.Delta != "" {
				value += " (" + c.Delta + ")"
			}
			table.Append([]string{c.Title, value})
		}
		table.Render()
	}

	if opts.Charts {
		for _, c := range p.Charts {
			writeChart(w, c, opts.Limit)
		}
	}

	for _, t := range p.Tables {
		sectionColor.Fprintf(w, "\n%s\n", t.Title)
		if len(t.Rows) == 0 {
			mutedColor.Fprintln(w, "Нет данных")
			continue
		}
		table := newTable(w, t.Columns...)
		for _, r := range limit(t.Rows, opts.Limit) {
			table.Append(r)
		}
		table.Render()
	}

	if p.Notice != "" {
		mutedColor.Fprintf(w, "\n%s\n", p.Notice)
	}
	if ew.err != nil {
		return fmt.Errorf("writing report: %w", ew.err)
	}
	return nil
}

// errWriter remembers the first error and drops every later write.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) Write(b []byte) (int, error) {
	if ew.err != nil {
		return 0, ew.err
	}
	n, err := ew.w.Write(b)
	if err != nil {
		ew.err = err
	}
	return n, err
}

func writeChart(w io.Writer, c chart.Config, n int) {
	sectionColor.Fprintf(w, "\n%s\n", c.Title)
	if c.IsEmpty() {
		mutedColor.Fprintln(w, c.Empty)
		return
	}
	header := []string{""}
	for _, s := range c.Series {
		header = append(header, s.Name)
	}
	table := newTable(w, header...)
	for i, label := range limit(c.Labels(), n) {
		row := []string{label}
		for _, s := range c.Series {
			v := ""
			if i < len(s.Data) {
				v = strconv.FormatFloat(s.Data[i].Value, 'f', -1, 64)
			}
			row = append(row, v)
		}
		table.Append(row)
	}
	table.Render()
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	return table
}

func limit[T any](rows []T, n int) []T {
	if n > 0 && len(rows) > n {
		return rows[:n]
	}
	return rows
}
