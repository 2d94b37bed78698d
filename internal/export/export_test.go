package export

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/malinka/malinka/internal/dashboard"
	"github.com/malinka/malinka/internal/filter"
	"github.com/malinka/malinka/internal/store"
)

func renderTab(t *testing.T, slug string) dashboard.Page {
	t.Helper()
	tab, err := dashboard.NewRegistry(dashboard.DefaultSettings()).Resolve(slug)
	if err != nil {
		t.Fatal(err)
	}
	return tab.Render(store.SampleDataset(), filter.Set{})
}

func TestWriteOperations(t *testing.T) {
	p := renderTab(t, dashboard.SlugOperations)

	var buf bytes.Buffer
	if err := Write(p, &buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader failed: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	want := 1 + len(p.Charts) + len(p.Tables)
	if len(sheets) != want {
		t.Fatalf("expected %d sheets, got %d: %v", want, len(sheets), sheets)
	}
	if sheets[0] != SummarySheet {
		t.Errorf("expected first sheet %s, got %s", SummarySheet, sheets[0])
	}

	if v, _ := f.GetCellValue(SummarySheet, "A1"); v != p.Title {
		t.Errorf("expected title %q, got %q", p.Title, v)
	}
	if v, _ := f.GetCellValue(SummarySheet, "B5"); v != "Уровень доступности" {
		t.Errorf("expected first KPI title, got %q", v)
	}
	if v, _ := f.GetCellValue(SummarySheet, "C5"); v != "66.67%" {
		t.Errorf("expected availability 66.67%%, got %q", v)
	}

	if v, _ := f.GetCellValue("table_low_stock", "A4"); v != "Наушники" {
		t.Errorf("expected lowest stock first, got %q", v)
	}
}

func TestWriteChartSheet(t *testing.T) {
	p := renderTab(t, dashboard.SlugSales)

	var buf bytes.Buffer
	if err := Write(p, &buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if v, _ := f.GetCellValue("chart_payment_methods", "A4"); v != "card" {
		t.Errorf("expected card first, got %q", v)
	}
	if v, _ := f.GetCellValue("chart_payment_methods", "B4"); v != "1500" {
		t.Errorf("expected card revenue 1500, got %q", v)
	}
}

func TestWriteEmptyChart(t *testing.T) {
	tab, _ := dashboard.NewRegistry(dashboard.DefaultSettings()).Resolve(dashboard.SlugCustomers)
	p := tab.Render(store.SampleDataset(), filter.Set{Regions: []string{"Казань"}})

	path := filepath.Join(t.TempDir(), "customers.xlsx")
	if err := SaveAs(p, path); err != nil {
		t.Fatalf("SaveAs failed: %v", err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if v, _ := f.GetCellValue("chart_segments", "A2"); v != "Нет данных по сегментам за выбранные фильтры" {
		t.Errorf("expected empty message, got %q", v)
	}
}

func TestSheetName(t *testing.T) {
	if got := sheetName("table_an_extremely_long_identifier_name"); len([]rune(got)) != 31 {
		t.Errorf("expected 31 characters, got %d", len([]rune(got)))
	}
}
