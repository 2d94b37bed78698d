package chart

import (
	"bytes"
	"image/color"
	"strings"
	"testing"

	"github.com/malinka/malinka/internal/analytics"
	"github.com/malinka/malinka/internal/filter"
	"github.com/malinka/malinka/internal/store"
)

func find(t *testing.T, charts []Config, id string) Config {
	t.Helper()
	for _, c := range charts {
		if c.ID == id {
			return c
		}
	}
	t.Fatalf("chart %q not found", id)
	return Config{}
}

func TestFromGroups(t *testing.T) {
	c := FromGroups("x", Pie, "title", "Выручка", []analytics.Group{{Key: "a", Value: 1.234}, {Key: "b", Value: 2}})
	if len(c.Series) != 1 || len(c.Series[0].Data) != 2 {
		t.Fatalf("expected one series of 2 points, got %+v", c.Series)
	}
	if c.Series[0].Data[0].Value != 1.23 {
		t.Errorf("expected rounded value 1.23, got %v", c.Series[0].Data[0].Value)
	}
	if !c.ShowLegend || c.ShowGrid {
		t.Errorf("expected pie with legend and no grid, got %+v", c)
	}
	if c.IsEmpty() {
		t.Error("expected non-empty chart")
	}
}

func TestFromCrossFillsMissingCells(t *testing.T) {
	c := FromCross("x", StackedBar, "title", []analytics.Cross{
		{Row: "email", Col: "loyal", Value: 1},
		{Row: "search", Col: "new", Value: 2},
	})
	if len(c.Series) != 2 {
		t.Fatalf("expected 2 series, got %d", len(c.Series))
	}
	for _, s := range c.Series {
		if len(s.Data) != 2 {
			t.Errorf("expected 2 points in %s, got %d", s.Name, len(s.Data))
		}
	}
	if c.Series[0].Name != "loyal" || c.Series[0].Data[1].Value != 0 {
		t.Errorf("expected zero-filled cell, got %+v", c.Series[0])
	}
	if got := c.Labels(); len(got) != 2 || got[0] != "email" || got[1] != "search" {
		t.Errorf("expected labels [email search], got %v", got)
	}
}

func TestEmptyMessage(t *testing.T) {
	c := FromGroups("x", Bar, "title", "s", nil).with(empty(noData))
	if !c.IsEmpty() || c.Empty != noData {
		t.Errorf("expected empty message, got %q", c.Empty)
	}

	c = FromGroups("x", Bar, "title", "s", []analytics.Group{{Key: "a", Value: 1}}).with(empty(noData))
	if c.Empty != "" {
		t.Errorf("expected empty message cleared, got %q", c.Empty)
	}
}

func TestOverviewCharts(t *testing.T) {
	ds := store.SampleDataset()
	f := filter.Set{Categories: []string{"Аксессуары"}}
	o := analytics.ComputeOverview(ds, f, analytics.DefaultOptions())
	charts := OverviewCharts(o, f, 10)
	if len(charts) != 3 {
		t.Fatalf("expected 3 charts, got %d", len(charts))
	}

	cats := find(t, charts, "categories")
	if !strings.Contains(cats.Title, "Сравнение") {
		t.Errorf("expected comparison title, got %q", cats.Title)
	}
	if !strings.Contains(cats.Subtitle, "Категории: Аксессуары") {
		t.Errorf("expected filter summary subtitle, got %q", cats.Subtitle)
	}

	top := find(t, charts, "top_products")
	if top.Type != HBar || !strings.Contains(top.Title, "в выбранных категориях") {
		t.Errorf("unexpected top products chart %+v", top)
	}
	if trend := find(t, charts, "sales_trend"); trend.Series[0].Color != Accent {
		t.Errorf("expected accent line colour, got %q", trend.Series[0].Color)
	}
}

func TestCustomersChartsEmpty(t *testing.T) {
	ds := store.SampleDataset()
	f := filter.Set{Regions: []string{"Казань"}}
	charts := CustomersCharts(analytics.ComputeCustomers(ds, f), f)
	seg := find(t, charts, "segments")
	if !seg.IsEmpty() || seg.Empty != "Нет данных по сегментам за выбранные фильтры" {
		t.Errorf("unexpected empty segments chart %+v", seg)
	}
}

func TestSegmentColours(t *testing.T) {
	ds := store.SampleDataset()
	charts := CustomersCharts(analytics.ComputeCustomers(ds, filter.Set{}), filter.Set{})
	cross := find(t, charts, "segments_channels")
	for _, s := range cross.Series {
		if s.Color != SegmentColors[s.Name] {
			t.Errorf("expected %s colour %s, got %s", s.Name, SegmentColors[s.Name], s.Color)
		}
	}
	seg := find(t, charts, "segments")
	if seg.Series[0].Data[0].Group != seg.Series[0].Data[0].Label {
		t.Errorf("expected points grouped by label, got %+v", seg.Series[0].Data[0])
	}
}

func TestOperationsCharts(t *testing.T) {
	ds := store.SampleDataset()
	o := analytics.ComputeOperations(ds, analytics.DefaultOptions())
	charts := OperationsCharts(o, 5)
	if len(charts) != 4 {
		t.Fatalf("expected 4 charts, got %d", len(charts))
	}
	low := find(t, charts, "low_stock")
	if low.Title != "⚠️ Топ товаров с запасом < 5 ед." {
		t.Errorf("unexpected title %q", low.Title)
	}
	if len(low.ColorMap) != 2 {
		t.Errorf("expected a colour per category, got %v", low.ColorMap)
	}
	heat := find(t, charts, "stock_heatmap")
	if heat.Type != Heatmap || heat.ShowGrid {
		t.Errorf("unexpected heatmap %+v", heat)
	}
}

func TestRenderPNG(t *testing.T) {
	ds := store.SampleDataset()
	var charts []Config
	charts = append(charts, OverviewCharts(analytics.ComputeOverview(ds, filter.Set{}, analytics.DefaultOptions()), filter.Set{}, 10)...)
	charts = append(charts, CustomersCharts(analytics.ComputeCustomers(ds, filter.Set{}), filter.Set{})...)
	charts = append(charts, OperationsCharts(analytics.ComputeOperations(ds, analytics.DefaultOptions()), 5)...)
	charts = append(charts, FromGroups("empty", Bar, "Пусто", "s", nil).with(empty(noData)))

	for _, c := range charts {
		var buf bytes.Buffer
		if err := RenderPNG(c, 400, 300, &buf); err != nil {
			t.Errorf("%s: unexpected error: %v", c.ID, err)
			continue
		}
		if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
			t.Errorf("%s: expected PNG output", c.ID)
		}
	}
}

func TestShares(t *testing.T) {
	c := FromGroups("x", Pie, "t", "s", []analytics.Group{{Key: "a", Value: 1}, {Key: "b", Value: 3}})
	s := shares(c)
	if s.Series[0].Data[0].Value != 25 || s.Series[0].Data[1].Value != 75 {
		t.Errorf("expected shares 25/75, got %+v", s.Series[0].Data)
	}
	if c.Series[0].Data[0].Value != 1 {
		t.Error("expected source config untouched")
	}
}

func TestParseHex(t *testing.T) {
	if got := parseHex("#8a2be2"); got != (color.RGBA{R: 0x8a, G: 0x2b, B: 0xe2, A: 255}) {
		t.Errorf("unexpected colour %v", got)
	}
	if got := parseHex("nope"); got != (color.Gray{Y: 128}) {
		t.Errorf("expected grey fallback, got %v", got)
	}
}

func TestPlainText(t *testing.T) {
	if got := plainText("⚠️ Топ товаров"); got != "Топ товаров" {
		t.Errorf("expected pictograph stripped, got %q", got)
	}
}
