package dashboard

import (
	"errors"
	"testing"
	"time"

	"github.com/malinka/malinka/internal/config"
	"github.com/malinka/malinka/internal/filter"
	"github.com/malinka/malinka/internal/kpi"
	"github.com/malinka/malinka/internal/store"
)

func cardValue(t *testing.T, p Page, title string) string {
	t.Helper()
	for _, s := range p.Sections {
		for _, c := range s.Cards {
			if c.Title == title {
				return c.Value
			}
		}
	}
	t.Fatalf("card %q not found on %s", title, p.Tab)
	return ""
}

func TestResolve(t *testing.T) {
	r := NewRegistry(DefaultSettings())

	tab, err := r.Resolve("sales")
	if err != nil {
		t.Fatalf("Resolve sales failed: %v", err)
	}
	if tab.Slug() != SlugSales {
		t.Errorf("expected sales, got %s", tab.Slug())
	}

	_, err = r.Resolve("finance")
	if !errors.Is(err, ErrUnknownTab) {
		t.Errorf("expected ErrUnknownTab, got %v", err)
	}
}

func TestResolvePath(t *testing.T) {
	r := NewRegistry(DefaultSettings())
	tests := map[string]string{
		"/":            SlugOverview,
		"/customers":   SlugCustomers,
		"/operations/": SlugOperations,
		"/nowhere":     SlugOverview,
		"":             SlugOverview,
	}
	for path, want := range tests {
		if got := r.ResolvePath(path).Slug(); got != want {
			t.Errorf("%q: expected %s, got %s", path, want, got)
		}
	}
}

func TestNav(t *testing.T) {
	nav := NewRegistry(DefaultSettings()).Nav()
	if len(nav) != 5 {
		t.Fatalf("expected 5 nav items, got %d", len(nav))
	}
	if nav[0].Path != "/" || nav[4].Path != "/operations" {
		t.Errorf("unexpected paths %+v", nav)
	}
	if nav[1].Label != "👥 Клиенты" {
		t.Errorf("unexpected label %q", nav[1].Label)
	}
}

func TestReloadSettings(t *testing.T) {
	r := NewRegistry(DefaultSettings())
	cfg := config.Default()
	cfg.Operations.OverdueHours = 48
	cfg.Dashboard.RefreshInterval = 10 * time.Second
	r.Reload(cfg)

	tab, _ := r.Resolve(SlugOperations)
	p := tab.Render(store.SampleDataset(), filter.Set{})
	if p.RefreshSeconds != 10 {
		t.Errorf("expected 10s refresh, got %d", p.RefreshSeconds)
	}
	if v := cardValue(t, p, "Просрочено >48ч"); v != "0" {
		t.Errorf("expected no tickets over 48h, got %s", v)
	}
}

func TestRenderTabs(t *testing.T) {
	r := NewRegistry(DefaultSettings())
	ds := store.SampleDataset()

	charts := map[string]int{
		SlugOverview:   3,
		SlugCustomers:  5,
		SlugSales:      6,
		SlugMarketing:  6,
		SlugOperations: 4,
	}
	for _, tab := range r.Tabs() {
		p := tab.Render(ds, filter.Set{})
		if p.Tab != tab.Slug() || p.Title != tab.Title() {
			t.Errorf("%s: unexpected header %q", tab.Slug(), p.Title)
		}
		if len(p.Charts) != charts[tab.Slug()] {
			t.Errorf("%s: expected %d charts, got %d", tab.Slug(), charts[tab.Slug()], len(p.Charts))
		}
		if !p.Fallback || p.Source != "sample" {
			t.Errorf("%s: expected sample source, got %q", tab.Slug(), p.Source)
		}
	}

	overview, _ := r.Resolve(SlugOverview)
	p := overview.Render(ds, filter.Set{})
	if v := cardValue(t, p, "Общий доход"); v != "1,700 ₽" {
		t.Errorf("expected 1,700 ₽, got %s", v)
	}
	if v := cardValue(t, p, "ROMI"); v != "333.33%" {
		t.Errorf("expected 333.33%%, got %s", v)
	}

	ops, _ := r.Resolve(SlugOperations)
	p = ops.Render(ds, filter.Set{})
	if len(p.Sections) != 2 || len(p.Sections[0].Cards) != 3 || len(p.Sections[1].Cards) != 4 {
		t.Errorf("unexpected operations sections %+v", p.Sections)
	}
	if v := cardValue(t, p, "Время решения"); v != "2 ч" {
		t.Errorf("expected 2 ч, got %s", v)
	}
	if p.RefreshSeconds != 30 || p.Notice != "Данные обновляются каждые 30 секунд" {
		t.Errorf("unexpected refresh %d %q", p.RefreshSeconds, p.Notice)
	}
	if len(p.Tables) != 4 || len(p.Tables[0].Rows) != 2 {
		t.Errorf("unexpected operations tables %+v", p.Tables)
	}
}

func TestOperationsCardDeltas(t *testing.T) {
	r := NewRegistry(DefaultSettings())
	ops, _ := r.Resolve(SlugOperations)
	p := ops.Render(store.SampleDataset(), filter.Set{})

	cards := map[string]kpi.Card{}
	for _, s := range p.Sections {
		for _, c := range s.Cards {
			cards[c.Title] = c
		}
	}
	low := cards["Товары с дефицитом"]
	if low.Delta != "остаток < 5 шт." || low.DeltaColor != kpi.Muted {
		t.Errorf("unexpected low stock delta %+v", low)
	}
	overdue := cards["Просрочено >24ч"]
	wantColor := kpi.Success
	if overdue.Value != "0" {
		wantColor = kpi.Danger
	}
	if overdue.DeltaColor != wantColor {
		t.Errorf("expected overdue delta color %s, got %+v", wantColor, overdue)
	}

	if c := overdueCard("x", 3); c.DeltaColor != kpi.Danger || c.Value != "3" {
		t.Errorf("expected danger card for overdue tickets, got %+v", c)
	}
	if c := overdueCard("x", 0); c.DeltaColor != kpi.Success {
		t.Errorf("expected success card without overdue tickets, got %+v", c)
	}
}

func TestRenderIgnoresForeignFilters(t *testing.T) {
	r := NewRegistry(DefaultSettings())
	ds := store.SampleDataset()
	tab, _ := r.Resolve(SlugOverview)

	p := tab.Render(ds, filter.Set{PaymentMethods: []string{"cash"}})
	if v := cardValue(t, p, "Общий доход"); v != "1,700 ₽" {
		t.Errorf("expected payment filter ignored on overview, got %s", v)
	}
	if p.Summary != "" {
		t.Errorf("expected empty summary, got %q", p.Summary)
	}

	sales, _ := r.Resolve(SlugSales)
	p = sales.Render(ds, filter.Set{PaymentMethods: []string{"cash"}})
	if v := cardValue(t, p, "💰 Общая выручка"); v != "200 ₽" {
		t.Errorf("expected cash revenue 200 ₽, got %s", v)
	}
}

func TestRenderWithoutData(t *testing.T) {
	r := NewRegistry(DefaultSettings())
	for _, tab := range r.Tabs() {
		p := tab.Render(nil, filter.Set{})
		if p.Error == "" {
			t.Errorf("%s: expected an error message", tab.Slug())
		}
		for _, s := range p.Sections {
			for _, c := range s.Cards {
				if c.Value != kpi.ErrorValue {
					t.Errorf("%s: expected error card, got %+v", tab.Slug(), c)
				}
			}
		}
		for _, c := range p.Charts {
			if !c.IsEmpty() || c.Empty == "" {
				t.Errorf("%s: expected empty chart %s", tab.Slug(), c.ID)
			}
		}
	}
}

func TestOptions(t *testing.T) {
	r := NewRegistry(DefaultSettings())
	ds := store.SampleDataset()

	overview, _ := r.Resolve(SlugOverview)
	o := overview.Options(ds)
	if o.Start != "2025-01-01" || o.End != "2025-12-31" {
		t.Errorf("expected reporting year bounds, got %s..%s", o.Start, o.End)
	}
	if len(o.Fields) != 2 || len(o.Fields[1].Values) != 2 || o.Fields[1].Values[0] != "Аксессуары" {
		t.Errorf("unexpected overview fields %+v", o.Fields)
	}

	customers, _ := r.Resolve(SlugCustomers)
	o = customers.Options(ds)
	if o.Start != "2024-12-01" || o.End != "2024-12-03" {
		t.Errorf("expected registration bounds, got %s..%s", o.Start, o.End)
	}

	sales, _ := r.Resolve(SlugSales)
	o = sales.Options(ds)
	if o.Start != "2025-01-01" || o.End != "2025-01-03" {
		t.Errorf("expected transaction bounds, got %s..%s", o.Start, o.End)
	}

	marketing, _ := r.Resolve(SlugMarketing)
	o = marketing.Options(store.NewDataset(&store.Dataset{}))
	if o.Start != "2025-01-01" || o.End != "2025-12-31" {
		t.Errorf("expected year fallback, got %s..%s", o.Start, o.End)
	}

	ops, _ := r.Resolve(SlugOperations)
	o = ops.Options(ds)
	if o.Filterable || len(o.Message) == 0 {
		t.Errorf("expected operations without filters, got %+v", o)
	}
}

func TestPageChart(t *testing.T) {
	tab, _ := NewRegistry(DefaultSettings()).Resolve(SlugSales)
	p := tab.Render(store.SampleDataset(), filter.Set{})
	if _, ok := p.Chart("hourly"); !ok {
		t.Error("expected hourly chart")
	}
	if _, ok := p.Chart("nope"); ok {
		t.Error("expected missing chart")
	}
}
