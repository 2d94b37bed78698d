// Package dashboard assembles the five dashboard tabs: their filter options,
// KPI cards, charts and tables.
package dashboard

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/malinka/malinka/internal/analytics"
	"github.com/malinka/malinka/internal/chart"
	"github.com/malinka/malinka/internal/config"
	"github.com/malinka/malinka/internal/filter"
	"github.com/malinka/malinka/internal/kpi"
	"github.com/malinka/malinka/internal/store"
)

// ErrUnknownTab is returned when a slug names no tab.
var ErrUnknownTab = errors.New("unknown tab")

// Tab slugs.
const (
	SlugOverview   = "overview"
	SlugCustomers  = "customers"
	SlugSales      = "sales"
	SlugMarketing  = "marketing"
	SlugOperations = "operations"
)

// Tab is one dashboard page.
type Tab interface {
	Slug() string
	Title() string
	Subtitle() string
	// Options lists the filter widgets of the tab with their choices and
	// default date bounds.
	Options(ds *store.Dataset) Options
	// Render computes the page for the given filters. A nil dataset renders
	// error cards and empty charts.
	Render(ds *store.Dataset, f filter.Set) Page
}

// Field is one multi-select filter widget.
type Field struct {
	Dim    filter.Dim `json:"dim"`
	Label  string     `json:"label"`
	Values []string   `json:"values"`
}

// Options describes the filter panel of a tab. Start and End are the default
// selection; resetting the panel restores them and clears every field.
type Options struct {
	Tab        string    `json:"tab"`
	Filterable bool      `json:"filterable"`
	Message    []string  `json:"message,omitempty"`
	DateLabel  string    `json:"date_label,omitempty"`
	MinDate    time.Time `json:"min_date"`
	MaxDate    time.Time `json:"max_date"`
	Start      string    `json:"start,omitempty"`
	End        string    `json:"end,omitempty"`
	Fields     []Field   `json:"fields,omitempty"`
}

// Table is a tabular block of a page.
type Table struct {
	ID      string     `json:"id"`
	Title   string     `json:"title"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Page is a rendered tab.
type Page struct {
	Tab      string         `json:"tab"`
	Title    string         `json:"title"`
	Subtitle string         `json:"subtitle"`
	Summary  string         `json:"filter_summary,omitempty"`
	Notice   string         `json:"notice,omitempty"`
	Sections []kpi.Section  `json:"sections"`
	Charts   []chart.Config `json:"charts"`
	Tables   []Table        `json:"tables,omitempty"`
	// RefreshSeconds is the client polling interval; zero disables polling.
	RefreshSeconds int `json:"refresh_seconds,omitempty"`

	Source   string    `json:"source"`
	Fallback bool      `json:"fallback"`
	LoadedAt time.Time `json:"loaded_at"`
	Error    string    `json:"error,omitempty"`
}

// Chart returns the chart with the given id.
func (p *Page) Chart(id string) (chart.Config, bool) {
	for _, c := range p.Charts {
		if c.ID == id {
			return c, true
		}
	}
	return chart.Config{}, false
}

// Settings are the tunables shared by every tab.
type Settings struct {
	Year              int
	TopN              int
	LowStockThreshold int
	OverdueHours      int
	RefreshInterval   time.Duration
}

// DefaultSettings mirrors the configuration defaults.
func DefaultSettings() Settings {
	return SettingsFrom(config.Default())
}

// SettingsFrom extracts the tab settings from a configuration.
func SettingsFrom(cfg *config.Config) Settings {
	return Settings{
		Year:              cfg.Dashboard.Year,
		TopN:              cfg.Dashboard.TopN,
		LowStockThreshold: cfg.Operations.LowStockThreshold,
		OverdueHours:      cfg.Operations.OverdueHours,
		RefreshInterval:   cfg.Dashboard.RefreshInterval,
	}
}

func (s Settings) analytics() analytics.Options {
	return analytics.Options{
		Year:              s.Year,
		TopN:              s.TopN,
		LowStockThreshold: s.LowStockThreshold,
		OverdueHours:      s.OverdueHours,
	}
}

// NavItem is an entry of the navigation bar.
type NavItem struct {
	Slug  string `json:"slug"`
	Label string `json:"label"`
	Path  string `json:"path"`
}

// Registry resolves slugs and navigation paths to tabs. Settings may be
// swapped at runtime by a configuration reload.
type Registry struct {
	mu       sync.RWMutex
	settings Settings
	tabs     []Tab
	bySlug   map[string]Tab
}

// NewRegistry creates a registry holding the five tabs.
func NewRegistry(s Settings) *Registry {
	r := &Registry{settings: s}
	r.tabs = []Tab{
		&overviewTab{settings: r.Settings},
		&customersTab{settings: r.Settings},
		&salesTab{settings: r.Settings},
		&marketingTab{settings: r.Settings},
		&operationsTab{settings: r.Settings},
	}
	r.bySlug = make(map[string]Tab, len(r.tabs))
	for _, t := range r.tabs {
		r.bySlug[t.Slug()] = t
	}
	return r
}

// Resolve looks up a tab by slug.
func (r *Registry) Resolve(slug string) (Tab, error) {
	t, ok := r.bySlug[slug]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTab, slug)
	}
	return t, nil
}

// ResolvePath maps a navigation path to a tab. Unknown paths open the
// overview.
func (r *Registry) ResolvePath(path string) Tab {
	slug := strings.Trim(path, "/")
	if t, ok := r.bySlug[slug]; ok {
		return t
	}
	return r.bySlug[SlugOverview]
}

// Tabs returns the tabs in navigation order.
func (r *Registry) Tabs() []Tab {
	return append([]Tab(nil), r.tabs...)
}

// Nav returns the navigation bar entries.
func (r *Registry) Nav() []NavItem {
	out := make([]NavItem, 0, len(r.tabs))
	for _, t := range r.tabs {
		path := "/" + t.Slug()
		if t.Slug() == SlugOverview {
			path = "/"
		}
		out = append(out, NavItem{Slug: t.Slug(), Label: navLabels[t.Slug()], Path: path})
	}
	return out
}

var navLabels = map[string]string{
	SlugOverview:   "📊 Обзор",
	SlugCustomers:  "👥 Клиенты",
	SlugSales:      "💰 Продажи",
	SlugMarketing:  "📢 Маркетинг",
	SlugOperations: "⚙️ Операции",
}

// Settings returns the current settings.
func (r *Registry) Settings() Settings {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.settings
}

// Reload replaces the settings from a new configuration.
func (r *Registry) Reload(cfg *config.Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings = SettingsFrom(cfg)
}

func newPage(t Tab, ds *store.Dataset, f filter.Set) Page {
	p := Page{
		Tab:      t.Slug(),
		Title:    t.Title(),
		Subtitle: t.Subtitle(),
		Summary:  f.Summary(),
	}
	if ds == nil {
		p.Error = "Данные не загружены"
		return p
	}
	p.Source = ds.Source
	p.Fallback = ds.Fallback
	p.LoadedAt = ds.LoadedAt
	return p
}

// failedCards returns one error card per title.
func failedCards(titles ...string) []kpi.Card {
	out := make([]kpi.Card, len(titles))
	for i, t := range titles {
		out[i] = kpi.Failed(t)
	}
	return out
}

// failedCharts marks every chart as failed.
func failedCharts(charts []chart.Config) []chart.Config {
	for i := range charts {
		charts[i].Series = nil
		charts[i].Empty = "Ошибка при загрузке данных"
	}
	return charts
}

var emptyDataset = store.NewDataset(&store.Dataset{})

func orEmpty(ds *store.Dataset) *store.Dataset {
	if ds == nil {
		return emptyDataset
	}
	return ds
}

// distinct returns the sorted distinct non-empty values.
func distinct[T any](rows []T, value func(T) string) []string {
	var groups []analytics.Group
	seen := map[string]bool{}
	for _, r := range rows {
		v := value(r)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		groups = append(groups, analytics.Group{Key: v})
	}
	analytics.SortGroups(groups, analytics.ByKey)
	out := make([]string, len(groups))
	for i, g := range groups {
		out[i] = g.Key
	}
	return out
}

// dateBounds returns the min and max of the given dates, or the reporting
// year when there are none.
func dateBounds[T any](rows []T, date func(T) time.Time, year int) (time.Time, time.Time) {
	var lo, hi time.Time
	for _, r := range rows {
		d := date(r)
		if d.IsZero() {
			continue
		}
		if lo.IsZero() || d.Before(lo) {
			lo = d
		}
		if hi.IsZero() || d.After(hi) {
			hi = d
		}
	}
	if lo.IsZero() {
		return yearBounds(year)
	}
	return lo, hi
}

func yearBounds(year int) (time.Time, time.Time) {
	if year == 0 {
		year = time.Now().Year()
	}
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
}

func withBounds(o Options, lo, hi time.Time) Options {
	o.MinDate, o.MaxDate = lo, hi
	o.Start = lo.Format(filter.DateLayout)
	o.End = hi.Format(filter.DateLayout)
	return o
}

func dateOf(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02.01.2006 15:04")
}
