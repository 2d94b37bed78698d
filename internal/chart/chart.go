// Package chart describes dashboard charts as data. A Config carries
// everything needed to draw a chart: the browser dashboard draws it from
// JSON and RenderPNG draws it with gonum/plot.
package chart

import (
	"github.com/malinka/malinka/internal/analytics"
)

// Type is a chart kind.
type Type string

// Chart kinds.
const (
	Line       Type = "line"
	Bar        Type = "bar"
	HBar       Type = "hbar"
	Pie        Type = "pie"
	Donut      Type = "donut"
	Heatmap    Type = "heatmap"
	StackedBar Type = "stacked_bar"
)

// Value formats for axis ticks and tooltips.
const (
	FormatCurrency = "currency"
	FormatPercent  = "percent"
	FormatCount    = "count"
	FormatHours    = "hours"
)

// Point is one labelled value. Group, when set, picks the point colour from
// the config's ColorMap.
type Point struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Group string  `json:"group,omitempty"`
}

// Series is a named sequence of points.
type Series struct {
	Name  string  `json:"name"`
	Data  []Point `json:"data"`
	Color string  `json:"color,omitempty"`
}

// Config describes one chart.
type Config struct {
	ID          string            `json:"id"`
	Type        Type              `json:"type"`
	Title       string            `json:"title"`
	Subtitle    string            `json:"subtitle,omitempty"`
	XLabel      string            `json:"x_label,omitempty"`
	YLabel      string            `json:"y_label,omitempty"`
	ValueFormat string            `json:"value_format,omitempty"`
	Series      []Series          `json:"series"`
	Colors      []string          `json:"colors,omitempty"`
	ColorMap    map[string]string `json:"color_map,omitempty"`
	ShowLegend  bool              `json:"show_legend"`
	ShowGrid    bool              `json:"show_grid"`
	// Empty is the message shown instead of the chart when there is nothing
	// to draw.
	Empty string `json:"empty,omitempty"`
}

// IsEmpty reports whether the chart has no points.
func (c *Config) IsEmpty() bool {
	for _, s := range c.Series {
		if len(s.Data) > 0 {
			return false
		}
	}
	return true
}

// Labels returns the point labels of the first series.
func (c *Config) Labels() []string {
	if len(c.Series) == 0 {
		return nil
	}
	out := make([]string, len(c.Series[0].Data))
	for i, p := range c.Series[0].Data {
		out[i] = p.Label
	}
	return out
}

// Palettes.
var (
	// Categorical is the multi-colour palette used by pies and ranked bars.
	Categorical = []string{
		"#FF6B6B", "#4ECDC4", "#45B7D1", "#96CEB4", "#FFEAA7",
		"#DDA0DD", "#98D8C8", "#F7DC6F", "#BB8FCE", "#85C1E9",
	}
	Purple     = []string{"#9370db", "#8a2be2", "#4b0082"}
	Red        = []string{"#FF6B6B", "#FF9999", "#FFCCCC"}
	RedToGreen = []string{"#FF6B6B", "#FF9999", "#96CEB4", "#4ECDC4"}
	Blues      = []string{"#c6dbef", "#6baed6", "#2171b5", "#08306b"}
	Viridis    = []string{"#440154", "#3b528b", "#21918c", "#5ec962", "#fde725"}
	Status     = []string{"#00cc96", "#ef553b"}
	Devices    = []string{"#4ECDC4", "#45B7D1", "#96CEB4"}
	// Accent is the single-series line colour.
	Accent = "#8a2be2"
)

// SegmentColors maps customer segments to fixed colours.
var SegmentColors = map[string]string{
	"new":             "#4ECDC4",
	"returning":       "#45B7D1",
	"loyal":           "#96CEB4",
	"churn_risk":      "#FF6B6B",
	"high_spender":    "#FFEAA7",
	"discount_hunter": "#DDA0DD",
}

// FromGroups builds a single-series config from a distribution.
func FromGroups(id string, typ Type, title, series string, groups []analytics.Group) Config {
	points := make([]Point, 0, len(groups))
	for _, g := range groups {
		points = append(points, Point{Label: g.Key, Value: analytics.Round2(g.Value)})
	}
	return Config{
		ID:         id,
		Type:       typ,
		Title:      title,
		Series:     []Series{{Name: series, Data: points}},
		ShowLegend: typ == Pie || typ == Donut,
		ShowGrid:   typ != Pie && typ != Donut,
	}
}

// FromCross builds a multi-series config from a two-dimensional
// distribution: one series per column value, one point per row value.
// Missing cells are zero.
func FromCross(id string, typ Type, title string, cells []analytics.Cross) Config {
	var rows, cols []string
	seenRow := map[string]bool{}
	seenCol := map[string]bool{}
	value := map[[2]string]float64{}
	for _, c := range cells {
		if !seenRow[c.Row] {
			seenRow[c.Row] = true
			rows = append(rows, c.Row)
		}
		if !seenCol[c.Col] {
			seenCol[c.Col] = true
			cols = append(cols, c.Col)
		}
		value[[2]string{c.Row, c.Col}] += c.Value
	}

	series := make([]Series, 0, len(cols))
	for _, col := range cols {
		points := make([]Point, 0, len(rows))
		for _, row := range rows {
			points = append(points, Point{Label: row, Value: analytics.Round2(value[[2]string{row, col}])})
		}
		series = append(series, Series{Name: col, Data: points})
	}
	return Config{
		ID:         id,
		Type:       typ,
		Title:      title,
		Series:     series,
		ShowLegend: true,
		ShowGrid:   typ != Heatmap,
	}
}

func (c Config) with(opts ...func(*Config)) Config {
	for _, o := range opts {
		o(&c)
	}
	if c.Empty != "" && !c.IsEmpty() {
		c.Empty = ""
	}
	return c
}

func axes(x, y string) func(*Config) {
	return func(c *Config) { c.XLabel, c.YLabel = x, y }
}

func format(f string) func(*Config) {
	return func(c *Config) { c.ValueFormat = f }
}

func palette(colors []string) func(*Config) {
	return func(c *Config) { c.Colors = colors }
}

func colorMap(m map[string]string) func(*Config) {
	return func(c *Config) { c.ColorMap = m }
}

func subtitle(s string) func(*Config) {
	return func(c *Config) { c.Subtitle = s }
}

func empty(msg string) func(*Config) {
	return func(c *Config) { c.Empty = msg }
}

func lineColor(col string) func(*Config) {
	return func(c *Config) {
		for i := range c.Series {
			c.Series[i].Color = col
		}
	}
}
