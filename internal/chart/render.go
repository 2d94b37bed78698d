package chart

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Default PNG size in pixels.
const (
	DefaultWidth  = 960
	DefaultHeight = 540
)

// RenderPNG draws cfg as a PNG of width x height pixels. Pies and donuts are
// drawn as percentage-share bars and heatmaps as grouped bars.
func RenderPNG(cfg Config, width, height int, w io.Writer) error {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}

	p := plot.New()
	p.Title.Text = plainText(cfg.Title)
	if cfg.Subtitle != "" {
		p.Title.Text += "\n" + cfg.Subtitle
	}
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = cfg.XLabel
	p.Y.Label.Text = cfg.YLabel

	var err error
	switch {
	case cfg.IsEmpty():
		msg := cfg.Empty
		if msg == "" {
			msg = noData
		}
		p.Title.Text = msg
		p.HideAxes()
	case cfg.Type == Line:
		err = addLines(p, cfg)
	case cfg.Type == Pie || cfg.Type == Donut:
		err = addBars(p, shares(cfg), false, false)
	case cfg.Type == HBar:
		err = addBars(p, cfg, true, false)
	case cfg.Type == StackedBar:
		err = addBars(p, cfg, false, true)
	default:
		err = addBars(p, cfg, false, false)
	}
	if err != nil {
		return fmt.Errorf("drawing %s: %w", cfg.ID, err)
	}
	if cfg.ShowGrid && !cfg.IsEmpty() {
		p.Add(plotter.NewGrid())
	}

	wt, err := p.WriterTo(pixels(width), pixels(height), "png")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", cfg.ID, err)
	}
	_, err = wt.WriteTo(w)
	return err
}

func pixels(n int) vg.Length {
	return vg.Length(n) * vg.Inch / 96
}

func addLines(p *plot.Plot, cfg Config) error {
	for i, s := range cfg.Series {
		xys := make(plotter.XYs, len(s.Data))
		for j, pt := range s.Data {
			xys[j].X = float64(j)
			xys[j].Y = pt.Value
		}
		line, points, err := plotter.NewLinePoints(xys)
		if err != nil {
			return err
		}
		c := seriesColor(cfg, i, s)
		line.Color = c
		line.Width = vg.Points(2)
		points.Color = c
		points.Shape = draw.CircleGlyph{}
		points.Radius = vg.Points(3)
		p.Add(line, points)
		if cfg.ShowLegend && len(cfg.Series) > 1 {
			p.Legend.Add(s.Name, line)
		}
	}
	p.NominalX(cfg.Labels()...)
	if len(cfg.Labels()) > 8 {
		p.X.Tick.Label.Rotation = math.Pi / 4
		p.X.Tick.Label.XAlign = draw.XRight
	}
	return nil
}

func addBars(p *plot.Plot, cfg Config, horizontal, stacked bool) error {
	n := len(cfg.Series)
	width := vg.Points(20)
	if !stacked && n > 1 {
		width = vg.Points(40 / float64(n))
	}

	var below *plotter.BarChart
	for i, s := range cfg.Series {
		values := make(plotter.Values, len(s.Data))
		for j, pt := range s.Data {
			values[j] = pt.Value
		}
		bars, err := plotter.NewBarChart(values, width)
		if err != nil {
			return err
		}
		bars.Horizontal = horizontal
		bars.LineStyle.Width = vg.Length(0)
		bars.Color = seriesColor(cfg, i, s)
		switch {
		case stacked && below != nil:
			bars.StackOn(below)
		case !stacked && n > 1:
			bars.Offset = vg.Length(float64(i)-float64(n-1)/2) * width
		}
		below = bars
		p.Add(bars)
		if cfg.ShowLegend && n > 1 {
			p.Legend.Add(s.Name, bars)
		}
	}
	p.Legend.Top = true

	labels := cfg.Labels()
	if horizontal {
		p.NominalY(labels...)
		return nil
	}
	p.NominalX(labels...)
	if len(labels) > 6 {
		p.X.Tick.Label.Rotation = math.Pi / 4
		p.X.Tick.Label.XAlign = draw.XRight
	}
	return nil
}

// shares converts a one-series config into percentage shares.
func shares(cfg Config) Config {
	out := cfg
	out.Series = nil
	for _, s := range cfg.Series {
		var total float64
		for _, pt := range s.Data {
			total += pt.Value
		}
		data := make([]Point, len(s.Data))
		for i, pt := range s.Data {
			data[i] = pt
			if total != 0 {
				data[i].Value = math.Round(pt.Value/total*10000) / 100
			}
		}
		out.Series = append(out.Series, Series{Name: s.Name, Data: data, Color: s.Color})
	}
	out.YLabel = "Доля, %"
	return out
}

func seriesColor(cfg Config, i int, s Series) color.Color {
	if s.Color != "" {
		return parseHex(s.Color)
	}
	if len(s.Data) > 0 && s.Data[0].Group != "" {
		if c, ok := cfg.ColorMap[s.Data[0].Group]; ok {
			return parseHex(c)
		}
	}
	if len(cfg.Colors) > 0 {
		return parseHex(cfg.Colors[i%len(cfg.Colors)])
	}
	return parseHex(Categorical[i%len(Categorical)])
}

func parseHex(s string) color.Color {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return color.Gray{Y: 128}
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.Gray{Y: 128}
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
}

// plainText drops pictographs the PNG fonts cannot draw.
func plainText(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.Is(unicode.So, r) || r == '\uFE0F' {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}
