// Package kpi formats summary metrics as dashboard cards.
package kpi

import (
	"math"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ErrorValue is shown instead of a value when a metric cannot be computed.
const ErrorValue = "Ошибка"

// Delta colours.
const (
	Success = "success"
	Danger  = "danger"
	Muted   = "muted"
)

// Card is one KPI card.
type Card struct {
	Title      string `json:"title"`
	Value      string `json:"value"`
	Delta      string `json:"delta,omitempty"`
	DeltaColor string `json:"delta_color,omitempty"`
}

// Section is a titled row of cards.
type Section struct {
	Title string `json:"title,omitempty"`
	Cards []Card `json:"cards"`
}

var printer = message.NewPrinter(language.English)

// New returns a card with a formatted value.
func New(title, value string) Card {
	return Card{Title: title, Value: value}
}

// WithDelta sets the card delta.
func (c Card) WithDelta(delta, color string) Card {
	if color == "" {
		color = Success
	}
	c.Delta, c.DeltaColor = delta, color
	return c
}

// Failed returns the error card for title.
func Failed(title string) Card {
	return Card{Title: title, Value: ErrorValue, DeltaColor: Danger}
}

// Currency formats v as whole roubles with grouped thousands: 1,234,567 ₽.
func Currency(v float64) string {
	return printer.Sprintf("%.0f", clean(v)) + " ₽"
}

// Int formats n with grouped thousands: 1,234.
func Int[T ~int | ~int64](n T) string {
	return printer.Sprintf("%d", int64(n))
}

// Percent formats an already scaled percentage: 12.5%.
func Percent(v float64) string {
	return short(v) + "%"
}

// Hours formats a duration in hours: 3.2 ч.
func Hours(v float64) string {
	return short(v) + " ч"
}

func short(v float64) string {
	return strconv.FormatFloat(clean(v), 'f', -1, 64)
}

func clean(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v == 0 {
		return 0
	}
	return v
}
