package kpi

import (
	"math"
	"testing"
)

func TestFormats(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{Currency(1234567.4), "1,234,567 ₽"},
		{Currency(566.67), "567 ₽"},
		{Currency(0), "0 ₽"},
		{Currency(math.NaN()), "0 ₽"},
		{Int(1234), "1,234"},
		{Int(int64(7)), "7"},
		{Percent(12.5), "12.5%"},
		{Percent(333.33), "333.33%"},
		{Percent(50), "50%"},
		{Percent(math.Inf(1)), "0%"},
		{Hours(3.2), "3.2 ч"},
		{Hours(0), "0 ч"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, tt.got)
		}
	}
}

func TestCards(t *testing.T) {
	c := New("ROMI", Percent(10)).WithDelta("+2%", "")
	if c.DeltaColor != Success || c.Delta != "+2%" {
		t.Errorf("expected success delta, got %+v", c)
	}

	f := Failed("ROMI")
	if f.Value != ErrorValue || f.Title != "ROMI" {
		t.Errorf("unexpected error card %+v", f)
	}
}
