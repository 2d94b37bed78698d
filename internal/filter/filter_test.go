package filter

import (
	"errors"
	"net/url"
	"reflect"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParse(t *testing.T) {
	q := url.Values{
		"start":          {"2025-01-02"},
		"end":            {"2025-01-31"},
		"region":         {"Москва,Казань", "Москва"},
		"payment_method": {"card"},
		"campaign":       {" Весна ", ""},
	}
	s, err := Parse(q)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !s.HasRange() {
		t.Fatal("expected active range")
	}
	if !s.Start.Equal(date(2025, 1, 2)) || !s.End.Equal(date(2025, 1, 31)) {
		t.Errorf("unexpected range %v - %v", s.Start, s.End)
	}
	if !reflect.DeepEqual(s.Regions, []string{"Москва", "Казань"}) {
		t.Errorf("expected deduplicated regions, got %v", s.Regions)
	}
	if !reflect.DeepEqual(s.PaymentMethods, []string{"card"}) {
		t.Errorf("expected [card], got %v", s.PaymentMethods)
	}
	if !reflect.DeepEqual(s.Campaigns, []string{"Весна"}) {
		t.Errorf("expected trimmed campaign, got %v", s.Campaigns)
	}
	if s.Segments != nil {
		t.Errorf("expected no segments, got %v", s.Segments)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		q    url.Values
	}{
		{"bad start", url.Values{"start": {"01.02.2025"}}},
		{"bad end", url.Values{"end": {"2025-13-01"}}},
		{"reversed", url.Values{"start": {"2025-02-01"}, "end": {"2025-01-01"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.q)
			if !errors.Is(err, ErrInvalidRange) {
				t.Errorf("expected ErrInvalidRange, got %v", err)
			}
		})
	}
}

func TestInRange(t *testing.T) {
	s := Between(date(2025, 1, 1), date(2025, 1, 31))

	if !s.InRange(time.Date(2025, 1, 31, 23, 59, 0, 0, time.UTC)) {
		t.Error("expected the last minute of the end day to match")
	}
	if s.InRange(date(2025, 2, 1)) {
		t.Error("expected the day after end to be excluded")
	}
	if s.InRange(time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC)) {
		t.Error("expected the day before start to be excluded")
	}

	start := date(2025, 1, 1)
	half := Set{Start: &start}
	if !half.InRange(date(2020, 1, 1)) {
		t.Error("expected a half-open range to place no restriction")
	}
}

func TestMatch(t *testing.T) {
	if !Match(nil, "x") {
		t.Error("expected empty list to match everything")
	}
	if !Match([]string{"a", "b"}, "b") {
		t.Error("expected member to match")
	}
	if Match([]string{"a"}, "b") {
		t.Error("expected non-member to fail")
	}
}

func TestOnly(t *testing.T) {
	s := Between(date(2025, 1, 1), date(2025, 1, 2))
	s.Regions = []string{"Москва"}
	s.Channels = []string{"email"}

	got := s.Only(Period, Region)
	if !got.HasRange() || len(got.Regions) != 1 {
		t.Errorf("expected period and region kept, got %+v", got)
	}
	if got.Channels != nil {
		t.Errorf("expected channels dropped, got %v", got.Channels)
	}
}

func TestQueryRoundTrip(t *testing.T) {
	s := Between(date(2025, 3, 1), date(2025, 3, 5))
	s.Devices = []string{"mobile", "desktop"}

	got, err := Parse(s.Query())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !got.Start.Equal(*s.Start) || !reflect.DeepEqual(got.Devices, s.Devices) {
		t.Errorf("expected %+v, got %+v", s, got)
	}
}

func TestSummary(t *testing.T) {
	s := Between(date(2025, 1, 2), date(2025, 1, 31))
	s.Regions = []string{"A", "B", "C"}
	s.PaymentMethods = []string{"card", "cash", "sbp"}
	s.Suppliers = []string{"X"}

	got := s.Summary(Period, Region, Category, Segment, PaymentMethod, Supplier)
	want := "Период: 02.01.2025 - 31.01.2025 | Регионы: A, B... | Оплата: card, cash, sbp | Поставщики: X"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	if (Set{}).Summary() != "" {
		t.Error("expected empty summary without filters")
	}

	devices := Set{Devices: []string{"a", "b", "c"}, Channels: []string{"x", "y", "z"}}
	if got := devices.Summary(Channel, Device); got != "Каналы: x, y... | Устройства: a, b, c" {
		t.Errorf("unexpected summary %q", got)
	}
}
