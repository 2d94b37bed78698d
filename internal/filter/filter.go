// Package filter holds the user-selected filter state shared by all tabs.
//
// A Set is a conjunction of optional predicates. An empty list places no
// restriction on its dimension; a non-empty list matches any of its values.
// The date range applies only when both ends are set, and End covers the
// whole end day.
package filter

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"
)

// ErrInvalidRange is returned when a date range is malformed or reversed.
var ErrInvalidRange = errors.New("invalid date range")

// DateLayout is the query-string date format.
const DateLayout = "2006-01-02"

// Dim names a filter dimension. It is also the query parameter name.
type Dim string

// Filter dimensions.
const (
	Period        Dim = "period"
	Region        Dim = "region"
	Category      Dim = "category"
	Segment       Dim = "segment"
	Channel       Dim = "channel"
	Device        Dim = "device"
	PaymentMethod Dim = "payment_method"
	Supplier      Dim = "supplier"
	Campaign      Dim = "campaign"
)

// Set is one filter selection.
type Set struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`

	Regions        []string `json:"regions,omitempty"`
	Categories     []string `json:"categories,omitempty"`
	Segments       []string `json:"segments,omitempty"`
	Channels       []string `json:"channels,omitempty"`
	Devices        []string `json:"devices,omitempty"`
	PaymentMethods []string `json:"payment_methods,omitempty"`
	Suppliers      []string `json:"suppliers,omitempty"`
	Campaigns      []string `json:"campaigns,omitempty"`
}

// Between returns a Set restricted to [start, end].
func Between(start, end time.Time) Set {
	return Set{Start: &start, End: &end}
}

// HasRange reports whether the date range is active.
func (s Set) HasRange() bool {
	return s.Start != nil && s.End != nil
}

// InRange reports whether t falls in the date range. Without an active
// range every time matches.
func (s Set) InRange(t time.Time) bool {
	if !s.HasRange() {
		return true
	}
	start := truncateDay(*s.Start)
	endExclusive := truncateDay(*s.End).AddDate(0, 0, 1)
	return !t.Before(start) && t.Before(endExclusive)
}

// Validate checks the date range.
func (s Set) Validate() error {
	if s.HasRange() && truncateDay(*s.Start).After(truncateDay(*s.End)) {
		return fmt.Errorf("%w: start %s is after end %s", ErrInvalidRange,
			s.Start.Format(DateLayout), s.End.Format(DateLayout))
	}
	return nil
}

// Match reports whether v passes a list filter.
func Match(list []string, v string) bool {
	return len(list) == 0 || slices.Contains(list, v)
}

// Values returns the selected values of a list dimension.
func (s Set) Values(d Dim) []string {
	switch d {
	case Region:
		return s.Regions
	case Category:
		return s.Categories
	case Segment:
		return s.Segments
	case Channel:
		return s.Channels
	case Device:
		return s.Devices
	case PaymentMethod:
		return s.PaymentMethods
	case Supplier:
		return s.Suppliers
	case Campaign:
		return s.Campaigns
	}
	return nil
}

// Only returns a copy of s keeping just the given dimensions. Tabs use it
// to drop selections they do not apply.
func (s Set) Only(dims ...Dim) Set {
	var out Set
	for _, d := range dims {
		switch d {
		case Period:
			out.Start, out.End = s.Start, s.End
		case Region:
			out.Regions = s.Regions
		case Category:
			out.Categories = s.Categories
		case Segment:
			out.Segments = s.Segments
		case Channel:
			out.Channels = s.Channels
		case Device:
			out.Devices = s.Devices
		case PaymentMethod:
			out.PaymentMethods = s.PaymentMethods
		case Supplier:
			out.Suppliers = s.Suppliers
		case Campaign:
			out.Campaigns = s.Campaigns
		}
	}
	return out
}

// Parse reads a Set from query parameters. List parameters may repeat or
// carry comma-separated values.
func Parse(q url.Values) (Set, error) {
	var s Set
	start, err := parseDate(q.Get("start"))
	if err != nil {
		return Set{}, fmt.Errorf("%w: start: %v", ErrInvalidRange, err)
	}
	end, err := parseDate(q.Get("end"))
	if err != nil {
		return Set{}, fmt.Errorf("%w: end: %v", ErrInvalidRange, err)
	}
	s.Start, s.End = start, end

	s.Regions = list(q, Region)
	s.Categories = list(q, Category)
	s.Segments = list(q, Segment)
	s.Channels = list(q, Channel)
	s.Devices = list(q, Device)
	s.PaymentMethods = list(q, PaymentMethod)
	s.Suppliers = list(q, Supplier)
	s.Campaigns = list(q, Campaign)

	if err := s.Validate(); err != nil {
		return Set{}, err
	}
	return s, nil
}

// Query encodes s back into query parameters.
func (s Set) Query() url.Values {
	q := url.Values{}
	if s.Start != nil {
		q.Set("start", s.Start.Format(DateLayout))
	}
	if s.End != nil {
		q.Set("end", s.End.Format(DateLayout))
	}
	for _, d := range []Dim{Region, Category, Segment, Channel, Device, PaymentMethod, Supplier, Campaign} {
		for _, v := range s.Values(d) {
			q.Add(string(d), v)
		}
	}
	return q
}

func parseDate(v string) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func list(q url.Values, d Dim) []string {
	var out []string
	for _, raw := range q[string(d)] {
		for _, v := range strings.Split(raw, ",") {
			v = strings.TrimSpace(v)
			if v != "" && !slices.Contains(out, v) {
				out = append(out, v)
			}
		}
	}
	return out
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
