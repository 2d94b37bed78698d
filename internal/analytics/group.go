// Package analytics computes the KPIs and grouped distributions behind each
// dashboard tab. Every calculator reads an immutable store.Dataset and a
// filter.Set and returns plain result structs; nothing here mutates the
// dataset, so calculators may run concurrently on one snapshot.
package analytics

import (
	"math"
	"sort"
)

// Group is one aggregated bucket of a distribution.
type Group struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
	Count int     `json:"count"`
}

// Sort orders for distributions.
const (
	ByKey       = "key_asc"
	ByValueDesc = "value_desc"
	ByValueAsc  = "value_asc"
)

// Options tunes the calculators.
type Options struct {
	// Year restricts overview sales to one calendar year; 0 disables it.
	Year              int
	TopN              int
	LowStockThreshold int
	OverdueHours      int
}

// DefaultOptions returns the reporting defaults.
func DefaultOptions() Options {
	return Options{Year: 2025, TopN: 10, LowStockThreshold: 5, OverdueHours: 24}
}

func (o Options) topN() int {
	if o.TopN <= 0 {
		return 10
	}
	return o.TopN
}

type bucket struct {
	sum      float64
	n        int
	distinct map[string]struct{}
}

// accumulator groups values by key, keeping first-seen key order. Empty keys
// are dropped.
type accumulator struct {
	order   []string
	buckets map[string]*bucket
}

func newAccumulator() *accumulator {
	return &accumulator{buckets: make(map[string]*bucket)}
}

func (a *accumulator) get(key string) *bucket {
	b, ok := a.buckets[key]
	if !ok {
		b = &bucket{}
		a.buckets[key] = b
		a.order = append(a.order, key)
	}
	return b
}

func (a *accumulator) add(key string, v float64) {
	if key == "" {
		return
	}
	b := a.get(key)
	b.sum += v
	b.n++
}

func (a *accumulator) addDistinct(key, id string) {
	if key == "" {
		return
	}
	b := a.get(key)
	b.n++
	if b.distinct == nil {
		b.distinct = make(map[string]struct{})
	}
	b.distinct[id] = struct{}{}
}

func (a *accumulator) collect(value func(b *bucket) float64) []Group {
	out := make([]Group, 0, len(a.order))
	for _, k := range a.order {
		b := a.buckets[k]
		out = append(out, Group{Key: k, Value: value(b), Count: b.n})
	}
	return out
}

// sums returns the per-key sums.
func (a *accumulator) sums() []Group {
	return a.collect(func(b *bucket) float64 { return b.sum })
}

// means returns the per-key means.
func (a *accumulator) means() []Group {
	return a.collect(func(b *bucket) float64 { return b.sum / float64(b.n) })
}

// distincts returns the per-key distinct id counts.
func (a *accumulator) distincts() []Group {
	return a.collect(func(b *bucket) float64 { return float64(len(b.distinct)) })
}

// SortGroups orders groups in place. Value orders break ties by key so
// results are deterministic.
func SortGroups(groups []Group, order string) {
	switch order {
	case ByKey:
		sort.SliceStable(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })
	case ByValueDesc:
		sort.SliceStable(groups, func(i, j int) bool {
			if groups[i].Value != groups[j].Value {
				return groups[i].Value > groups[j].Value
			}
			return groups[i].Key < groups[j].Key
		})
	case ByValueAsc:
		sort.SliceStable(groups, func(i, j int) bool {
			if groups[i].Value != groups[j].Value {
				return groups[i].Value < groups[j].Value
			}
			return groups[i].Key < groups[j].Key
		})
	}
}

// Top returns the n largest groups by value, descending.
func Top(groups []Group, n int) []Group {
	SortGroups(groups, ByValueDesc)
	if n > 0 && len(groups) > n {
		groups = groups[:n]
	}
	return groups
}

// Total sums group values.
func Total(groups []Group) float64 {
	var t float64
	for _, g := range groups {
		t += g.Value
	}
	return t
}

type distinctSet map[string]struct{}

func (d distinctSet) add(id string) { d[id] = struct{}{} }

// RoundTo rounds v to the given number of decimal places.
func RoundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// Round2 rounds to 2 decimal places.
func Round2(v float64) float64 {
	return RoundTo(v, 2)
}

// ratio returns num/den, or 0 when den is 0.
func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// percent returns num/den*100 rounded to 2 places, or 0 when den is 0.
func percent(num, den float64) float64 {
	return Round2(ratio(num, den) * 100)
}

// romi returns (revenue-spend)/spend*100 rounded to 2 places, or 0 without
// spend.
func romi(revenue, spend float64) float64 {
	if spend <= 0 {
		return 0
	}
	return Round2((revenue - spend) / spend * 100)
}

const dayKey = "2006-01-02"
