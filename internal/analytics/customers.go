package analytics

import (
	"github.com/malinka/malinka/internal/filter"
	"github.com/malinka/malinka/internal/store"
)

// Customer segments with a dedicated KPI.
const (
	SegmentNew            = "new"
	SegmentLoyal          = "loyal"
	SegmentChurnRisk      = "churn_risk"
	SegmentHighSpender    = "high_spender"
	SegmentDiscountHunter = "discount_hunter"
)

// Cross is one cell of a two-dimensional distribution.
type Cross struct {
	Row   string  `json:"row"`
	Col   string  `json:"col"`
	Value float64 `json:"value"`
}

// Customers holds the customers tab results.
type Customers struct {
	Total          int `json:"total"`
	New            int `json:"new"`
	Loyal          int `json:"loyal"`
	ChurnRisk      int `json:"churn_risk"`
	HighSpender    int `json:"high_spender"`
	DiscountHunter int `json:"discount_hunter"`

	Segments      []Group `json:"segments"`
	Registrations []Group `json:"registrations"`
	Regions       []Group `json:"regions"`
	Channels      []Group `json:"channels"`
	// SegmentsByChannel has Row = channel and Col = segment.
	SegmentsByChannel []Cross `json:"segments_by_channel"`
}

// FilterUsers applies the customers filters to user_segments. The date range
// applies to the registration date. Channel and device selections keep only
// customers with at least one matching session.
func FilterUsers(ds *store.Dataset, f filter.Set) []store.UserSegment {
	var withSession distinctSet
	if len(f.Channels) > 0 || len(f.Devices) > 0 {
		withSession = distinctSet{}
		for _, t := range ds.Traffic {
			if filter.Match(f.Channels, t.Channel) && filter.Match(f.Devices, t.Device) {
				withSession.add(t.CustomerID)
			}
		}
	}

	var out []store.UserSegment
	for _, u := range ds.Users {
		if !f.InRange(u.RegistrationDate) ||
			!filter.Match(f.Regions, u.Region) ||
			!filter.Match(f.Segments, u.Segment) {
			continue
		}
		if withSession != nil {
			if _, ok := withSession[u.CustomerID]; !ok {
				continue
			}
		}
		out = append(out, u)
	}
	return out
}

type customerSession struct {
	session store.Traffic
	user    store.UserSegment
}

// customerTraffic joins sessions to their users and applies every customers
// filter. Sessions of unknown customers are dropped.
func customerTraffic(ds *store.Dataset, f filter.Set) []customerSession {
	var out []customerSession
	for _, t := range ds.Traffic {
		u, ok := ds.User(t.CustomerID)
		if !ok {
			continue
		}
		if !f.InRange(u.RegistrationDate) ||
			!filter.Match(f.Regions, u.Region) ||
			!filter.Match(f.Segments, u.Segment) ||
			!filter.Match(f.Channels, t.Channel) ||
			!filter.Match(f.Devices, t.Device) {
			continue
		}
		out = append(out, customerSession{session: t, user: u})
	}
	return out
}

// ComputeCustomers calculates the customers tab.
func ComputeCustomers(ds *store.Dataset, f filter.Set) Customers {
	var out Customers
	users := FilterUsers(ds, f)

	all := distinctSet{}
	bySegment := map[string]distinctSet{}
	segments := newAccumulator()
	regs := newAccumulator()
	regions := newAccumulator()
	for _, u := range users {
		all.add(u.CustomerID)
		if bySegment[u.Segment] == nil {
			bySegment[u.Segment] = distinctSet{}
		}
		bySegment[u.Segment].add(u.CustomerID)
		segments.addDistinct(u.Segment, u.CustomerID)
		regs.addDistinct(u.RegistrationDate.Format(dayKey), u.CustomerID)
		regions.addDistinct(u.Region, u.CustomerID)
	}
	out.Total = len(all)
	out.New = len(bySegment[SegmentNew])
	out.Loyal = len(bySegment[SegmentLoyal])
	out.ChurnRisk = len(bySegment[SegmentChurnRisk])
	out.HighSpender = len(bySegment[SegmentHighSpender])
	out.DiscountHunter = len(bySegment[SegmentDiscountHunter])

	out.Segments = segments.distincts()
	SortGroups(out.Segments, ByKey)
	out.Registrations = regs.distincts()
	SortGroups(out.Registrations, ByKey)
	out.Regions = regions.distincts()
	SortGroups(out.Regions, ByKey)

	channels := newAccumulator()
	cross := map[[2]string]distinctSet{}
	for _, cs := range customerTraffic(ds, f) {
		channels.addDistinct(cs.session.Channel, cs.user.CustomerID)
		if cs.session.Channel == "" || cs.user.Segment == "" {
			continue
		}
		k := [2]string{cs.session.Channel, cs.user.Segment}
		if cross[k] == nil {
			cross[k] = distinctSet{}
		}
		cross[k].add(cs.user.CustomerID)
	}
	out.Channels = channels.distincts()
	SortGroups(out.Channels, ByKey)

	for k, ids := range cross {
		out.SegmentsByChannel = append(out.SegmentsByChannel, Cross{Row: k[0], Col: k[1], Value: float64(len(ids))})
	}
	sortCross(out.SegmentsByChannel)
	return out
}
