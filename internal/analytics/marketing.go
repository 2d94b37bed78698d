package analytics

import (
	"sort"

	"github.com/malinka/malinka/internal/filter"
	"github.com/malinka/malinka/internal/store"
)

// Campaign is the effectiveness of one advertising campaign.
type Campaign struct {
	Name        string  `json:"name"`
	Spend       float64 `json:"spend"`
	Revenue     float64 `json:"revenue"`
	Clicks      int64   `json:"clicks"`
	Impressions int64   `json:"impressions"`
	ROMI        float64 `json:"romi"`
	CTR         float64 `json:"ctr"`
}

// Marketing holds the marketing tab results.
type Marketing struct {
	ROMI       float64 `json:"romi"`
	Spend      float64 `json:"spend"`
	Revenue    float64 `json:"revenue"`
	CTR        float64 `json:"ctr"`
	CAC        float64 `json:"cac"`
	Conversion float64 `json:"conversion"`

	ROMITrend    []Group    `json:"romi_trend"`
	Channels     []Group    `json:"channels"`
	Campaigns    []Campaign `json:"campaigns"`
	CACBySegment []Group    `json:"cac_by_segment"`
	Devices      []Group    `json:"devices"`
}

// FilterAds applies the date range, campaigns and categories to ad rows.
// The category comes from the advertised product.
func FilterAds(ds *store.Dataset, f filter.Set) []store.AdRevenue {
	var out []store.AdRevenue
	for _, a := range ds.Ads {
		if !f.InRange(a.Date) || !filter.Match(f.Campaigns, a.CampaignName) {
			continue
		}
		if len(f.Categories) > 0 {
			p, _ := ds.Product(a.ProductID)
			if !filter.Match(f.Categories, p.Category) {
				continue
			}
		}
		out = append(out, a)
	}
	return out
}

type marketingSession struct {
	store.Traffic
	Segment string
}

// marketingTraffic applies the date range on session start, channels,
// devices and segments. Sessions of unknown customers have no segment.
func marketingTraffic(ds *store.Dataset, f filter.Set) []marketingSession {
	var out []marketingSession
	for _, t := range ds.Traffic {
		if !f.InRange(t.SessionStart) ||
			!filter.Match(f.Channels, t.Channel) ||
			!filter.Match(f.Devices, t.Device) {
			continue
		}
		u, _ := ds.User(t.CustomerID)
		if !filter.Match(f.Segments, u.Segment) {
			continue
		}
		out = append(out, marketingSession{Traffic: t, Segment: u.Segment})
	}
	return out
}

// ComputeMarketing calculates the marketing tab.
func ComputeMarketing(ds *store.Dataset, f filter.Set, opts Options) Marketing {
	var out Marketing
	ads := FilterAds(ds, f)

	var spend, revenue float64
	var clicks, impressions int64
	var converted int
	type daily struct{ spend, revenue float64 }
	days := map[string]*daily{}
	campaigns := map[string]*Campaign{}
	for _, a := range ads {
		spend += a.Spend
		revenue += a.Revenue
		clicks += a.Clicks
		impressions += a.Impressions
		if a.Revenue > 0 {
			converted++
		}

		k := a.Date.Format(dayKey)
		if days[k] == nil {
			days[k] = &daily{}
		}
		days[k].spend += a.Spend
		days[k].revenue += a.Revenue

		if a.CampaignName == "" {
			continue
		}
		c := campaigns[a.CampaignName]
		if c == nil {
			c = &Campaign{Name: a.CampaignName}
			campaigns[a.CampaignName] = c
		}
		c.Spend += a.Spend
		c.Revenue += a.Revenue
		c.Clicks += a.Clicks
		c.Impressions += a.Impressions
	}

	out.Spend = Round2(spend)
	out.Revenue = Round2(revenue)
	out.ROMI = romi(revenue, spend)
	out.CTR = percent(float64(clicks), float64(impressions))
	out.Conversion = percent(float64(converted), float64(clicks))

	for k, d := range days {
		if d.spend == 0 {
			continue
		}
		out.ROMITrend = append(out.ROMITrend, Group{Key: k, Value: romi(d.revenue, d.spend)})
	}
	SortGroups(out.ROMITrend, ByKey)

	for _, c := range campaigns {
		c.ROMI = romi(c.Revenue, c.Spend)
		c.CTR = percent(float64(c.Clicks), float64(c.Impressions))
		out.Campaigns = append(out.Campaigns, *c)
	}
	sort.Slice(out.Campaigns, func(i, j int) bool {
		if out.Campaigns[i].ROMI != out.Campaigns[j].ROMI {
			return out.Campaigns[i].ROMI > out.Campaigns[j].ROMI
		}
		return out.Campaigns[i].Name < out.Campaigns[j].Name
	})
	if n := opts.topN(); len(out.Campaigns) > n {
		out.Campaigns = out.Campaigns[:n]
	}

	sessions := marketingTraffic(ds, f)
	customers := distinctSet{}
	channels := newAccumulator()
	devices := newAccumulator()
	segments := newAccumulator()
	for _, s := range sessions {
		customers.add(s.CustomerID)
		channels.addDistinct(s.Channel, s.ID)
		devices.addDistinct(s.Device, s.ID)
		segments.addDistinct(s.Segment, s.CustomerID)
	}
	if len(customers) > 0 {
		out.CAC = Round2(out.Spend / float64(len(customers)))
	}
	out.Channels = channels.distincts()
	SortGroups(out.Channels, ByValueDesc)
	out.Devices = devices.distincts()
	SortGroups(out.Devices, ByValueDesc)

	perSegment := segments.distincts()
	share := ratio(out.Spend, float64(len(perSegment)))
	for i := range perSegment {
		perSegment[i].Value = Round2(ratio(share, perSegment[i].Value))
	}
	SortGroups(perSegment, ByValueAsc)
	out.CACBySegment = perSegment
	return out
}
