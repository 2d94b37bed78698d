package analytics

import (
	"github.com/malinka/malinka/internal/filter"
	"github.com/malinka/malinka/internal/store"
)

// OtherCategories labels the bucket of unselected categories.
const OtherCategories = "Другие категории"

// Overview holds the overview tab results.
type Overview struct {
	TotalRevenue  float64 `json:"total_revenue"`
	OrdersCount   int     `json:"orders_count"`
	AvgOrderValue float64 `json:"avg_order_value"`
	ActiveUsers   int     `json:"active_users"`
	AdSpend       float64 `json:"ad_spend"`
	ROMI          float64 `json:"romi"`

	SalesTrend           []Group `json:"sales_trend"`
	CategoryDistribution []Group `json:"category_distribution"`
	// ComparingCategories is set when the distribution contrasts selected
	// categories with the rest of the market.
	ComparingCategories bool    `json:"comparing_categories"`
	TopProducts         []Group `json:"top_products"`
}

type overviewRow struct {
	sale     store.Sale
	product  store.Product
	hasPrice bool
}

// overviewSales applies the overview filters: reporting year, date range,
// regions and categories. Region and category filters drop sales whose user
// or product is unknown.
func overviewSales(ds *store.Dataset, f filter.Set, year int) []overviewRow {
	var rows []overviewRow
	for _, s := range ds.Sales {
		if year != 0 && s.TransactionDate.Year() != year {
			continue
		}
		if !f.InRange(s.TransactionDate) {
			continue
		}
		if len(f.Regions) > 0 {
			u, ok := ds.User(s.CustomerID)
			if !ok || !filter.Match(f.Regions, u.Region) {
				continue
			}
		}
		p, ok := ds.Product(s.ProductID)
		if len(f.Categories) > 0 && (!ok || !filter.Match(f.Categories, p.Category)) {
			continue
		}
		rows = append(rows, overviewRow{sale: s, product: p, hasPrice: ok})
	}
	return rows
}

// ComputeOverview calculates the overview tab.
func ComputeOverview(ds *store.Dataset, f filter.Set, opts Options) Overview {
	var out Overview
	rows := overviewSales(ds, f, opts.Year)

	orders := distinctSet{}
	users := distinctSet{}
	trend := newAccumulator()
	products := newAccumulator()
	var revenue float64
	for _, r := range rows {
		orders.add(r.sale.TransactionID)
		users.add(r.sale.CustomerID)
		if !r.hasPrice {
			continue
		}
		rev := float64(r.sale.Quantity) * r.product.Price
		revenue += rev
		trend.add(r.sale.TransactionDate.Format(dayKey), rev)
		products.add(r.product.Name, rev)
	}
	out.TotalRevenue = Round2(revenue)
	out.OrdersCount = len(orders)
	out.ActiveUsers = len(users)
	if out.OrdersCount > 0 {
		out.AvgOrderValue = Round2(out.TotalRevenue / float64(out.OrdersCount))
	}

	out.SalesTrend = trend.sums()
	SortGroups(out.SalesTrend, ByKey)
	out.TopProducts = Top(products.sums(), opts.topN())

	out.AdSpend, out.ROMI = overviewAds(ds, f)
	out.CategoryDistribution, out.ComparingCategories = categoryDistribution(ds, f, opts.Year)
	return out
}

// overviewAds applies only the date range to ad rows.
func overviewAds(ds *store.Dataset, f filter.Set) (spend, romiPct float64) {
	var revenue float64
	for _, a := range ds.Ads {
		if !f.InRange(a.Date) {
			continue
		}
		spend += a.Spend
		revenue += a.Revenue
	}
	spend = Round2(spend)
	return spend, romi(revenue, spend)
}

// categoryDistribution ignores the category filter so selected categories
// can be compared with the rest.
func categoryDistribution(ds *store.Dataset, f filter.Set, year int) ([]Group, bool) {
	selected := f.Categories
	f.Categories = nil

	acc := newAccumulator()
	for _, r := range overviewSales(ds, f, year) {
		if !r.hasPrice {
			continue
		}
		acc.add(r.product.Category, float64(r.sale.Quantity)*r.product.Price)
	}
	groups := acc.sums()
	SortGroups(groups, ByKey)
	if len(selected) == 0 {
		return groups, false
	}

	var out []Group
	var others float64
	var othersCount int
	for _, g := range groups {
		if filter.Match(selected, g.Key) {
			out = append(out, g)
			continue
		}
		others += g.Value
		othersCount += g.Count
	}
	if others > 0 {
		out = append(out, Group{Key: OtherCategories, Value: others, Count: othersCount})
	}
	return out, true
}
