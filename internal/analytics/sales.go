package analytics

import (
	"fmt"

	"github.com/malinka/malinka/internal/filter"
	"github.com/malinka/malinka/internal/store"
)

// Sales holds the sales tab results.
type Sales struct {
	TotalRevenue    float64 `json:"total_revenue"`
	Orders          int     `json:"orders"`
	AvgOrderValue   float64 `json:"avg_order_value"`
	Quantity        int64   `json:"quantity"`
	ReturnRate      float64 `json:"return_rate"`
	UniqueCustomers int     `json:"unique_customers"`

	ByRegion        []Group `json:"by_region"`
	BySegment       []Group `json:"by_segment"`
	ByPaymentMethod []Group `json:"by_payment_method"`
	BySupplier      []Group `json:"by_supplier"`
	ByHour          []Group `json:"by_hour"`
	ReturnReasons   []Group `json:"return_reasons"`
}

// SaleRow is a sale joined to its product, supplier and customer. Missing
// references leave the joined fields empty.
type SaleRow struct {
	store.Sale
	ProductName  string
	Category     string
	SupplierName string
	Region       string
	Segment      string
	Revenue      float64
}

// FilterSales joins sales to products, suppliers and users, then applies the
// sales filters. Revenue is zero when the product is unknown.
func FilterSales(ds *store.Dataset, f filter.Set) []SaleRow {
	var out []SaleRow
	for _, s := range ds.Sales {
		if !f.InRange(s.TransactionDate) || !filter.Match(f.PaymentMethods, s.PaymentMethod) {
			continue
		}
		row := SaleRow{Sale: s}
		if p, ok := ds.Product(s.ProductID); ok {
			row.ProductName = p.Name
			row.Category = p.Category
			row.Revenue = float64(s.Quantity) * p.Price
			if sup, ok := ds.Supplier(p.SupplierID); ok {
				row.SupplierName = sup.Name
			}
		}
		if u, ok := ds.User(s.CustomerID); ok {
			row.Region = u.Region
			row.Segment = u.Segment
		}
		if !filter.Match(f.Regions, row.Region) ||
			!filter.Match(f.Categories, row.Category) ||
			!filter.Match(f.Segments, row.Segment) ||
			!filter.Match(f.Suppliers, row.SupplierName) {
			continue
		}
		out = append(out, row)
	}
	return out
}

// FilterReturns applies the sales filters to returns. The date and payment
// method come from the returned sale, so a return of an unknown sale only
// passes when neither is filtered.
func FilterReturns(ds *store.Dataset, f filter.Set) []store.Return {
	var out []store.Return
	for _, r := range ds.Returns {
		sale, ok := ds.Sale(r.TransactionID)
		if f.HasRange() && (!ok || !f.InRange(sale.TransactionDate)) {
			continue
		}
		if !filter.Match(f.PaymentMethods, sale.PaymentMethod) {
			continue
		}
		var category, supplier string
		if p, ok := ds.Product(r.ProductID); ok {
			category = p.Category
			if sup, ok := ds.Supplier(p.SupplierID); ok {
				supplier = sup.Name
			}
		}
		u, _ := ds.User(r.CustomerID)
		if !filter.Match(f.Regions, u.Region) ||
			!filter.Match(f.Categories, category) ||
			!filter.Match(f.Segments, u.Segment) ||
			!filter.Match(f.Suppliers, supplier) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// ComputeSales calculates the sales tab.
func ComputeSales(ds *store.Dataset, f filter.Set, opts Options) Sales {
	var out Sales
	rows := FilterSales(ds, f)

	orders := distinctSet{}
	customers := distinctSet{}
	regions := newAccumulator()
	segments := newAccumulator()
	payments := newAccumulator()
	suppliers := newAccumulator()
	hours := newAccumulator()
	var revenue float64
	for _, r := range rows {
		orders.add(r.TransactionID)
		customers.add(r.CustomerID)
		revenue += r.Revenue
		out.Quantity += r.Quantity
		regions.add(r.Region, r.Revenue)
		segments.add(r.Segment, r.Revenue)
		payments.add(r.PaymentMethod, r.Revenue)
		suppliers.add(r.SupplierName, r.Revenue)
		hours.add(fmt.Sprintf("%02d:00", r.TransactionDate.Hour()), r.Revenue)
	}
	out.TotalRevenue = Round2(revenue)
	out.Orders = len(orders)
	out.UniqueCustomers = len(customers)
	if out.Orders > 0 {
		out.AvgOrderValue = Round2(out.TotalRevenue / float64(out.Orders))
	}

	out.ByRegion = regions.sums()
	SortGroups(out.ByRegion, ByValueDesc)
	out.BySegment = segments.sums()
	SortGroups(out.BySegment, ByValueDesc)
	out.ByPaymentMethod = payments.sums()
	SortGroups(out.ByPaymentMethod, ByValueDesc)
	out.BySupplier = Top(suppliers.sums(), opts.topN())
	out.ByHour = hours.sums()
	SortGroups(out.ByHour, ByKey)

	returned := distinctSet{}
	reasons := newAccumulator()
	for _, r := range FilterReturns(ds, f) {
		returned.add(r.ID)
		reasons.addDistinct(r.Reason, r.ID)
	}
	if out.Orders > 0 {
		out.ReturnRate = percent(float64(len(returned)), float64(out.Orders))
	}
	out.ReturnReasons = reasons.distincts()
	SortGroups(out.ReturnReasons, ByValueDesc)
	return out
}
