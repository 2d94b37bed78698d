package analytics

import (
	"sort"
	"time"

	"github.com/malinka/malinka/internal/store"
)

// IssueDeliveryDelay is the issue type counted as a delivery delay.
const IssueDeliveryDelay = "delivery_delay"

// LowStockItem is a product below the low-stock threshold.
type LowStockItem struct {
	ProductID   string    `json:"product_id"`
	Name        string    `json:"product_name"`
	Category    string    `json:"category"`
	Stock       int64     `json:"stock_quantity"`
	LastUpdated time.Time `json:"last_updated"`
}

// WarehouseStat summarizes the latest stock of one warehouse.
type WarehouseStat struct {
	WarehouseID string    `json:"warehouse_id"`
	Products    int       `json:"unique_products"`
	Quantity    int64     `json:"total_quantity"`
	Value       float64   `json:"total_value"`
	LastUpdated time.Time `json:"last_updated"`
}

// SupportStat summarizes tickets of one issue type.
type SupportStat struct {
	IssueType      string  `json:"issue_type"`
	Tickets        int     `json:"ticket_count"`
	AvgHours       float64 `json:"avg_hours"`
	ResolutionRate float64 `json:"resolution_rate"`
}

// Operations holds the operations tab results. It takes no filters.
type Operations struct {
	Availability       float64 `json:"availability"`
	LowStock           int     `json:"low_stock"`
	InventoryValue     float64 `json:"inventory_value"`
	AvgResolutionHours float64 `json:"avg_resolution_hours"`
	ResolvedRate       float64 `json:"resolved_rate"`
	Overdue            int     `json:"overdue"`
	DeliveryDelays     int     `json:"delivery_delays"`

	LowStockProducts []LowStockItem  `json:"low_stock_products"`
	Warehouses       []WarehouseStat `json:"warehouses"`
	SupportByType    []SupportStat   `json:"support_by_type"`
	InventoryUpdated time.Time       `json:"inventory_updated"`
	SupportUpdated   time.Time       `json:"support_updated"`

	// StockHeatmap has Row = warehouse and Col = category.
	StockHeatmap []Cross `json:"stock_heatmap"`
	// ResolutionHours is the mean resolution time per issue type.
	ResolutionHours []Group `json:"resolution_hours"`
	TicketStatus    []Group `json:"ticket_status"`
	// LowStockTop is the top of the low-stock list by remaining stock,
	// with Row = product name and Col = category.
	LowStockTop []Cross `json:"low_stock_top"`
}

// Ticket status labels.
const (
	StatusResolved   = "Решено"
	StatusUnresolved = "Не решено"
)

// LatestInventory returns, for every product, the rows carrying its most
// recent update time.
func LatestInventory(ds *store.Dataset) []store.InventoryRecord {
	latest := make(map[string]time.Time)
	for _, r := range ds.Inventory {
		if t, ok := latest[r.ProductID]; !ok || r.LastUpdated.After(t) {
			latest[r.ProductID] = r.LastUpdated
		}
	}
	var out []store.InventoryRecord
	for _, r := range ds.Inventory {
		if r.LastUpdated.Equal(latest[r.ProductID]) {
			out = append(out, r)
		}
	}
	return out
}

// ComputeOperations calculates the operations tab.
func ComputeOperations(ds *store.Dataset, opts Options) Operations {
	var out Operations
	threshold := int64(opts.LowStockThreshold)
	inv := LatestInventory(ds)

	products := distinctSet{}
	available := distinctSet{}
	low := distinctSet{}
	var value float64
	type whAgg struct {
		products distinctSet
		stat     WarehouseStat
	}
	warehouses := map[string]*whAgg{}
	heat := map[[2]string]float64{}
	lowTop := map[[2]string]int64{}
	for _, r := range inv {
		products.add(r.ProductID)
		if r.StockQuantity > 0 {
			available.add(r.ProductID)
		}
		if r.StockQuantity < threshold {
			low.add(r.ProductID)
		}
		if r.LastUpdated.After(out.InventoryUpdated) {
			out.InventoryUpdated = r.LastUpdated
		}

		p, ok := ds.Product(r.ProductID)
		if !ok {
			continue
		}
		v := float64(r.StockQuantity) * p.Price
		value += v

		if r.WarehouseID != "" {
			w := warehouses[r.WarehouseID]
			if w == nil {
				w = &whAgg{products: distinctSet{}, stat: WarehouseStat{WarehouseID: r.WarehouseID}}
				warehouses[r.WarehouseID] = w
			}
			w.products.add(r.ProductID)
			w.stat.Quantity += r.StockQuantity
			w.stat.Value += v
			if r.LastUpdated.After(w.stat.LastUpdated) {
				w.stat.LastUpdated = r.LastUpdated
			}
			if p.Category != "" {
				heat[[2]string{r.WarehouseID, p.Category}] += float64(r.StockQuantity)
			}
		}

		if r.StockQuantity < threshold {
			out.LowStockProducts = append(out.LowStockProducts, LowStockItem{
				ProductID:   r.ProductID,
				Name:        p.Name,
				Category:    p.Category,
				Stock:       r.StockQuantity,
				LastUpdated: r.LastUpdated,
			})
			if p.Name != "" && p.Category != "" {
				lowTop[[2]string{p.Name, p.Category}] += r.StockQuantity
			}
		}
	}

	out.Availability = percent(float64(len(available)), float64(len(products)))
	out.LowStock = len(low)
	out.InventoryValue = Round2(value)

	sort.SliceStable(out.LowStockProducts, func(i, j int) bool {
		return out.LowStockProducts[i].Stock < out.LowStockProducts[j].Stock
	})

	for _, w := range warehouses {
		w.stat.Products = len(w.products)
		w.stat.Value = Round2(w.stat.Value)
		out.Warehouses = append(out.Warehouses, w.stat)
	}
	sort.Slice(out.Warehouses, func(i, j int) bool {
		return out.Warehouses[i].WarehouseID < out.Warehouses[j].WarehouseID
	})

	for k, v := range heat {
		out.StockHeatmap = append(out.StockHeatmap, Cross{Row: k[0], Col: k[1], Value: v})
	}
	sortCross(out.StockHeatmap)

	for k, v := range lowTop {
		out.LowStockTop = append(out.LowStockTop, Cross{Row: k[0], Col: k[1], Value: float64(v)})
	}
	sort.Slice(out.LowStockTop, func(i, j int) bool {
		a, b := out.LowStockTop[i], out.LowStockTop[j]
		if a.Value != b.Value {
			return a.Value > b.Value
		}
		return a.Row < b.Row
	})
	if n := opts.topN(); len(out.LowStockTop) > n {
		out.LowStockTop = out.LowStockTop[:n]
	}

	computeSupport(ds, opts, &out)
	return out
}

func computeSupport(ds *store.Dataset, opts Options, out *Operations) {
	overdueMinutes := float64(opts.OverdueHours * 60)
	var resolved int
	var resolvedMinutes float64
	type typeAgg struct {
		tickets  int
		minutes  float64
		resolved int
	}
	byType := map[string]*typeAgg{}
	var order []string
	for _, t := range ds.Support {
		if t.Resolved {
			resolved++
			resolvedMinutes += t.ResolutionMinutes
		}
		if t.ResolutionMinutes > overdueMinutes {
			out.Overdue++
		}
		if t.IssueType == IssueDeliveryDelay {
			out.DeliveryDelays++
		}
		if t.SupportDate.After(out.SupportUpdated) {
			out.SupportUpdated = t.SupportDate
		}
		if t.IssueType == "" {
			continue
		}
		a := byType[t.IssueType]
		if a == nil {
			a = &typeAgg{}
			byType[t.IssueType] = a
			order = append(order, t.IssueType)
		}
		a.tickets++
		a.minutes += t.ResolutionMinutes
		if t.Resolved {
			a.resolved++
		}
	}

	if resolved > 0 {
		out.AvgResolutionHours = RoundTo(resolvedMinutes/float64(resolved)/60, 1)
	}
	out.ResolvedRate = percent(float64(resolved), float64(len(ds.Support)))

	sort.Strings(order)
	for _, k := range order {
		a := byType[k]
		hours := a.minutes / float64(a.tickets) / 60
		out.SupportByType = append(out.SupportByType, SupportStat{
			IssueType:      k,
			Tickets:        a.tickets,
			AvgHours:       Round2(hours),
			ResolutionRate: percent(float64(a.resolved), float64(a.tickets)),
		})
		out.ResolutionHours = append(out.ResolutionHours, Group{Key: k, Value: Round2(hours), Count: a.tickets})
	}

	if resolved > 0 {
		out.TicketStatus = append(out.TicketStatus, Group{Key: StatusResolved, Value: float64(resolved), Count: resolved})
	}
	if unresolved := len(ds.Support) - resolved; unresolved > 0 {
		out.TicketStatus = append(out.TicketStatus, Group{Key: StatusUnresolved, Value: float64(unresolved), Count: unresolved})
	}
}

func sortCross(cells []Cross) {
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Row != cells[j].Row {
			return cells[i].Row < cells[j].Row
		}
		return cells[i].Col < cells[j].Col
	})
}
