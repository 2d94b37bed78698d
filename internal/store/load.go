package store

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"golang.org/x/crypto/blake2b"
)

var requiredColumns = map[string][]string{
	TableSuppliers:       {"supplier_id", "supplier_name"},
	TableProducts:        {"product_id", "product_name", "category", "price", "supplier_id"},
	TableUserSegments:    {"customer_id", "segment", "region", "registration_date"},
	TableSales:           {"transaction_id", "customer_id", "product_id", "quantity", "payment_method", "transaction_date"},
	TableEvents:          {"event_id", "customer_id", "event_type", "event_timestamp"},
	TableAdRevenue:       {"ad_id", "campaign_name", "product_id", "spend", "revenue", "impressions", "clicks", "date"},
	TableReturns:         {"return_id", "transaction_id", "product_id", "customer_id", "reason"},
	TableTraffic:         {"traffic_id", "customer_id", "channel", "device", "session_start"},
	TableInventory:       {"product_id", "warehouse_id", "stock_quantity", "last_updated"},
	TableCustomerSupport: {"ticket_id", "customer_id", "issue_type", "resolved", "resolution_time_minutes", "support_date"},
}

// RequiredColumns returns the columns a table must carry.
func RequiredColumns(table string) []string {
	return requiredColumns[table]
}

// Load reads and types every table from src. Any unreadable table or
// missing column fails the whole load; bad rows are skipped and counted.
func Load(ctx context.Context, src Source) (*Dataset, error) {
	raws := make(map[string]RawTable, len(Tables))
	for _, table := range Tables {
		raw, err := src.ReadTable(ctx, table)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", table, err)
		}
		raws[table] = raw
	}

	ds, err := fromRaw(raws)
	if err != nil {
		return nil, err
	}
	ds.Source = src.Describe()
	ds.LoadedAt = time.Now()
	ds.Fingerprint = fingerprint(raws)
	return ds, nil
}

func fromRaw(raws map[string]RawTable) (*Dataset, error) {
	ds := &Dataset{Skipped: make(map[string]int, len(Tables))}
	var err error
	var n int

	if ds.Suppliers, n, err = parseTable(TableSuppliers, raws[TableSuppliers], requiredColumns[TableSuppliers], buildSupplier); err != nil {
		return nil, err
	}
	ds.Skipped[TableSuppliers] = n
	if ds.Products, n, err = parseTable(TableProducts, raws[TableProducts], requiredColumns[TableProducts], buildProduct); err != nil {
		return nil, err
	}
	ds.Skipped[TableProducts] = n
	if ds.Users, n, err = parseTable(TableUserSegments, raws[TableUserSegments], requiredColumns[TableUserSegments], buildUserSegment); err != nil {
		return nil, err
	}
	ds.Skipped[TableUserSegments] = n
	if ds.Sales, n, err = parseTable(TableSales, raws[TableSales], requiredColumns[TableSales], buildSale); err != nil {
		return nil, err
	}
	ds.Skipped[TableSales] = n
	if ds.Events, n, err = parseTable(TableEvents, raws[TableEvents], requiredColumns[TableEvents], buildEvent); err != nil {
		return nil, err
	}
	ds.Skipped[TableEvents] = n
	if ds.Ads, n, err = parseTable(TableAdRevenue, raws[TableAdRevenue], requiredColumns[TableAdRevenue], buildAdRevenue); err != nil {
		return nil, err
	}
	ds.Skipped[TableAdRevenue] = n
	if ds.Returns, n, err = parseTable(TableReturns, raws[TableReturns], requiredColumns[TableReturns], buildReturn); err != nil {
		return nil, err
	}
	ds.Skipped[TableReturns] = n
	if ds.Traffic, n, err = parseTable(TableTraffic, raws[TableTraffic], requiredColumns[TableTraffic], buildTraffic); err != nil {
		return nil, err
	}
	ds.Skipped[TableTraffic] = n
	if ds.Inventory, n, err = parseTable(TableInventory, raws[TableInventory], requiredColumns[TableInventory], buildInventory); err != nil {
		return nil, err
	}
	ds.Skipped[TableInventory] = n
	if ds.Support, n, err = parseTable(TableCustomerSupport, raws[TableCustomerSupport], requiredColumns[TableCustomerSupport], buildSupportTicket); err != nil {
		return nil, err
	}
	ds.Skipped[TableCustomerSupport] = n

	ds.buildIndexes()
	return ds, nil
}

// fingerprint hashes the raw content of every table, in load order.
func fingerprint(raws map[string]RawTable) string {
	h, _ := blake2b.New256(nil)
	for _, table := range Tables {
		raw := raws[table]
		fmt.Fprintf(h, "%s\x00%d\x00", table, len(raw.Header))
		for _, c := range raw.Header {
			h.Write([]byte(c))
			h.Write([]byte{0x1f})
		}
		for _, row := range raw.Rows {
			for _, c := range row {
				h.Write([]byte(c))
				h.Write([]byte{0x1f})
			}
			h.Write([]byte{0x1e})
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}
