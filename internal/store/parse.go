package store

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrMissingColumn is returned when a table lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// ErrNotFinite is returned for numeric cells holding NaN or Inf.
var ErrNotFinite = errors.New("value is not a finite number")

var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseDate parses the timestamp layouts found in the exported CSVs.
// Timestamps without a zone are taken as UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "1", "yes", "y":
		return true, nil
	case "false", "f", "0", "no", "n", "":
		return false, nil
	}
	return false, fmt.Errorf("unrecognized boolean %q", s)
}

// rowReader resolves columns by header name for one table.
type rowReader struct {
	idx map[string]int
}

func newRowReader(table string, header []string, required []string) (*rowReader, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}
	var missing []string
	for _, col := range required {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%s: %w: %s", table, ErrMissingColumn, strings.Join(missing, ", "))
	}
	return &rowReader{idx: idx}, nil
}

func (r *rowReader) str(row []string, col string) string {
	i, ok := r.idx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (r *rowReader) float(row []string, col string) (float64, error) {
	s := r.str(row, col)
	if s == "" {
		return 0, nil
	}
	v, err := parseFinite(s)
	if err != nil {
		return 0, fmt.Errorf("column %s: %w", col, err)
	}
	return v, nil
}

func (r *rowReader) int(row []string, col string) (int64, error) {
	s := r.str(row, col)
	if s == "" {
		return 0, nil
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	// Exports sometimes write integer columns as "3.0".
	f, err := parseFinite(s)
	if err != nil {
		return 0, fmt.Errorf("column %s: %w", col, err)
	}
	return int64(f), nil
}

func parseFinite(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q: %w", s, ErrNotFinite)
	}
	return v, nil
}

func (r *rowReader) date(row []string, col string) (time.Time, error) {
	t, err := ParseDate(r.str(row, col))
	if err != nil {
		return time.Time{}, fmt.Errorf("column %s: %w", col, err)
	}
	return t, nil
}

func (r *rowReader) bool(row []string, col string) (bool, error) {
	b, err := parseBool(r.str(row, col))
	if err != nil {
		return false, fmt.Errorf("column %s: %w", col, err)
	}
	return b, nil
}

// parseTable types every row of raw with build. Rows build rejects are
// counted as skipped.
func parseTable[T any](table string, raw RawTable, required []string, build func(r *rowReader, row []string) (T, error)) ([]T, int, error) {
	rr, err := newRowReader(table, raw.Header, required)
	if err != nil {
		return nil, 0, err
	}
	out := make([]T, 0, len(raw.Rows))
	skipped := raw.Malformed
	for _, row := range raw.Rows {
		v, err := build(rr, row)
		if err != nil {
			skipped++
			continue
		}
		out = append(out, v)
	}
	return out, skipped, nil
}

func buildSupplier(r *rowReader, row []string) (Supplier, error) {
	return Supplier{
		ID:   r.str(row, "supplier_id"),
		Name: r.str(row, "supplier_name"),
	}, nil
}

func buildProduct(r *rowReader, row []string) (Product, error) {
	price, err := r.float(row, "price")
	if err != nil {
		return Product{}, err
	}
	return Product{
		ID:         r.str(row, "product_id"),
		Name:       r.str(row, "product_name"),
		Category:   r.str(row, "category"),
		Price:      price,
		SupplierID: r.str(row, "supplier_id"),
	}, nil
}

func buildUserSegment(r *rowReader, row []string) (UserSegment, error) {
	reg, err := r.date(row, "registration_date")
	if err != nil {
		return UserSegment{}, err
	}
	return UserSegment{
		CustomerID:       r.str(row, "customer_id"),
		Segment:          r.str(row, "segment"),
		Region:           r.str(row, "region"),
		RegistrationDate: reg,
	}, nil
}

func buildSale(r *rowReader, row []string) (Sale, error) {
	qty, err := r.int(row, "quantity")
	if err != nil {
		return Sale{}, err
	}
	ts, err := r.date(row, "transaction_date")
	if err != nil {
		return Sale{}, err
	}
	return Sale{
		TransactionID:   r.str(row, "transaction_id"),
		CustomerID:      r.str(row, "customer_id"),
		ProductID:       r.str(row, "product_id"),
		Quantity:        qty,
		PaymentMethod:   r.str(row, "payment_method"),
		TransactionDate: ts,
	}, nil
}

func buildEvent(r *rowReader, row []string) (Event, error) {
	ts, err := r.date(row, "event_timestamp")
	if err != nil {
		return Event{}, err
	}
	return Event{
		ID:         r.str(row, "event_id"),
		CustomerID: r.str(row, "customer_id"),
		Type:       r.str(row, "event_type"),
		Timestamp:  ts,
	}, nil
}

func buildAdRevenue(r *rowReader, row []string) (AdRevenue, error) {
	var (
		ad  AdRevenue
		err error
	)
	if ad.Spend, err = r.float(row, "spend"); err != nil {
		return AdRevenue{}, err
	}
	if ad.Revenue, err = r.float(row, "revenue"); err != nil {
		return AdRevenue{}, err
	}
	if ad.Impressions, err = r.int(row, "impressions"); err != nil {
		return AdRevenue{}, err
	}
	if ad.Clicks, err = r.int(row, "clicks"); err != nil {
		return AdRevenue{}, err
	}
	if ad.Date, err = r.date(row, "date"); err != nil {
		return AdRevenue{}, err
	}
	ad.AdID = r.str(row, "ad_id")
	ad.CampaignName = r.str(row, "campaign_name")
	ad.ProductID = r.str(row, "product_id")
	return ad, nil
}

func buildReturn(r *rowReader, row []string) (Return, error) {
	return Return{
		ID:            r.str(row, "return_id"),
		TransactionID: r.str(row, "transaction_id"),
		ProductID:     r.str(row, "product_id"),
		CustomerID:    r.str(row, "customer_id"),
		Reason:        r.str(row, "reason"),
	}, nil
}

func buildTraffic(r *rowReader, row []string) (Traffic, error) {
	ts, err := r.date(row, "session_start")
	if err != nil {
		return Traffic{}, err
	}
	return Traffic{
		ID:           r.str(row, "traffic_id"),
		CustomerID:   r.str(row, "customer_id"),
		Channel:      r.str(row, "channel"),
		Device:       r.str(row, "device"),
		SessionStart: ts,
	}, nil
}

func buildInventory(r *rowReader, row []string) (InventoryRecord, error) {
	qty, err := r.int(row, "stock_quantity")
	if err != nil {
		return InventoryRecord{}, err
	}
	ts, err := r.date(row, "last_updated")
	if err != nil {
		return InventoryRecord{}, err
	}
	return InventoryRecord{
		ProductID:     r.str(row, "product_id"),
		WarehouseID:   r.str(row, "warehouse_id"),
		StockQuantity: qty,
		LastUpdated:   ts,
	}, nil
}

func buildSupportTicket(r *rowReader, row []string) (SupportTicket, error) {
	resolved, err := r.bool(row, "resolved")
	if err != nil {
		return SupportTicket{}, err
	}
	minutes, err := r.float(row, "resolution_time_minutes")
	if err != nil {
		return SupportTicket{}, err
	}
	ts, err := r.date(row, "support_date")
	if err != nil {
		return SupportTicket{}, err
	}
	return SupportTicket{
		ID:                r.str(row, "ticket_id"),
		CustomerID:        r.str(row, "customer_id"),
		IssueType:         r.str(row, "issue_type"),
		Resolved:          resolved,
		ResolutionMinutes: minutes,
		SupportDate:       ts,
	}, nil
}
