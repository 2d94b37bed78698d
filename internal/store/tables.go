package store

import "time"

// Table names. They double as CSV file stems and SQL table names.
const (
	TableSuppliers       = "suppliers"
	TableProducts        = "products"
	TableUserSegments    = "user_segments"
	TableSales           = "sales"
	TableEvents          = "events"
	TableAdRevenue       = "ad_revenue"
	TableReturns         = "returns"
	TableTraffic         = "traffic"
	TableInventory       = "inventory"
	TableCustomerSupport = "customer_support"
)

// Tables lists every table in load order.
var Tables = []string{
	TableSuppliers,
	TableProducts,
	TableUserSegments,
	TableSales,
	TableEvents,
	TableAdRevenue,
	TableReturns,
	TableTraffic,
	TableInventory,
	TableCustomerSupport,
}

// IsTable reports whether name is one of the known tables.
func IsTable(name string) bool {
	for _, t := range Tables {
		if t == name {
			return true
		}
	}
	return false
}

// Supplier is a row of suppliers.csv.
type Supplier struct {
	ID   string `json:"supplier_id"`
	Name string `json:"supplier_name"`
}

// Product is a row of products.csv.
type Product struct {
	ID         string  `json:"product_id"`
	Name       string  `json:"product_name"`
	Category   string  `json:"category"`
	Price      float64 `json:"price"`
	SupplierID string  `json:"supplier_id"`
}

// UserSegment is a row of user_segments.csv.
type UserSegment struct {
	CustomerID       string    `json:"customer_id"`
	Segment          string    `json:"segment"`
	Region           string    `json:"region"`
	RegistrationDate time.Time `json:"registration_date"`
}

// Sale is a row of sales.csv.
type Sale struct {
	TransactionID   string    `json:"transaction_id"`
	CustomerID      string    `json:"customer_id"`
	ProductID       string    `json:"product_id"`
	Quantity        int64     `json:"quantity"`
	PaymentMethod   string    `json:"payment_method"`
	TransactionDate time.Time `json:"transaction_date"`
}

// Event is a row of events.csv.
type Event struct {
	ID         string    `json:"event_id"`
	CustomerID string    `json:"customer_id"`
	Type       string    `json:"event_type"`
	Timestamp  time.Time `json:"event_timestamp"`
}

// AdRevenue is a row of ad_revenue.csv.
type AdRevenue struct {
	AdID         string    `json:"ad_id"`
	CampaignName string    `json:"campaign_name"`
	ProductID    string    `json:"product_id"`
	Spend        float64   `json:"spend"`
	Revenue      float64   `json:"revenue"`
	Impressions  int64     `json:"impressions"`
	Clicks       int64     `json:"clicks"`
	Date         time.Time `json:"date"`
}

// Return is a row of returns.csv.
type Return struct {
	ID            string `json:"return_id"`
	TransactionID string `json:"transaction_id"`
	ProductID     string `json:"product_id"`
	CustomerID    string `json:"customer_id"`
	Reason        string `json:"reason"`
}

// Traffic is a row of traffic.csv: one session.
type Traffic struct {
	ID           string    `json:"traffic_id"`
	CustomerID   string    `json:"customer_id"`
	Channel      string    `json:"channel"`
	Device       string    `json:"device"`
	SessionStart time.Time `json:"session_start"`
}

// InventoryRecord is a row of inventory.csv: a stock snapshot of one product
// in one warehouse.
type InventoryRecord struct {
	ProductID     string    `json:"product_id"`
	WarehouseID   string    `json:"warehouse_id"`
	StockQuantity int64     `json:"stock_quantity"`
	LastUpdated   time.Time `json:"last_updated"`
}

// SupportTicket is a row of customer_support.csv.
type SupportTicket struct {
	ID                string    `json:"ticket_id"`
	CustomerID        string    `json:"customer_id"`
	IssueType         string    `json:"issue_type"`
	Resolved          bool      `json:"resolved"`
	ResolutionMinutes float64   `json:"resolution_time_minutes"`
	SupportDate       time.Time `json:"support_date"`
}

// Dataset is an immutable snapshot of all tables. Calculations only read it,
// so a single snapshot may be shared by any number of goroutines.
type Dataset struct {
	Suppliers []Supplier
	Products  []Product
	Users     []UserSegment
	Sales     []Sale
	Events    []Event
	Ads       []AdRevenue
	Returns   []Return
	Traffic   []Traffic
	Inventory []InventoryRecord
	Support   []SupportTicket

	LoadedAt    time.Time
	Source      string
	Fallback    bool
	Fingerprint string
	Skipped     map[string]int

	productByID  map[string]int
	supplierByID map[string]int
	userByID     map[string]int
	saleByID     map[string]int
}

// buildIndexes prepares the foreign-key lookups. The first row wins when an
// id repeats.
func (d *Dataset) buildIndexes() {
	d.productByID = make(map[string]int, len(d.Products))
	for i, p := range d.Products {
		if _, ok := d.productByID[p.ID]; !ok {
			d.productByID[p.ID] = i
		}
	}
	d.supplierByID = make(map[string]int, len(d.Suppliers))
	for i, s := range d.Suppliers {
		if _, ok := d.supplierByID[s.ID]; !ok {
			d.supplierByID[s.ID] = i
		}
	}
	d.userByID = make(map[string]int, len(d.Users))
	for i, u := range d.Users {
		if _, ok := d.userByID[u.CustomerID]; !ok {
			d.userByID[u.CustomerID] = i
		}
	}
	d.saleByID = make(map[string]int, len(d.Sales))
	for i, s := range d.Sales {
		if _, ok := d.saleByID[s.TransactionID]; !ok {
			d.saleByID[s.TransactionID] = i
		}
	}
}

// Product looks up a product by id.
func (d *Dataset) Product(id string) (Product, bool) {
	i, ok := d.productByID[id]
	if !ok {
		return Product{}, false
	}
	return d.Products[i], true
}

// Supplier looks up a supplier by id.
func (d *Dataset) Supplier(id string) (Supplier, bool) {
	i, ok := d.supplierByID[id]
	if !ok {
		return Supplier{}, false
	}
	return d.Suppliers[i], true
}

// User looks up a customer's segment row by customer id.
func (d *Dataset) User(customerID string) (UserSegment, bool) {
	i, ok := d.userByID[customerID]
	if !ok {
		return UserSegment{}, false
	}
	return d.Users[i], true
}

// Sale looks up a sale by transaction id.
func (d *Dataset) Sale(transactionID string) (Sale, bool) {
	i, ok := d.saleByID[transactionID]
	if !ok {
		return Sale{}, false
	}
	return d.Sales[i], true
}

// RowCounts returns the number of loaded rows per table.
func (d *Dataset) RowCounts() map[string]int {
	return map[string]int{
		TableSuppliers:       len(d.Suppliers),
		TableProducts:        len(d.Products),
		TableUserSegments:    len(d.Users),
		TableSales:           len(d.Sales),
		TableEvents:          len(d.Events),
		TableAdRevenue:       len(d.Ads),
		TableReturns:         len(d.Returns),
		TableTraffic:         len(d.Traffic),
		TableInventory:       len(d.Inventory),
		TableCustomerSupport: len(d.Support),
	}
}
