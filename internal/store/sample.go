package store

import "time"

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SampleDataset returns the small built-in dataset served when the real
// data cannot be loaded. Every table has at least one row so all tabs
// render.
func SampleDataset() *Dataset {
	ds := &Dataset{
		Suppliers: []Supplier{
			{ID: "1", Name: "Поставщик 1"},
			{ID: "2", Name: "Поставщик 2"},
		},
		Products: []Product{
			{ID: "1", Name: "Телефон", Category: "Электроника", Price: 500, SupplierID: "1"},
			{ID: "2", Name: "Ноутбук", Category: "Электроника", Price: 1000, SupplierID: "1"},
			{ID: "3", Name: "Наушники", Category: "Аксессуары", Price: 100, SupplierID: "2"},
		},
		Users: []UserSegment{
			{CustomerID: "1", Segment: "new", Region: "Москва", RegistrationDate: day(2024, time.December, 1)},
			{CustomerID: "2", Segment: "returning", Region: "Санкт-Петербург", RegistrationDate: day(2024, time.December, 2)},
			{CustomerID: "3", Segment: "loyal", Region: "Москва", RegistrationDate: day(2024, time.December, 3)},
		},
		Sales: []Sale{
			{TransactionID: "1", CustomerID: "1", ProductID: "1", Quantity: 1, PaymentMethod: "card", TransactionDate: day(2025, time.January, 1).Add(10 * time.Hour)},
			{TransactionID: "2", CustomerID: "2", ProductID: "2", Quantity: 1, PaymentMethod: "card", TransactionDate: day(2025, time.January, 2).Add(14 * time.Hour)},
			{TransactionID: "3", CustomerID: "1", ProductID: "3", Quantity: 2, PaymentMethod: "cash", TransactionDate: day(2025, time.January, 3).Add(18 * time.Hour)},
		},
		Events: []Event{
			{ID: "1", CustomerID: "1", Type: "view", Timestamp: day(2025, time.January, 1).Add(9 * time.Hour)},
		},
		Ads: []AdRevenue{
			{AdID: "1", CampaignName: "Кампания 1", ProductID: "1", Spend: 100, Revenue: 500, Impressions: 1000, Clicks: 100, Date: day(2025, time.January, 1)},
			{AdID: "2", CampaignName: "Кампания 2", ProductID: "2", Spend: 200, Revenue: 800, Impressions: 2000, Clicks: 150, Date: day(2025, time.January, 2)},
		},
		Returns: []Return{
			{ID: "1", TransactionID: "2", ProductID: "2", CustomerID: "2", Reason: "defect"},
		},
		Traffic: []Traffic{
			{ID: "1", CustomerID: "1", Channel: "search", Device: "desktop", SessionStart: day(2025, time.January, 1).Add(9 * time.Hour)},
			{ID: "2", CustomerID: "2", Channel: "social", Device: "mobile", SessionStart: day(2025, time.January, 2).Add(13 * time.Hour)},
			{ID: "3", CustomerID: "3", Channel: "email", Device: "mobile", SessionStart: day(2025, time.January, 3).Add(17 * time.Hour)},
		},
		Inventory: []InventoryRecord{
			{ProductID: "1", WarehouseID: "WH1", StockQuantity: 10, LastUpdated: day(2025, time.January, 3)},
			{ProductID: "2", WarehouseID: "WH1", StockQuantity: 3, LastUpdated: day(2025, time.January, 3)},
			{ProductID: "3", WarehouseID: "WH2", StockQuantity: 0, LastUpdated: day(2025, time.January, 3)},
		},
		Support: []SupportTicket{
			{ID: "1", CustomerID: "1", IssueType: "delivery_delay", Resolved: true, ResolutionMinutes: 120, SupportDate: day(2025, time.January, 2)},
			{ID: "2", CustomerID: "2", IssueType: "payment_issue", Resolved: false, ResolutionMinutes: 1600, SupportDate: day(2025, time.January, 3)},
		},
		LoadedAt:    time.Now(),
		Source:      "sample",
		Fallback:    true,
		Fingerprint: "sample",
		Skipped:     map[string]int{},
	}
	ds.buildIndexes()
	return ds
}

// NewDataset indexes a dataset assembled in code. Tests and alternative
// loaders use it; Load and SampleDataset index their results already.
func NewDataset(ds *Dataset) *Dataset {
	if ds.Skipped == nil {
		ds.Skipped = map[string]int{}
	}
	ds.buildIndexes()
	return ds
}
