package dashboard

import (
	"fmt"
	"strconv"
	"time"

	"github.com/malinka/malinka/internal/analytics"
	"github.com/malinka/malinka/internal/chart"
	"github.com/malinka/malinka/internal/filter"
	"github.com/malinka/malinka/internal/kpi"
	"github.com/malinka/malinka/internal/store"
)

func regions(ds *store.Dataset) []string {
	return distinct(ds.Users, func(u store.UserSegment) string { return u.Region })
}

func segments(ds *store.Dataset) []string {
	return distinct(ds.Users, func(u store.UserSegment) string { return u.Segment })
}

func categories(ds *store.Dataset) []string {
	return distinct(ds.Products, func(p store.Product) string { return p.Category })
}

func channels(ds *store.Dataset) []string {
	return distinct(ds.Traffic, func(t store.Traffic) string { return t.Channel })
}

func devices(ds *store.Dataset) []string {
	return distinct(ds.Traffic, func(t store.Traffic) string { return t.Device })
}

type overviewTab struct {
	settings func() Settings
}

func (t *overviewTab) Slug() string  { return SlugOverview }
func (t *overviewTab) Title() string { return "📊 Общий обзор бизнеса" }
func (t *overviewTab) Subtitle() string {
	return "Ключевые метрики и аналитика маркетплейса Малинка"
}

func (t *overviewTab) Options(ds *store.Dataset) Options {
	ds = orEmpty(ds)
	lo, hi := yearBounds(t.settings().Year)
	return withBounds(Options{
		Tab:        SlugOverview,
		Filterable: true,
		DateLabel:  "Период дат:",
		Fields: []Field{
			{Dim: filter.Region, Label: "Регионы:", Values: regions(ds)},
			{Dim: filter.Category, Label: "Категории товаров:", Values: categories(ds)},
		},
	}, lo, hi)
}

var overviewCards = []string{"Общий доход", "Количество заказов", "Средний чек", "Активные пользователи", "Расходы на рекламу", "ROMI"}

func (t *overviewTab) Render(ds *store.Dataset, f filter.Set) Page {
	s := t.settings()
	f = f.Only(filter.Period, filter.Region, filter.Category)
	p := newPage(t, ds, f)
	if ds == nil {
		p.Sections = []kpi.Section{{Cards: failedCards(overviewCards...)}}
		p.Charts = failedCharts(chart.OverviewCharts(analytics.ComputeOverview(emptyDataset, f, s.analytics()), f, s.TopN))
		return p
	}

	o := analytics.ComputeOverview(ds, f, s.analytics())
	p.Sections = []kpi.Section{{Cards: []kpi.Card{
		kpi.New(overviewCards[0], kpi.Currency(o.TotalRevenue)),
		kpi.New(overviewCards[1], kpi.Int(o.OrdersCount)),
		kpi.New(overviewCards[2], kpi.Currency(o.AvgOrderValue)),
		kpi.New(overviewCards[3], kpi.Int(o.ActiveUsers)),
		kpi.New(overviewCards[4], kpi.Currency(o.AdSpend)),
		kpi.New(overviewCards[5], kpi.Percent(o.ROMI)),
	}}}
	p.Charts = chart.OverviewCharts(o, f, s.TopN)
	return p
}

type customersTab struct {
	settings func() Settings
}

func (t *customersTab) Slug() string  { return SlugCustomers }
func (t *customersTab) Title() string { return "👥 Аналитика клиентов" }
func (t *customersTab) Subtitle() string {
	return "Сегментация, поведение и удержание клиентов маркетплейса Малинка"
}

func (t *customersTab) Options(ds *store.Dataset) Options {
	ds = orEmpty(ds)
	lo, hi := dateBounds(ds.Users, func(u store.UserSegment) time.Time { return u.RegistrationDate }, t.settings().Year)
	return withBounds(Options{
		Tab:        SlugCustomers,
		Filterable: true,
		DateLabel:  "Период регистрации:",
		Fields: []Field{
			{Dim: filter.Region, Label: "Регионы:", Values: regions(ds)},
			{Dim: filter.Segment, Label: "Сегменты клиентов:", Values: segments(ds)},
			{Dim: filter.Channel, Label: "Каналы привлечения:", Values: channels(ds)},
			{Dim: filter.Device, Label: "Устройства:", Values: devices(ds)},
		},
	}, lo, hi)
}

var customersCards = []string{"👥 Всего клиентов", "🆕 Новые клиенты", "💎 Лояльные клиенты", "⚠️ В группе риска", "💰 Крупные покупатели", "🎯 Ищущие скидки"}

func (t *customersTab) Render(ds *store.Dataset, f filter.Set) Page {
	f = f.Only(filter.Period, filter.Region, filter.Segment, filter.Channel, filter.Device)
	p := newPage(t, ds, f)
	if ds == nil {
		p.Sections = []kpi.Section{{Cards: failedCards(customersCards...)}}
		p.Charts = failedCharts(chart.CustomersCharts(analytics.ComputeCustomers(emptyDataset, f), f))
		return p
	}

	c := analytics.ComputeCustomers(ds, f)
	p.Sections = []kpi.Section{{Cards: []kpi.Card{
		kpi.New(customersCards[0], kpi.Int(c.Total)),
		kpi.New(customersCards[1], kpi.Int(c.New)),
		kpi.New(customersCards[2], kpi.Int(c.Loyal)),
		kpi.New(customersCards[3], kpi.Int(c.ChurnRisk)),
		kpi.New(customersCards[4], kpi.Int(c.HighSpender)),
		kpi.New(customersCards[5], kpi.Int(c.DiscountHunter)),
	}}}
	p.Charts = chart.CustomersCharts(c, f)
	return p
}

type salesTab struct {
	settings func() Settings
}

func (t *salesTab) Slug() string  { return SlugSales }
func (t *salesTab) Title() string { return "💰 Аналитика продаж" }
func (t *salesTab) Subtitle() string {
	return "Детальная аналитика транзакций, выручки и эффективности продаж"
}

func (t *salesTab) Options(ds *store.Dataset) Options {
	ds = orEmpty(ds)
	lo, hi := dateBounds(ds.Sales, func(s store.Sale) time.Time { return s.TransactionDate }, t.settings().Year)
	return withBounds(Options{
		Tab:        SlugSales,
		Filterable: true,
		DateLabel:  "Период транзакций:",
		Fields: []Field{
			{Dim: filter.Region, Label: "Регионы покупателей:", Values: regions(ds)},
			{Dim: filter.Category, Label: "Категории товаров:", Values: categories(ds)},
			{Dim: filter.Segment, Label: "Сегменты клиентов:", Values: segments(ds)},
			{Dim: filter.PaymentMethod, Label: "Способы оплаты:", Values: distinct(ds.Sales, func(s store.Sale) string { return s.PaymentMethod })},
			{Dim: filter.Supplier, Label: "Поставщики:", Values: distinct(ds.Suppliers, func(s store.Supplier) string { return s.Name })},
		},
	}, lo, hi)
}

var salesCards = []string{"💰 Общая выручка", "📦 Количество заказов", "🛒 Средний чек", "📊 Продано товаров", "🔄 Процент возвратов", "👥 Уникальных покупателей"}

func (t *salesTab) Render(ds *store.Dataset, f filter.Set) Page {
	s := t.settings()
	f = f.Only(filter.Period, filter.Region, filter.Category, filter.Segment, filter.PaymentMethod, filter.Supplier)
	p := newPage(t, ds, f)
	if ds == nil {
		p.Sections = []kpi.Section{{Cards: failedCards(salesCards...)}}
		p.Charts = failedCharts(chart.SalesCharts(analytics.ComputeSales(emptyDataset, f, s.analytics()), f))
		return p
	}

	r := analytics.ComputeSales(ds, f, s.analytics())
	p.Sections = []kpi.Section{{Cards: []kpi.Card{
		kpi.New(salesCards[0], kpi.Currency(r.TotalRevenue)),
		kpi.New(salesCards[1], kpi.Int(r.Orders)),
		kpi.New(salesCards[2], kpi.Currency(r.AvgOrderValue)),
		kpi.New(salesCards[3], kpi.Int(r.Quantity)),
		kpi.New(salesCards[4], kpi.Percent(r.ReturnRate)),
		kpi.New(salesCards[5], kpi.Int(r.UniqueCustomers)),
	}}}
	p.Charts = chart.SalesCharts(r, f)
	return p
}

type marketingTab struct {
	settings func() Settings
}

func (t *marketingTab) Slug() string  { return SlugMarketing }
func (t *marketingTab) Title() string { return "📢 Маркетинговая аналитика" }
func (t *marketingTab) Subtitle() string {
	return "Эффективность рекламных кампаний, каналов привлечения и ROI"
}

func (t *marketingTab) Options(ds *store.Dataset) Options {
	ds = orEmpty(ds)
	lo, hi := dateBounds(ds.Ads, func(a store.AdRevenue) time.Time { return a.Date }, t.settings().Year)
	return withBounds(Options{
		Tab:        SlugMarketing,
		Filterable: true,
		DateLabel:  "Период кампаний:",
		Fields: []Field{
			{Dim: filter.Channel, Label: "Каналы трафика:", Values: channels(ds)},
			{Dim: filter.Campaign, Label: "Рекламные кампании:", Values: distinct(ds.Ads, func(a store.AdRevenue) string { return a.CampaignName })},
			{Dim: filter.Category, Label: "Категории товаров:", Values: categories(ds)},
			{Dim: filter.Device, Label: "Устройства:", Values: devices(ds)},
			{Dim: filter.Segment, Label: "Сегменты клиентов:", Values: segments(ds)},
		},
	}, lo, hi)
}

var marketingCards = []string{"📊 Общий ROMI", "💰 Расходы на рекламу", "💸 Доход от рекламы", "🎯 CTR", "👥 Стоимость привлечения", "📈 Конверсия"}

func (t *marketingTab) Render(ds *store.Dataset, f filter.Set) Page {
	s := t.settings()
	f = f.Only(filter.Period, filter.Channel, filter.Campaign, filter.Category, filter.Device, filter.Segment)
	p := newPage(t, ds, f)
	if ds == nil {
		p.Sections = []kpi.Section{{Cards: failedCards(marketingCards...)}}
		p.Charts = failedCharts(chart.MarketingCharts(analytics.ComputeMarketing(emptyDataset, f, s.analytics()), f))
		return p
	}

	m := analytics.ComputeMarketing(ds, f, s.analytics())
	p.Sections = []kpi.Section{{Cards: []kpi.Card{
		kpi.New(marketingCards[0], kpi.Percent(m.ROMI)),
		kpi.New(marketingCards[1], kpi.Currency(m.Spend)),
		kpi.New(marketingCards[2], kpi.Currency(m.Revenue)),
		kpi.New(marketingCards[3], kpi.Percent(m.CTR)),
		kpi.New(marketingCards[4], kpi.Currency(m.CAC)),
		kpi.New(marketingCards[5], kpi.Percent(m.Conversion)),
	}}}
	p.Charts = chart.MarketingCharts(m, f)

	campaigns := Table{
		ID:      "campaigns",
		Title:   "Эффективность кампаний",
		Columns: []string{"Кампания", "Расходы", "Доход", "ROMI", "CTR"},
	}
	for _, c := range m.Campaigns {
		campaigns.Rows = append(campaigns.Rows, []string{
			c.Name, kpi.Currency(c.Spend), kpi.Currency(c.Revenue), kpi.Percent(c.ROMI), kpi.Percent(c.CTR),
		})
	}
	p.Tables = []Table{campaigns}
	return p
}

type operationsTab struct {
	settings func() Settings
}

func (t *operationsTab) Slug() string { return SlugOperations }

func (t *operationsTab) Title() string {
	return "⚙️ Операционная деятельность"
}

func (t *operationsTab) Subtitle() string {
	return "Актуальные показатели управления запасами и поддержки клиентов"
}

// Options reports that the tab has no filters.
func (t *operationsTab) Options(ds *store.Dataset) Options {
	return Options{
		Tab: SlugOperations,
		Message: []string{
			"Фильтры не доступны",
			"Для операционной деятельности используются актуальные данные на текущий момент.",
			"Все метрики обновляются в реальном времени.",
		},
	}
}

const (
	sectionInventory = "📦 Управление запасами"
	sectionSupport   = "📞 Поддержка клиентов"
)

func operationsCardTitles(s Settings) (inventory, support []string) {
	return []string{"Уровень доступности", "Товары с дефицитом", "Стоимость запасов"},
		[]string{"Время решения", "Решено тикетов", fmt.Sprintf("Просрочено >%dч", s.OverdueHours), "Задержки доставки"}
}

// Render ignores every filter.
func (t *operationsTab) Render(ds *store.Dataset, _ filter.Set) Page {
	s := t.settings()
	p := newPage(t, ds, filter.Set{})
	p.RefreshSeconds = int(s.RefreshInterval / time.Second)
	if p.RefreshSeconds > 0 {
		p.Notice = fmt.Sprintf("Данные обновляются каждые %d секунд", p.RefreshSeconds)
	}
	invTitles, supTitles := operationsCardTitles(s)
	if ds == nil {
		p.Sections = []kpi.Section{
			{Title: sectionInventory, Cards: failedCards(invTitles...)},
			{Title: sectionSupport, Cards: failedCards(supTitles...)},
		}
		p.Charts = failedCharts(chart.OperationsCharts(analytics.ComputeOperations(emptyDataset, s.analytics()), s.LowStockThreshold))
		return p
	}

	o := analytics.ComputeOperations(ds, s.analytics())
	p.Sections = []kpi.Section{
		{Title: sectionInventory, Cards: []kpi.Card{
			kpi.New(invTitles[0], kpi.Percent(o.Availability)),
			kpi.New(invTitles[1], kpi.Int(o.LowStock)).
				WithDelta(fmt.Sprintf("остаток < %d шт.", s.LowStockThreshold), kpi.Muted),
			kpi.New(invTitles[2], kpi.Currency(o.InventoryValue)),
		}},
		{Title: sectionSupport, Cards: []kpi.Card{
			kpi.New(supTitles[0], kpi.Hours(o.AvgResolutionHours)),
			kpi.New(supTitles[1], kpi.Percent(o.ResolvedRate)),
			overdueCard(supTitles[2], o.Overdue),
			kpi.New(supTitles[3], kpi.Int(o.DeliveryDelays)),
		}},
	}
	p.Charts = chart.OperationsCharts(o, s.LowStockThreshold)
	p.Tables = operationsTables(o)
	return p
}

func overdueCard(title string, n int) kpi.Card {
	c := kpi.New(title, kpi.Int(n))
	if n > 0 {
		return c.WithDelta("требуют внимания", kpi.Danger)
	}
	return c.WithDelta("нет просроченных", kpi.Success)
}

func operationsTables(o analytics.Operations) []Table {
	low := Table{
		ID:      "low_stock",
		Title:   "Товары с низким запасом",
		Columns: []string{"Товар", "Категория", "Остаток", "Обновлено"},
	}
	for _, it := range o.LowStockProducts {
		low.Rows = append(low.Rows, []string{it.Name, it.Category, kpi.Int(it.Stock), dateOf(it.LastUpdated)})
	}

	warehouses := Table{
		ID:      "warehouses",
		Title:   "Склады",
		Columns: []string{"Склад", "Товаров", "Количество", "Стоимость", "Обновлено"},
	}
	for _, w := range o.Warehouses {
		warehouses.Rows = append(warehouses.Rows, []string{
			w.WarehouseID, kpi.Int(w.Products), kpi.Int(w.Quantity), kpi.Currency(w.Value), dateOf(w.LastUpdated),
		})
	}

	support := Table{
		ID:      "support_by_type",
		Title:   "Поддержка по типам проблем",
		Columns: []string{"Тип проблемы", "Тикетов", "Среднее время", "Решено"},
	}
	for _, st := range o.SupportByType {
		support.Rows = append(support.Rows, []string{
			st.IssueType, strconv.Itoa(st.Tickets), kpi.Hours(st.AvgHours), kpi.Percent(st.ResolutionRate),
		})
	}

	freshness := Table{
		ID:      "freshness",
		Title:   "Актуальность данных",
		Columns: []string{"Источник", "Последнее обновление"},
		Rows: [][]string{
			{"Запасы", dateOf(o.InventoryUpdated)},
			{"Поддержка", dateOf(o.SupportUpdated)},
		},
	}
	return []Table{low, warehouses, support, freshness}
}
