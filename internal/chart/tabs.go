package chart

import (
	"fmt"

	"github.com/malinka/malinka/internal/analytics"
	"github.com/malinka/malinka/internal/filter"
)

const noData = "Нет данных за выбранные фильтры"

func emptyFor(what string) string {
	return "Нет данных " + what + " за выбранные фильтры"
}

// colorByLabel tags every point with its own label so ColorMap applies per
// point.
func colorByLabel(c *Config) {
	for i := range c.Series {
		for j := range c.Series[i].Data {
			c.Series[i].Data[j].Group = c.Series[i].Data[j].Label
		}
	}
}

// OverviewCharts builds the overview tab charts.
func OverviewCharts(o analytics.Overview, f filter.Set, topN int) []Config {
	sub := subtitle(f.Summary(filter.Period, filter.Region, filter.Category))

	trend := FromGroups("sales_trend", Line, "📈 Тренд продаж по дням", "Выручка", o.SalesTrend).
		with(sub, axes("Дата", "Выручка, ₽"), format(FormatCurrency), lineColor(Accent), empty(noData))

	catTitle := "🥧 Распределение выручки по категориям"
	if o.ComparingCategories {
		catTitle = "🥧 Сравнение выбранных категорий с рынком"
	}
	categories := FromGroups("categories", Donut, catTitle, "Выручка", o.CategoryDistribution).
		with(sub, format(FormatCurrency), palette(Categorical[:8]), empty(noData))

	topTitle := fmt.Sprintf("🏆 Топ %d товаров по выручке", topN)
	if len(f.Categories) > 0 {
		topTitle = fmt.Sprintf("🏆 Топ %d товаров в выбранных категориях", topN)
	}
	top := FromGroups("top_products", HBar, topTitle, "Выручка", o.TopProducts).
		with(sub, axes("Выручка, ₽", "Товар"), format(FormatCurrency), palette(Categorical), empty(noData))

	return []Config{trend, categories, top}
}

// CustomersCharts builds the customers tab charts.
func CustomersCharts(c analytics.Customers, f filter.Set) []Config {
	sub := subtitle(f.Summary(filter.Period, filter.Region, filter.Segment, filter.Channel, filter.Device))

	segments := FromGroups("segments", Pie, "📊 Распределение клиентов по сегментам", "Клиенты", c.Segments).
		with(sub, colorByLabel, colorMap(SegmentColors), format(FormatCount), empty(emptyFor("по сегментам")))

	regs := FromGroups("registrations", Line, "📈 Динамика регистраций клиентов", "Регистрации", c.Registrations).
		with(sub, axes("Дата", "Регистрации"), format(FormatCount), lineColor(Accent), empty(emptyFor("о регистрациях")))

	regionGroups := append([]analytics.Group(nil), c.Regions...)
	analytics.SortGroups(regionGroups, analytics.ByValueAsc)
	regions := FromGroups("regions", HBar, "🗺️ Распределение клиентов по регионам", "Клиенты", regionGroups).
		with(sub, axes("Количество клиентов", "Регион"), format(FormatCount), palette(Purple), empty(emptyFor("по регионам")))

	channelGroups := append([]analytics.Group(nil), c.Channels...)
	analytics.SortGroups(channelGroups, analytics.ByValueAsc)
	channels := FromGroups("channels", HBar, "📡 Каналы привлечения клиентов", "Клиенты", channelGroups).
		with(sub, axes("Количество клиентов", "Канал"), format(FormatCount), palette(Red), empty(emptyFor("по каналам привлечения")))

	cross := FromCross("segments_channels", StackedBar, "🔀 Сегменты клиентов по каналам", c.SegmentsByChannel)
	cross = cross.with(sub, axes("Канал", "Количество клиентов"), format(FormatCount), empty(emptyFor("по сегментам и каналам")))
	for i := range cross.Series {
		cross.Series[i].Color = SegmentColors[cross.Series[i].Name]
	}

	return []Config{segments, regs, regions, channels, cross}
}

// SalesCharts builds the sales tab charts.
func SalesCharts(s analytics.Sales, f filter.Set) []Config {
	sub := subtitle(f.Summary(filter.Period, filter.Region, filter.Category, filter.Segment, filter.PaymentMethod, filter.Supplier))

	regions := FromGroups("regions", HBar, "🗺️ Выручка по регионам", "Выручка", s.ByRegion).
		with(sub, axes("Выручка, ₽", "Регион"), format(FormatCurrency), palette(Purple), empty(emptyFor("по регионам")))

	segments := FromGroups("segments", HBar, "👥 Выручка по сегментам клиентов", "Выручка", s.BySegment).
		with(sub, axes("Выручка, ₽", "Сегмент"), format(FormatCurrency), colorByLabel, colorMap(SegmentColors), empty(emptyFor("по сегментам")))

	payments := FromGroups("payment_methods", Pie, "💳 Распределение выручки по способам оплаты", "Выручка", s.ByPaymentMethod).
		with(sub, format(FormatCurrency), palette(Categorical[:5]), empty(emptyFor("по способам оплаты")))

	suppliers := FromGroups("suppliers", HBar, "🏭 Топ-10 поставщиков по выручке", "Выручка", s.BySupplier).
		with(sub, axes("Выручка, ₽", "Поставщик"), format(FormatCurrency), palette(Purple), empty(emptyFor("по поставщикам")))

	hourly := FromGroups("hourly", Line, "⏰ Выручка по часам дня", "Выручка", s.ByHour).
		with(sub, axes("Час дня", "Выручка, ₽"), format(FormatCurrency), lineColor(Accent), empty(emptyFor("по часам")))

	reasons := FromGroups("return_reasons", HBar, "📋 Топ причин возвратов", "Возвраты", s.ReturnReasons).
		with(sub, axes("Количество возвратов", "Причина возврата"), format(FormatCount), palette(Red), empty(emptyFor("по возвратам")))

	return []Config{regions, segments, payments, suppliers, hourly, reasons}
}

// MarketingCharts builds the marketing tab charts.
func MarketingCharts(m analytics.Marketing, f filter.Set) []Config {
	sub := subtitle(f.Summary(filter.Period, filter.Channel, filter.Campaign, filter.Category, filter.Device, filter.Segment))

	trend := FromGroups("romi_trend", Line, "📈 Динамика ROMI по дням", "ROMI", m.ROMITrend).
		with(sub, axes("Дата", "ROMI, %"), format(FormatPercent), lineColor(Accent), empty(emptyFor("по ROMI")))

	budget := FromGroups("budget", Pie, "💰 Распределение бюджета по каналам", "Сессии", m.Channels).
		with(sub, format(FormatCount), palette(Categorical[:5]), empty(emptyFor("по распределению бюджета")))

	campaignGroups := make([]analytics.Group, 0, len(m.Campaigns))
	for _, c := range m.Campaigns {
		campaignGroups = append(campaignGroups, analytics.Group{Key: c.Name, Value: c.ROMI})
	}
	campaigns := FromGroups("campaigns", HBar, "🏆 Топ-10 кампаний по ROMI", "ROMI", campaignGroups).
		with(sub, axes("ROMI, %", "Кампания"), format(FormatPercent), palette(RedToGreen), empty(emptyFor("по кампаниям")))

	channels := FromGroups("channels", HBar, "🎯 Активность по каналам трафика", "Сессии", m.Channels).
		with(sub, axes("Количество сессий", "Канал"), format(FormatCount), palette(Purple), empty(emptyFor("по каналам")))

	cac := FromGroups("cac_segments", HBar, "👥 Стоимость привлечения по сегментам", "CAC", m.CACBySegment).
		with(sub, axes("CAC, ₽", "Сегмент"), format(FormatCurrency), palette(Red), empty(emptyFor("по сегментам")))

	devices := FromGroups("devices", Pie, "📱 Активность по устройствам", "Сессии", m.Devices).
		with(sub, format(FormatCount), palette(Devices), empty(emptyFor("по устройствам")))

	return []Config{trend, budget, campaigns, channels, cac, devices}
}

// OperationsCharts builds the operations tab charts.
func OperationsCharts(o analytics.Operations, threshold int) []Config {
	heat := FromCross("stock_heatmap", Heatmap, "📊 Распределение остатков по складам и категориям", o.StockHeatmap).
		with(axes("Склад", "Категория"), format(FormatCount), palette(Blues), empty(noData))

	resolution := FromGroups("resolution_time", Bar, "⏱️ Среднее время решения по типам проблем", "Часы", o.ResolutionHours).
		with(axes("Тип проблемы", "Часы"), format(FormatHours), palette(Viridis), empty(noData))

	status := FromGroups("ticket_status", Donut, "✅ Статус тикетов поддержки", "Тикеты", o.TicketStatus).
		with(format(FormatCount), palette(Status), empty(noData))

	low := Config{
		ID:         "low_stock",
		Type:       HBar,
		Title:      fmt.Sprintf("⚠️ Топ товаров с запасом < %d ед.", threshold),
		ShowLegend: true,
		ShowGrid:   true,
		ColorMap:   map[string]string{},
	}
	points := make([]Point, 0, len(o.LowStockTop))
	for _, c := range o.LowStockTop {
		if _, ok := low.ColorMap[c.Col]; !ok {
			low.ColorMap[c.Col] = Categorical[len(low.ColorMap)%len(Categorical)]
		}
		points = append(points, Point{Label: c.Row, Value: c.Value, Group: c.Col})
	}
	low.Series = []Series{{Name: "Остаток", Data: points}}
	low = low.with(axes("Количество", "Товар"), format(FormatCount), empty(noData))

	return []Config{heat, resolution, status, low}
}
