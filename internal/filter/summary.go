package filter

import "strings"

var labels = map[Dim]string{
	Region:        "Регионы",
	Category:      "Категории",
	Segment:       "Сегменты",
	Channel:       "Каналы",
	Device:        "Устройства",
	PaymentMethod: "Оплата",
	Supplier:      "Поставщики",
	Campaign:      "Кампании",
}

// Dimensions listed in full rather than truncated after two values.
var untruncated = map[Dim]bool{
	Device:        true,
	PaymentMethod: true,
}

// DefaultOrder is the Summary order used when none is given.
var DefaultOrder = []Dim{Period, Region, Category, Segment, Channel, Device, PaymentMethod, Supplier, Campaign}

// Summary describes the active filters, in the given dimension order, for
// use as a chart subtitle. It is empty when nothing is selected.
func (s Set) Summary(order ...Dim) string {
	if len(order) == 0 {
		order = DefaultOrder
	}
	var parts []string
	for _, d := range order {
		if d == Period {
			if s.HasRange() {
				parts = append(parts, "Период: "+s.Start.Format("02.01.2006")+" - "+s.End.Format("02.01.2006"))
			}
			continue
		}
		vals := s.Values(d)
		if len(vals) == 0 {
			continue
		}
		parts = append(parts, labels[d]+": "+join(vals, !untruncated[d]))
	}
	return strings.Join(parts, " | ")
}

func join(vals []string, truncate bool) string {
	if !truncate || len(vals) <= 2 {
		return strings.Join(vals, ", ")
	}
	return strings.Join(vals[:2], ", ") + "..."
}
