package views

import (
	"math"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/erazemk/lumiere/internal/model"
)

// RecentPaidLimit is how many paid orders the analytics view lists.
const RecentPaidLimit = 10

// TopItemsLimit is how many best sellers the analytics view lists.
const TopItemsLimit = 8

// ItemStat aggregates one item name across every order.
type ItemStat struct {
	Name    string          `json:"name"`
	Emoji   string          `json:"emoji"`
	Qty     int             `json:"qty"`
	Orders  int             `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}

// StatusShare is one bar of the status histogram.
type StatusShare struct {
	Status  model.Status `json:"status"`
	Count   int          `json:"count"`
	Percent int          `json:"percent"`
}

// Analytics is the aggregate view of a snapshot.
type Analytics struct {
	OrderCount   int             `json:"orderCount"`
	PaidCount    int             `json:"paidCount"`
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
	AverageOrder decimal.Decimal `json:"averageOrder"`
	TodayOrders  int             `json:"todayOrders"`
	TodayRevenue decimal.Decimal `json:"todayRevenue"`
	TopItem      string          `json:"topItem"`
	Items        []ItemStat      `json:"items"`
	Statuses     []StatusShare   `json:"statuses"`
	RecentPaid   []model.Order   `json:"recentPaid"`
}

// Summarize computes the analytics view. "Today" is the calendar day of now
// in loc; an order's day comes from its store timestamp, or its placedAt
// when it has none.
func Summarize(orders []model.Order, now time.Time, loc *time.Location) Analytics {
	if loc == nil {
		loc = time.Local
	}
	a := Analytics{
		OrderCount:   len(orders),
		TotalRevenue: decimal.Zero,
		AverageOrder: decimal.Zero,
		TodayRevenue: decimal.Zero,
	}

	var paid []model.Order
	for _, o := range orders {
		today := sameDay(o.WrittenAt(), now, loc)
		if today {
			a.TodayOrders++
		}
		if o.Status != model.StatusPaid {
			continue
		}
		paid = append(paid, o)
		a.TotalRevenue = a.TotalRevenue.Add(o.Total)
		if today {
			a.TodayRevenue = a.TodayRevenue.Add(o.Total)
		}
	}
	a.PaidCount = len(paid)
	if a.PaidCount > 0 {
		a.AverageOrder = a.TotalRevenue.Div(decimal.NewFromInt(int64(a.PaidCount))).Round(2)
	}

	a.Items = TopItems(orders, TopItemsLimit)
	if len(a.Items) > 0 {
		a.TopItem = a.Items[0].Name
	}
	a.Statuses = StatusHistogram(orders)

	sortNewestFirst(paid)
	if len(paid) > RecentPaidLimit {
		paid = paid[:RecentPaidLimit]
	}
	a.RecentPaid = paid
	return a
}

// ItemStats aggregates order lines by item name, highest quantity first.
// Ties are broken by name.
func ItemStats(orders []model.Order) []ItemStat {
	index := make(map[string]int)
	var stats []ItemStat
	for _, o := range orders {
		for _, it := range o.Items {
			i, ok := index[it.Name]
			if !ok {
				i = len(stats)
				index[it.Name] = i
				stats = append(stats, ItemStat{Name: it.Name, Emoji: it.Glyph(), Revenue: decimal.Zero})
			}
			stats[i].Qty += it.Qty
			stats[i].Orders++
			stats[i].Revenue = stats[i].Revenue.Add(it.LineTotal())
		}
	}
	slices.SortFunc(stats, func(a, b ItemStat) int {
		if a.Qty != b.Qty {
			return b.Qty - a.Qty
		}
		return strings.Compare(a.Name, b.Name)
	})
	return stats
}

// TopItems returns at most n entries of ItemStats.
func TopItems(orders []model.Order, n int) []ItemStat {
	stats := ItemStats(orders)
	if len(stats) > n {
		stats = stats[:n]
	}
	return stats
}

// StatusHistogram counts orders per status with a whole-number percentage
// of all orders.
func StatusHistogram(orders []model.Order) []StatusShare {
	counts := make(map[model.Status]int)
	for _, o := range orders {
		counts[o.Status]++
	}
	out := make([]StatusShare, len(model.Statuses))
	for i, s := range model.Statuses {
		out[i] = StatusShare{Status: s, Count: counts[s]}
		if len(orders) > 0 {
			out[i].Percent = int(math.Round(float64(counts[s]) * 100 / float64(len(orders))))
		}
	}
	return out
}

func sameDay(t, ref time.Time, loc *time.Location) bool {
	if t.IsZero() {
		return false
	}
	y1, m1, d1 := t.In(loc).Date()
	y2, m2, d2 := ref.In(loc).Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
