// Package views derives the kitchen, cashier and analytics views from a
// full order snapshot. Every function is pure and leaves its input
// untouched.
package views

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/erazemk/lumiere/internal/model"
)

// Kitchen returns the orders still being worked on: everything but paid,
// new before preparing before ready, oldest first within a status.
func Kitchen(orders []model.Order) []model.Order {
	out := make([]model.Order, 0, len(orders))
	for _, o := range orders {
		if o.Status != model.StatusPaid {
			out = append(out, o)
		}
	}
	slices.SortStableFunc(out, func(a, b model.Order) int {
		if d := a.Status.Rank() - b.Status.Rank(); d != 0 {
			return d
		}
		if a.Timestamp != b.Timestamp {
			if a.Timestamp < b.Timestamp {
				return -1
			}
			return 1
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// Cashier returns the orders matching status, newest first. An empty
// status matches every order.
func Cashier(orders []model.Order, status model.Status) []model.Order {
	out := make([]model.Order, 0, len(orders))
	for _, o := range orders {
		if status == "" || o.Status == status {
			out = append(out, o)
		}
	}
	sortNewestFirst(out)
	return out
}

// Counters is the cashier header: open orders per status and paid revenue.
type Counters struct {
	New       int             `json:"new"`
	Preparing int             `json:"preparing"`
	Ready     int             `json:"ready"`
	Paid      int             `json:"paid"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// CashierCounters counts orders per status and sums paid totals.
func CashierCounters(orders []model.Order) Counters {
	var c Counters
	for _, o := range orders {
		switch o.Status {
		case model.StatusNew:
			c.New++
		case model.StatusPreparing:
			c.Preparing++
		case model.StatusReady:
			c.Ready++
		case model.StatusPaid:
			c.Paid++
			c.Revenue = c.Revenue.Add(o.Total)
		}
	}
	return c
}

func sortNewestFirst(orders []model.Order) {
	slices.SortStableFunc(orders, func(a, b model.Order) int {
		if a.Timestamp != b.Timestamp {
			if a.Timestamp > b.Timestamp {
				return -1
			}
			return 1
		}
		return strings.Compare(b.ID, a.ID)
	})
}
