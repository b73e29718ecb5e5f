package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices and totals go over the wire as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// Status is the position of an order in the funnel.
type Status string

// Order statuses, in funnel order.
const (
	StatusNew       Status = "new"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusPaid      Status = "paid"
)

// Statuses lists every status in funnel order.
var Statuses = []Status{StatusNew, StatusPreparing, StatusReady, StatusPaid}

// Rank returns the funnel position of s, or -1 for unknown statuses.
func (s Status) Rank() int {
	switch s {
	case StatusNew:
		return 0
	case StatusPreparing:
		return 1
	case StatusReady:
		return 2
	case StatusPaid:
		return 3
	}
	return -1
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s.Rank() >= 0
}

// Terminal reports whether no transition can leave s.
func (s Status) Terminal() bool {
	return s == StatusPaid
}

// StatusOrDefault returns s, or StatusNew when s is empty or unknown.
func StatusOrDefault(s Status) Status {
	if !s.Valid() {
		return StatusNew
	}
	return s
}

// OrderItem is a copy of a menu item taken when the order was placed.
// It is never re-synced with the menu.
type OrderItem struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Emoji    string          `json:"emoji"`
	ImageURL string          `json:"imageUrl,omitempty"`
	Category Category        `json:"category,omitempty"`
	Qty      int             `json:"qty"`
	Price    decimal.Decimal `json:"price"`
}

// Glyph returns the item's emoji or the fallback glyph.
func (i OrderItem) Glyph() string {
	return glyphOrDefault(i.Emoji)
}

// HasImage reports whether the item carries a non-blank image URL.
func (i OrderItem) HasImage() bool {
	return strings.TrimSpace(i.ImageURL) != ""
}

// LineTotal returns qty × price.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Qty)))
}

// Order is one placed order. Only Status changes after creation.
type Order struct {
	ID        string          `json:"id"`
	Table     string          `json:"table"`
	Items     []OrderItem     `json:"items"`
	Total     decimal.Decimal `json:"total"`
	Status    Status          `json:"status"`
	Note      string          `json:"note,omitempty"`
	PlacedAt  time.Time       `json:"placedAt"`
	Timestamp int64           `json:"timestamp"`
}

// DisplayID returns the short code shown on tickets: the last six
// characters of the key, upper-cased.
func (o Order) DisplayID() string {
	id := o.ID
	if len(id) > 6 {
		id = id[len(id)-6:]
	}
	return strings.ToUpper(id)
}

// WrittenAt returns the store write time, falling back to PlacedAt for
// orders without a store timestamp.
func (o Order) WrittenAt() time.Time {
	if o.Timestamp > 0 {
		return time.UnixMilli(o.Timestamp)
	}
	return o.PlacedAt
}

// ItemsTotal returns Σ(qty × price) over the items.
func ItemsTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal())
	}
	return total
}

// StatusHistory records one status transition of an order.
type StatusHistory struct {
	ID        int64     `json:"id"`
	OrderID   string    `json:"orderId"`
	From      Status    `json:"from"`
	To        Status    `json:"to"`
	Actor     string    `json:"actor"`
	ChangedAt time.Time `json:"changedAt"`
}
