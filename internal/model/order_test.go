package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestStatusRank(t *testing.T) {
	for i, s := range Statuses {
		if s.Rank() != i {
			t.Errorf("%s.Rank() = %d, want %d", s, s.Rank(), i)
		}
	}
	if Status("cancelled").Valid() {
		t.Error("expected unknown status to be invalid")
	}
	if !StatusPaid.Terminal() || StatusReady.Terminal() {
		t.Error("only paid is terminal")
	}
	if StatusOrDefault("") != StatusNew {
		t.Error("expected empty status to default to new")
	}
}

func TestDisplayID(t *testing.T) {
	o := Order{ID: "0192f0a1-7c3e-7abc-9def-1234567890ab"}
	if got := o.DisplayID(); got != "7890AB" {
		t.Errorf("expected 7890AB, got %q", got)
	}

	short := Order{ID: "abc"}
	if got := short.DisplayID(); got != "ABC" {
		t.Errorf("expected ABC, got %q", got)
	}
}

func TestItemsTotal(t *testing.T) {
	items := []OrderItem{
		{Name: "Latte", Qty: 2, Price: decimal.NewFromInt(150)},
		{Name: "Brownie", Qty: 1, Price: decimal.RequireFromString("99.50")},
	}
	got := ItemsTotal(items)
	if !got.Equal(decimal.RequireFromString("399.5")) {
		t.Errorf("expected 399.5, got %s", got)
	}
}

func TestWrittenAtFallsBackToPlacedAt(t *testing.T) {
	placed := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	o := Order{PlacedAt: placed}
	if !o.WrittenAt().Equal(placed) {
		t.Errorf("expected placedAt fallback, got %v", o.WrittenAt())
	}

	o.Timestamp = placed.Add(time.Minute).UnixMilli()
	if !o.WrittenAt().Equal(placed.Add(time.Minute)) {
		t.Errorf("expected store timestamp, got %v", o.WrittenAt())
	}
}

func TestGlyphFallback(t *testing.T) {
	if (OrderItem{}).Glyph() != FallbackGlyph {
		t.Error("expected fallback glyph for item without emoji")
	}
	if (MenuItem{Emoji: "☕"}).Glyph() != "☕" {
		t.Error("expected item emoji")
	}
	if (MenuItem{ImageURL: "  "}).HasImage() {
		t.Error("blank image URL should not count as an image")
	}
}

func TestPriceMarshalsAsNumber(t *testing.T) {
	data, err := json.Marshal(OrderItem{Name: "Latte", Qty: 1, Price: decimal.NewFromInt(150)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"price":150`) {
		t.Errorf("expected numeric price, got %s", data)
	}
}

func TestNormalizeMenuItem(t *testing.T) {
	m := MenuItem{Name: " Latte ", Tag: "smooth", Category: "drinks"}
	m.Normalize()
	if m.Name != "Latte" || m.Tag != "SMOOTH" || m.Category != CategoryCoffee {
		t.Errorf("unexpected normalized item: %+v", m)
	}
}

func TestStatsByCategory(t *testing.T) {
	stats := StatsByCategory(DefaultMenu())
	if len(stats) != len(Categories) {
		t.Fatalf("expected %d categories, got %d", len(Categories), len(stats))
	}
	total := 0
	for _, s := range stats {
		total += s.Total
		if s.Available != s.Total {
			t.Errorf("default menu should be fully available, got %+v", s)
		}
	}
	if total != len(DefaultMenu()) {
		t.Errorf("expected %d items counted, got %d", len(DefaultMenu()), total)
	}
}
