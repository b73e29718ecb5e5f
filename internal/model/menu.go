package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Category groups menu items.
type Category string

// Menu categories, in display order.
const (
	CategoryCoffee Category = "coffee"
	CategoryTea    Category = "tea"
	CategoryFood   Category = "food"
	CategorySweet  Category = "sweet"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryCoffee, CategoryTea, CategoryFood, CategorySweet}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	return c.Rank() >= 0
}

// Rank returns the display position of c, or -1 for unknown categories.
func (c Category) Rank() int {
	for i, cat := range Categories {
		if cat == c {
			return i
		}
	}
	return -1
}

// CategoryOrDefault returns c, or CategoryCoffee when c is unknown.
func CategoryOrDefault(c Category) Category {
	if !c.Valid() {
		return CategoryCoffee
	}
	return c
}

// MaxDescLength is the longest accepted menu item description.
const MaxDescLength = 120

// FallbackGlyph is shown for items without an emoji.
const FallbackGlyph = "🍽️"

// MenuItem is one sellable product.
type MenuItem struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Category  Category        `json:"category"`
	Emoji     string          `json:"emoji"`
	ImageURL  string          `json:"imageUrl,omitempty"`
	Tag       string          `json:"tag"`
	Desc      string          `json:"desc"`
	Price     decimal.Decimal `json:"price"`
	Special   bool            `json:"special"`
	Available bool            `json:"available"`
}

// Glyph returns the item's emoji or the fallback glyph.
func (m MenuItem) Glyph() string {
	return glyphOrDefault(m.Emoji)
}

// HasImage reports whether the item carries a non-blank image URL.
func (m MenuItem) HasImage() bool {
	return strings.TrimSpace(m.ImageURL) != ""
}

// Snapshot copies the item into an order line.
func (m MenuItem) Snapshot(qty int) OrderItem {
	return OrderItem{
		ID:       m.ID,
		Name:     m.Name,
		Emoji:    m.Emoji,
		ImageURL: m.ImageURL,
		Category: m.Category,
		Qty:      qty,
		Price:    m.Price,
	}
}

// Normalize applies the stored form of the editable fields: upper-cased
// tag, trimmed text, known category.
func (m *MenuItem) Normalize() {
	m.Name = strings.TrimSpace(m.Name)
	m.Tag = strings.ToUpper(strings.TrimSpace(m.Tag))
	m.Desc = strings.TrimSpace(m.Desc)
	m.ImageURL = strings.TrimSpace(m.ImageURL)
	m.Category = CategoryOrDefault(m.Category)
}

// CategoryStats counts items per category.
type CategoryStats struct {
	Category  Category `json:"category"`
	Total     int      `json:"total"`
	Available int      `json:"available"`
}

// StatsByCategory counts items and available items for every category.
func StatsByCategory(items []MenuItem) []CategoryStats {
	stats := make([]CategoryStats, len(Categories))
	for i, c := range Categories {
		stats[i].Category = c
	}
	for _, it := range items {
		r := it.Category.Rank()
		if r < 0 {
			continue
		}
		stats[r].Total++
		if it.Available {
			stats[r].Available++
		}
	}
	return stats
}

func glyphOrDefault(emoji string) string {
	if strings.TrimSpace(emoji) == "" {
		return FallbackGlyph
	}
	return emoji
}
