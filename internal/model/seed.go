package model

import "github.com/shopspring/decimal"

// DefaultMenu returns the menu written when the menu collection is empty.
func DefaultMenu() []MenuItem {
	item := func(id, name string, cat Category, emoji, tag, desc string, price int64, special bool) MenuItem {
		return MenuItem{
			ID:        id,
			Name:      name,
			Category:  cat,
			Emoji:     emoji,
			Tag:       tag,
			Desc:      desc,
			Price:     decimal.NewFromInt(price),
			Special:   special,
			Available: true,
		}
	}

	return []MenuItem{
		item("espresso", "Espresso", CategoryCoffee, "☕", "CLASSIC", "A short, intense shot pulled from our house blend.", 120, false),
		item("cappuccino", "Cappuccino", CategoryCoffee, "☕", "CLASSIC", "Espresso with steamed milk and a thick cap of foam.", 160, false),
		item("latte", "Latte", CategoryCoffee, "🥛", "SMOOTH", "Espresso mellowed with silky steamed milk.", 150, true),
		item("cold-brew", "Cold Brew", CategoryCoffee, "🧊", "CHILLED", "Steeped for eighteen hours, served over ice.", 180, false),
		item("masala-chai", "Masala Chai", CategoryTea, "🍵", "SPICED", "Black tea simmered with ginger, cardamom and milk.", 90, true),
		item("green-tea", "Green Tea", CategoryTea, "🍵", "LIGHT", "Delicate loose-leaf green tea.", 100, false),
		item("iced-peach-tea", "Iced Peach Tea", CategoryTea, "🍑", "CHILLED", "Black tea shaken with peach and lemon.", 140, false),
		item("croissant", "Butter Croissant", CategoryFood, "🥐", "BAKED", "Flaky, all-butter croissant baked every morning.", 110, false),
		item("avocado-toast", "Avocado Toast", CategoryFood, "🥑", "FRESH", "Sourdough, smashed avocado, chilli flakes and lime.", 220, true),
		item("club-sandwich", "Club Sandwich", CategoryFood, "🥪", "HEARTY", "Triple-decker with chicken, egg and crisp lettuce.", 260, false),
		item("tiramisu", "Tiramisu", CategorySweet, "🍰", "HOUSE", "Espresso-soaked ladyfingers layered with mascarpone.", 210, true),
		item("brownie", "Fudge Brownie", CategorySweet, "🍫", "RICH", "Dense chocolate brownie, served warm.", 150, false),
	}
}
