package store

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/erazemk/lumiere/internal/db"
	"github.com/erazemk/lumiere/internal/model"
)

func TestSeedMenuOnce(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	n, err := SeedMenu(ctx, database, model.DefaultMenu())
	if err != nil {
		t.Fatalf("SeedMenu: %v", err)
	}
	if n != len(model.DefaultMenu()) {
		t.Errorf("expected %d items seeded, got %d", len(model.DefaultMenu()), n)
	}

	n, err = SeedMenu(ctx, database, model.DefaultMenu())
	if err != nil {
		t.Fatalf("second SeedMenu: %v", err)
	}
	if n != 0 {
		t.Errorf("expected no items on second seed, got %d", n)
	}

	items, _ := ListMenu(ctx, database, false)
	if len(items) != len(model.DefaultMenu()) {
		t.Errorf("expected %d items, got %d", len(model.DefaultMenu()), len(items))
	}
}

func TestListMenuDisplayOrder(t *testing.T) {
	database := seededDB(t)
	items, err := ListMenu(context.Background(), database, false)
	if err != nil {
		t.Fatalf("ListMenu: %v", err)
	}
	for i := 1; i < len(items); i++ {
		a, b := items[i-1], items[i]
		if a.Category.Rank() > b.Category.Rank() ||
			(a.Category == b.Category && a.Name > b.Name) {
			t.Errorf("%s (%s) listed before %s (%s)", a.Name, a.Category, b.Name, b.Category)
		}
	}
}

func TestListMenuAvailableOnly(t *testing.T) {
	database := seededDB(t)
	ctx := context.Background()

	SetMenuItemAvailable(ctx, database, "tiramisu", false)

	all, _ := ListMenu(ctx, database, false)
	avail, _ := ListMenu(ctx, database, true)
	if len(avail) != len(all)-1 {
		t.Errorf("expected %d available, got %d", len(all)-1, len(avail))
	}
	for _, m := range avail {
		if m.ID == "tiramisu" {
			t.Error("unavailable item listed")
		}
	}
}

func TestCreateMenuItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	m, err := CreateMenuItem(ctx, database, model.MenuItem{
		Name:      "  Flat White ",
		Category:  "",
		Tag:       "new",
		Price:     decimal.RequireFromString("135.50"),
		Available: true,
	})
	if err != nil {
		t.Fatalf("CreateMenuItem: %v", err)
	}
	if m.ID == "" {
		t.Error("expected generated id")
	}
	if m.Name != "Flat White" || m.Tag != "NEW" || m.Category != model.CategoryCoffee {
		t.Errorf("expected normalized item, got %+v", m)
	}
	if !m.Price.Equal(decimal.RequireFromString("135.5")) {
		t.Errorf("expected price 135.5, got %s", m.Price)
	}
}

func TestCreateMenuItemInvalid(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	bad := []model.MenuItem{
		{Name: "", Price: decimal.NewFromInt(10)},
		{Name: "Freebie", Price: decimal.NewFromInt(-1)},
		{Name: "Wordy", Price: decimal.NewFromInt(1), Desc: strings.Repeat("a", model.MaxDescLength+1)},
	}
	for _, m := range bad {
		if _, err := CreateMenuItem(ctx, database, m); !errors.Is(err, ErrInvalidMenuItem) {
			t.Errorf("%q: expected ErrInvalidMenuItem, got %v", m.Name, err)
		}
	}
}

func TestToggleMenuFlags(t *testing.T) {
	database := seededDB(t)
	ctx := context.Background()

	m, err := SetMenuItemSpecial(ctx, database, "brownie", true)
	if err != nil {
		t.Fatalf("SetMenuItemSpecial: %v", err)
	}
	if !m.Special || !m.Available {
		t.Errorf("expected special and still available, got %+v", m)
	}

	m, _ = SetMenuItemAvailable(ctx, database, "brownie", false)
	if m.Available || !m.Special {
		t.Errorf("expected unavailable and still special, got %+v", m)
	}

	m, err = SetMenuItemAvailable(ctx, database, "missing", true)
	if err != nil || m != nil {
		t.Errorf("expected nil, nil for missing item, got %+v, %v", m, err)
	}
}

func TestUpdateAndDeleteMenuItem(t *testing.T) {
	database := seededDB(t)
	ctx := context.Background()

	m, _ := GetMenuItem(ctx, database, "green-tea")
	m.Desc = "Sencha, second steep"
	m.Tag = "light"
	if _, err := UpdateMenuItem(ctx, database, *m); err != nil {
		t.Fatalf("UpdateMenuItem: %v", err)
	}
	got, _ := GetMenuItem(ctx, database, "green-tea")
	if got.Desc != "Sencha, second steep" || got.Tag != "LIGHT" {
		t.Errorf("update not stored: %+v", got)
	}

	deleted, err := DeleteMenuItem(ctx, database, "green-tea")
	if err != nil || !deleted {
		t.Fatalf("DeleteMenuItem: %v, %v", deleted, err)
	}
	deleted, _ = DeleteMenuItem(ctx, database, "green-tea")
	if deleted {
		t.Error("expected second delete to report nothing removed")
	}
	if got, _ := GetMenuItem(ctx, database, "green-tea"); got != nil {
		t.Errorf("expected item gone, got %+v", got)
	}
}
