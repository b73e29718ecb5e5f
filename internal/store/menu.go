package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/erazemk/lumiere/internal/model"
)

// ErrInvalidMenuItem is returned for menu items that fail validation.
var ErrInvalidMenuItem = errors.New("invalid menu item")

const menuColumns = `id, name, category, emoji, image_url, tag, description, price, special, available`

const menuOrder = `ORDER BY CASE category
	WHEN 'coffee' THEN 0 WHEN 'tea' THEN 1 WHEN 'food' THEN 2 WHEN 'sweet' THEN 3 ELSE 4 END, name`

// ListMenu returns menu items in display order, optionally only the
// available ones.
func ListMenu(ctx context.Context, db *sql.DB, availableOnly bool) ([]model.MenuItem, error) {
	query := `SELECT ` + menuColumns + ` FROM menu_items`
	if availableOnly {
		query += ` WHERE available = 1`
	}
	query += ` ` + menuOrder

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing menu: %w", err)
	}
	defer rows.Close()

	var items []model.MenuItem
	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning menu item: %w", err)
		}
		items = append(items, *m)
	}
	return items, rows.Err()
}

// GetMenuItem returns a menu item by ID.
func GetMenuItem(ctx context.Context, db *sql.DB, id string) (*model.MenuItem, error) {
	return getMenuItem(ctx, db, id)
}

func getMenuItem(ctx context.Context, q querier, id string) (*model.MenuItem, error) {
	m, err := scanMenuItem(q.QueryRowContext(ctx,
		`SELECT `+menuColumns+` FROM menu_items WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting menu item: %w", err)
	}
	return m, nil
}

// CreateMenuItem stores a new menu item. An empty ID is replaced by a
// generated one.
func CreateMenuItem(ctx context.Context, db *sql.DB, item model.MenuItem) (*model.MenuItem, error) {
	if item.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("generating menu item id: %w", err)
		}
		item.ID = id.String()
	}
	item.Normalize()
	if err := validateMenuItem(item); err != nil {
		return nil, err
	}

	if err := insertMenuItem(ctx, db, item); err != nil {
		return nil, err
	}
	return GetMenuItem(ctx, db, item.ID)
}

// UpdateMenuItem replaces the editable fields of a menu item.
func UpdateMenuItem(ctx context.Context, db *sql.DB, item model.MenuItem) (*model.MenuItem, error) {
	item.Normalize()
	if err := validateMenuItem(item); err != nil {
		return nil, err
	}

	result, err := db.ExecContext(ctx,
		`UPDATE menu_items SET name = ?, category = ?, emoji = ?, image_url = ?, tag = ?,
		        description = ?, price = ?, special = ?, available = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		item.Name, item.Category, item.Emoji, item.ImageURL, item.Tag,
		item.Desc, item.Price, item.Special, item.Available, item.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating menu item: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, nil
	}
	return GetMenuItem(ctx, db, item.ID)
}

// SetMenuItemAvailable switches a menu item on or off.
func SetMenuItemAvailable(ctx context.Context, db *sql.DB, id string, available bool) (*model.MenuItem, error) {
	return setMenuFlag(ctx, db, id, "available", available)
}

// SetMenuItemSpecial marks or unmarks a menu item as a Chef's Pick.
func SetMenuItemSpecial(ctx context.Context, db *sql.DB, id string, special bool) (*model.MenuItem, error) {
	return setMenuFlag(ctx, db, id, "special", special)
}

func setMenuFlag(ctx context.Context, db *sql.DB, id, column string, value bool) (*model.MenuItem, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE menu_items SET `+column+` = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		value, id,
	)
	if err != nil {
		return nil, fmt.Errorf("setting menu item %s: %w", column, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, nil
	}
	return GetMenuItem(ctx, db, id)
}

// DeleteMenuItem removes a menu item. Orders keep their copies. It reports
// whether an item was removed.
func DeleteMenuItem(ctx context.Context, db *sql.DB, id string) (bool, error) {
	result, err := db.ExecContext(ctx, `DELETE FROM menu_items WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("deleting menu item: %w", err)
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

// SeedMenu writes items when the menu is empty, all in one transaction. It
// returns the number of items written, zero when the menu already had
// items.
func SeedMenu(ctx context.Context, db *sql.DB, items []model.MenuItem) (int, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM menu_items`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting menu items: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	for _, item := range items {
		item.Normalize()
		if err := validateMenuItem(item); err != nil {
			return 0, err
		}
		if err := insertMenuItem(ctx, tx, item); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing menu seed: %w", err)
	}
	return len(items), nil
}

func insertMenuItem(ctx context.Context, q querier, item model.MenuItem) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO menu_items (`+menuColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.Name, item.Category, item.Emoji, item.ImageURL, item.Tag,
		item.Desc, item.Price, item.Special, item.Available,
	)
	if err != nil {
		return fmt.Errorf("inserting menu item: %w", err)
	}
	return nil
}

func validateMenuItem(item model.MenuItem) error {
	switch {
	case item.ID == "":
		return fmt.Errorf("%w: missing id", ErrInvalidMenuItem)
	case item.Name == "":
		return fmt.Errorf("%w: missing name", ErrInvalidMenuItem)
	case item.Price.IsNegative():
		return fmt.Errorf("%w: negative price", ErrInvalidMenuItem)
	case utf8.RuneCountInString(item.Desc) > model.MaxDescLength:
		return fmt.Errorf("%w: description longer than %d characters", ErrInvalidMenuItem, model.MaxDescLength)
	}
	return nil
}

func scanMenuItem(row rowScanner) (*model.MenuItem, error) {
	m := &model.MenuItem{}
	if err := row.Scan(&m.ID, &m.Name, &m.Category, &m.Emoji, &m.ImageURL, &m.Tag,
		&m.Desc, &m.Price, &m.Special, &m.Available); err != nil {
		return nil, err
	}
	return m, nil
}
