package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/erazemk/lumiere/internal/funnel"
	"github.com/erazemk/lumiere/internal/model"
)

var (
	// ErrOrderNotFound is returned by status updates for unknown order ids.
	ErrOrderNotFound = errors.New("order not found")
	// ErrStaleStatus is returned when the stored status no longer matches
	// the status the caller saw.
	ErrStaleStatus = errors.New("order status has changed")
	// ErrMenuItemUnavailable is returned when an order references a menu
	// item that does not exist or is switched off.
	ErrMenuItemUnavailable = errors.New("menu item unavailable")
	// ErrEmptyOrder is returned when an order has no lines.
	ErrEmptyOrder = errors.New("order has no items")
)

// StaleStatusError carries the status actually stored when a guarded
// update loses the race.
type StaleStatusError struct {
	Expected model.Status
	Current  model.Status
}

func (e *StaleStatusError) Error() string {
	return fmt.Sprintf("order status is %s, not %s", e.Current, e.Expected)
}

// Is matches ErrStaleStatus.
func (e *StaleStatusError) Is(target error) bool {
	return target == ErrStaleStatus
}

// NewOrder is the input of CreateOrder.
type NewOrder struct {
	Table    string
	Note     string
	PlacedAt time.Time
	Lines    []model.CartLine
}

const orderColumns = `id, table_no, total, status, note, placed_at, timestamp`

// CreateOrder resolves the lines against the menu and writes the order and
// its item copies in a single transaction. The store timestamp is strictly
// greater than that of any earlier order.
func CreateOrder(ctx context.Context, db *sql.DB, in NewOrder) (*model.Order, error) {
	cart := model.NewCart(in.Lines)
	if cart.Empty() {
		return nil, ErrEmptyOrder
	}
	if in.PlacedAt.IsZero() {
		in.PlacedAt = time.Now()
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generating order id: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	items := make([]model.OrderItem, 0, len(cart.Lines()))
	for _, line := range cart.Lines() {
		m, err := getMenuItem(ctx, tx, line.MenuItemID)
		if err != nil {
			return nil, err
		}
		if m == nil || !m.Available {
			return nil, fmt.Errorf("%q: %w", line.MenuItemID, ErrMenuItemUnavailable)
		}
		items = append(items, m.Snapshot(line.Qty))
	}
	total := model.ItemsTotal(items)

	var last sql.NullInt64
	if err := tx.QueryRowContext(ctx, `SELECT MAX(timestamp) FROM orders`).Scan(&last); err != nil {
		return nil, fmt.Errorf("reading last timestamp: %w", err)
	}
	ts := time.Now().UnixMilli()
	if last.Valid && ts <= last.Int64 {
		ts = last.Int64 + 1
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO orders (`+orderColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id.String(), strings.TrimSpace(in.Table), total, model.StatusNew,
		strings.TrimSpace(in.Note), in.PlacedAt.UTC(), ts,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting order: %w", err)
	}

	for i, it := range items {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO order_items (order_id, position, item_id, name, emoji, image_url, category, qty, price)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id.String(), i, it.ID, it.Name, it.Emoji, it.ImageURL, it.Category, it.Qty, it.Price,
		)
		if err != nil {
			return nil, fmt.Errorf("inserting order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing order: %w", err)
	}

	return GetOrder(ctx, db, id.String())
}

// GetOrder returns an order with its items.
func GetOrder(ctx context.Context, db *sql.DB, id string) (*model.Order, error) {
	o, err := scanOrder(db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting order: %w", err)
	}

	rows, err := db.QueryContext(ctx,
		`SELECT order_id, item_id, name, emoji, image_url, category, qty, price
		 FROM order_items WHERE order_id = ? ORDER BY position`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("getting order items: %w", err)
	}
	defer rows.Close()

	byOrder, err := scanOrderItems(rows)
	if err != nil {
		return nil, err
	}
	o.Items = byOrder[id]
	return o, nil
}

// ListOrders returns every order with its items, newest first.
func ListOrders(ctx context.Context, db *sql.DB) ([]model.Order, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders ORDER BY timestamp DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning order: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	rows.Close()

	itemRows, err := db.QueryContext(ctx,
		`SELECT order_id, item_id, name, emoji, image_url, category, qty, price
		 FROM order_items ORDER BY order_id, position`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing order items: %w", err)
	}
	defer itemRows.Close()

	byOrder, err := scanOrderItems(itemRows)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = byOrder[orders[i].ID]
	}
	return orders, nil
}

// AdvanceOrderStatus moves an order from expected to to on behalf of actor.
// The update only applies while the stored status still equals expected;
// otherwise a *StaleStatusError is returned. An empty expected means "the
// status currently stored". Successful moves are recorded in the status
// history.
func AdvanceOrderStatus(ctx context.Context, db *sql.DB, f *funnel.Funnel, id string, expected, to model.Status, actor model.Role) (*model.Order, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var current model.Status
	err = tx.QueryRowContext(ctx, `SELECT status FROM orders WHERE id = ?`, id).Scan(&current)
	if err == sql.ErrNoRows {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading order status: %w", err)
	}

	if expected == "" {
		expected = current
	}
	if current != expected {
		return nil, &StaleStatusError{Expected: expected, Current: current}
	}
	if err := f.Allow(expected, to, actor); err != nil {
		return nil, err
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = ? WHERE id = ? AND status = ?`,
		to, id, expected,
	)
	if err != nil {
		return nil, fmt.Errorf("updating order status: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		if err := tx.QueryRowContext(ctx, `SELECT status FROM orders WHERE id = ?`, id).Scan(&current); err != nil {
			return nil, fmt.Errorf("re-reading order status: %w", err)
		}
		return nil, &StaleStatusError{Expected: expected, Current: current}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO order_status_history (order_id, from_status, to_status, actor, changed_at)
		 VALUES (?, ?, ?, ?, ?)`,
		id, expected, to, actor, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("recording status change: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing status change: %w", err)
	}

	return GetOrder(ctx, db, id)
}

// GetOrderHistory returns the status changes of an order, oldest first.
func GetOrderHistory(ctx context.Context, db *sql.DB, orderID string) ([]model.StatusHistory, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, order_id, from_status, to_status, actor, changed_at
		 FROM order_status_history WHERE order_id = ? ORDER BY id`, orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting order history: %w", err)
	}
	defer rows.Close()

	var history []model.StatusHistory
	for rows.Next() {
		var h model.StatusHistory
		if err := rows.Scan(&h.ID, &h.OrderID, &h.From, &h.To, &h.Actor, &h.ChangedAt); err != nil {
			return nil, fmt.Errorf("scanning status change: %w", err)
		}
		history = append(history, h)
	}
	return history, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*model.Order, error) {
	o := &model.Order{}
	if err := row.Scan(&o.ID, &o.Table, &o.Total, &o.Status, &o.Note, &o.PlacedAt, &o.Timestamp); err != nil {
		return nil, err
	}
	o.Status = model.StatusOrDefault(o.Status)
	return o, nil
}

func scanOrderItems(rows *sql.Rows) (map[string][]model.OrderItem, error) {
	byOrder := make(map[string][]model.OrderItem)
	for rows.Next() {
		var orderID string
		var it model.OrderItem
		var price decimal.Decimal
		if err := rows.Scan(&orderID, &it.ID, &it.Name, &it.Emoji, &it.ImageURL, &it.Category, &it.Qty, &price); err != nil {
			return nil, fmt.Errorf("scanning order item: %w", err)
		}
		it.Price = price
		byOrder[orderID] = append(byOrder[orderID], it)
	}
	return byOrder, rows.Err()
}
