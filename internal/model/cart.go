package model

// CartLine is one entry of a cart.
type CartLine struct {
	MenuItemID string `json:"menuItemId"`
	Qty        int    `json:"qty"`
}

// Cart is a session-local ordered set of menu item quantities. It is never
// persisted; placing an order consumes it.
type Cart struct {
	lines []CartLine
}

// NewCart folds lines into a cart. Repeated ids are merged and lines whose
// quantity ends up below one are dropped.
func NewCart(lines []CartLine) *Cart {
	c := &Cart{}
	for _, l := range lines {
		c.Update(l.MenuItemID, l.Qty)
	}
	return c
}

// Add increments the quantity of id by one, appending it if absent.
func (c *Cart) Add(id string) {
	c.Update(id, 1)
}

// Update changes the quantity of id by delta, removing the line when it
// reaches zero.
func (c *Cart) Update(id string, delta int) {
	for i := range c.lines {
		if c.lines[i].MenuItemID != id {
			continue
		}
		c.lines[i].Qty += delta
		if c.lines[i].Qty <= 0 {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
		}
		return
	}
	if delta > 0 && id != "" {
		c.lines = append(c.lines, CartLine{MenuItemID: id, Qty: delta})
	}
}

// Lines returns the cart lines in insertion order.
func (c *Cart) Lines() []CartLine {
	out := make([]CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

// Count returns the total quantity across all lines.
func (c *Cart) Count() int {
	n := 0
	for _, l := range c.lines {
		n += l.Qty
	}
	return n
}

// Empty reports whether the cart has no lines.
func (c *Cart) Empty() bool {
	return len(c.lines) == 0
}

// Clear discards every line.
func (c *Cart) Clear() {
	c.lines = nil
}
