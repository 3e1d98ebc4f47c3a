package billing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"meditrack/m/domain"
)

// Line is one cart row keyed by medicine name.
type Line struct {
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int64           `json:"quantity"`
}

// Subtotal is unit price times quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity))
}

// MaxLineQuantity caps the units a single cart line may hold.
const MaxLineQuantity int64 = 100000

// Cart holds the pending lines of one sale in the order they were added.
// It is not safe for concurrent use.
type Cart struct {
	order []string
	lines map[string]*Line
}

// NewCart returns an empty cart.
func NewCart() *Cart {
	return &Cart{lines: make(map[string]*Line)}
}

// Add puts one unit of name in the cart.
func (c *Cart) Add(name string, unitPrice decimal.Decimal) error {
	return c.AddQuantity(name, unitPrice, 1)
}

// AddQuantity puts qty units of name in the cart. An existing line must be
// priced the same and may not grow past MaxLineQuantity.
func (c *Cart) AddQuantity(name string, unitPrice decimal.Decimal, qty int64) error {
	if qty <= 0 {
		return domain.Invalid(name+" quantity", "must be positive")
	}
	if c.lines == nil {
		c.lines = make(map[string]*Line)
	}
	if line, ok := c.lines[name]; ok {
		if !line.UnitPrice.Equal(unitPrice) {
			return domain.Invalid(name+" unit_price",
				fmt.Sprintf("%s differs from %s already in the cart", unitPrice.String(), line.UnitPrice.String()))
		}
		if qty > MaxLineQuantity-line.Quantity {
			return tooMany(name)
		}
		line.Quantity += qty
		return nil
	}
	if qty > MaxLineQuantity {
		return tooMany(name)
	}
	c.lines[name] = &Line{Name: name, UnitPrice: unitPrice, Quantity: qty}
	c.order = append(c.order, name)
	return nil
}

func tooMany(name string) error {
	return domain.Invalid(name+" quantity", fmt.Sprintf("cannot exceed %d", MaxLineQuantity))
}

// ChangeQuantity adjusts the quantity of name by delta. The quantity never
// drops below zero and a line reaching zero is removed. Unknown names are
// ignored.
func (c *Cart) ChangeQuantity(name string, delta int64) error {
	line, ok := c.lines[name]
	if !ok {
		return nil
	}
	if delta > MaxLineQuantity-line.Quantity {
		return tooMany(name)
	}
	line.Quantity += delta
	if line.Quantity <= 0 {
		c.Remove(name)
	}
	return nil
}

// SetQuantity replaces the quantity of an existing line; zero or less removes it.
func (c *Cart) SetQuantity(name string, qty int64) error {
	line, ok := c.lines[name]
	if !ok {
		return nil
	}
	if qty <= 0 {
		c.Remove(name)
		return nil
	}
	return c.ChangeQuantity(name, qty-line.Quantity)
}

// Remove drops the line for name.
func (c *Cart) Remove(name string) {
	if _, ok := c.lines[name]; !ok {
		return
	}
	delete(c.lines, name)
	for i, n := range c.order {
		if n == name {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Quantity returns the quantity held for name, zero when absent.
func (c *Cart) Quantity(name string) int64 {
	if line, ok := c.lines[name]; ok {
		return line.Quantity
	}
	return 0
}

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, *c.lines[name])
	}
	return out
}

// Len is the number of distinct lines.
func (c *Cart) Len() int { return len(c.order) }

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool { return len(c.order) == 0 }

// Clear drops every line.
func (c *Cart) Clear() {
	c.order = nil
	c.lines = make(map[string]*Line)
}

// Subtotal sums every line.
func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, name := range c.order {
		sum = sum.Add(c.lines[name].Subtotal())
	}
	return sum
}

// BillLines renders the cart as printable bill rows.
func (c *Cart) BillLines() []domain.BillLine {
	out := make([]domain.BillLine, 0, len(c.order))
	for _, l := range c.Lines() {
		out = append(out, domain.BillLine{
			Name:      l.Name,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
			Subtotal:  l.Subtotal(),
		})
	}
	return out
}
