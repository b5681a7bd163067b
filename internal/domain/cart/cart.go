package cart

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/yuzvak/storefront-checkout/internal/domain/catalog"
	"github.com/yuzvak/storefront-checkout/internal/domain/pricing"
)

type Item struct {
	ID              string
	Name            string
	Price           decimal.Decimal
	Currency        string
	Quantity        int
	Image           string
	LongDescription string
}

func (i Item) LineTotal() decimal.Decimal {
	return pricing.LineTotal(pricing.Line{Price: i.Price, Quantity: i.Quantity})
}

// Cart keeps one line per product id in insertion order. It is not safe for
// concurrent use; callers serialize access.
type Cart struct {
	items []Item
}

func New(items []Item) *Cart {
	c := &Cart{items: make([]Item, 0, len(items))}
	c.items = append(c.items, items...)
	return c
}

func (c *Cart) indexOf(id string) int {
	for i := range c.items {
		if c.items[i].ID == id {
			return i
		}
	}
	return -1
}

// AddItem bumps the quantity of an existing line without touching its price.
func (c *Cart) AddItem(p catalog.Product) {
	if idx := c.indexOf(p.ID); idx >= 0 {
		c.items[idx].Quantity = addQuantity(c.items[idx].Quantity, 1)
		return
	}
	c.items = append(c.items, Item{
		ID:              p.ID,
		Name:            p.Name,
		Price:           p.Price,
		Currency:        p.Currency,
		Quantity:        1,
		Image:           p.Image,
		LongDescription: p.LongDescription,
	})
}

func (c *Cart) UpdateQuantity(id string, delta int) {
	idx := c.indexOf(id)
	if idx < 0 {
		return
	}
	next := addQuantity(c.items[idx].Quantity, delta)
	if next <= 0 {
		c.removeAt(idx)
		return
	}
	c.items[idx].Quantity = next
}

// addQuantity saturates at math.MaxInt. Quantities are never negative, so
// only a positive delta can overflow.
func addQuantity(current, delta int) int {
	if delta > 0 && current > math.MaxInt-delta {
		return math.MaxInt
	}
	return current + delta
}

func (c *Cart) RemoveItem(id string) {
	if idx := c.indexOf(id); idx >= 0 {
		c.removeAt(idx)
	}
}

func (c *Cart) removeAt(idx int) {
	c.items = append(c.items[:idx], c.items[idx+1:]...)
}

// UpdateItemPrice reconciles a line against the server price. An empty
// currency keeps the current one.
func (c *Cart) UpdateItemPrice(id string, price decimal.Decimal, currency string) {
	idx := c.indexOf(id)
	if idx < 0 {
		return
	}
	c.items[idx].Price = price
	if currency != "" {
		c.items[idx].Currency = currency
	}
}

func (c *Cart) Clear() {
	c.items = c.items[:0]
}

func (c *Cart) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) Find(id string) (Item, bool) {
	if idx := c.indexOf(id); idx >= 0 {
		return c.items[idx], true
	}
	return Item{}, false
}

func (c *Cart) Len() int {
	return len(c.items)
}

func (c *Cart) IsEmpty() bool {
	return len(c.items) == 0
}

// Count is the total number of units across all lines.
func (c *Cart) Count() int {
	n := 0
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

func (c *Cart) Subtotal() decimal.Decimal {
	lines := make([]pricing.Line, 0, len(c.items))
	for _, it := range c.items {
		lines = append(lines, pricing.Line{Price: it.Price, Quantity: it.Quantity})
	}
	return pricing.Subtotal(lines)
}
