package cart

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

const StorageKey = "pgp_cart_v1"

type storedItem struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Price           json.Number `json:"price"`
	Currency        string      `json:"currency,omitempty"`
	Quantity        int         `json:"quantity"`
	Image           string      `json:"image"`
	LongDescription string      `json:"longDescription,omitempty"`
}

type probe struct {
	ID              *string         `json:"id"`
	Name            *string         `json:"name"`
	Price           json.RawMessage `json:"price"`
	Currency        *string         `json:"currency"`
	Quantity        json.RawMessage `json:"quantity"`
	Image           *string         `json:"image"`
	LongDescription *string         `json:"longDescription"`
}

// Marshal serializes items as a JSON array with prices as JSON numbers.
func Marshal(items []Item) ([]byte, error) {
	out := make([]storedItem, 0, len(items))
	for _, it := range items {
		out = append(out, storedItem{
			ID:              it.ID,
			Name:            it.Name,
			Price:           json.Number(it.Price.String()),
			Currency:        it.Currency,
			Quantity:        it.Quantity,
			Image:           it.Image,
			LongDescription: it.LongDescription,
		})
	}
	return json.Marshal(out)
}

// ParseItems accepts a stored payload and keeps only structurally valid
// entries. It never fails: garbage yields an empty slice and every rejected
// entry is counted in dropped.
func ParseItems(raw []byte, defaultCurrency string) (items []Item, dropped int) {
	items = []Item{}
	if len(bytes.TrimSpace(raw)) == 0 {
		return items, 0
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return items, 0
	}

	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		item, ok := parseItem(entry, defaultCurrency)
		if !ok {
			dropped++
			continue
		}
		if _, dup := seen[item.ID]; dup {
			dropped++
			continue
		}
		seen[item.ID] = struct{}{}
		items = append(items, item)
	}
	return items, dropped
}

func parseItem(entry json.RawMessage, defaultCurrency string) (Item, bool) {
	var p probe
	if err := json.Unmarshal(entry, &p); err != nil {
		return Item{}, false
	}
	if p.ID == nil || p.Name == nil || p.Image == nil {
		return Item{}, false
	}

	price, ok := parseNumber(p.Price)
	if !ok {
		return Item{}, false
	}
	qty, ok := parseNumber(p.Quantity)
	if !ok || !qty.IsInteger() || qty.LessThan(decimal.NewFromInt(1)) || !qty.BigInt().IsInt64() {
		return Item{}, false
	}

	item := Item{
		ID:       *p.ID,
		Name:     *p.Name,
		Price:    price,
		Currency: defaultCurrency,
		Quantity: int(qty.IntPart()),
		Image:    *p.Image,
	}
	if p.Currency != nil && *p.Currency != "" {
		item.Currency = *p.Currency
	}
	if p.LongDescription != nil {
		item.LongDescription = *p.LongDescription
	}
	return item, true
}

// parseNumber only accepts a bare JSON number literal.
func parseNumber(raw json.RawMessage) (decimal.Decimal, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return decimal.Decimal{}, false
	}
	if c := raw[0]; c != '-' && (c < '0' || c > '9') {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(string(raw))
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}
