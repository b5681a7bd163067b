package checkout

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/yuzvak/storefront-checkout/internal/domain/cart"
	domainErrors "github.com/yuzvak/storefront-checkout/internal/domain/errors"
	"github.com/yuzvak/storefront-checkout/internal/domain/pricing"
)

type SelectionItem struct {
	ID       string          `json:"id"`
	Name     string          `json:"name,omitempty"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
}

// Selection is the snapshot checkout runs against. The live cart may keep
// changing after it is taken.
type Selection struct {
	Items    []SelectionItem `json:"items"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

func NewSelection(items []SelectionItem) (Selection, error) {
	if len(items) == 0 {
		return Selection{}, domainErrors.ErrEmptySelection
	}

	currency := items[0].Currency
	lines := make([]pricing.Line, 0, len(items))
	snapshot := make([]SelectionItem, 0, len(items))
	for _, it := range items {
		if it.Quantity < 1 {
			return Selection{}, domainErrors.ErrInvalidQuantity
		}
		if it.Price.IsNegative() {
			return Selection{}, domainErrors.ErrNegativeAmount
		}
		if !strings.EqualFold(it.Currency, currency) {
			return Selection{}, domainErrors.ErrMixedCurrency
		}
		lines = append(lines, pricing.Line{Price: it.Price, Quantity: it.Quantity})
		snapshot = append(snapshot, it)
	}

	return Selection{
		Items:    snapshot,
		Amount:   pricing.Subtotal(lines),
		Currency: currency,
	}, nil
}

func SelectionFromCart(items []cart.Item) (Selection, error) {
	out := make([]SelectionItem, 0, len(items))
	for _, it := range items {
		out = append(out, SelectionItem{
			ID:       it.ID,
			Name:     it.Name,
			Quantity: it.Quantity,
			Price:    it.Price,
			Currency: it.Currency,
		})
	}
	return NewSelection(out)
}

// Validate re-checks the single-currency rule before a dependent gateway call.
func (s Selection) Validate() error {
	_, err := NewSelection(s.Items)
	return err
}

func (s Selection) IsEmpty() bool {
	return len(s.Items) == 0
}
