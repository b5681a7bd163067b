package catalog

import (
	"github.com/shopspring/decimal"
)

type Product struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	LongDescription string          `json:"longDescription,omitempty"`
	Price           decimal.Decimal `json:"price"`
	Currency        string          `json:"currency"`
	Stock           int             `json:"stock"`
	Image           string          `json:"image"`
	Images          []string        `json:"images,omitempty"`
}

func (p *Product) InStock() bool {
	return p.Stock > 0
}
