package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSubtotal(t *testing.T) {
	lines := []Line{
		{Price: decimal.RequireFromString("100"), Quantity: 2},
		{Price: decimal.RequireFromString("0.10"), Quantity: 3},
	}

	assert.Equal(t, "200", LineTotal(lines[0]).String())
	assert.True(t, Subtotal(lines).Equal(decimal.RequireFromString("200.3")))
	assert.True(t, Subtotal(nil).IsZero())
}

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		currency string
		locale   string
		want     string
	}{
		{"cop default locale", "1234567", "COP", "es-CO", "$ 1.234.567"},
		{"cop rounds", "999.6", "cop", "", "$ 1.000"},
		{"usd en", "1234.5", "USD", "en-US", "US$1,234.50"},
		{"eur es", "12.3", "EUR", "es-CO", "€ 12,30"},
		{"unknown currency", "5", "ABC", "en-US", "ABC5.00"},
		{"negative", "-1500", "COP", "es-CO", "-$ 1.500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatCurrency(decimal.RequireFromString(tt.amount), tt.currency, tt.locale)
			assert.Equal(t, tt.want, got)
		})
	}
}
