package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckoutError_Error(t *testing.T) {
	err := NewCheckoutError(KindOutOfStock, ErrOutOfStock, "Sold out", "req-1")
	assert.Equal(t, "out_of_stock: Sold out (request id: req-1)", err.Error())

	err = NewCheckoutError(KindValidation, ErrInvalidEmail, "", "")
	assert.Equal(t, "validation: email is invalid", err.Error())
}

func TestCheckoutError_UnwrapAndKind(t *testing.T) {
	wrapped := fmt.Errorf("submit billing: %w", NewCheckoutError(KindAmountMismatch, ErrAmountMismatch, "", "r"))

	assert.True(t, errors.Is(wrapped, ErrAmountMismatch))
	kind, ok := KindOf(wrapped)
	assert.True(t, ok)
	assert.Equal(t, KindAmountMismatch, kind)

	_, ok = KindOf(ErrOutOfStock)
	assert.False(t, ok)
}
