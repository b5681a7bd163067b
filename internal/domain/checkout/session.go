package checkout

import (
	"strings"

	domainErrors "github.com/yuzvak/storefront-checkout/internal/domain/errors"
)

type Customer struct {
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
}

type Delivery struct {
	AddressLine1 string `json:"addressLine1"`
	City         string `json:"city"`
	Country      string `json:"country"`
	PostalCode   string `json:"postalCode"`
}

func (c Customer) Validate() error {
	if !IsValidEmail(c.Email) {
		return domainErrors.ErrInvalidEmail
	}
	if blank(c.FullName) || blank(c.Phone) {
		return domainErrors.ErrIncompleteContact
	}
	return nil
}

func (d Delivery) Validate() error {
	if blank(d.AddressLine1) || blank(d.City) || blank(d.PostalCode) || blank(d.Country) {
		return domainErrors.ErrIncompleteAddress
	}
	return nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Session is the checkout state owned by one orchestrator.
type Session struct {
	ID            string
	Selection     *Selection
	Customer      Customer
	Delivery      Delivery
	TransactionID string
	DeliveryID    string
	LastRequestID string
}

func NewSession(id string) *Session {
	return &Session{ID: id}
}

func (s *Session) HasTransaction() bool {
	return s.TransactionID != ""
}

// IsValidEmail is a plausibility check only.
func IsValidEmail(email string) bool {
	trimmed := strings.TrimSpace(email)
	return len(trimmed) > 3 && strings.Contains(trimmed, "@")
}
