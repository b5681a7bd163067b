package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type JournalEvent string

const (
	EventTransactionCreated JournalEvent = "transaction_created"
	EventDeliveryUpdated    JournalEvent = "delivery_updated"
	EventPaymentResult      JournalEvent = "payment_result"
	EventCheckoutAborted    JournalEvent = "checkout_aborted"
)

// JournalEntry is an append-only checkout milestone. It carries no card data.
type JournalEntry struct {
	SessionID     string
	ShopperID     string
	Event         JournalEvent
	Step          string
	TransactionID string
	RequestID     string
	Amount        decimal.Decimal
	Currency      string
	Status        string
	Message       string
	CreatedAt     time.Time
}

type CheckoutJournal interface {
	Record(ctx context.Context, entry JournalEntry) error
	ListBySession(ctx context.Context, sessionID string) ([]JournalEntry, error)
}

type NopJournal struct{}

func (NopJournal) Record(context.Context, JournalEntry) error { return nil }

func (NopJournal) ListBySession(context.Context, string) ([]JournalEntry, error) {
	return nil, nil
}
