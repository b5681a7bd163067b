package use_cases

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/yuzvak/storefront-checkout/internal/application/ports"
	"github.com/yuzvak/storefront-checkout/internal/domain/catalog"
	"github.com/yuzvak/storefront-checkout/internal/domain/checkout"
	"github.com/yuzvak/storefront-checkout/internal/domain/payment"
)

type fakeGateway struct {
	mu    sync.Mutex
	calls map[string]int

	products map[string]catalog.Product

	lookup   func(email string) (ports.CustomerProfile, string, error)
	create   func(req ports.CreateTransactionRequest) (ports.TransactionResponse, string, error)
	delivery func(deliveryID, transactionID string, d checkout.Delivery) (ports.DeliveryResponse, string, error)
	pay      func(transactionID string, card payment.CardData) (ports.PaymentResponse, string, error)
	product  func(id string) (catalog.Product, string, error)

	lastCreate ports.CreateTransactionRequest
	lastCard   payment.CardData
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		calls:    make(map[string]int),
		products: make(map[string]catalog.Product),
		lookup: func(string) (ports.CustomerProfile, string, error) {
			return ports.CustomerProfile{}, "", &ports.GatewayError{StatusCode: 404, Message: "not found", RequestID: "req-lookup"}
		},
		create: func(ports.CreateTransactionRequest) (ports.TransactionResponse, string, error) {
			return ports.TransactionResponse{ID: "tx-1", DeliveryID: "dl-1", Status: "PENDING"}, "req-create", nil
		},
		delivery: func(deliveryID, _ string, _ checkout.Delivery) (ports.DeliveryResponse, string, error) {
			return ports.DeliveryResponse{ID: deliveryID}, "req-delivery", nil
		},
		pay: func(transactionID string, _ payment.CardData) (ports.PaymentResponse, string, error) {
			return ports.PaymentResponse{Status: "APPROVED", TransactionID: transactionID}, "req-pay", nil
		},
	}
}

func (g *fakeGateway) count(name string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[name]
}

func (g *fakeGateway) hit(name string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls[name]++
}

func (g *fakeGateway) ListProducts(ctx context.Context) ([]catalog.Product, string, error) {
	g.hit("ListProducts")
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]catalog.Product, 0, len(g.products))
	for _, p := range g.products {
		out = append(out, p)
	}
	return out, "req-list", nil
}

func (g *fakeGateway) GetProduct(ctx context.Context, id string) (catalog.Product, string, error) {
	g.hit("GetProduct")
	if g.product != nil {
		return g.product(id)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.products[id]
	if !ok {
		return catalog.Product{}, "", &ports.GatewayError{StatusCode: 404, Message: "product not found", RequestID: "req-product"}
	}
	return p, "req-product", nil
}

func (g *fakeGateway) LookupCustomer(ctx context.Context, email string) (ports.CustomerProfile, string, error) {
	g.hit("LookupCustomer")
	return g.lookup(email)
}

func (g *fakeGateway) CreateTransaction(ctx context.Context, req ports.CreateTransactionRequest) (ports.TransactionResponse, string, error) {
	g.hit("CreateTransaction")
	g.mu.Lock()
	g.lastCreate = req
	g.mu.Unlock()
	return g.create(req)
}

func (g *fakeGateway) UpdateDelivery(ctx context.Context, deliveryID, transactionID string, d checkout.Delivery) (ports.DeliveryResponse, string, error) {
	g.hit("UpdateDelivery")
	return g.delivery(deliveryID, transactionID, d)
}

func (g *fakeGateway) PayTransaction(ctx context.Context, transactionID string, card payment.CardData) (ports.PaymentResponse, string, error) {
	g.hit("PayTransaction")
	g.mu.Lock()
	g.lastCard = card
	g.mu.Unlock()
	return g.pay(transactionID, card)
}

func (g *fakeGateway) ListAdminTransactions(ctx context.Context, email string, limit, offset int) (ports.AdminTransactionPage, string, error) {
	g.hit("ListAdminTransactions")
	return ports.AdminTransactionPage{}, "req-admin", nil
}

type memoryStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	saves   int
	saveErr error
	loadErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: make(map[string][]byte)}
}

func (s *memoryStore) Load(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.data[key], nil
}

func (s *memoryStore) Save(ctx context.Context, key string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.data[key] = append([]byte(nil), payload...)
	return nil
}

func (s *memoryStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

type recordingJournal struct {
	mu      sync.Mutex
	entries []ports.JournalEntry
	err     error
}

func (j *recordingJournal) Record(ctx context.Context, e ports.JournalEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.err != nil {
		return j.err
	}
	j.entries = append(j.entries, e)
	return nil
}

func (j *recordingJournal) ListBySession(ctx context.Context, sessionID string) ([]ports.JournalEntry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	var out []ports.JournalEntry
	for _, e := range j.entries {
		if e.SessionID == sessionID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (j *recordingJournal) events() []ports.JournalEvent {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]ports.JournalEvent, 0, len(j.entries))
	for _, e := range j.entries {
		out = append(out, e.Event)
	}
	return out
}

var errNetwork = errors.New("connection refused")

func testProduct(id, price, currency string) catalog.Product {
	return catalog.Product{
		ID:       id,
		Name:     "Product " + id,
		Price:    decimal.RequireFromString(price),
		Currency: currency,
		Stock:    10,
		Image:    "https://img/" + id,
	}
}
