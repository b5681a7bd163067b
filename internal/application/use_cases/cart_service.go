package use_cases

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yuzvak/storefront-checkout/internal/application/ports"
	"github.com/yuzvak/storefront-checkout/internal/domain/cart"
	"github.com/yuzvak/storefront-checkout/internal/domain/catalog"
	"github.com/yuzvak/storefront-checkout/internal/pkg/logger"
)

const defaultSaveTimeout = 3 * time.Second

// CartService owns one cart and writes it back to the store after every
// mutation that changes its serialized form. Write failures are logged and
// never returned: the in-memory cart stays authoritative.
type CartService struct {
	mu    sync.Mutex
	cart  *cart.Cart
	store ports.CartStore
	key   string

	defaultCurrency string
	lastSaved       []byte
	saveTimeout     time.Duration

	log     *logger.Logger
	metrics ports.CheckoutMetrics
}

func NewCartService(
	ctx context.Context,
	store ports.CartStore,
	key string,
	defaultCurrency string,
	metrics ports.CheckoutMetrics,
	log *logger.Logger,
) *CartService {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	s := &CartService{
		store:           store,
		key:             key,
		defaultCurrency: defaultCurrency,
		saveTimeout:     defaultSaveTimeout,
		log:             log.WithField("cart_key", key),
		metrics:         metrics,
	}
	s.hydrate(ctx)
	return s
}

func (s *CartService) hydrate(ctx context.Context) {
	raw, err := s.store.Load(ctx, s.key)
	if err != nil {
		s.log.Warn("Failed to load stored cart, starting empty", "error", err)
		raw = nil
	}

	items, dropped := cart.ParseItems(raw, s.defaultCurrency)
	if dropped > 0 {
		s.log.Warn("Dropped malformed cart entries", "dropped", dropped)
		s.metrics.CartEntriesDropped(dropped)
	}

	s.cart = cart.New(items)
	s.lastSaved, _ = cart.Marshal(items)
}

func (s *CartService) Items() []cart.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Items()
}

func (s *CartService) Find(id string) (cart.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Find(id)
}

func (s *CartService) Subtotal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Subtotal()
}

func (s *CartService) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Count()
}

func (s *CartService) AddItem(ctx context.Context, p catalog.Product) {
	s.mutate(ctx, func(c *cart.Cart) { c.AddItem(p) })
}

func (s *CartService) UpdateQuantity(ctx context.Context, id string, delta int) {
	s.mutate(ctx, func(c *cart.Cart) { c.UpdateQuantity(id, delta) })
}

func (s *CartService) RemoveItem(ctx context.Context, id string) {
	s.mutate(ctx, func(c *cart.Cart) { c.RemoveItem(id) })
}

func (s *CartService) UpdateItemPrice(ctx context.Context, id string, price decimal.Decimal, currency string) {
	s.mutate(ctx, func(c *cart.Cart) { c.UpdateItemPrice(id, price, currency) })
}

func (s *CartService) Clear(ctx context.Context) {
	s.mutate(ctx, func(c *cart.Cart) { c.Clear() })
}

func (s *CartService) mutate(ctx context.Context, fn func(c *cart.Cart)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(s.cart)
	s.persistLocked(ctx)
}

func (s *CartService) persistLocked(ctx context.Context) {
	payload, err := cart.Marshal(s.cart.Items())
	if err != nil {
		s.log.Error("Failed to serialize cart", "error", err)
		s.metrics.CartPersisted("error")
		return
	}
	if bytes.Equal(payload, s.lastSaved) {
		s.metrics.CartPersisted("unchanged")
		return
	}

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.saveTimeout)
	defer cancel()

	if err := s.store.Save(saveCtx, s.key, payload); err != nil {
		s.log.Error("Failed to persist cart", "error", err)
		s.metrics.CartPersisted("error")
		return
	}
	s.lastSaved = payload
	s.metrics.CartPersisted("ok")
}
