package use_cases

import (
	"context"
	"sync"
	"time"

	"github.com/yuzvak/storefront-checkout/internal/application/ports"
	"github.com/yuzvak/storefront-checkout/internal/domain/cart"
	domainErrors "github.com/yuzvak/storefront-checkout/internal/domain/errors"
	"github.com/yuzvak/storefront-checkout/internal/pkg/clock"
	"github.com/yuzvak/storefront-checkout/internal/pkg/logger"
)

type Shopper struct {
	ID       string
	Cart     *CartService
	Checkout *Orchestrator

	lastSeen time.Time
}

// ShopperRegistry builds one cart and one checkout session per shopper on
// first use and keeps them in memory until evicted.
type ShopperRegistry struct {
	mu       sync.Mutex
	shoppers map[string]*Shopper

	gateway         ports.Gateway
	store           ports.CartStore
	journal         ports.CheckoutJournal
	metrics         ports.CheckoutMetrics
	clock           clock.Clock
	log             *logger.Logger
	defaultCurrency string
}

func NewShopperRegistry(
	gateway ports.Gateway,
	store ports.CartStore,
	journal ports.CheckoutJournal,
	metrics ports.CheckoutMetrics,
	clk clock.Clock,
	defaultCurrency string,
	log *logger.Logger,
) *ShopperRegistry {
	if journal == nil {
		journal = ports.NopJournal{}
	}
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &ShopperRegistry{
		shoppers:        make(map[string]*Shopper),
		gateway:         gateway,
		store:           store,
		journal:         journal,
		metrics:         metrics,
		clock:           clk,
		log:             log,
		defaultCurrency: defaultCurrency,
	}
}

func CartKey(shopperID string) string {
	return cart.StorageKey + ":" + shopperID
}

func (r *ShopperRegistry) Get(ctx context.Context, shopperID string) (*Shopper, error) {
	if shopperID == "" {
		return nil, domainErrors.ErrShopperRequired
	}

	r.mu.Lock()
	if s, ok := r.shoppers[shopperID]; ok {
		s.lastSeen = r.clock.Now()
		r.mu.Unlock()
		return s, nil
	}
	r.mu.Unlock()

	// hydration reads the store, so it runs outside the registry lock
	log := r.log.WithField("shopper_id", shopperID)
	cartSvc := NewCartService(ctx, r.store, CartKey(shopperID), r.defaultCurrency, r.metrics, log)
	created := &Shopper{
		ID:   shopperID,
		Cart: cartSvc,
		Checkout: NewOrchestrator(r.gateway, cartSvc, r.clock, r.log,
			WithShopperID(shopperID),
			WithJournal(r.journal),
			WithMetrics(r.metrics)),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.shoppers[shopperID]; ok {
		s.lastSeen = r.clock.Now()
		return s, nil
	}
	created.lastSeen = r.clock.Now()
	r.shoppers[shopperID] = created
	return created, nil
}

// EvictIdle drops shoppers not seen within ttl. Their checkout sessions are
// closed; persisted carts are untouched.
func (r *ShopperRegistry) EvictIdle(ctx context.Context, ttl time.Duration) int {
	now := r.clock.Now()

	r.mu.Lock()
	var idle []*Shopper
	for id, s := range r.shoppers {
		if now.Sub(s.lastSeen) >= ttl {
			idle = append(idle, s)
			delete(r.shoppers, id)
		}
	}
	r.mu.Unlock()

	for _, s := range idle {
		s.Checkout.Close(ctx)
	}
	if len(idle) > 0 {
		r.log.Info("Evicted idle shoppers", "count", len(idle))
	}
	return len(idle)
}

func (r *ShopperRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.shoppers)
}
