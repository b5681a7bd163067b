package use_cases

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/yuzvak/storefront-checkout/internal/application/ports"
	"github.com/yuzvak/storefront-checkout/internal/domain/cart"
	"github.com/yuzvak/storefront-checkout/internal/domain/catalog"
	"github.com/yuzvak/storefront-checkout/internal/domain/checkout"
	domainErrors "github.com/yuzvak/storefront-checkout/internal/domain/errors"
	"github.com/yuzvak/storefront-checkout/internal/domain/payment"
	"github.com/yuzvak/storefront-checkout/internal/pkg/clock"
	"github.com/yuzvak/storefront-checkout/internal/pkg/generator"
	"github.com/yuzvak/storefront-checkout/internal/pkg/logger"
)

const maxPriceRefetchConcurrency = 4

// CartOwner is the part of the cart the orchestrator may touch.
type CartOwner interface {
	Items() []cart.Item
	UpdateItemPrice(ctx context.Context, id string, price decimal.Decimal, currency string)
	Clear(ctx context.Context)
}

type BillingInput struct {
	Customer checkout.Customer
	Delivery checkout.Delivery
	Card     payment.CardData
}

// CheckoutView is what a client renders. It never carries card data.
type CheckoutView struct {
	Step          checkout.Step            `json:"step"`
	SessionID     string                   `json:"sessionId,omitempty"`
	Selection     *checkout.Selection      `json:"selection,omitempty"`
	Customer      checkout.Customer        `json:"customer"`
	Delivery      checkout.Delivery        `json:"delivery"`
	TransactionID string                   `json:"transactionId,omitempty"`
	DeliveryID    string                   `json:"deliveryId,omitempty"`
	LastRequestID string                   `json:"lastRequestId,omitempty"`
	Result        *checkout.PurchaseResult `json:"result,omitempty"`
	CardBrand     payment.Brand            `json:"cardBrand,omitempty"`
	Busy          bool                     `json:"busy"`
}

// Orchestrator drives one shopper's checkout session. At most one gateway
// call is in flight at a time; a response that arrives after the session was
// closed is dropped.
type Orchestrator struct {
	mu sync.Mutex

	gateway ports.Gateway
	cart    CartOwner
	clock   clock.Clock
	journal ports.CheckoutJournal
	metrics ports.CheckoutMetrics
	ids     *generator.CodeGenerator
	log     *logger.Logger

	shopperID  string
	step       checkout.Step
	session    *checkout.Session
	card       *payment.CardData
	result     *checkout.PurchaseResult
	generation uint64
	inFlight   bool
}

type OrchestratorOption func(*Orchestrator)

func WithJournal(j ports.CheckoutJournal) OrchestratorOption {
	return func(o *Orchestrator) {
		if j != nil {
			o.journal = j
		}
	}
}

func WithMetrics(m ports.CheckoutMetrics) OrchestratorOption {
	return func(o *Orchestrator) {
		if m != nil {
			o.metrics = m
		}
	}
}

func WithShopperID(id string) OrchestratorOption {
	return func(o *Orchestrator) {
		o.shopperID = id
	}
}

func NewOrchestrator(
	gateway ports.Gateway,
	cartOwner CartOwner,
	clk clock.Clock,
	log *logger.Logger,
	opts ...OrchestratorOption,
) *Orchestrator {
	o := &Orchestrator{
		gateway: gateway,
		cart:    cartOwner,
		clock:   clk,
		journal: ports.NopJournal{},
		metrics: ports.NopMetrics{},
		ids:     generator.NewCodeGenerator(),
		log:     log,
		step:    checkout.StepIdle,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.shopperID != "" {
		o.log = o.log.WithField("shopper_id", o.shopperID)
	}
	return o
}

func (o *Orchestrator) View() CheckoutView {
	o.mu.Lock()
	defer o.mu.Unlock()

	v := CheckoutView{
		Step: o.step,
		Busy: o.inFlight,
	}
	if o.session != nil {
		v.SessionID = o.session.ID
		if o.session.Selection != nil {
			sel := *o.session.Selection
			sel.Items = append([]checkout.SelectionItem(nil), sel.Items...)
			v.Selection = &sel
		}
		v.Customer = o.session.Customer
		v.Delivery = o.session.Delivery
		v.TransactionID = o.session.TransactionID
		v.DeliveryID = o.session.DeliveryID
		v.LastRequestID = o.session.LastRequestID
	}
	if o.result != nil {
		r := *o.result
		v.Result = &r
	}
	if o.card != nil && (o.step == checkout.StepSummary || o.step == checkout.StepResult) {
		v.CardBrand = payment.CardBrand(o.card.Number)
	}
	return v
}

func (o *Orchestrator) Step() checkout.Step {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.step
}

// BeginFromCart snapshots the live cart into a new session.
func (o *Orchestrator) BeginFromCart(ctx context.Context) error {
	items := o.cart.Items()
	selection, err := checkout.SelectionFromCart(items)
	if err != nil {
		return o.fail(validationError(err))
	}
	return o.start(selection)
}

// BeginWithProduct checks out a single unit of one product without touching the cart.
func (o *Orchestrator) BeginWithProduct(ctx context.Context, p catalog.Product) error {
	if p.ID == "" {
		return o.fail(validationError(domainErrors.ErrMissingProductID))
	}
	if !p.InStock() {
		return o.fail(domainErrors.NewCheckoutError(domainErrors.KindOutOfStock, domainErrors.ErrOutOfStock, "", ""))
	}
	selection, err := checkout.NewSelection([]checkout.SelectionItem{{
		ID:       p.ID,
		Name:     p.Name,
		Quantity: 1,
		Price:    p.Price,
		Currency: p.Currency,
	}})
	if err != nil {
		return o.fail(validationError(err))
	}
	return o.start(selection)
}

func (o *Orchestrator) start(selection checkout.Selection) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.inFlight {
		return o.failLocked(busyError())
	}
	if err := o.guardLocked(checkout.StepProductDetail); err != nil {
		return o.failLocked(err)
	}

	o.session = checkout.NewSession(o.ids.GenerateSessionID())
	o.session.Selection = &selection
	o.card = nil
	o.result = nil
	o.setStepLocked(checkout.StepProductDetail)

	o.log.Info("Checkout started",
		"session_id", o.session.ID,
		"items", len(selection.Items),
		"amount", selection.Amount.String(),
		"currency", selection.Currency)
	return nil
}

func (o *Orchestrator) Continue() error {
	return o.transition(checkout.StepProductDetail, checkout.StepEmail)
}

// Back walks one step toward the start without side effects.
func (o *Orchestrator) Back() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.inFlight {
		return o.failLocked(busyError())
	}
	switch o.step {
	case checkout.StepEmail:
		o.setStepLocked(checkout.StepProductDetail)
	case checkout.StepForm:
		o.setStepLocked(checkout.StepEmail)
	default:
		return o.failLocked(invalidStateError(o.step, "back"))
	}
	return nil
}

func (o *Orchestrator) SubmitEmail(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)

	gen, err := o.acquire(func() error {
		if o.step != checkout.StepEmail {
			return invalidStateError(o.step, "submit email")
		}
		if !checkout.IsValidEmail(email) {
			return validationError(domainErrors.ErrInvalidEmail)
		}
		return nil
	})
	if err != nil {
		return o.fail(err)
	}

	profile, requestID, callErr := o.gateway.LookupCustomer(ctx, email)

	return o.complete(gen, func() error {
		o.noteRequestIDLocked(requestID, callErr)

		if callErr != nil {
			var gwErr *ports.GatewayError
			if errors.As(callErr, &gwErr) && gwErr.IsNotFound() {
				o.session.Customer.Email = email
				o.setStepLocked(checkout.StepForm)
				return nil
			}
			o.log.Warn("Customer lookup failed", "error", callErr)
			return gatewayError(callErr)
		}

		o.session.Customer = profile.Customer
		if o.session.Customer.Email == "" {
			o.session.Customer.Email = email
		}
		if profile.Delivery != nil {
			o.session.Delivery = *profile.Delivery
		}
		o.setStepLocked(checkout.StepForm)
		return nil
	})
}

// SubmitBilling validates the card locally, then creates the transaction.
// The card is kept in memory only once the transaction exists.
func (o *Orchestrator) SubmitBilling(ctx context.Context, in BillingInput) error {
	card := in.Card
	card.Number = payment.SanitizeCardNumber(card.Number)
	card.CVC = payment.SanitizeCVC(card.CVC)
	card.HolderName = strings.TrimSpace(card.HolderName)

	var req ports.CreateTransactionRequest
	var selection checkout.Selection
	gen, err := o.acquire(func() error {
		if o.step != checkout.StepForm {
			return invalidStateError(o.step, "submit billing")
		}
		if !payment.IsValidLuhn(card.Number) {
			return validationError(domainErrors.ErrInvalidCardNumber)
		}
		if !payment.IsValidExpiry(card.ExpMonth, card.ExpYear, o.clock.Now()) {
			return validationError(domainErrors.ErrInvalidExpiry)
		}
		if !payment.IsValidCVC(card.CVC) {
			return validationError(domainErrors.ErrInvalidCVC)
		}
		if card.HolderName == "" {
			return validationError(domainErrors.ErrMissingCardHolder)
		}
		if err := in.Customer.Validate(); err != nil {
			return validationError(err)
		}
		if err := in.Delivery.Validate(); err != nil {
			return validationError(err)
		}
		if o.session.Selection == nil {
			return invalidStateError(o.step, "submit billing")
		}
		if err := o.session.Selection.Validate(); err != nil {
			return validationError(err)
		}
		selection = *o.session.Selection
		req = buildTransactionRequest(selection, in.Customer, in.Delivery)
		return nil
	})
	if err != nil {
		return o.fail(err)
	}

	resp, requestID, callErr := o.gateway.CreateTransaction(ctx, req)

	var gwErr *ports.GatewayError
	if callErr != nil && errors.As(callErr, &gwErr) && gwErr.Code == ports.CodeAmountMismatch {
		return o.reconcilePrices(ctx, gen, selection, gwErr)
	}

	var entry *ports.JournalEntry
	err = o.complete(gen, func() error {
		o.noteRequestIDLocked(requestID, callErr)

		if callErr != nil {
			if gwErr != nil && gwErr.Code == ports.CodeOutOfStock {
				o.log.Warn("Checkout aborted, items out of stock", "session_id", o.session.ID, "request_id", gwErr.RequestID)
				entry = o.journalEntryLocked(ports.EventCheckoutAborted, gwErr.RequestID, gwErr.Code, gwErr.Message)
				o.resetLocked()
				return domainErrors.NewCheckoutError(domainErrors.KindOutOfStock, domainErrors.ErrOutOfStock, gwErr.Message, gwErr.RequestID)
			}
			o.log.Warn("Transaction creation failed", "error", callErr)
			return gatewayError(callErr)
		}

		txID := resp.EffectiveID()
		if txID == "" {
			return domainErrors.NewCheckoutError(domainErrors.KindUnexpected, domainErrors.ErrMissingTransaction, "", requestID)
		}

		o.session.Customer = in.Customer
		o.session.Delivery = in.Delivery
		o.session.TransactionID = txID
		o.session.DeliveryID = resp.DeliveryID
		o.card = &card
		o.result = nil
		o.setStepLocked(checkout.StepSummary)

		o.log.Info("Transaction created", "session_id", o.session.ID, "transaction_id", txID, "request_id", requestID)
		entry = o.journalEntryLocked(ports.EventTransactionCreated, requestID, resp.Status, "")
		return nil
	})
	o.record(ctx, entry)
	return err
}

// reconcilePrices re-reads every selected product, and only when all reads
// succeed updates the cart prices and replaces the selection. The shopper
// stays on the form either way.
func (o *Orchestrator) reconcilePrices(ctx context.Context, gen uint64, selection checkout.Selection, mismatch *ports.GatewayError) error {
	products := make([]catalog.Product, len(selection.Items))
	var fetchRequestID string

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxPriceRefetchConcurrency)
	for i, item := range selection.Items {
		i, item := i, item
		g.Go(func() error {
			p, _, err := o.gateway.GetProduct(gctx, item.ID)
			if err != nil {
				return err
			}
			products[i] = p
			return nil
		})
	}
	fetchErr := g.Wait()
	if fetchErr != nil {
		var gwErr *ports.GatewayError
		if errors.As(fetchErr, &gwErr) {
			fetchRequestID = gwErr.RequestID
		}
	}

	return o.complete(gen, func() error {
		o.noteRequestIDLocked(mismatch.RequestID, nil)

		if fetchErr != nil {
			o.noteRequestIDLocked(fetchRequestID, nil)
			o.log.Warn("Price reconciliation failed", "error", fetchErr)
			return gatewayError(fetchErr)
		}

		items := make([]checkout.SelectionItem, len(selection.Items))
		for i, item := range selection.Items {
			items[i] = checkout.SelectionItem{
				ID:       item.ID,
				Name:     item.Name,
				Quantity: item.Quantity,
				Price:    products[i].Price,
				Currency: products[i].Currency,
			}
		}
		updated, err := checkout.NewSelection(items)
		if err != nil {
			return validationError(err)
		}

		for _, item := range updated.Items {
			o.cart.UpdateItemPrice(ctx, item.ID, item.Price, item.Currency)
		}
		o.session.Selection = &updated
		o.setStepLocked(checkout.StepForm)

		o.log.Info("Selection repriced",
			"session_id", o.session.ID,
			"amount", updated.Amount.String(),
			"currency", updated.Currency,
			"request_id", mismatch.RequestID)
		return domainErrors.NewCheckoutError(domainErrors.KindAmountMismatch, domainErrors.ErrAmountMismatch, mismatch.Message, mismatch.RequestID)
	})
}

// UpdateDelivery replaces the session delivery only after the gateway accepts it.
func (o *Orchestrator) UpdateDelivery(ctx context.Context, delivery checkout.Delivery) error {
	var deliveryID, transactionID string
	gen, err := o.acquire(func() error {
		if o.step != checkout.StepSummary {
			return invalidStateError(o.step, "update delivery")
		}
		if err := delivery.Validate(); err != nil {
			return validationError(err)
		}
		if o.session.DeliveryID == "" || o.session.TransactionID == "" {
			return domainErrors.NewCheckoutError(domainErrors.KindInvalidState, domainErrors.ErrMissingDelivery, "", "")
		}
		deliveryID = o.session.DeliveryID
		transactionID = o.session.TransactionID
		return nil
	})
	if err != nil {
		return o.fail(err)
	}

	_, requestID, callErr := o.gateway.UpdateDelivery(ctx, deliveryID, transactionID, delivery)

	var entry *ports.JournalEntry
	err = o.complete(gen, func() error {
		o.noteRequestIDLocked(requestID, callErr)
		if callErr != nil {
			o.log.Warn("Delivery update failed", "error", callErr)
			return gatewayError(callErr)
		}
		o.session.Delivery = delivery
		o.setStepLocked(checkout.StepSummary)
		entry = o.journalEntryLocked(ports.EventDeliveryUpdated, requestID, "", "")
		return nil
	})
	o.record(ctx, entry)
	return err
}

func (o *Orchestrator) Pay(ctx context.Context) (checkout.PurchaseResult, error) {
	return o.pay(ctx, checkout.StepSummary)
}

// Retry repeats the payment with the card still held in memory.
func (o *Orchestrator) Retry(ctx context.Context) (checkout.PurchaseResult, error) {
	return o.pay(ctx, checkout.StepResult)
}

func (o *Orchestrator) pay(ctx context.Context, from checkout.Step) (checkout.PurchaseResult, error) {
	var transactionID string
	var card payment.CardData
	gen, err := o.acquire(func() error {
		if o.step != from {
			return invalidStateError(o.step, "pay")
		}
		if from == checkout.StepResult && (o.result == nil || o.result.Succeeded()) {
			return invalidStateError(o.step, "retry")
		}
		if o.session.TransactionID == "" {
			return domainErrors.NewCheckoutError(domainErrors.KindInvalidState, domainErrors.ErrMissingTransaction, "", "")
		}
		if o.card == nil {
			return validationError(domainErrors.ErrMissingCard)
		}
		transactionID = o.session.TransactionID
		card = *o.card
		return nil
	})
	if err != nil {
		return checkout.PurchaseResult{}, o.fail(err)
	}

	resp, requestID, callErr := o.gateway.PayTransaction(ctx, transactionID, card)

	var result checkout.PurchaseResult
	var entry *ports.JournalEntry
	err = o.complete(gen, func() error {
		o.noteRequestIDLocked(requestID, callErr)

		if callErr != nil {
			var gwErr *ports.GatewayError
			if !errors.As(callErr, &gwErr) || !gwErr.IsPaymentFailure() {
				o.log.Warn("Payment call failed", "error", callErr, "transaction_id", transactionID)
				return gatewayError(callErr)
			}
			result = checkout.MapPaymentStatus("", gwErr.Message, transactionID, gwErr.RequestID)
		} else {
			txID := resp.TransactionID
			if txID == "" {
				txID = transactionID
			}
			result = checkout.MapPaymentStatus(resp.Status, resp.Message, txID, requestID)
		}

		o.result = &result
		o.setStepLocked(checkout.StepResult)
		o.metrics.PaymentOutcome(string(result.Status))

		o.log.Info("Payment finished",
			"session_id", o.session.ID,
			"transaction_id", result.TransactionID,
			"status", string(result.Status),
			"request_id", result.RequestID)
		entry = o.journalEntryLocked(ports.EventPaymentResult, result.RequestID, string(result.Status), result.Message)
		return nil
	})
	o.record(ctx, entry)
	return result, err
}

// EditBilling drops the card and returns to the form. The transaction,
// customer and delivery are kept.
func (o *Orchestrator) EditBilling() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.inFlight {
		return o.failLocked(busyError())
	}
	if o.step != checkout.StepResult || o.result == nil || o.result.Succeeded() {
		return o.failLocked(invalidStateError(o.step, "edit billing"))
	}
	o.card = nil
	o.result = nil
	o.setStepLocked(checkout.StepForm)
	return nil
}

// Finish ends a successful checkout and empties the cart.
func (o *Orchestrator) Finish(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.inFlight {
		return o.failLocked(busyError())
	}
	if o.step != checkout.StepResult || o.result == nil || !o.result.Succeeded() {
		return o.failLocked(invalidStateError(o.step, "finish"))
	}
	o.cart.Clear(ctx)
	o.log.Info("Checkout finished", "session_id", o.session.ID, "transaction_id", o.session.TransactionID)
	o.resetLocked()
	return nil
}

// Close abandons the session from any step. A transaction already created
// remotely is left as is, and any in-flight response is discarded on arrival.
func (o *Orchestrator) Close(ctx context.Context) {
	o.mu.Lock()
	if o.step == checkout.StepIdle && o.session == nil {
		o.mu.Unlock()
		return
	}
	var entry *ports.JournalEntry
	if o.session != nil && o.session.HasTransaction() && (o.result == nil || !o.result.Succeeded()) {
		entry = o.journalEntryLocked(ports.EventCheckoutAborted, o.session.LastRequestID, "closed", "")
	}
	if o.step != checkout.StepIdle {
		o.log.Info("Checkout closed", "step", o.step.String())
	}
	o.resetLocked()
	o.mu.Unlock()

	o.record(ctx, entry)
}

func (o *Orchestrator) transition(from, to checkout.Step) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.inFlight {
		return o.failLocked(busyError())
	}
	if o.step != from {
		return o.failLocked(invalidStateError(o.step, string(to)))
	}
	o.setStepLocked(to)
	return nil
}

// acquire runs guard under the lock and marks a call in flight.
func (o *Orchestrator) acquire(guard func() error) (uint64, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.inFlight {
		return 0, busyError()
	}
	if err := guard(); err != nil {
		return 0, err
	}
	o.inFlight = true
	return o.generation, nil
}

// complete applies a response under the lock unless the session it belongs
// to is gone.
func (o *Orchestrator) complete(gen uint64, apply func() error) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if gen != o.generation {
		o.log.Debug("Dropping response for abandoned checkout session")
		return o.failLocked(domainErrors.NewCheckoutError(domainErrors.KindStale, domainErrors.ErrStaleResponse, "", ""))
	}
	defer func() { o.inFlight = false }()

	if err := apply(); err != nil {
		return o.failLocked(err)
	}
	return nil
}

func (o *Orchestrator) guardLocked(to checkout.Step) error {
	if !checkout.CanTransition(o.step, to) {
		return invalidStateError(o.step, string(to))
	}
	return nil
}

func (o *Orchestrator) setStepLocked(to checkout.Step) {
	from := o.step
	o.step = to
	o.metrics.StepTransition(string(from), string(to))
}

func (o *Orchestrator) resetLocked() {
	o.generation++
	o.inFlight = false
	o.session = nil
	o.card = nil
	o.result = nil
	o.setStepLocked(checkout.StepIdle)
}

func (o *Orchestrator) noteRequestIDLocked(requestID string, callErr error) {
	if callErr != nil {
		var gwErr *ports.GatewayError
		if errors.As(callErr, &gwErr) {
			requestID = gwErr.RequestID
		}
	}
	if requestID != "" && o.session != nil {
		o.session.LastRequestID = requestID
	}
}

func (o *Orchestrator) journalEntryLocked(event ports.JournalEvent, requestID, status, message string) *ports.JournalEntry {
	if o.session == nil {
		return nil
	}
	entry := &ports.JournalEntry{
		SessionID:     o.session.ID,
		ShopperID:     o.shopperID,
		Event:         event,
		Step:          string(o.step),
		TransactionID: o.session.TransactionID,
		RequestID:     requestID,
		Status:        status,
		Message:       message,
		CreatedAt:     o.clock.Now(),
	}
	if o.session.Selection != nil {
		entry.Amount = o.session.Selection.Amount
		entry.Currency = o.session.Selection.Currency
	}
	return entry
}

func (o *Orchestrator) record(ctx context.Context, entry *ports.JournalEntry) {
	if entry == nil {
		return
	}
	if err := o.journal.Record(context.WithoutCancel(ctx), *entry); err != nil {
		o.log.Error("Failed to record checkout journal entry", "error", err, "event", string(entry.Event))
	}
}

func (o *Orchestrator) fail(err error) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.failLocked(err)
}

func (o *Orchestrator) failLocked(err error) error {
	if kind, ok := domainErrors.KindOf(err); ok {
		o.metrics.CheckoutFailure(string(kind))
	}
	return err
}

func buildTransactionRequest(sel checkout.Selection, customer checkout.Customer, delivery checkout.Delivery) ports.CreateTransactionRequest {
	items := make([]ports.TransactionItem, 0, len(sel.Items))
	for _, it := range sel.Items {
		items = append(items, ports.TransactionItem{ProductID: it.ID, Quantity: it.Quantity})
	}
	return ports.CreateTransactionRequest{
		Items:    items,
		Amount:   sel.Amount,
		Currency: sel.Currency,
		Customer: customer,
		Delivery: delivery,
	}
}

func validationError(err error) error {
	return domainErrors.NewCheckoutError(domainErrors.KindValidation, err, "", "")
}

func busyError() error {
	return domainErrors.NewCheckoutError(domainErrors.KindBusy, domainErrors.ErrCheckoutBusy, "", "")
}

func invalidStateError(step checkout.Step, action string) error {
	return domainErrors.NewCheckoutError(domainErrors.KindInvalidState, domainErrors.ErrInvalidTransition,
		"cannot "+action+" from "+string(step), "")
}

func gatewayError(err error) error {
	var gwErr *ports.GatewayError
	if errors.As(err, &gwErr) {
		return domainErrors.NewCheckoutError(domainErrors.KindGateway, err, gwErr.Message, gwErr.RequestID)
	}
	return domainErrors.NewCheckoutError(domainErrors.KindGateway, err, "", "")
}
