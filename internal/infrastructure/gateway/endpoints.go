package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/yuzvak/storefront-checkout/internal/application/ports"
	"github.com/yuzvak/storefront-checkout/internal/domain/catalog"
	"github.com/yuzvak/storefront-checkout/internal/domain/checkout"
	"github.com/yuzvak/storefront-checkout/internal/domain/payment"
	"github.com/yuzvak/storefront-checkout/internal/pkg/generator"
)

type apiStock struct {
	Units *int `json:"units"`
}

type apiProduct struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	LongDescription *string         `json:"longDescription"`
	PriceAmount     decimal.Decimal `json:"priceAmount"`
	Currency        string          `json:"currency"`
	Stock           *apiStock       `json:"stock"`
	ImageURL        string          `json:"imageUrl"`
	ImageURLs       []string        `json:"imageUrls"`
}

func (c *Client) mapProduct(p apiProduct) catalog.Product {
	out := catalog.Product{
		ID:              p.ID,
		Name:            p.Name,
		Description:     p.Description,
		LongDescription: p.Description,
		Price:           p.PriceAmount,
		Currency:        p.Currency,
	}
	if p.LongDescription != nil {
		out.LongDescription = *p.LongDescription
	}
	if out.Currency == "" {
		out.Currency = c.defaultCurrency
	}
	if p.Stock != nil && p.Stock.Units != nil {
		out.Stock = *p.Stock.Units
	}

	switch {
	case p.ImageURL != "":
		out.Image = p.ImageURL
	case len(p.ImageURLs) > 0:
		out.Image = p.ImageURLs[0]
	default:
		out.Image = generator.PlaceholderImage(p.Name)
	}
	switch {
	case len(p.ImageURLs) > 0:
		out.Images = p.ImageURLs
	case p.ImageURL != "":
		out.Images = []string{p.ImageURL}
	}
	return out
}

func (c *Client) ListProducts(ctx context.Context) ([]catalog.Product, string, error) {
	var raw []apiProduct
	requestID, err := c.do(ctx, "list_products", http.MethodGet, "/products", nil, &raw)
	if err != nil {
		return nil, requestID, err
	}
	products := make([]catalog.Product, 0, len(raw))
	for _, p := range raw {
		products = append(products, c.mapProduct(p))
	}
	return products, requestID, nil
}

type productResult struct {
	product   catalog.Product
	requestID string
}

// GetProduct collapses concurrent reads of the same id into one request.
// GetProduct shares one request between concurrent callers for the same id.
// The shared request is detached from any single caller's cancellation and
// each caller stops waiting when its own context ends.
func (c *Client) GetProduct(ctx context.Context, id string) (catalog.Product, string, error) {
	shared := context.WithoutCancel(ctx)
	ch := c.products.DoChan(id, func() (interface{}, error) {
		var raw apiProduct
		requestID, err := c.do(shared, "get_product", http.MethodGet, "/products/"+url.PathEscape(id), nil, &raw)
		if err != nil {
			return productResult{requestID: requestID}, err
		}
		return productResult{product: c.mapProduct(raw), requestID: requestID}, nil
	})

	select {
	case <-ctx.Done():
		return catalog.Product{}, "", ctx.Err()
	case r := <-ch:
		res, _ := r.Val.(productResult)
		if r.Err != nil {
			return catalog.Product{}, res.requestID, r.Err
		}
		return res.product, res.requestID, nil
	}
}

func (c *Client) LookupCustomer(ctx context.Context, email string) (ports.CustomerProfile, string, error) {
	query := url.Values{"email": {email}}
	var profile ports.CustomerProfile
	requestID, err := c.do(ctx, "lookup_customer", http.MethodGet, "/customers/lookup?"+query.Encode(), nil, &profile)
	return profile, requestID, err
}

type transactionBody struct {
	Items    []ports.TransactionItem `json:"items"`
	Amount   json.Number             `json:"amount"`
	Currency string                  `json:"currency"`
	Customer checkout.Customer       `json:"customer"`
	Delivery checkout.Delivery       `json:"delivery"`
}

func (c *Client) CreateTransaction(ctx context.Context, req ports.CreateTransactionRequest) (ports.TransactionResponse, string, error) {
	body := transactionBody{
		Items:    req.Items,
		Amount:   json.Number(req.Amount.String()),
		Currency: req.Currency,
		Customer: req.Customer,
		Delivery: req.Delivery,
	}
	var resp ports.TransactionResponse
	requestID, err := c.do(ctx, "create_transaction", http.MethodPost, "/transactions", body, &resp)
	return resp, requestID, err
}

type deliveryBody struct {
	TransactionID string `json:"transactionId"`
	checkout.Delivery
}

func (c *Client) UpdateDelivery(ctx context.Context, deliveryID, transactionID string, delivery checkout.Delivery) (ports.DeliveryResponse, string, error) {
	body := deliveryBody{TransactionID: transactionID, Delivery: delivery}
	var resp ports.DeliveryResponse
	requestID, err := c.do(ctx, "update_delivery", http.MethodPatch, "/deliveries/"+url.PathEscape(deliveryID), body, &resp)
	return resp, requestID, err
}

type payBody struct {
	CardNumber string `json:"cardNumber"`
	ExpMonth   int    `json:"expMonth"`
	ExpYear    int    `json:"expYear"`
	CVC        string `json:"cvc"`
	HolderName string `json:"holderName"`
}

func (c *Client) PayTransaction(ctx context.Context, transactionID string, card payment.CardData) (ports.PaymentResponse, string, error) {
	body := payBody{
		CardNumber: card.Number,
		ExpMonth:   card.ExpMonth,
		ExpYear:    card.ExpYear,
		CVC:        card.CVC,
		HolderName: card.HolderName,
	}
	var resp ports.PaymentResponse
	path := fmt.Sprintf("/transactions/%s/pay", url.PathEscape(transactionID))
	requestID, err := c.do(ctx, "pay_transaction", http.MethodPost, path, body, &resp)
	return resp, requestID, err
}

func (c *Client) ListAdminTransactions(ctx context.Context, email string, limit, offset int) (ports.AdminTransactionPage, string, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	query := url.Values{
		"email":  {email},
		"limit":  {strconv.Itoa(limit)},
		"offset": {strconv.Itoa(offset)},
	}
	var page ports.AdminTransactionPage
	requestID, err := c.do(ctx, "list_admin_transactions", http.MethodGet, "/admin/transactions?"+query.Encode(), nil, &page)
	return page, requestID, err
}
