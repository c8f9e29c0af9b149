// Package paymentprovider реализует клиент Stripe Checkout API и проверку
// подписи webhook-уведомлений. Клиент работает напрямую с REST-интерфейсом
// провайдера через net/http с ограниченным таймаутом.
package paymentprovider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Ошибки провайдера.
var (
	// ErrGateway провайдер ответил ошибкой.
	ErrGateway = errors.New("payment gateway error")
	// ErrGatewayTimeout запрос к провайдеру не уложился в таймаут.
	ErrGatewayTimeout = errors.New("payment gateway timeout")
)

type Client struct {
	secretKey  string
	apiURL     string
	httpClient *http.Client
}

// NewClient создаёт новый клиент Stripe.
func NewClient(secretKey string) *Client {
	return &Client{
		secretKey:  secretKey,
		apiURL:     "https://api.stripe.com/v1",
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Stripe принимает тела запросов в application/x-www-form-urlencoded.
func (c *Client) newRequest(ctx context.Context, method, path string, form url.Values) (*http.Request, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	return req, nil
}

func (c *Client) do(req *http.Request, result any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Timeout() {
			return fmt.Errorf("%w: %s", ErrGatewayTimeout, err)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s", ErrGatewayTimeout, err)
		}
		return fmt.Errorf("%w: %s", ErrGateway, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("%w: unexpected status %s", ErrGateway, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: decode response: %s", ErrGateway, err)
	}
	return nil
}

// CreateCheckoutSession создает checkout-сессию на оплату членского взноса.
func (c *Client) CreateCheckoutSession(ctx context.Context, params CreateCheckoutParams) (*CheckoutSession, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("payment_method_types[0]", "card")
	if params.CustomerID != "" {
		form.Set("customer", params.CustomerID)
	} else {
		form.Set("customer_email", params.CustomerEmail)
		form.Set("payment_intent_data[receipt_email]", params.CustomerEmail)
	}
	form.Set("line_items[0][price_data][currency]", params.Currency)
	form.Set("line_items[0][price_data][unit_amount]", strconv.Itoa(params.AmountCents))
	form.Set("line_items[0][price_data][product_data][name]", params.ProductName)
	if params.ProductDescription != "" {
		form.Set("line_items[0][price_data][product_data][description]", params.ProductDescription)
	}
	form.Set("line_items[0][quantity]", "1")
	form.Set("success_url", params.SuccessURL)
	form.Set("cancel_url", params.CancelURL)
	for k, v := range params.Metadata {
		form.Set("metadata["+k+"]", v)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/checkout/sessions", form)
	if err != nil {
		return nil, err
	}
	var session CheckoutSession
	if err := c.do(req, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// RetrieveCheckoutSession возвращает текущее состояние checkout-сессии.
func (c *Client) RetrieveCheckoutSession(ctx context.Context, checkoutID string) (*CheckoutSession, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/checkout/sessions/"+url.PathEscape(checkoutID), nil)
	if err != nil {
		return nil, err
	}
	var session CheckoutSession
	if err := c.do(req, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// CreateCustomer создает клиента у провайдера для последующих продлений.
func (c *Client) CreateCustomer(ctx context.Context, email, name string) (*Customer, error) {
	form := url.Values{}
	form.Set("email", email)
	form.Set("name", name)

	req, err := c.newRequest(ctx, http.MethodPost, "/customers", form)
	if err != nil {
		return nil, err
	}
	var customer Customer
	if err := c.do(req, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}
