package client

import (
	"context"
	"net/http"
	"net/url"
)

// OrderLine is one requested product in CreateOrder.
type OrderLine struct {
	Product  string `json:"product"`
	Quantity int    `json:"quantity"`
}

// CreateOrderRequest is the checkout payload.
type CreateOrderRequest struct {
	OrderItems      []OrderLine     `json:"orderItems"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod"`
	// IdempotencyKey, when set, lets a retried checkout replay the first response.
	IdempotencyKey string `json:"-"`
}

// LinesFromCart converts cart lines into order lines.
func LinesFromCart(cart Cart) []OrderLine {
	lines := make([]OrderLine, 0, len(cart.Items))
	for _, item := range cart.Items {
		lines = append(lines, OrderLine{Product: item.ProductID, Quantity: item.Quantity})
	}
	return lines
}

type orderPayload struct {
	Order Order `json:"order"`
}

// CreateOrder places an order. The server clears the cart on success, so the
// local cart is emptied as well.
func (c *Client) CreateOrder(ctx context.Context, in CreateOrderRequest) (Order, error) {
	req := request{method: http.MethodPost, path: "/orders", body: in}
	if in.IdempotencyKey != "" {
		req.header = http.Header{"Idempotency-Key": []string{in.IdempotencyKey}}
	}
	var out orderPayload
	if err := c.do(ctx, req, &out); err != nil {
		return Order{}, err
	}
	order := out.Order
	c.mu.Lock()
	c.state.Order = &order
	c.state.Cart = Cart{Items: []CartItem{}}
	c.mu.Unlock()
	return order, nil
}

// FetchMyOrders loads the caller's orders, newest first.
func (c *Client) FetchMyOrders(ctx context.Context) ([]Order, error) {
	var out struct {
		Orders []Order `json:"orders"`
	}
	if err := c.do(ctx, request{method: http.MethodGet, path: "/orders/myorders"}, &out); err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.state.Orders = out.Orders
	c.mu.Unlock()
	return out.Orders, nil
}

// FetchOrder loads one order the caller owns (or any order for admins).
func (c *Client) FetchOrder(ctx context.Context, id string) (Order, error) {
	var out orderPayload
	if err := c.do(ctx, request{method: http.MethodGet, path: "/orders/" + url.PathEscape(id)}, &out); err != nil {
		return Order{}, err
	}
	order := out.Order
	c.mu.Lock()
	c.state.Order = &order
	c.mu.Unlock()
	return order, nil
}
