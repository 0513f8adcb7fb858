package client

import (
	"context"
	"net/http"
	"net/url"
)

type cartPayload struct {
	Cart Cart `json:"cart"`
}

func (c *Client) storeCart(cart Cart) Cart {
	if cart.Items == nil {
		cart.Items = []CartItem{}
	}
	c.mu.Lock()
	c.state.Cart = cart
	c.mu.Unlock()
	return cart
}

func (c *Client) cartCall(ctx context.Context, req request) (Cart, error) {
	var out cartPayload
	if err := c.do(ctx, req, &out); err != nil {
		return Cart{}, err
	}
	return c.storeCart(out.Cart), nil
}

// FetchCart loads the caller's cart.
func (c *Client) FetchCart(ctx context.Context) (Cart, error) {
	return c.cartCall(ctx, request{method: http.MethodGet, path: "/cart"})
}

// AddToCart adds quantity of productID, merging with an existing line.
func (c *Client) AddToCart(ctx context.Context, productID string, quantity int) (Cart, error) {
	return c.cartCall(ctx, request{
		method: http.MethodPost,
		path:   "/cart",
		body:   map[string]any{"productId": productID, "quantity": quantity},
	})
}

// UpdateCartItem sets the quantity of one cart line.
func (c *Client) UpdateCartItem(ctx context.Context, itemID string, quantity int) (Cart, error) {
	return c.cartCall(ctx, request{
		method: http.MethodPut,
		path:   "/cart/" + url.PathEscape(itemID),
		body:   map[string]any{"quantity": quantity},
	})
}

// RemoveFromCart deletes one cart line.
func (c *Client) RemoveFromCart(ctx context.Context, itemID string) (Cart, error) {
	return c.cartCall(ctx, request{method: http.MethodDelete, path: "/cart/" + url.PathEscape(itemID)})
}

// ClearCart empties the cart. The local copy is emptied once the server accepts.
func (c *Client) ClearCart(ctx context.Context) (Cart, error) {
	if err := c.do(ctx, request{method: http.MethodDelete, path: "/cart"}, nil); err != nil {
		return Cart{}, err
	}
	return c.storeCart(Cart{}), nil
}
