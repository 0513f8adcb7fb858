package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// FetchProducts loads one catalog page using the stored filters.
func (c *Client) FetchProducts(ctx context.Context, page, limit int) ([]Product, Pagination, error) {
	c.mu.RLock()
	filters := c.state.Filters
	c.mu.RUnlock()

	query := url.Values{}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	for key, value := range map[string]string{
		"category": filters.Category,
		"search":   filters.Search,
		"minPrice": filters.MinPrice,
		"maxPrice": filters.MaxPrice,
		"sortBy":   filters.SortBy,
	} {
		if value != "" {
			query.Set(key, value)
		}
	}

	var out struct {
		Items      []Product  `json:"items"`
		Pagination Pagination `json:"pagination"`
	}
	if err := c.do(ctx, request{method: http.MethodGet, path: "/products", query: query}, &out); err != nil {
		return nil, Pagination{}, err
	}
	c.mu.Lock()
	c.state.Products = out.Items
	c.state.Pagination = out.Pagination
	c.mu.Unlock()
	return out.Items, out.Pagination, nil
}

// FetchProduct loads one product.
func (c *Client) FetchProduct(ctx context.Context, id string) (Product, error) {
	var out struct {
		Product Product `json:"product"`
	}
	if err := c.do(ctx, request{method: http.MethodGet, path: "/products/" + url.PathEscape(id)}, &out); err != nil {
		return Product{}, err
	}
	product := out.Product
	c.mu.Lock()
	c.state.Product = &product
	c.mu.Unlock()
	return product, nil
}

// FetchCategories loads the distinct active categories.
func (c *Client) FetchCategories(ctx context.Context) ([]string, error) {
	var out struct {
		Categories []string `json:"categories"`
	}
	if err := c.do(ctx, request{method: http.MethodGet, path: "/products/categories"}, &out); err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.state.Categories = out.Categories
	c.mu.Unlock()
	return out.Categories, nil
}
