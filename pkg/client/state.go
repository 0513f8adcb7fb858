package client

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
	Stock       int             `json:"stock"`
	Rating      decimal.Decimal `json:"rating"`
	NumReviews  int             `json:"numReviews"`
	IsActive    bool            `json:"isActive"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

type CartItem struct {
	ID        string          `json:"id"`
	ProductID string          `json:"productId"`
	Product   *Product        `json:"product,omitempty"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type Cart struct {
	ID         string          `json:"id,omitempty"`
	Items      []CartItem      `json:"items"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

type ShippingAddress struct {
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

type OrderItem struct {
	Product  string          `json:"product"`
	Name     string          `json:"name"`
	Image    string          `json:"image"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

type PaymentResult struct {
	ID           string `json:"id,omitempty"`
	Status       string `json:"status,omitempty"`
	UpdateTime   string `json:"update_time,omitempty"`
	EmailAddress string `json:"email_address,omitempty"`
}

type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"userId"`
	OrderItems      []OrderItem     `json:"orderItems"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod"`
	PaymentResult   *PaymentResult  `json:"paymentResult,omitempty"`
	ItemsPrice      decimal.Decimal `json:"itemsPrice"`
	TaxPrice        decimal.Decimal `json:"taxPrice"`
	ShippingPrice   decimal.Decimal `json:"shippingPrice"`
	TotalPrice      decimal.Decimal `json:"totalPrice"`
	IsPaid          bool            `json:"isPaid"`
	PaidAt          *time.Time      `json:"paidAt,omitempty"`
	IsDelivered     bool            `json:"isDelivered"`
	DeliveredAt     *time.Time      `json:"deliveredAt,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// Filters narrows FetchProducts. Empty fields are not sent.
type Filters struct {
	Category string
	Search   string
	MinPrice string
	MaxPrice string
	SortBy   string
}

// DefaultSort is the catalog order used when no sort is chosen.
const DefaultSort = "-createdAt"

// State is the client's last known view of the server.
type State struct {
	Cart       Cart
	Orders     []Order
	Order      *Order
	Products   []Product
	Product    *Product
	Categories []string
	Pagination Pagination
	Filters    Filters
}

func initialState() State {
	return State{
		Cart:    Cart{Items: []CartItem{}},
		Filters: Filters{SortBy: DefaultSort},
	}
}

// Snapshot returns a copy of the current state that is safe to read while
// other calls are in flight.
func (c *Client) Snapshot() State {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := c.state
	// Clone keeps an empty list empty rather than nil.
	s.Cart.Items = slices.Clone(c.state.Cart.Items)
	s.Orders = slices.Clone(c.state.Orders)
	s.Products = slices.Clone(c.state.Products)
	s.Categories = slices.Clone(c.state.Categories)
	if c.state.Order != nil {
		order := *c.state.Order
		s.Order = &order
	}
	if c.state.Product != nil {
		product := *c.state.Product
		s.Product = &product
	}
	return s
}

// SetFilters merges non-empty fields of f into the stored filters.
func (c *Client) SetFilters(f Filters) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if f.Category != "" {
		c.state.Filters.Category = f.Category
	}
	if f.Search != "" {
		c.state.Filters.Search = f.Search
	}
	if f.MinPrice != "" {
		c.state.Filters.MinPrice = f.MinPrice
	}
	if f.MaxPrice != "" {
		c.state.Filters.MaxPrice = f.MaxPrice
	}
	if f.SortBy != "" {
		c.state.Filters.SortBy = f.SortBy
	}
}

// ClearFilters restores the default filters.
func (c *Client) ClearFilters() {
	c.mu.Lock()
	c.state.Filters = Filters{SortBy: DefaultSort}
	c.mu.Unlock()
}

// ClearOrder forgets the last viewed order.
func (c *Client) ClearOrder() {
	c.mu.Lock()
	c.state.Order = nil
	c.mu.Unlock()
}

// ClearProduct forgets the last viewed product.
func (c *Client) ClearProduct() {
	c.mu.Lock()
	c.state.Product = nil
	c.mu.Unlock()
}

// Reset drops all cached state, e.g. after logout.
func (c *Client) Reset() {
	c.mu.Lock()
	c.state = initialState()
	c.mu.Unlock()
}
