package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/northwind-labs/storefront/internal/products"
	"github.com/northwind-labs/storefront/pkg/db/models"
)

// CartDTO is the cart returned to its owner, with products populated.
type CartDTO struct {
	ID         uuid.UUID       `json:"id"`
	UserID     uuid.UUID       `json:"user"`
	Items      []CartItemDTO   `json:"items"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// CartItemDTO is one cart line. Price is the unit price captured when the line was added.
type CartItemDTO struct {
	ID        uuid.UUID            `json:"id"`
	ProductID uuid.UUID            `json:"productId"`
	Product   *products.ProductDTO `json:"product,omitempty"`
	Quantity  int                  `json:"quantity"`
	Price     decimal.Decimal      `json:"price"`
}

// AddItemRequest is the add-to-cart body.
type AddItemRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gte=1"`
}

// UpdateItemRequest sets a line's quantity.
type UpdateItemRequest struct {
	Quantity int `json:"quantity" validate:"required,gte=1"`
}

// FromModel maps a cart and its preloaded items.
func FromModel(c *models.Cart) *CartDTO {
	if c == nil {
		return nil
	}
	items := make([]CartItemDTO, 0, len(c.Items))
	for _, item := range c.Items {
		items = append(items, CartItemDTO{
			ID:        item.ID,
			ProductID: item.ProductID,
			Product:   products.FromModel(item.Product),
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}
	return &CartDTO{
		ID:         c.ID,
		UserID:     c.UserID,
		Items:      items,
		TotalPrice: c.TotalPrice().Round(2),
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}
