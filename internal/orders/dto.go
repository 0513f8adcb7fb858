package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/northwind-labs/storefront/pkg/db/models"
	"github.com/northwind-labs/storefront/pkg/enums"
	"github.com/northwind-labs/storefront/pkg/types"
)

// Actor identifies the authenticated caller of an order operation.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
	Email  string
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == enums.UserRoleAdmin
}

// PaymentConfirmation is the optional body of a mark-paid call.
type PaymentConfirmation struct {
	ID string `json:"id" validate:"omitempty,max=200"`
}

type OrderUserDTO struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

type OrderItemDTO struct {
	Product  uuid.UUID       `json:"product"`
	Name     string          `json:"name"`
	Image    string          `json:"image"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

type PaymentResultDTO struct {
	ID           string `json:"id,omitempty"`
	Status       string `json:"status,omitempty"`
	UpdateTime   string `json:"update_time,omitempty"`
	EmailAddress string `json:"email_address,omitempty"`
}

type OrderDTO struct {
	ID              uuid.UUID             `json:"id"`
	User            *OrderUserDTO         `json:"user,omitempty"`
	UserID          uuid.UUID             `json:"userId"`
	OrderItems      []OrderItemDTO        `json:"orderItems"`
	ShippingAddress types.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   enums.PaymentMethod   `json:"paymentMethod"`
	PaymentResult   *PaymentResultDTO     `json:"paymentResult,omitempty"`
	ItemsPrice      decimal.Decimal       `json:"itemsPrice"`
	TaxPrice        decimal.Decimal       `json:"taxPrice"`
	ShippingPrice   decimal.Decimal       `json:"shippingPrice"`
	TotalPrice      decimal.Decimal       `json:"totalPrice"`
	IsPaid          bool                  `json:"isPaid"`
	PaidAt          *time.Time            `json:"paidAt,omitempty"`
	IsDelivered     bool                  `json:"isDelivered"`
	DeliveredAt     *time.Time            `json:"deliveredAt,omitempty"`
	CreatedAt       time.Time             `json:"createdAt"`
	UpdatedAt       time.Time             `json:"updatedAt"`
}

// FromModel maps an order row to its API shape.
func FromModel(o *models.Order) *OrderDTO {
	if o == nil {
		return nil
	}
	dto := &OrderDTO{
		ID:              o.ID,
		UserID:          o.UserID,
		OrderItems:      make([]OrderItemDTO, 0, len(o.Items)),
		ShippingAddress: o.ShippingAddress,
		PaymentMethod:   o.PaymentMethod,
		ItemsPrice:      o.ItemsPrice,
		TaxPrice:        o.TaxPrice,
		ShippingPrice:   o.ShippingPrice,
		TotalPrice:      o.TotalPrice,
		IsPaid:          o.IsPaid,
		PaidAt:          o.PaidAt,
		IsDelivered:     o.IsDelivered,
		DeliveredAt:     o.DeliveredAt,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	if o.User != nil {
		dto.User = &OrderUserDTO{ID: o.User.ID, Name: o.User.Name, Email: o.User.Email}
	}
	for _, item := range o.Items {
		dto.OrderItems = append(dto.OrderItems, OrderItemDTO{
			Product:  item.ProductID,
			Name:     item.Name,
			Image:    item.Image,
			Price:    item.Price,
			Quantity: item.Quantity,
		})
	}
	if !o.PaymentResult.IsZero() {
		dto.PaymentResult = &PaymentResultDTO{
			ID:           deref(o.PaymentResult.ID),
			UpdateTime:   deref(o.PaymentResult.UpdateTime),
			EmailAddress: deref(o.PaymentResult.EmailAddress),
		}
		if o.PaymentResult.Status != nil {
			dto.PaymentResult.Status = o.PaymentResult.Status.String()
		}
	}
	return dto
}

// FromModels maps a slice of order rows.
func FromModels(rows []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
