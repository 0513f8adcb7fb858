package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/northwind-labs/storefront/pkg/enums"
	"github.com/northwind-labs/storefront/pkg/types"
)

// Order is an immutable purchase snapshot plus its payment and delivery flags.
type Order struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	UserID          uuid.UUID             `gorm:"column:user_id;type:uuid;not null;index"`
	User            *User                 `gorm:"foreignKey:UserID"`
	Items           []OrderItem           `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	ShippingAddress types.ShippingAddress `gorm:"embedded;embeddedPrefix:shipping_"`
	PaymentMethod   enums.PaymentMethod   `gorm:"column:payment_method;type:text;not null"`
	ItemsPrice      decimal.Decimal       `gorm:"column:items_price;type:numeric(12,2);not null"`
	TaxPrice        decimal.Decimal       `gorm:"column:tax_price;type:numeric(12,2);not null"`
	ShippingPrice   decimal.Decimal       `gorm:"column:shipping_price;type:numeric(12,2);not null"`
	TotalPrice      decimal.Decimal       `gorm:"column:total_price;type:numeric(12,2);not null"`
	IsPaid          bool                  `gorm:"column:is_paid;not null;default:false"`
	PaidAt          *time.Time            `gorm:"column:paid_at"`
	PaymentResult   PaymentResult         `gorm:"embedded;embeddedPrefix:payment_result_"`
	IsDelivered     bool                  `gorm:"column:is_delivered;not null;default:false"`
	DeliveredAt     *time.Time            `gorm:"column:delivered_at"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	assignID(&o.ID)
	for i := range o.Items {
		o.Items[i].Position = i
	}
	return nil
}

// PaymentResult is the confirmation payload recorded when an order is paid.
type PaymentResult struct {
	ID           *string              `gorm:"column:id"`
	Status       *enums.PaymentStatus `gorm:"column:status;type:text"`
	UpdateTime   *string              `gorm:"column:update_time"`
	EmailAddress *string              `gorm:"column:email_address"`
}

// IsZero reports whether no payment has been recorded.
func (p PaymentResult) IsZero() bool {
	return p.ID == nil && p.Status == nil && p.UpdateTime == nil && p.EmailAddress == nil
}

// OrderItem is a product snapshot taken at placement time.
type OrderItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Name      string          `gorm:"column:name;not null"`
	Image     string          `gorm:"column:image;not null"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Quantity  int             `gorm:"column:quantity;not null"`
	Position  int             `gorm:"column:position;not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	assignID(&i.ID)
	return nil
}
