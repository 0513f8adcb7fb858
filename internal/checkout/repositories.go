package checkout

import (
	"gorm.io/gorm"

	"github.com/northwind-labs/storefront/internal/cart"
	"github.com/northwind-labs/storefront/internal/orders"
	"github.com/northwind-labs/storefront/internal/products"
)

// GormBinder binds the product, cart and order repositories to conn or to a transaction.
func GormBinder(conn *gorm.DB) Binder {
	return func(tx *gorm.DB) Repositories {
		if tx == nil {
			tx = conn
		}
		return Repositories{
			Products: products.NewRepository(tx),
			Carts:    cart.NewRepository(tx),
			Orders:   orders.NewRepository(tx),
		}
	}
}
