// Package seed loads the sample catalog and the default admin and customer accounts.
package seed

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/northwind-labs/storefront/internal/users"
	"github.com/northwind-labs/storefront/pkg/config"
	"github.com/northwind-labs/storefront/pkg/db"
	"github.com/northwind-labs/storefront/pkg/db/models"
	"github.com/northwind-labs/storefront/pkg/enums"
	"github.com/northwind-labs/storefront/pkg/security"
)

const tempPasswordLength = 16

// Options control a seeding run.
type Options struct {
	// Reset deletes every order, cart, product and user before seeding.
	Reset bool
}

// Account is a seeded login. Password is set only when it was generated by this run.
type Account struct {
	Email    string
	Role     enums.UserRole
	Password string
	Created  bool
}

// Result summarizes what a run changed.
type Result struct {
	Accounts        []Account
	ProductsCreated int
	ProductsSkipped int
}

// Seeder writes sample data through the user repository and the shared connection.
type Seeder struct {
	conn      *gorm.DB
	users     *users.Repository
	accounts  config.SeedConfig
	passwords config.PasswordConfig
}

func NewSeeder(conn *gorm.DB, accounts config.SeedConfig, passwords config.PasswordConfig) (*Seeder, error) {
	if conn == nil {
		return nil, fmt.Errorf("database connection required")
	}
	return &Seeder{
		conn:      conn,
		users:     users.NewRepository(conn),
		accounts:  accounts,
		passwords: passwords,
	}, nil
}

// Run is idempotent: existing accounts (by email) and products (by name) are left untouched.
// Product failures are collected so one bad row does not hide the others.
func (s *Seeder) Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Reset {
		if err := s.reset(ctx); err != nil {
			return nil, err
		}
	}

	result := &Result{}
	for _, acct := range []struct {
		name, email, password string
		role                  enums.UserRole
	}{
		{s.accounts.AdminName, s.accounts.AdminEmail, s.accounts.AdminPassword, enums.UserRoleAdmin},
		{s.accounts.UserName, s.accounts.UserEmail, s.accounts.UserPassword, enums.UserRoleUser},
	} {
		if acct.email == "" {
			continue
		}
		account, err := s.ensureAccount(ctx, acct.name, acct.email, acct.password, acct.role)
		if err != nil {
			return nil, err
		}
		result.Accounts = append(result.Accounts, *account)
	}

	var errs error
	for _, item := range Catalog {
		created, err := s.ensureProduct(ctx, item)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", item.Name, err))
			continue
		}
		if created {
			result.ProductsCreated++
		} else {
			result.ProductsSkipped++
		}
	}
	return result, errs
}

func (s *Seeder) reset(ctx context.Context) error {
	return s.conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&models.OrderItem{}, &models.Order{}, &models.CartItem{}, &models.Cart{}, &models.Product{}, &models.User{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return fmt.Errorf("reset %T: %w", model, err)
			}
		}
		return nil
	})
}

func (s *Seeder) ensureAccount(ctx context.Context, name, email, password string, role enums.UserRole) (*Account, error) {
	email = users.NormalizeEmail(email)
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return &Account{Email: email, Role: role}, nil
	} else if !db.IsNotFound(err) {
		return nil, fmt.Errorf("lookup %s: %w", email, err)
	}

	account := &Account{Email: email, Role: role, Created: true}
	if password == "" {
		generated, err := security.GenerateTempPassword(tempPasswordLength)
		if err != nil {
			return nil, fmt.Errorf("generate password: %w", err)
		}
		password = generated
		account.Password = generated
	}
	hash, err := security.HashPassword(password, s.passwords)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if _, err := s.users.Create(ctx, users.CreateUserDTO{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}); err != nil {
		return nil, fmt.Errorf("create %s: %w", email, err)
	}
	return account, nil
}

func (s *Seeder) ensureProduct(ctx context.Context, item Item) (bool, error) {
	var count int64
	if err := s.conn.WithContext(ctx).Model(&models.Product{}).Where("name = ?", item.Name).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	price, err := decimal.NewFromString(item.Price)
	if err != nil {
		return false, fmt.Errorf("price: %w", err)
	}
	rating, err := decimal.NewFromString(item.Rating)
	if err != nil {
		return false, fmt.Errorf("rating: %w", err)
	}
	product := &models.Product{
		Name:        item.Name,
		Description: item.Description,
		Price:       price,
		Category:    item.Category,
		Image:       item.Image,
		Stock:       item.Stock,
		Rating:      rating,
		NumReviews:  item.NumReviews,
		IsActive:    true,
	}
	return true, s.conn.WithContext(ctx).Create(product).Error
}
