package cart

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/northwind-labs/storefront/internal/products"
	"github.com/northwind-labs/storefront/pkg/db/dbtest"
	"github.com/northwind-labs/storefront/pkg/db/models"
	"github.com/northwind-labs/storefront/pkg/enums"
	pkgerrors "github.com/northwind-labs/storefront/pkg/errors"
)

type fixture struct {
	svc  Service
	repo *Repository
	conn *gorm.DB
	user *models.User
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	svc, err := NewService(repo, products.NewRepository(client.DB()))
	require.NoError(t, err)
	return fixture{
		svc:  svc,
		repo: repo,
		conn: client.DB(),
		user: dbtest.CreateUser(t, client.DB(), enums.UserRoleUser),
	}
}

func TestGetCreatesEmptyCartLazily(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Get(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, first.Items)
	assert.True(t, first.TotalPrice.IsZero())

	second, err := f.svc.Get(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestAddItemMergesQuantitiesAndCapturesPrice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := dbtest.CreateProduct(t, f.conn, "Mouse", "20.00", 5)

	cart, err := f.svc.AddItem(ctx, f.user.ID, AddItemRequest{ProductID: product.ID, Quantity: 2})
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)

	require.NoError(t, f.conn.Model(&models.Product{}).Where("id = ?", product.ID).
		UpdateColumn("price", decimal.RequireFromString("99.00")).Error)

	cart, err = f.svc.AddItem(ctx, f.user.ID, AddItemRequest{ProductID: product.ID, Quantity: 1})
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.True(t, decimal.RequireFromString("20").Equal(cart.Items[0].Price))
	assert.True(t, decimal.RequireFromString("60").Equal(cart.TotalPrice))
	require.NotNil(t, cart.Items[0].Product)
	assert.Equal(t, "Mouse", cart.Items[0].Product.Name)
}

func TestAddItemChecksStockAgainstMergedQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := dbtest.CreateProduct(t, f.conn, "Keyboard", "50.00", 3)

	_, err := f.svc.AddItem(ctx, f.user.ID, AddItemRequest{ProductID: product.ID, Quantity: 4})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeInsufficientStock))

	_, err = f.svc.AddItem(ctx, f.user.ID, AddItemRequest{ProductID: product.ID, Quantity: 2})
	require.NoError(t, err)

	_, err = f.svc.AddItem(ctx, f.user.ID, AddItemRequest{ProductID: product.ID, Quantity: 2})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, typed.Code())
	assert.Equal(t, "Only 3 items available in stock", typed.Message())
}

func TestAddItemRejectsUnknownOrInactiveProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, f.user.ID, AddItemRequest{ProductID: uuid.New(), Quantity: 1})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeProductNotFound))

	product := dbtest.CreateProduct(t, f.conn, "Retired", "5.00", 5)
	require.NoError(t, f.conn.Model(&models.Product{}).Where("id = ?", product.ID).UpdateColumn("is_active", false).Error)
	_, err = f.svc.AddItem(ctx, f.user.ID, AddItemRequest{ProductID: product.ID, Quantity: 1})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeProductNotFound))
}

func TestUpdateRemoveAndClear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := dbtest.CreateProduct(t, f.conn, "A", "10.00", 10)
	b := dbtest.CreateProduct(t, f.conn, "B", "2.50", 10)

	_, err := f.svc.UpdateItem(ctx, f.user.ID, uuid.New(), UpdateItemRequest{Quantity: 1})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound), "cart does not exist yet")

	_, err = f.svc.AddItem(ctx, f.user.ID, AddItemRequest{ProductID: a.ID, Quantity: 1})
	require.NoError(t, err)
	cart, err := f.svc.AddItem(ctx, f.user.ID, AddItemRequest{ProductID: b.ID, Quantity: 2})
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)
	assert.Equal(t, a.ID, cart.Items[0].ProductID, "items keep insertion order")

	cart, err = f.svc.UpdateItem(ctx, f.user.ID, cart.Items[0].ID, UpdateItemRequest{Quantity: 4})
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("45").Equal(cart.TotalPrice))

	_, err = f.svc.UpdateItem(ctx, f.user.ID, cart.Items[0].ID, UpdateItemRequest{Quantity: 11})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeInsufficientStock))

	_, err = f.svc.UpdateItem(ctx, f.user.ID, cart.Items[0].ID, UpdateItemRequest{Quantity: 0})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	cart, err = f.svc.RemoveItem(ctx, f.user.ID, cart.Items[1].ID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)

	_, err = f.svc.RemoveItem(ctx, f.user.ID, uuid.New())
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))

	cart, err = f.svc.Clear(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestDeleteStaleEmptyKeepsCartsWithItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := dbtest.CreateUser(t, f.conn, enums.UserRoleUser)
	product := dbtest.CreateProduct(t, f.conn, "Kept", "1.00", 5)

	_, err := f.svc.Get(ctx, f.user.ID)
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, other.ID, AddItemRequest{ProductID: product.ID, Quantity: 1})
	require.NoError(t, err)

	old := time.Now().UTC().Add(-48 * time.Hour)
	require.NoError(t, f.conn.Model(&models.Cart{}).Where("1 = 1").UpdateColumn("updated_at", old).Error)

	deleted, err := f.repo.DeleteStaleEmpty(ctx, time.Now().UTC().Add(-24*time.Hour), 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	_, err = f.repo.FindByUserID(ctx, f.user.ID)
	assert.Error(t, err)
	_, err = f.repo.FindByUserID(ctx, other.ID)
	assert.NoError(t, err)
}
