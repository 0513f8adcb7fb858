package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/northwind-labs/storefront/pkg/db/dbtest"
	"github.com/northwind-labs/storefront/pkg/db/models"
	"github.com/northwind-labs/storefront/pkg/enums"
	pkgerrors "github.com/northwind-labs/storefront/pkg/errors"
	"github.com/northwind-labs/storefront/pkg/pagination"
	"github.com/northwind-labs/storefront/pkg/types"
)

var fixedNow = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func newTestService(t *testing.T) (Service, Repository, *gorm.DB) {
	t.Helper()
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	svc, err := NewService(repo, nil, func() time.Time { return fixedNow })
	require.NoError(t, err)
	return svc, repo, client.DB()
}

func createOrder(t *testing.T, repo Repository, userID uuid.UUID, names ...string) *models.Order {
	t.Helper()
	order := &models.Order{
		UserID: userID,
		ShippingAddress: types.ShippingAddress{
			Address: "1 Main St", City: "Springfield", PostalCode: "12345", Country: "US",
		},
		PaymentMethod: enums.PaymentMethodCard,
		ItemsPrice:    decimal.RequireFromString("60"),
		TaxPrice:      decimal.RequireFromString("6"),
		ShippingPrice: decimal.RequireFromString("10"),
		TotalPrice:    decimal.RequireFromString("76"),
	}
	for _, name := range names {
		order.Items = append(order.Items, models.OrderItem{
			ProductID: uuid.New(),
			Name:      name,
			Image:     models.DefaultProductImage,
			Price:     decimal.RequireFromString("20"),
			Quantity:  1,
		})
	}
	require.NoError(t, repo.Create(context.Background(), order))
	return order
}

func TestGetEnforcesOwnershipUnlessAdmin(t *testing.T) {
	svc, repo, conn := newTestService(t)
	ctx := context.Background()
	owner := dbtest.CreateUser(t, conn, enums.UserRoleUser)
	stranger := dbtest.CreateUser(t, conn, enums.UserRoleUser)
	admin := dbtest.CreateUser(t, conn, enums.UserRoleAdmin)
	order := createOrder(t, repo, owner.ID, "first", "second", "third")

	got, err := svc.Get(ctx, Actor{UserID: owner.ID, Role: enums.UserRoleUser}, order.ID)
	require.NoError(t, err)
	require.Len(t, got.OrderItems, 3)
	assert.Equal(t, "first", got.OrderItems[0].Name)
	assert.Equal(t, "third", got.OrderItems[2].Name)
	require.NotNil(t, got.User)
	assert.Equal(t, owner.Email, got.User.Email)
	assert.Nil(t, got.PaymentResult)

	_, err = svc.Get(ctx, Actor{UserID: stranger.ID, Role: enums.UserRoleUser}, order.ID)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeForbidden))

	_, err = svc.Get(ctx, Actor{UserID: admin.ID, Role: enums.UserRoleAdmin}, order.ID)
	assert.NoError(t, err)

	_, err = svc.Get(ctx, Actor{UserID: owner.ID, Role: enums.UserRoleUser}, uuid.New())
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeOrderNotFound))

	_, err = svc.Get(ctx, Actor{}, order.ID)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeUnauthorized))
}

func TestMyOrdersOnlyReturnsCallerOrders(t *testing.T) {
	svc, repo, conn := newTestService(t)
	ctx := context.Background()
	me := dbtest.CreateUser(t, conn, enums.UserRoleUser)
	other := dbtest.CreateUser(t, conn, enums.UserRoleUser)
	createOrder(t, repo, me.ID, "a")
	createOrder(t, repo, me.ID, "b")
	createOrder(t, repo, other.ID, "c")

	mine, err := svc.MyOrders(ctx, Actor{UserID: me.ID, Role: enums.UserRoleUser})
	require.NoError(t, err)
	assert.Len(t, mine, 2)
	for _, o := range mine {
		assert.Equal(t, me.ID, o.UserID)
	}
}

func TestListPaginatesWithAdminDefault(t *testing.T) {
	svc, repo, conn := newTestService(t)
	user := dbtest.CreateUser(t, conn, enums.UserRoleUser)
	for i := 0; i < 12; i++ {
		createOrder(t, repo, user.ID, "x")
	}

	page, err := svc.List(context.Background(), pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, page.Items, 10)
	assert.Equal(t, pagination.Meta{Page: 1, Limit: 10, Total: 12, Pages: 2}, page.Pagination)

	page, err = svc.List(context.Background(), pagination.Params{Page: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
}

func TestMarkPaidRecordsConfirmationAndOverwrites(t *testing.T) {
	svc, repo, conn := newTestService(t)
	ctx := context.Background()
	owner := dbtest.CreateUser(t, conn, enums.UserRoleUser)
	order := createOrder(t, repo, owner.ID, "a")
	actor := Actor{UserID: owner.ID, Role: enums.UserRoleUser, Email: owner.Email}

	paid, err := svc.MarkPaid(ctx, actor, order.ID, PaymentConfirmation{})
	require.NoError(t, err)
	assert.True(t, paid.IsPaid)
	require.NotNil(t, paid.PaidAt)
	assert.True(t, fixedNow.Equal(*paid.PaidAt))
	require.NotNil(t, paid.PaymentResult)
	assert.Equal(t, DefaultPaymentID, paid.PaymentResult.ID)
	assert.Equal(t, "completed", paid.PaymentResult.Status)
	assert.Equal(t, "2025-03-14T09:26:53Z", paid.PaymentResult.UpdateTime)
	assert.Equal(t, owner.Email, paid.PaymentResult.EmailAddress)

	again, err := svc.MarkPaid(ctx, actor, order.ID, PaymentConfirmation{ID: "pay_123"})
	require.NoError(t, err)
	assert.Equal(t, "pay_123", again.PaymentResult.ID)

	stored, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsPaid)
	require.NotNil(t, stored.PaymentResult.ID)
	assert.Equal(t, "pay_123", *stored.PaymentResult.ID)
	assert.Len(t, stored.Items, 1, "items untouched by save")

	_, err = svc.MarkPaid(ctx, actor, uuid.New(), PaymentConfirmation{})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeOrderNotFound))
}

// Delivery is not gated on payment; this asserts the permissive behavior.
func TestMarkDeliveredBeforePaidSucceeds(t *testing.T) {
	svc, repo, conn := newTestService(t)
	ctx := context.Background()
	owner := dbtest.CreateUser(t, conn, enums.UserRoleUser)
	admin := dbtest.CreateUser(t, conn, enums.UserRoleAdmin)
	order := createOrder(t, repo, owner.ID, "a")

	_, err := svc.MarkDelivered(ctx, Actor{UserID: owner.ID, Role: enums.UserRoleUser}, order.ID)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeForbidden))

	delivered, err := svc.MarkDelivered(ctx, Actor{UserID: admin.ID, Role: enums.UserRoleAdmin}, order.ID)
	require.NoError(t, err)
	assert.True(t, delivered.IsDelivered)
	assert.False(t, delivered.IsPaid)
	require.NotNil(t, delivered.DeliveredAt)

	_, err = svc.MarkDelivered(ctx, Actor{UserID: admin.ID, Role: enums.UserRoleAdmin}, uuid.New())
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeOrderNotFound))
}
