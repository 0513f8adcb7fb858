package checkout

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/northwind-labs/storefront/internal/orders"
	pkgcheckout "github.com/northwind-labs/storefront/pkg/checkout"
	"github.com/northwind-labs/storefront/pkg/config"
	"github.com/northwind-labs/storefront/pkg/db"
	"github.com/northwind-labs/storefront/pkg/db/models"
	pkgerrors "github.com/northwind-labs/storefront/pkg/errors"
	"github.com/northwind-labs/storefront/pkg/logger"
	"github.com/northwind-labs/storefront/pkg/metrics"
	"github.com/northwind-labs/storefront/pkg/money"
	"github.com/northwind-labs/storefront/pkg/types"
)

// Mode selects how order placement persists its effects.
type Mode string

const (
	// ModeTransactional runs every write in one transaction with guarded stock decrements.
	ModeTransactional Mode = config.CheckoutModeTransactional
	// ModeLegacy persists each decrement immediately with no rollback and no stock guard.
	ModeLegacy Mode = config.CheckoutModeLegacy
)

// ModeFromConfig maps checkout configuration to a Mode.
func ModeFromConfig(cfg config.CheckoutConfig) Mode {
	if cfg.IsLegacy() {
		return ModeLegacy
	}
	return ModeTransactional
}

// Actor is the authenticated caller placing the order.
type Actor = orders.Actor

// LineItemInput is one requested line of an order.
type LineItemInput struct {
	Product  uuid.UUID `json:"product" validate:"required"`
	Quantity int       `json:"quantity" validate:"gte=1"`
}

// PlaceOrderInput is the order creation request.
type PlaceOrderInput struct {
	OrderItems      []LineItemInput       `json:"orderItems" validate:"omitempty,dive"`
	ShippingAddress types.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                `json:"paymentMethod"`
}

// Service places orders.
type Service interface {
	PlaceOrder(ctx context.Context, actor Actor, input PlaceOrderInput) (*models.Order, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	DecrementStockIfAvailable(ctx context.Context, id uuid.UUID, qty int) (bool, error)
	DecrementStock(ctx context.Context, id uuid.UUID, qty int) error
}

type cartClearer interface {
	ClearForUser(ctx context.Context, userID uuid.UUID) error
}

type orderStore interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

// Repositories are the stores order placement writes through.
type Repositories struct {
	Products productStore
	Carts    cartClearer
	Orders   orderStore
}

// Binder returns Repositories bound to tx, or to the base connection when tx is nil.
type Binder func(tx *gorm.DB) Repositories

// ServiceParams wires the checkout service.
type ServiceParams struct {
	Tx      txRunner
	Bind    Binder
	Mode    Mode
	Metrics *metrics.CheckoutMetrics
	Logger  *logger.Logger
	Now     func() time.Time
}

type service struct {
	tx      txRunner
	bind    Binder
	mode    Mode
	metrics *metrics.CheckoutMetrics
	logg    *logger.Logger
	now     func() time.Time
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Bind == nil {
		return nil, fmt.Errorf("repository binder required")
	}
	switch params.Mode {
	case "":
		params.Mode = ModeTransactional
	case ModeTransactional, ModeLegacy:
	default:
		return nil, fmt.Errorf("unknown checkout mode %q", params.Mode)
	}
	if params.Mode == ModeTransactional && params.Tx == nil {
		return nil, fmt.Errorf("tx runner required in %s mode", params.Mode)
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &service{
		tx:      params.Tx,
		bind:    params.Bind,
		mode:    params.Mode,
		metrics: params.Metrics,
		logg:    params.Logger,
		now:     params.Now,
	}, nil
}

func (s *service) PlaceOrder(ctx context.Context, actor Actor, input PlaceOrderInput) (order *models.Order, err error) {
	start := s.now()
	ctx = s.logg.WithFields(ctx, map[string]any{
		"user_id":       actor.UserID.String(),
		"checkout_mode": string(s.mode),
		"line_count":    len(input.OrderItems),
	})
	defer func() {
		s.metrics.Observe(string(s.mode), outcomeOf(err), s.now().Sub(start))
		if err != nil {
			if typed := pkgerrors.As(err); typed != nil && typed.Code() != pkgerrors.CodeInternal {
				s.logg.Warn(ctx, "order rejected: "+typed.Message())
				return
			}
			s.logg.Error(ctx, "order placement failed", err)
			return
		}
		total, _ := order.TotalPrice.Float64()
		s.metrics.AddRevenue(total)
		s.logg.Info(s.logg.WithOrderID(ctx, order.ID.String()), "order placed")
	}()

	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	lines := make([]pkgcheckout.Line, len(input.OrderItems))
	for i, item := range input.OrderItems {
		lines[i] = pkgcheckout.Line{ProductID: item.Product, Quantity: item.Quantity}
	}
	method, err := pkgcheckout.ValidateRequest(lines, input.ShippingAddress, input.PaymentMethod)
	if err != nil {
		return nil, err
	}

	draft := &models.Order{
		UserID:          actor.UserID,
		ShippingAddress: input.ShippingAddress.Normalize(),
		PaymentMethod:   method,
	}

	if s.mode == ModeLegacy {
		return s.placeLegacy(ctx, actor, lines, draft)
	}
	return s.placeTransactional(ctx, actor, lines, draft)
}

// placeTransactional applies every effect atomically. Concurrent buyers of the same
// stock are serialised by the guarded decrement; the loser sees INSUFFICIENT_STOCK.
func (s *service) placeTransactional(ctx context.Context, actor Actor, lines []pkgcheckout.Line, draft *models.Order) (*models.Order, error) {
	var placed *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repos := s.bind(tx)
		for _, line := range lines {
			product, err := loadOrderable(ctx, repos.Products, line.ProductID)
			if err != nil {
				return err
			}
			if err := checkStock(product, line.Quantity); err != nil {
				return err
			}
			ok, err := repos.Products.DecrementStockIfAvailable(ctx, product.ID, line.Quantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decrement stock")
			}
			if !ok {
				return insufficientStock(product, line.Quantity)
			}
			draft.Items = append(draft.Items, snapshot(product, line.Quantity))
		}
		applyPricing(draft)

		if err := repos.Orders.Create(ctx, draft); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
		}
		s.clearCart(ctx, tx, actor.UserID)

		reloaded, err := repos.Orders.FindByID(ctx, draft.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload order")
		}
		placed = reloaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return placed, nil
}

// placeLegacy persists each decrement as soon as its line passes the stock check.
// A later failing line leaves earlier decrements applied, and two concurrent
// buyers can both pass the check before either decrement lands.
func (s *service) placeLegacy(ctx context.Context, actor Actor, lines []pkgcheckout.Line, draft *models.Order) (*models.Order, error) {
	repos := s.bind(nil)
	for _, line := range lines {
		product, err := loadOrderable(ctx, repos.Products, line.ProductID)
		if err != nil {
			return nil, err
		}
		if err := checkStock(product, line.Quantity); err != nil {
			return nil, err
		}
		draft.Items = append(draft.Items, snapshot(product, line.Quantity))
		if err := repos.Products.DecrementStock(ctx, product.ID, line.Quantity); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decrement stock")
		}
	}
	applyPricing(draft)

	if err := repos.Orders.Create(ctx, draft); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
	}
	s.clearCart(ctx, nil, actor.UserID)

	placed, err := repos.Orders.FindByID(ctx, draft.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload order")
	}
	return placed, nil
}

// clearCart is best effort: a failure is logged and the order stands. Inside a
// transaction the clear runs in a savepoint so its failure cannot abort the order.
func (s *service) clearCart(ctx context.Context, tx *gorm.DB, userID uuid.UUID) {
	var err error
	if tx != nil {
		err = tx.Transaction(func(sp *gorm.DB) error {
			return s.bind(sp).Carts.ClearForUser(ctx, userID)
		})
	} else {
		err = s.bind(nil).Carts.ClearForUser(ctx, userID)
	}
	if err != nil {
		s.logg.Error(ctx, "cart clear after order placement failed", err)
	}
}

func loadOrderable(ctx context.Context, products productStore, id uuid.UUID) (*models.Product, error) {
	product, err := products.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, productNotFound(id)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if !product.IsActive {
		return nil, productNotFound(id)
	}
	return product, nil
}

func checkStock(product *models.Product, qty int) error {
	if product.Stock < qty {
		return insufficientStock(product, qty)
	}
	return nil
}

func productNotFound(id uuid.UUID) error {
	return pkgerrors.Newf(pkgerrors.CodeProductNotFound, "Product %s not found", id).
		WithDetails(map[string]any{"product_id": id})
}

func insufficientStock(product *models.Product, qty int) error {
	return pkgerrors.Newf(pkgerrors.CodeInsufficientStock, "Insufficient stock for %s", product.Name).
		WithDetails(map[string]any{
			"product_id": product.ID,
			"available":  product.Stock,
			"requested":  qty,
		})
}

func snapshot(product *models.Product, qty int) models.OrderItem {
	return models.OrderItem{
		ProductID: product.ID,
		Name:      product.Name,
		Image:     product.Image,
		Price:     product.Price,
		Quantity:  qty,
	}
}

func applyPricing(order *models.Order) {
	lines := make([]money.Line, len(order.Items))
	for i, item := range order.Items {
		lines[i] = money.Line{Price: item.Price, Quantity: item.Quantity}
	}
	b := money.Price(lines)
	order.ItemsPrice = b.Items
	order.TaxPrice = b.Tax
	order.ShippingPrice = b.Shipping
	order.TotalPrice = b.Total
}

func outcomeOf(err error) string {
	if err == nil {
		return metrics.OutcomePlaced
	}
	switch {
	case pkgerrors.Is(err, pkgerrors.CodeEmptyOrder):
		return metrics.OutcomeEmptyOrder
	case pkgerrors.Is(err, pkgerrors.CodeProductNotFound):
		return metrics.OutcomeProductNotFound
	case pkgerrors.Is(err, pkgerrors.CodeInsufficientStock):
		return metrics.OutcomeInsufficientStock
	case pkgerrors.StatusOf(err) < http.StatusInternalServerError:
		return metrics.OutcomeRejected
	}
	return metrics.OutcomeError
}
