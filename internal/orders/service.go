package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/northwind-labs/storefront/pkg/db"
	"github.com/northwind-labs/storefront/pkg/db/models"
	"github.com/northwind-labs/storefront/pkg/enums"
	pkgerrors "github.com/northwind-labs/storefront/pkg/errors"
	"github.com/northwind-labs/storefront/pkg/logger"
	"github.com/northwind-labs/storefront/pkg/pagination"
)

// DefaultPaymentID is recorded when mark-paid carries no external reference.
const DefaultPaymentID = "mock_payment_id"

// Service exposes order reads and the paid/delivered transitions.
type Service interface {
	MyOrders(ctx context.Context, actor Actor) ([]OrderDTO, error)
	Get(ctx context.Context, actor Actor, id uuid.UUID) (*OrderDTO, error)
	List(ctx context.Context, params pagination.Params) (pagination.Page[OrderDTO], error)
	MarkPaid(ctx context.Context, actor Actor, id uuid.UUID, confirmation PaymentConfirmation) (*OrderDTO, error)
	MarkDelivered(ctx context.Context, actor Actor, id uuid.UUID) (*OrderDTO, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
	now  func() time.Time
}

// NewService builds the order service.
func NewService(repo Repository, logg *logger.Logger, now func() time.Time) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	if now == nil {
		now = time.Now
	}
	return &service{repo: repo, logg: logg, now: now}, nil
}

func (s *service) MyOrders(ctx context.Context, actor Actor) ([]OrderDTO, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	rows, err := s.repo.ListByUser(ctx, actor.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return FromModels(rows), nil
}

func (s *service) Get(ctx context.Context, actor Actor, id uuid.UUID) (*OrderDTO, error) {
	order, err := s.loadVisible(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return FromModel(order), nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (pagination.Page[OrderDTO], error) {
	params = params.Normalize(pagination.DefaultAdminLimit)
	rows, total, err := s.repo.List(ctx, params)
	if err != nil {
		return pagination.Page[OrderDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return pagination.NewPage(FromModels(rows), params, total), nil
}

// MarkPaid overwrites any previous confirmation; repeated calls are not rejected.
func (s *service) MarkPaid(ctx context.Context, actor Actor, id uuid.UUID, confirmation PaymentConfirmation) (*OrderDTO, error) {
	order, err := s.loadVisible(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	paymentID := strings.TrimSpace(confirmation.ID)
	if paymentID == "" {
		paymentID = DefaultPaymentID
	}
	status := enums.PaymentStatusCompleted
	updateTime := now.Format(time.RFC3339)
	email := actor.Email

	if order.IsPaid {
		s.logg.Warn(s.orderCtx(ctx, order), "order already paid; overwriting payment result")
	}
	order.IsPaid = true
	order.PaidAt = &now
	order.PaymentResult = models.PaymentResult{
		ID:           &paymentID,
		Status:       &status,
		UpdateTime:   &updateTime,
		EmailAddress: &email,
	}
	if err := s.repo.Save(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark order paid")
	}
	s.logg.Info(s.orderCtx(ctx, order), "order marked paid")
	return FromModel(order), nil
}

// MarkDelivered does not require the order to be paid first.
func (s *service) MarkDelivered(ctx context.Context, actor Actor, id uuid.UUID) (*OrderDTO, error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if !order.IsPaid {
		s.logg.Warn(s.orderCtx(ctx, order), "order marked delivered before payment")
	}
	now := s.now().UTC()
	order.IsDelivered = true
	order.DeliveredAt = &now
	if err := s.repo.Save(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark order delivered")
	}
	s.logg.Info(s.orderCtx(ctx, order), "order marked delivered")
	return FromModel(order), nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeOrderNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return order, nil
}

func (s *service) loadVisible(ctx context.Context, actor Actor, id uuid.UUID) (*models.Order, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != actor.UserID && !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not authorized to access this order")
	}
	return order, nil
}

func (s *service) orderCtx(ctx context.Context, order *models.Order) context.Context {
	return s.logg.WithFields(ctx, map[string]any{
		"order_id": order.ID.String(),
		"is_paid":  order.IsPaid,
	})
}
