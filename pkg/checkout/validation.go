package checkout

import (
	"github.com/google/uuid"

	"github.com/northwind-labs/storefront/pkg/enums"
	pkgerrors "github.com/northwind-labs/storefront/pkg/errors"
	"github.com/northwind-labs/storefront/pkg/types"
)

// Line is one requested product and quantity.
type Line struct {
	ProductID uuid.UUID
	Quantity  int
}

// LineViolation describes a requested line that cannot be accepted as submitted.
type LineViolation struct {
	Index        int       `json:"index"`
	ProductID    uuid.UUID `json:"product_id"`
	RequestedQty int       `json:"requested_qty"`
	Reason       string    `json:"reason"`
}

// ValidateRequest checks the shape of an order request before any catalog lookup.
// An empty line list is reported as EMPTY_ORDER; every other problem is a validation error.
func ValidateRequest(lines []Line, address types.ShippingAddress, method string) (enums.PaymentMethod, error) {
	if len(lines) == 0 {
		return "", pkgerrors.New(pkgerrors.CodeEmptyOrder, "No order items")
	}

	var violations []LineViolation
	for i, line := range lines {
		switch {
		case line.ProductID == uuid.Nil:
			violations = append(violations, LineViolation{Index: i, RequestedQty: line.Quantity, Reason: "product required"})
		case line.Quantity < 1:
			violations = append(violations, LineViolation{Index: i, ProductID: line.ProductID, RequestedQty: line.Quantity, Reason: "quantity must be at least 1"})
		}
	}
	if len(violations) > 0 {
		return "", pkgerrors.Newf(pkgerrors.CodeValidation, "invalid order items: %d line(s)", len(violations)).WithDetails(map[string]any{
			"violations": violations,
		})
	}

	if missing := address.MissingFields(); len(missing) > 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "shipping address incomplete").WithDetails(map[string]any{
			"missing": missing,
		})
	}

	pm, err := enums.ParsePaymentMethod(method)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method")
	}
	return pm, nil
}
