package enums

import "slices"

// PaymentMethod describes how a customer intends to settle an order.
type PaymentMethod string

const (
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodPayPal PaymentMethod = "paypal"
	PaymentMethodCash   PaymentMethod = "cash"
)

// PaymentMethods lists the accepted methods in display order.
var PaymentMethods = []PaymentMethod{PaymentMethodCard, PaymentMethodPayPal, PaymentMethodCash}

func (p PaymentMethod) String() string { return string(p) }

func (p PaymentMethod) IsValid() bool {
	return slices.Contains(PaymentMethods, p)
}

// ParsePaymentMethod accepts any casing and surrounding whitespace.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	return parseFolded("payment method", value, PaymentMethods)
}

// PaymentStatus is recorded on an order's payment result when it is paid.
type PaymentStatus string

// PaymentStatusCompleted is the only status the pay endpoint writes.
const PaymentStatusCompleted PaymentStatus = "completed"

func (p PaymentStatus) String() string { return string(p) }
