// Package money holds the order pricing rules.
package money

import "github.com/shopspring/decimal"

// Places is the currency precision every stored amount is rounded to.
const Places = 2

var (
	// TaxRate is applied to the items subtotal.
	TaxRate = decimal.RequireFromString("0.10")
	// FreeShippingThreshold is the items subtotal that must be exceeded for free shipping.
	FreeShippingThreshold = decimal.RequireFromString("100.00")
	// FlatShipping is charged when the threshold is not exceeded.
	FlatShipping = decimal.RequireFromString("10.00")
)

// Breakdown is the computed price of an order.
type Breakdown struct {
	Items    decimal.Decimal
	Tax      decimal.Decimal
	Shipping decimal.Decimal
	Total    decimal.Decimal
}

// Line is a priced quantity.
type Line struct {
	Price    decimal.Decimal
	Quantity int
}

// Round applies currency precision.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// Subtotal sums price times quantity over lines.
func Subtotal(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return Round(total)
}

// Tax returns the tax owed on an items subtotal.
func Tax(items decimal.Decimal) decimal.Decimal {
	return Round(items.Mul(TaxRate))
}

// Shipping returns zero above the free shipping threshold, the flat fee otherwise.
func Shipping(items decimal.Decimal) decimal.Decimal {
	if items.GreaterThan(FreeShippingThreshold) {
		return decimal.Zero
	}
	return FlatShipping
}

// Price computes the full breakdown for lines.
func Price(lines []Line) Breakdown {
	items := Subtotal(lines)
	tax := Tax(items)
	shipping := Shipping(items)
	return Breakdown{
		Items:    items,
		Tax:      tax,
		Shipping: shipping,
		Total:    Round(items.Add(tax).Add(shipping)),
	}
}
