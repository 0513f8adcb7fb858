package types

import "strings"

// ShippingAddress is the delivery destination captured on an order.
type ShippingAddress struct {
	Address    string `json:"address" gorm:"column:address;not null"`
	City       string `json:"city" gorm:"column:city;not null"`
	PostalCode string `json:"postalCode" gorm:"column:postal_code;not null"`
	Country    string `json:"country" gorm:"column:country;not null"`
}

// Normalize trims surrounding whitespace from every field.
func (a ShippingAddress) Normalize() ShippingAddress {
	return ShippingAddress{
		Address:    strings.TrimSpace(a.Address),
		City:       strings.TrimSpace(a.City),
		PostalCode: strings.TrimSpace(a.PostalCode),
		Country:    strings.TrimSpace(a.Country),
	}
}

// MissingFields lists the json names of empty fields after normalisation.
func (a ShippingAddress) MissingFields() []string {
	n := a.Normalize()
	var missing []string
	if n.Address == "" {
		missing = append(missing, "address")
	}
	if n.City == "" {
		missing = append(missing, "city")
	}
	if n.PostalCode == "" {
		missing = append(missing, "postalCode")
	}
	if n.Country == "" {
		missing = append(missing, "country")
	}
	return missing
}
