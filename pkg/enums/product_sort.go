package enums

import (
	"fmt"
	"strings"
)

// ProductSort is a catalog ordering; a leading "-" means descending.
type ProductSort string

const (
	ProductSortNewest     ProductSort = "-createdAt"
	ProductSortOldest     ProductSort = "createdAt"
	ProductSortPriceAsc   ProductSort = "price"
	ProductSortPriceDesc  ProductSort = "-price"
	ProductSortNameAsc    ProductSort = "name"
	ProductSortNameDesc   ProductSort = "-name"
	ProductSortRatingDesc ProductSort = "-rating"
)

var productSortColumns = map[ProductSort]string{
	ProductSortNewest:     "created_at DESC",
	ProductSortOldest:     "created_at ASC",
	ProductSortPriceAsc:   "price ASC",
	ProductSortPriceDesc:  "price DESC",
	ProductSortNameAsc:    "name ASC",
	ProductSortNameDesc:   "name DESC",
	ProductSortRatingDesc: "rating DESC",
}

func (s ProductSort) String() string { return string(s) }

// IsValid reports whether the value is a known ProductSort.
func (s ProductSort) IsValid() bool {
	_, ok := productSortColumns[s]
	return ok
}

// OrderClause returns the SQL ORDER BY fragment for the sort.
func (s ProductSort) OrderClause() string {
	if clause, ok := productSortColumns[s]; ok {
		return clause
	}
	return productSortColumns[ProductSortNewest]
}

// ParseProductSort converts raw input into a ProductSort, defaulting to newest first.
func ParseProductSort(value string) (ProductSort, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ProductSortNewest, nil
	}
	sort := ProductSort(trimmed)
	if !sort.IsValid() {
		return "", fmt.Errorf("invalid sort %q", value)
	}
	return sort, nil
}
