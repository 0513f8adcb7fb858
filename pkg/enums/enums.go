// Package enums holds the closed string sets stored in the database and
// accepted from clients.
package enums

import (
	"fmt"
	"slices"
	"strings"
)

// parseFolded matches raw against values after trimming and lower-casing.
func parseFolded[T ~string](kind, raw string, values []T) (T, error) {
	v := T(strings.ToLower(strings.TrimSpace(raw)))
	if slices.Contains(values, v) {
		return v, nil
	}
	return "", fmt.Errorf("invalid %s %q", kind, raw)
}
