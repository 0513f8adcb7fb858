// Package env reads the few settings needed before config.Load runs.
package env

import (
	"os"
	"strings"
)

// Prefix matches the envconfig prefix used by pkg/config.
const Prefix = "STOREFRONT_"

// Get returns the prefixed variable, then the bare one, then fallback.
// Blank values count as unset.
func Get(key, fallback string) string {
	if v := lookup(Prefix + key); v != "" {
		return v
	}
	if v := lookup(key); v != "" {
		return v
	}
	return fallback
}

// Is reports whether Get(key, "") equals want, ignoring case.
func Is(key, want string) bool {
	return strings.EqualFold(Get(key, ""), want)
}

func lookup(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
