// Package instance names the running process for lock ownership and logs.
package instance

import (
	"os"

	"github.com/northwind-labs/storefront/pkg/env"
)

// GetID returns STOREFRONT_WORKER_ID (or WORKER_ID), then the hostname, then "worker-0".
func GetID() string {
	if id := env.Get("WORKER_ID", ""); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "worker-0"
}
