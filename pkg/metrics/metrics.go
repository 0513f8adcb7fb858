// Package metrics holds the prometheus collectors exported on /metrics.
package metrics

const namespace = "storefront"
