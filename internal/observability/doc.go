// Package observability builds the zap logger and the Prometheus metrics
// shared by the HTTP layer, the login flow and the user directory.
package observability
