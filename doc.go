// Package backend is the Zaplinker short link service: one public URL per
// workspace that redirects visitors to one of the workspace's WhatsApp numbers
// and records who clicked.

// The code is organized into subpackages:

// - cmd/server: HTTP server (management API, redirects, /health, /metrics)
// - cmd/zaplinker-admin: maintenance CLI (migrate, seed, set-plan, prune)
// - internal/handlers: HTTP request handlers for all API endpoints
// - internal/redirect: visit resolution and the analytics recorder
// - internal/models: Data models and database schemas
// - internal/repository: gorm-backed persistence
// - internal/cache: Redis client, route cache and unique visitor estimates
// - internal/queue: write-behind analytics queue
// - internal/jobs: scheduled retention
// - internal/middleware: HTTP middleware (rate limiting, metrics, tracing)

// See the individual package documentation for detailed API reference.
package backend
