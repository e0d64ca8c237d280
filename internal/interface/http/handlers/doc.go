// Package handlers contains reusable HTTP building blocks: health checks and
// middleware.
//
// # Health Checks
//
// Named checks run in parallel. Critical checks make the service unhealthy,
// degraded ones are reported without failing it:
//
//	checker := handlers.NewCompositeHealthChecker("v1")
//	checker.AddCheck("database", handlers.NewPingCheck(db))
//	checker.AddDegradedCheck("storage_breaker", handlers.NewBreakerCheck(guarded))
//
// # Admin Authentication
//
// Admin routes compare the X-API-Key header with a bcrypt hash:
//
//	auth := handlers.NewAPIKeyAuth(handlers.DefaultAPIKeyHeader, cfg.Admin.APIKeyHash)
//	mux.Handle("POST /api/skills", auth.Middleware(createSkill))
package handlers
