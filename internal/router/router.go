// Package router wires HTTP routes to their handlers and middleware.
package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/home-service-booking/internal/handler"
    "github.com/iliyamo/home-service-booking/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication:
// the health check and the public service catalog.
func RegisterRoutes(e *echo.Echo, m *handler.MatchingHandler) {
    e.GET("/healthz", handler.Health)
    // Guests browse the catalog before registering.
    e.GET("/v1/services", m.ListServices)
}

// RegisterAuth registers the authentication endpoints and the small
// protected identity surface.  Unauthenticated operations live under
// /v1/auth, protected ones under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
    g := e.Group("/v1/auth")
    g.POST("/register", a.Register)
    g.POST("/login", a.Login)
    g.POST("/refresh", a.Refresh)
    g.POST("/refresh-access", a.RefreshAccess)
    g.POST("/logout", a.Logout)

    auth := e.Group("/v1")
    auth.Use(middleware.JWTAuth(jwtSecret))
    auth.Use(middleware.RequireRole("CUSTOMER", "PROFESSIONAL", "ADMIN"))
    auth.GET("/me", a.Me)

    // Logout also works at the top level with only a refresh token in
    // the body, so expired sessions can still be terminated.
    e.POST("/v1/logout", a.Logout)
}
