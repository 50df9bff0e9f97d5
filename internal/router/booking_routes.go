package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/home-service-booking/internal/handler"
    "github.com/iliyamo/home-service-booking/internal/middleware"
)

// RegisterBookings registers the booking lifecycle endpoints under /v1.
// All routes require a valid JWT; who may perform each transition is
// enforced inside the engine, so most routes accept every role and the
// engine's guard table decides.
func RegisterBookings(e *echo.Echo, b *handler.BookingHandler, t *handler.TrackingHandler, m *handler.MatchingHandler, jwtSecret string, ingestLimiter echo.MiddlewareFunc) {
    g := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole("CUSTOMER", "PROFESSIONAL", "ADMIN"),
    )

    // Creation is customer-only; everything downstream is guarded by
    // the engine against the booking's participants.
    cust := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole("CUSTOMER"),
    )
    cust.POST("/bookings", b.Create)

    g.GET("/bookings", b.List)
    g.GET("/bookings/:id", b.Get)
    g.POST("/bookings/:id/cancel", b.Cancel)
    g.POST("/bookings/:id/reschedule", b.Reschedule)
    g.GET("/bookings/:id/reschedules", b.History)
    g.GET("/bookings/:id/charges", b.ListCharges)
    g.GET("/bookings/:id/settlement", b.GetSettlement)
    g.GET("/bookings/:id/settlement/preview", b.SettlementPreview)
    g.GET("/bookings/:id/tracking", t.Get)
    g.GET("/matching/candidates", m.Candidates)

    cust.POST("/bookings/:id/rating", b.Rate)

    pro := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole("PROFESSIONAL"),
    )
    pro.POST("/bookings/:id/accept", b.Accept)
    pro.POST("/bookings/:id/start", b.Start)
    pro.POST("/bookings/:id/complete", b.Complete)
    pro.POST("/bookings/:id/charges", b.AddCharge)
    pro.POST("/bookings/:id/arrived", t.Arrived)
    // Location ingest arrives every few seconds per professional, so it
    // sits behind the token-bucket limiter.
    if ingestLimiter != nil {
        pro.POST("/bookings/:id/location", t.Ingest, ingestLimiter)
    } else {
        pro.POST("/bookings/:id/location", t.Ingest)
    }
}

// RegisterPayments registers the gateway verification callback relay.
func RegisterPayments(e *echo.Echo, b *handler.BookingHandler, verify func(orderRef, paymentRef, signature string) bool, jwtSecret string) {
    g := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole("CUSTOMER", "ADMIN"),
    )
    g.POST("/bookings/:id/payment/verify", b.VerifyPayment(verify))
}
