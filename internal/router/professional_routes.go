package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/home-service-booking/internal/handler"
    "github.com/iliyamo/home-service-booking/internal/middleware"
)

// RegisterProfessional registers the professional self-service surface:
// availability, capability categories, weekly schedule, blocks, holidays
// and the pending-commission ledger.
func RegisterProfessional(e *echo.Echo, p *handler.ProfessionalHandler, jwtSecret string) {
    g := e.Group(
        "/v1/professionals/me",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole("PROFESSIONAL"),
    )
    g.PUT("/availability", p.SetAvailability)
    g.POST("/categories", p.AddCategory)
    g.PUT("/schedule", p.SetWeeklyHours)
    g.GET("/schedule", p.GetWeeklyHours)
    g.POST("/blocks", p.AddBlock)
    g.DELETE("/blocks/:id", p.RemoveBlock)
    g.POST("/holidays", p.AddHoliday)
    g.GET("/commissions", p.PendingCommissions)
}

// RegisterAdmin registers admin-only operations.
func RegisterAdmin(e *echo.Echo, p *handler.ProfessionalHandler, jwtSecret string) {
    g := e.Group(
        "/v1/admin",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole("ADMIN"),
    )
    g.POST("/settlements/:id/collect", p.CollectCommission)
}
