package handler

import (
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/home-service-booking/internal/matching"
    "github.com/iliyamo/home-service-booking/internal/model"
    "github.com/iliyamo/home-service-booking/internal/repository"
)

// MatchingHandler exposes the nearby-professional search and the public
// service catalog.
type MatchingHandler struct {
    Finder   *matching.Finder
    Services *repository.ServiceRepo
}

// NewMatchingHandler constructs a MatchingHandler.
func NewMatchingHandler(finder *matching.Finder, services *repository.ServiceRepo) *MatchingHandler {
    if finder == nil || services == nil {
        panic("nil dependency passed to NewMatchingHandler")
    }
    return &MatchingHandler{Finder: finder, Services: services}
}

// Candidates handles GET /v1/matching/candidates.  Query parameters:
// service_id, longitude, latitude, plus optional radius_km, limit and
// scheduled_at (RFC 3339) for the slot filter.
func (h *MatchingHandler) Candidates(c echo.Context) error {
    serviceID, err := strconv.ParseUint(c.QueryParam("service_id"), 10, 64)
    if err != nil || serviceID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "service_id is required"})
    }
    lon, errLon := strconv.ParseFloat(c.QueryParam("longitude"), 64)
    lat, errLat := strconv.ParseFloat(c.QueryParam("latitude"), 64)
    if errLon != nil || errLat != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "longitude and latitude are required"})
    }
    req := matching.Request{
        ServiceID: serviceID,
        Location:  model.Point{Longitude: lon, Latitude: lat},
    }
    if v := c.QueryParam("radius_km"); v != "" {
        if r, err := strconv.ParseFloat(v, 64); err == nil {
            req.RadiusKm = r
        }
    }
    if v := c.QueryParam("limit"); v != "" {
        if n, err := strconv.Atoi(v); err == nil {
            req.Limit = n
        }
    }
    if v := c.QueryParam("scheduled_at"); v != "" {
        at, err := time.Parse(time.RFC3339, v)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "scheduled_at must be RFC 3339"})
        }
        req.ScheduledAt = &at
    }
    found, err := h.Finder.Find(c.Request().Context(), req)
    if err != nil {
        return engineError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"candidates": found})
}

// Services handles GET /v1/services: the active catalog, no auth
// required.
func (h *MatchingHandler) ListServices(c echo.Context) error {
    items, err := h.Services.ListActive(c.Request().Context())
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    out := make([]echo.Map, 0, len(items))
    for _, s := range items {
        out = append(out, echo.Map{
            "id":               s.ID,
            "category_id":      s.CategoryID,
            "name":             s.Name,
            "base_price_paise": s.BasePricePaise,
            "duration_minutes": s.DurationMinutes,
        })
    }
    return c.JSON(http.StatusOK, echo.Map{"services": out})
}
