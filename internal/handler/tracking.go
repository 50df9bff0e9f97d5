package handler

import (
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/home-service-booking/internal/model"
    "github.com/iliyamo/home-service-booking/internal/tracking"
)

// TrackingHandler exposes live-location ingest and readback.  The
// ingest route sits behind the Redis rate limiter since professionals
// report every few seconds.
type TrackingHandler struct {
    Engine *tracking.Engine
}

// NewTrackingHandler constructs a TrackingHandler.
func NewTrackingHandler(engine *tracking.Engine) *TrackingHandler {
    if engine == nil {
        panic("nil engine passed to NewTrackingHandler")
    }
    return &TrackingHandler{Engine: engine}
}

type sampleReq struct {
    Longitude float64 `json:"longitude"`
    Latitude  float64 `json:"latitude"`
    At        string  `json:"at"` // optional RFC 3339 sample time
}

// Ingest handles POST /v1/bookings/:id/location.  The assigned
// professional reports a position; the response echoes the derived
// distance and ETA.
func (h *TrackingHandler) Ingest(c echo.Context) error {
    proID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    var req sampleReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    s := tracking.Sample{Point: model.Point{Longitude: req.Longitude, Latitude: req.Latitude}}
    if req.At != "" {
        at, err := time.Parse(time.RFC3339, req.At)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "at must be RFC 3339"})
        }
        s.At = at
    }
    tr, err := h.Engine.Ingest(c.Request().Context(), id, proID, s)
    if err != nil {
        return engineError(c, err)
    }
    return c.JSON(http.StatusOK, trackingJSON(tr))
}

// Arrived handles POST /v1/bookings/:id/arrived.
func (h *TrackingHandler) Arrived(c echo.Context) error {
    proID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    if err := h.Engine.MarkArrived(c.Request().Context(), id, proID); err != nil {
        return engineError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"arrived": true})
}

// Get handles GET /v1/bookings/:id/tracking for either participant.
func (h *TrackingHandler) Get(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    tr, err := h.Engine.Get(c.Request().Context(), id, userID)
    if err != nil {
        return engineError(c, err)
    }
    return c.JSON(http.StatusOK, trackingJSON(tr))
}

func trackingJSON(t *model.Tracking) echo.Map {
    m := echo.Map{}
    if t.LastLocation != nil {
        m["location"] = *t.LastLocation
    }
    if t.LastSampleAt != nil {
        m["sampled_at"] = t.LastSampleAt.UTC().Format(time.RFC3339)
    }
    if t.DistanceKm != nil {
        m["distance_km"] = *t.DistanceKm
    }
    if t.EtaMinutes != nil {
        m["eta_minutes"] = *t.EtaMinutes
    }
    if t.ArrivedAt != nil {
        m["arrived_at"] = t.ArrivedAt.UTC().Format(time.RFC3339)
    }
    return m
}
