package handler

import (
    "database/sql"
    "errors"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/home-service-booking/internal/geoindex"
    "github.com/iliyamo/home-service-booking/internal/model"
    "github.com/iliyamo/home-service-booking/internal/repository"
    "github.com/iliyamo/home-service-booking/internal/schedule"
)

// ProfessionalHandler covers the professional's own surface: profile,
// availability, capability categories, weekly schedule, blocks,
// holidays and pending commissions.
type ProfessionalHandler struct {
    Pros        *repository.ProfessionalRepo
    Schedules   *repository.ScheduleRepo
    Settlements *repository.SettlementRepo
    Geo         geoindex.Index
}

// NewProfessionalHandler constructs a ProfessionalHandler.  Geo may be
// nil when Redis is not configured.
func NewProfessionalHandler(pros *repository.ProfessionalRepo, schedules *repository.ScheduleRepo, settlements *repository.SettlementRepo, geo geoindex.Index) *ProfessionalHandler {
    if pros == nil || schedules == nil || settlements == nil {
        panic("nil repository passed to NewProfessionalHandler")
    }
    return &ProfessionalHandler{Pros: pros, Schedules: schedules, Settlements: settlements, Geo: geo}
}

type availabilityReq struct {
    Available bool `json:"available"`
}

// SetAvailability handles PUT /v1/professionals/me/availability.  The
// durable flag is authoritative; the geo index gets the same signal as
// a hint.
func (h *ProfessionalHandler) SetAvailability(c echo.Context) error {
    proID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req availabilityReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    ctx := c.Request().Context()
    if err := h.Pros.SetAvailability(ctx, proID, req.Available); err != nil {
        return engineError(c, err)
    }
    if h.Geo != nil {
        if err := h.Geo.SetAvailability(ctx, proID, req.Available); err != nil {
            logrus.WithError(err).Warn("professional: geo availability signal failed")
        }
    }
    return c.JSON(http.StatusOK, echo.Map{"available": req.Available})
}

type categoryReq struct {
    CategoryID uint64 `json:"category_id"`
}

// AddCategory handles POST /v1/professionals/me/categories.
func (h *ProfessionalHandler) AddCategory(c echo.Context) error {
    proID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req categoryReq
    if err := c.Bind(&req); err != nil || req.CategoryID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "category_id is required"})
    }
    if err := h.Pros.AddCategory(c.Request().Context(), proID, req.CategoryID); err != nil {
        return engineError(c, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{"category_id": req.CategoryID})
}

type weeklyHoursReq struct {
    Days []struct {
        Weekday   int    `json:"weekday"`
        IsWorking bool   `json:"is_working"`
        StartTime string `json:"start_time"`
        EndTime   string `json:"end_time"`
    } `json:"days"`
}

// SetWeeklyHours handles PUT /v1/professionals/me/schedule.  Each day
// row is upserted; working days must carry an ordered "HH:MM" window
// inside business hours.
func (h *ProfessionalHandler) SetWeeklyHours(c echo.Context) error {
    proID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req weeklyHoursReq
    if err := c.Bind(&req); err != nil || len(req.Days) == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "days is required"})
    }
    ctx := c.Request().Context()
    for _, d := range req.Days {
        if d.Weekday < 0 || d.Weekday > 6 {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "weekday must be 0..6"})
        }
        if d.IsWorking {
            if !schedule.ValidWindow(d.StartTime, d.EndTime) {
                return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_time/end_time must be ordered HH:MM"})
            }
            if !schedule.WithinBusinessHours(d.StartTime) || !schedule.WithinBusinessHours(d.EndTime) {
                return c.JSON(http.StatusBadRequest, echo.Map{"error": "working window outside business hours"})
            }
        }
        err := h.Schedules.UpsertWeeklyHours(ctx, model.WeeklyHours{
            ProfessionalID: proID,
            Weekday:        d.Weekday,
            IsWorking:      d.IsWorking,
            StartTime:      d.StartTime,
            EndTime:        d.EndTime,
        })
        if err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
        }
    }
    return c.JSON(http.StatusOK, echo.Map{"updated": len(req.Days)})
}

// GetWeeklyHours handles GET /v1/professionals/me/schedule.
func (h *ProfessionalHandler) GetWeeklyHours(c echo.Context) error {
    proID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    rows, err := h.Schedules.WeeklyHours(c.Request().Context(), proID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    out := make([]echo.Map, 0, len(rows))
    for _, d := range rows {
        out = append(out, echo.Map{
            "weekday":    d.Weekday,
            "is_working": d.IsWorking,
            "start_time": d.StartTime,
            "end_time":   d.EndTime,
        })
    }
    return c.JSON(http.StatusOK, echo.Map{"days": out})
}

type blockReq struct {
    Date      string `json:"date"` // YYYY-MM-DD
    StartTime string `json:"start_time"`
    EndTime   string `json:"end_time"`
    Reason    string `json:"reason"`
}

// AddBlock handles POST /v1/professionals/me/blocks.
func (h *ProfessionalHandler) AddBlock(c echo.Context) error {
    proID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req blockReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if _, err := time.Parse("2006-01-02", req.Date); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
    }
    if !schedule.ValidWindow(req.StartTime, req.EndTime) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_time/end_time must be ordered HH:MM"})
    }
    b := &model.ScheduleBlock{
        ProfessionalID: proID,
        Date:           req.Date,
        StartTime:      req.StartTime,
        EndTime:        req.EndTime,
        Reason:         req.Reason,
    }
    if err := h.Schedules.AddBlock(c.Request().Context(), b); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusCreated, echo.Map{"id": b.ID})
}

// RemoveBlock handles DELETE /v1/professionals/me/blocks/:id.
func (h *ProfessionalHandler) RemoveBlock(c echo.Context) error {
    proID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid block id"})
    }
    err = h.Schedules.RemoveBlock(c.Request().Context(), id, proID)
    switch {
    case err == nil:
        return c.NoContent(http.StatusNoContent)
    case errors.Is(err, sql.ErrNoRows):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "block not found"})
    case errors.Is(err, repository.ErrForbidden):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
}

type holidayReq struct {
    Date string `json:"date"` // YYYY-MM-DD
    Name string `json:"name"`
}

// AddHoliday handles POST /v1/professionals/me/holidays.
func (h *ProfessionalHandler) AddHoliday(c echo.Context) error {
    proID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req holidayReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if _, err := time.Parse("2006-01-02", req.Date); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
    }
    hol := &model.Holiday{ProfessionalID: proID, Date: req.Date, Name: req.Name}
    if err := h.Schedules.AddHoliday(c.Request().Context(), hol); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusCreated, echo.Map{"id": hol.ID})
}

// PendingCommissions handles GET /v1/professionals/me/commissions:
// uncollected commissions with OVERDUE derived against the due date.
func (h *ProfessionalHandler) PendingCommissions(c echo.Context) error {
    proID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    items, err := h.Settlements.ListUncollectedByProfessional(c.Request().Context(), proID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    out := make([]echo.Map, 0, len(items))
    var due int64
    for i := range items {
        due += items[i].CommissionPaise
        out = append(out, settlementJSON(&items[i]))
    }
    return c.JSON(http.StatusOK, echo.Map{"commissions": out, "total_due_paise": due})
}

// CollectCommission handles POST /v1/admin/settlements/:id/collect,
// where :id is the booking ID.  Admin-only, idempotence guarded by the
// conditional update.
func (h *ProfessionalHandler) CollectCommission(c echo.Context) error {
    bookingID, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    if err := h.Settlements.MarkCommissionCollected(c.Request().Context(), bookingID); err != nil {
        return engineError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"commission_status": model.CommissionCollected})
}
