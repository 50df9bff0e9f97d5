package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/home-service-booking/internal/lifecycle"
    "github.com/iliyamo/home-service-booking/internal/model"
    "github.com/iliyamo/home-service-booking/internal/repository"
)

// BookingHandler exposes the booking lifecycle over HTTP.  All state
// transitions go through the engine; the repositories are used only for
// reads (listings, history, settlements).
type BookingHandler struct {
    Engine      *lifecycle.Engine
    Bookings    *repository.BookingRepo
    Settlements *repository.SettlementRepo
}

// NewBookingHandler constructs a BookingHandler.  All dependencies must
// be non-nil.
func NewBookingHandler(engine *lifecycle.Engine, bookings *repository.BookingRepo, settlements *repository.SettlementRepo) *BookingHandler {
    if engine == nil || bookings == nil || settlements == nil {
        panic("nil dependency passed to NewBookingHandler")
    }
    return &BookingHandler{Engine: engine, Bookings: bookings, Settlements: settlements}
}

// ----- DTOs -----

type createBookingReq struct {
    ServiceID     uint64  `json:"service_id"`
    ScheduledAt   string  `json:"scheduled_at"` // RFC 3339
    IsEmergency   bool    `json:"is_emergency"`
    Longitude     float64 `json:"longitude"`
    Latitude      float64 `json:"latitude"`
    Address       string  `json:"address"`
    PaymentMethod string  `json:"payment_method"`
    AmountPaise   int64   `json:"amount_paise"` // optional price override
}

type cancelReq struct {
    Reason string `json:"reason"`
}

type rescheduleReq struct {
    ScheduledAt string `json:"scheduled_at"`
    Reason      string `json:"reason"`
}

type completeReq struct {
    VerificationCode string `json:"verification_code"`
}

type chargeReq struct {
    Description string `json:"description"`
    AmountPaise int64  `json:"amount_paise"`
}

type rateReq struct {
    Rating uint8 `json:"rating"`
}

type verifyPaymentReq struct {
    PaymentRef string `json:"payment_ref"`
    Signature  string `json:"signature"`
}

// bookingJSON shapes the API representation of a booking.  The
// verification code is shared only with the customer; professionals
// collect it in person at completion time.
func bookingJSON(b *model.Booking, viewer lifecycle.Actor) echo.Map {
    m := echo.Map{
        "id":                b.ID,
        "customer_id":       b.CustomerID,
        "service_id":        b.ServiceID,
        "status":            b.Status,
        "scheduled_at":      b.ScheduledAt.UTC().Format(time.RFC3339),
        "is_emergency":      b.IsEmergency,
        "location":          b.Location,
        "address":           b.Address,
        "payment_method":    b.PaymentMethod,
        "amount_paise":      b.ServiceAmount,
        "charges_paise":     b.AdditionalAmount,
        "total_paise":       b.TotalAmount(),
        "payment_verified":  b.PaymentRef != nil,
        "created_at":        b.CreatedAt.UTC().Format(time.RFC3339),
    }
    if b.ProfessionalID != nil {
        m["professional_id"] = *b.ProfessionalID
    }
    if viewer.ID == b.CustomerID || viewer.Role == model.RoleAdmin {
        m["verification_code"] = b.VerificationCode
        if b.PaymentOrderRef != nil {
            m["payment_order_ref"] = *b.PaymentOrderRef
        }
    }
    if b.Rating != nil {
        m["rating"] = *b.Rating
    }
    if b.Tracking.LastLocation != nil {
        m["tracking"] = trackingJSON(&b.Tracking)
    }
    if b.Cancellation != nil {
        m["cancellation"] = echo.Map{
            "by":     b.Cancellation.By,
            "role":   b.Cancellation.Role,
            "reason": b.Cancellation.Reason,
            "at":     b.Cancellation.At.UTC().Format(time.RFC3339),
        }
    }
    for k, ts := range map[string]*time.Time{
        "accepted_at":  b.AcceptedAt,
        "completed_at": b.CompletedAt,
        "cancelled_at": b.CancelledAt,
    } {
        if ts != nil {
            m[k] = ts.UTC().Format(time.RFC3339)
        }
    }
    return m
}

// Create handles POST /v1/bookings.  Customers open a booking in
// PENDING; the response includes the verification code the customer
// hands to the professional at completion.
func (h *BookingHandler) Create(c echo.Context) error {
    a, err := actor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req createBookingReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    scheduledAt, err := time.Parse(time.RFC3339, req.ScheduledAt)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "scheduled_at must be RFC 3339"})
    }
    b, err := h.Engine.Create(c.Request().Context(), lifecycle.CreateRequest{
        CustomerID:         a.ID,
        ServiceID:          req.ServiceID,
        ScheduledAt:        scheduledAt,
        IsEmergency:        req.IsEmergency,
        Location:           model.Point{Longitude: req.Longitude, Latitude: req.Latitude},
        Address:            req.Address,
        PaymentMethod:      req.PaymentMethod,
        ServiceAmountPaise: req.AmountPaise,
    })
    if err != nil {
        return engineError(c, err)
    }
    return c.JSON(http.StatusCreated, bookingJSON(b, a))
}

// Get handles GET /v1/bookings/:id for any participant or an admin.
func (h *BookingHandler) Get(c echo.Context) error {
    a, err := actor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    b, err := h.Bookings.GetByID(c.Request().Context(), id)
    if err != nil {
        return engineError(c, err)
    }
    participant := b.CustomerID == a.ID ||
        (b.ProfessionalID != nil && *b.ProfessionalID == a.ID) ||
        a.Role == model.RoleAdmin
    if !participant {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }
    return c.JSON(http.StatusOK, bookingJSON(b, a))
}

// List handles GET /v1/bookings: customers see bookings they opened,
// professionals the ones assigned to them.
func (h *BookingHandler) List(c echo.Context) error {
    a, err := actor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    ctx := c.Request().Context()
    var (
        items []model.Booking
        lerr  error
    )
    if a.Role == model.RoleProfessional {
        items, lerr = h.Bookings.ListByProfessional(ctx, a.ID)
    } else {
        items, lerr = h.Bookings.ListByCustomer(ctx, a.ID)
    }
    if lerr != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    out := make([]echo.Map, 0, len(items))
    for i := range items {
        out = append(out, bookingJSON(&items[i], a))
    }
    return c.JSON(http.StatusOK, echo.Map{"bookings": out})
}

// Accept handles POST /v1/bookings/:id/accept.  Professionals race for
// a pending booking; exactly one wins.
func (h *BookingHandler) Accept(c echo.Context) error {
    return h.transition(c, h.Engine.Accept)
}

// Start handles POST /v1/bookings/:id/start.
func (h *BookingHandler) Start(c echo.Context) error {
    return h.transition(c, h.Engine.Start)
}

func (h *BookingHandler) transition(c echo.Context, op func(ctx context.Context, id uint64, a lifecycle.Actor) (*model.Booking, error)) error {
    a, err := actor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    b, err := op(c.Request().Context(), id, a)
    if err != nil {
        return engineError(c, err)
    }
    return c.JSON(http.StatusOK, bookingJSON(b, a))
}

// Complete handles POST /v1/bookings/:id/complete.  The assigned
// professional submits the customer's verification code; on success the
// settlement is committed atomically with the transition.
func (h *BookingHandler) Complete(c echo.Context) error {
    a, err := actor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    var req completeReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if req.VerificationCode == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "verification_code is required"})
    }
    ctx := c.Request().Context()
    b, err := h.Engine.Complete(ctx, id, a, req.VerificationCode)
    if err != nil {
        return engineError(c, err)
    }
    resp := bookingJSON(b, a)
    if s, err := h.Settlements.GetByBookingID(ctx, id); err == nil {
        resp["settlement"] = settlementJSON(s)
    }
    return c.JSON(http.StatusOK, resp)
}

// Cancel handles POST /v1/bookings/:id/cancel.  Who may cancel depends
// on the current status; the engine owns that table.
func (h *BookingHandler) Cancel(c echo.Context) error {
    a, err := actor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    var req cancelReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    b, err := h.Engine.Cancel(c.Request().Context(), id, a, req.Reason)
    if err != nil {
        return engineError(c, err)
    }
    return c.JSON(http.StatusOK, bookingJSON(b, a))
}

// Reschedule handles POST /v1/bookings/:id/reschedule and appends to
// the booking's reschedule history.
func (h *BookingHandler) Reschedule(c echo.Context) error {
    a, err := actor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    var req rescheduleReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    newTime, err := time.Parse(time.RFC3339, req.ScheduledAt)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "scheduled_at must be RFC 3339"})
    }
    b, err := h.Engine.Reschedule(c.Request().Context(), id, a, newTime, req.Reason)
    if err != nil {
        return engineError(c, err)
    }
    return c.JSON(http.StatusOK, bookingJSON(b, a))
}

// History handles GET /v1/bookings/:id/reschedules.
func (h *BookingHandler) History(c echo.Context) error {
    a, err := actor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    ctx := c.Request().Context()
    b, err := h.Bookings.GetByID(ctx, id)
    if err != nil {
        return engineError(c, err)
    }
    if b.CustomerID != a.ID && a.Role != model.RoleAdmin &&
        (b.ProfessionalID == nil || *b.ProfessionalID != a.ID) {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }
    entries, err := h.Bookings.ListRescheduleHistory(ctx, id)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    out := make([]echo.Map, 0, len(entries))
    for _, e := range entries {
        out = append(out, echo.Map{
            "old_time":   e.OldTime.UTC().Format(time.RFC3339),
            "new_time":   e.NewTime.UTC().Format(time.RFC3339),
            "actor_id":   e.ActorID,
            "actor_role": e.ActorRole,
            "reason":     e.Reason,
            "at":         e.CreatedAt.UTC().Format(time.RFC3339),
        })
    }
    return c.JSON(http.StatusOK, echo.Map{"reschedules": out})
}

// AddCharge handles POST /v1/bookings/:id/charges.
func (h *BookingHandler) AddCharge(c echo.Context) error {
    a, err := actor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    var req chargeReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    ch, err := h.Engine.AddCharge(c.Request().Context(), id, a, req.Description, req.AmountPaise)
    if err != nil {
        return engineError(c, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{
        "booking_id":   ch.BookingID,
        "description":  ch.Description,
        "amount_paise": ch.AmountPaise,
    })
}

// ListCharges handles GET /v1/bookings/:id/charges.
func (h *BookingHandler) ListCharges(c echo.Context) error {
    a, err := actor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    ctx := c.Request().Context()
    b, err := h.Bookings.GetByID(ctx, id)
    if err != nil {
        return engineError(c, err)
    }
    if b.CustomerID != a.ID && a.Role != model.RoleAdmin &&
        (b.ProfessionalID == nil || *b.ProfessionalID != a.ID) {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }
    charges, err := h.Bookings.ListCharges(ctx, id)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    out := make([]echo.Map, 0, len(charges))
    var sum int64
    for _, ch := range charges {
        sum += ch.AmountPaise
        out = append(out, echo.Map{
            "description":  ch.Description,
            "amount_paise": ch.AmountPaise,
            "at":           ch.CreatedAt.UTC().Format(time.RFC3339),
        })
    }
    return c.JSON(http.StatusOK, echo.Map{"charges": out, "total_paise": sum})
}

// Rate handles POST /v1/bookings/:id/rating.
func (h *BookingHandler) Rate(c echo.Context) error {
    a, err := actor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    var req rateReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if err := h.Engine.Rate(c.Request().Context(), id, a, req.Rating); err != nil {
        return engineError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"rating": req.Rating})
}

// VerifyPayment handles POST /v1/bookings/:id/payment/verify.  The
// customer relays the gateway callback; the signature is checked against
// the booking's order reference.
func (h *BookingHandler) VerifyPayment(verify func(orderRef, paymentRef, signature string) bool) echo.HandlerFunc {
    return func(c echo.Context) error {
        a, err := actor(c)
        if err != nil {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
        }
        id, err := pathID(c, "id")
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
        }
        var req verifyPaymentReq
        if err := c.Bind(&req); err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
        }
        if err := h.Engine.VerifyPayment(c.Request().Context(), id, a, req.PaymentRef, req.Signature, verify); err != nil {
            return engineError(c, err)
        }
        return c.JSON(http.StatusOK, echo.Map{"payment_verified": true})
    }
}

// SettlementPreview handles GET /v1/bookings/:id/settlement/preview.
func (h *BookingHandler) SettlementPreview(c echo.Context) error {
    a, err := actor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    bd, err := h.Engine.Preview(c.Request().Context(), id, a)
    if err != nil {
        return engineError(c, err)
    }
    return c.JSON(http.StatusOK, bd)
}

// GetSettlement handles GET /v1/bookings/:id/settlement for completed
// bookings.
func (h *BookingHandler) GetSettlement(c echo.Context) error {
    a, err := actor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    ctx := c.Request().Context()
    b, err := h.Bookings.GetByID(ctx, id)
    if err != nil {
        return engineError(c, err)
    }
    if b.CustomerID != a.ID && a.Role != model.RoleAdmin &&
        (b.ProfessionalID == nil || *b.ProfessionalID != a.ID) {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }
    s, err := h.Settlements.GetByBookingID(ctx, id)
    if err != nil {
        return engineError(c, err)
    }
    return c.JSON(http.StatusOK, settlementJSON(s))
}

func settlementJSON(s *model.Settlement) echo.Map {
    m := echo.Map{
        "booking_id":          s.BookingID,
        "professional_id":     s.ProfessionalID,
        "payment_method":      s.PaymentMethod,
        "total_paise":         s.TotalPaise,
        "commission_paise":    s.CommissionPaise,
        "payout_paise":        s.PayoutPaise,
        "commission_rate_bps": s.CommissionRateBps,
        "commission_status":   s.CommissionStatus,
    }
    if s.CommissionDueAt != nil {
        m["commission_due_at"] = s.CommissionDueAt.UTC().Format(time.RFC3339)
    }
    if s.PaymentRef != nil {
        m["payment_ref"] = *s.PaymentRef
    }
    return m
}
