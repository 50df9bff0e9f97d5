package lifecycle

import (
    "context"
    "errors"
    "fmt"
    "time"

    "github.com/google/uuid"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/home-service-booking/internal/model"
    "github.com/iliyamo/home-service-booking/internal/queue"
    "github.com/iliyamo/home-service-booking/internal/realtime"
    "github.com/iliyamo/home-service-booking/internal/repository"
    "github.com/iliyamo/home-service-booking/internal/schedule"
    "github.com/iliyamo/home-service-booking/internal/settlement"
    "github.com/iliyamo/home-service-booking/internal/utils"
)

// Actor is the authenticated identity every operation is guarded
// against: the user ID and the role claim from the JWT.
type Actor struct {
    ID   uint64
    Role string
}

// Engine applies every booking transition.  All guards are validated
// before any field is mutated, and each mutation is a single conditional
// write in the store, so a transition either fully applies or not at
// all.  Availability signals and event publishes happen after the write
// and are best-effort.
type Engine struct {
    store   BookingStore
    catalog ServiceCatalog
    pros    ProfessionalDirectory
    geo     AvailabilitySignal
    channel realtime.Channel
    rateBps int
}

// NewEngine wires the state machine to its collaborators.  A nil geo
// signal or channel is replaced with a no-op so tests and degraded
// deployments work unchanged.
func NewEngine(store BookingStore, catalog ServiceCatalog, pros ProfessionalDirectory, geo AvailabilitySignal, ch realtime.Channel, rateBps int) *Engine {
    if ch == nil {
        ch = realtime.Nop{}
    }
    if rateBps <= 0 {
        rateBps = settlement.DefaultRateBps
    }
    return &Engine{store: store, catalog: catalog, pros: pros, geo: geo, channel: ch, rateBps: rateBps}
}

// CreateRequest carries everything needed to open a booking in PENDING.
type CreateRequest struct {
    CustomerID    uint64
    ServiceID     uint64
    ScheduledAt   time.Time
    IsEmergency   bool
    Location      model.Point
    Address       string
    PaymentMethod string
    // ServiceAmountPaise overrides the catalog base price when positive.
    ServiceAmountPaise int64
}

// Create validates the request and opens the booking.  Non-emergency
// bookings must be scheduled in the future and inside business hours;
// emergencies bypass both checks.  The verification code is generated
// here and shared only with the customer.
func (e *Engine) Create(ctx context.Context, req CreateRequest) (*model.Booking, error) {
    if !req.Location.Valid() {
        return nil, fmt.Errorf("%w: coordinates out of range", ErrValidation)
    }
    if req.Address == "" {
        return nil, fmt.Errorf("%w: address is required", ErrValidation)
    }
    switch req.PaymentMethod {
    case model.PaymentGateway, model.PaymentUPIDirect, model.PaymentCash:
    default:
        return nil, fmt.Errorf("%w: unknown payment method", ErrValidation)
    }
    now := time.Now().UTC()
    if !req.IsEmergency {
        if !req.ScheduledAt.After(now) {
            return nil, fmt.Errorf("%w: scheduled time must be in the future", ErrValidation)
        }
        if !schedule.WithinBusinessHours(req.ScheduledAt.Format("15:04")) {
            return nil, fmt.Errorf("%w: scheduled time outside business hours", ErrValidation)
        }
    }
    svc, err := e.catalog.GetByID(ctx, req.ServiceID)
    if err != nil {
        return nil, err
    }
    code, err := utils.NewVerificationCode()
    if err != nil {
        return nil, err
    }
    amount := req.ServiceAmountPaise
    if amount <= 0 {
        amount = svc.BasePricePaise
    }
    b := &model.Booking{
        CustomerID:       req.CustomerID,
        ServiceID:        svc.ID,
        ScheduledAt:      req.ScheduledAt.UTC(),
        IsEmergency:      req.IsEmergency,
        Location:         req.Location,
        Address:          req.Address,
        VerificationCode: code,
        PaymentMethod:    req.PaymentMethod,
        ServiceAmount:    amount,
    }
    if req.PaymentMethod == model.PaymentGateway {
        ref := "order_" + uuid.NewString()
        b.PaymentOrderRef = &ref
    }
    if err := e.store.Create(ctx, b); err != nil {
        return nil, err
    }
    e.publishStatus(b, "", model.StatusPending, "created")
    return b, nil
}

// Accept is the contended operation: under concurrent professionals
// exactly one conditional write wins and the rest receive
// ErrAlreadyAccepted.  The guards — professional exists, is available,
// serves the service's category — are checked first; the CAS on
// (status, professional) is the authority.
func (e *Engine) Accept(ctx context.Context, bookingID uint64, actor Actor) (*model.Booking, error) {
    if actor.Role != model.RoleProfessional {
        return nil, fmt.Errorf("%w: only professionals accept bookings", ErrInvalidTransition)
    }
    b, err := e.store.GetByID(ctx, bookingID)
    if err != nil {
        return nil, err
    }
    if b.Status != model.StatusPending {
        return nil, e.acceptLost(ctx, bookingID)
    }
    pro, err := e.pros.GetByID(ctx, actor.ID)
    if err != nil {
        return nil, err
    }
    if !pro.IsAvailable {
        return nil, fmt.Errorf("%w: professional is not available", ErrInvalidTransition)
    }
    svc, err := e.catalog.GetByID(ctx, b.ServiceID)
    if err != nil {
        return nil, err
    }
    capable, err := e.pros.HasCategory(ctx, actor.ID, svc.CategoryID)
    if err != nil {
        return nil, err
    }
    if !capable {
        return nil, fmt.Errorf("%w: professional does not serve this category", ErrInvalidTransition)
    }
    now := time.Now().UTC()
    won, err := e.store.Accept(ctx, bookingID, actor.ID, now)
    if err != nil {
        return nil, err
    }
    if !won {
        return nil, e.acceptLost(ctx, bookingID)
    }
    e.signalAvailability(ctx, actor.ID, false)
    b, err = e.store.GetByID(ctx, bookingID)
    if err != nil {
        return nil, err
    }
    e.publishStatus(b, model.StatusPending, model.StatusAccepted, "")
    return b, nil
}

// acceptLost re-reads the booking to tell the losing accepter why: a
// concurrent winner yields ErrAlreadyAccepted, anything else is a plain
// invalid transition.
func (e *Engine) acceptLost(ctx context.Context, bookingID uint64) error {
    b, err := e.store.GetByID(ctx, bookingID)
    if err != nil {
        return err
    }
    if b.ProfessionalID != nil {
        return ErrAlreadyAccepted
    }
    return fmt.Errorf("%w: booking is %s", ErrInvalidTransition, b.Status)
}

// Start moves an accepted booking to IN_PROGRESS.  Only the assigned
// professional may start.
func (e *Engine) Start(ctx context.Context, bookingID uint64, actor Actor) (*model.Booking, error) {
    b, err := e.store.GetByID(ctx, bookingID)
    if err != nil {
        return nil, err
    }
    if err := requireAssigned(b, actor); err != nil {
        return nil, err
    }
    if b.Status != model.StatusAccepted {
        return nil, fmt.Errorf("%w: booking is %s", ErrInvalidTransition, b.Status)
    }
    applied, err := e.store.Start(ctx, bookingID, actor.ID, time.Now().UTC())
    if err != nil {
        return nil, err
    }
    if !applied {
        return nil, fmt.Errorf("%w: booking is no longer accepted", ErrInvalidTransition)
    }
    b, err = e.store.GetByID(ctx, bookingID)
    if err != nil {
        return nil, err
    }
    e.publishStatus(b, model.StatusAccepted, model.StatusInProgress, "")
    return b, nil
}

// Complete closes an in-progress booking.  The verification code is
// compared in constant time; on success the settlement is committed in
// the same store transaction that flips the status, so a completed
// booking without a settlement cannot exist.  Settlement failures
// (missing gateway verification, double commit) leave the booking
// IN_PROGRESS for the caller to retry.
func (e *Engine) Complete(ctx context.Context, bookingID uint64, actor Actor, code string) (*model.Booking, error) {
    b, err := e.store.GetByID(ctx, bookingID)
    if err != nil {
        return nil, err
    }
    if err := requireAssigned(b, actor); err != nil {
        return nil, err
    }
    if b.Status != model.StatusInProgress {
        return nil, fmt.Errorf("%w: booking is %s", ErrInvalidTransition, b.Status)
    }
    if !utils.CodeEqual(code, b.VerificationCode) {
        return nil, ErrVerificationFailed
    }
    if b.PaymentMethod == model.PaymentGateway && b.PaymentRef == nil {
        return nil, ErrVerificationRequired
    }
    now := time.Now().UTC()
    applied, err := e.store.CompleteWithSettlement(ctx, bookingID, actor.ID, now,
        func(totalPaise int64) (*model.Settlement, error) {
            return settlement.Build(bookingID, actor.ID, b.PaymentMethod, totalPaise, e.rateBps, b.PaymentRef, now)
        })
    if err != nil {
        if errors.Is(err, repository.ErrSettlementExists) {
            return nil, ErrSettlementConflict
        }
        if errors.Is(err, settlement.ErrVerificationRequired) {
            return nil, ErrVerificationRequired
        }
        return nil, err
    }
    if !applied {
        return nil, fmt.Errorf("%w: booking is no longer in progress", ErrInvalidTransition)
    }
    e.signalAvailability(ctx, actor.ID, true)
    b, err = e.store.GetByID(ctx, bookingID)
    if err != nil {
        return nil, err
    }
    e.publishStatus(b, model.StatusInProgress, model.StatusCompleted, "")
    return b, nil
}

// cancelRule declares who may cancel from a given status: the roles
// allowed and whether ownership of the booking is required for each.
// This is the one guard table replacing per-handler role branching.
var cancelRules = map[string][]struct {
    role      string
    ownership bool
}{
    model.StatusPending: {
        {model.RoleCustomer, true},
        {model.RoleAdmin, false},
    },
    model.StatusAccepted: {
        {model.RoleCustomer, true},
        {model.RoleProfessional, true},
        {model.RoleAdmin, false},
    },
    model.StatusInProgress: {
        {model.RoleAdmin, false}, // exceptional path
    },
}

func canCancel(b *model.Booking, actor Actor) bool {
    for _, r := range cancelRules[b.Status] {
        if r.role != actor.Role {
            continue
        }
        if !r.ownership {
            return true
        }
        switch actor.Role {
        case model.RoleCustomer:
            if b.CustomerID == actor.ID {
                return true
            }
        case model.RoleProfessional:
            if b.ProfessionalID != nil && *b.ProfessionalID == actor.ID {
                return true
            }
        }
    }
    return false
}

// Cancel ends a booking.  Customers may cancel their own pending or
// accepted bookings, the assigned professional an accepted one, and only
// an admin an in-progress one.  If a professional was assigned they are
// signalled available again.
func (e *Engine) Cancel(ctx context.Context, bookingID uint64, actor Actor, reason string) (*model.Booking, error) {
    b, err := e.store.GetByID(ctx, bookingID)
    if err != nil {
        return nil, err
    }
    if !canCancel(b, actor) {
        return nil, fmt.Errorf("%w: %s may not cancel a %s booking", ErrInvalidTransition, actor.Role, b.Status)
    }
    from := b.Status
    applied, err := e.store.Cancel(ctx, bookingID, from, model.Cancellation{
        By: actor.ID, Role: actor.Role, Reason: reason, At: time.Now().UTC(),
    })
    if err != nil {
        return nil, err
    }
    if !applied {
        return nil, fmt.Errorf("%w: booking changed concurrently", ErrInvalidTransition)
    }
    if b.ProfessionalID != nil {
        e.signalAvailability(ctx, *b.ProfessionalID, true)
    }
    b, err = e.store.GetByID(ctx, bookingID)
    if err != nil {
        return nil, err
    }
    e.publishStatus(b, from, model.StatusCancelled, reason)
    return b, nil
}

// Reschedule moves the requested time of a pending or accepted booking
// and appends the history entry.  The new time must be in the future
// and, for non-emergency bookings, inside business hours.
func (e *Engine) Reschedule(ctx context.Context, bookingID uint64, actor Actor, newTime time.Time, reason string) (*model.Booking, error) {
    b, err := e.store.GetByID(ctx, bookingID)
    if err != nil {
        return nil, err
    }
    if err := requireParticipant(b, actor); err != nil {
        return nil, err
    }
    if b.Status != model.StatusPending && b.Status != model.StatusAccepted {
        return nil, fmt.Errorf("%w: booking is %s", ErrInvalidTransition, b.Status)
    }
    now := time.Now().UTC()
    if !newTime.After(now) {
        return nil, fmt.Errorf("%w: new time must be in the future", ErrValidation)
    }
    if !b.IsEmergency && !schedule.WithinBusinessHours(newTime.Format("15:04")) {
        return nil, fmt.Errorf("%w: new time outside business hours", ErrValidation)
    }
    applied, err := e.store.Reschedule(ctx, bookingID, model.RescheduleEntry{
        BookingID: bookingID,
        OldTime:   b.ScheduledAt,
        NewTime:   newTime.UTC(),
        ActorID:   actor.ID,
        ActorRole: actor.Role,
        Reason:    reason,
    })
    if err != nil {
        return nil, err
    }
    if !applied {
        return nil, fmt.Errorf("%w: booking changed concurrently", ErrInvalidTransition)
    }
    b, err = e.store.GetByID(ctx, bookingID)
    if err != nil {
        return nil, err
    }
    e.publishStatus(b, b.Status, b.Status, "rescheduled")
    return b, nil
}

// AddCharge appends an additional charge before settlement.  The
// assigned professional or an admin may add charges while the booking is
// still live.
func (e *Engine) AddCharge(ctx context.Context, bookingID uint64, actor Actor, description string, amountPaise int64) (*model.BookingCharge, error) {
    if amountPaise <= 0 {
        return nil, fmt.Errorf("%w: charge amount must be positive", ErrValidation)
    }
    if description == "" {
        return nil, fmt.Errorf("%w: charge description is required", ErrValidation)
    }
    b, err := e.store.GetByID(ctx, bookingID)
    if err != nil {
        return nil, err
    }
    if actor.Role != model.RoleAdmin {
        if err := requireAssigned(b, actor); err != nil {
            return nil, err
        }
    }
    ch := &model.BookingCharge{BookingID: bookingID, Description: description, AmountPaise: amountPaise}
    applied, err := e.store.AddCharge(ctx, ch)
    if err != nil {
        return nil, err
    }
    if !applied {
        return nil, fmt.Errorf("%w: charges are frozen after settlement", ErrInvalidTransition)
    }
    return ch, nil
}

// Rate records the customer's rating, once, after completion.
func (e *Engine) Rate(ctx context.Context, bookingID uint64, actor Actor, rating uint8) error {
    if rating < 1 || rating > 5 {
        return fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation)
    }
    b, err := e.store.GetByID(ctx, bookingID)
    if err != nil {
        return err
    }
    if actor.Role != model.RoleCustomer || b.CustomerID != actor.ID {
        return fmt.Errorf("%w: only the booking's customer may rate it", ErrInvalidTransition)
    }
    applied, err := e.store.SetRating(ctx, bookingID, rating)
    if err != nil {
        return err
    }
    if applied {
        return nil
    }
    if b.Status != model.StatusCompleted {
        return fmt.Errorf("%w: booking is %s", ErrInvalidTransition, b.Status)
    }
    return ErrAlreadyRated
}

// VerifyPayment records a gateway-verified payment on the booking after
// checking the gateway's HMAC signature over the order and payment
// references.  Required before a GATEWAY booking can complete.
func (e *Engine) VerifyPayment(ctx context.Context, bookingID uint64, actor Actor, paymentRef, signature string, verify func(orderRef, paymentRef, signature string) bool) error {
    if paymentRef == "" || signature == "" {
        return fmt.Errorf("%w: payment_ref and signature are required", ErrValidation)
    }
    b, err := e.store.GetByID(ctx, bookingID)
    if err != nil {
        return err
    }
    if actor.Role != model.RoleAdmin && !(actor.Role == model.RoleCustomer && b.CustomerID == actor.ID) {
        return fmt.Errorf("%w: only the booking's customer may verify its payment", ErrInvalidTransition)
    }
    if b.PaymentMethod != model.PaymentGateway || b.PaymentOrderRef == nil {
        return fmt.Errorf("%w: booking is not a gateway payment", ErrValidation)
    }
    if !verify(*b.PaymentOrderRef, paymentRef, signature) {
        return ErrVerificationFailed
    }
    applied, err := e.store.SetPaymentVerified(ctx, bookingID, paymentRef)
    if err != nil {
        return err
    }
    if !applied {
        return ErrSettlementConflict
    }
    return nil
}

// Preview returns the settlement split the booking would commit with
// right now.  Read-only; used by customers before confirming completion.
func (e *Engine) Preview(ctx context.Context, bookingID uint64, actor Actor) (settlement.Breakdown, error) {
    b, err := e.store.GetByID(ctx, bookingID)
    if err != nil {
        return settlement.Breakdown{}, err
    }
    if err := requireParticipant(b, actor); err != nil {
        return settlement.Breakdown{}, err
    }
    return settlement.Quote(b.ServiceAmount, []int64{b.AdditionalAmount}, e.rateBps), nil
}

// requireAssigned enforces the ownership predicate for
// professional-driven transitions: the actor must be the booking's
// assigned professional.
func requireAssigned(b *model.Booking, actor Actor) error {
    if actor.Role != model.RoleProfessional {
        return fmt.Errorf("%w: operation requires the assigned professional", ErrInvalidTransition)
    }
    if b.ProfessionalID == nil || *b.ProfessionalID != actor.ID {
        return fmt.Errorf("%w: actor is not the assigned professional", ErrInvalidTransition)
    }
    return nil
}

// requireParticipant allows the booking's customer, its assigned
// professional, or an admin.
func requireParticipant(b *model.Booking, actor Actor) error {
    switch actor.Role {
    case model.RoleAdmin:
        return nil
    case model.RoleCustomer:
        if b.CustomerID == actor.ID {
            return nil
        }
    case model.RoleProfessional:
        if b.ProfessionalID != nil && *b.ProfessionalID == actor.ID {
            return nil
        }
    }
    return fmt.Errorf("%w: actor is not a participant of this booking", ErrInvalidTransition)
}

// signalAvailability pushes the durable flag and the geo-index hint.
// Both are best-effort: failures are logged and never fail the
// transition that triggered them.
func (e *Engine) signalAvailability(ctx context.Context, professionalID uint64, available bool) {
    if e.pros != nil {
        if err := e.pros.SetAvailability(ctx, professionalID, available); err != nil {
            logrus.WithError(err).WithField("professional_id", professionalID).
                Warn("lifecycle: durable availability update failed")
        }
    }
    if e.geo != nil {
        if err := e.geo.SetAvailability(ctx, professionalID, available); err != nil {
            logrus.WithError(err).WithField("professional_id", professionalID).
                Warn("lifecycle: geo index availability signal failed")
        }
    }
}

func (e *Engine) publishStatus(b *model.Booking, from, to, reason string) {
    e.channel.Publish(fmt.Sprintf(queue.TopicBookingStatus, b.ID), queue.StatusChangedEvent{
        BookingID:      b.ID,
        CustomerID:     b.CustomerID,
        ProfessionalID: b.ProfessionalID,
        ServiceID:      b.ServiceID,
        OldStatus:      from,
        NewStatus:      to,
        Reason:         reason,
        At:             time.Now().UTC().Format(time.RFC3339),
    })
}
