package lifecycle

import (
    "context"
    "time"

    "github.com/iliyamo/home-service-booking/internal/model"
)

// BookingStore is the persistence contract the state machine drives.
// Every transition method is a conditional write: it returns
// (false, nil) when the stored pre-state no longer matches, which is how
// concurrent actors are serialized.  repository.BookingRepo is the
// production implementation.
type BookingStore interface {
    Create(ctx context.Context, b *model.Booking) error
    GetByID(ctx context.Context, id uint64) (*model.Booking, error)

    // Accept is the compare-and-swap on (status, professional): it
    // succeeds only if the row is still PENDING with no professional.
    Accept(ctx context.Context, id, professionalID uint64, at time.Time) (bool, error)
    Start(ctx context.Context, id, professionalID uint64, at time.Time) (bool, error)

    // CompleteWithSettlement flips IN_PROGRESS to COMPLETED and records
    // the settlement built from the frozen in-transaction total; both
    // persist or neither does.  It returns repository.ErrSettlementExists
    // when a settlement was already committed for the booking.
    CompleteWithSettlement(ctx context.Context, id, professionalID uint64, at time.Time, build func(totalPaise int64) (*model.Settlement, error)) (bool, error)

    Cancel(ctx context.Context, id uint64, fromStatus string, c model.Cancellation) (bool, error)
    Reschedule(ctx context.Context, id uint64, entry model.RescheduleEntry) (bool, error)
    AddCharge(ctx context.Context, ch *model.BookingCharge) (bool, error)
    SetRating(ctx context.Context, id uint64, rating uint8) (bool, error)
    SetPaymentVerified(ctx context.Context, id uint64, paymentRef string) (bool, error)
}

// ServiceCatalog resolves a service to its category, price and duration.
type ServiceCatalog interface {
    GetByID(ctx context.Context, id uint64) (*model.Service, error)
}

// ProfessionalDirectory answers the accept-time guards about a
// professional and flips their durable availability flag.
type ProfessionalDirectory interface {
    GetByID(ctx context.Context, id uint64) (*model.Professional, error)
    HasCategory(ctx context.Context, id, categoryID uint64) (bool, error)
    SetAvailability(ctx context.Context, id uint64, available bool) error
}

// AvailabilitySignal is the best-effort hint pushed to the geo index on
// accept and cancel.  Failures are logged, never surfaced: the
// conditional write on the booking row is the authority.
type AvailabilitySignal interface {
    SetAvailability(ctx context.Context, professionalID uint64, available bool) error
}
