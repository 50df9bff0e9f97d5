package model

import "time"

// Booking status values.  A booking starts PENDING and moves through the
// lifecycle exactly along the edges enforced by the lifecycle engine.
// COMPLETED and CANCELLED are terminal.
const (
    StatusPending    = "PENDING"
    StatusAccepted   = "ACCEPTED"
    StatusInProgress = "IN_PROGRESS"
    StatusCompleted  = "COMPLETED"
    StatusCancelled  = "CANCELLED"
)

// Actor roles as carried in the JWT "role" claim.
const (
    RoleCustomer     = "CUSTOMER"
    RoleProfessional = "PROFESSIONAL"
    RoleAdmin        = "ADMIN"
)

// Point is a geographic coordinate pair.  Longitude comes first to match
// the persisted [longitude, latitude] ordering.
//
// Fields:
//  Longitude – degrees east, in [-180, 180].
//  Latitude  – degrees north, in [-90, 90].
type Point struct {
    Longitude float64 `json:"longitude"`
    Latitude  float64 `json:"latitude"`
}

// Valid reports whether the point lies inside the WGS84 coordinate range.
func (p Point) Valid() bool {
    return p.Longitude >= -180 && p.Longitude <= 180 && p.Latitude >= -90 && p.Latitude <= 90
}

// Booking is the aggregate root for one customer–professional engagement.
// It is the single source of truth for lifecycle status; every transition
// is applied through a conditional update on the bookings row.
//
// Fields:
//  ID               – primary key identifier.
//  CustomerID       – user who requested the service.
//  ProfessionalID   – assigned professional; nil until accepted.
//  ServiceID        – the catalog service being booked.
//  Status           – lifecycle status (see Status* constants).
//  ScheduledAt      – requested service time (UTC).
//  IsEmergency      – bypasses future-time and business-hour checks.
//  Location         – destination point; immutable after creation.
//  Address          – human-readable destination address.
//  VerificationCode – short secret required to complete the booking.
//                     Never exposed to the professional before IN_PROGRESS.
//  PaymentMethod    – GATEWAY, UPI_DIRECT or CASH.
//  PaymentOrderRef  – gateway order reference, nil for non-gateway methods.
//  PaymentRef       – externally verified payment reference (gateway only).
//  ServiceAmount    – base price in paise.
//  AdditionalAmount – sum of appended charges in paise.
//  Rating           – customer rating 1..5, settable once after completion.
//  Tracking         – live tracking sub-record.
//  Cancellation     – set exactly once when the booking is cancelled.
//  AcceptedAt/CompletedAt/CancelledAt – transition timestamps.
//  CreatedAt/UpdatedAt – row timestamps.
type Booking struct {
    ID               uint64        // bookings.id
    CustomerID       uint64        // bookings.customer_id
    ProfessionalID   *uint64       // bookings.professional_id (nullable)
    ServiceID        uint64        // bookings.service_id
    Status           string        // bookings.status
    ScheduledAt      time.Time     // bookings.scheduled_at
    IsEmergency      bool          // bookings.is_emergency
    Location         Point         // bookings.longitude / bookings.latitude
    Address          string        // bookings.address
    VerificationCode string        // bookings.verification_code
    PaymentMethod    string        // bookings.payment_method
    PaymentOrderRef  *string       // bookings.payment_order_ref (nullable)
    PaymentRef       *string       // bookings.payment_ref (nullable)
    ServiceAmount    int64         // bookings.service_amount_paise
    AdditionalAmount int64         // bookings.additional_amount_paise
    Rating           *uint8        // bookings.rating (nullable)
    Tracking         Tracking      // embedded tracking columns
    Cancellation     *Cancellation // embedded cancellation columns
    AcceptedAt       *time.Time    // bookings.accepted_at
    CompletedAt      *time.Time    // bookings.completed_at
    CancelledAt      *time.Time    // bookings.cancelled_at
    CreatedAt        time.Time     // bookings.created_at
    UpdatedAt        time.Time     // bookings.updated_at
}

// TotalAmount is the running total the settlement will freeze: service
// amount plus all appended charges.
func (b *Booking) TotalAmount() int64 { return b.ServiceAmount + b.AdditionalAmount }

// Tracking is the live sub-record of a booking.  All fields are derived
// from the most recent accepted location sample and carry its timestamp;
// they are only mutated while the booking is ACCEPTED or IN_PROGRESS.
//
// Fields:
//  LastLocation – last accepted professional position, nil before the
//                 first sample.
//  LastSampleAt – server timestamp of the last accepted sample; samples
//                 older than this are dropped.
//  DistanceKm   – great-circle distance to the destination.
//  EtaMinutes   – estimated minutes to arrival (>= 1 while moving).
//  StartedAt    – when the service moved to IN_PROGRESS.
//  ArrivedAt    – when the professional marked arrival.
type Tracking struct {
    LastLocation *Point     // bookings.last_longitude / bookings.last_latitude
    LastSampleAt *time.Time // bookings.last_sample_at
    DistanceKm   *float64   // bookings.distance_km
    EtaMinutes   *int       // bookings.eta_minutes
    StartedAt    *time.Time // bookings.started_at
    ArrivedAt    *time.Time // bookings.arrived_at
}

// Cancellation records who ended the booking and why.  It is written
// exactly once, in the same statement that flips the status.
type Cancellation struct {
    By     uint64    // bookings.cancelled_by
    Role   string    // bookings.cancelled_role
    Reason string    // bookings.cancel_reason
    At     time.Time // bookings.cancelled_at
}

// BookingCharge is one additional charge appended before settlement.
//
// Fields:
//  ID          – primary key identifier.
//  BookingID   – owning booking.
//  Description – what the charge is for.
//  AmountPaise – charge amount in paise.
//  CreatedAt   – when the charge was added.
type BookingCharge struct {
    ID          uint64    // booking_charges.id
    BookingID   uint64    // booking_charges.booking_id
    Description string    // booking_charges.description
    AmountPaise int64     // booking_charges.amount_paise
    CreatedAt   time.Time // booking_charges.created_at
}

// RescheduleEntry is one append-only row of a booking's rescheduling
// history.
//
// Fields:
//  ID        – primary key identifier.
//  BookingID – owning booking.
//  OldTime   – previous scheduled time.
//  NewTime   – new scheduled time.
//  ActorID   – user who rescheduled.
//  ActorRole – role of that user.
//  Reason    – free-form reason.
//  CreatedAt – when the reschedule happened.
type RescheduleEntry struct {
    ID        uint64    // reschedule_history.id
    BookingID uint64    // reschedule_history.booking_id
    OldTime   time.Time // reschedule_history.old_time
    NewTime   time.Time // reschedule_history.new_time
    ActorID   uint64    // reschedule_history.actor_id
    ActorRole string    // reschedule_history.actor_role
    Reason    string    // reschedule_history.reason
    CreatedAt time.Time // reschedule_history.created_at
}
