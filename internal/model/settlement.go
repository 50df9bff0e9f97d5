package model

import "time"

// Payment methods accepted at booking creation.  GATEWAY money flows
// through the card/UPI gateway and must be verified before settlement;
// UPI_DIRECT and CASH are collected by the professional, with the
// platform commission recovered out-of-band.
const (
    PaymentGateway   = "GATEWAY"
    PaymentUPIDirect = "UPI_DIRECT"
    PaymentCash      = "CASH"
)

// Commission collection states for a settlement.  COLLECTED is terminal.
// PENDING and OVERDUE only occur for UPI_DIRECT and CASH settlements,
// where the commission is due within seven days of completion.
const (
    CommissionCollected = "COLLECTED"
    CommissionPending   = "PENDING"
    CommissionOverdue   = "OVERDUE"
)

// Settlement is the immutable ledger record of how a completed booking's
// money was split.  Exactly one exists per completed booking; it is
// inserted in the same transaction that marks the booking COMPLETED.
//
// Fields:
//  ID                – primary key identifier.
//  BookingID         – completed booking (unique).
//  ProfessionalID    – professional being paid out.
//  PaymentMethod     – GATEWAY, UPI_DIRECT or CASH.
//  TotalPaise        – frozen total: service amount + charges.
//  CommissionPaise   – platform cut, one half-up rounding of total×rate.
//  PayoutPaise       – total − commission; never rounded independently.
//  CommissionRateBps – commission rate in basis points at commit time.
//  CommissionStatus  – COLLECTED, PENDING or OVERDUE.
//  CommissionDueAt   – commission due date (completion + 7 days); nil for
//                      gateway settlements where the cut is withheld.
//  PaymentRef        – verified gateway payment reference, if any.
//  CreatedAt         – when the settlement was committed.
type Settlement struct {
    ID                uint64     // settlements.id
    BookingID         uint64     // settlements.booking_id
    ProfessionalID    uint64     // settlements.professional_id
    PaymentMethod     string     // settlements.payment_method
    TotalPaise        int64      // settlements.total_paise
    CommissionPaise   int64      // settlements.commission_paise
    PayoutPaise       int64      // settlements.payout_paise
    CommissionRateBps int        // settlements.commission_rate_bps
    CommissionStatus  string     // settlements.commission_status
    CommissionDueAt   *time.Time // settlements.commission_due_at (nullable)
    PaymentRef        *string    // settlements.payment_ref (nullable)
    CreatedAt         time.Time  // settlements.created_at
}
