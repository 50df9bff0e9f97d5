// Package settlement computes the commission/payout split for completed
// bookings.  Quote is pure and deterministic; it backs both the
// pre-completion preview endpoint and the final commit, so the customer
// sees exactly the split that will be recorded.
package settlement

import (
    "errors"
    "time"

    "github.com/iliyamo/home-service-booking/internal/model"
)

// DefaultRateBps is the platform commission when no rate is configured:
// 15% expressed in basis points.
const DefaultRateBps = 1500

// CommissionDueDays is how long a professional has to remit the platform
// commission for UPI_DIRECT and CASH collections.
const CommissionDueDays = 7

// ErrVerificationRequired is returned when a gateway settlement is
// committed before the payment was externally verified.
var ErrVerificationRequired = errors.New("payment verification required")

// ErrUnknownMethod is returned for a payment method outside the three
// supported channels.
var ErrUnknownMethod = errors.New("unknown payment method")

// Breakdown is the result of a quote: the frozen total and its split.
// All amounts are paise.
type Breakdown struct {
    ServicePaise    int64 `json:"service_amount_paise"`
    AdditionalPaise int64 `json:"additional_amount_paise"`
    TotalPaise      int64 `json:"total_amount_paise"`
    CommissionPaise int64 `json:"platform_commission_paise"`
    PayoutPaise     int64 `json:"professional_payout_paise"`
    RateBps         int   `json:"commission_rate_bps"`
}

// Quote computes the split for a service amount plus additional charges.
// The commission is a single half-up rounding of total × rate applied to
// the total, never summed from independently rounded components, and the
// payout is the exact remainder — so commission + payout always equals
// the total.
func Quote(servicePaise int64, chargesPaise []int64, rateBps int) Breakdown {
    if rateBps <= 0 {
        rateBps = DefaultRateBps
    }
    var additional int64
    for _, c := range chargesPaise {
        additional += c
    }
    total := servicePaise + additional
    commission := roundHalfUp(total, rateBps)
    return Breakdown{
        ServicePaise:    servicePaise,
        AdditionalPaise: additional,
        TotalPaise:      total,
        CommissionPaise: commission,
        PayoutPaise:     total - commission,
        RateBps:         rateBps,
    }
}

// roundHalfUp multiplies amount by a basis-point rate and rounds half-up
// to a whole paise in integer arithmetic.
func roundHalfUp(amountPaise int64, rateBps int) int64 {
    return (amountPaise*int64(rateBps) + 5000) / 10000
}

// Build assembles the settlement record for a completed booking from a
// frozen total.  GATEWAY settlements require a previously verified
// payment reference and record the commission as already collected (the
// platform withholds it from the payout).  UPI_DIRECT and CASH commit
// immediately with the commission pending and due in CommissionDueDays.
func Build(bookingID, professionalID uint64, method string, totalPaise int64, rateBps int, paymentRef *string, now time.Time) (*model.Settlement, error) {
    if rateBps <= 0 {
        rateBps = DefaultRateBps
    }
    commission := roundHalfUp(totalPaise, rateBps)
    s := &model.Settlement{
        BookingID:         bookingID,
        ProfessionalID:    professionalID,
        PaymentMethod:     method,
        TotalPaise:        totalPaise,
        CommissionPaise:   commission,
        PayoutPaise:       totalPaise - commission,
        CommissionRateBps: rateBps,
    }
    switch method {
    case model.PaymentGateway:
        if paymentRef == nil || *paymentRef == "" {
            return nil, ErrVerificationRequired
        }
        s.CommissionStatus = model.CommissionCollected
        s.PaymentRef = paymentRef
    case model.PaymentUPIDirect, model.PaymentCash:
        due := now.UTC().Add(CommissionDueDays * 24 * time.Hour)
        s.CommissionStatus = model.CommissionPending
        s.CommissionDueAt = &due
    default:
        return nil, ErrUnknownMethod
    }
    return s, nil
}
