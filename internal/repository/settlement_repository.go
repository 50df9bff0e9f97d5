package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/iliyamo/home-service-booking/internal/model"
)

// SettlementRepo reads and maintains the commission ledger.  Settlement
// rows are inserted by BookingRepo.CompleteWithSettlement inside the
// completion transaction; this repository never creates them.
type SettlementRepo struct {
    db *sql.DB
}

// NewSettlementRepo returns a new SettlementRepo bound to the given
// database.
func NewSettlementRepo(db *sql.DB) *SettlementRepo { return &SettlementRepo{db: db} }

const settlementColumns = `id, booking_id, professional_id, payment_method,
       total_paise, commission_paise, payout_paise, commission_rate_bps,
       commission_status, commission_due_at, payment_ref, created_at`

// GetByBookingID returns the settlement for a booking, or
// ErrSettlementNotFound.
func (r *SettlementRepo) GetByBookingID(ctx context.Context, bookingID uint64) (*model.Settlement, error) {
    row := r.db.QueryRowContext(ctx,
        `SELECT `+settlementColumns+` FROM settlements WHERE booking_id = ?`, bookingID)
    s, err := scanSettlement(row)
    if err == sql.ErrNoRows {
        return nil, ErrSettlementNotFound
    }
    return s, err
}

// ListUncollectedByProfessional returns all settlements for a
// professional whose commission has not been collected, oldest due
// first.  Rows past their due date are reported OVERDUE; the stored
// status stays PENDING until collection, so overdue is derived, not a
// second write.
func (r *SettlementRepo) ListUncollectedByProfessional(ctx context.Context, professionalID uint64) ([]model.Settlement, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT `+settlementColumns+` FROM settlements
         WHERE professional_id = ? AND commission_status = ?
         ORDER BY commission_due_at`, professionalID, model.CommissionPending)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    now := time.Now().UTC()
    out := make([]model.Settlement, 0)
    for rows.Next() {
        s, err := scanSettlement(rows)
        if err != nil {
            return nil, err
        }
        if s.CommissionDueAt != nil && now.After(*s.CommissionDueAt) {
            s.CommissionStatus = model.CommissionOverdue
        }
        out = append(out, *s)
    }
    return out, rows.Err()
}

// MarkCommissionCollected closes a pending commission after the platform
// recovers it out-of-band.  Returns ErrConflict when the commission was
// already collected and ErrSettlementNotFound when no row exists.
func (r *SettlementRepo) MarkCommissionCollected(ctx context.Context, bookingID uint64) error {
    res, err := r.db.ExecContext(ctx,
        `UPDATE settlements SET commission_status = ?
         WHERE booking_id = ? AND commission_status <> ?`,
        model.CommissionCollected, bookingID, model.CommissionCollected)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 1 {
        return nil
    }
    var exists int
    if err := r.db.QueryRowContext(ctx,
        `SELECT 1 FROM settlements WHERE booking_id = ?`, bookingID,
    ).Scan(&exists); err == sql.ErrNoRows {
        return ErrSettlementNotFound
    } else if err != nil {
        return err
    }
    return ErrConflict
}

func scanSettlement(row rowScanner) (*model.Settlement, error) {
    var (
        s      model.Settlement
        dueAt  sql.NullTime
        payRef sql.NullString
    )
    err := row.Scan(
        &s.ID, &s.BookingID, &s.ProfessionalID, &s.PaymentMethod,
        &s.TotalPaise, &s.CommissionPaise, &s.PayoutPaise, &s.CommissionRateBps,
        &s.CommissionStatus, &dueAt, &payRef, &s.CreatedAt,
    )
    if err != nil {
        return nil, err
    }
    if dueAt.Valid {
        t := dueAt.Time
        s.CommissionDueAt = &t
    }
    if payRef.Valid {
        v := payRef.String
        s.PaymentRef = &v
    }
    return &s, nil
}
