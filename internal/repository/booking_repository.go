package repository

import (
    "context"
    "database/sql"
    "strings"
    "time"

    "github.com/iliyamo/home-service-booking/internal/model"
)

// BookingRepo provides data access to the bookings aggregate and its
// child tables (booking_charges, reschedule_history, settlements).  Every
// lifecycle transition is a single conditional UPDATE whose WHERE clause
// carries the expected pre-state; RowsAffected decides whether the caller
// won.  This is what closes the race where two professionals accept the
// same pending booking: the loser's UPDATE matches zero rows.  All
// timestamps are stored in UTC.
type BookingRepo struct {
    db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions that
// span repositories.
func (r *BookingRepo) DB() *sql.DB { return r.db }

const bookingColumns = `id, customer_id, professional_id, service_id, status,
       scheduled_at, is_emergency, longitude, latitude, address,
       verification_code, payment_method, payment_order_ref, payment_ref,
       service_amount_paise, additional_amount_paise, rating,
       last_longitude, last_latitude, last_sample_at, distance_km, eta_minutes,
       started_at, arrived_at,
       cancelled_by, cancelled_role, cancel_reason,
       accepted_at, completed_at, cancelled_at, created_at, updated_at`

// Create inserts a new booking in PENDING status and populates the
// generated ID and row timestamps on the provided model.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
    const q = `INSERT INTO bookings
        (customer_id, service_id, status, scheduled_at, is_emergency,
         longitude, latitude, address, verification_code, payment_method,
         payment_order_ref, service_amount_paise)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q,
        b.CustomerID, b.ServiceID, model.StatusPending,
        b.ScheduledAt.UTC().Format("2006-01-02 15:04:05"), b.IsEmergency,
        b.Location.Longitude, b.Location.Latitude, b.Address,
        b.VerificationCode, b.PaymentMethod, b.PaymentOrderRef, b.ServiceAmount,
    )
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    b.ID = uint64(id)
    b.Status = model.StatusPending
    // Query back the row timestamps set by the database.
    return r.db.QueryRowContext(ctx,
        `SELECT created_at, updated_at FROM bookings WHERE id = ?`, b.ID,
    ).Scan(&b.CreatedAt, &b.UpdatedAt)
}

// GetByID loads a full booking aggregate.  ErrBookingNotFound is returned
// when no row exists.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
    row := r.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
    b, err := scanBooking(row)
    if err == sql.ErrNoRows {
        return nil, ErrBookingNotFound
    }
    return b, err
}

// rowScanner lets scanBooking work with both *sql.Row and *sql.Rows.
type rowScanner interface{ Scan(dest ...interface{}) error }

func scanBooking(row rowScanner) (*model.Booking, error) {
    var (
        b           model.Booking
        proID       sql.NullInt64
        orderRef    sql.NullString
        payRef      sql.NullString
        rating      sql.NullInt64
        lastLon     sql.NullFloat64
        lastLat     sql.NullFloat64
        lastSample  sql.NullTime
        distance    sql.NullFloat64
        eta         sql.NullInt64
        startedAt   sql.NullTime
        arrivedAt   sql.NullTime
        cancelBy    sql.NullInt64
        cancelRole  sql.NullString
        cancelWhy   sql.NullString
        acceptedAt  sql.NullTime
        completedAt sql.NullTime
        cancelledAt sql.NullTime
    )
    err := row.Scan(
        &b.ID, &b.CustomerID, &proID, &b.ServiceID, &b.Status,
        &b.ScheduledAt, &b.IsEmergency, &b.Location.Longitude, &b.Location.Latitude, &b.Address,
        &b.VerificationCode, &b.PaymentMethod, &orderRef, &payRef,
        &b.ServiceAmount, &b.AdditionalAmount, &rating,
        &lastLon, &lastLat, &lastSample, &distance, &eta,
        &startedAt, &arrivedAt,
        &cancelBy, &cancelRole, &cancelWhy,
        &acceptedAt, &completedAt, &cancelledAt, &b.CreatedAt, &b.UpdatedAt,
    )
    if err != nil {
        return nil, err
    }
    if proID.Valid {
        v := uint64(proID.Int64)
        b.ProfessionalID = &v
    }
    if orderRef.Valid {
        v := orderRef.String
        b.PaymentOrderRef = &v
    }
    if payRef.Valid {
        v := payRef.String
        b.PaymentRef = &v
    }
    if rating.Valid {
        v := uint8(rating.Int64)
        b.Rating = &v
    }
    if lastLon.Valid && lastLat.Valid {
        b.Tracking.LastLocation = &model.Point{Longitude: lastLon.Float64, Latitude: lastLat.Float64}
    }
    if lastSample.Valid {
        t := lastSample.Time
        b.Tracking.LastSampleAt = &t
    }
    if distance.Valid {
        v := distance.Float64
        b.Tracking.DistanceKm = &v
    }
    if eta.Valid {
        v := int(eta.Int64)
        b.Tracking.EtaMinutes = &v
    }
    if startedAt.Valid {
        t := startedAt.Time
        b.Tracking.StartedAt = &t
    }
    if arrivedAt.Valid {
        t := arrivedAt.Time
        b.Tracking.ArrivedAt = &t
    }
    if acceptedAt.Valid {
        t := acceptedAt.Time
        b.AcceptedAt = &t
    }
    if completedAt.Valid {
        t := completedAt.Time
        b.CompletedAt = &t
    }
    if cancelledAt.Valid {
        t := cancelledAt.Time
        b.CancelledAt = &t
        if cancelBy.Valid {
            b.Cancellation = &model.Cancellation{
                By:     uint64(cancelBy.Int64),
                Role:   cancelRole.String,
                Reason: cancelWhy.String,
                At:     cancelledAt.Time,
            }
        }
    }
    return &b, nil
}

// Accept atomically claims a pending booking for a professional.  The
// WHERE clause is the compare-and-swap on (status, professional_id); when
// a second professional races on the same booking, exactly one UPDATE
// matches and the other sees applied == false.
func (r *BookingRepo) Accept(ctx context.Context, id, professionalID uint64, at time.Time) (bool, error) {
    res, err := r.db.ExecContext(ctx,
        `UPDATE bookings SET professional_id = ?, status = ?, accepted_at = ?
         WHERE id = ? AND status = ? AND professional_id IS NULL`,
        professionalID, model.StatusAccepted, at.UTC().Format("2006-01-02 15:04:05"),
        id, model.StatusPending,
    )
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, err
    }
    return n == 1, nil
}

// Start flips an accepted booking to IN_PROGRESS for its assigned
// professional and stamps the tracking start time.
func (r *BookingRepo) Start(ctx context.Context, id, professionalID uint64, at time.Time) (bool, error) {
    ts := at.UTC().Format("2006-01-02 15:04:05")
    res, err := r.db.ExecContext(ctx,
        `UPDATE bookings SET status = ?, started_at = ?
         WHERE id = ? AND status = ? AND professional_id = ?`,
        model.StatusInProgress, ts, id, model.StatusAccepted, professionalID,
    )
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, err
    }
    return n == 1, nil
}

// CompleteWithSettlement marks an in-progress booking COMPLETED and
// inserts its settlement in one transaction: either both persist or
// neither does.  The total is frozen under a row lock so a concurrent
// charge append cannot slip between quote and commit; build receives that
// frozen total and returns the settlement to record.  It returns
// (false, nil) when the booking is not IN_PROGRESS for this professional,
// and ErrSettlementExists when a settlement was already committed.
func (r *BookingRepo) CompleteWithSettlement(ctx context.Context, id, professionalID uint64, at time.Time, build func(totalPaise int64) (*model.Settlement, error)) (bool, error) {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return false, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    var (
        status string
        proID  sql.NullInt64
        total  int64
    )
    err = tx.QueryRowContext(ctx,
        `SELECT status, professional_id, service_amount_paise + additional_amount_paise
         FROM bookings WHERE id = ? FOR UPDATE`, id,
    ).Scan(&status, &proID, &total)
    if err == sql.ErrNoRows {
        return false, ErrBookingNotFound
    }
    if err != nil {
        return false, err
    }
    if status != model.StatusInProgress || !proID.Valid || uint64(proID.Int64) != professionalID {
        return false, nil
    }
    s, err := build(total)
    if err != nil {
        return false, err
    }
    const ins = `INSERT INTO settlements
        (booking_id, professional_id, payment_method, total_paise,
         commission_paise, payout_paise, commission_rate_bps,
         commission_status, commission_due_at, payment_ref)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
    var dueAt interface{}
    if s.CommissionDueAt != nil {
        dueAt = s.CommissionDueAt.UTC().Format("2006-01-02 15:04:05")
    }
    if _, err = tx.ExecContext(ctx, ins,
        s.BookingID, s.ProfessionalID, s.PaymentMethod, s.TotalPaise,
        s.CommissionPaise, s.PayoutPaise, s.CommissionRateBps,
        s.CommissionStatus, dueAt, s.PaymentRef,
    ); err != nil {
        if strings.Contains(strings.ToLower(err.Error()), "1062") {
            return false, ErrSettlementExists
        }
        return false, err
    }
    if _, err = tx.ExecContext(ctx,
        `UPDATE bookings SET status = ?, completed_at = ? WHERE id = ?`,
        model.StatusCompleted, at.UTC().Format("2006-01-02 15:04:05"), id,
    ); err != nil {
        return false, err
    }
    if err = tx.Commit(); err != nil {
        return false, err
    }
    committed = true
    return true, nil
}

// Cancel transitions a booking to CANCELLED, conditional on the exact
// status the caller validated its guards against.  The cancellation
// record is written in the same statement that flips the status.
func (r *BookingRepo) Cancel(ctx context.Context, id uint64, fromStatus string, c model.Cancellation) (bool, error) {
    res, err := r.db.ExecContext(ctx,
        `UPDATE bookings SET status = ?, cancelled_at = ?, cancelled_by = ?,
                cancelled_role = ?, cancel_reason = ?
         WHERE id = ? AND status = ?`,
        model.StatusCancelled, c.At.UTC().Format("2006-01-02 15:04:05"),
        c.By, c.Role, c.Reason, id, fromStatus,
    )
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, err
    }
    return n == 1, nil
}

// Reschedule moves scheduled_at and appends the history entry in one
// transaction.  The UPDATE is conditional on the current status still
// being reschedulable and on scheduled_at still matching entry.OldTime,
// so two concurrent reschedules cannot both record the same old time.
func (r *BookingRepo) Reschedule(ctx context.Context, id uint64, entry model.RescheduleEntry) (bool, error) {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return false, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    res, err := tx.ExecContext(ctx,
        `UPDATE bookings SET scheduled_at = ?
         WHERE id = ? AND status IN (?, ?) AND scheduled_at = ?`,
        entry.NewTime.UTC().Format("2006-01-02 15:04:05"), id,
        model.StatusPending, model.StatusAccepted,
        entry.OldTime.UTC().Format("2006-01-02 15:04:05"),
    )
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, err
    }
    if n != 1 {
        return false, nil
    }
    if _, err = tx.ExecContext(ctx,
        `INSERT INTO reschedule_history (booking_id, old_time, new_time, actor_id, actor_role, reason)
         VALUES (?, ?, ?, ?, ?, ?)`,
        id, entry.OldTime.UTC().Format("2006-01-02 15:04:05"),
        entry.NewTime.UTC().Format("2006-01-02 15:04:05"),
        entry.ActorID, entry.ActorRole, entry.Reason,
    ); err != nil {
        return false, err
    }
    if err = tx.Commit(); err != nil {
        return false, err
    }
    committed = true
    return true, nil
}

// ListRescheduleHistory returns the append-only reschedule log for a
// booking, oldest first.
func (r *BookingRepo) ListRescheduleHistory(ctx context.Context, bookingID uint64) ([]model.RescheduleEntry, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT id, booking_id, old_time, new_time, actor_id, actor_role, reason, created_at
         FROM reschedule_history WHERE booking_id = ? ORDER BY id`, bookingID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    entries := make([]model.RescheduleEntry, 0)
    for rows.Next() {
        var e model.RescheduleEntry
        if err := rows.Scan(&e.ID, &e.BookingID, &e.OldTime, &e.NewTime, &e.ActorID, &e.ActorRole, &e.Reason, &e.CreatedAt); err != nil {
            return nil, err
        }
        entries = append(entries, e)
    }
    return entries, rows.Err()
}

// AddCharge appends an additional charge and bumps the booking's running
// additional amount in one transaction.  Charges are only accepted while
// the booking is still live (before settlement freezes the total).
func (r *BookingRepo) AddCharge(ctx context.Context, ch *model.BookingCharge) (bool, error) {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return false, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    res, err := tx.ExecContext(ctx,
        `UPDATE bookings SET additional_amount_paise = additional_amount_paise + ?
         WHERE id = ? AND status IN (?, ?, ?)`,
        ch.AmountPaise, ch.BookingID,
        model.StatusPending, model.StatusAccepted, model.StatusInProgress,
    )
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, err
    }
    if n != 1 {
        return false, nil
    }
    ins, err := tx.ExecContext(ctx,
        `INSERT INTO booking_charges (booking_id, description, amount_paise) VALUES (?, ?, ?)`,
        ch.BookingID, ch.Description, ch.AmountPaise,
    )
    if err != nil {
        return false, err
    }
    if id, err := ins.LastInsertId(); err == nil {
        ch.ID = uint64(id)
    }
    if err = tx.Commit(); err != nil {
        return false, err
    }
    committed = true
    return true, nil
}

// ListCharges returns all additional charges for a booking, oldest first.
func (r *BookingRepo) ListCharges(ctx context.Context, bookingID uint64) ([]model.BookingCharge, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT id, booking_id, description, amount_paise, created_at
         FROM booking_charges WHERE booking_id = ? ORDER BY id`, bookingID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    charges := make([]model.BookingCharge, 0)
    for rows.Next() {
        var c model.BookingCharge
        if err := rows.Scan(&c.ID, &c.BookingID, &c.Description, &c.AmountPaise, &c.CreatedAt); err != nil {
            return nil, err
        }
        charges = append(charges, c)
    }
    return charges, rows.Err()
}

// SetRating records the customer rating, once, only on a completed
// booking.  The conditional rating IS NULL makes the second attempt a
// no-op the caller can reject.
func (r *BookingRepo) SetRating(ctx context.Context, id uint64, rating uint8) (bool, error) {
    res, err := r.db.ExecContext(ctx,
        `UPDATE bookings SET rating = ? WHERE id = ? AND status = ? AND rating IS NULL`,
        rating, id, model.StatusCompleted,
    )
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, err
    }
    return n == 1, nil
}

// SetPaymentVerified stores the externally verified gateway payment
// reference.  Only gateway bookings without an existing reference accept
// it.
func (r *BookingRepo) SetPaymentVerified(ctx context.Context, id uint64, paymentRef string) (bool, error) {
    res, err := r.db.ExecContext(ctx,
        `UPDATE bookings SET payment_ref = ?
         WHERE id = ? AND payment_method = ? AND payment_ref IS NULL`,
        paymentRef, id, model.PaymentGateway,
    )
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, err
    }
    return n == 1, nil
}

// UpdateTracking writes one location sample's derived values.  The WHERE
// clause enforces ownership, an active status and monotonic sample
// timestamps; stale or out-of-order samples match zero rows and are
// dropped.
func (r *BookingRepo) UpdateTracking(ctx context.Context, id, professionalID uint64, p model.Point, distanceKm float64, etaMinutes int, at time.Time) (bool, error) {
    ts := at.UTC().Format("2006-01-02 15:04:05.000")
    res, err := r.db.ExecContext(ctx,
        `UPDATE bookings SET last_longitude = ?, last_latitude = ?, last_sample_at = ?,
                distance_km = ?, eta_minutes = ?
         WHERE id = ? AND professional_id = ? AND status IN (?, ?)
           AND (last_sample_at IS NULL OR last_sample_at < ?)`,
        p.Longitude, p.Latitude, ts, distanceKm, etaMinutes,
        id, professionalID, model.StatusAccepted, model.StatusInProgress, ts,
    )
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, err
    }
    return n == 1, nil
}

// MarkArrived stamps the arrival time once and zeroes the ETA.
func (r *BookingRepo) MarkArrived(ctx context.Context, id, professionalID uint64, at time.Time) (bool, error) {
    res, err := r.db.ExecContext(ctx,
        `UPDATE bookings SET arrived_at = ?, eta_minutes = 0
         WHERE id = ? AND professional_id = ? AND status IN (?, ?) AND arrived_at IS NULL`,
        at.UTC().Format("2006-01-02 15:04:05"), id, professionalID,
        model.StatusAccepted, model.StatusInProgress,
    )
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, err
    }
    return n == 1, nil
}

// ListByCustomer returns a customer's bookings, newest first.
func (r *BookingRepo) ListByCustomer(ctx context.Context, customerID uint64) ([]model.Booking, error) {
    return r.list(ctx, `customer_id = ?`, customerID)
}

// ListByProfessional returns a professional's assigned bookings, newest
// first.
func (r *BookingRepo) ListByProfessional(ctx context.Context, professionalID uint64) ([]model.Booking, error) {
    return r.list(ctx, `professional_id = ?`, professionalID)
}

func (r *BookingRepo) list(ctx context.Context, where string, arg interface{}) ([]model.Booking, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT `+bookingColumns+` FROM bookings WHERE `+where+` ORDER BY created_at DESC`, arg)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    bookings := make([]model.Booking, 0)
    for rows.Next() {
        b, err := scanBooking(rows)
        if err != nil {
            return nil, err
        }
        bookings = append(bookings, *b)
    }
    return bookings, rows.Err()
}

// CountOverlapping counts non-cancelled bookings for a professional whose
// service window overlaps [start, end) on the given date.  The window of
// each existing booking is derived from its scheduled time plus the
// service duration.  Used by the schedule store's availability check.
func (r *BookingRepo) CountOverlapping(ctx context.Context, professionalID uint64, date, start, end string) (int, error) {
    const q = `SELECT COUNT(*)
        FROM bookings b
        JOIN services s ON s.id = b.service_id
        WHERE b.professional_id = ?
          AND b.status IN (?, ?, ?)
          AND DATE(b.scheduled_at) = ?
          AND TIME_FORMAT(b.scheduled_at, '%H:%i') < ?
          AND TIME_FORMAT(DATE_ADD(b.scheduled_at, INTERVAL s.duration_minutes MINUTE), '%H:%i') > ?`
    var n int
    err := r.db.QueryRowContext(ctx, q, professionalID,
        model.StatusPending, model.StatusAccepted, model.StatusInProgress,
        date, end, start,
    ).Scan(&n)
    return n, err
}
