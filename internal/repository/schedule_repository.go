package repository

import (
    "context"
    "database/sql"

    "github.com/iliyamo/home-service-booking/internal/model"
    "github.com/iliyamo/home-service-booking/internal/schedule"
)

// ScheduleRepo persists per-professional calendars: weekly working
// hours, blocked intervals and holidays.  It also assembles the day
// context the pure availability logic in package schedule evaluates.
type ScheduleRepo struct {
    db       *sql.DB
    bookings *BookingRepo
}

// NewScheduleRepo returns a new ScheduleRepo.  The booking repository is
// needed to count overlapping non-cancelled bookings for a day.
func NewScheduleRepo(db *sql.DB, bookings *BookingRepo) *ScheduleRepo {
    return &ScheduleRepo{db: db, bookings: bookings}
}

// UpsertWeeklyHours replaces the weekly hours row for one weekday.
func (r *ScheduleRepo) UpsertWeeklyHours(ctx context.Context, h model.WeeklyHours) error {
    _, err := r.db.ExecContext(ctx,
        `INSERT INTO schedules (professional_id, weekday, is_working, start_time, end_time)
         VALUES (?, ?, ?, ?, ?)
         ON DUPLICATE KEY UPDATE is_working = VALUES(is_working),
             start_time = VALUES(start_time), end_time = VALUES(end_time)`,
        h.ProfessionalID, h.Weekday, h.IsWorking, h.StartTime, h.EndTime)
    return err
}

// WeeklyHours returns the professional's weekly calendar rows.
func (r *ScheduleRepo) WeeklyHours(ctx context.Context, professionalID uint64) ([]model.WeeklyHours, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT professional_id, weekday, is_working, start_time, end_time
         FROM schedules WHERE professional_id = ? ORDER BY weekday`, professionalID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    hours := make([]model.WeeklyHours, 0)
    for rows.Next() {
        var h model.WeeklyHours
        if err := rows.Scan(&h.ProfessionalID, &h.Weekday, &h.IsWorking, &h.StartTime, &h.EndTime); err != nil {
            return nil, err
        }
        hours = append(hours, h)
    }
    return hours, rows.Err()
}

// AddBlock inserts a blocked interval for a date.
func (r *ScheduleRepo) AddBlock(ctx context.Context, b *model.ScheduleBlock) error {
    res, err := r.db.ExecContext(ctx,
        `INSERT INTO schedule_blocks (professional_id, block_date, start_time, end_time, reason)
         VALUES (?, ?, ?, ?, ?)`,
        b.ProfessionalID, b.Date, b.StartTime, b.EndTime, b.Reason)
    if err != nil {
        return err
    }
    if id, err := res.LastInsertId(); err == nil {
        b.ID = uint64(id)
    }
    return nil
}

// RemoveBlock deletes a blocked interval owned by the professional.
// Returns ErrForbidden when the block belongs to someone else.
func (r *ScheduleRepo) RemoveBlock(ctx context.Context, id, professionalID uint64) error {
    res, err := r.db.ExecContext(ctx,
        `DELETE FROM schedule_blocks WHERE id = ? AND professional_id = ?`, id, professionalID)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        var one int
        if err := r.db.QueryRowContext(ctx,
            `SELECT 1 FROM schedule_blocks WHERE id = ?`, id).Scan(&one); err == sql.ErrNoRows {
            return sql.ErrNoRows
        } else if err != nil {
            return err
        }
        return ErrForbidden
    }
    return nil
}

// AddHoliday marks a full date off.
func (r *ScheduleRepo) AddHoliday(ctx context.Context, h *model.Holiday) error {
    res, err := r.db.ExecContext(ctx,
        `INSERT INTO holidays (professional_id, holiday_date, name) VALUES (?, ?, ?)`,
        h.ProfessionalID, h.Date, h.Name)
    if err != nil {
        return err
    }
    if id, err := res.LastInsertId(); err == nil {
        h.ID = uint64(id)
    }
    return nil
}

// DayContext assembles everything the availability check needs for one
// professional and date: holiday flag, the weekday's working window,
// blocked intervals and the windows of existing non-cancelled bookings.
func (r *ScheduleRepo) DayContext(ctx context.Context, professionalID uint64, date string, weekday int) (schedule.Day, error) {
    var day schedule.Day

    var one int
    err := r.db.QueryRowContext(ctx,
        `SELECT 1 FROM holidays WHERE professional_id = ? AND holiday_date = ? LIMIT 1`,
        professionalID, date).Scan(&one)
    switch err {
    case nil:
        day.Holiday = true
    case sql.ErrNoRows:
        // not a holiday
    default:
        return day, err
    }

    err = r.db.QueryRowContext(ctx,
        `SELECT is_working, start_time, end_time FROM schedules
         WHERE professional_id = ? AND weekday = ?`,
        professionalID, weekday).Scan(&day.Working, &day.WorkStart, &day.WorkEnd)
    if err == sql.ErrNoRows {
        // No calendar row for this weekday means the professional never
        // configured it; treat as non-working.
        day.Working = false
    } else if err != nil {
        return day, err
    }

    rows, err := r.db.QueryContext(ctx,
        `SELECT start_time, end_time FROM schedule_blocks
         WHERE professional_id = ? AND block_date = ?`, professionalID, date)
    if err != nil {
        return day, err
    }
    defer rows.Close()
    for rows.Next() {
        var iv schedule.Interval
        if err := rows.Scan(&iv.Start, &iv.End); err != nil {
            return day, err
        }
        day.Blocks = append(day.Blocks, iv)
    }
    if err := rows.Err(); err != nil {
        return day, err
    }
    return day, nil
}

// IsAvailable answers whether [start, end) on date is bookable for the
// professional: not a holiday, inside working hours, clear of blocks and
// clear of existing non-cancelled bookings.
func (r *ScheduleRepo) IsAvailable(ctx context.Context, professionalID uint64, date string, weekday int, start, end string) (bool, error) {
    day, err := r.DayContext(ctx, professionalID, date, weekday)
    if err != nil {
        return false, err
    }
    if !schedule.Fits(day, start, end) {
        return false, nil
    }
    n, err := r.bookings.CountOverlapping(ctx, professionalID, date, start, end)
    if err != nil {
        return false, err
    }
    return n == 0, nil
}
