package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/iliyamo/home-service-booking/internal/model"
)

// ProfessionalRepo maintains professional profiles, their capability
// categories and the durable availability flag.  The Redis geo index
// mirrors position and availability as a query hint; this table is the
// durable record.
type ProfessionalRepo struct {
    db *sql.DB
}

// NewProfessionalRepo returns a new ProfessionalRepo bound to the given
// database.
func NewProfessionalRepo(db *sql.DB) *ProfessionalRepo { return &ProfessionalRepo{db: db} }

// Create inserts a profile row for a newly registered professional.  The
// ID equals the users.id of the account.
func (r *ProfessionalRepo) Create(ctx context.Context, id uint64, name, phone string) error {
    _, err := r.db.ExecContext(ctx,
        `INSERT INTO professionals (id, name, phone, is_available) VALUES (?, ?, ?, 1)`,
        id, name, phone)
    return err
}

// GetByID returns a professional profile, or ErrProfessionalNotFound.
func (r *ProfessionalRepo) GetByID(ctx context.Context, id uint64) (*model.Professional, error) {
    var (
        p        model.Professional
        lon, lat sql.NullFloat64
        seenAt   sql.NullTime
    )
    err := r.db.QueryRowContext(ctx,
        `SELECT id, name, phone, is_available, last_longitude, last_latitude, last_seen_at, created_at, updated_at
         FROM professionals WHERE id = ?`, id,
    ).Scan(&p.ID, &p.Name, &p.Phone, &p.IsAvailable, &lon, &lat, &seenAt, &p.CreatedAt, &p.UpdatedAt)
    if err == sql.ErrNoRows {
        return nil, ErrProfessionalNotFound
    }
    if err != nil {
        return nil, err
    }
    if lon.Valid {
        p.LastLon = &lon.Float64
    }
    if lat.Valid {
        p.LastLat = &lat.Float64
    }
    if seenAt.Valid {
        t := seenAt.Time
        p.LastSeenAt = &t
    }
    return &p, nil
}

// SetAvailability flips the durable availability flag.
func (r *ProfessionalRepo) SetAvailability(ctx context.Context, id uint64, available bool) error {
    _, err := r.db.ExecContext(ctx,
        `UPDATE professionals SET is_available = ? WHERE id = ?`, available, id)
    return err
}

// UpdatePosition stores the last reported position on the profile
// projection.
func (r *ProfessionalRepo) UpdatePosition(ctx context.Context, id uint64, p model.Point, at time.Time) error {
    _, err := r.db.ExecContext(ctx,
        `UPDATE professionals SET last_longitude = ?, last_latitude = ?, last_seen_at = ? WHERE id = ?`,
        p.Longitude, p.Latitude, at.UTC().Format("2006-01-02 15:04:05"), id)
    return err
}

// Categories returns the capability category IDs a professional can
// serve.
func (r *ProfessionalRepo) Categories(ctx context.Context, id uint64) ([]uint64, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT category_id FROM professional_services WHERE professional_id = ?`, id)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    cats := make([]uint64, 0)
    for rows.Next() {
        var c uint64
        if err := rows.Scan(&c); err != nil {
            return nil, err
        }
        cats = append(cats, c)
    }
    return cats, rows.Err()
}

// HasCategory reports whether a professional serves the given category.
func (r *ProfessionalRepo) HasCategory(ctx context.Context, id, categoryID uint64) (bool, error) {
    var one int
    err := r.db.QueryRowContext(ctx,
        `SELECT 1 FROM professional_services WHERE professional_id = ? AND category_id = ? LIMIT 1`,
        id, categoryID).Scan(&one)
    if err == sql.ErrNoRows {
        return false, nil
    }
    if err != nil {
        return false, err
    }
    return true, nil
}

// AddCategory registers a capability for a professional.  Duplicate
// inserts are ignored.
func (r *ProfessionalRepo) AddCategory(ctx context.Context, id, categoryID uint64) error {
    _, err := r.db.ExecContext(ctx,
        `INSERT IGNORE INTO professional_services (professional_id, category_id) VALUES (?, ?)`,
        id, categoryID)
    return err
}
