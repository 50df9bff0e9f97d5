package repository

import (
    "context"
    "database/sql"

    "github.com/iliyamo/home-service-booking/internal/model"
)

// ServiceRepo reads the service catalog.  Catalog management lives in a
// separate admin system; the engine only resolves a service to its
// category, price and expected duration.
type ServiceRepo struct {
    db *sql.DB
}

// NewServiceRepo returns a new ServiceRepo bound to the given database.
func NewServiceRepo(db *sql.DB) *ServiceRepo { return &ServiceRepo{db: db} }

// GetByID returns an active service, or ErrServiceNotFound.
func (r *ServiceRepo) GetByID(ctx context.Context, id uint64) (*model.Service, error) {
    var s model.Service
    err := r.db.QueryRowContext(ctx,
        `SELECT id, category_id, name, base_price_paise, duration_minutes, is_active, created_at
         FROM services WHERE id = ? AND is_active = 1`, id,
    ).Scan(&s.ID, &s.CategoryID, &s.Name, &s.BasePricePaise, &s.DurationMinutes, &s.IsActive, &s.CreatedAt)
    if err == sql.ErrNoRows {
        return nil, ErrServiceNotFound
    }
    if err != nil {
        return nil, err
    }
    return &s, nil
}

// ListActive returns all bookable services.
func (r *ServiceRepo) ListActive(ctx context.Context) ([]model.Service, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT id, category_id, name, base_price_paise, duration_minutes, is_active, created_at
         FROM services WHERE is_active = 1 ORDER BY name`)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    services := make([]model.Service, 0)
    for rows.Next() {
        var s model.Service
        if err := rows.Scan(&s.ID, &s.CategoryID, &s.Name, &s.BasePricePaise, &s.DurationMinutes, &s.IsActive, &s.CreatedAt); err != nil {
            return nil, err
        }
        services = append(services, s)
    }
    return services, rows.Err()
}
