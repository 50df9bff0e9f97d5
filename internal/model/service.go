package model

import "time"

// Service is one bookable catalog entry.  The catalog itself is managed
// elsewhere; the engine only reads price, category and duration.
//
// Fields:
//  ID              – primary key identifier.
//  CategoryID      – capability category professionals are matched on.
//  Name            – display name.
//  BasePricePaise  – default service amount in paise.
//  DurationMinutes – expected duration, used for schedule overlap checks.
//  IsActive        – whether the service can be booked.
//  CreatedAt       – row timestamp.
type Service struct {
    ID              uint64    // services.id
    CategoryID      uint64    // services.category_id
    Name            string    // services.name
    BasePricePaise  int64     // services.base_price_paise
    DurationMinutes int       // services.duration_minutes
    IsActive        bool      // services.is_active
    CreatedAt       time.Time // services.created_at
}
