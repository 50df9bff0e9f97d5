package model

import "time"

// Professional is the profile projection of a service provider.  Live
// position and availability are mirrored into the Redis geo index as a
// best-effort hint; this row remains the durable profile.
//
// Fields:
//  ID          – primary key identifier; equals the users.id of the
//                PROFESSIONAL account.
//  Name        – display name.
//  Phone       – contact number.
//  IsAvailable – durable availability flag, toggled by accept/cancel.
//  LastLon/LastLat – last reported position (nullable before first report).
//  LastSeenAt  – when the position was last reported.
//  CreatedAt/UpdatedAt – row timestamps.
type Professional struct {
    ID          uint64     // professionals.id
    Name        string     // professionals.name
    Phone       string     // professionals.phone
    IsAvailable bool       // professionals.is_available
    LastLon     *float64   // professionals.last_longitude
    LastLat     *float64   // professionals.last_latitude
    LastSeenAt  *time.Time // professionals.last_seen_at
    CreatedAt   time.Time  // professionals.created_at
    UpdatedAt   time.Time  // professionals.updated_at
}

// ProfessionalService links a professional to a service category they can
// perform.  Capability checks during accept and matching read this table.
type ProfessionalService struct {
    ProfessionalID uint64 // professional_services.professional_id
    CategoryID     uint64 // professional_services.category_id
}
