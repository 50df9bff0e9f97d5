// Package queue defines message payloads exchanged over the message broker.
package queue

// Topics for the realtime exchange.  Status changes fan out to a
// booking-scoped topic; tracking samples additionally fan out to the
// customer's own topic.
const (
    TopicBookingStatus = "booking.%d.status"
    TopicBookingTrack  = "booking.%d.tracking"
    TopicUserTrack     = "user.%d.tracking"
)

// StatusChangedEvent is published on every lifecycle transition.  It
// carries enough for subscribers to render the change without querying
// the primary database.
type StatusChangedEvent struct {
    BookingID      uint64  `json:"booking_id"`
    CustomerID     uint64  `json:"customer_id"`
    ProfessionalID *uint64 `json:"professional_id,omitempty"`
    ServiceID      uint64  `json:"service_id"`
    OldStatus      string  `json:"old_status"`
    NewStatus      string  `json:"new_status"`
    Reason         string  `json:"reason,omitempty"`
    At             string  `json:"at"`
}

// TrackingEvent is published for every accepted location sample and on
// arrival.  Distance and ETA are the derived values just written to the
// booking's tracking sub-record.
type TrackingEvent struct {
    BookingID      uint64  `json:"booking_id"`
    ProfessionalID uint64  `json:"professional_id"`
    Longitude      float64 `json:"longitude"`
    Latitude       float64 `json:"latitude"`
    DistanceKm     float64 `json:"distance_km"`
    EtaMinutes     int     `json:"eta_minutes"`
    Arrived        bool    `json:"arrived,omitempty"`
    At             string  `json:"at"`
}
