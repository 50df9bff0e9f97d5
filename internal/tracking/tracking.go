// Package tracking ingests live location samples from professionals on
// their way to a booking and fans the derived distance and ETA out to
// realtime subscribers.
package tracking

import (
    "context"
    "errors"
    "fmt"
    "time"

    "github.com/sirupsen/logrus"

    "github.com/iliyamo/home-service-booking/internal/geo"
    "github.com/iliyamo/home-service-booking/internal/model"
    "github.com/iliyamo/home-service-booking/internal/queue"
    "github.com/iliyamo/home-service-booking/internal/realtime"
)

var (
    // ErrValidation marks a malformed sample (bad coordinates).
    ErrValidation = errors.New("tracking: validation failed")
    // ErrNotTrackable is returned when the booking is not in a state
    // that accepts samples or the sender is not its professional.
    ErrNotTrackable = errors.New("tracking: booking is not trackable")
    // ErrStaleSample is returned when a sample is older than the last
    // one recorded; out-of-order samples never move the position back.
    ErrStaleSample = errors.New("tracking: sample is stale")
)

// Store is the subset of booking persistence tracking needs.  The
// conditional writes carry the monotonicity guard: an update returning
// false means the sample lost to a newer one.
type Store interface {
    GetByID(ctx context.Context, id uint64) (*model.Booking, error)
    UpdateTracking(ctx context.Context, id, professionalID uint64, p model.Point, distanceKm float64, etaMinutes int, at time.Time) (bool, error)
    MarkArrived(ctx context.Context, id, professionalID uint64, at time.Time) (bool, error)
}

// PositionSink receives the professional's latest position for the
// nearby-search index.  Best effort; a nil sink is skipped.
type PositionSink interface {
    UpdatePosition(ctx context.Context, professionalID uint64, p model.Point) error
}

// Engine validates, derives and persists tracking samples.
type Engine struct {
    store    Store
    sink     PositionSink
    channel  realtime.Channel
    speedKmh float64
}

// NewEngine builds a tracking engine.  speedKmh is the assumed travel
// speed for ETA estimates; non-positive values fall back to the default.
func NewEngine(store Store, sink PositionSink, ch realtime.Channel, speedKmh float64) *Engine {
    if ch == nil {
        ch = realtime.Nop{}
    }
    if speedKmh <= 0 {
        speedKmh = geo.DefaultSpeedKmh
    }
    return &Engine{store: store, sink: sink, channel: ch, speedKmh: speedKmh}
}

// Sample is one reported position.  At defaults to now when zero.
type Sample struct {
    Point model.Point
    At    time.Time
}

// Ingest records a sample from the assigned professional: distance to
// the booking address and the ETA are computed here, the write is
// conditional on the sample being newer than the last, and the result
// fans out to the booking's and the customer's tracking topics.
func (e *Engine) Ingest(ctx context.Context, bookingID, professionalID uint64, s Sample) (*model.Tracking, error) {
    if !s.Point.Valid() {
        return nil, fmt.Errorf("%w: coordinates out of range", ErrValidation)
    }
    if s.At.IsZero() {
        s.At = time.Now().UTC()
    }
    b, err := e.store.GetByID(ctx, bookingID)
    if err != nil {
        return nil, err
    }
    if err := trackable(b, professionalID); err != nil {
        return nil, err
    }
    distKm := geo.HaversineKm(s.Point.Longitude, s.Point.Latitude, b.Location.Longitude, b.Location.Latitude)
    eta := geo.EtaMinutes(distKm, e.speedKmh)

    applied, err := e.store.UpdateTracking(ctx, bookingID, professionalID, s.Point, distKm, eta, s.At)
    if err != nil {
        return nil, err
    }
    if !applied {
        return nil, ErrStaleSample
    }
    if e.sink != nil {
        if err := e.sink.UpdatePosition(ctx, professionalID, s.Point); err != nil {
            logrus.WithError(err).WithField("professional_id", professionalID).
                Warn("tracking: position hint update failed")
        }
    }
    e.publish(b, queue.TrackingEvent{
        BookingID:      bookingID,
        ProfessionalID: professionalID,
        Longitude:      s.Point.Longitude,
        Latitude:       s.Point.Latitude,
        DistanceKm:     distKm,
        EtaMinutes:     eta,
        At:             s.At.Format(time.RFC3339),
    })
    at := s.At
    return &model.Tracking{
        LastLocation: &s.Point,
        LastSampleAt: &at,
        DistanceKm:   &distKm,
        EtaMinutes:   &eta,
    }, nil
}

// MarkArrived stamps the professional's arrival once; subsequent calls
// are rejected as invalid.
func (e *Engine) MarkArrived(ctx context.Context, bookingID, professionalID uint64) error {
    b, err := e.store.GetByID(ctx, bookingID)
    if err != nil {
        return err
    }
    if err := trackable(b, professionalID); err != nil {
        return err
    }
    now := time.Now().UTC()
    applied, err := e.store.MarkArrived(ctx, bookingID, professionalID, now)
    if err != nil {
        return err
    }
    if !applied {
        return fmt.Errorf("%w: arrival already recorded", ErrNotTrackable)
    }
    ev := queue.TrackingEvent{
        BookingID:      bookingID,
        ProfessionalID: professionalID,
        Arrived:        true,
        At:             now.Format(time.RFC3339),
    }
    if b.Tracking.LastLocation != nil {
        ev.Longitude = b.Tracking.LastLocation.Longitude
        ev.Latitude = b.Tracking.LastLocation.Latitude
    }
    e.publish(b, ev)
    return nil
}

// Get returns the booking's tracking sub-record for a participant.
func (e *Engine) Get(ctx context.Context, bookingID, actorID uint64) (*model.Tracking, error) {
    b, err := e.store.GetByID(ctx, bookingID)
    if err != nil {
        return nil, err
    }
    participant := b.CustomerID == actorID ||
        (b.ProfessionalID != nil && *b.ProfessionalID == actorID)
    if !participant {
        return nil, ErrNotTrackable
    }
    t := b.Tracking
    return &t, nil
}

func trackable(b *model.Booking, professionalID uint64) error {
    if b.ProfessionalID == nil || *b.ProfessionalID != professionalID {
        return fmt.Errorf("%w: sender is not the assigned professional", ErrNotTrackable)
    }
    if b.Status != model.StatusAccepted && b.Status != model.StatusInProgress {
        return fmt.Errorf("%w: booking is %s", ErrNotTrackable, b.Status)
    }
    return nil
}

func (e *Engine) publish(b *model.Booking, ev queue.TrackingEvent) {
    e.channel.Publish(fmt.Sprintf(queue.TopicBookingTrack, b.ID), ev)
    e.channel.Publish(fmt.Sprintf(queue.TopicUserTrack, b.CustomerID), ev)
}
