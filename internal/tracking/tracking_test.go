package tracking

import (
    "context"
    "sync"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/home-service-booking/internal/geo"
    "github.com/iliyamo/home-service-booking/internal/model"
    "github.com/iliyamo/home-service-booking/internal/queue"
    "github.com/iliyamo/home-service-booking/internal/repository"
)

type memStore struct {
    mu       sync.Mutex
    bookings map[uint64]*model.Booking
}

func (s *memStore) GetByID(_ context.Context, id uint64) (*model.Booking, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    b, ok := s.bookings[id]
    if !ok {
        return nil, repository.ErrBookingNotFound
    }
    cp := *b
    return &cp, nil
}

func (s *memStore) UpdateTracking(_ context.Context, id, professionalID uint64, p model.Point, distanceKm float64, etaMinutes int, at time.Time) (bool, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    b, ok := s.bookings[id]
    if !ok || b.ProfessionalID == nil || *b.ProfessionalID != professionalID {
        return false, nil
    }
    if b.Status != model.StatusAccepted && b.Status != model.StatusInProgress {
        return false, nil
    }
    if b.Tracking.LastSampleAt != nil && !b.Tracking.LastSampleAt.Before(at) {
        return false, nil
    }
    pt, ts, d, e := p, at, distanceKm, etaMinutes
    b.Tracking.LastLocation = &pt
    b.Tracking.LastSampleAt = &ts
    b.Tracking.DistanceKm = &d
    b.Tracking.EtaMinutes = &e
    return true, nil
}

func (s *memStore) MarkArrived(_ context.Context, id, professionalID uint64, at time.Time) (bool, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    b, ok := s.bookings[id]
    if !ok || b.ProfessionalID == nil || *b.ProfessionalID != professionalID {
        return false, nil
    }
    if b.Tracking.ArrivedAt != nil {
        return false, nil
    }
    ts := at
    b.Tracking.ArrivedAt = &ts
    zero := 0
    b.Tracking.EtaMinutes = &zero
    return true, nil
}

type captureChannel struct {
    mu     sync.Mutex
    topics []string
    events []interface{}
}

func (c *captureChannel) Publish(topic string, payload interface{}) {
    c.mu.Lock()
    defer c.mu.Unlock()
    c.topics = append(c.topics, topic)
    c.events = append(c.events, payload)
}

const (
    proID    = uint64(200)
    custID   = uint64(100)
    bookID   = uint64(1)
    destLon  = 77.6
    destLat  = 12.98
    speedKmh = 30.0
)

func newEngine(status string) (*Engine, *memStore, *captureChannel) {
    pid := proID
    store := &memStore{bookings: map[uint64]*model.Booking{
        bookID: {
            ID:             bookID,
            CustomerID:     custID,
            ProfessionalID: &pid,
            Status:         status,
            Location:       model.Point{Longitude: destLon, Latitude: destLat},
        },
    }}
    ch := &captureChannel{}
    return NewEngine(store, nil, ch, speedKmh), store, ch
}

func TestIngestDerivesDistanceAndEta(t *testing.T) {
    eng, store, ch := newEngine(model.StatusAccepted)
    from := model.Point{Longitude: 77.5946, Latitude: 12.9716}

    tr, err := eng.Ingest(context.Background(), bookID, proID, Sample{Point: from})
    require.NoError(t, err)

    wantDist := geo.HaversineKm(from.Longitude, from.Latitude, destLon, destLat)
    wantEta := geo.EtaMinutes(wantDist, speedKmh)
    require.NotNil(t, tr.DistanceKm)
    assert.InDelta(t, wantDist, *tr.DistanceKm, 1e-9)
    require.NotNil(t, tr.EtaMinutes)
    assert.Equal(t, wantEta, *tr.EtaMinutes)
    assert.GreaterOrEqual(t, *tr.EtaMinutes, 1)

    b, _ := store.GetByID(context.Background(), bookID)
    require.NotNil(t, b.Tracking.LastLocation)
    assert.Equal(t, from, *b.Tracking.LastLocation)

    // One sample fans out to both the booking topic and the customer's.
    require.Len(t, ch.topics, 2)
    assert.Contains(t, ch.topics, "booking.1.tracking")
    assert.Contains(t, ch.topics, "user.100.tracking")
    ev, ok := ch.events[0].(queue.TrackingEvent)
    require.True(t, ok)
    assert.InDelta(t, wantDist, ev.DistanceKm, 1e-9)
}

func TestIngestRejectsBadPoint(t *testing.T) {
    eng, _, _ := newEngine(model.StatusAccepted)
    _, err := eng.Ingest(context.Background(), bookID, proID,
        Sample{Point: model.Point{Longitude: 200, Latitude: 95}})
    assert.ErrorIs(t, err, ErrValidation)
}

func TestIngestDropsStaleSample(t *testing.T) {
    eng, _, ch := newEngine(model.StatusInProgress)
    base := time.Now().UTC()

    _, err := eng.Ingest(context.Background(), bookID, proID,
        Sample{Point: model.Point{Longitude: 77.59, Latitude: 12.97}, At: base})
    require.NoError(t, err)

    _, err = eng.Ingest(context.Background(), bookID, proID,
        Sample{Point: model.Point{Longitude: 77.58, Latitude: 12.96}, At: base.Add(-time.Second)})
    assert.ErrorIs(t, err, ErrStaleSample)

    // The stale sample published nothing.
    assert.Len(t, ch.topics, 2)
}

func TestIngestGuards(t *testing.T) {
    eng, _, _ := newEngine(model.StatusAccepted)
    p := model.Point{Longitude: 77.59, Latitude: 12.97}

    _, err := eng.Ingest(context.Background(), bookID, 999, Sample{Point: p})
    assert.ErrorIs(t, err, ErrNotTrackable)

    eng2, _, _ := newEngine(model.StatusCompleted)
    _, err = eng2.Ingest(context.Background(), bookID, proID, Sample{Point: p})
    assert.ErrorIs(t, err, ErrNotTrackable)
}

func TestMarkArrivedOnce(t *testing.T) {
    eng, store, ch := newEngine(model.StatusInProgress)

    require.NoError(t, eng.MarkArrived(context.Background(), bookID, proID))
    b, _ := store.GetByID(context.Background(), bookID)
    require.NotNil(t, b.Tracking.ArrivedAt)
    require.NotNil(t, b.Tracking.EtaMinutes)
    assert.Equal(t, 0, *b.Tracking.EtaMinutes)

    ev, ok := ch.events[0].(queue.TrackingEvent)
    require.True(t, ok)
    assert.True(t, ev.Arrived)

    err := eng.MarkArrived(context.Background(), bookID, proID)
    assert.ErrorIs(t, err, ErrNotTrackable)
}

func TestGetRequiresParticipant(t *testing.T) {
    eng, _, _ := newEngine(model.StatusAccepted)

    _, err := eng.Get(context.Background(), bookID, custID)
    assert.NoError(t, err)
    _, err = eng.Get(context.Background(), bookID, proID)
    assert.NoError(t, err)
    _, err = eng.Get(context.Background(), bookID, 999)
    assert.ErrorIs(t, err, ErrNotTrackable)
}
