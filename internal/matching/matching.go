// Package matching finds professionals near a booking location.  The
// Redis geo index supplies coarse candidates; distances and ETAs are
// recomputed here so the response never depends on the hint's accuracy,
// and an optional schedule filter removes professionals who could not
// take the slot.
package matching

import (
    "context"
    "errors"
    "fmt"
    "sort"
    "time"

    "github.com/sirupsen/logrus"

    "github.com/iliyamo/home-service-booking/internal/geo"
    "github.com/iliyamo/home-service-booking/internal/geoindex"
    "github.com/iliyamo/home-service-booking/internal/model"
)

// ErrValidation marks a malformed search request.
var ErrValidation = errors.New("matching: validation failed")

// DefaultRadiusKm bounds the search when the caller does not give one.
const DefaultRadiusKm = 10.0

// DefaultLimit caps the candidate list.
const DefaultLimit = 20

// Catalog resolves the requested service.
type Catalog interface {
    GetByID(ctx context.Context, id uint64) (*model.Service, error)
}

// ScheduleChecker answers whether a professional can take a time window
// on a date.  Implemented by the schedule repository.
type ScheduleChecker interface {
    IsAvailable(ctx context.Context, professionalID uint64, date string, weekday int, start, end string) (bool, error)
}

// Candidate is one match, ordered by recomputed distance.
type Candidate struct {
    ProfessionalID uint64      `json:"professional_id"`
    Location       model.Point `json:"location"`
    DistanceKm     float64     `json:"distance_km"`
    EtaMinutes     int         `json:"eta_minutes"`
}

// Finder runs nearby searches.
type Finder struct {
    index    geoindex.Index
    catalog  Catalog
    schedule ScheduleChecker
    speedKmh float64
}

// NewFinder wires a finder.  schedule may be nil when slot filtering is
// not wanted.
func NewFinder(index geoindex.Index, catalog Catalog, schedule ScheduleChecker, speedKmh float64) *Finder {
    if speedKmh <= 0 {
        speedKmh = geo.DefaultSpeedKmh
    }
    return &Finder{index: index, catalog: catalog, schedule: schedule, speedKmh: speedKmh}
}

// Request describes one search.  ScheduledAt is optional: when set, the
// window [ScheduledAt, ScheduledAt+service duration) is checked against
// each candidate's schedule.
type Request struct {
    ServiceID   uint64
    Location    model.Point
    RadiusKm    float64
    Limit       int
    ScheduledAt *time.Time
}

// Find returns available professionals for the service near the
// location, closest first.  An empty result is a normal answer, not an
// error.
func (f *Finder) Find(ctx context.Context, req Request) ([]Candidate, error) {
    if !req.Location.Valid() {
        return nil, fmt.Errorf("%w: coordinates out of range", ErrValidation)
    }
    if req.RadiusKm <= 0 {
        req.RadiusKm = DefaultRadiusKm
    }
    if req.Limit <= 0 || req.Limit > DefaultLimit {
        req.Limit = DefaultLimit
    }
    svc, err := f.catalog.GetByID(ctx, req.ServiceID)
    if err != nil {
        return nil, err
    }
    raw, err := f.index.QueryNearby(ctx, req.Location, req.RadiusKm, svc.CategoryID, req.Limit)
    if err != nil {
        // Index outage degrades to "nobody nearby" rather than a failed
        // booking flow.
        logrus.WithError(err).Warn("matching: geo index query failed")
        return []Candidate{}, nil
    }

    out := make([]Candidate, 0, len(raw))
    for _, c := range raw {
        if req.ScheduledAt != nil && f.schedule != nil {
            ok, err := f.canTake(ctx, c.ProfessionalID, *req.ScheduledAt, svc.DurationMinutes)
            if err != nil {
                return nil, err
            }
            if !ok {
                continue
            }
        }
        dist := geo.HaversineKm(c.Point.Longitude, c.Point.Latitude, req.Location.Longitude, req.Location.Latitude)
        if dist > req.RadiusKm {
            continue
        }
        out = append(out, Candidate{
            ProfessionalID: c.ProfessionalID,
            Location:       c.Point,
            DistanceKm:     dist,
            EtaMinutes:     geo.EtaMinutes(dist, f.speedKmh),
        })
    }
    sort.Slice(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
    if len(out) > req.Limit {
        out = out[:req.Limit]
    }
    return out, nil
}

func (f *Finder) canTake(ctx context.Context, professionalID uint64, at time.Time, durationMinutes int) (bool, error) {
    if durationMinutes <= 0 {
        durationMinutes = 60
    }
    end := at.Add(time.Duration(durationMinutes) * time.Minute)
    return f.schedule.IsAvailable(ctx, professionalID,
        at.Format("2006-01-02"), int(at.Weekday()),
        at.Format("15:04"), end.Format("15:04"))
}
