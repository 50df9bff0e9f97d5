// Package geoindex maintains the nearest-neighbor index of professional
// positions in Redis.  The index is an eventually consistent hint for
// matching: accept and cancel signal availability changes here, but the
// conditional write on the bookings row is the only authority for
// whether an accept succeeds.
package geoindex

import (
    "context"
    "fmt"

    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/home-service-booking/internal/model"
)

// Candidate is one professional returned by a nearby query.  The
// distance is Redis' own great-circle figure and serves as a hint; the
// matching service recomputes the authoritative distance with the shared
// geo module.
type Candidate struct {
    ProfessionalID uint64
    Point          model.Point
    DistanceHintKm float64
}

// Index is the collaborator contract consumed by matching and the
// lifecycle engine.
type Index interface {
    QueryNearby(ctx context.Context, p model.Point, radiusKm float64, categoryID uint64, limit int) ([]Candidate, error)
    UpdatePosition(ctx context.Context, professionalID uint64, p model.Point, categoryIDs []uint64) error
    SetAvailability(ctx context.Context, professionalID uint64, available bool) error
}

// RedisIndex implements Index over Redis GEO sets, one per capability
// category, plus one availability set.
type RedisIndex struct {
    rdb *redis.Client
}

// NewRedisIndex returns an index bound to the given client.  The client
// may be nil (Redis unreachable at startup); every method then degrades
// to a no-op so matching returns empty candidate lists instead of
// failing bookings.
func NewRedisIndex(rdb *redis.Client) *RedisIndex { return &RedisIndex{rdb: rdb} }

func categoryKey(categoryID uint64) string { return fmt.Sprintf("geo:category:%d", categoryID) }

const availableKey = "geo:available"

func memberID(professionalID uint64) string { return fmt.Sprintf("%d", professionalID) }

// UpdatePosition upserts the professional's position into every category
// set they can serve.
func (x *RedisIndex) UpdatePosition(ctx context.Context, professionalID uint64, p model.Point, categoryIDs []uint64) error {
    if x.rdb == nil {
        return nil
    }
    pipe := x.rdb.Pipeline()
    for _, cat := range categoryIDs {
        pipe.GeoAdd(ctx, categoryKey(cat), &redis.GeoLocation{
            Name:      memberID(professionalID),
            Longitude: p.Longitude,
            Latitude:  p.Latitude,
        })
    }
    _, err := pipe.Exec(ctx)
    return err
}

// SetAvailability flags the professional as acceptable for matching.
func (x *RedisIndex) SetAvailability(ctx context.Context, professionalID uint64, available bool) error {
    if x.rdb == nil {
        return nil
    }
    if available {
        return x.rdb.SAdd(ctx, availableKey, memberID(professionalID)).Err()
    }
    return x.rdb.SRem(ctx, availableKey, memberID(professionalID)).Err()
}

// QueryNearby returns up to limit available professionals serving the
// category within radiusKm of p, nearest first.
func (x *RedisIndex) QueryNearby(ctx context.Context, p model.Point, radiusKm float64, categoryID uint64, limit int) ([]Candidate, error) {
    if x.rdb == nil {
        return []Candidate{}, nil
    }
    locs, err := x.rdb.GeoSearchLocation(ctx, categoryKey(categoryID), &redis.GeoSearchLocationQuery{
        GeoSearchQuery: redis.GeoSearchQuery{
            Longitude:  p.Longitude,
            Latitude:   p.Latitude,
            Radius:     radiusKm,
            RadiusUnit: "km",
            Sort:       "ASC",
        },
        WithCoord: true,
        WithDist:  true,
    }).Result()
    if err != nil {
        return nil, err
    }
    out := make([]Candidate, 0, len(locs))
    for _, loc := range locs {
        if limit > 0 && len(out) >= limit {
            break
        }
        ok, err := x.rdb.SIsMember(ctx, availableKey, loc.Name).Result()
        if err != nil {
            return nil, err
        }
        if !ok {
            continue
        }
        var id uint64
        if _, err := fmt.Sscanf(loc.Name, "%d", &id); err != nil {
            continue
        }
        out = append(out, Candidate{
            ProfessionalID: id,
            Point:          model.Point{Longitude: loc.Longitude, Latitude: loc.Latitude},
            DistanceHintKm: loc.Dist,
        })
    }
    return out, nil
}
