// Package geo holds the one shared distance/ETA implementation used by
// matching, tracking and any preview path.  Keeping a single copy is what
// makes the derived tracking values testable and consistent across call
// sites.
package geo

import "math"

// EarthRadiusKm is the mean Earth radius used by the haversine formula.
const EarthRadiusKm = 6371.0

// DefaultSpeedKmh is the assumed average travel speed when a professional
// has not reported speed.  ETA estimates divide distance by this value.
const DefaultSpeedKmh = 30.0

// MinEtaMinutes is the floor applied to every ETA estimate.
const MinEtaMinutes = 1

// HaversineKm returns the great-circle distance in kilometres between two
// (longitude, latitude) pairs.
func HaversineKm(lon1, lat1, lon2, lat2 float64) float64 {
    dLat := toRad(lat2 - lat1)
    dLon := toRad(lon2 - lon1)
    a := math.Sin(dLat/2)*math.Sin(dLat/2) +
        math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
    c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
    return EarthRadiusKm * c
}

// EtaMinutes converts a distance into an ETA estimate in whole minutes
// using the given average speed.  A non-positive speed falls back to
// DefaultSpeedKmh.  The result is never below MinEtaMinutes.
func EtaMinutes(distanceKm, speedKmh float64) int {
    if speedKmh <= 0 {
        speedKmh = DefaultSpeedKmh
    }
    eta := int(math.Round(distanceKm / speedKmh * 60))
    if eta < MinEtaMinutes {
        eta = MinEtaMinutes
    }
    return eta
}

func toRad(deg float64) float64 { return deg * math.Pi / 180 }
