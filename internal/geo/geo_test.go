package geo

import (
    "testing"

    "github.com/stretchr/testify/assert"
)

func TestHaversineZeroAtSamePoint(t *testing.T) {
    points := [][2]float64{
        {77.5946, 12.9716},
        {0, 0},
        {-180, -90},
        {180, 90},
    }
    for _, p := range points {
        assert.Equal(t, 0.0, HaversineKm(p[0], p[1], p[0], p[1]))
    }
}

func TestHaversineSymmetric(t *testing.T) {
    d1 := HaversineKm(77.5946, 12.9716, 77.6, 12.98)
    d2 := HaversineKm(77.6, 12.98, 77.5946, 12.9716)
    assert.Equal(t, d1, d2)
}

func TestHaversineKnownDistance(t *testing.T) {
    // MG Road to Indiranagar, Bangalore: roughly one kilometre of latitude
    // plus a little longitude.  The exact figure is about 1.08 km.
    d := HaversineKm(77.5946, 12.9716, 77.6, 12.98)
    assert.InDelta(t, 1.08, d, 0.05)
}

func TestHaversineLongHaul(t *testing.T) {
    // Bangalore to Delhi is about 1740 km great-circle.
    d := HaversineKm(77.5946, 12.9716, 77.1025, 28.7041)
    assert.InDelta(t, 1740, d, 20)
}

func TestEtaMinutes(t *testing.T) {
    // 15 km at 30 km/h is half an hour.
    assert.Equal(t, 30, EtaMinutes(15, DefaultSpeedKmh))
    // Zero speed falls back to the default.
    assert.Equal(t, 30, EtaMinutes(15, 0))
    // Very short distances floor at one minute.
    assert.Equal(t, MinEtaMinutes, EtaMinutes(0, DefaultSpeedKmh))
    assert.Equal(t, MinEtaMinutes, EtaMinutes(0.1, DefaultSpeedKmh))
}
