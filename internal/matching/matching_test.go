package matching

import (
    "context"
    "errors"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/home-service-booking/internal/geoindex"
    "github.com/iliyamo/home-service-booking/internal/model"
    "github.com/iliyamo/home-service-booking/internal/repository"
)

type fakeIndex struct {
    candidates []geoindex.Candidate
    err        error
}

func (f *fakeIndex) QueryNearby(context.Context, model.Point, float64, uint64, int) ([]geoindex.Candidate, error) {
    return f.candidates, f.err
}
func (f *fakeIndex) UpdatePosition(context.Context, uint64, model.Point, []uint64) error { return nil }
func (f *fakeIndex) SetAvailability(context.Context, uint64, bool) error                 { return nil }

type fakeCatalog struct{ svc *model.Service }

func (f *fakeCatalog) GetByID(_ context.Context, id uint64) (*model.Service, error) {
    if f.svc == nil || f.svc.ID != id {
        return nil, repository.ErrServiceNotFound
    }
    return f.svc, nil
}

type fakeSchedule struct{ free map[uint64]bool }

func (f *fakeSchedule) IsAvailable(_ context.Context, professionalID uint64, _ string, _ int, _, _ string) (bool, error) {
    return f.free[professionalID], nil
}

var searchOrigin = model.Point{Longitude: 77.5946, Latitude: 12.9716}

func testService() *model.Service {
    return &model.Service{ID: 7, CategoryID: 3, DurationMinutes: 120, IsActive: true}
}

func TestFindOrdersByRecomputedDistance(t *testing.T) {
    idx := &fakeIndex{candidates: []geoindex.Candidate{
        {ProfessionalID: 2, Point: model.Point{Longitude: 77.62, Latitude: 12.99}},
        {ProfessionalID: 1, Point: model.Point{Longitude: 77.60, Latitude: 12.975}},
        {ProfessionalID: 3, Point: model.Point{Longitude: 77.64, Latitude: 13.01}},
    }}
    f := NewFinder(idx, &fakeCatalog{svc: testService()}, nil, 30)

    got, err := f.Find(context.Background(), Request{ServiceID: 7, Location: searchOrigin, RadiusKm: 15})
    require.NoError(t, err)
    require.Len(t, got, 3)
    assert.Equal(t, uint64(1), got[0].ProfessionalID)
    assert.Equal(t, uint64(2), got[1].ProfessionalID)
    assert.Equal(t, uint64(3), got[2].ProfessionalID)
    for i := 1; i < len(got); i++ {
        assert.LessOrEqual(t, got[i-1].DistanceKm, got[i].DistanceKm)
    }
    for _, c := range got {
        assert.GreaterOrEqual(t, c.EtaMinutes, 1)
    }
}

func TestFindFiltersByRadius(t *testing.T) {
    idx := &fakeIndex{candidates: []geoindex.Candidate{
        {ProfessionalID: 1, Point: model.Point{Longitude: 77.60, Latitude: 12.975}},
        // Delhi is well outside any sane radius from Bangalore.
        {ProfessionalID: 2, Point: model.Point{Longitude: 77.209, Latitude: 28.6139}},
    }}
    f := NewFinder(idx, &fakeCatalog{svc: testService()}, nil, 30)

    got, err := f.Find(context.Background(), Request{ServiceID: 7, Location: searchOrigin, RadiusKm: 10})
    require.NoError(t, err)
    require.Len(t, got, 1)
    assert.Equal(t, uint64(1), got[0].ProfessionalID)
}

func TestFindScheduleFilter(t *testing.T) {
    idx := &fakeIndex{candidates: []geoindex.Candidate{
        {ProfessionalID: 1, Point: model.Point{Longitude: 77.60, Latitude: 12.975}},
        {ProfessionalID: 2, Point: model.Point{Longitude: 77.61, Latitude: 12.98}},
    }}
    sched := &fakeSchedule{free: map[uint64]bool{1: false, 2: true}}
    f := NewFinder(idx, &fakeCatalog{svc: testService()}, sched, 30)

    at := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
    got, err := f.Find(context.Background(), Request{ServiceID: 7, Location: searchOrigin, ScheduledAt: &at})
    require.NoError(t, err)
    require.Len(t, got, 1)
    assert.Equal(t, uint64(2), got[0].ProfessionalID)
}

func TestFindEmptyAndDegraded(t *testing.T) {
    f := NewFinder(&fakeIndex{}, &fakeCatalog{svc: testService()}, nil, 30)
    got, err := f.Find(context.Background(), Request{ServiceID: 7, Location: searchOrigin})
    require.NoError(t, err)
    assert.Empty(t, got)

    // Index outage is not a request failure.
    f = NewFinder(&fakeIndex{err: errors.New("redis down")}, &fakeCatalog{svc: testService()}, nil, 30)
    got, err = f.Find(context.Background(), Request{ServiceID: 7, Location: searchOrigin})
    require.NoError(t, err)
    assert.Empty(t, got)
}

func TestFindValidation(t *testing.T) {
    f := NewFinder(&fakeIndex{}, &fakeCatalog{svc: testService()}, nil, 30)

    _, err := f.Find(context.Background(), Request{ServiceID: 7, Location: model.Point{Longitude: 200}})
    assert.ErrorIs(t, err, ErrValidation)

    _, err = f.Find(context.Background(), Request{ServiceID: 99, Location: searchOrigin})
    assert.ErrorIs(t, err, repository.ErrServiceNotFound)
}
