package lifecycle

import (
    "context"
    "errors"
    "sync"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/home-service-booking/internal/model"
    "github.com/iliyamo/home-service-booking/internal/repository"
)

// memStore is a mutex-guarded in-memory BookingStore with the same
// conditional-write semantics as the SQL implementation.
type memStore struct {
    mu          sync.Mutex
    nextID      uint64
    bookings    map[uint64]*model.Booking
    settlements map[uint64]*model.Settlement
    history     map[uint64][]model.RescheduleEntry
}

func newMemStore() *memStore {
    return &memStore{
        nextID:      1,
        bookings:    make(map[uint64]*model.Booking),
        settlements: make(map[uint64]*model.Settlement),
        history:     make(map[uint64][]model.RescheduleEntry),
    }
}

func (s *memStore) Create(_ context.Context, b *model.Booking) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    b.ID = s.nextID
    s.nextID++
    b.Status = model.StatusPending
    b.CreatedAt = time.Now().UTC()
    b.UpdatedAt = b.CreatedAt
    cp := *b
    s.bookings[b.ID] = &cp
    return nil
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

func (s *memStore) Accept(_ context.Context, id, professionalID uint64, at time.Time) (bool, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    b, ok := s.bookings[id]
    if !ok || b.Status != model.StatusPending || b.ProfessionalID != nil {
        return false, nil
    }
    pid := professionalID
    b.ProfessionalID = &pid
    b.Status = model.StatusAccepted
    b.AcceptedAt = &at
    return true, nil
}

func (s *memStore) Start(_ context.Context, id, professionalID uint64, at time.Time) (bool, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    b, ok := s.bookings[id]
    if !ok || b.Status != model.StatusAccepted || b.ProfessionalID == nil || *b.ProfessionalID != professionalID {
        return false, nil
    }
    b.Status = model.StatusInProgress
    b.Tracking.StartedAt = &at
    return true, nil
}

func (s *memStore) CompleteWithSettlement(_ context.Context, id, professionalID uint64, at time.Time, build func(int64) (*model.Settlement, error)) (bool, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    b, ok := s.bookings[id]
    if !ok || b.Status != model.StatusInProgress || b.ProfessionalID == nil || *b.ProfessionalID != professionalID {
        return false, nil
    }
    set, err := build(b.TotalAmount())
    if err != nil {
        return false, err
    }
    if _, exists := s.settlements[id]; exists {
        return false, repository.ErrSettlementExists
    }
    s.settlements[id] = set
    b.Status = model.StatusCompleted
    b.CompletedAt = &at
    return true, nil
}

func (s *memStore) Cancel(_ context.Context, id uint64, fromStatus string, c model.Cancellation) (bool, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    b, ok := s.bookings[id]
    if !ok || b.Status != fromStatus {
        return false, nil
    }
    b.Status = model.StatusCancelled
    b.Cancellation = &c
    b.CancelledAt = &c.At
    return true, nil
}

func (s *memStore) Reschedule(_ context.Context, id uint64, entry model.RescheduleEntry) (bool, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    b, ok := s.bookings[id]
    if !ok {
        return false, nil
    }
    if b.Status != model.StatusPending && b.Status != model.StatusAccepted {
        return false, nil
    }
    if !b.ScheduledAt.Equal(entry.OldTime) {
        return false, nil
    }
    b.ScheduledAt = entry.NewTime
    s.history[id] = append(s.history[id], entry)
    return true, nil
}

func (s *memStore) AddCharge(_ context.Context, ch *model.BookingCharge) (bool, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    b, ok := s.bookings[ch.BookingID]
    if !ok || (b.Status != model.StatusAccepted && b.Status != model.StatusInProgress) {
        return false, nil
    }
    b.AdditionalAmount += ch.AmountPaise
    return true, nil
}

func (s *memStore) SetRating(_ context.Context, id uint64, rating uint8) (bool, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    b, ok := s.bookings[id]
    if !ok || b.Status != model.StatusCompleted || b.Rating != nil {
        return false, nil
    }
    b.Rating = &rating
    return true, nil
}

func (s *memStore) SetPaymentVerified(_ context.Context, id uint64, paymentRef string) (bool, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    b, ok := s.bookings[id]
    if !ok || b.PaymentMethod != model.PaymentGateway || b.PaymentRef != nil {
        return false, nil
    }
    ref := paymentRef
    b.PaymentRef = &ref
    return true, nil
}

// memCatalog and memDirectory satisfy the accept-time guards.
type memCatalog struct{ services map[uint64]*model.Service }

func (c *memCatalog) GetByID(_ context.Context, id uint64) (*model.Service, error) {
    svc, ok := c.services[id]
    if !ok {
        return nil, repository.ErrServiceNotFound
    }
    return svc, nil
}

type memDirectory struct {
    mu           sync.Mutex
    pros         map[uint64]*model.Professional
    categories   map[uint64]map[uint64]bool
    availability map[uint64]bool
}

func (d *memDirectory) GetByID(_ context.Context, id uint64) (*model.Professional, error) {
    d.mu.Lock()
    defer d.mu.Unlock()
    p, ok := d.pros[id]
    if !ok {
        return nil, repository.ErrProfessionalNotFound
    }
    cp := *p
    return &cp, nil
}

func (d *memDirectory) HasCategory(_ context.Context, id, categoryID uint64) (bool, error) {
    d.mu.Lock()
    defer d.mu.Unlock()
    return d.categories[id][categoryID], nil
}

func (d *memDirectory) SetAvailability(_ context.Context, id uint64, available bool) error {
    d.mu.Lock()
    defer d.mu.Unlock()
    if p, ok := d.pros[id]; ok {
        p.IsAvailable = available
    }
    d.availability[id] = available
    return nil
}

type fixture struct {
    store *memStore
    dir   *memDirectory
    eng   *Engine
}

const (
    testServiceID  = uint64(7)
    testCategoryID = uint64(3)
    testCustomerID = uint64(100)
)

func newFixture(t *testing.T, proIDs ...uint64) *fixture {
    t.Helper()
    store := newMemStore()
    catalog := &memCatalog{services: map[uint64]*model.Service{
        testServiceID: {ID: testServiceID, CategoryID: testCategoryID, Name: "Deep Cleaning", BasePricePaise: 120000, DurationMinutes: 120, IsActive: true},
    }}
    dir := &memDirectory{
        pros:         make(map[uint64]*model.Professional),
        categories:   make(map[uint64]map[uint64]bool),
        availability: make(map[uint64]bool),
    }
    for _, id := range proIDs {
        dir.pros[id] = &model.Professional{ID: id, IsAvailable: true}
        dir.categories[id] = map[uint64]bool{testCategoryID: true}
    }
    eng := NewEngine(store, catalog, dir, nil, nil, 1500)
    return &fixture{store: store, dir: dir, eng: eng}
}

func (f *fixture) create(t *testing.T, method string) *model.Booking {
    t.Helper()
    b, err := f.eng.Create(context.Background(), CreateRequest{
        CustomerID:    testCustomerID,
        ServiceID:     testServiceID,
        ScheduledAt:   noonTomorrow(),
        Location:      model.Point{Longitude: 77.5946, Latitude: 12.9716},
        Address:       "44 Residency Road",
        PaymentMethod: method,
    })
    require.NoError(t, err)
    return b
}

// noonTomorrow is always in the future and inside business hours.
func noonTomorrow() time.Time {
    d := time.Now().UTC().AddDate(0, 0, 1)
    return time.Date(d.Year(), d.Month(), d.Day(), 12, 0, 0, 0, time.UTC)
}

func customer() Actor     { return Actor{ID: testCustomerID, Role: model.RoleCustomer} }
func pro(id uint64) Actor { return Actor{ID: id, Role: model.RoleProfessional} }
func admin() Actor        { return Actor{ID: 1, Role: model.RoleAdmin} }

func TestCreateValidation(t *testing.T) {
    f := newFixture(t)
    ctx := context.Background()

    cases := []struct {
        name string
        req  CreateRequest
    }{
        {"bad coordinates", CreateRequest{CustomerID: testCustomerID, ServiceID: testServiceID, ScheduledAt: time.Now().Add(time.Hour), Location: model.Point{Longitude: 200, Latitude: 0}, Address: "x", PaymentMethod: model.PaymentCash}},
        {"missing address", CreateRequest{CustomerID: testCustomerID, ServiceID: testServiceID, ScheduledAt: time.Now().Add(time.Hour), Location: model.Point{Longitude: 77, Latitude: 12}, PaymentMethod: model.PaymentCash}},
        {"unknown method", CreateRequest{CustomerID: testCustomerID, ServiceID: testServiceID, ScheduledAt: time.Now().Add(time.Hour), Location: model.Point{Longitude: 77, Latitude: 12}, Address: "x", PaymentMethod: "BARTER"}},
        {"past time", CreateRequest{CustomerID: testCustomerID, ServiceID: testServiceID, ScheduledAt: time.Now().Add(-time.Hour), Location: model.Point{Longitude: 77, Latitude: 12}, Address: "x", PaymentMethod: model.PaymentCash}},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            _, err := f.eng.Create(ctx, tc.req)
            assert.ErrorIs(t, err, ErrValidation)
        })
    }
}

func TestCreateDefaults(t *testing.T) {
    f := newFixture(t)
    b := f.create(t, model.PaymentGateway)

    assert.Equal(t, model.StatusPending, b.Status)
    assert.Equal(t, int64(120000), b.ServiceAmount)
    assert.Len(t, b.VerificationCode, 6)
    require.NotNil(t, b.PaymentOrderRef)
    assert.Contains(t, *b.PaymentOrderRef, "order_")
}

func TestEmergencyBypassesBusinessHours(t *testing.T) {
    f := newFixture(t)
    _, err := f.eng.Create(context.Background(), CreateRequest{
        CustomerID:    testCustomerID,
        ServiceID:     testServiceID,
        ScheduledAt:   time.Now().UTC().Add(-time.Minute),
        IsEmergency:   true,
        Location:      model.Point{Longitude: 77.5946, Latitude: 12.9716},
        Address:       "44 Residency Road",
        PaymentMethod: model.PaymentCash,
    })
    assert.NoError(t, err)
}

func TestConcurrentAcceptHasOneWinner(t *testing.T) {
    const contenders = 8
    ids := make([]uint64, contenders)
    for i := range ids {
        ids[i] = uint64(200 + i)
    }
    f := newFixture(t, ids...)
    b := f.create(t, model.PaymentCash)

    var wg sync.WaitGroup
    results := make([]error, contenders)
    for i, id := range ids {
        wg.Add(1)
        go func(i int, id uint64) {
            defer wg.Done()
            _, results[i] = f.eng.Accept(context.Background(), b.ID, pro(id))
        }(i, id)
    }
    wg.Wait()

    winners := 0
    for _, err := range results {
        if err == nil {
            winners++
            continue
        }
        assert.ErrorIs(t, err, ErrAlreadyAccepted)
    }
    assert.Equal(t, 1, winners)

    got, err := f.store.GetByID(context.Background(), b.ID)
    require.NoError(t, err)
    assert.Equal(t, model.StatusAccepted, got.Status)
    require.NotNil(t, got.ProfessionalID)

    // The winner was flagged busy; everyone else is untouched.
    f.dir.mu.Lock()
    defer f.dir.mu.Unlock()
    assert.False(t, f.dir.pros[*got.ProfessionalID].IsAvailable)
}

func TestAcceptGuards(t *testing.T) {
    f := newFixture(t, 200)
    b := f.create(t, model.PaymentCash)

    _, err := f.eng.Accept(context.Background(), b.ID, customer())
    assert.ErrorIs(t, err, ErrInvalidTransition)

    _, err = f.eng.Accept(context.Background(), b.ID, pro(999))
    assert.ErrorIs(t, err, repository.ErrProfessionalNotFound)

    f.dir.pros[200].IsAvailable = false
    _, err = f.eng.Accept(context.Background(), b.ID, pro(200))
    assert.ErrorIs(t, err, ErrInvalidTransition)

    f.dir.pros[200].IsAvailable = true
    f.dir.categories[200] = nil
    _, err = f.eng.Accept(context.Background(), b.ID, pro(200))
    assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTransitionGraph(t *testing.T) {
    ctx := context.Background()

    t.Run("start requires accepted", func(t *testing.T) {
        f := newFixture(t, 200)
        b := f.create(t, model.PaymentCash)
        _, err := f.eng.Start(ctx, b.ID, pro(200))
        assert.ErrorIs(t, err, ErrInvalidTransition)
    })

    t.Run("complete requires in progress", func(t *testing.T) {
        f := newFixture(t, 200)
        b := f.create(t, model.PaymentCash)
        _, err := f.eng.Accept(ctx, b.ID, pro(200))
        require.NoError(t, err)
        _, err = f.eng.Complete(ctx, b.ID, pro(200), b.VerificationCode)
        assert.ErrorIs(t, err, ErrInvalidTransition)
    })

    t.Run("only assigned professional starts", func(t *testing.T) {
        f := newFixture(t, 200, 201)
        b := f.create(t, model.PaymentCash)
        _, err := f.eng.Accept(ctx, b.ID, pro(200))
        require.NoError(t, err)
        _, err = f.eng.Start(ctx, b.ID, pro(201))
        assert.ErrorIs(t, err, ErrInvalidTransition)
    })

    t.Run("terminal states reject everything", func(t *testing.T) {
        f := newFixture(t, 200)
        b := f.create(t, model.PaymentCash)
        _, err := f.eng.Cancel(ctx, b.ID, customer(), "plans changed")
        require.NoError(t, err)

        _, err = f.eng.Accept(ctx, b.ID, pro(200))
        assert.ErrorIs(t, err, ErrInvalidTransition)
        _, err = f.eng.Start(ctx, b.ID, pro(200))
        assert.ErrorIs(t, err, ErrInvalidTransition)
        _, err = f.eng.Reschedule(ctx, b.ID, customer(), time.Now().Add(48*time.Hour), "")
        assert.ErrorIs(t, err, ErrInvalidTransition)
    })
}

func completeFlow(t *testing.T, f *fixture, b *model.Booking, proID uint64) *model.Booking {
    t.Helper()
    ctx := context.Background()
    _, err := f.eng.Accept(ctx, b.ID, pro(proID))
    require.NoError(t, err)
    _, err = f.eng.Start(ctx, b.ID, pro(proID))
    require.NoError(t, err)
    done, err := f.eng.Complete(ctx, b.ID, pro(proID), b.VerificationCode)
    require.NoError(t, err)
    return done
}

func TestCompleteWritesSettlement(t *testing.T) {
    f := newFixture(t, 200)
    b := f.create(t, model.PaymentCash)
    ctx := context.Background()

    _, err := f.eng.Accept(ctx, b.ID, pro(200))
    require.NoError(t, err)
    _, err = f.eng.Start(ctx, b.ID, pro(200))
    require.NoError(t, err)
    _, err = f.eng.AddCharge(ctx, b.ID, pro(200), "extra material", 30000)
    require.NoError(t, err)

    done, err := f.eng.Complete(ctx, b.ID, pro(200), b.VerificationCode)
    require.NoError(t, err)
    assert.Equal(t, model.StatusCompleted, done.Status)

    set := f.store.settlements[b.ID]
    require.NotNil(t, set)
    assert.Equal(t, int64(150000), set.TotalPaise)
    assert.Equal(t, int64(22500), set.CommissionPaise)
    assert.Equal(t, int64(127500), set.PayoutPaise)
    assert.Equal(t, model.CommissionPending, set.CommissionStatus)
    require.NotNil(t, set.CommissionDueAt)

    // Professional is signalled free again after completing.
    assert.True(t, f.dir.availability[200])
}

func TestCompleteWrongCode(t *testing.T) {
    f := newFixture(t, 200)
    b := f.create(t, model.PaymentCash)
    ctx := context.Background()

    _, err := f.eng.Accept(ctx, b.ID, pro(200))
    require.NoError(t, err)
    _, err = f.eng.Start(ctx, b.ID, pro(200))
    require.NoError(t, err)

    _, err = f.eng.Complete(ctx, b.ID, pro(200), "000000")
    if b.VerificationCode == "000000" {
        t.Skip("generated code collided with the guess")
    }
    assert.ErrorIs(t, err, ErrVerificationFailed)

    got, err := f.store.GetByID(ctx, b.ID)
    require.NoError(t, err)
    assert.Equal(t, model.StatusInProgress, got.Status)
    assert.Nil(t, f.store.settlements[b.ID])
}

func TestGatewayCompleteRequiresVerifiedPayment(t *testing.T) {
    f := newFixture(t, 200)
    b := f.create(t, model.PaymentGateway)
    ctx := context.Background()

    _, err := f.eng.Accept(ctx, b.ID, pro(200))
    require.NoError(t, err)
    _, err = f.eng.Start(ctx, b.ID, pro(200))
    require.NoError(t, err)

    _, err = f.eng.Complete(ctx, b.ID, pro(200), b.VerificationCode)
    assert.ErrorIs(t, err, ErrVerificationRequired)

    err = f.eng.VerifyPayment(ctx, b.ID, customer(), "pay_123", "sig",
        func(orderRef, paymentRef, signature string) bool { return true })
    require.NoError(t, err)

    done, err := f.eng.Complete(ctx, b.ID, pro(200), b.VerificationCode)
    require.NoError(t, err)
    assert.Equal(t, model.StatusCompleted, done.Status)
    assert.Equal(t, model.CommissionCollected, f.store.settlements[b.ID].CommissionStatus)
}

func TestVerifyPaymentBadSignature(t *testing.T) {
    f := newFixture(t)
    b := f.create(t, model.PaymentGateway)

    err := f.eng.VerifyPayment(context.Background(), b.ID, customer(), "pay_123", "sig",
        func(orderRef, paymentRef, signature string) bool { return false })
    assert.ErrorIs(t, err, ErrVerificationFailed)

    got, _ := f.store.GetByID(context.Background(), b.ID)
    assert.Nil(t, got.PaymentRef)
}

func TestCancelGuardTable(t *testing.T) {
    ctx := context.Background()

    t.Run("customer cancels own pending", func(t *testing.T) {
        f := newFixture(t)
        b := f.create(t, model.PaymentCash)
        got, err := f.eng.Cancel(ctx, b.ID, customer(), "plans changed")
        require.NoError(t, err)
        assert.Equal(t, model.StatusCancelled, got.Status)
        require.NotNil(t, got.Cancellation)
        assert.Equal(t, "plans changed", got.Cancellation.Reason)
    })

    t.Run("stranger cannot cancel", func(t *testing.T) {
        f := newFixture(t)
        b := f.create(t, model.PaymentCash)
        _, err := f.eng.Cancel(ctx, b.ID, Actor{ID: 999, Role: model.RoleCustomer}, "")
        assert.ErrorIs(t, err, ErrInvalidTransition)
    })

    t.Run("assigned professional cancels accepted", func(t *testing.T) {
        f := newFixture(t, 200)
        b := f.create(t, model.PaymentCash)
        _, err := f.eng.Accept(ctx, b.ID, pro(200))
        require.NoError(t, err)
        _, err = f.eng.Cancel(ctx, b.ID, pro(200), "vehicle broke down")
        require.NoError(t, err)
        // Cancelling re-opens the professional.
        assert.True(t, f.dir.availability[200])
    })

    t.Run("professional cannot cancel in progress", func(t *testing.T) {
        f := newFixture(t, 200)
        b := f.create(t, model.PaymentCash)
        _, err := f.eng.Accept(ctx, b.ID, pro(200))
        require.NoError(t, err)
        _, err = f.eng.Start(ctx, b.ID, pro(200))
        require.NoError(t, err)
        _, err = f.eng.Cancel(ctx, b.ID, pro(200), "")
        assert.ErrorIs(t, err, ErrInvalidTransition)
        _, err = f.eng.Cancel(ctx, b.ID, customer(), "")
        assert.ErrorIs(t, err, ErrInvalidTransition)

        _, err = f.eng.Cancel(ctx, b.ID, admin(), "dispute")
        assert.NoError(t, err)
    })

    t.Run("completed cannot be cancelled by anyone", func(t *testing.T) {
        f := newFixture(t, 200)
        b := f.create(t, model.PaymentCash)
        completeFlow(t, f, b, 200)
        for _, a := range []Actor{customer(), pro(200), admin()} {
            _, err := f.eng.Cancel(ctx, b.ID, a, "")
            assert.ErrorIs(t, err, ErrInvalidTransition)
        }
    })
}

func TestReschedule(t *testing.T) {
    f := newFixture(t)
    b := f.create(t, model.PaymentCash)
    ctx := context.Background()

    newTime := b.ScheduledAt.Add(24 * time.Hour)
    got, err := f.eng.Reschedule(ctx, b.ID, customer(), newTime, "guest visit")
    require.NoError(t, err)
    assert.True(t, got.ScheduledAt.Equal(newTime))

    entries := f.store.history[b.ID]
    require.Len(t, entries, 1)
    assert.True(t, entries[0].OldTime.Equal(b.ScheduledAt))
    assert.True(t, entries[0].NewTime.Equal(newTime))
    assert.Equal(t, "guest visit", entries[0].Reason)

    _, err = f.eng.Reschedule(ctx, b.ID, customer(), time.Now().Add(-time.Hour), "")
    assert.ErrorIs(t, err, ErrValidation)

    _, err = f.eng.Reschedule(ctx, b.ID, Actor{ID: 999, Role: model.RoleCustomer}, newTime.Add(time.Hour), "")
    assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestAddChargeGuards(t *testing.T) {
    f := newFixture(t, 200)
    b := f.create(t, model.PaymentCash)
    ctx := context.Background()

    _, err := f.eng.AddCharge(ctx, b.ID, pro(200), "extra material", 0)
    assert.ErrorIs(t, err, ErrValidation)

    // Not assigned yet.
    _, err = f.eng.AddCharge(ctx, b.ID, pro(200), "extra material", 5000)
    assert.ErrorIs(t, err, ErrInvalidTransition)

    completeFlow(t,f, b, 200)
    _, err = f.eng.AddCharge(ctx, b.ID, pro(200), "late fee", 5000)
    assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestRate(t *testing.T) {
    f := newFixture(t, 200)
    b := f.create(t, model.PaymentCash)
    ctx := context.Background()

    err := f.eng.Rate(ctx, b.ID, customer(), 6)
    assert.ErrorIs(t, err, ErrValidation)

    err = f.eng.Rate(ctx, b.ID, customer(), 5)
    assert.ErrorIs(t, err, ErrInvalidTransition)

    completeFlow(t, f, b, 200)

    err = f.eng.Rate(ctx, b.ID, pro(200), 5)
    assert.ErrorIs(t, err, ErrInvalidTransition)

    require.NoError(t, f.eng.Rate(ctx, b.ID, customer(), 5))
    err = f.eng.Rate(ctx, b.ID, customer(), 4)
    assert.ErrorIs(t, err, ErrAlreadyRated)
}

func TestSettlementIdempotency(t *testing.T) {
    f := newFixture(t, 200)
    b := f.create(t, model.PaymentCash)
    ctx := context.Background()

    _, err := f.eng.Accept(ctx, b.ID, pro(200))
    require.NoError(t, err)
    _, err = f.eng.Start(ctx, b.ID, pro(200))
    require.NoError(t, err)

    // Settlement row already committed by a racing request.
    f.store.mu.Lock()
    f.store.settlements[b.ID] = &model.Settlement{BookingID: b.ID}
    f.store.mu.Unlock()

    _, err = f.eng.Complete(ctx, b.ID, pro(200), b.VerificationCode)
    assert.ErrorIs(t, err, ErrSettlementConflict)
}

func TestPreview(t *testing.T) {
    f := newFixture(t, 200)
    b := f.create(t, model.PaymentCash)
    ctx := context.Background()

    _, err := f.eng.Accept(ctx, b.ID, pro(200))
    require.NoError(t, err)
    _, err = f.eng.AddCharge(ctx, b.ID, pro(200), "extra material", 30000)
    require.NoError(t, err)

    bd, err := f.eng.Preview(ctx, b.ID, customer())
    require.NoError(t, err)
    assert.Equal(t, int64(150000), bd.TotalPaise)
    assert.Equal(t, int64(22500), bd.CommissionPaise)
    assert.Equal(t, int64(127500), bd.PayoutPaise)

    _, err = f.eng.Preview(ctx, b.ID, Actor{ID: 999, Role: model.RoleCustomer})
    assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUnknownBooking(t *testing.T) {
    f := newFixture(t, 200)
    _, err := f.eng.Accept(context.Background(), 12345, pro(200))
    assert.True(t, errors.Is(err, repository.ErrBookingNotFound))
}
