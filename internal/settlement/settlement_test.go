package settlement

import (
    "math/rand"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/home-service-booking/internal/model"
)

func TestQuoteKnownBreakdown(t *testing.T) {
    // 1200.00 service + 300.00 charge at 15%.
    b := Quote(120000, []int64{30000}, 1500)
    assert.Equal(t, int64(30000), b.AdditionalPaise)
    assert.Equal(t, int64(150000), b.TotalPaise)
    assert.Equal(t, int64(22500), b.CommissionPaise) // 225.00
    assert.Equal(t, int64(127500), b.PayoutPaise)    // 1275.00
}

func TestQuoteNoCharges(t *testing.T) {
    b := Quote(99900, nil, 1500)
    assert.Equal(t, int64(0), b.AdditionalPaise)
    assert.Equal(t, int64(99900), b.TotalPaise)
    assert.Equal(t, b.TotalPaise, b.CommissionPaise+b.PayoutPaise)
}

func TestQuoteHalfUpRounding(t *testing.T) {
    // 0.03 at 15% is 0.0045: exactly half a paise rounds up.
    b := Quote(3, nil, 1500)
    assert.Equal(t, int64(1), b.CommissionPaise)
    assert.Equal(t, int64(2), b.PayoutPaise)
}

func TestQuoteSplitAlwaysSumsToTotal(t *testing.T) {
    rng := rand.New(rand.NewSource(42))
    for i := 0; i < 100; i++ {
        service := rng.Int63n(5000000)
        charges := make([]int64, rng.Intn(5))
        for j := range charges {
            charges[j] = rng.Int63n(100000)
        }
        b := Quote(service, charges, 1500)
        require.Equal(t, b.TotalPaise, b.CommissionPaise+b.PayoutPaise,
            "sample %d: commission %d + payout %d must equal total %d",
            i, b.CommissionPaise, b.PayoutPaise, b.TotalPaise)
    }
}

func TestQuoteDefaultsRate(t *testing.T) {
    assert.Equal(t, Quote(100000, nil, DefaultRateBps), Quote(100000, nil, 0))
}

func TestBuildGatewayRequiresVerifiedPayment(t *testing.T) {
    _, err := Build(1, 2, model.PaymentGateway, 150000, 1500, nil, time.Now())
    assert.ErrorIs(t, err, ErrVerificationRequired)

    empty := ""
    _, err = Build(1, 2, model.PaymentGateway, 150000, 1500, &empty, time.Now())
    assert.ErrorIs(t, err, ErrVerificationRequired)

    ref := "pay_123"
    s, err := Build(1, 2, model.PaymentGateway, 150000, 1500, &ref, time.Now())
    require.NoError(t, err)
    assert.Equal(t, model.CommissionCollected, s.CommissionStatus)
    assert.Nil(t, s.CommissionDueAt)
    require.NotNil(t, s.PaymentRef)
    assert.Equal(t, "pay_123", *s.PaymentRef)
}

func TestBuildOutOfBandMethodsGoPending(t *testing.T) {
    now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
    for _, method := range []string{model.PaymentUPIDirect, model.PaymentCash} {
        s, err := Build(7, 9, method, 150000, 1500, nil, now)
        require.NoError(t, err)
        assert.Equal(t, model.CommissionPending, s.CommissionStatus)
        require.NotNil(t, s.CommissionDueAt)
        assert.Equal(t, now.Add(7*24*time.Hour), *s.CommissionDueAt)
        assert.Equal(t, int64(22500), s.CommissionPaise)
        assert.Equal(t, int64(127500), s.PayoutPaise)
    }
}

func TestBuildRejectsUnknownMethod(t *testing.T) {
    _, err := Build(1, 2, "CHEQUE", 1000, 1500, nil, time.Now())
    assert.ErrorIs(t, err, ErrUnknownMethod)
}
