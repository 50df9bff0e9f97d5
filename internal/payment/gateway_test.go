package payment

import (
    "crypto/hmac"
    "crypto/sha256"
    "encoding/hex"
    "testing"

    "github.com/stretchr/testify/assert"
)

func sign(secret, orderRef, paymentRef string) string {
    mac := hmac.New(sha256.New, []byte(secret))
    mac.Write([]byte(orderRef + "|" + paymentRef))
    return hex.EncodeToString(mac.Sum(nil))
}

func TestVerify(t *testing.T) {
    v := NewHMACVerifier("topsecret")
    sig := sign("topsecret", "order_abc", "pay_123")

    assert.True(t, v.Verify("order_abc", "pay_123", sig))
    // Any tampered component fails.
    assert.False(t, v.Verify("order_abc", "pay_124", sig))
    assert.False(t, v.Verify("order_abd", "pay_123", sig))
    assert.False(t, v.Verify("order_abc", "pay_123", sig[:len(sig)-1]+"0"))
    // Wrong secret fails.
    assert.False(t, NewHMACVerifier("other").Verify("order_abc", "pay_123", sig))
    assert.False(t, v.Verify("order_abc", "pay_123", ""))
}
