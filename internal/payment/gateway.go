// Package payment verifies gateway payment callbacks.  The gateway signs
// "orderRef|paymentRef" with a shared secret; the service recomputes the
// HMAC and compares in constant time.  Only the settlement path for the
// GATEWAY payment method consults this.
package payment

import (
    "crypto/hmac"
    "crypto/sha256"
    "encoding/hex"
)

// Verifier is the collaborator contract the lifecycle engine needs from
// the payment gateway.
type Verifier interface {
    Verify(orderRef, paymentRef, signature string) bool
}

// HMACVerifier verifies gateway signatures with a shared HMAC-SHA256
// secret, the scheme used by the hosted checkout.
type HMACVerifier struct {
    secret []byte
}

// NewHMACVerifier returns a verifier bound to the shared secret.
func NewHMACVerifier(secret string) *HMACVerifier {
    return &HMACVerifier{secret: []byte(secret)}
}

// Verify recomputes the signature over "orderRef|paymentRef" and compares
// it to the provided hex signature in constant time.
func (v *HMACVerifier) Verify(orderRef, paymentRef, signature string) bool {
    mac := hmac.New(sha256.New, v.secret)
    mac.Write([]byte(orderRef + "|" + paymentRef))
    expected := hex.EncodeToString(mac.Sum(nil))
    return hmac.Equal([]byte(expected), []byte(signature))
}
