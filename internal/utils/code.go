package utils

import (
    "crypto/rand"
    "crypto/subtle"
    "fmt"
    "math/big"
)

// NewVerificationCode returns a six digit, zero padded numeric code.  The
// code is generated from crypto/rand, shared with the customer at booking
// creation, and required from the professional to complete the service.
func NewVerificationCode() (string, error) {
    n, err := rand.Int(rand.Reader, big.NewInt(1000000))
    if err != nil {
        return "", err
    }
    return fmt.Sprintf("%06d", n.Int64()), nil
}

// CodeEqual compares two verification codes in constant time so the check
// does not leak how many leading characters matched.
func CodeEqual(a, b string) bool {
    if len(a) != len(b) {
        return false
    }
    return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
