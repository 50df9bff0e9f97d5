package middleware

// identity.go provides the identity lookup shared across middleware
// files.  The rate limiter keys buckets per user where possible and
// falls back to "anon" for unauthenticated requests.

import (
    "strconv"

    "github.com/labstack/echo/v4"
)

// currentUserID returns the authenticated user's ID as a string for use
// in rate-limit keys.  JWTAuth stores the raw "sub" claim, which decodes
// as float64 for numeric subjects, so both representations are handled.
func currentUserID(c echo.Context) string {
    switch v := c.Get("user_id").(type) {
    case string:
        if v != "" {
            return v
        }
    case float64:
        return strconv.FormatUint(uint64(v), 10)
    case uint64:
        return strconv.FormatUint(v, 10)
    case int64:
        return strconv.FormatInt(v, 10)
    }
    return "anon"
}
