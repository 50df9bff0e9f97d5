// Package handler defines the HTTP handlers for the booking API.  All
// handlers assume JWT authentication and role checks ran in middleware,
// bind small request DTOs, call into the engine or repository layer and
// translate sentinel errors to HTTP statuses.
package handler

import (
    "errors"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/home-service-booking/internal/lifecycle"
    "github.com/iliyamo/home-service-booking/internal/matching"
    "github.com/iliyamo/home-service-booking/internal/repository"
    "github.com/iliyamo/home-service-booking/internal/tracking"
)

// getUserID extracts the user_id placed in the context by the JWT
// middleware and converts it to uint64.
func getUserID(c echo.Context) (uint64, error) {
    v := c.Get("user_id")
    switch t := v.(type) {
    case uint64:
        return t, nil
    case int:
        return uint64(t), nil
    case int64:
        return uint64(t), nil
    case float64:
        return uint64(t), nil
    case string:
        if n, err := strconv.ParseUint(t, 10, 64); err == nil {
            return n, nil
        }
    }
    return 0, errors.New("invalid user_id in context")
}

// getRole returns the role claim stored by the JWT middleware.
func getRole(c echo.Context) string {
    if r, ok := c.Get("role").(string); ok {
        return r
    }
    return ""
}

// actor builds the identity the engines guard against.  Handlers return
// 401 when the context carries no usable user ID.
func actor(c echo.Context) (lifecycle.Actor, error) {
    id, err := getUserID(c)
    if err != nil {
        return lifecycle.Actor{}, err
    }
    return lifecycle.Actor{ID: id, Role: getRole(c)}, nil
}

// pathID parses the numeric :id path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    if err != nil || id == 0 {
        return 0, errors.New("invalid id")
    }
    return id, nil
}

// engineError maps sentinel errors from the engines and repositories to
// the API's error contract.  Every body is {"error": <stable code>} with
// an optional human detail.
func engineError(c echo.Context, err error) error {
    switch {
    case errors.Is(err, repository.ErrBookingNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
    case errors.Is(err, repository.ErrServiceNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
    case errors.Is(err, repository.ErrProfessionalNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "professional not found"})
    case errors.Is(err, repository.ErrSettlementNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "settlement not found"})
    case errors.Is(err, lifecycle.ErrAlreadyAccepted):
        return c.JSON(http.StatusConflict, echo.Map{"error": "already_accepted"})
    case errors.Is(err, lifecycle.ErrVerificationFailed):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "verification_failed"})
    case errors.Is(err, tracking.ErrNotTrackable):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "not_trackable", "detail": err.Error()})
    case errors.Is(err, lifecycle.ErrVerificationRequired):
        return c.JSON(http.StatusConflict, echo.Map{"error": "verification_required"})
    case errors.Is(err, lifecycle.ErrSettlementConflict):
        return c.JSON(http.StatusConflict, echo.Map{"error": "settlement_conflict"})
    case errors.Is(err, lifecycle.ErrInvalidTransition):
        return c.JSON(http.StatusConflict, echo.Map{"error": "invalid_transition", "detail": err.Error()})
    case errors.Is(err, lifecycle.ErrAlreadyRated):
        return c.JSON(http.StatusConflict, echo.Map{"error": "already_rated"})
    case errors.Is(err, lifecycle.ErrValidation),
        errors.Is(err, tracking.ErrValidation),
        errors.Is(err, matching.ErrValidation):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    case errors.Is(err, tracking.ErrStaleSample):
        return c.JSON(http.StatusConflict, echo.Map{"error": "stale_sample"})
    case errors.Is(err, repository.ErrForbidden):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    case errors.Is(err, repository.ErrConflict):
        return c.JSON(http.StatusConflict, echo.Map{"error": "conflict"})
    }
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
