// Package session decodes the backend-issued bearer token and decides
// whether it still describes a live session.
//
// The token is a display credential only. Its signature is never checked
// here; the backend authorizes every API call on its own.
package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Reason string

const (
	ReasonNone      Reason = ""
	ReasonMissing   Reason = "missing"
	ReasonMalformed Reason = "malformed"
	ReasonExpired   Reason = "expired"
)

var (
	ErrSessionMissing   = errors.New("session token missing")
	ErrSessionMalformed = errors.New("session token malformed")
	ErrSessionExpired   = errors.New("session token expired")
)

type Result struct {
	Valid  bool
	Claims *Claims
	Reason Reason
}

// Err returns the sentinel error matching the failure reason, or nil.
func (r Result) Err() error {
	switch r.Reason {
	case ReasonMissing:
		return ErrSessionMissing
	case ReasonMalformed:
		return ErrSessionMalformed
	case ReasonExpired:
		return ErrSessionExpired
	default:
		return nil
	}
}

var parser = jwt.NewParser(jwt.WithPaddingAllowed())

// Validate decodes rawToken and checks its expiry against now. It performs
// no I/O and never mutates caller state.
func Validate(rawToken string, now time.Time) Result {
	if rawToken == "" {
		return Result{Reason: ReasonMissing}
	}

	claims, err := decode(rawToken)
	if err != nil {
		return Result{Reason: ReasonMalformed}
	}

	nowSeconds := float64(now.UnixNano()) / float64(time.Second)
	if claims.Exp <= nowSeconds {
		return Result{Claims: claims, Reason: ReasonExpired}
	}

	return Result{Valid: true, Claims: claims}
}

func decode(rawToken string) (*Claims, error) {
	claims := &Claims{}
	_, _, err := parser.ParseUnverified(rawToken, claims)
	// An unrecognised alg header still leaves a fully decoded payload.
	if err != nil && !errors.Is(err, jwt.ErrTokenUnverifiable) {
		return nil, err
	}
	claims.Plan = ParsePlan(string(claims.Plan))
	return claims, nil
}

// Guard binds Validate to a clock so callers don't pass time around.
type Guard struct {
	now func() time.Time
}

func NewGuard(now func() time.Time) *Guard {
	if now == nil {
		now = time.Now
	}
	return &Guard{now: now}
}

func (g *Guard) Validate(rawToken string) Result {
	return Validate(rawToken, g.now())
}
