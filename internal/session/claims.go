package session

import (
	"math"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Plan string

const (
	PlanUnset    Plan = ""
	PlanFreemium Plan = "freemium"
	PlanPremium  Plan = "premium"
	PlanPro      Plan = "pro"
	PlanAgency   Plan = "agency"
)

// ParsePlan maps unknown values to PlanUnset.
func ParsePlan(s string) Plan {
	switch p := Plan(s); p {
	case PlanFreemium, PlanPremium, PlanPro, PlanAgency:
		return p
	default:
		return PlanUnset
	}
}

// Claims is the identity payload the backend embeds in the session token.
// Exp stays a float so that sub-second expiry is compared exactly.
type Claims struct {
	ID             string  `json:"id,omitempty"`
	Sub            string  `json:"sub,omitempty"`
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	Plan           Plan    `json:"plan"`
	ProfilePicture string  `json:"profilePicture,omitempty"`
	Exp            float64 `json:"exp"`
}

// SubjectID prefers the backend's "id" claim over the registered "sub".
func (c *Claims) SubjectID() string {
	if c.ID != "" {
		return c.ID
	}
	return c.Sub
}

func (c *Claims) ExpiresAt() time.Time {
	sec, frac := math.Modf(c.Exp)
	return time.Unix(int64(sec), int64(frac*1e9))
}

// jwt.Claims implementation, used only for decoding.

func (c *Claims) GetExpirationTime() (*jwt.NumericDate, error) {
	return jwt.NewNumericDate(c.ExpiresAt()), nil
}

func (c *Claims) GetIssuedAt() (*jwt.NumericDate, error)  { return nil, nil }
func (c *Claims) GetNotBefore() (*jwt.NumericDate, error) { return nil, nil }
func (c *Claims) GetIssuer() (string, error)              { return "", nil }
func (c *Claims) GetSubject() (string, error)             { return c.SubjectID(), nil }
func (c *Claims) GetAudience() (jwt.ClaimStrings, error)  { return nil, nil }
