package jwt

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoExpiry is returned when a token carries no exp claim.
var ErrNoExpiry = errors.New("token has no expiry")

// Inspection is what a client can learn from a token it cannot verify.
type Inspection struct {
	Subject   string
	UserID    string
	SessionID string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// Inspect decodes raw without verifying its signature.
//
// The result must only drive client-side scheduling decisions, never
// authorization.
func Inspect(raw string) (Inspection, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Inspection{}, jwt.ErrTokenMalformed
	}
	claims := &AccessClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return Inspection{}, err
	}
	out := Inspection{
		Subject:   claims.Subject,
		UserID:    claims.UID,
		SessionID: claims.SID,
	}
	if out.UserID == "" {
		out.UserID = claims.Subject
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt == nil {
		return out, ErrNoExpiry
	}
	out.ExpiresAt = claims.ExpiresAt.Time
	return out, nil
}

// ExpiresIn returns the time left on raw at now. Tokens already expired
// yield zero.
func ExpiresIn(raw string, now time.Time) (time.Duration, error) {
	info, err := Inspect(raw)
	if err != nil {
		return 0, err
	}
	left := info.ExpiresAt.Sub(now)
	if left < 0 {
		return 0, nil
	}
	return left, nil
}
