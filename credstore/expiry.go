package credstore

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenExpiry peeks at the unverified exp claim of a JWT access token.
// The client never validates tokens (the API does that); the expiry is used
// only for logging and diagnostics. Returns false for opaque or claimless
// tokens.
func AccessTokenExpiry(accessToken string) (time.Time, bool) {
	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(accessToken, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := token.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
