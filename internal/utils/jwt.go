package utils

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenExpired is returned by CheckTokenExpiry when the bearer token's exp
// claim is in the past. Callers treat this as an authentication failure and
// must not retry the operation.
var ErrTokenExpired = errors.New("session token is expired")

// CheckTokenExpiry inspects a bearer token without verifying its signature
// (the engine consumes tokens, it does not own the signing key) and reports
// whether the token can still be presented to the backend.
//
// Returns ErrTokenExpired when the exp claim has passed, or a parse error for
// tokens that are not JWTs at all. Tokens without an exp claim are accepted;
// the backend remains the authority on their validity.
func CheckTokenExpiry(tokenString string, now time.Time) error {
	token, _, err := jwt.NewParser().ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return err
	}

	exp, err := token.Claims.GetExpirationTime()
	if err != nil {
		return err
	}
	if exp == nil {
		return nil
	}

	if now.After(exp.Time) {
		return ErrTokenExpired
	}
	return nil
}

// ParseBearerToken extracts the token part of an "Authorization: Bearer x"
// header value.
func ParseBearerToken(authorizationHeader string) (string, error) {
	parts := strings.Split(strings.TrimSpace(authorizationHeader), " ")
	if len(parts) != 2 || parts[1] == "" {
		return "", errors.New("invalid authorization header")
	}
	return parts[1], nil
}
