package api

import (
	"fmt"
	"strings"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// Claims is the subset of the bearer token the client cares about.
type Claims struct {
	Subject   string
	ExpiresAt time.Time // zero when the token has no exp claim
}

// Expired reports whether the token is past its expiry at now.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// TokenClaims decodes token without verifying its signature. The backend
// remains the authority; this only lets the client fail fast on expiry.
func TokenClaims(token string) (Claims, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return Claims{}, fmt.Errorf("token is empty")
	}
	parser := gojwt.NewParser()
	parsed, _, err := parser.ParseUnverified(token, gojwt.MapClaims{})
	if err != nil {
		return Claims{}, fmt.Errorf("parse token: %w", err)
	}
	mc := parsed.Claims.(gojwt.MapClaims)

	var claims Claims
	if sub, ok := mc["sub"]; ok && sub != nil {
		// The backend issues numeric user ids as subjects.
		switch v := sub.(type) {
		case float64:
			claims.Subject = fmt.Sprintf("%.0f", v)
		default:
			claims.Subject = fmt.Sprint(v)
		}
	}
	exp, err := mc.GetExpirationTime()
	if err != nil {
		return Claims{}, fmt.Errorf("parse token exp: %w", err)
	}
	if exp != nil {
		claims.ExpiresAt = exp.Time
	}
	return claims, nil
}
