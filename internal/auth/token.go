package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidPIN   = errors.New("invalid PIN")
	ErrInvalidToken = errors.New("invalid token")
)

// TokenIssuer mints short-lived owner tokens after a correct PIN.
type TokenIssuer struct {
	PIN    string
	Secret []byte
	TTL    time.Duration
}

func NewTokenIssuer(pin, secret string, ttl time.Duration) *TokenIssuer {
	if ttl == 0 {
		ttl = time.Hour
	}
	return &TokenIssuer{PIN: pin, Secret: []byte(secret), TTL: ttl}
}

// Issue checks the PIN and returns a signed owner token with its JTI.
func (t *TokenIssuer) Issue(pin string) (token, jti string, err error) {
	if t.PIN == "" || pin != t.PIN {
		return "", "", ErrInvalidPIN
	}

	jti = uuid.NewString()
	now := time.Now()
	claims := jwt.RegisteredClaims{
		ID:        jti,
		Subject:   "owner",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.TTL)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.Secret)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, jti, nil
}

// Verify parses and validates a token, returning its JTI.
func (t *TokenIssuer) Verify(rawToken string) (string, error) {
	parsed, err := jwt.ParseWithClaims(rawToken, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.Secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.ID == "" {
		return "", ErrInvalidToken
	}
	return claims.ID, nil
}
