package domain

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gramwave/gramwave/internal/apierror"
)

// SignToken builds and signs an HS256 bearer token for a user. The subject
// claim carries the user's identifier; exp enforces the lifespan.
func SignToken(secret string, userID int64, lifespan time.Duration, now time.Time) (Token, error) {
	exp := now.UTC().Add(lifespan)
	claims := jwt.MapClaims{
		"sub": strconv.FormatInt(userID, 10),
		"exp": exp.Unix(),
		"iat": now.UTC().Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return Token{}, err
	}
	return Token{Token: signed, ExpiresAt: exp}, nil
}

// ParseToken verifies signature and expiry and returns the embedded user
// identifier. Failures come back already classified: ErrTokenExpired when
// only the expiry has elapsed, ErrInvalidToken for everything else.
func ParseToken(secret, raw string, now func() time.Time) (int64, error) {
	parsed, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithTimeFunc(now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, apierror.ErrTokenExpired.WithCause(err)
		}
		return 0, apierror.ErrInvalidToken.WithCause(err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return 0, apierror.ErrInvalidToken
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return 0, apierror.ErrInvalidToken
	}
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return 0, apierror.ErrInvalidToken.WithCause(err)
	}
	return id, nil
}
