package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	errStaleToken   = errors.New("token revoked")
)

// TokenService signs and verifies HS256 bearer tokens. A token carries the
// user's token version so a logout or password change revokes it.
type TokenService struct {
	Secret   []byte
	Issuer   string
	Duration time.Duration
}

type Claims struct {
	UserID       string `json:"user_id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	TokenVersion int    `json:"token_version"`
	jwt.RegisteredClaims
}

func (ts TokenService) claimsFor(u *User, now time.Time) Claims {
	return Claims{
		UserID:       u.ID,
		Username:     u.Username,
		Email:        u.Email,
		TokenVersion: u.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.Issuer,
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.Duration)),
		},
	}
}

// Sign returns a signed token for u and the moment it expires.
func (ts TokenService) Sign(u *User) (string, time.Time, error) {
	claims := ts.claimsFor(u, time.Now())

	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ts.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token for %s: %w", u.ID, err)
	}
	return s, claims.ExpiresAt.Time, nil
}

func (ts TokenService) parser() *jwt.Parser {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	}
	if ts.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(ts.Issuer))
	}
	return jwt.NewParser(opts...)
}

// Parse verifies signature, algorithm, issuer and expiry. Every failure
// wraps ErrInvalidToken.
func (ts TokenService) Parse(raw string) (*Claims, error) {
	claims := &Claims{}
	tok, err := ts.parser().ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return ts.Secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !tok.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
