package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const CtxClaimsKey = "auth_claims"

// TokenVersionSource reports the current token version of a user. Tokens
// signed with an older version are rejected.
type TokenVersionSource interface {
	GetTokenVersion(ctx context.Context, id string) (int, error)
}

// AuthMiddleware rejects requests without a valid bearer token.
func AuthMiddleware(tokens TokenService, repo TokenVersionSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			c.Abort()
			return
		}

		claims, err := verify(c.Request.Context(), tokens, repo, raw)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set(CtxClaimsKey, claims)
		c.Next()
	}
}

// OptionalAuthMiddleware attaches claims when a valid bearer token is sent
// and lets every request through.
func OptionalAuthMiddleware(tokens TokenService, repo TokenVersionSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw, ok := bearerToken(c); ok {
			if claims, err := verify(c.Request.Context(), tokens, repo, raw); err == nil {
				c.Set(CtxClaimsKey, claims)
			}
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	h := c.GetHeader("Authorization")
	if h == "" || !strings.HasPrefix(strings.ToLower(h), "bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(h[len("Bearer "):])
	return raw, raw != ""
}

func verify(ctx context.Context, tokens TokenService, repo TokenVersionSource, raw string) (*Claims, error) {
	claims, err := tokens.Parse(raw)
	if err != nil {
		return nil, err
	}
	if repo != nil {
		currentVersion, err := repo.GetTokenVersion(ctx, claims.UserID)
		if err != nil {
			return nil, err
		}
		if currentVersion != claims.TokenVersion {
			return nil, errStaleToken
		}
	}
	return claims, nil
}

// MustGetClaims returns nil when the request carries no verified token.
func MustGetClaims(c *gin.Context) *Claims {
	v, ok := c.Get(CtxClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*Claims)
	return claims
}
