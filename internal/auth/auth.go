// Package auth issues and verifies the JWT access tokens that protect the
// chat API. Tokens are minted against the admin API key and verified by
// the HTTP middleware.
package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

// CreateToken mints an HS256 access token valid for the given duration.
func CreateToken(secret string, expiry time.Duration) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("auth: signing secret is required")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"type": "access",
		"iat":  now.Unix(),
		"exp":  now.Add(expiry).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// VerifyToken parses and validates an access token.
func VerifyToken(secret, tokenString string) error {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return fmt.Errorf("auth: invalid token: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return fmt.Errorf("auth: invalid token")
	}
	if claims["type"] != "access" {
		return fmt.Errorf("auth: not an access token")
	}
	return nil
}

// Middleware returns a gin handler that rejects requests without a valid
// Bearer access token.
func Middleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(header, prefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		if err := VerifyToken(secret, strings.TrimPrefix(header, prefix)); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		c.Next()
	}
}
