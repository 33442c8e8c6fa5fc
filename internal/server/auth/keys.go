// Package auth issues and verifies API keys: HS256 JWTs carrying a role
// claim, in the style of a hosted database's anon and service keys.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/geodash/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the registered claim set plus the key's role.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// ValidRole reports whether role may call the API.
func ValidRole(role string) bool {
	return role == common.RoleAnon || role == common.RoleService
}

// GenerateKey signs a key for role. A zero validity yields a key that
// never expires.
func GenerateKey(role string, secretKey []byte, validity time.Duration) (string, error) {
	if !ValidRole(role) {
		return "", fmt.Errorf("unknown role %q", role)
	}

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   "geodash",
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
		Role: role,
	}
	if validity != 0 {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(validity))
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseKey verifies tokenString and returns its role. Expired keys yield
// common.ErrTokenExpired, every other problem common.ErrInvalidToken.
func ParseKey(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrInvalidToken
	}

	if !token.Valid || !ValidRole(claims.Role) {
		return "", common.ErrInvalidToken
	}

	return claims.Role, nil
}
