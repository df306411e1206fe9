// Package auth issues and verifies the server's signed tokens: operator
// tokens for the diagnostics endpoint and per-download handshake tokens.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/socialnet/internal/common"
	"github.com/dmitrijs2005/socialnet/internal/cryptox"
	"github.com/golang-jwt/jwt/v5"
)

const operatorKeyInfo = "operator"

// OperatorKey derives the key operator tokens are signed with. Server and
// operator tooling derive it from the same shared secret.
func OperatorKey(secret []byte) ([]byte, error) {
	key, err := cryptox.DeriveKey(secret, operatorKeyInfo, 32)
	if err != nil {
		return nil, fmt.Errorf("derive operator key: %w", err)
	}
	return key, nil
}

// Claims is the operator token payload.
type Claims struct {
	jwt.RegisteredClaims
	UserID string
}

func GenerateToken(userID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		UserID: userID,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func GetUserIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", mapJWTError(err)
	}

	if !token.Valid {
		return "", common.ErrInvalidToken
	}

	return claims.UserID, nil
}

func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return common.ErrTokenExpired
	}
	return errors.Join(common.ErrInvalidToken, err)
}
