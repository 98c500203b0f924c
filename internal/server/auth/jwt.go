// Package auth issues and verifies the HS256 session tokens used by the
// HTTP API.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/openfield/expensesync/internal/common"
)

// Claims carries the registered claims plus the user identity and the admin
// marker checked by the analytics endpoint.
type Claims struct {
	jwt.RegisteredClaims
	UserID  string `json:"uid"`
	IsAdmin bool   `json:"adm"`
}

func GenerateToken(userID string, isAdmin bool, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		UserID:  userID,
		IsAdmin: isAdmin,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies the signature and expiry and returns the claims.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrInvalidKeyType
		}
		return secretKey, nil
	})
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
