package utils

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"os"
	"time"
)

var jwtKey = []byte(os.Getenv("JWT_SECRET"))

type Claims struct {
	AccountID      string `json:"account_id"`
	SessionVersion int    `json:"session_version"`
	jwt.RegisteredClaims
}

// CreateToken issues a session token bound to the account's current
// session version. Bumping the version on the account invalidates every
// token issued before the bump.
func CreateToken(accountID uuid.UUID, sessionVersion int) (string, error) {
	claims := &Claims{
		AccountID:      accountID.String(),
		SessionVersion: sessionVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour * 24)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtKey)
}

func ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return jwtKey, nil
	})

	if err != nil || !token.Valid {
		return nil, ErrUnauthenticated
	}

	return claims, nil
}
