package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Identity is the resolved caller of a request: who they are and what
// they may do.
type Identity struct {
	UserID uuid.UUID
	Role   string
}

func GenerateToken(secret string, userID uuid.UUID, role string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID.String(),
		"role":    role,
		"exp":     time.Now().Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseToken(secret, tokenStr string) (Identity, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return Identity{}, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, errors.New("invalid claims")
	}

	rawID, ok := claims["user_id"].(string)
	if !ok {
		return Identity{}, errors.New("invalid claims")
	}
	userID, err := uuid.Parse(rawID)
	if err != nil {
		return Identity{}, errors.New("invalid claims")
	}

	role, ok := claims["role"].(string)
	if !ok || role == "" {
		return Identity{}, errors.New("invalid claims")
	}

	return Identity{UserID: userID, Role: role}, nil
}
