package helpers

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// JWTManager signs and verifies session tokens.
type JWTManager struct {
	Secret []byte
	TTL    time.Duration
	now    func() time.Time
}

func NewJWTManager(secret string, ttl time.Duration) *JWTManager {
	return &JWTManager{Secret: []byte(secret), TTL: ttl, now: time.Now}
}

type Claims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// GenerateToken returns a signed token for userID and its expiry.
func (m *JWTManager) GenerateToken(userID string) (string, time.Time, error) {
	now := m.now()
	exp := now.Add(m.TTL)
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			// Two logins within the same second must still yield distinct tokens.
			ID: uuid.NewString(),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(m.Secret)
	return s, exp, err
}

// ParseToken verifies signature and expiry and returns the claims.
func (m *JWTManager) ParseToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.Secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !tkn.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.UserID == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}
