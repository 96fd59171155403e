package helpers

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTManager signs and validates session tokens
type JWTManager struct {
	Secret []byte
	TTL    time.Duration
}

func NewJWTManager(secret string, ttl time.Duration) *JWTManager {
	return &JWTManager{Secret: []byte(secret), TTL: ttl}
}

// SessionClaims carries the signed-in identity. Role and AccountType hold the
// same value; Role is the generic claim, AccountType the explicit one.
type SessionClaims struct {
	AccountID   string `json:"uid"`
	SessionID   string `json:"sid"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	AccountType string `json:"account_type"`
	GivenName   string `json:"given_name"`
	FamilyName  string `json:"family_name"`
	jwt.RegisteredClaims
}

// Generate signs claims with an expiry of now+TTL.
func (m *JWTManager) Generate(claims SessionClaims, now time.Time) (string, time.Time, error) {
	exp := now.Add(m.TTL)
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   claims.AccountID,
		ID:        claims.SessionID,
		ExpiresAt: jwt.NewNumericDate(exp),
		IssuedAt:  jwt.NewNumericDate(now),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims)
	s, err := t.SignedString(m.Secret)
	return s, exp, err
}

func (m *JWTManager) Parse(tokenStr string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.Secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !tkn.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
