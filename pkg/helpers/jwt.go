package helpers

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/shopsphere/accounts/internal/domain/entity"
)

// JWTManager mints and validates signed session tokens. Signature and expiry
// are the sole basis for trust; no server-side session state is kept.
type JWTManager struct {
	Secret      []byte
	LoginTTL    time.Duration
	RegisterTTL time.Duration
}

func NewJWTManager(secret string, loginTTL, registerTTL time.Duration) *JWTManager {
	return &JWTManager{
		Secret:      []byte(secret),
		LoginTTL:    loginTTL,
		RegisterTTL: registerTTL,
	}
}

// SessionClaims carries the account projection embedded in session tokens.
type SessionClaims struct {
	Email    string      `json:"email"`
	UserID   string      `json:"id"`
	Role     entity.Role `json:"role"`
	IsActive bool        `json:"isActive"`
	Name     string      `json:"name"`
	jwt.RegisteredClaims
}

func (m *JWTManager) generate(a *entity.Account, ttl time.Duration) (string, time.Time, error) {
	exp := time.Now().Add(ttl)
	claims := &SessionClaims{
		Email:    a.Email,
		UserID:   a.ID,
		Role:     a.Role,
		IsActive: a.IsActive,
		Name:     a.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(m.Secret)
	return s, exp, err
}

// GenerateSessionToken issues a standard login session token.
func (m *JWTManager) GenerateSessionToken(a *entity.Account) (string, time.Time, error) {
	return m.generate(a, m.LoginTTL)
}

// GenerateRegistrationToken issues the longer-lived token handed out by the
// register-and-issue fast path.
func (m *JWTManager) GenerateRegistrationToken(a *entity.Account) (string, time.Time, error) {
	return m.generate(a, m.RegisterTTL)
}

func (m *JWTManager) ParseSessionToken(tokenStr string) (*SessionClaims, error) {
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
