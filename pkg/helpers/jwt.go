package helpers

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTManager issues and validates the service's bearer access tokens and
// verifies federated provider id tokens. Mobile clients hold one long-lived
// access token; there is no refresh flow.
type JWTManager struct {
	AccessSecret   []byte
	ProviderSecret []byte
	AccessTTL      time.Duration
}

var defaultManager *JWTManager

func NewJWTManager(accessSecret, providerSecret string, accessTTL time.Duration) *JWTManager {
	m := &JWTManager{
		AccessSecret:   []byte(accessSecret),
		ProviderSecret: []byte(providerSecret),
		AccessTTL:      accessTTL,
	}
	defaultManager = m
	return m
}

// DefaultJWT returns the last constructed JWTManager (used for auto-wiring routes)
func DefaultJWT() *JWTManager { return defaultManager }

type Claims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// ProviderClaims is the payload of a federated sign-in id token.
type ProviderClaims struct {
	Email     string `json:"email"`
	Name      string `json:"name"`
	AvatarURL string `json:"picture"`
	jwt.RegisteredClaims
}

func (m *JWTManager) GenerateAccessToken(userID string) (string, time.Time, error) {
	exp := time.Now().Add(m.AccessTTL)
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(m.AccessSecret)
	return s, exp, err
}

func (m *JWTManager) ParseAccessToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	if err := parseToken(tokenStr, m.AccessSecret, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func (m *JWTManager) ParseProviderToken(tokenStr string) (*ProviderClaims, error) {
	claims := &ProviderClaims{}
	if err := parseToken(tokenStr, m.ProviderSecret, claims); err != nil {
		return nil, err
	}
	if claims.Email == "" {
		return nil, errors.New("provider token missing email")
	}
	return claims, nil
}

func parseToken(tokenStr string, secret []byte, claims jwt.Claims) error {
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return err
	}
	if !tkn.Valid {
		return errors.New("invalid token")
	}
	return nil
}
