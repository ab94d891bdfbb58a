package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer is the iss claim of tokens minted by JWTManager
const Issuer = "ffgraph"

// Claims are the JWT claims carried by API tokens
type Claims struct {
	UserID string `json:"uid"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// JWTManager mints and verifies HS256 tokens
type JWTManager struct {
	secret   []byte
	duration time.Duration
	now      func() time.Time
}

// NewJWTManager creates a manager whose tokens live for duration
func NewJWTManager(secret string, duration time.Duration) *JWTManager {
	return &JWTManager{
		secret:   []byte(secret),
		duration: duration,
		now:      time.Now,
	}
}

// Generate mints a token for a user
func (m *JWTManager) Generate(userID, email, role string) (string, error) {
	if userID == "" {
		return "", errors.New("user ID is required")
	}

	now := m.now()
	claims := &Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.duration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify parses a token and checks its signature, issuer and expiry
func (m *JWTManager) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if claims.UserID == "" {
		return nil, errors.New("invalid token: missing user ID")
	}
	return claims, nil
}

// Refresh verifies a token and mints a new one for the same user
func (m *JWTManager) Refresh(tokenString string) (string, error) {
	claims, err := m.Verify(tokenString)
	if err != nil {
		return "", err
	}
	return m.Generate(claims.UserID, claims.Email, claims.Role)
}
