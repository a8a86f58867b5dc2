package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Role identifies the principal type carried by a token.
type Role string

const (
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

// Claims is the token payload for both principal types.
type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	Role   Role      `json:"role"`
	Email  string    `json:"email,omitempty"`
	jwt.RegisteredClaims
}

type JWTService interface {
	GenerateAccessToken(userID uuid.UUID, role Role, email string) (string, error)
	GenerateResetToken(userID uuid.UUID, role Role) (string, error)
	ValidateToken(token string) (*Claims, error)
	ValidateResetToken(token string) (*Claims, error)
}

type jwtService struct {
	secret      []byte
	resetSecret []byte
	expiry      time.Duration
	resetExpiry time.Duration
}

func NewJWTService(secret, resetSecret string, expiry, resetExpiry time.Duration) JWTService {
	return &jwtService{
		secret:      []byte(secret),
		resetSecret: []byte(resetSecret),
		expiry:      expiry,
		resetExpiry: resetExpiry,
	}
}

func (s *jwtService) GenerateAccessToken(userID uuid.UUID, role Role, email string) (string, error) {
	return s.sign(userID, role, email, s.secret, s.expiry)
}

// GenerateResetToken issues a short-lived token for password resets. The
// reset state lives entirely in the token, never in server-side globals.
func (s *jwtService) GenerateResetToken(userID uuid.UUID, role Role) (string, error) {
	return s.sign(userID, role, "", s.resetSecret, s.resetExpiry)
}

func (s *jwtService) ValidateToken(token string) (*Claims, error) {
	return s.parse(token, s.secret)
}

func (s *jwtService) ValidateResetToken(token string) (*Claims, error) {
	return s.parse(token, s.resetSecret)
}

func (s *jwtService) sign(userID uuid.UUID, role Role, email string, secret []byte, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		Role:   role,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *jwtService) parse(tokenStr string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}
