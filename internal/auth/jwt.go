package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/stockmaster/stockmaster-backend/internal/config"
	"github.com/stockmaster/stockmaster-backend/internal/utils"
)

// JWT errors
var (
	ErrInvalidSigningMethod = errors.New("invalid signing method")
	ErrMissingSecret        = errors.New("jwt secret is not configured")
)

// AdminClaims represents the claims in an admin bearer token
type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTService issues and validates the bearer tokens of the support routes
type JWTService struct {
	Config *config.JWTSettings
}

// NewJWTService creates a new JWTService instance
func NewJWTService(cfg *config.JWTSettings) *JWTService {
	return &JWTService{Config: cfg}
}

// GenerateToken signs a token for subject with role, valid for expiry.
// Returns the token and its unique id.
func (s *JWTService) GenerateToken(subject, role string, expiry time.Duration) (string, string, error) {
	if s.Config.Secret == "" {
		return "", "", ErrMissingSecret
	}

	jwtID := uuid.New().String()
	now := time.Now()
	claims := AdminClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.Config.Issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			NotBefore: jwt.NewNumericDate(now),
			ID:        jwtID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.Config.Secret))
	if err != nil {
		return "", "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, jwtID, nil
}

// ValidateToken validates a bearer token and returns its claims if valid.
// With no secret configured every token is rejected.
func (s *JWTService) ValidateToken(tokenString string) (*AdminClaims, error) {
	if s.Config.Secret == "" {
		return nil, utils.NewInvalidTokenError()
	}

	token, err := jwt.ParseWithClaims(tokenString, &AdminClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSigningMethod
		}
		return []byte(s.Config.Secret), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, utils.NewExpiredTokenError()
		}
		return nil, utils.NewInvalidTokenError()
	}

	if !token.Valid {
		return nil, utils.NewInvalidTokenError()
	}

	claims, ok := token.Claims.(*AdminClaims)
	if !ok {
		return nil, utils.NewInvalidTokenError()
	}

	if !claims.VerifyIssuer(s.Config.Issuer, true) {
		return nil, utils.NewInvalidTokenError()
	}

	return claims, nil
}
