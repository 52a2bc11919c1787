package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jobpilot/backend/config"
	"github.com/jobpilot/backend/models"
)

const tokenIssuer = "jobpilot"

// Claims is the body of a session token. The subject is the account email.
type Claims struct {
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	Provider string `json:"provider"`
	jwt.RegisteredClaims
}

// JWTService issues and checks HS256 session tokens
type JWTService struct {
	secretKey []byte
	ttl       time.Duration
	parser    *jwt.Parser
}

func NewJWTService(cfg *config.Config) *JWTService {
	return &JWTService{
		secretKey: []byte(cfg.JWTSecret),
		ttl:       time.Duration(cfg.JWTExpiryHours) * time.Hour,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(30*time.Second),
		),
	}
}

// GenerateToken signs a token for user
func (s *JWTService) GenerateToken(user *models.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		Email:    user.Email,
		Name:     user.Name,
		Provider: user.Provider,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Email,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secretKey)
}

// ValidateToken checks the signature and expiry of tokenString
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	if _, err := s.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return s.secretKey, nil
	}); err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if claims.Email == "" {
		return nil, fmt.Errorf("invalid token: %w", jwt.ErrTokenInvalidClaims)
	}
	return claims, nil
}
