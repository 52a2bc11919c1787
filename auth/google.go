package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/api/idtoken"
	"google.golang.org/api/option"

	"github.com/jobpilot/backend/config"
	"github.com/jobpilot/backend/utils"
)

// ErrEmailNotVerified is returned for Google accounts whose email Google has not verified
var ErrEmailNotVerified = errors.New("google account email is not verified")

// GoogleUserInfo is what sign-in needs from a Google ID token
type GoogleUserInfo struct {
	GoogleID string
	Email    string
	Name     string
}

// GoogleAuthService verifies Google ID tokens issued for the configured client
type GoogleAuthService struct {
	clientID  string
	validator *idtoken.Validator
}

func NewGoogleAuthService(ctx context.Context, cfg *config.Config) (*GoogleAuthService, error) {
	if cfg.GoogleClientID == "" {
		return nil, errors.New("GOOGLE_CLIENT_ID is not set")
	}
	client := utils.NewHTTPClient(time.Duration(cfg.HTTPTimeoutSeconds) * time.Second)
	validator, err := idtoken.NewValidator(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create ID token validator: %w", err)
	}
	return &GoogleAuthService{clientID: cfg.GoogleClientID, validator: validator}, nil
}

// VerifyIDToken checks idToken against Google's keys and the client id
func (s *GoogleAuthService) VerifyIDToken(ctx context.Context, idToken string) (*GoogleUserInfo, error) {
	payload, err := s.validator.Validate(ctx, idToken, s.clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to verify ID token: %w", err)
	}
	return userInfoFromClaims(payload.Subject, payload.Claims)
}

func userInfoFromClaims(subject string, claims map[string]interface{}) (*GoogleUserInfo, error) {
	email, _ := claims["email"].(string)
	if email == "" {
		return nil, errors.New("email not found in token")
	}
	if verified, ok := claims["email_verified"].(bool); ok && !verified {
		return nil, ErrEmailNotVerified
	}
	name, _ := claims["name"].(string)
	return &GoogleUserInfo{GoogleID: subject, Email: NormalizeEmail(email), Name: name}, nil
}
