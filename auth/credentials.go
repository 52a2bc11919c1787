package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/unicode/norm"

	"github.com/jobpilot/backend/models"
	"github.com/jobpilot/backend/storage"
)

const (
	usersNamespace   = "users"
	sessionNamespace = "current_session"

	ProviderEmail  = "email"
	ProviderGoogle = "google"
)

var (
	// ErrEmailTaken is returned when registering an email that already has an account
	ErrEmailTaken = errors.New("user with this email already exists")
	// ErrInvalidCredentials is returned for an unknown email or a wrong password
	ErrInvalidCredentials = errors.New("invalid email or password")
)

type userRecord struct {
	Email        string    `json:"email"`
	Name         string    `json:"name,omitempty"`
	PasswordHash string    `json:"passwordHash,omitempty"`
	Provider     string    `json:"provider"`
	GoogleID     string    `json:"googleId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (r *userRecord) toUser() *models.User {
	return &models.User{
		Email:     r.Email,
		Name:      r.Name,
		Password:  r.PasswordHash,
		Provider:  r.Provider,
		GoogleID:  r.GoogleID,
		CreatedAt: r.CreatedAt,
	}
}

// CredentialStore keeps accounts and the current workflow session of each
// user in a key-value repository keyed by normalized email.
type CredentialStore struct {
	kv storage.KV
}

// NewCredentialStore creates a credential store over kv
func NewCredentialStore(kv storage.KV) *CredentialStore {
	return &CredentialStore{kv: kv}
}

// NormalizeEmail is the key under which an account is stored
func NormalizeEmail(email string) string {
	return norm.NFKC.String(strings.ToLower(strings.TrimSpace(email)))
}

// Register creates an email/password account
func (s *CredentialStore) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	if req.Password != req.ConfirmPassword {
		return nil, fmt.Errorf("%w: passwords do not match", models.ErrInvalidInput)
	}
	email := NormalizeEmail(req.Email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", models.ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	rec := &userRecord{
		Email:        email,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: string(hash),
		Provider:     ProviderEmail,
		CreatedAt:    time.Now().UTC(),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	if err := s.kv.Create(ctx, usersNamespace, email, data); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return rec.toUser(), nil
}

// Authenticate checks an email/password pair
func (s *CredentialStore) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	rec, err := s.get(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if rec.PasswordHash == "" {
		// account created through Google sign-in
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return rec.toUser(), nil
}

// UpsertGoogleUser returns the account of a Google user, creating or linking it
func (s *CredentialStore) UpsertGoogleUser(ctx context.Context, info *GoogleUserInfo) (*models.User, error) {
	email := NormalizeEmail(info.Email)
	rec, err := s.get(ctx, email)
	switch {
	case err == nil:
		if rec.GoogleID == info.GoogleID {
			return rec.toUser(), nil
		}
		rec.GoogleID = info.GoogleID
		if rec.Name == "" {
			rec.Name = info.Name
		}
	case errors.Is(err, models.ErrNotFound):
		rec = &userRecord{
			Email:     email,
			Name:      info.Name,
			Provider:  ProviderGoogle,
			GoogleID:  info.GoogleID,
			CreatedAt: time.Now().UTC(),
		}
	default:
		return nil, err
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	if err := s.kv.Put(ctx, usersNamespace, email, data); err != nil {
		return nil, fmt.Errorf("failed to save user: %w", err)
	}
	return rec.toUser(), nil
}

// GetUser returns the account stored for email
func (s *CredentialStore) GetUser(ctx context.Context, email string) (*models.User, error) {
	rec, err := s.get(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	return rec.toUser(), nil
}

func (s *CredentialStore) get(ctx context.Context, email string) (*userRecord, error) {
	data, err := s.kv.Get(ctx, usersNamespace, email)
	if err != nil {
		return nil, err
	}
	var rec userRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse user data: %w", err)
	}
	return &rec, nil
}

// SetCurrentSession records the workflow session a user is working in
func (s *CredentialStore) SetCurrentSession(ctx context.Context, email, sessionID string) error {
	return s.kv.Put(ctx, sessionNamespace, NormalizeEmail(email), []byte(sessionID))
}

// CurrentSession returns the workflow session recorded for a user
func (s *CredentialStore) CurrentSession(ctx context.Context, email string) (string, error) {
	data, err := s.kv.Get(ctx, sessionNamespace, NormalizeEmail(email))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ClearCurrentSession forgets the recorded workflow session
func (s *CredentialStore) ClearCurrentSession(ctx context.Context, email string) error {
	return s.kv.Delete(ctx, sessionNamespace, NormalizeEmail(email))
}
