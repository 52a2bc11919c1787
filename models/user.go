package models

import "time"

// User represents a registered account
// @Description User account information
type User struct {
	Email     string    `json:"email" example:"user@example.com"`
	Name      string    `json:"name,omitempty" example:"Jane Doe"`
	Password  string    `json:"-"`                        // bcrypt hash, never sent to client
	Provider  string    `json:"provider" example:"email"` // "email" or "google"
	GoogleID  string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

// RegisterRequest represents registration request
// @Description User registration request
type RegisterRequest struct {
	Email           string `json:"email" binding:"required,email" example:"user@example.com"`
	Password        string `json:"password" binding:"required,min=6" example:"password123"`
	ConfirmPassword string `json:"confirmPassword" binding:"required" example:"password123"`
	Name            string `json:"name,omitempty" example:"Jane Doe"`
}

// LoginRequest represents login request
// @Description User login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"user@example.com"`
	Password string `json:"password" binding:"required" example:"password123"`
}

// GoogleAuthRequest represents Google SSO authentication request
// @Description Google SSO authentication request
type GoogleAuthRequest struct {
	IDToken string `json:"idToken" binding:"required" example:"eyJhbGciOiJSUzI1NiIsInR5cCI6IkpXVCJ9..."`
}

// AuthResponse represents authentication response
// @Description Authentication response with JWT token
type AuthResponse struct {
	Token   string `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	User    *User  `json:"user"`
	Message string `json:"message,omitempty" example:"Login successful"`
}
