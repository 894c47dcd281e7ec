package models

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	dErrors "heirloom/pkg/domain-errors"
)

// User is the aggregate root for an account. Email is unique
// case-insensitively; PasswordHash is never serialized.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SignupRequest is the payload for POST /auth/signup.
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// Normalize trims and lowercases fields prior to validation.
func (r *SignupRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.FullName = strings.TrimSpace(r.FullName)
}

// EffectiveFullName returns the submitted full name, or a display name
// derived from the email local part when the field was omitted
// ("jane.doe@example.com" becomes "Jane Doe").
func (r *SignupRequest) EffectiveFullName() string {
	if r.FullName != "" {
		return r.FullName
	}
	local, _, _ := strings.Cut(r.Email, "@")
	words := strings.FieldsFunc(local, func(c rune) bool {
		return c == '.' || c == '_' || c == '-' || c == '+'
	})
	if len(words) == 0 {
		return "New User"
	}
	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

func (r *SignupRequest) Validate() error {
	if r.Email == "" || len(r.Email) > 255 || !strings.Contains(r.Email, "@") {
		return dErrors.New(dErrors.CodeValidation, "invalid email")
	}
	if len(r.Password) < 8 {
		return dErrors.New(dErrors.CodeValidation, "password must be at least 8 characters")
	}
	if len(r.FullName) > 255 {
		return dErrors.New(dErrors.CodeValidation, "full_name too long")
	}
	return nil
}

// LoginRequest is the payload for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

func (r *LoginRequest) Validate() error {
	if r.Email == "" || r.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "email and password are required")
	}
	return nil
}

// TokenResponse carries an issued access token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	User        *User  `json:"user"`
}
