package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RegisterRequest holds the sign-up payload. The plaintext password is hashed
// immediately and never retained.
type RegisterRequest struct {
	FirstName string  `json:"first_name" validate:"required,notblank"`
	LastName  string  `json:"last_name" validate:"required,notblank"`
	Email     string  `json:"email" validate:"required,email"`
	Mobile    string  `json:"mobile" validate:"required,mobile"`
	Password  string  `json:"password" validate:"required,min=6"`
	Role      Role    `json:"role" validate:"required,oneof=TEACHER STUDENT"`
	Grade     *string `json:"grade,omitempty"`
	ClassName *string `json:"class_name,omitempty"`
	IP        string  `json:"-"`
	UserAgent string  `json:"-"`
}

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResponse returns the issued tokens and user info.
type LoginResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
	User         UserInfo  `json:"user"`
	IssuedAt     time.Time `json:"issued_at"`
}

// RefreshTokenRequest exchanges a refresh token for a new access token.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
	IP           string `json:"-"`
	UserAgent    string `json:"-"`
}

// RefreshTokenResponse returns the refreshed tokens.
type RefreshTokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
	IssuedAt     time.Time `json:"issued_at"`
}

// ChangePasswordRequest payload for updating password.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

// UpdateProfileRequest overwrites the mutable fields of a user record.
type UpdateProfileRequest struct {
	FirstName string  `json:"first_name" validate:"required,notblank"`
	LastName  string  `json:"last_name" validate:"required,notblank"`
	Mobile    string  `json:"mobile" validate:"required,mobile"`
	Grade     *string `json:"grade,omitempty"`
	ClassName *string `json:"class_name,omitempty"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      Role   `json:"role"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID int64  `json:"user_id"`
	Role   Role   `json:"role"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}
