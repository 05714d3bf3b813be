package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RegisterRequest submits a registration. Teachers supply credentials,
// students must not.
type RegisterRequest struct {
	Name         string `json:"name" validate:"required,max=120"`
	Role         Role   `json:"role" validate:"required"`
	MobileNumber string `json:"mobile_number" validate:"required,max=32"`
	Username     string `json:"username,omitempty" validate:"omitempty,min=3,max=64"`
	Password     string `json:"password,omitempty" validate:"omitempty,min=6,max=72"`
}

// RegisterResponse is returned for both roles. Teachers receive a session,
// students a track id to poll with.
type RegisterResponse struct {
	TrackID      string     `json:"track_id"`
	Role         Role       `json:"role"`
	Username     string     `json:"username,omitempty"`
	MobileNumber string     `json:"mobile_number,omitempty"`
	Token        string     `json:"token,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

// LoginRequest holds credentials for authenticating an account.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the issued token and account details.
type LoginResponse struct {
	Token          string    `json:"token"`
	ExpiresAt      time.Time `json:"expires_at"`
	Role           Role      `json:"role"`
	Username       string    `json:"username"`
	RegistrationNo *string   `json:"registration_no"`
	Name           string    `json:"name"`
}

// ApproveRequest carries the registration number chosen by the approver.
type ApproveRequest struct {
	RegistrationNo string `json:"registration_no" validate:"required,alphanum,max=32"`
}

// ApproveResponse returns the generated username.
type ApproveResponse struct {
	Username string `json:"username"`
	Message  string `json:"message"`
}

// ApprovalStatusResponse is returned once a track id has been approved.
type ApprovalStatusResponse struct {
	Username   string    `json:"username"`
	IsApproved bool      `json:"is_approved"`
	Token      string    `json:"token"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// CreatePasswordRequest sets the first password of an account.
type CreatePasswordRequest struct {
	NewPassword string `json:"new_password" validate:"required,min=6,max=72"`
}

// ChangePasswordRequest replaces the current password. OldPassword may be
// empty only for accounts that never had one.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password" validate:"required,min=6,max=72"`
}

// JWTClaims represents the JWT payload of a session token.
type JWTClaims struct {
	AccountID string `json:"account_id"`
	Role      Role   `json:"role"`
	jwt.RegisteredClaims
}
