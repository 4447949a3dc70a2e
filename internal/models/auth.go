package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating an account. Accounts log
// in with their registration number, not their email.
type LoginRequest struct {
	RegistrationNumber string `json:"registration_number" validate:"required,len=8,numeric"`
	Password           string `json:"password" validate:"required,min=8"`
}

// LoginResponse returns the issued token and account info.
type LoginResponse struct {
	AccessToken string      `json:"access_token"`
	ExpiresIn   int64       `json:"expires_in"`
	Account     AccountInfo `json:"account"`
	IssuedAt    time.Time   `json:"issued_at"`
}

// AccountInfo describes the authenticated account in responses.
type AccountInfo struct {
	ID                 string      `json:"id"`
	RegistrationNumber string      `json:"registration_number"`
	FullName           string      `json:"full_name"`
	Role               AccountRole `json:"role"`
	Superuser          bool        `json:"superuser"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	AccountID          string      `json:"account_id"`
	RegistrationNumber string      `json:"registration_number"`
	Role               AccountRole `json:"role"`
	Superuser          bool        `json:"superuser"`
	jwt.RegisteredClaims
}

// Actor converts the claims into the explicit policy context.
func (c *JWTClaims) Actor() Actor {
	return Actor{AccountID: c.AccountID, Role: c.Role, Superuser: c.Superuser}
}
