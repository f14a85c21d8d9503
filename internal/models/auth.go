package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest picks a demo identity by role.
type LoginRequest struct {
	Role UserRole `json:"role" validate:"required,oneof=student teacher"`
}

// LoginResponse returns the issued token and the session user.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	User        User      `json:"user"`
	IssuedAt    time.Time `json:"issued_at"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID string   `json:"user_id"`
	Role   UserRole `json:"role"`
	Name   string   `json:"name"`
	jwt.RegisteredClaims
}

// User converts the claims back into the session user.
func (c *JWTClaims) User() User {
	if c == nil {
		return User{}
	}
	return User{ID: c.UserID, Name: c.Name, Role: c.Role}
}
