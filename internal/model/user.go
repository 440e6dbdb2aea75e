package model

import (
	"time"

	"github.com/google/uuid"
)

// User is a platform account.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session is the authenticated caller. It is built by the auth middleware
// and passed explicitly to handlers and services.
type Session struct {
	UserID  uuid.UUID `json:"user_id"`
	Email   string    `json:"email"`
	TokenID string    `json:"-"`
	Admin   bool      `json:"admin"`
}

// CredentialsRequest is the payload for signup and login.
type CredentialsRequest struct {
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}
