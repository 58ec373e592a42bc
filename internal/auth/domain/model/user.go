package model

import (
	"errors"
	"strings"
	"time"
)

// Identity providers a user can come from.
const (
	ProviderPassword = "password"
	ProviderGoogle   = "google"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrUserExists      = errors.New("user already exists")
	ErrInvalidPassword = errors.New("invalid password")
	ErrFederatedOnly   = errors.New("account uses federated sign-in")
)

// User represents a user in the system
type User struct {
	ID           string    `json:"id" bson:"id"`
	Email        string    `json:"email" bson:"email"`
	PasswordHash string    `json:"-" bson:"password_hash,omitempty"`
	FirstName    string    `json:"firstName,omitempty" bson:"firstName,omitempty"`
	LastName     string    `json:"lastName,omitempty" bson:"lastName,omitempty"`
	Provider     string    `json:"provider" bson:"provider"`
	CreatedAt    time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updated_at"`
}

// NormalizeEmail is the form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// DisplayName returns "First Last", falling back to the email.
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// Identity is what a federated provider tells us about the person who consented.
type Identity struct {
	Provider  string
	Subject   string
	Email     string
	FirstName string
	LastName  string
}
