// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"strings"
)

const MaxUsernameLen = 36

var (
	ErrUsernameTooLong = errors.New("username too long")
	ErrUsernameEmpty   = errors.New("username empty")
)

type UserID string

// User is the client's read-only copy of an identity-provider account.
type User struct {
	ID       UserID `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
}

// DisplayName falls back to the contact address when no username was set.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}

// ValidateUsername is applied on sign-up only; existing accounts are shown as-is.
func ValidateUsername(username string) error {
	username = strings.TrimSpace(username)
	if len(username) == 0 {
		return ErrUsernameEmpty
	}
	if len(username) > MaxUsernameLen {
		return ErrUsernameTooLong
	}
	return nil
}
