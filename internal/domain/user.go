// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"

	"github.com/google/uuid"
)

const (
	MaxUserIDLen   = 36
	MaxUsernameLen = 36
	GuestUsername  = "guest"
)

var (
	ErrUsernameTooLong = errors.New("username too long")
	ErrUsernameEmpty   = errors.New("username empty")
)

type UserID string

// User is the browser identity behind one or more connections.
type User struct {
	ID       UserID `json:"id"`
	Username string `json:"username"`
}

// NewUser is a tiny helper to avoid ad-hoc struct literals in adapters.
// An empty id gets a fresh uuid.
func NewUser(id UserID) *User {
	if id == "" || len(id) > MaxUserIDLen {
		id = UserID(uuid.NewString())
	}
	return &User{ID: id, Username: GuestUsername}
}

func (u *User) SetUsername(username string) error {
	if len(username) == 0 {
		return ErrUsernameEmpty
	}
	if len(username) > MaxUsernameLen {
		return ErrUsernameTooLong
	}
	u.Username = username
	return nil
}

// Author is the name recorded on commits.
func (u *User) Author() string {
	if u.Username != "" && u.Username != GuestUsername {
		return u.Username
	}
	return string(u.ID)
}
