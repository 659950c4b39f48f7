package users

import (
	"errors"
	"time"
)

// ErrNotFound is returned by repo lookups when no matching user exists.
var ErrNotFound = errors.New("user not found")

// UserRepo is the credential store contract. The auth service treats it as
// the sole source of truth for identity and performs no caching on top.
type UserRepo interface {
	GetByEmail(email string) (*User, error)
	GetByID(id string) (*User, error)
	Create(user *User) (*User, error)
	Update(user *User) (*User, error)
	UpdateLastSeen(id string, at time.Time) error
}
