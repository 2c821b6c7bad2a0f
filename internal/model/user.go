package model

import (
	"errors"
	"time"
)

// User is the canonical user record owned by this service.
type User struct {
	ID            int64     `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Nickname      string    `db:"nickname" json:"nickname"`
	Password      string    `db:"password" json:"-"` // salted hash only, "-" hides it from every response
	About         *string   `db:"about" json:"about"`
	ProfileImgURL *string   `db:"profile_img_url" json:"profile_img_url"`
	Followers     int       `db:"followers" json:"followers"`
	Following     int       `db:"following" json:"following"`
	MemberSince   time.Time `db:"member_since" json:"member_since"`
}

// CreateUserRequest carries the fields needed to create a user.
// Name, Nickname and Password are required; the rest are optional.
type CreateUserRequest struct {
	Name          string  `json:"name"`
	About         string  `json:"about"`
	Nickname      string  `json:"nickname"`
	Password      string  `json:"password"`
	ProfileImgURL *string `json:"-"`
}

// UpdateUserRequest carries a partial update: empty fields keep the
// stored value. Changing the password requires CurrentPassword to
// verify against the stored hash. ProfileImgURL is a pointer so an
// absent field keeps the stored image while an explicit value
// replaces it.
type UpdateUserRequest struct {
	Name            string  `json:"name"`
	About           string  `json:"about"`
	Nickname        string  `json:"nickname"`
	CurrentPassword string  `json:"current_password"`
	NewPassword     string  `json:"new_password"`
	ProfileImgURL   *string `json:"profile_img_url"`
}

// LoginRequest represents the data needed to log in
type LoginRequest struct {
	Nickname string `json:"nickname"`
	Password string `json:"password"`
}

// DeleteUserResponse reports the outcome of a delete.
type DeleteUserResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Delete statuses
const (
	DeleteStatusSuccess = "SUCCESS"
	DeleteStatusFailed  = "FAILED"
)

var (
	// ErrUserNotFound is returned when a user cannot be found
	ErrUserNotFound = errors.New("user not found")

	// ErrNicknameTaken is returned when a create or update collides with an existing nickname
	ErrNicknameTaken = errors.New("nickname already taken")

	// ErrInvalidCredentials is returned when login or password-change credentials are incorrect
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidPasswordFormat is returned when a plaintext password is malformed
	ErrInvalidPasswordFormat = errors.New("invalid password format")

	// ErrValidation is returned when a request is missing required fields
	ErrValidation = errors.New("validation error")

	// ErrStoreUnavailable is returned when the primary store is unreachable or slow
	ErrStoreUnavailable = errors.New("store unavailable")
)
