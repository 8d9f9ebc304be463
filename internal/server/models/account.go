package models

import "time"

// Account is the slice of the user record this service works with: the
// identity fields embedded into session claims, the password verifier, and
// the lockout fields mutated by the lockout tracker. Account creation and
// deletion belong to the user-management system.
type Account struct {
	ID                  string
	Email               string
	DisplayName         string
	Role                string
	PasswordHash        []byte
	PasswordSalt        []byte
	FailedLoginAttempts int
	LockedUntil         *time.Time
	CreatedAt           time.Time
}
