package entity

import (
	"strings"
	"time"
)

// Role is the authorization role assigned to an account at creation.
// Only an existing administrator may change it afterwards.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleSeller   Role = "seller"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleSeller, RoleAdmin:
		return true
	}
	return false
}

// Account is the aggregate root for the identity domain.
// PasswordHash holds a bcrypt hash and is never serialized.
type Account struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Name         string `json:"name"`
	Address      string `json:"address,omitempty"`
	Role         Role   `json:"role"`
	IsVerified   bool   `json:"is_verified"`
	IsActive     bool   `json:"is_active"`

	// Set only while a verification is outstanding; cleared on confirm.
	VerificationToken string `json:"-"`

	// Set and cleared together.
	ResetPasswordToken     string     `json:"-"`
	ResetPasswordExpiresAt *time.Time `json:"-"`

	LoginAttempts int        `json:"-"`
	LockUntil     *time.Time `json:"-"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NormalizeEmail lower-cases and trims an email for comparison and storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Locked reports whether authentication must be refused at the given instant.
// A LockUntil in the past is equivalent to no lock.
func (a *Account) Locked(now time.Time) bool {
	return a.LockUntil != nil && now.Before(*a.LockUntil)
}

// HasLiveResetToken reports whether a reset token is outstanding and unexpired.
func (a *Account) HasLiveResetToken(now time.Time) bool {
	return a.ResetPasswordToken != "" && a.ResetPasswordExpiresAt != nil && a.ResetPasswordExpiresAt.After(now)
}
