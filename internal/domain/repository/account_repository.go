package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shopsphere/accounts/internal/domain/entity"
)

var (
	// ErrNotFound is returned when no row matches a lookup or a conditional
	// update matched nothing. Consumed tokens and tokens that never existed
	// are indistinguishable through this error.
	ErrNotFound = errors.New("account not found")

	// ErrDuplicateEmail is returned by Create when the email is already taken.
	ErrDuplicateEmail = errors.New("email already exists")
)

// AccountRepository defines persistence for account records. Conditional
// token operations (ConfirmVerification, ConfirmReset, RecordLoginFailure)
// must be atomic at the store so concurrent confirms on the same token yield
// exactly one winner.
type AccountRepository interface {
	Create(ctx context.Context, a *entity.Account) error
	GetByID(ctx context.Context, id string) (*entity.Account, error)
	GetByEmail(ctx context.Context, email string) (*entity.Account, error)
	GetByEmailAndRole(ctx context.Context, email string, role entity.Role) (*entity.Account, error)
	List(ctx context.Context) ([]*entity.Account, error)
	ListByRole(ctx context.Context, role entity.Role) ([]*entity.Account, error)
	Update(ctx context.Context, a *entity.Account) error
	Delete(ctx context.Context, id string) error

	// SetVerificationToken stores a fresh verification token on an
	// unverified account.
	SetVerificationToken(ctx context.Context, id, token string) error

	// ConfirmVerification marks the account carrying token as verified and
	// clears the token in one step. ErrNotFound when no live token matches.
	ConfirmVerification(ctx context.Context, token string) (*entity.Account, error)

	// SetResetToken stores a reset token and its expiry together.
	SetResetToken(ctx context.Context, id, token string, expiresAt time.Time) error

	// ConfirmReset replaces the password hash and clears both reset fields
	// for the account whose reset token equals token and is unexpired at
	// now. A non-empty role narrows the match. clearLockout additionally
	// zeroes LoginAttempts and LockUntil. ErrNotFound when nothing matches.
	ConfirmReset(ctx context.Context, token string, role entity.Role, now time.Time, newHash string, clearLockout bool) (*entity.Account, error)

	// UpdatePassword replaces the hash and clears any outstanding reset
	// token, so a stale reset can never override a later change.
	UpdatePassword(ctx context.Context, id, hash string) error

	// RecordLoginSuccess zeroes the failure counter, clears the lock and
	// stamps the last login time.
	RecordLoginSuccess(ctx context.Context, id string, now time.Time) error

	// RecordLoginFailure atomically increments the failure counter and sets
	// LockUntil to lockUntil when the post-increment count reaches threshold.
	RecordLoginFailure(ctx context.Context, id string, threshold int, lockUntil time.Time) error
}
