package application

import (
	"time"

	"github.com/shopsphere/accounts/internal/domain/entity"
)

// LockoutPolicy decides when repeated authentication failures lock an
// account, and for how long. The counter is not reset when the threshold is
// hit, so failures during a lock window keep pushing LockUntil forward.
type LockoutPolicy struct {
	MaxAttempts int
	LockWindow  time.Duration
}

func DefaultLockoutPolicy() LockoutPolicy {
	return LockoutPolicy{MaxAttempts: 5, LockWindow: 30 * time.Minute}
}

// Gate reports whether authentication may proceed at now.
func (p LockoutPolicy) Gate(a *entity.Account, now time.Time) bool {
	return !a.Locked(now)
}

// LockUntil computes the lock expiry applied when the threshold is reached.
func (p LockoutPolicy) LockUntil(now time.Time) time.Time {
	return now.Add(p.LockWindow)
}
