package application

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/shopsphere/accounts/internal/domain/entity"
	"github.com/shopsphere/accounts/internal/domain/repository"
	"github.com/shopsphere/accounts/pkg/helpers"
)

// LoginResult carries the issued session token alongside the account.
type LoginResult struct {
	Account   *entity.Account
	Token     string
	ExpiresAt int64
}

// Login authenticates email/password and issues a session token. The lockout
// gate runs before password verification, so a locked account is refused even
// with correct credentials. Failures are recorded on the account; the wrong
// password, an unknown email and an unverified account all map to the same
// generic unauthorized error.
func (s *Service) Login(ctx context.Context, email, password string, adminOnly bool) (*LoginResult, error) {
	normalized := entity.NormalizeEmail(email)

	var (
		acc *entity.Account
		err error
	)
	if adminOnly {
		acc, err = s.Repo.GetByEmailAndRole(ctx, normalized, entity.RoleAdmin)
	} else {
		acc, err = s.Repo.GetByEmail(ctx, normalized)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, unauthorizedErr("invalid credentials")
		}
		return nil, serviceErr("account lookup failed", err)
	}

	now := s.now()
	if !s.Lockout.Gate(acc, now) {
		return nil, unauthorizedErr("account is temporarily locked; try again later")
	}
	if !acc.IsVerified {
		return nil, unauthorizedErr("please verify your email before logging in")
	}

	if !helpers.CompareHashAndPassword(acc.PasswordHash, password) {
		if rerr := s.Repo.RecordLoginFailure(ctx, acc.ID, s.Lockout.MaxAttempts, s.Lockout.LockUntil(now)); rerr != nil {
			s.logError("recording login failure failed", rerr, logrus.Fields{"account_id": acc.ID})
		}
		return nil, unauthorizedErr("invalid credentials")
	}

	if err := s.Repo.RecordLoginSuccess(ctx, acc.ID, now); err != nil {
		return nil, serviceErr("recording login failed", err)
	}
	acc.LoginAttempts = 0
	acc.LockUntil = nil
	acc.LastLoginAt = &now

	token, exp, err := s.JWT.GenerateSessionToken(acc)
	if err != nil {
		return nil, serviceErr("session token generation failed", err)
	}
	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"account_id": acc.ID, "admin": adminOnly}).Info("login succeeded")
	}
	return &LoginResult{Account: acc, Token: token, ExpiresAt: exp.Unix()}, nil
}

// ChangePassword replaces the password after verifying the old one. Any
// outstanding reset token is cleared with the hash swap.
func (s *Service) ChangePassword(ctx context.Context, accountID, oldPassword, newPassword string) error {
	acc, err := s.Repo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFoundErr("account not found")
		}
		return serviceErr("account lookup failed", err)
	}
	if !helpers.CompareHashAndPassword(acc.PasswordHash, oldPassword) {
		return unauthorizedErr("old password is incorrect")
	}
	if oldPassword == newPassword {
		return validationErr("new password must be different from the old one")
	}
	hash, err := helpers.HashPassword(newPassword)
	if err != nil {
		return serviceErr("password hashing failed", err)
	}
	if err := s.Repo.UpdatePassword(ctx, acc.ID, hash); err != nil {
		return serviceErr("password update failed", err)
	}
	return nil
}
