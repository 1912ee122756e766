package application

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/shopsphere/accounts/internal/domain/entity"
	"github.com/shopsphere/accounts/internal/domain/repository"
	"github.com/shopsphere/accounts/pkg/helpers"
	"github.com/shopsphere/accounts/pkg/mailer"
	"github.com/shopsphere/accounts/pkg/mailer/templates"
)

// ResetScope selects between the self-service and administrator-portal reset
// flows. The admin scope narrows every lookup to role=admin and applies the
// stricter password rule on confirm.
type ResetScope string

const (
	ScopeSelf  ResetScope = "self"
	ScopeAdmin ResetScope = "admin"
)

const adminMinPasswordLen = 8

// RequestReset mints a time-bounded reset token and emails it. A request for
// an email with no matching account returns success with no observable
// difference, so callers cannot probe which addresses are registered. A real
// dispatch failure on a matched account is reported loudly; hiding it would
// strand the legitimate owner.
func (s *Service) RequestReset(ctx context.Context, email string, scope ResetScope) error {
	normalized := entity.NormalizeEmail(email)
	if normalized == "" {
		return validationErr("email is required")
	}

	var (
		acc *entity.Account
		err error
	)
	if scope == ScopeAdmin {
		acc, err = s.Repo.GetByEmailAndRole(ctx, normalized, entity.RoleAdmin)
	} else {
		acc, err = s.Repo.GetByEmail(ctx, normalized)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Anti-enumeration: indistinguishable from the matched branch.
			return nil
		}
		return serviceErr("account lookup failed", err)
	}

	token, err := helpers.NewOpaqueToken()
	if err != nil {
		return serviceErr("token generation failed", err)
	}
	expiresAt := s.now().Add(resetTokenTTL)
	if err := s.Repo.SetResetToken(ctx, acc.ID, token, expiresAt); err != nil {
		return serviceErr("storing reset token failed", err)
	}

	kind := mailer.TemplateResetUser
	resetURL := s.Links.ResetPasswordURL
	if scope == ScopeAdmin {
		kind = mailer.TemplateResetAdmin
		resetURL = s.Links.AdminResetPasswordURL
	}
	data := s.emailData(acc.Name, acc.Email,
		templates.WithResetURL(resetURL+"?token="+token),
		templates.WithExpiresAt(expiresAt))
	if err := s.Mail.Send(ctx, acc.Email, kind, data); err != nil {
		s.logError("password reset email dispatch failed", err, logrus.Fields{"account_id": acc.ID, "scope": string(scope)})
		return serviceErr("failed to send password reset email", err)
	}

	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"account_id": acc.ID, "scope": string(scope)}).Info("password reset requested")
	}
	return nil
}

// ConfirmReset consumes a live reset token and installs the new password.
// Expiry is checked against a single wall-clock read, and the store's
// conditional update is the sole commit point: racing confirms on one token
// produce exactly one success. The self-service path also lifts any lockout;
// the admin path deliberately does not.
func (s *Service) ConfirmReset(ctx context.Context, token, newPassword string, scope ResetScope) error {
	if token == "" || newPassword == "" {
		return validationErr("token and new password are required")
	}
	if scope == ScopeAdmin && len(newPassword) < adminMinPasswordLen {
		return validationErr("password must be at least 8 characters long")
	}

	hash, err := helpers.HashPassword(newPassword)
	if err != nil {
		return serviceErr("password hashing failed", err)
	}

	role := entity.Role("")
	clearLockout := scope != ScopeAdmin
	if scope == ScopeAdmin {
		role = entity.RoleAdmin
	}

	acc, err := s.Repo.ConfirmReset(ctx, token, role, s.now(), hash, clearLockout)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// One generic error per scope: expired, consumed and never-issued
			// tokens are indistinguishable.
			if scope == ScopeAdmin {
				return notFoundErr("password reset token is invalid or has expired")
			}
			return unauthorizedErr("invalid or expired password reset token")
		}
		return serviceErr("password reset failed", err)
	}

	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"account_id": acc.ID, "scope": string(scope)}).Info("password reset confirmed")
	}
	return nil
}
