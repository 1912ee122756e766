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

// RegisterInput carries the self-registration payload.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Address  string
	Role     entity.Role
}

// Register creates an unverified, inactive account and dispatches a
// verification email. An existing verified account is a plain conflict; an
// existing unverified account gets a fresh token resent and the caller is
// told via ErrVerificationResent that no new account was made.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*entity.Account, error) {
	email := entity.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, validationErr("email and password are required")
	}
	role := in.Role
	if role == "" {
		role = entity.RoleCustomer
	}
	if !role.Valid() {
		return nil, validationErr("unknown role")
	}

	existing, err := s.Repo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, serviceErr("account lookup failed", err)
	}
	if existing != nil {
		if existing.IsVerified {
			return nil, conflictErr("email already exists and is verified")
		}
		return nil, s.resendVerification(ctx, existing)
	}

	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, serviceErr("password hashing failed", err)
	}
	token, err := helpers.NewOpaqueToken()
	if err != nil {
		return nil, serviceErr("token generation failed", err)
	}

	acc := &entity.Account{
		Email:             email,
		PasswordHash:      hash,
		Name:              in.Name,
		Address:           in.Address,
		Role:              role,
		IsVerified:        false,
		IsActive:          false,
		VerificationToken: token,
	}
	if err := s.Repo.Create(ctx, acc); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, conflictErr("email already exists")
		}
		return nil, serviceErr("account creation failed", err)
	}

	if err := s.sendVerification(ctx, acc, token); err != nil {
		// The account exists but the notice never went out; the caller must
		// know verification could not be dispatched.
		s.logError("verification email dispatch failed", err, logrus.Fields{"account_id": acc.ID})
		return nil, serviceErr("failed to send verification email", err)
	}

	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"account_id": acc.ID, "role": string(acc.Role)}).Info("account registered, verification pending")
	}
	return acc, nil
}

// resendVerification mints a fresh token for an unverified account; the new
// token is persisted only after the send attempt was issued.
func (s *Service) resendVerification(ctx context.Context, acc *entity.Account) error {
	token, err := helpers.NewOpaqueToken()
	if err != nil {
		return serviceErr("token generation failed", err)
	}
	if err := s.sendVerification(ctx, acc, token); err != nil {
		s.logError("verification email dispatch failed", err, logrus.Fields{"account_id": acc.ID})
		return serviceErr("failed to send verification email", err)
	}
	if err := s.Repo.SetVerificationToken(ctx, acc.ID, token); err != nil {
		return serviceErr("storing verification token failed", err)
	}
	return ErrVerificationResent
}

func (s *Service) sendVerification(ctx context.Context, acc *entity.Account, token string) error {
	data := s.emailData(acc.Name, acc.Email,
		templates.WithVerifyURL(s.Links.VerifyEmailURL+"?token="+token))
	return s.Mail.Send(ctx, acc.Email, mailer.TemplateVerify, data)
}

// ConfirmVerification consumes a verification token. A consumed token and a
// token that never existed are indistinguishable to the caller.
func (s *Service) ConfirmVerification(ctx context.Context, token string) (*entity.Account, error) {
	if token == "" {
		return nil, validationErr("verification token is required")
	}
	acc, err := s.Repo.ConfirmVerification(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundErr("invalid verification token")
		}
		return nil, serviceErr("verification update failed", err)
	}
	if s.Logger != nil {
		s.Logger.WithField("account_id", acc.ID).Info("email verified")
	}
	return acc, nil
}

// CheckVerifiedForLogin is the pre-login verification gate: it tells a
// returning user whether they still need to confirm their email.
func (s *Service) CheckVerifiedForLogin(ctx context.Context, email string) (*entity.Account, error) {
	acc, err := s.Repo.GetByEmail(ctx, entity.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundErr("email not found")
		}
		return nil, serviceErr("account lookup failed", err)
	}
	if !acc.IsVerified {
		return nil, unauthorizedErr("please verify your email before logging in")
	}
	return acc, nil
}

// RegisterDirectResult is returned by the register-and-issue fast path.
type RegisterDirectResult struct {
	Account *entity.Account
	Token   string
}

// RegisterDirect creates a pre-verified, active account and immediately
// issues a long-lived session token. The welcome email is best effort.
func (s *Service) RegisterDirect(ctx context.Context, in RegisterInput) (*RegisterDirectResult, error) {
	email := entity.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, validationErr("email and password are required")
	}
	role := in.Role
	if role == "" {
		role = entity.RoleCustomer
	}
	if !role.Valid() {
		return nil, validationErr("unknown role")
	}

	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, serviceErr("password hashing failed", err)
	}
	acc := &entity.Account{
		Email:        email,
		PasswordHash: hash,
		Name:         in.Name,
		Address:      in.Address,
		Role:         role,
		IsVerified:   true,
		IsActive:     true,
	}
	if err := s.Repo.Create(ctx, acc); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, conflictErr("email already exists")
		}
		return nil, serviceErr("account creation failed", err)
	}

	token, _, err := s.JWT.GenerateRegistrationToken(acc)
	if err != nil {
		return nil, serviceErr("session token generation failed", err)
	}

	if err := s.Mail.Send(ctx, acc.Email, mailer.TemplateWelcome, s.emailData(acc.Name, acc.Email)); err != nil {
		s.logWarn("welcome email could not be sent", err, logrus.Fields{"account_id": acc.ID})
	}

	return &RegisterDirectResult{Account: acc, Token: token}, nil
}
