package application

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/shopsphere/accounts/internal/domain/entity"
	"github.com/shopsphere/accounts/internal/domain/repository"
	"github.com/shopsphere/accounts/pkg/helpers"
)

// requireAdmin re-checks the caller's role against the store at call time.
// A stale token claim is never enough for a privileged mutation.
func (s *Service) requireAdmin(ctx context.Context, callerID string) error {
	caller, err := s.Repo.GetByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return unauthorizedErr("administrator role required")
		}
		return serviceErr("caller lookup failed", err)
	}
	if caller.Role != entity.RoleAdmin {
		return unauthorizedErr("administrator role required")
	}
	return nil
}

// CreateByAdmin creates an account on behalf of an administrator. The new
// account skips the verification round-trip entirely.
func (s *Service) CreateByAdmin(ctx context.Context, adminID string, in RegisterInput) (*entity.Account, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
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
			// Generic: never reveals whether the holder is verified.
			return nil, conflictErr("email already exists")
		}
		return nil, serviceErr("account creation failed", err)
	}
	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"account_id": acc.ID, "admin_id": adminID}).Info("account created by admin")
	}
	return acc, nil
}

// UpdateInput is the patch applied by profile and admin updates. Nil fields
// are left untouched.
type UpdateInput struct {
	Name     *string
	Address  *string
	Role     *entity.Role
	IsActive *bool
}

// UpdateByAdmin applies a patch to any account, including role changes.
func (s *Service) UpdateByAdmin(ctx context.Context, adminID, targetID string, in UpdateInput) (*entity.Account, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	acc, err := s.Repo.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundErr("account not found")
		}
		return nil, serviceErr("account lookup failed", err)
	}
	if in.Role != nil {
		if !in.Role.Valid() {
			return nil, validationErr("unknown role")
		}
		acc.Role = *in.Role
	}
	applyProfilePatch(acc, in)
	if err := s.Repo.Update(ctx, acc); err != nil {
		return nil, serviceErr("account update failed", err)
	}
	return acc, nil
}

// UpdateProfile lets an account holder change their own profile fields.
// Role and activity flags are admin-only and ignored here.
func (s *Service) UpdateProfile(ctx context.Context, accountID string, in UpdateInput) (*entity.Account, error) {
	acc, err := s.Repo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundErr("account not found")
		}
		return nil, serviceErr("account lookup failed", err)
	}
	applyProfilePatch(acc, UpdateInput{Name: in.Name, Address: in.Address})
	if err := s.Repo.Update(ctx, acc); err != nil {
		return nil, serviceErr("account update failed", err)
	}
	return acc, nil
}

func applyProfilePatch(acc *entity.Account, in UpdateInput) {
	if in.Name != nil {
		acc.Name = *in.Name
	}
	if in.Address != nil {
		acc.Address = *in.Address
	}
	if in.IsActive != nil {
		acc.IsActive = *in.IsActive
	}
}

// GetAccount returns one account by id.
func (s *Service) GetAccount(ctx context.Context, id string) (*entity.Account, error) {
	acc, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundErr("account not found")
		}
		return nil, serviceErr("account lookup failed", err)
	}
	return acc, nil
}

// ListAccounts returns every account.
func (s *Service) ListAccounts(ctx context.Context) ([]*entity.Account, error) {
	accs, err := s.Repo.List(ctx)
	if err != nil {
		return nil, serviceErr("account listing failed", err)
	}
	return accs, nil
}

// ListAccountsByRole returns the accounts holding the given role.
func (s *Service) ListAccountsByRole(ctx context.Context, role entity.Role) ([]*entity.Account, error) {
	if !role.Valid() {
		return nil, validationErr("unknown role")
	}
	accs, err := s.Repo.ListByRole(ctx, role)
	if err != nil {
		return nil, serviceErr("account listing failed", err)
	}
	return accs, nil
}

// DeleteAccount removes an account permanently. Handlers restrict it to the
// holder or an administrator; deletion is terminal.
func (s *Service) DeleteAccount(ctx context.Context, id string) error {
	if err := s.Repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFoundErr("account not found")
		}
		return serviceErr("account deletion failed", err)
	}
	if s.Logger != nil {
		s.Logger.WithField("account_id", id).Info("account deleted")
	}
	return nil
}

// DeleteByAdmin removes any account after re-checking the caller's role.
func (s *Service) DeleteByAdmin(ctx context.Context, adminID, targetID string) error {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return err
	}
	return s.DeleteAccount(ctx, targetID)
}
