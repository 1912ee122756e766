package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopsphere/accounts/internal/domain/entity"
	"github.com/shopsphere/accounts/pkg/helpers"
	"github.com/shopsphere/accounts/pkg/mailer"
)

func TestRequestResetStoresTokenAndEmailsIt(t *testing.T) {
	svc, repo, gw := newTestService()
	acc := registerVerified(t, svc, "alice@example.com", "supersecret", "")
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	require.NoError(t, svc.RequestReset(ctx, "Alice@Example.com", ScopeSelf))

	stored := repo.stored(acc.ID)
	assert.NotEmpty(t, stored.ResetPasswordToken)
	require.NotNil(t, stored.ResetPasswordExpiresAt)
	assert.Equal(t, base.Add(time.Hour), *stored.ResetPasswordExpiresAt)

	mail := gw.last()
	require.NotNil(t, mail)
	assert.Equal(t, mailer.TemplateResetUser, mail.Kind)
	assert.Contains(t, mail.Data["ResetURL"], stored.ResetPasswordToken)
	assert.Contains(t, mail.Data["ResetURL"], "app.example.com")
}

func TestRequestResetUnknownEmailIsSilentSuccess(t *testing.T) {
	svc, _, gw := newTestService()

	err := svc.RequestReset(context.Background(), "ghost@example.com", ScopeSelf)
	assert.NoError(t, err)
	assert.Zero(t, gw.count(), "no email, no error, nothing to probe")
}

func TestRequestResetAdminScopeFiltersRole(t *testing.T) {
	svc, repo, gw := newTestService()
	customer := registerVerified(t, svc, "bob@example.com", "supersecret", entity.RoleCustomer)
	admin := registerVerified(t, svc, "root@example.com", "supersecret", entity.RoleAdmin)
	ctx := context.Background()

	// A customer address through the admin portal behaves like no match.
	require.NoError(t, svc.RequestReset(ctx, "bob@example.com", ScopeAdmin))
	assert.Empty(t, repo.stored(customer.ID).ResetPasswordToken)

	require.NoError(t, svc.RequestReset(ctx, "root@example.com", ScopeAdmin))
	assert.NotEmpty(t, repo.stored(admin.ID).ResetPasswordToken)

	mail := gw.last()
	assert.Equal(t, mailer.TemplateResetAdmin, mail.Kind)
	assert.Contains(t, mail.Data["ResetURL"], "admin.example.com")
}

func TestRequestResetDispatchFailureIsReported(t *testing.T) {
	svc, _, gw := newTestService()
	registerVerified(t, svc, "carol@example.com", "supersecret", "")
	gw.sendErr = errors.New("broker down")

	err := svc.RequestReset(context.Background(), "carol@example.com", ScopeSelf)
	assert.Equal(t, KindServiceFailure, KindOf(err))
}

func TestConfirmResetInstallsNewPassword(t *testing.T) {
	svc, repo, _ := newTestService()
	acc := registerVerified(t, svc, "dave@example.com", "supersecret", "")
	ctx := context.Background()

	require.NoError(t, svc.RequestReset(ctx, "dave@example.com", ScopeSelf))
	token := repo.stored(acc.ID).ResetPasswordToken

	require.NoError(t, svc.ConfirmReset(ctx, token, "fresh-password", ScopeSelf))

	stored := repo.stored(acc.ID)
	assert.True(t, helpers.CompareHashAndPassword(stored.PasswordHash, "fresh-password"))
	assert.Empty(t, stored.ResetPasswordToken)
	assert.Nil(t, stored.ResetPasswordExpiresAt)

	// The token was consumed; a second confirm fails like a bogus token.
	err := svc.ConfirmReset(ctx, token, "fresh-password-2", ScopeSelf)
	assert.Equal(t, KindUnauthorized, KindOf(err))
}

func TestConfirmResetExpiredEqualsNonexistent(t *testing.T) {
	svc, repo, _ := newTestService()
	acc := registerVerified(t, svc, "erin@example.com", "supersecret", "")
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }
	require.NoError(t, svc.RequestReset(ctx, "erin@example.com", ScopeSelf))
	token := repo.stored(acc.ID).ResetPasswordToken

	svc.now = func() time.Time { return base.Add(time.Hour + time.Second) }
	errExpired := svc.ConfirmReset(ctx, token, "fresh-password", ScopeSelf)
	errBogus := svc.ConfirmReset(ctx, "never-issued", "fresh-password", ScopeSelf)

	require.Error(t, errExpired)
	require.Error(t, errBogus)
	assert.Equal(t, errExpired.Error(), errBogus.Error())

	// The old password still works after the failed confirm.
	assert.True(t, helpers.CompareHashAndPassword(repo.stored(acc.ID).PasswordHash, "supersecret"))
}

func TestConfirmResetSelfClearsLockout(t *testing.T) {
	svc, repo, _ := newTestService()
	acc := registerVerified(t, svc, "frank@example.com", "supersecret", "")
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }
	for i := 0; i < 5; i++ {
		_, _ = svc.Login(ctx, "frank@example.com", "wrong", false)
	}
	require.NotNil(t, repo.stored(acc.ID).LockUntil)

	require.NoError(t, svc.RequestReset(ctx, "frank@example.com", ScopeSelf))
	token := repo.stored(acc.ID).ResetPasswordToken
	require.NoError(t, svc.ConfirmReset(ctx, token, "fresh-password", ScopeSelf))

	stored := repo.stored(acc.ID)
	assert.Zero(t, stored.LoginAttempts)
	assert.Nil(t, stored.LockUntil)

	// Login works immediately, still inside the old lock window.
	res, err := svc.Login(ctx, "frank@example.com", "fresh-password", false)
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
}

func TestConfirmResetAdminKeepsLockout(t *testing.T) {
	svc, repo, _ := newTestService()
	admin := registerVerified(t, svc, "root@example.com", "supersecret", entity.RoleAdmin)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }
	for i := 0; i < 5; i++ {
		_, _ = svc.Login(ctx, "root@example.com", "wrong", false)
	}
	require.NotNil(t, repo.stored(admin.ID).LockUntil)

	require.NoError(t, svc.RequestReset(ctx, "root@example.com", ScopeAdmin))
	token := repo.stored(admin.ID).ResetPasswordToken
	require.NoError(t, svc.ConfirmReset(ctx, token, "fresh-password", ScopeAdmin))

	stored := repo.stored(admin.ID)
	assert.True(t, helpers.CompareHashAndPassword(stored.PasswordHash, "fresh-password"))
	assert.Equal(t, 5, stored.LoginAttempts)
	assert.NotNil(t, stored.LockUntil, "admin reset leaves the lock in place")

	_, err := svc.Login(ctx, "root@example.com", "fresh-password", false)
	assert.Equal(t, KindUnauthorized, KindOf(err))
}

func TestConfirmResetAdminPasswordLengthBoundary(t *testing.T) {
	svc, repo, _ := newTestService()
	admin := registerVerified(t, svc, "root@example.com", "supersecret", entity.RoleAdmin)
	ctx := context.Background()

	require.NoError(t, svc.RequestReset(ctx, "root@example.com", ScopeAdmin))
	token := repo.stored(admin.ID).ResetPasswordToken

	err := svc.ConfirmReset(ctx, token, "seven77", ScopeAdmin)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.NotEmpty(t, repo.stored(admin.ID).ResetPasswordToken, "rejected confirm leaves the token live")

	require.NoError(t, svc.ConfirmReset(ctx, token, "eight888", ScopeAdmin))
	assert.True(t, helpers.CompareHashAndPassword(repo.stored(admin.ID).PasswordHash, "eight888"))
}

func TestConfirmResetAdminScopeRejectsNonAdminToken(t *testing.T) {
	svc, repo, _ := newTestService()
	customer := registerVerified(t, svc, "gina@example.com", "supersecret", entity.RoleCustomer)
	ctx := context.Background()

	require.NoError(t, svc.RequestReset(ctx, "gina@example.com", ScopeSelf))
	token := repo.stored(customer.ID).ResetPasswordToken

	err := svc.ConfirmReset(ctx, token, "fresh-password", ScopeAdmin)
	assert.Equal(t, KindNotFound, KindOf(err))

	// The token is still usable through the matching scope.
	require.NoError(t, svc.ConfirmReset(ctx, token, "fresh-password", ScopeSelf))
}

func TestConfirmResetRejectsEmptyInput(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	assert.Equal(t, KindValidation, KindOf(svc.ConfirmReset(ctx, "", "pass", ScopeSelf)))
	assert.Equal(t, KindValidation, KindOf(svc.ConfirmReset(ctx, "tok", "", ScopeSelf)))
}

func TestRequestResetReplacesOutstandingToken(t *testing.T) {
	svc, repo, _ := newTestService()
	acc := registerVerified(t, svc, "hana@example.com", "supersecret", "")
	ctx := context.Background()

	require.NoError(t, svc.RequestReset(ctx, "hana@example.com", ScopeSelf))
	first := repo.stored(acc.ID).ResetPasswordToken
	require.NoError(t, svc.RequestReset(ctx, "hana@example.com", ScopeSelf))
	second := repo.stored(acc.ID).ResetPasswordToken
	require.NotEqual(t, first, second)

	// Only the latest token is live.
	assert.Equal(t, KindUnauthorized, KindOf(svc.ConfirmReset(ctx, first, "fresh-password", ScopeSelf)))
	assert.NoError(t, svc.ConfirmReset(ctx, second, "fresh-password", ScopeSelf))
}
