package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopsphere/accounts/internal/domain/entity"
	"github.com/shopsphere/accounts/pkg/helpers"
	"github.com/shopsphere/accounts/pkg/mailer"
)

func TestRegisterCreatesUnverifiedAccount(t *testing.T) {
	svc, repo, gw := newTestService()

	acc, err := svc.Register(context.Background(), RegisterInput{
		Email:    "  Alice@Example.COM ",
		Password: "supersecret",
		Name:     "Alice",
	})
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", acc.Email)
	assert.Equal(t, entity.RoleCustomer, acc.Role)
	assert.False(t, acc.IsVerified)
	assert.False(t, acc.IsActive)
	assert.NotEmpty(t, acc.VerificationToken)
	assert.True(t, helpers.CompareHashAndPassword(acc.PasswordHash, "supersecret"))

	stored := repo.stored(acc.ID)
	require.NotNil(t, stored)
	assert.Equal(t, acc.VerificationToken, stored.VerificationToken)

	require.Equal(t, 1, gw.count())
	mail := gw.last()
	assert.Equal(t, "alice@example.com", mail.To)
	assert.Equal(t, mailer.TemplateVerify, mail.Kind)
	assert.Contains(t, mail.Data["VerifyURL"], acc.VerificationToken)
}

func TestRegisterVerifiedDuplicateConflicts(t *testing.T) {
	svc, _, gw := newTestService()
	ctx := context.Background()

	acc, err := svc.Register(ctx, RegisterInput{Email: "bob@example.com", Password: "supersecret"})
	require.NoError(t, err)
	_, err = svc.ConfirmVerification(ctx, acc.VerificationToken)
	require.NoError(t, err)

	before := gw.count()
	_, err = svc.Register(ctx, RegisterInput{Email: "bob@example.com", Password: "another-pass"})
	assert.Equal(t, KindConflict, KindOf(err))
	assert.False(t, errors.Is(err, ErrVerificationResent))
	assert.Equal(t, before, gw.count(), "no email for a verified duplicate")
}

func TestRegisterUnverifiedDuplicateResendsToken(t *testing.T) {
	svc, repo, gw := newTestService()
	ctx := context.Background()

	acc, err := svc.Register(ctx, RegisterInput{Email: "carol@example.com", Password: "supersecret"})
	require.NoError(t, err)
	firstToken := acc.VerificationToken

	_, err = svc.Register(ctx, RegisterInput{Email: "carol@example.com", Password: "whatever-else"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrVerificationResent))

	stored := repo.stored(acc.ID)
	assert.NotEqual(t, firstToken, stored.VerificationToken, "resend replaces the token")
	assert.False(t, stored.IsVerified)
	assert.Equal(t, 2, gw.count())

	// The replaced token no longer verifies; the fresh one does.
	_, err = svc.ConfirmVerification(ctx, firstToken)
	assert.Equal(t, KindNotFound, KindOf(err))
	verified, err := svc.ConfirmVerification(ctx, stored.VerificationToken)
	require.NoError(t, err)
	assert.True(t, verified.IsVerified)
}

func TestRegisterDispatchFailureKeepsAccount(t *testing.T) {
	svc, repo, gw := newTestService()
	gw.sendErr = errors.New("broker down")

	_, err := svc.Register(context.Background(), RegisterInput{Email: "dave@example.com", Password: "supersecret"})
	require.Error(t, err)
	assert.Equal(t, KindServiceFailure, KindOf(err))

	// The account was persisted before the dispatch attempt; a later resend
	// can still reach it.
	assert.NotNil(t, repo.storedByEmail("dave@example.com"))
}

func TestConfirmVerificationConsumesToken(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	acc, err := svc.Register(ctx, RegisterInput{Email: "erin@example.com", Password: "supersecret"})
	require.NoError(t, err)

	verified, err := svc.ConfirmVerification(ctx, acc.VerificationToken)
	require.NoError(t, err)
	assert.True(t, verified.IsVerified)
	assert.Empty(t, repo.stored(acc.ID).VerificationToken)

	// Second confirm with the same token fails exactly like a bogus token.
	_, err = svc.ConfirmVerification(ctx, acc.VerificationToken)
	assert.Equal(t, KindNotFound, KindOf(err))
	_, err = svc.ConfirmVerification(ctx, "never-issued")
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestConfirmVerificationRejectsEmptyToken(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.ConfirmVerification(context.Background(), "")
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestCheckVerifiedForLogin(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	acc, err := svc.Register(ctx, RegisterInput{Email: "frank@example.com", Password: "supersecret"})
	require.NoError(t, err)

	_, err = svc.CheckVerifiedForLogin(ctx, "frank@example.com")
	assert.Equal(t, KindUnauthorized, KindOf(err))

	_, err = svc.ConfirmVerification(ctx, acc.VerificationToken)
	require.NoError(t, err)

	got, err := svc.CheckVerifiedForLogin(ctx, "Frank@Example.com")
	require.NoError(t, err)
	assert.Equal(t, acc.ID, got.ID)

	_, err = svc.CheckVerifiedForLogin(ctx, "missing@example.com")
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestRegisterDirectIssuesLongLivedToken(t *testing.T) {
	svc, _, gw := newTestService()

	res, err := svc.RegisterDirect(context.Background(), RegisterInput{
		Email:    "grace@example.com",
		Password: "supersecret",
		Name:     "Grace",
		Role:     entity.RoleSeller,
	})
	require.NoError(t, err)

	assert.True(t, res.Account.IsVerified)
	assert.True(t, res.Account.IsActive)
	assert.Equal(t, entity.RoleSeller, res.Account.Role)

	claims, err := svc.JWT.ParseSessionToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, "grace@example.com", claims.Email)
	assert.Equal(t, res.Account.ID, claims.UserID)
	assert.Equal(t, entity.RoleSeller, claims.Role)
	assert.True(t, claims.IsActive)

	mail := gw.last()
	require.NotNil(t, mail)
	assert.Equal(t, mailer.TemplateWelcome, mail.Kind)
}

func TestRegisterDirectWelcomeFailureIsNotFatal(t *testing.T) {
	svc, _, gw := newTestService()
	gw.sendErr = errors.New("broker down")

	res, err := svc.RegisterDirect(context.Background(), RegisterInput{Email: "henry@example.com", Password: "supersecret"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
}

func TestRegisterRejectsBadInput(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "", Password: "supersecret"})
	assert.Equal(t, KindValidation, KindOf(err))
	_, err = svc.Register(ctx, RegisterInput{Email: "x@example.com", Password: ""})
	assert.Equal(t, KindValidation, KindOf(err))
	_, err = svc.Register(ctx, RegisterInput{Email: "x@example.com", Password: "supersecret", Role: "root"})
	assert.Equal(t, KindValidation, KindOf(err))
}
