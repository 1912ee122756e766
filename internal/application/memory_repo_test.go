package application

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/shopsphere/accounts/internal/domain/entity"
	"github.com/shopsphere/accounts/internal/domain/repository"
	"github.com/shopsphere/accounts/pkg/helpers"
	"github.com/shopsphere/accounts/pkg/mailer"
)

// memoryRepo is an in-memory AccountRepository with the same conditional
// update semantics the Postgres implementation provides.
type memoryRepo struct {
	mu       sync.Mutex
	accounts map[string]*entity.Account
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{accounts: make(map[string]*entity.Account)}
}

func clone(a *entity.Account) *entity.Account {
	cp := *a
	return &cp
}

func (r *memoryRepo) Create(_ context.Context, a *entity.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.accounts {
		if existing.Email == a.Email {
			return repository.ErrDuplicateEmail
		}
	}
	a.ID = uuid.NewString()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	r.accounts[a.ID] = clone(a)
	return nil
}

func (r *memoryRepo) GetByID(_ context.Context, id string) (*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.accounts[id]; ok {
		return clone(a), nil
	}
	return nil, repository.ErrNotFound
}

func (r *memoryRepo) GetByEmail(_ context.Context, email string) (*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.Email == email {
			return clone(a), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memoryRepo) GetByEmailAndRole(_ context.Context, email string, role entity.Role) (*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.Email == email && a.Role == role {
			return clone(a), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memoryRepo) List(_ context.Context) ([]*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.Account, 0, len(r.accounts))
	for _, a := range r.accounts {
		out = append(out, clone(a))
	}
	return out, nil
}

func (r *memoryRepo) ListByRole(_ context.Context, role entity.Role) ([]*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Account
	for _, a := range r.accounts {
		if a.Role == role {
			out = append(out, clone(a))
		}
	}
	return out, nil
}

func (r *memoryRepo) Update(_ context.Context, a *entity.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.accounts[a.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Email = a.Email
	stored.Name = a.Name
	stored.Address = a.Address
	stored.Role = a.Role
	stored.IsVerified = a.IsVerified
	stored.IsActive = a.IsActive
	stored.UpdatedAt = time.Now()
	return nil
}

func (r *memoryRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.accounts, id)
	return nil
}

func (r *memoryRepo) SetVerificationToken(_ context.Context, id, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok || a.IsVerified {
		return repository.ErrNotFound
	}
	a.VerificationToken = token
	return nil
}

func (r *memoryRepo) ConfirmVerification(_ context.Context, token string) (*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.VerificationToken != "" && a.VerificationToken == token {
			a.IsVerified = true
			a.VerificationToken = ""
			return clone(a), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memoryRepo) SetResetToken(_ context.Context, id, token string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.ResetPasswordToken = token
	a.ResetPasswordExpiresAt = &expiresAt
	return nil
}

func (r *memoryRepo) ConfirmReset(_ context.Context, token string, role entity.Role, now time.Time, newHash string, clearLockout bool) (*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.ResetPasswordToken == "" || a.ResetPasswordToken != token {
			continue
		}
		if a.ResetPasswordExpiresAt == nil || !a.ResetPasswordExpiresAt.After(now) {
			continue
		}
		if role != "" && a.Role != role {
			continue
		}
		a.PasswordHash = newHash
		a.ResetPasswordToken = ""
		a.ResetPasswordExpiresAt = nil
		if clearLockout {
			a.LoginAttempts = 0
			a.LockUntil = nil
		}
		return clone(a), nil
	}
	return nil, repository.ErrNotFound
}

func (r *memoryRepo) UpdatePassword(_ context.Context, id, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.PasswordHash = hash
	a.ResetPasswordToken = ""
	a.ResetPasswordExpiresAt = nil
	return nil
}

func (r *memoryRepo) RecordLoginSuccess(_ context.Context, id string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.LoginAttempts = 0
	a.LockUntil = nil
	a.LastLoginAt = &now
	return nil
}

func (r *memoryRepo) RecordLoginFailure(_ context.Context, id string, threshold int, lockUntil time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.LoginAttempts++
	if a.LoginAttempts >= threshold {
		u := lockUntil
		a.LockUntil = &u
	}
	return nil
}

// stored returns the live record for assertions on persisted state.
func (r *memoryRepo) stored(id string) *entity.Account {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.accounts[id]; ok {
		return clone(a)
	}
	return nil
}

func (r *memoryRepo) storedByEmail(email string) *entity.Account {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.Email == email {
			return clone(a)
		}
	}
	return nil
}

var _ repository.AccountRepository = (*memoryRepo)(nil)

// fakeGateway records dispatched notifications and can be set to fail.
type fakeGateway struct {
	mu      sync.Mutex
	sent    []sentMail
	sendErr error
}

type sentMail struct {
	To   string
	Kind mailer.TemplateKind
	Data map[string]any
}

func (g *fakeGateway) Send(_ context.Context, to string, kind mailer.TemplateKind, data map[string]any) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.sendErr != nil {
		return g.sendErr
	}
	g.sent = append(g.sent, sentMail{To: to, Kind: kind, Data: data})
	return nil
}

func (g *fakeGateway) last() *sentMail {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.sent) == 0 {
		return nil
	}
	m := g.sent[len(g.sent)-1]
	return &m
}

func (g *fakeGateway) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.sent)
}

var _ mailer.Gateway = (*fakeGateway)(nil)

// newTestService wires a Service over the in-memory fakes.
func newTestService() (*Service, *memoryRepo, *fakeGateway) {
	repo := newMemoryRepo()
	gw := &fakeGateway{}
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	svc := NewService(repo,
		helpers.NewJWTManager("testsecret", 24*time.Hour, 72*time.Hour),
		gw, logger,
		Links{
			VerifyEmailURL:        "https://app.example.com/verify-email",
			ResetPasswordURL:      "https://app.example.com/reset-password",
			AdminResetPasswordURL: "https://admin.example.com/reset-password",
		},
		Branding{AppName: "ShopSphere", CompanyName: "ShopSphere Inc", SupportURL: "https://help.example.com"},
	)
	return svc, repo, gw
}
