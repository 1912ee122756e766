package application

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/shopsphere/accounts/internal/domain/repository"
	"github.com/shopsphere/accounts/pkg/helpers"
	"github.com/shopsphere/accounts/pkg/mailer"
	"github.com/shopsphere/accounts/pkg/mailer/templates"
)

// resetTokenTTL bounds the lifetime of password reset tokens.
const resetTokenTTL = time.Hour

// Links holds the front-end URLs embedded in notification emails.
type Links struct {
	VerifyEmailURL        string
	ResetPasswordURL      string
	AdminResetPasswordURL string
}

// Branding feeds the notification templates.
type Branding struct {
	AppName     string
	CompanyName string
	SupportURL  string
}

// Service orchestrates the credential lifecycle flows. Each request is
// handled independently; all shared state lives behind Repo.
type Service struct {
	Repo    repository.AccountRepository
	JWT     *helpers.JWTManager
	Mail    mailer.Gateway
	Logger  *logrus.Logger
	Lockout LockoutPolicy
	Links   Links
	Brand   Branding

	now func() time.Time
}

func NewService(repo repository.AccountRepository, jwt *helpers.JWTManager, mail mailer.Gateway, logger *logrus.Logger, links Links, brand Branding) *Service {
	return &Service{
		Repo:    repo,
		JWT:     jwt,
		Mail:    mail,
		Logger:  logger,
		Lockout: DefaultLockoutPolicy(),
		Links:   links,
		Brand:   brand,
		now:     time.Now,
	}
}

func (s *Service) emailData(name, email string, opts ...templates.Option) map[string]any {
	d := templates.NewEmailData(s.Brand.AppName, s.Brand.CompanyName, s.Brand.SupportURL, name, email, opts...)
	return templates.ToMap(d)
}

func (s *Service) logError(msg string, err error, fields logrus.Fields) {
	if s.Logger == nil {
		return
	}
	s.Logger.WithError(err).WithFields(fields).Error(msg)
}

func (s *Service) logWarn(msg string, err error, fields logrus.Fields) {
	if s.Logger == nil {
		return
	}
	entry := s.Logger.WithFields(fields)
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Warn(msg)
}
