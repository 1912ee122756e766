package router

import (
	"github.com/shopsphere/accounts/internal/application"
	"github.com/shopsphere/accounts/internal/container"
	"github.com/shopsphere/accounts/internal/domain/repository"
	pginfra "github.com/shopsphere/accounts/internal/infrastructure/postgres"
	handlers "github.com/shopsphere/accounts/internal/interface/http"
	"github.com/shopsphere/accounts/internal/router/modules"
)

type ModuleDeps struct {
	Repo    repository.AccountRepository
	Service *application.Service
	Account *handlers.AccountHandler
	Admin   *handlers.AdminHandler
}

func buildDeps() ModuleDeps {
	cfg := container.GetConfig()
	repo := pginfra.NewAccountRepository(container.GetPGPool())

	service := application.NewService(
		repo,
		container.GetJWT(),
		container.GetMailGateway(),
		container.GetLogger(),
		application.Links{
			VerifyEmailURL:        cfg.VerifyEmailURL,
			ResetPasswordURL:      cfg.ResetPasswordURL,
			AdminResetPasswordURL: cfg.AdminResetPasswordURL,
		},
		application.Branding{
			AppName:     cfg.AppName,
			CompanyName: cfg.CompanyName,
			SupportURL:  cfg.SupportURL,
		},
	)

	account := handlers.NewAccountHandler(service, container.GetLogger(), cfg.CookieDomain, cfg.CookieSecure)
	admin := handlers.NewAdminHandler(service, container.GetLogger())

	return ModuleDeps{Repo: repo, Service: service, Account: account, Admin: admin}
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	deps := buildDeps()
	r.Add(modules.NewAccountModule(deps.Account, container.GetJWT()))
	r.Add(modules.NewAdminModule(deps.Account, deps.Admin, container.GetJWT()))
}
