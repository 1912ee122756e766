package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shopsphere/accounts/internal/container"
	handlers "github.com/shopsphere/accounts/internal/interface/http"
	"github.com/shopsphere/accounts/internal/interface/middleware"
	"github.com/shopsphere/accounts/pkg/helpers"
)

// AdminModule wires the administrator portal routes.
// Public: admin login and the admin-scoped password reset pair
// Protected: account CRUD, gated on the admin role claim and re-checked in
// the application layer

type AdminModule struct {
	Account *handlers.AccountHandler
	Admin   *handlers.AdminHandler
	JWT     *helpers.JWTManager
}

func NewAdminModule(account *handlers.AccountHandler, admin *handlers.AdminHandler, jwt *helpers.JWTManager) *AdminModule {
	return &AdminModule{Account: account, Admin: admin, JWT: jwt}
}

func (m *AdminModule) Register(rg *gin.RouterGroup) {
	grp := rg.Group("/admin")

	loginLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIP(), nil)
	resetLimiter := middleware.RateLimit(container.GetRedis(), 5, time.Minute, middleware.KeyByIPAndPath(), nil)

	grp.POST("/login", loginLimiter, m.Account.AdminLogin)
	grp.POST("/password/forgot", resetLimiter, m.Account.AdminForgotPassword)
	grp.POST("/password/reset", resetLimiter, m.Account.AdminResetPassword)

	auth := grp.Group("/accounts")
	auth.Use(middleware.Auth(m.JWT), middleware.RequireAdmin())
	auth.Use(middleware.RateLimit(container.GetRedis(), 300, time.Minute, middleware.KeyByUserID(), middleware.AllowPrivateIP()))
	{
		auth.POST("", m.Admin.CreateAccount)
		auth.GET("", m.Admin.ListAccounts) // optional ?role= filter
		auth.GET("/:id", m.Admin.GetAccount)
		auth.PATCH("/:id", m.Admin.UpdateAccount)
		auth.DELETE("/:id", m.Admin.DeleteAccount)
	}
}
