package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shopsphere/accounts/internal/container"
	handlers "github.com/shopsphere/accounts/internal/interface/http"
	"github.com/shopsphere/accounts/internal/interface/middleware"
	"github.com/shopsphere/accounts/pkg/helpers"
)

// AccountModule wires the self-service credential routes.
// Public: register, verify, login, password forgot/reset
// Protected: me, me password, logout, delete
// All routes are registered under the given RouterGroup (usually /api)

type AccountModule struct {
	Handler *handlers.AccountHandler
	JWT     *helpers.JWTManager
}

func NewAccountModule(h *handlers.AccountHandler, jwt *helpers.JWTManager) *AccountModule {
	return &AccountModule{Handler: h, JWT: jwt}
}

func (m *AccountModule) Register(rg *gin.RouterGroup) {
	grp := rg.Group("/accounts")

	// Public with rate limiting; tokens and credentials are the hot targets
	registerLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIPAndPath(), nil)
	loginLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIP(), nil)
	resetLimiter := middleware.RateLimit(container.GetRedis(), 5, time.Minute, middleware.KeyByIPAndPath(), nil)

	grp.POST("/register", registerLimiter, m.Handler.Register)
	grp.POST("/register/direct", registerLimiter, m.Handler.RegisterDirect)
	grp.POST("/verify", registerLimiter, m.Handler.Verify)
	grp.POST("/login", loginLimiter, m.Handler.Login)
	grp.POST("/password/forgot", resetLimiter, m.Handler.ForgotPassword)
	grp.POST("/password/reset", resetLimiter, m.Handler.ResetPassword)

	// Protected
	auth := grp.Group("/")
	auth.Use(middleware.Auth(m.JWT))
	auth.Use(middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), nil))
	{
		auth.POST("/logout", m.Handler.Logout)
		auth.GET("/me", m.Handler.GetProfile)
		auth.PATCH("/me", m.Handler.UpdateProfile)
		auth.PATCH("/me/password", m.Handler.ChangePassword)
		auth.DELETE("/me", m.Handler.DeleteMe)
	}
}
