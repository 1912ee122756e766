package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/shopsphere/accounts/internal/application"
	"github.com/shopsphere/accounts/internal/domain/entity"
	"github.com/shopsphere/accounts/pkg/helpers"
	"github.com/shopsphere/accounts/pkg/response"
	"github.com/shopsphere/accounts/pkg/validation"
)

// AccountHandler serves the public credential flows and the account holder's
// own profile endpoints.
type AccountHandler struct {
	Svc     *application.Service
	Logger  *logrus.Logger
	Cookies *helpers.Manager
}

func NewAccountHandler(svc *application.Service, logger *logrus.Logger, cookieDomain string, cookieSecure bool) *AccountHandler {
	return &AccountHandler{Svc: svc, Logger: logger, Cookies: helpers.NewCookie(cookieDomain, cookieSecure)}
}

// statusFor maps the application error taxonomy onto HTTP statuses.
func statusFor(err error) int {
	switch application.KindOf(err) {
	case application.KindConflict:
		return http.StatusConflict
	case application.KindNotFound:
		return http.StatusNotFound
	case application.KindUnauthorized:
		return http.StatusUnauthorized
	case application.KindValidation:
		return http.StatusBadRequest
	case application.KindServiceFailure:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// failWith writes the error envelope using the taxonomy mapping. The cause
// chain stays in the logs; clients only see the flow message.
func failWith(c *gin.Context, err error) {
	var appErr *application.Error
	msg := "internal error"
	if errors.As(err, &appErr) {
		msg = appErr.Message
	}
	response.Fail(c, statusFor(err), msg, nil)
}

func accountView(a *entity.Account) gin.H {
	return gin.H{
		"id":            a.ID,
		"email":         a.Email,
		"name":          a.Name,
		"address":       a.Address,
		"role":          a.Role,
		"is_verified":   a.IsVerified,
		"is_active":     a.IsActive,
		"last_login_at": a.LastLoginAt,
		"created_at":    a.CreatedAt,
		"updated_at":    a.UpdatedAt,
	}
}

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,pwd"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	Role     string `json:"role" binding:"omitempty,role"`
}

func (r registerRequest) toInput() application.RegisterInput {
	return application.RegisterInput{
		Email:    r.Email,
		Password: r.Password,
		Name:     r.Name,
		Address:  r.Address,
		Role:     entity.Role(r.Role),
	}
}

func (h *AccountHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	acc, err := h.Svc.Register(c.Request.Context(), req.toInput())
	if err != nil {
		if errors.Is(err, application.ErrVerificationResent) {
			response.Fail(c, http.StatusConflict, application.ErrVerificationResent.Message, nil)
			return
		}
		failWith(c, err)
		return
	}
	response.Success(c, http.StatusCreated, accountView(acc), "registered; verification email sent", nil)
}

func (h *AccountHandler) RegisterDirect(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	res, err := h.Svc.RegisterDirect(c.Request.Context(), req.toInput())
	if err != nil {
		failWith(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{
		"account": accountView(res.Account),
		"token":   res.Token,
	}, "registered", nil)
}

type verifyRequest struct {
	Token string `json:"token"`
	Email string `json:"email" binding:"omitempty,email"`
}

// Verify consumes a verification token, or with an email payload answers the
// pre-login verified check.
func (h *AccountHandler) Verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	if req.Token != "" {
		acc, err := h.Svc.ConfirmVerification(c.Request.Context(), req.Token)
		if err != nil {
			failWith(c, err)
			return
		}
		response.Success(c, http.StatusOK, accountView(acc), "email verified", nil)
		return
	}
	if req.Email != "" {
		acc, err := h.Svc.CheckVerifiedForLogin(c.Request.Context(), req.Email)
		if err != nil {
			failWith(c, err)
			return
		}
		response.Success(c, http.StatusOK, gin.H{"email": acc.Email, "is_verified": true}, "email is verified", nil)
		return
	}
	response.Fail(c, http.StatusBadRequest, "token or email is required", nil)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AccountHandler) login(c *gin.Context, adminOnly bool) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	res, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password, adminOnly)
	if err != nil {
		failWith(c, err)
		return
	}
	h.Cookies.SetSession(c, res.Token, time.Unix(res.ExpiresAt, 0))
	response.Success(c, http.StatusOK, gin.H{
		"account": accountView(res.Account),
		"token":   res.Token,
	}, "login successful", map[string]any{"expires_at": res.ExpiresAt})
}

func (h *AccountHandler) Login(c *gin.Context)      { h.login(c, false) }
func (h *AccountHandler) AdminLogin(c *gin.Context) { h.login(c, true) }

func (h *AccountHandler) Logout(c *gin.Context) {
	h.Cookies.Clear(c)
	response.Success[any](c, http.StatusOK, gin.H{"logged_out": true}, "logged out", nil)
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

func (h *AccountHandler) forgotPassword(c *gin.Context, scope application.ResetScope) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Svc.RequestReset(c.Request.Context(), req.Email, scope); err != nil {
		failWith(c, err)
		return
	}
	// Same body whether or not the address matched an account.
	response.Success[any](c, http.StatusOK, nil, "if the email is registered, a reset link has been sent", nil)
}

func (h *AccountHandler) ForgotPassword(c *gin.Context) {
	h.forgotPassword(c, application.ScopeSelf)
}

func (h *AccountHandler) AdminForgotPassword(c *gin.Context) {
	h.forgotPassword(c, application.ScopeAdmin)
}

type resetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

func (h *AccountHandler) resetPassword(c *gin.Context, scope application.ResetScope) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Svc.ConfirmReset(c.Request.Context(), req.Token, req.NewPassword, scope); err != nil {
		failWith(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "password has been reset", nil)
}

func (h *AccountHandler) ResetPassword(c *gin.Context) {
	h.resetPassword(c, application.ScopeSelf)
}

func (h *AccountHandler) AdminResetPassword(c *gin.Context) {
	h.resetPassword(c, application.ScopeAdmin)
}

func (h *AccountHandler) GetProfile(c *gin.Context) {
	acc, err := h.Svc.GetAccount(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		failWith(c, err)
		return
	}
	response.Success(c, http.StatusOK, accountView(acc), "profile", nil)
}

type updateProfileRequest struct {
	Name    *string `json:"name"`
	Address *string `json:"address"`
}

func (h *AccountHandler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	acc, err := h.Svc.UpdateProfile(c.Request.Context(), c.GetString("userID"), application.UpdateInput{
		Name:    req.Name,
		Address: req.Address,
	})
	if err != nil {
		failWith(c, err)
		return
	}
	response.Success(c, http.StatusOK, accountView(acc), "profile updated", nil)
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,pwd"`
}

func (h *AccountHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Svc.ChangePassword(c.Request.Context(), c.GetString("userID"), req.OldPassword, req.NewPassword); err != nil {
		failWith(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "password changed", nil)
}

func (h *AccountHandler) DeleteMe(c *gin.Context) {
	if err := h.Svc.DeleteAccount(c.Request.Context(), c.GetString("userID")); err != nil {
		failWith(c, err)
		return
	}
	h.Cookies.Clear(c)
	response.Success[any](c, http.StatusOK, gin.H{"deleted": true}, "account deleted", nil)
}
