package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/shopsphere/accounts/internal/application"
	"github.com/shopsphere/accounts/internal/domain/entity"
	"github.com/shopsphere/accounts/pkg/response"
	"github.com/shopsphere/accounts/pkg/validation"
)

// AdminHandler serves the privileged account operations. The caller's admin
// role is re-checked in the application layer on every mutation.
type AdminHandler struct {
	Svc    *application.Service
	Logger *logrus.Logger
}

func NewAdminHandler(svc *application.Service, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{Svc: svc, Logger: logger}
}

func (h *AdminHandler) CreateAccount(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	acc, err := h.Svc.CreateByAdmin(c.Request.Context(), c.GetString("userID"), req.toInput())
	if err != nil {
		failWith(c, err)
		return
	}
	response.Success(c, http.StatusCreated, accountView(acc), "account created", nil)
}

func (h *AdminHandler) GetAccount(c *gin.Context) {
	acc, err := h.Svc.GetAccount(c.Request.Context(), c.Param("id"))
	if err != nil {
		failWith(c, err)
		return
	}
	response.Success(c, http.StatusOK, accountView(acc), "account", nil)
}

// ListAccounts returns every account, or only those holding ?role= when the
// filter is present.
func (h *AdminHandler) ListAccounts(c *gin.Context) {
	var (
		accs []*entity.Account
		err  error
	)
	if role := c.Query("role"); role != "" {
		accs, err = h.Svc.ListAccountsByRole(c.Request.Context(), entity.Role(role))
	} else {
		accs, err = h.Svc.ListAccounts(c.Request.Context())
	}
	if err != nil {
		failWith(c, err)
		return
	}
	views := make([]gin.H, 0, len(accs))
	for _, a := range accs {
		views = append(views, accountView(a))
	}
	response.Success(c, http.StatusOK, views, "accounts", map[string]any{"count": len(views)})
}

type adminUpdateRequest struct {
	Name     *string `json:"name"`
	Address  *string `json:"address"`
	Role     *string `json:"role" binding:"omitempty"`
	IsActive *bool   `json:"is_active"`
}

func (h *AdminHandler) UpdateAccount(c *gin.Context) {
	var req adminUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	in := application.UpdateInput{
		Name:     req.Name,
		Address:  req.Address,
		IsActive: req.IsActive,
	}
	if req.Role != nil {
		role := entity.Role(*req.Role)
		in.Role = &role
	}
	acc, err := h.Svc.UpdateByAdmin(c.Request.Context(), c.GetString("userID"), c.Param("id"), in)
	if err != nil {
		failWith(c, err)
		return
	}
	response.Success(c, http.StatusOK, accountView(acc), "account updated", nil)
}

func (h *AdminHandler) DeleteAccount(c *gin.Context) {
	if err := h.Svc.DeleteByAdmin(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		failWith(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"deleted": true}, "account deleted", nil)
}
