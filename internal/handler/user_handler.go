package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hospital-management-backend/internal/apperror"
	"hospital-management-backend/internal/middleware"
	"hospital-management-backend/internal/service"
	"hospital-management-backend/pkg/utils"
)

type UserHandler struct {
	userService *service.UserService
	log         *zap.Logger
}

func NewUserHandler(userService *service.UserService, log *zap.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		log:         log,
	}
}

type CreateUserRequest struct {
	Username string          `json:"username" binding:"required,max=100"`
	Email    *string         `json:"email" binding:"omitempty,email,max=255"`
	Password json.RawMessage `json:"password"`
	Role     string          `json:"role" binding:"required"`
	FullName *string         `json:"full_name" binding:"omitempty,max=255"`
}

// List handles GET /users/
func (h *UserHandler) List(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	users, err := h.userService.List(c.Request.Context(), principal)
	if err != nil {
		utils.AbortWithError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// Create handles POST /users/
func (h *UserHandler) Create(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.AbortWithError(c, h.log, apperror.BadRequest("Invalid request body"))
		return
	}

	user, err := h.userService.Create(c.Request.Context(), principal, service.CreateUserInput{
		Username: req.Username,
		Email:    req.Email,
		Password: stringField(req.Password),
		Role:     req.Role,
		FullName: req.FullName,
	})
	if err != nil {
		utils.AbortWithError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// ToggleStatus handles PATCH /users/:id/toggle
func (h *UserHandler) ToggleStatus(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 0)
	if err != nil || id == 0 {
		utils.AbortWithError(c, h.log, apperror.BadRequest("Invalid user ID"))
		return
	}

	user, err := h.userService.ToggleStatus(c.Request.Context(), principal, uint(id))
	if err != nil {
		utils.AbortWithError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Me handles GET /users/me
func (h *UserHandler) Me(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.userService.Me(principal))
}

func (h *UserHandler) principal(c *gin.Context) (*service.Principal, bool) {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		utils.AbortWithError(c, h.log, apperror.Unauthenticated("Not authenticated"))
	}
	return principal, ok
}
