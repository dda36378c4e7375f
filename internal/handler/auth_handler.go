package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hospital-management-backend/internal/apperror"
	"hospital-management-backend/internal/service"
	"hospital-management-backend/pkg/utils"
)

type AuthHandler struct {
	authService *service.AuthService
	log         *zap.Logger
}

func NewAuthHandler(authService *service.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		log:         log,
	}
}

// Passwords are kept raw so a non-string value can be told apart from a
// missing one.
type LoginRequest struct {
	HospitalID string          `json:"hospital_id" binding:"required"`
	Username   string          `json:"username" binding:"required"`
	Password   json.RawMessage `json:"password"`
}

type RegisterHospitalRequest struct {
	RegisterSecret string          `json:"register_secret"`
	HospitalID     string          `json:"hospital_id" binding:"required,max=50"`
	Name           string          `json:"name" binding:"required,max=255"`
	Email          string          `json:"email" binding:"required,email,max=255"`
	Address        *string         `json:"address"`
	AdminUsername  string          `json:"admin_username" binding:"required,max=100"`
	AdminPassword  json.RawMessage `json:"admin_password"`
	AdminFullName  *string         `json:"admin_full_name" binding:"omitempty,max=255"`
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.AbortWithError(c, h.log, apperror.BadRequest("Invalid request body"))
		return
	}

	result, err := h.authService.Login(c.Request.Context(), service.LoginInput{
		HospitalID: req.HospitalID,
		Username:   req.Username,
		Password:   stringField(req.Password),
		ClientIP:   c.ClientIP(),
	})
	if err != nil {
		utils.AbortWithError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// RegisterHospital handles POST /auth/register-hospital
func (h *AuthHandler) RegisterHospital(c *gin.Context) {
	var req RegisterHospitalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.AbortWithError(c, h.log, apperror.BadRequest("Invalid request body"))
		return
	}

	result, err := h.authService.RegisterHospital(c.Request.Context(), service.RegisterHospitalInput{
		RegisterSecret: req.RegisterSecret,
		HospitalID:     req.HospitalID,
		Name:           req.Name,
		Email:          req.Email,
		Address:        req.Address,
		AdminUsername:  req.AdminUsername,
		AdminPassword:  stringField(req.AdminPassword),
		AdminFullName:  req.AdminFullName,
	})
	if err != nil {
		utils.AbortWithError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}
