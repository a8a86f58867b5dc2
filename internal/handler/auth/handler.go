package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	pkgauth "github.com/medilink/care-api/pkg/auth"

	"github.com/medilink/care-api/internal/handler"
	"github.com/medilink/care-api/internal/model"
	authsvc "github.com/medilink/care-api/internal/service/auth"
)

type Handler struct {
	service *authsvc.Service
}

func NewHandler(service *authsvc.Service) *Handler {
	return &Handler{service: service}
}

type resetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type resetConfirmRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	auth := r.Group("/auth")
	{
		auth.POST("/doctor/register", h.RegisterDoctor)
		auth.POST("/doctor/login", h.LoginDoctor)
		auth.POST("/doctor/reset-password", h.RequestDoctorReset)
		auth.POST("/patient/register", h.RegisterPatient)
		auth.POST("/patient/login", h.LoginPatient)
		auth.POST("/patient/reset-password", h.RequestPatientReset)
		auth.POST("/reset-password/confirm", h.ConfirmReset)
	}
}

func (h *Handler) RegisterDoctor(c *gin.Context) {
	var req model.RegisterDoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BadRequest(c, err)
		return
	}

	resp, err := h.service.RegisterDoctor(c.Request.Context(), &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(resp))
}

func (h *Handler) LoginDoctor(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BadRequest(c, err)
		return
	}

	resp, err := h.service.LoginDoctor(c.Request.Context(), &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(resp))
}

func (h *Handler) RegisterPatient(c *gin.Context) {
	var req model.RegisterPatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BadRequest(c, err)
		return
	}

	resp, err := h.service.RegisterPatient(c.Request.Context(), &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(resp))
}

func (h *Handler) LoginPatient(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BadRequest(c, err)
		return
	}

	resp, err := h.service.LoginPatient(c.Request.Context(), &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(resp))
}

func (h *Handler) RequestDoctorReset(c *gin.Context) {
	h.requestReset(c, pkgauth.RoleDoctor)
}

func (h *Handler) RequestPatientReset(c *gin.Context) {
	h.requestReset(c, pkgauth.RolePatient)
}

func (h *Handler) requestReset(c *gin.Context, role pkgauth.Role) {
	var req resetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BadRequest(c, err)
		return
	}

	if err := h.service.RequestPasswordReset(c.Request.Context(), req.Email, role); err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) ConfirmReset(c *gin.Context) {
	var req resetConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BadRequest(c, err)
		return
	}

	if err := h.service.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}
