package report

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medilink/care-api/pkg/auth"

	"github.com/medilink/care-api/internal/handler"
	"github.com/medilink/care-api/internal/middleware"
	"github.com/medilink/care-api/internal/model"
	reportsvc "github.com/medilink/care-api/internal/service/report"
)

type Handler struct {
	service *reportsvc.Service
}

func NewHandler(service *reportsvc.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authMW *middleware.AuthMiddleware) {
	patient := r.Group("", authMW.RequireRole(auth.RolePatient))
	{
		patient.POST("/reports", h.Attach)
		patient.GET("/patient/reports", h.ListForPatient)
		patient.GET("/reports/:id/access", h.AccessCandidates)
		patient.PUT("/reports/:id/access", h.ReconcileAccess)
		patient.DELETE("/reports/:id", h.Delete)
	}

	doctor := r.Group("", authMW.RequireRole(auth.RoleDoctor))
	{
		doctor.GET("/doctor/patients/:patientId/reports", h.ListForDoctor)
		doctor.GET("/reports/:id/view", h.View)
	}
}

func (h *Handler) Attach(c *gin.Context) {
	var req model.AttachReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BadRequest(c, err)
		return
	}

	report, err := h.service.Attach(c.Request.Context(), middleware.UserIDFromContext(c), &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(report))
}

func (h *Handler) ListForPatient(c *gin.Context) {
	reports, err := h.service.ListForPatient(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(reports))
}

func (h *Handler) AccessCandidates(c *gin.Context) {
	id, ok := handler.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	candidates, err := h.service.ComputeAccessCandidates(c.Request.Context(), middleware.UserIDFromContext(c), id)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(candidates))
}

func (h *Handler) ReconcileAccess(c *gin.Context) {
	id, ok := handler.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req model.ReconcileReportAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BadRequest(c, err)
		return
	}

	grants, err := h.service.ReconcileAccess(c.Request.Context(), middleware.UserIDFromContext(c), id, req.DoctorsAllowed)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(grants))
}

func (h *Handler) ListForDoctor(c *gin.Context) {
	patientID, ok := handler.ParseUUIDParam(c, "patientId")
	if !ok {
		return
	}

	metas, err := h.service.ListForDoctor(c.Request.Context(), middleware.UserIDFromContext(c), patientID)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(metas))
}

func (h *Handler) View(c *gin.Context) {
	id, ok := handler.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	report, err := h.service.View(c.Request.Context(), middleware.UserIDFromContext(c), id)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(report))
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := handler.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), middleware.UserIDFromContext(c), id); err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}
