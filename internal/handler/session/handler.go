package session

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medilink/care-api/pkg/auth"

	"github.com/medilink/care-api/internal/handler"
	"github.com/medilink/care-api/internal/middleware"
	"github.com/medilink/care-api/internal/model"
	sessionsvc "github.com/medilink/care-api/internal/service/session"
)

type Handler struct {
	service *sessionsvc.Service
}

func NewHandler(service *sessionsvc.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authMW *middleware.AuthMiddleware) {
	patient := r.Group("", authMW.RequireRole(auth.RolePatient))
	{
		patient.POST("/doctors/:doctorId/connect", h.Connect)
		patient.POST("/doctors/:doctorId/disconnect", h.Disconnect)
		patient.GET("/patient/doctors", h.ListConnectedDoctors)
		patient.GET("/patient/doctors/:doctorId", h.GetDoctorProfile)
		patient.GET("/sessions/:id/grants", h.GrantCandidates)
		patient.PUT("/sessions/:id/grants", h.ReconcileGrants)
	}

	doctor := r.Group("", authMW.RequireRole(auth.RoleDoctor))
	{
		doctor.POST("/patients/:patientId/prescriptions", h.AddPrescription)
		doctor.GET("/doctor/patients", h.ListConnectedPatients)
		doctor.GET("/doctor/patients/:patientId", h.GetPatientProfile)
		doctor.GET("/doctor/patients/:patientId/shared-sessions", h.ListSharedSessions)
		doctor.GET("/doctor/dashboard", h.Dashboard)
	}

	// Both roles may read a session; the service decides per principal.
	r.GET("/sessions/:id", h.GetDetail)
}

func (h *Handler) Connect(c *gin.Context) {
	doctorID, ok := handler.ParseUUIDParam(c, "doctorId")
	if !ok {
		return
	}

	session, err := h.service.Connect(c.Request.Context(), middleware.UserIDFromContext(c), doctorID)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(session))
}

func (h *Handler) Disconnect(c *gin.Context) {
	doctorID, ok := handler.ParseUUIDParam(c, "doctorId")
	if !ok {
		return
	}

	if err := h.service.Disconnect(c.Request.Context(), middleware.UserIDFromContext(c), doctorID); err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) AddPrescription(c *gin.Context) {
	patientID, ok := handler.ParseUUIDParam(c, "patientId")
	if !ok {
		return
	}

	var req model.AddPrescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BadRequest(c, err)
		return
	}

	entry, err := h.service.AddPrescription(c.Request.Context(), middleware.UserIDFromContext(c), patientID, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(entry))
}

func (h *Handler) GetDetail(c *gin.Context) {
	id, ok := handler.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	detail, err := h.service.GetDetail(c.Request.Context(), id, middleware.UserIDFromContext(c), middleware.RoleFromContext(c))
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(detail))
}

func (h *Handler) ListConnectedPatients(c *gin.Context) {
	patients, err := h.service.ListConnectedPatients(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(patients))
}

func (h *Handler) ListConnectedDoctors(c *gin.Context) {
	doctors, err := h.service.ListConnectedDoctors(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(doctors))
}

func (h *Handler) GetPatientProfile(c *gin.Context) {
	patientID, ok := handler.ParseUUIDParam(c, "patientId")
	if !ok {
		return
	}

	profile, err := h.service.GetPatientProfile(c.Request.Context(), middleware.UserIDFromContext(c), patientID)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(profile))
}

func (h *Handler) GetDoctorProfile(c *gin.Context) {
	doctorID, ok := handler.ParseUUIDParam(c, "doctorId")
	if !ok {
		return
	}

	profile, err := h.service.GetDoctorProfile(c.Request.Context(), middleware.UserIDFromContext(c), doctorID)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(profile))
}

func (h *Handler) ListSharedSessions(c *gin.Context) {
	patientID, ok := handler.ParseUUIDParam(c, "patientId")
	if !ok {
		return
	}

	shared, err := h.service.ListSharedSessions(c.Request.Context(), middleware.UserIDFromContext(c), patientID)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(shared))
}

func (h *Handler) GrantCandidates(c *gin.Context) {
	id, ok := handler.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	candidates, err := h.service.ComputeGrantCandidates(c.Request.Context(), middleware.UserIDFromContext(c), id)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(candidates))
}

func (h *Handler) ReconcileGrants(c *gin.Context) {
	id, ok := handler.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req model.ReconcileGrantsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BadRequest(c, err)
		return
	}

	grants, err := h.service.ReconcileGrants(c.Request.Context(), middleware.UserIDFromContext(c), id, req.DoctorsAllowed)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(grants))
}

func (h *Handler) Dashboard(c *gin.Context) {
	dashboard, err := h.service.GetDashboard(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(dashboard))
}
