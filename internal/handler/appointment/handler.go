package appointment

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/medilink/care-api/pkg/auth"

	"github.com/medilink/care-api/internal/handler"
	"github.com/medilink/care-api/internal/middleware"
	"github.com/medilink/care-api/internal/model"
	appointmentsvc "github.com/medilink/care-api/internal/service/appointment"
)

type Handler struct {
	service *appointmentsvc.Service
}

func NewHandler(service *appointmentsvc.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authMW *middleware.AuthMiddleware) {
	patient := r.Group("", authMW.RequireRole(auth.RolePatient))
	{
		patient.POST("/availabilities/:id/appointments", h.Book)
		patient.DELETE("/appointments/:id", h.Cancel)
		patient.GET("/patient/appointments", h.ListForPatient)
		patient.GET("/patient/appointments/all", h.ListAllForPatient)
	}

	doctor := r.Group("", authMW.RequireRole(auth.RoleDoctor))
	{
		doctor.PATCH("/appointments/:id/status", h.UpdateStatus)
		doctor.GET("/doctor/appointments", h.ListForDoctor)
		doctor.GET("/doctor/appointments/:year/:month/:day", h.ListForDoctorByDate)
	}
}

func (h *Handler) Book(c *gin.Context) {
	availabilityID, ok := handler.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req model.BookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BadRequest(c, err)
		return
	}

	confirmation, err := h.service.Book(c.Request.Context(), middleware.UserIDFromContext(c), availabilityID, req.AppointmentNumber)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(confirmation))
}

func (h *Handler) Cancel(c *gin.Context) {
	id, ok := handler.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.Cancel(c.Request.Context(), id, middleware.UserIDFromContext(c)); err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := handler.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req model.UpdateAppointmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BadRequest(c, err)
		return
	}

	appointment, err := h.service.UpdateStatus(c.Request.Context(), id, middleware.UserIDFromContext(c), req.Status)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(appointment))
}

func (h *Handler) ListForDoctor(c *gin.Context) {
	groups, err := h.service.ListForDoctor(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(groups))
}

func (h *Handler) ListForPatient(c *gin.Context) {
	groups, err := h.service.ListForPatient(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(groups))
}

func (h *Handler) ListAllForPatient(c *gin.Context) {
	todayOnly := c.Query("today") == "true"

	groups, err := h.service.ListAllForPatient(c.Request.Context(), middleware.UserIDFromContext(c), todayOnly)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(groups))
}

func (h *Handler) ListForDoctorByDate(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid year"))
		return
	}
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil || month < 1 || month > 12 {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid month"))
		return
	}
	day, err := strconv.Atoi(c.Param("day"))
	if err != nil || day < 1 || day > 31 {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid day"))
		return
	}

	entries, err := h.service.ListForDoctorByDate(c.Request.Context(), middleware.UserIDFromContext(c), year, time.Month(month), day)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(entries))
}
