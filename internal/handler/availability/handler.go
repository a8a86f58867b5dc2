package availability

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medilink/care-api/pkg/auth"

	"github.com/medilink/care-api/internal/handler"
	"github.com/medilink/care-api/internal/middleware"
	"github.com/medilink/care-api/internal/model"
	availabilitysvc "github.com/medilink/care-api/internal/service/availability"
)

type Handler struct {
	service *availabilitysvc.Service
}

func NewHandler(service *availabilitysvc.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes wires the doctor-only mutation routes onto the
// authenticated group.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authMW *middleware.AuthMiddleware) {
	doctor := r.Group("/availabilities", authMW.RequireRole(auth.RoleDoctor))
	{
		doctor.POST("", h.Create)
		doctor.PATCH("/:id", h.Update)
		doctor.PATCH("/:id/status", h.UpdateStatus)
	}
}

// RegisterPublicRoutes wires the unauthenticated read routes, optionally
// behind the response cache.
func (h *Handler) RegisterPublicRoutes(r *gin.RouterGroup, cache *middleware.ResponseCache) {
	public := r.Group("")
	if cache != nil {
		public.Use(cache.Cache())
	}
	public.GET("/doctors/:doctorId/availabilities", h.ListForDoctor)
	public.GET("/availabilities/:id/slots", h.ListSlots)
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BadRequest(c, err)
		return
	}

	availability, err := h.service.Create(c.Request.Context(), middleware.UserIDFromContext(c), &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(availability))
}

func (h *Handler) ListForDoctor(c *gin.Context) {
	doctorID, ok := handler.ParseUUIDParam(c, "doctorId")
	if !ok {
		return
	}

	list, err := h.service.ListForDoctor(c.Request.Context(), doctorID)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(list))
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := handler.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req model.UpdateAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BadRequest(c, err)
		return
	}

	availability, err := h.service.Update(c.Request.Context(), id, middleware.UserIDFromContext(c), &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(availability))
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := handler.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req model.UpdateAvailabilityStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.BadRequest(c, err)
		return
	}

	availability, err := h.service.UpdateStatus(c.Request.Context(), id, middleware.UserIDFromContext(c), req.Status)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(availability))
}

func (h *Handler) ListSlots(c *gin.Context) {
	id, ok := handler.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	slots, err := h.service.ListAvailableSlots(c.Request.Context(), id)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(slots))
}
