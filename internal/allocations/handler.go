package allocations

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"jobtrack-backend/internal/jobs"
	"jobtrack-backend/internal/shared/server/middleware"
	"jobtrack-backend/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/allocations", h.allocate)
	rg.GET("/allocations/:id", h.get)
	rg.POST("/allocations/:id/reassign", h.reassign)
	rg.POST("/allocations/:id/close", h.close)
	rg.GET("/jobs/:systemId/allocations", h.listByJob)
	rg.POST("/jobs/:systemId/process/submit", h.submitProcess)
}

func (h *Handler) allocate(c *gin.Context) {
	var input AllocateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid JSON body", nil)
		return
	}
	input.AssignedBy = middleware.ActorIDFromContext(c)

	allocation, err := h.Svc.Allocate(c.Request.Context(), input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond.JSON(c, http.StatusCreated, allocation)
}

func (h *Handler) get(c *gin.Context) {
	allocation, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, allocation)
}

func (h *Handler) reassign(c *gin.Context) {
	var body struct {
		AssigneeID string `json:"assigneeId"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid JSON body", nil)
		return
	}
	allocation, err := h.Svc.Reassign(c.Request.Context(), c.Param("id"), body.AssigneeID, middleware.ActorIDFromContext(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, allocation)
}

func (h *Handler) close(c *gin.Context) {
	var body struct {
		Outcome string `json:"outcome"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid JSON body", nil)
		return
	}
	if err := h.Svc.Close(c.Request.Context(), c.Param("id"), body.Outcome, middleware.ActorIDFromContext(c)); err != nil {
		h.respondError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"status": "closed"})
}

func (h *Handler) listByJob(c *gin.Context) {
	allocations, err := h.Svc.ListByJob(c.Request.Context(), c.Param("systemId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"allocations": allocations})
}

func (h *Handler) submitProcess(c *gin.Context) {
	if err := h.Svc.CompleteJob(c.Request.Context(), c.Param("systemId"), middleware.ActorIDFromContext(c)); err != nil {
		h.respondError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"status": "completed"})
}

func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, jobs.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "allocation or job not found", nil)
	case errors.Is(err, ErrInvalidWindow), errors.Is(err, ErrInvalidRole):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrDuplicateActiveAllocation),
		errors.Is(err, ErrJobNotInAssignableState),
		errors.Is(err, ErrAllocationNotActive),
		errors.Is(err, jobs.ErrStatusConflict):
		respond.Error(c, http.StatusConflict, "conflict", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "unexpected error", nil)
	}
}
