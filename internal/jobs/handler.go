package jobs

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

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
	rg.POST("/jobs", h.create)
	rg.POST("/jobs/manual", h.createManual)
	rg.GET("/jobs", h.list)
	rg.GET("/jobs/check-job-id", h.checkJobID)
	rg.GET("/jobs/:systemId", h.get)
	rg.POST("/jobs/:systemId/finalize", h.finalize)
	rg.POST("/jobs/:systemId/summary/accept", h.acceptSummary)
	rg.GET("/jobs/:systemId/summary/versions", h.summaryVersions)
	rg.POST("/jobs/:systemId/select", h.selectWriterTask)
	rg.POST("/jobs/:systemId/final-copy", h.submitFinalCopy)
	rg.POST("/jobs/:systemId/process/select", h.selectProcessTask)
	rg.POST("/jobs/:systemId/hold", h.hold)
	rg.POST("/jobs/:systemId/query", h.query)
	rg.POST("/jobs/:systemId/cancel", h.cancel)
	rg.POST("/jobs/:systemId/resume-writing", h.resumeWriting)
	rg.POST("/jobs/:systemId/resume-process", h.resumeProcess)
}

// RegisterSummaryRoutes attaches the generation route separately so the
// router can rate-limit it.
func (h *Handler) RegisterSummaryRoutes(rg *gin.RouterGroup) {
	rg.POST("/jobs/:systemId/summary", h.requestSummary)
}

func (h *Handler) create(c *gin.Context) {
	var input CreateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	input.CreatedBy = middleware.ActorIDFromContext(c)
	job, err := h.Svc.Create(c.Request.Context(), input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond.JSON(c, http.StatusCreated, job)
}

func (h *Handler) createManual(c *gin.Context) {
	var input ManualCreateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	input.CreatedBy = middleware.ActorIDFromContext(c)
	job, err := h.Svc.CreateManual(c.Request.Context(), input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond.JSON(c, http.StatusCreated, job)
}

func (h *Handler) list(c *gin.Context) {
	status := Status(c.Query("status"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	list, err := h.Svc.List(c.Request.Context(), status, limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"jobs": list})
}

func (h *Handler) checkJobID(c *gin.Context) {
	available, err := h.Svc.CheckJobIDAvailable(c.Request.Context(), c.Query("jobId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"available": available})
}

func (h *Handler) get(c *gin.Context) {
	job, err := h.Svc.Get(c.Request.Context(), c.Param("systemId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, job)
}

func (h *Handler) finalize(c *gin.Context) {
	var input FinalizeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	job, err := h.Svc.Finalize(c.Request.Context(), c.Param("systemId"), input, middleware.ActorIDFromContext(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, job)
}

func (h *Handler) requestSummary(c *gin.Context) {
	record, advanced, err := h.Svc.RequestSummary(c.Request.Context(), c.Param("systemId"), middleware.ActorIDFromContext(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"summary": record, "advanced": advanced})
}

func (h *Handler) acceptSummary(c *gin.Context) {
	if err := h.Svc.AcceptSummary(c.Request.Context(), c.Param("systemId"), middleware.ActorIDFromContext(c)); err != nil {
		h.respondError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"accepted": true})
}

func (h *Handler) summaryVersions(c *gin.Context) {
	versions, err := h.Svc.SummaryVersions(c.Request.Context(), c.Param("systemId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"versions": versions})
}

func (h *Handler) selectWriterTask(c *gin.Context) {
	h.simpleTransition(c, h.Svc.SelectWriterTask)
}

func (h *Handler) submitFinalCopy(c *gin.Context) {
	h.simpleTransition(c, h.Svc.SubmitFinalCopy)
}

func (h *Handler) selectProcessTask(c *gin.Context) {
	h.simpleTransition(c, h.Svc.SelectProcessTask)
}

func (h *Handler) resumeWriting(c *gin.Context) {
	h.simpleTransition(c, h.Svc.ResumeWriting)
}

func (h *Handler) resumeProcess(c *gin.Context) {
	h.simpleTransition(c, h.Svc.ResumeProcess)
}

func (h *Handler) hold(c *gin.Context) {
	h.reasonTransition(c, h.Svc.Hold)
}

func (h *Handler) query(c *gin.Context) {
	h.reasonTransition(c, h.Svc.MarkQuery)
}

func (h *Handler) cancel(c *gin.Context) {
	h.reasonTransition(c, h.Svc.Cancel)
}

func (h *Handler) simpleTransition(c *gin.Context, fn func(ctx context.Context, systemID, performedBy string) error) {
	if err := fn(c.Request.Context(), c.Param("systemId"), middleware.ActorIDFromContext(c)); err != nil {
		h.respondError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) reasonTransition(c *gin.Context, fn func(ctx context.Context, systemID, performedBy, reason string) error) {
	var body struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&body)
	if err := fn(c.Request.Context(), c.Param("systemId"), middleware.ActorIDFromContext(c), body.Reason); err != nil {
		h.respondError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "job not found", nil)
	case errors.Is(err, ErrValidation), errors.Is(err, ErrVersionLimitExceeded):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrJobIDTaken):
		respond.Error(c, http.StatusConflict, "conflict", err.Error(), nil)
	case errors.Is(err, ErrStatusConflict):
		respond.Error(c, http.StatusConflict, "conflict", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "operation failed", nil)
	}
}
