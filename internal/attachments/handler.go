package attachments

import (
	"errors"
	"io"
	"net/http"

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
	rg.POST("/jobs/:systemId/attachments", h.upload)
	rg.GET("/jobs/:systemId/attachments", h.list)
	rg.GET("/attachments/:id/content", h.download)
}

func (h *Handler) upload(c *gin.Context) {
	systemID := c.Param("systemId")
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadBytes)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	actorID := middleware.ActorIDFromContext(c)
	attachment, err := h.Svc.Save(c.Request.Context(), systemID, actorID, fileHeader.Filename, fileHeader.Size, file)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		case errors.Is(err, ErrUnsupportedType):
			respond.Error(c, http.StatusBadRequest, "unsupported_type", err.Error(), nil)
		case errors.Is(err, ErrTooLarge):
			respond.Error(c, http.StatusRequestEntityTooLarge, "too_large", "file exceeds 10MB limit", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to save attachment", nil)
		}
		return
	}
	respond.JSON(c, http.StatusCreated, attachment)
}

func (h *Handler) list(c *gin.Context) {
	list, err := h.Svc.ListByJob(c.Request.Context(), c.Param("systemId"))
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list attachments", nil)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"attachments": list})
}

func (h *Handler) download(c *gin.Context) {
	attachment, body, err := h.Svc.Open(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "attachment not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to open attachment", nil)
		return
	}
	defer body.Close()

	c.Header("Content-Disposition", `attachment; filename="`+attachment.FileName+`"`)
	c.Header("Content-Type", attachment.MimeType)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, body); err != nil {
		// Response already started; nothing useful to send.
		return
	}
}
