package customers

import (
	"errors"
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
	rg.GET("/customers", h.list)
	rg.POST("/customers", h.create)
	rg.GET("/customers/:id", h.get)
	rg.POST("/customers/:id/toggle", h.toggle)
}

func (h *Handler) create(c *gin.Context) {
	var input CreateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	input.CreatedBy = middleware.ActorIDFromContext(c)
	customer, err := h.Svc.Create(c.Request.Context(), input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond.JSON(c, http.StatusCreated, customer)
}

func (h *Handler) list(c *gin.Context) {
	list, err := h.Svc.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	active := 0
	for _, customer := range list {
		if customer.IsActive {
			active++
		}
	}
	respond.JSON(c, http.StatusOK, gin.H{
		"customers": list,
		"total":     len(list),
		"active":    active,
		"inactive":  len(list) - active,
	})
}

func (h *Handler) get(c *gin.Context) {
	customer, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, customer)
}

func (h *Handler) toggle(c *gin.Context) {
	active, err := h.Svc.ToggleActive(c.Request.Context(), c.Param("id"), middleware.ActorIDFromContext(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"isActive": active})
}

func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "customer not found", nil)
	case errors.Is(err, ErrValidation):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrEmailTaken):
		respond.Error(c, http.StatusConflict, "conflict", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "operation failed", nil)
	}
}
