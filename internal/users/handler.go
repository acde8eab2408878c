package users

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jobtrack-backend/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/users", h.listByRole)
	rg.GET("/users/:id", h.get)
	rg.PUT("/users/:id", h.upsert)
}

func (h *Handler) upsert(c *gin.Context) {
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "service unavailable", nil)
		return
	}
	var user User
	if err := c.ShouldBindJSON(&user); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	user.ID = c.Param("id")
	if err := h.Svc.Upsert(c.Request.Context(), user); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}
	respond.JSON(c, http.StatusOK, user)
}

func (h *Handler) listByRole(c *gin.Context) {
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "service unavailable", nil)
		return
	}
	role := Role(c.Query("role"))
	list, err := h.Svc.ListByRole(c.Request.Context(), role)
	if err != nil {
		if !role.Valid() {
			respond.Error(c, http.StatusBadRequest, "invalid_role", "role must be one of marketing, allocator, writer, process", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list users", nil)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"users": list})
}

func (h *Handler) get(c *gin.Context) {
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "service unavailable", nil)
		return
	}
	user, err := h.Svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if err == ErrNotFound {
			respond.Error(c, http.StatusNotFound, "not_found", "user not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load user", nil)
		return
	}
	respond.JSON(c, http.StatusOK, user)
}
