package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/script-select-api/internal/models"
	"github.com/script-select-api/internal/service"
)

// AdminHandler handles roster and catalog management endpoints
type AdminHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(services *service.Services, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		services: services,
		log:      log.With().Str("handler", "admin").Logger(),
	}
}

// RequireAdmin guards admin routes behind an admin session token
func (h *AdminHandler) RequireAdmin(c *gin.Context) {
	token := c.GetHeader("X-Session-Token")
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "X-Session-Token header is required"})
		return
	}

	role, err := h.services.Session.Role(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown session"})
		return
	}
	if role != models.RoleAdmin {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": service.ErrForbidden.Error()})
		return
	}
	c.Next()
}

// Refresh handles POST /v1/admin/refresh
// A fetch failure leaves prior data in place; the 502 is the transient
// notification.
func (h *AdminHandler) Refresh(c *gin.Context) {
	if err := h.services.Sync.Refresh(c.Request.Context()); err != nil {
		h.log.Warn().Err(err).Msg("Refresh failed, keeping prior data")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"scripts": h.services.Catalog.List(c.Request.Context()),
		"users":   h.services.Roster.List(c.Request.Context()),
	})
}

// ListUsers handles GET /v1/admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users := h.services.Roster.List(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"count": len(users),
		"users": users,
	})
}

// CreateUser handles POST /v1/admin/users
func (h *AdminHandler) CreateUser(c *gin.Context) {
	var input service.UserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	view, err := h.services.Roster.Create(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// UpdatePool handles PUT /v1/admin/users/:id/pool
func (h *AdminHandler) UpdatePool(c *gin.Context) {
	var req struct {
		Pool []string `json:"pool"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	view, err := h.services.Roster.UpdatePool(c.Request.Context(), c.Param("id"), req.Pool)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// ListScripts handles GET /v1/admin/scripts
func (h *AdminHandler) ListScripts(c *gin.Context) {
	scripts := h.services.Catalog.List(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"count":   len(scripts),
		"scripts": scripts,
	})
}

// CreateScript handles POST /v1/admin/scripts
func (h *AdminHandler) CreateScript(c *gin.Context) {
	var input service.ScriptInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	view, err := h.services.Catalog.Create(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// UpdateScript handles PUT /v1/admin/scripts/:id
func (h *AdminHandler) UpdateScript(c *gin.Context) {
	var input service.ScriptInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	view, err := h.services.Catalog.Update(c.Request.Context(), c.Param("id"), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
