package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/script-select-api/internal/selection"
	"github.com/script-select-api/internal/service"
)

// SessionHandler handles selection session endpoints
type SessionHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(services *service.Services, log zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		services: services,
		log:      log.With().Str("handler", "session").Logger(),
	}
}

// Login handles POST /v1/sessions
func (h *SessionHandler) Login(c *gin.Context) {
	var req struct {
		ID string `json:"id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required"})
		return
	}

	view, err := h.services.Session.Login(c.Request.Context(), req.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// Get handles GET /v1/sessions/:token
func (h *SessionHandler) Get(c *gin.Context) {
	view, err := h.services.Session.Get(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Logout handles DELETE /v1/sessions/:token
func (h *SessionHandler) Logout(c *gin.Context) {
	if err := h.services.Session.Logout(c.Request.Context(), c.Param("token")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Library handles GET /v1/sessions/:token/library
// Repeating the request without changing category or q reshuffles the sample
// for unrestricted users.
func (h *SessionHandler) Library(c *gin.Context) {
	category := c.DefaultQuery("category", selection.CategoryAll)
	term := c.Query("q")

	view, err := h.services.Session.Library(c.Request.Context(), c.Param("token"), category, term)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Selection handles GET /v1/sessions/:token/selection
func (h *SessionHandler) Selection(c *gin.Context) {
	scripts, err := h.services.Session.Selection(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":   len(scripts),
		"scripts": scripts,
	})
}

// Toggle handles POST /v1/sessions/:token/toggle
func (h *SessionHandler) Toggle(c *gin.Context) {
	var req struct {
		ScriptID string `json:"script_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.ScriptID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "script_id is required"})
		return
	}

	view, err := h.services.Session.Toggle(c.Request.Context(), c.Param("token"), req.ScriptID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Save handles POST /v1/sessions/:token/save
func (h *SessionHandler) Save(c *gin.Context) {
	var req struct {
		Confirm bool `json:"confirm"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	view, err := h.services.Session.Save(c.Request.Context(), c.Param("token"), req.Confirm)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// respondError maps service errors to HTTP statuses
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrScriptNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, selection.ErrWindowExpired),
		errors.Is(err, selection.ErrQuotaExceeded),
		errors.Is(err, selection.ErrNoPendingChanges),
		errors.Is(err, service.ErrNotInPool),
		errors.Is(err, service.ErrUserExists),
		errors.Is(err, service.ErrReadOnly):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
