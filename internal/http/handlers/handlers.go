package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/grievance_desk/backend/internal/db"
	"github.com/grievance_desk/backend/internal/http/middleware"
	"github.com/grievance_desk/backend/internal/models"
	"github.com/grievance_desk/backend/internal/service"
)

type Handler struct {
	Repo      db.Repository
	Intake    *service.IntakeService
	Validator *validator.Validate
	Logger    zerolog.Logger
}

func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.Repo.Ping(ctx); err != nil {
		writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// bind decodes and validates a JSON body, writing the error response itself.
func (h *Handler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return false
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return false
	}
	return true
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

// writeServiceError maps an engine error to its reason code and status.
func (h *Handler) writeServiceError(c *gin.Context, err error) {
	code := service.ReasonCode(err)
	status := statusForCode(code)
	if status == http.StatusInternalServerError {
		h.Logger.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		writeError(c, status, code, "Internal error", nil)
		return
	}
	writeError(c, status, code, err.Error(), nil)
}

func statusForCode(code string) int {
	switch {
	case code == "GRIEVANCE_NOT_FOUND":
		return http.StatusNotFound
	case code == "ALREADY_ASSIGNED", code == "FEEDBACK_NOT_ALLOWED":
		return http.StatusConflict
	case code == "NOT_SUBMITTER":
		return http.StatusForbidden
	case code == "NO_UNIT_FOR_CATEGORY", code == "NO_OFFICERS_AVAILABLE":
		return http.StatusUnprocessableEntity
	case strings.HasPrefix(code, "INVALID_"):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) loadGrievance(c *gin.Context) (models.Grievance, bool) {
	g, err := h.Repo.GetGrievance(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			writeError(c, http.StatusNotFound, "GRIEVANCE_NOT_FOUND", "Grievance not found", nil)
			return models.Grievance{}, false
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load grievance", err.Error())
		return models.Grievance{}, false
	}
	return g, true
}

func actor(c *gin.Context) models.Actor {
	return middleware.ActorFrom(c)
}
