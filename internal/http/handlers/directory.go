package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/grievance_desk/backend/internal/models"
	"github.com/grievance_desk/backend/internal/service"
)

type ClassifyRequest struct {
	Title       string          `json:"title" validate:"required,max=200"`
	Description string          `json:"description" validate:"max=5000"`
	Category    models.Category `json:"category" validate:"required"`
}

// @Summary Classify text without storing it
// @Tags triage
// @Accept json
// @Produce json
// @Param request body ClassifyRequest true "Text"
// @Success 200 {object} map[string]any
// @Router /api/classify [post]
func (h *Handler) Classify(c *gin.Context) {
	var req ClassifyRequest
	if !h.bind(c, &req) {
		return
	}
	res, err := h.Intake.Analyzer.Classify(req.Title, req.Description, req.Category)
	c.JSON(http.StatusOK, gin.H{
		"triage":      res,
		"defaulted":   err != nil,
		"reason_code": service.ReasonCode(err),
	})
}

// @Summary Process pending grievances
// @Tags process
// @Produce json
// @Param debug query string false "Include samples"
// @Success 200 {object} service.RunSummary
// @Router /api/process [post]
func (h *Handler) Process(c *gin.Context) {
	debug := c.Query("debug")
	summary, err := h.Intake.ProcessPending(c.Request.Context(), debug == "1" || strings.EqualFold(debug, "true"))
	if err != nil {
		h.Logger.Error().Err(err).Msg("processing failed")
		writeError(c, http.StatusInternalServerError, "PROCESSING_ERROR", "Processing failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, summary)
}

// @Summary Latest run
// @Tags runs
// @Produce json
// @Success 200 {object} models.Run
// @Router /api/runs/latest [get]
func (h *Handler) RunsLatest(c *gin.Context) {
	result, err := h.Repo.GetLatestRun(c.Request.Context())
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "No runs found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load run", err.Error())
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) UnitsList(c *gin.Context) {
	items, err := h.Repo.ListUnits(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list units", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) OfficersList(c *gin.Context) {
	items, err := h.Repo.ListOfficers(c.Request.Context(), strings.TrimSpace(c.Query("unit")))
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list officers", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}
