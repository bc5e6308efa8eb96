package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/grievance_desk/backend/internal/db"
	"github.com/grievance_desk/backend/internal/models"
	"github.com/grievance_desk/backend/internal/service"
)

type CreateGrievanceRequest struct {
	Title       string          `json:"title" validate:"required,max=200"`
	Description string          `json:"description" validate:"max=5000"`
	Category    models.Category `json:"category" validate:"required,oneof=infrastructure sanitation water_supply electricity transportation healthcare education police other"`
	Priority    models.Priority `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	CitizenID   string          `json:"citizen_id" validate:"required,max=100"`
}

// @Summary Submit a grievance
// @Description Stores the grievance, triages it and attempts auto-assignment
// @Tags grievances
// @Accept json
// @Produce json
// @Param request body CreateGrievanceRequest true "Grievance"
// @Success 201 {object} service.SubmitResult
// @Failure 400 {object} map[string]any
// @Router /api/grievances [post]
func (h *Handler) CreateGrievance(c *gin.Context) {
	var req CreateGrievanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if req.CitizenID == "" {
		req.CitizenID = actor(c).ID
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	res, err := h.Intake.Submit(c.Request.Context(), service.NewGrievance{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
		CitizenID:   req.CitizenID,
	})
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// @Summary List grievances
// @Tags grievances
// @Produce json
// @Param status query string false "Status"
// @Param category query string false "Category"
// @Param unit query string false "Unit code"
// @Param officer query string false "Officer ID"
// @Success 200 {object} map[string]any
// @Router /api/grievances [get]
func (h *Handler) ListGrievances(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	f := db.ListFilter{
		Status:   models.Status(strings.TrimSpace(c.Query("status"))),
		Category: models.Category(strings.TrimSpace(c.Query("category"))),
		Unit:     strings.TrimSpace(c.Query("unit")),
		Officer:  strings.TrimSpace(c.Query("officer")),
		Limit:    limit,
		Offset:   offset,
	}.Normalized()
	if f.Status != "" && !f.Status.Valid() {
		writeError(c, http.StatusBadRequest, "INVALID_STATUS", "Unknown status", f.Status)
		return
	}

	items, err := h.Repo.ListGrievances(c.Request.Context(), f)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list grievances", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "limit": f.Limit, "offset": f.Offset})
}

func (h *Handler) GrievanceDetails(c *gin.Context) {
	g, ok := h.loadGrievance(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, g)
}

// @Summary Auto-assign a grievance
// @Tags assignment
// @Produce json
// @Param id path string true "Grievance ID"
// @Success 200 {object} service.Decision
// @Failure 409 {object} map[string]any
// @Failure 422 {object} map[string]any
// @Router /api/grievances/{id}/assign [post]
func (h *Handler) AutoAssign(c *gin.Context) {
	decision, err := h.Intake.Router.AutoAssign(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, decision)
}

type ReassignRequest struct {
	OfficerID string `json:"officer_id" validate:"required"`
}

// @Summary Reassign a grievance to a chosen officer
// @Tags assignment
// @Accept json
// @Produce json
// @Param id path string true "Grievance ID"
// @Param request body ReassignRequest true "Officer"
// @Success 200 {object} models.Grievance
// @Router /api/grievances/{id}/reassign [post]
func (h *Handler) Reassign(c *gin.Context) {
	var req ReassignRequest
	if !h.bind(c, &req) {
		return
	}
	g, err := h.Intake.Router.Reassign(c.Request.Context(), c.Param("id"), req.OfficerID, actor(c))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

type StatusRequest struct {
	Status  models.Status `json:"status" validate:"required"`
	Comment string        `json:"comment" validate:"max=2000"`
}

// @Summary Change grievance status
// @Tags lifecycle
// @Accept json
// @Produce json
// @Param id path string true "Grievance ID"
// @Param request body StatusRequest true "Transition"
// @Success 200 {object} models.Grievance
// @Router /api/grievances/{id}/status [post]
func (h *Handler) UpdateStatus(c *gin.Context) {
	var req StatusRequest
	if !h.bind(c, &req) {
		return
	}
	g, err := h.Intake.Lifecycle.ApplyTransition(c.Request.Context(), c.Param("id"), service.Transition{
		Status:  req.Status,
		Comment: strings.TrimSpace(req.Comment),
		Actor:   actor(c),
	})
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

type FeedbackRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment" validate:"max=2000"`
}

// @Summary Rate a resolved grievance
// @Tags lifecycle
// @Accept json
// @Produce json
// @Param id path string true "Grievance ID"
// @Param request body FeedbackRequest true "Feedback"
// @Success 200 {object} models.Grievance
// @Router /api/grievances/{id}/feedback [post]
func (h *Handler) SubmitFeedback(c *gin.Context) {
	var req FeedbackRequest
	if !h.bind(c, &req) {
		return
	}
	citizen := actor(c)
	if citizen.ID == "" {
		writeError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Actor id required", nil)
		return
	}
	g, err := h.Intake.Lifecycle.AttachFeedback(c.Request.Context(), c.Param("id"), citizen.ID, req.Rating, strings.TrimSpace(req.Comment))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (h *Handler) Retriage(c *gin.Context) {
	g, err := h.Intake.Retriage(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

// @Summary Routing preview
// @Description Ranks every candidate officer without assigning
// @Tags assignment
// @Produce json
// @Param id path string true "Grievance ID"
// @Success 200 {object} service.Decision
// @Router /api/grievances/{id}/routing [get]
func (h *Handler) RoutingPreview(c *gin.Context) {
	g, ok := h.loadGrievance(c)
	if !ok {
		return
	}
	decision, err := h.Intake.Router.Route(c.Request.Context(), g)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, decision)
}
