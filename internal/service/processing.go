package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/grievance_desk/backend/internal/models"
	"github.com/grievance_desk/backend/internal/triage"
)

const (
	RunStatusRunning = "RUNNING"
	RunStatusSuccess = "SUCCESS"
	RunStatusFailed  = "FAILED"
)

// IntakeService runs the create-grievance flow: store, classify, record
// triage, auto-assign.
type IntakeService struct {
	Store     GrievanceStore
	Analyzer  triage.Analyzer
	Lifecycle *Lifecycle
	Router    *Router
	Runs      RunStore
	Logger    zerolog.Logger
	Now       func() time.Time
	NewID     func() string
}

type NewGrievance struct {
	Title       string
	Description string
	Category    models.Category
	Priority    models.Priority
	CitizenID   string
}

// SubmitResult describes what happened after the grievance was stored.
// AssignmentReason is the reason code when auto-assignment did not happen.
type SubmitResult struct {
	Grievance        models.Grievance `json:"grievance"`
	Decision         *Decision        `json:"decision,omitempty"`
	AssignmentReason string           `json:"assignment_reason,omitempty"`
	TriageDefaulted  bool             `json:"triage_defaulted"`
}

type RunSummary struct {
	Events  []map[string]any `json:"events"`
	Counts  map[string]any   `json:"counts"`
	Samples []map[string]any `json:"samples,omitempty"`
}

func (s *IntakeService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now()
}

func (s *IntakeService) newID() string {
	if s.NewID == nil {
		return uuid.NewString()
	}
	return s.NewID()
}

// Submit creates a grievance. Once the record is stored the call succeeds;
// triage and assignment problems are reported in the result.
func (s *IntakeService) Submit(ctx context.Context, in NewGrievance) (SubmitResult, error) {
	if !in.Category.Valid() {
		return SubmitResult{}, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, in.Category)
	}
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}
	if in.Priority.Rank() < 0 {
		return SubmitResult{}, fmt.Errorf("%w: unknown priority %q", ErrInvalidInput, in.Priority)
	}
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.CitizenID) == "" {
		return SubmitResult{}, fmt.Errorf("%w: title and citizen are required", ErrInvalidInput)
	}

	now := s.now()
	g := models.Grievance{
		ID:          s.newID(),
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Category:    in.Category,
		Priority:    in.Priority,
		Status:      models.StatusPending,
		CitizenID:   in.CitizenID,
		Updates:     []models.UpdateEntry{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Store.CreateGrievance(ctx, g); err != nil {
		return SubmitResult{}, fmt.Errorf("create grievance: %w", err)
	}

	result := SubmitResult{Grievance: g}
	log := s.Logger.With().Str("grievance_id", g.ID).Logger()

	triaged, defaulted := s.triage(ctx, g, log)
	result.TriageDefaulted = defaulted
	if triaged != nil {
		result.Grievance = *triaged
	}

	decision, err := s.Router.AutoAssign(ctx, g.ID)
	if err != nil {
		result.AssignmentReason = ReasonCode(err)
		return result, nil
	}
	result.Decision = &decision
	if latest, err := s.Store.GetGrievance(ctx, g.ID); err == nil {
		result.Grievance = latest
	}
	return result, nil
}

// Retriage classifies the grievance again and replaces its triage result.
func (s *IntakeService) Retriage(ctx context.Context, id string) (models.Grievance, error) {
	g, err := s.Store.GetGrievance(ctx, id)
	if err != nil {
		return models.Grievance{}, notFound(err, id)
	}
	res, err := s.Analyzer.Classify(g.Title, g.Description, g.Category)
	if err != nil {
		s.Logger.Warn().Err(err).Str("grievance_id", id).Msg("triage defaulted")
	}
	return s.Lifecycle.RecordTriage(ctx, id, res)
}

// triage never fails the caller. A nil grievance means the triage result
// could not be stored.
func (s *IntakeService) triage(ctx context.Context, g models.Grievance, log zerolog.Logger) (*models.Grievance, bool) {
	res, err := s.Analyzer.Classify(g.Title, g.Description, g.Category)
	defaulted := err != nil
	if defaulted {
		log.Warn().Err(err).Str("reason_code", ReasonCode(err)).Msg("triage defaulted")
	}
	updated, err := s.Lifecycle.RecordTriage(ctx, g.ID, res)
	if err != nil {
		log.Error().Err(err).Msg("failed to record triage")
		return nil, defaulted
	}
	return &updated, defaulted
}

// ProcessPending retries auto-assignment for every pending grievance that
// still has no officer. When a RunStore is configured the run and its
// summary are persisted.
func (s *IntakeService) ProcessPending(ctx context.Context, debug bool) (RunSummary, error) {
	var runID string
	if s.Runs != nil {
		id, err := s.Runs.CreateRun(ctx, RunStatusRunning)
		if err != nil {
			return RunSummary{}, fmt.Errorf("create run: %w", err)
		}
		runID = id
	}

	summary, err := s.processPending(ctx, debug)

	if s.Runs != nil {
		status := RunStatusSuccess
		if err != nil {
			status = RunStatusFailed
		}
		b, _ := json.Marshal(summary)
		if finishErr := s.Runs.FinishRun(ctx, runID, status, b); finishErr != nil {
			s.Logger.Error().Err(finishErr).Str("run_id", runID).Msg("failed to finish run")
		}
	}
	return summary, err
}

func (s *IntakeService) processPending(ctx context.Context, debug bool) (RunSummary, error) {
	grievances, err := s.Store.ListUnassigned(ctx)
	if err != nil {
		return RunSummary{}, err
	}

	summary := RunSummary{Counts: map[string]any{}}
	start := time.Now()
	summary.Events = append(summary.Events, map[string]any{
		"type":    "queue_summary",
		"message": "Unassigned grievances ready for routing",
		"count":   len(grievances),
		"time":    s.now(),
	})

	var (
		triagedCount     int
		defaultedCount   int
		assignedCount    int
		unassignedCount  int
		errorCount       int
		unassignedReason = map[string]int{}
	)

	for _, g := range grievances {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
		log := s.Logger.With().Str("grievance_id", g.ID).Logger()

		if g.Triage == nil {
			_, defaulted := s.triage(ctx, g, log)
			triagedCount++
			if defaulted {
				defaultedCount++
			}
		}

		decision, err := s.Router.AutoAssign(ctx, g.ID)
		if err != nil {
			code := ReasonCode(err)
			if code == "INTERNAL_ERROR" {
				errorCount++
				log.Error().Err(err).Msg("auto-assignment failed")
				continue
			}
			if errors.Is(err, ErrAlreadyAssigned) {
				continue
			}
			unassignedCount++
			unassignedReason[code]++
			if debug && len(summary.Samples) < 5 {
				summary.Samples = append(summary.Samples, map[string]any{
					"grievance_id": g.ID,
					"reason_code":  code,
					"reason_text":  err.Error(),
				})
			}
			continue
		}
		assignedCount++
		if debug && len(summary.Samples) < 5 {
			summary.Samples = append(summary.Samples, map[string]any{
				"grievance_id": g.ID,
				"officer_id":   decision.Officer.ID,
				"unit":         decision.Unit.Code,
				"score":        decision.Score,
				"reasoning":    decision.Reasons,
			})
		}
	}

	summary.Events = append(summary.Events, map[string]any{
		"type":      "triage",
		"message":   "Triage complete",
		"count":     triagedCount,
		"defaulted": defaultedCount,
		"time":      s.now(),
	})
	summary.Events = append(summary.Events, map[string]any{
		"type":       "assignment",
		"assigned":   assignedCount,
		"unassigned": unassignedCount,
		"errors":     errorCount,
		"time":       s.now(),
	})
	summary.Events = append(summary.Events, map[string]any{
		"type":       "done",
		"message":    "Processing finished",
		"elapsed_ms": time.Since(start).Milliseconds(),
		"time":       s.now(),
	})

	summary.Counts["grievances_processed"] = len(grievances)
	summary.Counts["triaged"] = triagedCount
	summary.Counts["triage_defaulted"] = defaultedCount
	summary.Counts["assigned"] = assignedCount
	summary.Counts["unassigned"] = unassignedCount
	summary.Counts["errors"] = errorCount
	summary.Counts["top_unassigned_reasons"] = unassignedReason
	return summary, nil
}
