package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/grievance_desk/backend/internal/models"
)

const defaultScoringParallelism = 4

// Decision is the outcome of routing one grievance. Ranking lists every
// scored candidate, best first.
type Decision struct {
	GrievanceID string           `json:"grievance_id"`
	Officer     models.Officer   `json:"officer"`
	Unit        models.Unit      `json:"unit"`
	Score       float64          `json:"score"`
	Confidence  float64          `json:"confidence"`
	Reasons     []string         `json:"reasons"`
	Ranking     []ScoreBreakdown `json:"ranking"`
}

type Router struct {
	Directory   UnitDirectory
	Scorer      OfficerScorer
	Store       GrievanceStore
	Lifecycle   *Lifecycle
	Logger      zerolog.Logger
	Parallelism int
}

// Route picks the best officer for g without writing anything.
func (r *Router) Route(ctx context.Context, g models.Grievance) (Decision, error) {
	unit, ok, err := r.Directory.UnitForCategory(ctx, g.Category)
	if err != nil {
		return Decision{}, fmt.Errorf("resolve unit: %w", err)
	}
	if !ok {
		return Decision{}, fmt.Errorf("%w: %s", ErrNoUnitForCategory, g.Category)
	}

	officers, err := r.Directory.ActiveOfficers(ctx, unit.Code)
	if err != nil {
		return Decision{}, fmt.Errorf("list officers: %w", err)
	}
	if len(officers) == 0 {
		return Decision{}, fmt.Errorf("%w: unit %s", ErrNoOfficersAvailable, unit.Code)
	}

	ranking, err := r.scoreAll(ctx, officers, g)
	if err != nil {
		return Decision{}, err
	}
	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].Total > ranking[j].Total
	})

	best := ranking[0]
	return Decision{
		GrievanceID: g.ID,
		Officer:     best.Officer,
		Unit:        unit,
		Score:       best.Total,
		Confidence:  best.Total / 100,
		Reasons:     best.Reasons,
		Ranking:     ranking,
	}, nil
}

// scoreAll scores candidates concurrently; the result keeps roster order so
// the stable sort afterwards breaks ties by roster position.
func (r *Router) scoreAll(ctx context.Context, officers []models.Officer, g models.Grievance) ([]ScoreBreakdown, error) {
	limit := r.Parallelism
	if limit <= 0 {
		limit = defaultScoringParallelism
	}
	out := make([]ScoreBreakdown, len(officers))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(limit)
	for i, officer := range officers {
		i, officer := i, officer
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			out[i] = r.Scorer.Score(egCtx, officer, g)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("score officers: %w", err)
	}
	return out, nil
}

// AutoAssign routes an unassigned grievance and applies the result. It is
// idempotent: once an officer is set every further call returns
// ErrAlreadyAssigned and changes nothing.
func (r *Router) AutoAssign(ctx context.Context, grievanceID string) (Decision, error) {
	g, err := r.Store.GetGrievance(ctx, grievanceID)
	if err != nil {
		return Decision{}, notFound(err, grievanceID)
	}
	if g.AssignedOfficer != nil {
		return Decision{}, ErrAlreadyAssigned
	}

	decision, err := r.Route(ctx, g)
	if err != nil {
		r.Logger.Info().
			Str("grievance_id", grievanceID).
			Str("reason_code", ReasonCode(err)).
			Err(err).
			Msg("auto-assignment skipped")
		return Decision{}, err
	}

	if _, err := r.Lifecycle.ApplyAssignment(ctx, grievanceID, decision); err != nil {
		if !errors.Is(err, ErrAlreadyAssigned) {
			r.Logger.Error().Err(err).Str("grievance_id", grievanceID).Msg("assignment write failed")
		}
		return Decision{}, err
	}
	r.Logger.Info().
		Str("grievance_id", grievanceID).
		Str("officer_id", decision.Officer.ID).
		Str("unit", decision.Unit.Code).
		Float64("score", decision.Score).
		Msg("grievance auto-assigned")
	return decision, nil
}

// Reassign moves a grievance to an explicitly chosen officer. No scoring is
// done and the status is left alone.
func (r *Router) Reassign(ctx context.Context, grievanceID, officerID string, actor models.Actor) (models.Grievance, error) {
	officer, ok, err := r.Directory.Officer(ctx, officerID)
	if err != nil {
		return models.Grievance{}, fmt.Errorf("lookup officer: %w", err)
	}
	if !ok || !officer.Active {
		return models.Grievance{}, fmt.Errorf("%w: %s", ErrInvalidOfficer, officerID)
	}
	return r.Lifecycle.SetOfficer(ctx, grievanceID, officer, actor)
}

func notFound(err error, id string) error {
	if errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrGrievanceNotFound, id)
	}
	return err
}
