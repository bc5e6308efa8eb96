package service

import (
	"context"

	"github.com/grievance_desk/backend/internal/models"
)

// WorkloadRepository answers the historical questions officer scoring needs.
// Each call may hit the live store; callers do not expect a consistent
// snapshot across calls.
type WorkloadRepository interface {
	CountByOfficerAndStatus(ctx context.Context, officerID string, statuses ...models.Status) (int, error)
	// AverageRating averages feedback ratings over the officer's resolved,
	// rated grievances. ok is false when no such grievance exists.
	AverageRating(ctx context.Context, officerID string) (avg float64, ok bool, err error)
	CategoryResolvedBreakdown(ctx context.Context, officerID string) (map[models.Category]int, error)
}

type UnitDirectory interface {
	// UnitForCategory returns the active unit accepting category.
	UnitForCategory(ctx context.Context, category models.Category) (models.Unit, bool, error)
	// ActiveOfficers returns the unit's active officers in roster order.
	ActiveOfficers(ctx context.Context, unitCode string) ([]models.Officer, error)
	Officer(ctx context.Context, officerID string) (models.Officer, bool, error)
}

// GrievanceStore persists grievances. MutateGrievance is the per-record
// atomicity boundary: fn runs with the record locked, and the record is
// written back only when fn returns nil.
type GrievanceStore interface {
	CreateGrievance(ctx context.Context, g models.Grievance) error
	GetGrievance(ctx context.Context, id string) (models.Grievance, error)
	MutateGrievance(ctx context.Context, id string, fn func(g *models.Grievance) error) (models.Grievance, error)
	// ListUnassigned returns pending grievances without an officer, oldest
	// first.
	ListUnassigned(ctx context.Context) ([]models.Grievance, error)
}

type RunStore interface {
	CreateRun(ctx context.Context, status string) (string, error)
	FinishRun(ctx context.Context, runID string, status string, summary []byte) error
}
