package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/grievance_desk/backend/internal/models"
	"github.com/grievance_desk/backend/internal/utils"
)

const (
	urgentThreshold = 85
	highThreshold   = 70
)

// Transition is a requested status change. Comment may be empty, in which
// case no update entry is written.
type Transition struct {
	Status  models.Status
	Comment string
	Actor   models.Actor
}

// Lifecycle records status changes and their side effects. It does not
// enforce an order between statuses; authorization is the caller's job.
type Lifecycle struct {
	Store GrievanceStore
	// Directory resolves the acting officer for in-progress self-assignment.
	// Without it no self-assignment happens.
	Directory UnitDirectory
	Logger    zerolog.Logger
	Now       func() time.Time
}

func (l *Lifecycle) now() time.Time {
	if l.Now == nil {
		return time.Now().UTC()
	}
	return l.Now()
}

func (l *Lifecycle) mutate(ctx context.Context, id string, fn func(g *models.Grievance) error) (models.Grievance, error) {
	g, err := l.Store.MutateGrievance(ctx, id, func(g *models.Grievance) error {
		if err := fn(g); err != nil {
			return err
		}
		g.UpdatedAt = l.now()
		return nil
	})
	if err != nil {
		return models.Grievance{}, notFound(err, id)
	}
	return g, nil
}

// RecordTriage replaces the stored triage result and raises the priority
// when the urgency score calls for it. Priority is never lowered.
func (l *Lifecycle) RecordTriage(ctx context.Context, id string, t models.TriageResult) (models.Grievance, error) {
	return l.mutate(ctx, id, func(g *models.Grievance) error {
		tr := t
		tr.Keywords = append([]string{}, t.Keywords...)
		g.Triage = &tr

		target := priorityForUrgency(t.UrgencyScore)
		if target.Rank() > g.Priority.Rank() {
			g.Priority = target
			g.Updates = append(g.Updates, models.UpdateEntry{
				Message:   fmt.Sprintf("Priority escalated to %s (urgency score %d)", target, t.UrgencyScore),
				CreatedAt: l.now(),
			})
		}
		return nil
	})
}

func priorityForUrgency(score int) models.Priority {
	switch {
	case score >= urgentThreshold:
		return models.PriorityUrgent
	case score >= highThreshold:
		return models.PriorityHigh
	default:
		return models.PriorityLow
	}
}

// ApplyAssignment writes a routing decision. The already-assigned check runs
// inside the locked mutation so concurrent callers cannot both win.
func (l *Lifecycle) ApplyAssignment(ctx context.Context, id string, d Decision) (models.Grievance, error) {
	return l.mutate(ctx, id, func(g *models.Grievance) error {
		if g.AssignedOfficer != nil {
			return ErrAlreadyAssigned
		}
		officerID := d.Officer.ID
		status := models.StatusAssigned
		g.AssignedOfficer = &officerID
		g.Unit = d.Unit.Code
		g.Status = status
		g.Updates = append(g.Updates, models.UpdateEntry{
			Message: fmt.Sprintf("Auto-assigned to %s (%s) with %d%% confidence",
				d.Officer.Name, d.Unit.Name, int(math.Round(d.Confidence*100))),
			Status:    &status,
			CreatedAt: l.now(),
		})
		return nil
	})
}

// SetOfficer assigns an explicitly chosen officer and keeps the unit in
// step with the officer's unit.
func (l *Lifecycle) SetOfficer(ctx context.Context, id string, officer models.Officer, actor models.Actor) (models.Grievance, error) {
	return l.mutate(ctx, id, func(g *models.Grievance) error {
		previous := "unassigned"
		if g.AssignedOfficer != nil {
			previous = *g.AssignedOfficer
		}
		officerID := officer.ID
		g.AssignedOfficer = &officerID
		g.Unit = officer.Unit
		g.Updates = append(g.Updates, models.UpdateEntry{
			Message:   fmt.Sprintf("Reassigned from %s to %s (%s)", previous, officer.Name, officer.ID),
			Actor:     actor.Ref(),
			CreatedAt: l.now(),
		})
		return nil
	})
}

// ApplyTransition sets the status and applies its side effects: taking an
// unowned grievance into progress assigns the actor when the directory
// knows it as an active officer of the grievance's unit, and the first
// resolution fixes ResolvedAt and the resolution time for good. An actor
// with the officer role who fails that check gets ErrInvalidOfficer; other
// roles change the status and leave the grievance unowned.
func (l *Lifecycle) ApplyTransition(ctx context.Context, id string, tr Transition) (models.Grievance, error) {
	if !tr.Status.Valid() {
		return models.Grievance{}, fmt.Errorf("%w: %q", ErrInvalidStatus, tr.Status)
	}

	var claim *selfClaim
	if tr.Status == models.StatusInProgress && tr.Actor.ID != "" && tr.Actor.Role != models.RoleCitizen {
		var err error
		if claim, err = l.resolveClaim(ctx, id, tr.Actor); err != nil {
			return models.Grievance{}, err
		}
	}

	return l.mutate(ctx, id, func(g *models.Grievance) error {
		now := l.now()
		g.Status = tr.Status

		if claim != nil && g.AssignedOfficer == nil {
			unit := g.Unit
			if unit == "" {
				unit = claim.categoryUnit
			}
			switch {
			case claim.ok && unit != "" && claim.officer.Unit == unit:
				officerID := claim.officer.ID
				g.AssignedOfficer = &officerID
				g.Unit = claim.officer.Unit
			case tr.Actor.Role == models.RoleOfficer:
				return fmt.Errorf("%w: %s is not an active officer of unit %q", ErrInvalidOfficer, tr.Actor.ID, unit)
			}
		}

		if tr.Status == models.StatusResolved && g.ResolvedAt == nil {
			resolvedAt := now
			hours := utils.HoursBetween(g.CreatedAt, resolvedAt)
			g.ResolvedAt = &resolvedAt
			g.ResolutionTimeHours = &hours
		}

		if tr.Comment != "" {
			status := tr.Status
			g.Updates = append(g.Updates, models.UpdateEntry{
				Message:   tr.Comment,
				Actor:     tr.Actor.Ref(),
				Status:    &status,
				CreatedAt: now,
			})
		}
		return nil
	})
}

// AttachFeedback stores the citizen's rating. The status does not change.
func (l *Lifecycle) AttachFeedback(ctx context.Context, id, citizenID string, rating int, comment string) (models.Grievance, error) {
	if rating < 1 || rating > 5 {
		return models.Grievance{}, fmt.Errorf("%w: got %d", ErrInvalidRating, rating)
	}
	return l.mutate(ctx, id, func(g *models.Grievance) error {
		if g.Status != models.StatusResolved {
			return fmt.Errorf("%w: status is %s", ErrFeedbackNotAllowed, g.Status)
		}
		if g.CitizenID != citizenID {
			return ErrNotSubmitter
		}
		g.Feedback = &models.Feedback{
			Rating:      rating,
			Comment:     comment,
			SubmittedAt: l.now(),
		}
		return nil
	})
}

// selfClaim is what the directory says about an actor taking a grievance.
// Lookups happen before the record is locked.
type selfClaim struct {
	officer      models.Officer
	ok           bool
	categoryUnit string
}

func (l *Lifecycle) resolveClaim(ctx context.Context, id string, actor models.Actor) (*selfClaim, error) {
	if l.Directory == nil {
		return nil, nil
	}
	g, err := l.Store.GetGrievance(ctx, id)
	if err != nil {
		return nil, notFound(err, id)
	}
	c := &selfClaim{}
	officer, found, err := l.Directory.Officer(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("lookup officer: %w", err)
	}
	c.officer, c.ok = officer, found && officer.Active
	unit, found, err := l.Directory.UnitForCategory(ctx, g.Category)
	if err != nil {
		return nil, fmt.Errorf("resolve unit: %w", err)
	}
	if found {
		c.categoryUnit = unit.Code
	}
	return c, nil
}
