package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/grievance_desk/backend/internal/models"
)

const (
	weightWorkload       = 40.0
	weightExperience     = 20.0
	weightPerformance    = 25.0
	weightAvailability   = 10.0
	weightSpecialization = 5.0

	openCaseCapacity       = 10
	experienceCap          = 100
	maxRating              = 5.0
	neutralPerformance     = 0.7
	neutralSpecialization  = 0.5
	neutralWorkloadOnError = 0.5
)

var openStatuses = []models.Status{models.StatusPending, models.StatusInProgress}

// OfficerScorer rates how well an officer fits a grievance.
type OfficerScorer interface {
	Score(ctx context.Context, officer models.Officer, g models.Grievance) ScoreBreakdown
}

// ScoreBreakdown holds the weighted factor values for one officer. It lives
// only as long as the routing decision that produced it.
type ScoreBreakdown struct {
	Officer        models.Officer `json:"officer"`
	Workload       float64        `json:"workload"`
	Experience     float64        `json:"experience"`
	Performance    float64        `json:"performance"`
	Availability   float64        `json:"availability"`
	Specialization float64        `json:"specialization"`
	Total          float64        `json:"total"`
	Reasons        []string       `json:"reasons"`
}

// WorkingHours is the coarse availability window, [Start, End) in the
// location's local hours.
type WorkingHours struct {
	Start    int
	End      int
	Location *time.Location
}

func DefaultWorkingHours() WorkingHours {
	return WorkingHours{Start: 9, End: 17, Location: time.Local}
}

func (w WorkingHours) Contains(t time.Time) bool {
	loc := w.Location
	if loc == nil {
		loc = time.Local
	}
	h := t.In(loc).Hour()
	return h >= w.Start && h < w.End
}

type Scorer struct {
	Workload WorkloadRepository
	Hours    WorkingHours
	Logger   zerolog.Logger
	Now      func() time.Time
}

func NewScorer(repo WorkloadRepository, hours WorkingHours, logger zerolog.Logger) *Scorer {
	return &Scorer{
		Workload: repo,
		Hours:    hours,
		Logger:   logger,
		Now:      time.Now,
	}
}

// Score never fails. A factor whose query errors falls back to its neutral
// value and the failure is logged.
func (s *Scorer) Score(ctx context.Context, officer models.Officer, g models.Grievance) ScoreBreakdown {
	b := ScoreBreakdown{Officer: officer}
	log := s.Logger.With().Str("officer_id", officer.ID).Str("grievance_id", g.ID).Logger()

	open, err := s.Workload.CountByOfficerAndStatus(ctx, officer.ID, openStatuses...)
	if err != nil {
		log.Warn().Err(err).Msg("workload query failed, using neutral value")
		b.Workload = neutralWorkloadOnError * weightWorkload
		b.Reasons = append(b.Reasons, fmt.Sprintf("workload: unknown (%.1f/%.0f)", b.Workload, weightWorkload))
	} else {
		free := math.Max(0, float64(openCaseCapacity-open))
		b.Workload = free / openCaseCapacity * weightWorkload
		b.Reasons = append(b.Reasons, fmt.Sprintf("workload: %d open cases (%.1f/%.0f)", open, b.Workload, weightWorkload))
	}

	resolved, err := s.Workload.CountByOfficerAndStatus(ctx, officer.ID, models.StatusResolved)
	if err != nil {
		log.Warn().Err(err).Msg("experience query failed, using neutral value")
		resolved = 0
	}
	b.Experience = math.Min(float64(resolved)/experienceCap, 1) * weightExperience
	b.Reasons = append(b.Reasons, fmt.Sprintf("experience: %d resolved (%.1f/%.0f)", resolved, b.Experience, weightExperience))

	avg, rated, err := s.Workload.AverageRating(ctx, officer.ID)
	if err != nil {
		log.Warn().Err(err).Msg("rating query failed, using neutral value")
		rated = false
	}
	if rated {
		b.Performance = avg / maxRating * weightPerformance
		b.Reasons = append(b.Reasons, fmt.Sprintf("performance: average rating %.2f (%.1f/%.0f)", avg, b.Performance, weightPerformance))
	} else {
		b.Performance = neutralPerformance * weightPerformance
		b.Reasons = append(b.Reasons, fmt.Sprintf("performance: no ratings yet (%.1f/%.0f)", b.Performance, weightPerformance))
	}

	if s.Hours.Contains(s.now()) {
		b.Availability = weightAvailability
		b.Reasons = append(b.Reasons, fmt.Sprintf("availability: within working hours (%.0f/%.0f)", b.Availability, weightAvailability))
	} else {
		b.Reasons = append(b.Reasons, fmt.Sprintf("availability: outside working hours (0/%.0f)", weightAvailability))
	}

	breakdown, err := s.Workload.CategoryResolvedBreakdown(ctx, officer.ID)
	if err != nil {
		log.Warn().Err(err).Msg("specialization query failed, using neutral value")
		breakdown = nil
	}
	total := 0
	for _, n := range breakdown {
		total += n
	}
	if total == 0 {
		b.Specialization = neutralSpecialization * weightSpecialization
		b.Reasons = append(b.Reasons, fmt.Sprintf("specialization: no history (%.1f/%.0f)", b.Specialization, weightSpecialization))
	} else {
		inCategory := breakdown[g.Category]
		b.Specialization = float64(inCategory) / float64(total) * weightSpecialization
		b.Reasons = append(b.Reasons, fmt.Sprintf("specialization: %d of %d resolved in %s (%.1f/%.0f)", inCategory, total, g.Category, b.Specialization, weightSpecialization))
	}

	b.Total = b.Workload + b.Experience + b.Performance + b.Availability + b.Specialization
	return b
}

func (s *Scorer) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}
