package service

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/grievance_desk/backend/internal/triage"
)

// Backend is the storage a fully wired engine needs.
type Backend interface {
	WorkloadRepository
	UnitDirectory
	GrievanceStore
	RunStore
}

type Options struct {
	Hours       WorkingHours
	Parallelism int
	Logger      zerolog.Logger
	// Now overrides the clock shared by scoring and lifecycle writes.
	Now func() time.Time
}

// NewIntake wires scorer, lifecycle and router around one backend.
func NewIntake(b Backend, analyzer triage.Analyzer, opts Options) *IntakeService {
	scorer := NewScorer(b, opts.Hours, opts.Logger)
	if opts.Now != nil {
		scorer.Now = opts.Now
	}
	lifecycle := &Lifecycle{Store: b, Directory: b, Logger: opts.Logger, Now: opts.Now}
	router := &Router{
		Directory:   b,
		Scorer:      scorer,
		Store:       b,
		Lifecycle:   lifecycle,
		Logger:      opts.Logger,
		Parallelism: opts.Parallelism,
	}
	return &IntakeService{
		Store:     b,
		Analyzer:  analyzer,
		Lifecycle: lifecycle,
		Router:    router,
		Runs:      b,
		Logger:    opts.Logger,
		Now:       opts.Now,
	}
}
