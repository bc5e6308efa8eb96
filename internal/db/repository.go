package db

import (
	"context"
	"fmt"

	"github.com/grievance_desk/backend/internal/models"
	"github.com/grievance_desk/backend/internal/service"
)

// Repository is everything the service and the HTTP layer need from
// storage. Store (Postgres) and MemoryStore both implement it.
type Repository interface {
	service.WorkloadRepository
	service.UnitDirectory
	service.GrievanceStore
	service.RunStore

	ListGrievances(ctx context.Context, f ListFilter) ([]models.Grievance, error)
	ListUnits(ctx context.Context) ([]models.Unit, error)
	ListOfficers(ctx context.Context, unitCode string) ([]models.Officer, error)
	GetLatestRun(ctx context.Context) (models.Run, error)
	UpsertUnit(ctx context.Context, u models.Unit) error
	UpsertOfficer(ctx context.Context, o models.Officer) error
	Ping(ctx context.Context) error
	Close()
}

type ListFilter struct {
	Status   models.Status
	Category models.Category
	Unit     string
	Officer  string
	Limit    int
	Offset   int
}

// Normalized applies the default and maximum page size.
func (f ListFilter) Normalized() ListFilter {
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// Open returns the Postgres store for databaseURL, migrated, or a seeded
// MemoryStore when the URL is empty. seed also loads the demo directory
// into Postgres.
func Open(ctx context.Context, databaseURL string, seed bool) (Repository, error) {
	if databaseURL == "" {
		m := NewMemoryStore()
		if err := SeedDemo(ctx, m); err != nil {
			return nil, err
		}
		return m, nil
	}
	s, err := New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if seed {
		if err := SeedDemo(ctx, s); err != nil {
			s.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
	}
	return s, nil
}

var (
	_ Repository = (*Store)(nil)
	_ Repository = (*MemoryStore)(nil)
)
