package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/grievance_desk/backend/internal/db"
	"github.com/grievance_desk/backend/internal/models"
	"github.com/grievance_desk/backend/internal/service"
	"github.com/grievance_desk/backend/internal/triage"
)

var workingTime = time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

type fixture struct {
	store     *db.MemoryStore
	scorer    *service.Scorer
	lifecycle *service.Lifecycle
	router    *service.Router
	intake    *service.IntakeService
	now       time.Time
	seq       int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{store: db.NewMemoryStore(), now: workingTime}
	clock := func() time.Time { return f.now }

	f.scorer = &service.Scorer{
		Workload: f.store,
		Hours:    service.WorkingHours{Start: 9, End: 17, Location: time.UTC},
		Logger:   zerolog.Nop(),
		Now:      clock,
	}
	f.lifecycle = &service.Lifecycle{Store: f.store, Directory: f.store, Logger: zerolog.Nop(), Now: clock}
	f.router = &service.Router{
		Directory: f.store,
		Scorer:    f.scorer,
		Store:     f.store,
		Lifecycle: f.lifecycle,
		Logger:    zerolog.Nop(),
	}

	rules, err := triage.DefaultRuleset()
	require.NoError(t, err)
	f.intake = &service.IntakeService{
		Store:     f.store,
		Analyzer:  triage.NewClassifier(rules).WithClock(clock),
		Lifecycle: f.lifecycle,
		Router:    f.router,
		Runs:      f.store,
		Logger:    zerolog.Nop(),
		Now:       clock,
		NewID: func() string {
			f.seq++
			return fmt.Sprintf("g-%03d", f.seq)
		},
	}
	return f
}

func (f *fixture) addUnit(t *testing.T, code string, categories ...models.Category) {
	t.Helper()
	require.NoError(t, f.store.UpsertUnit(context.Background(), models.Unit{
		Code:       code,
		Name:       code + " unit",
		Categories: categories,
		Active:     true,
	}))
}

func (f *fixture) addOfficer(t *testing.T, id, unit string, active bool) models.Officer {
	t.Helper()
	o := models.Officer{ID: id, Name: "Officer " + id, Unit: unit, Active: active}
	require.NoError(t, f.store.UpsertOfficer(context.Background(), o))
	return o
}

// addGrievance stores a grievance directly, bypassing intake.
func (f *fixture) addGrievance(t *testing.T, category models.Category, status models.Status, officer string) models.Grievance {
	t.Helper()
	f.seq++
	g := models.Grievance{
		ID:        fmt.Sprintf("seed-%03d", f.seq),
		Title:     "seeded",
		Category:  category,
		Priority:  models.PriorityMedium,
		Status:    status,
		CitizenID: "citizen-1",
		Updates:   []models.UpdateEntry{},
		CreatedAt: f.now,
		UpdatedAt: f.now,
	}
	if officer != "" {
		id := officer
		g.AssignedOfficer = &id
	}
	require.NoError(t, f.store.CreateGrievance(context.Background(), g))
	return g
}
