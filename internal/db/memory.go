package db

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/grievance_desk/backend/internal/models"
)

// MemoryStore keeps everything in process. It backs the server when no
// DATABASE_URL is configured and serves as the fake in tests. A single
// mutex guards all state, so MutateGrievance is atomic per record.
type MemoryStore struct {
	mu         sync.Mutex
	grievances map[string]models.Grievance
	units      []models.Unit
	officers   map[string]models.Officer
	runs       []models.Run
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		grievances: map[string]models.Grievance{},
		officers:   map[string]models.Officer{},
	}
}

func (m *MemoryStore) Ping(ctx context.Context) error { return nil }

func (m *MemoryStore) Close() {}

func (m *MemoryStore) CreateGrievance(ctx context.Context, g models.Grievance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.grievances[g.ID]; exists {
		return fmt.Errorf("grievance %s already exists", g.ID)
	}
	m.grievances[g.ID] = g.Clone()
	return nil
}

func (m *MemoryStore) GetGrievance(ctx context.Context, id string) (models.Grievance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.grievances[id]
	if !ok {
		return models.Grievance{}, models.ErrNotFound
	}
	return g.Clone(), nil
}

func (m *MemoryStore) MutateGrievance(ctx context.Context, id string, fn func(g *models.Grievance) error) (models.Grievance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.grievances[id]
	if !ok {
		return models.Grievance{}, models.ErrNotFound
	}
	working := current.Clone()
	if err := fn(&working); err != nil {
		return models.Grievance{}, err
	}
	m.grievances[id] = working.Clone()
	return working, nil
}

func (m *MemoryStore) ListUnassigned(ctx context.Context) ([]models.Grievance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Grievance
	for _, g := range m.grievances {
		if g.Status == models.StatusPending && g.AssignedOfficer == nil {
			out = append(out, g.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemoryStore) ListGrievances(ctx context.Context, f ListFilter) ([]models.Grievance, error) {
	f = f.Normalized()
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Grievance
	for _, g := range m.grievances {
		if f.Status != "" && g.Status != f.Status {
			continue
		}
		if f.Category != "" && g.Category != f.Category {
			continue
		}
		if f.Unit != "" && g.Unit != f.Unit {
			continue
		}
		if f.Officer != "" && (g.AssignedOfficer == nil || *g.AssignedOfficer != f.Officer) {
			continue
		}
		out = append(out, g.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if f.Offset >= len(out) {
		return []models.Grievance{}, nil
	}
	out = out[f.Offset:]
	if len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *MemoryStore) CountByOfficerAndStatus(ctx context.Context, officerID string, statuses ...models.Status) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, g := range m.grievances {
		if g.AssignedOfficer == nil || *g.AssignedOfficer != officerID {
			continue
		}
		for _, s := range statuses {
			if g.Status == s {
				n++
				break
			}
		}
	}
	return n, nil
}

func (m *MemoryStore) AverageRating(ctx context.Context, officerID string) (float64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sum, n := 0, 0
	for _, g := range m.grievances {
		if g.AssignedOfficer == nil || *g.AssignedOfficer != officerID || g.Status != models.StatusResolved {
			continue
		}
		if g.Feedback == nil || g.Feedback.Rating <= 0 {
			continue
		}
		sum += g.Feedback.Rating
		n++
	}
	if n == 0 {
		return 0, false, nil
	}
	return float64(sum) / float64(n), true, nil
}

func (m *MemoryStore) CategoryResolvedBreakdown(ctx context.Context, officerID string) (map[models.Category]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[models.Category]int{}
	for _, g := range m.grievances {
		if g.AssignedOfficer != nil && *g.AssignedOfficer == officerID && g.Status == models.StatusResolved {
			out[g.Category]++
		}
	}
	return out, nil
}

func (m *MemoryStore) UpsertUnit(ctx context.Context, u models.Unit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u = cloneUnit(u)
	for i := range m.units {
		if m.units[i].Code == u.Code {
			m.units[i] = u
			return nil
		}
	}
	m.units = append(m.units, u)
	return nil
}

// UpsertOfficer stores the officer and appends it to its unit's roster if
// it is not there yet.
func (m *MemoryStore) UpsertOfficer(ctx context.Context, o models.Officer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.officers[o.ID] = o
	for i := range m.units {
		if m.units[i].Code != o.Unit {
			continue
		}
		for _, id := range m.units[i].Officers {
			if id == o.ID {
				return nil
			}
		}
		m.units[i].Officers = append(m.units[i].Officers, o.ID)
		return nil
	}
	return fmt.Errorf("unit %s not found", o.Unit)
}

func (m *MemoryStore) UnitForCategory(ctx context.Context, category models.Category) (models.Unit, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var (
		best  models.Unit
		found bool
	)
	for _, u := range m.units {
		if u.Active && u.Accepts(category) && (!found || u.Code < best.Code) {
			best, found = u, true
		}
	}
	if !found {
		return models.Unit{}, false, nil
	}
	return cloneUnit(best), true, nil
}

func (m *MemoryStore) ActiveOfficers(ctx context.Context, unitCode string) ([]models.Officer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Officer
	for _, u := range m.units {
		if u.Code != unitCode {
			continue
		}
		for _, id := range u.Officers {
			o, ok := m.officers[id]
			if ok && o.Active && o.Unit == unitCode {
				out = append(out, o)
			}
		}
	}
	return out, nil
}

func (m *MemoryStore) Officer(ctx context.Context, officerID string) (models.Officer, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.officers[officerID]
	return o, ok, nil
}

func (m *MemoryStore) ListUnits(ctx context.Context) ([]models.Unit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Unit, 0, len(m.units))
	for _, u := range m.units {
		out = append(out, cloneUnit(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func cloneUnit(u models.Unit) models.Unit {
	u.Categories = append([]models.Category{}, u.Categories...)
	u.Officers = append([]string{}, u.Officers...)
	return u
}

func (m *MemoryStore) ListOfficers(ctx context.Context, unitCode string) ([]models.Officer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Officer{}
	for _, o := range m.officers {
		if unitCode == "" || o.Unit == unitCode {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) CreateRun(ctx context.Context, status string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.NewString()
	m.runs = append(m.runs, models.Run{ID: id, StartedAt: time.Now().UTC(), Status: status})
	return id, nil
}

func (m *MemoryStore) FinishRun(ctx context.Context, runID string, status string, summary []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.runs {
		if m.runs[i].ID == runID {
			now := time.Now().UTC()
			m.runs[i].Status = status
			m.runs[i].Summary = summary
			m.runs[i].FinishedAt = &now
			return nil
		}
	}
	return models.ErrNotFound
}

func (m *MemoryStore) GetLatestRun(ctx context.Context) (models.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.runs) == 0 {
		return models.Run{}, models.ErrNotFound
	}
	return m.runs[len(m.runs)-1], nil
}
