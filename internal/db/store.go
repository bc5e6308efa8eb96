package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/grievance_desk/backend/internal/models"
)

type Store struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

func (s *Store) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

const grievanceColumns = `id, title, description, category, priority, status, citizen_id,
	assigned_officer, unit, triage, feedback_rating, feedback_comment, feedback_at,
	resolution_time_hours, created_at, updated_at, resolved_at`

func scanGrievance(row pgx.Row) (models.Grievance, error) {
	var (
		g               models.Grievance
		triage          []byte
		feedbackRating  *int
		feedbackComment *string
		feedbackAt      *time.Time
	)
	err := row.Scan(&g.ID, &g.Title, &g.Description, &g.Category, &g.Priority, &g.Status, &g.CitizenID,
		&g.AssignedOfficer, &g.Unit, &triage, &feedbackRating, &feedbackComment, &feedbackAt,
		&g.ResolutionTimeHours, &g.CreatedAt, &g.UpdatedAt, &g.ResolvedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Grievance{}, models.ErrNotFound
		}
		return models.Grievance{}, err
	}
	if len(triage) > 0 {
		var t models.TriageResult
		if err := json.Unmarshal(triage, &t); err != nil {
			return models.Grievance{}, fmt.Errorf("decode triage: %w", err)
		}
		g.Triage = &t
	}
	if feedbackRating != nil {
		g.Feedback = &models.Feedback{Rating: *feedbackRating}
		if feedbackComment != nil {
			g.Feedback.Comment = *feedbackComment
		}
		if feedbackAt != nil {
			g.Feedback.SubmittedAt = *feedbackAt
		}
	}
	g.Updates = []models.UpdateEntry{}
	return g, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func loadUpdates(ctx context.Context, q querier, id string) ([]models.UpdateEntry, error) {
	rows, err := q.Query(ctx, `SELECT message, actor, status, created_at FROM grievance_updates WHERE grievance_id = $1 ORDER BY id ASC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.UpdateEntry{}
	for rows.Next() {
		var (
			e      models.UpdateEntry
			status *string
		)
		if err := rows.Scan(&e.Message, &e.Actor, &status, &e.CreatedAt); err != nil {
			return nil, err
		}
		if status != nil {
			st := models.Status(*status)
			e.Status = &st
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func insertUpdates(ctx context.Context, tx pgx.Tx, id string, entries []models.UpdateEntry) error {
	for _, e := range entries {
		var status *string
		if e.Status != nil {
			st := string(*e.Status)
			status = &st
		}
		if _, err := tx.Exec(ctx, `INSERT INTO grievance_updates (grievance_id, message, actor, status, created_at) VALUES ($1,$2,$3,$4,$5)`,
			id, e.Message, e.Actor, status, e.CreatedAt); err != nil {
			return err
		}
	}
	return nil
}

func grievanceArgs(g models.Grievance) ([]any, error) {
	var triage []byte
	if g.Triage != nil {
		b, err := json.Marshal(g.Triage)
		if err != nil {
			return nil, err
		}
		triage = b
	}
	var (
		rating  *int
		comment *string
		at      *time.Time
	)
	if g.Feedback != nil {
		rating, comment, at = &g.Feedback.Rating, &g.Feedback.Comment, &g.Feedback.SubmittedAt
	}
	return []any{g.ID, g.Title, g.Description, string(g.Category), string(g.Priority), string(g.Status), g.CitizenID,
		g.AssignedOfficer, g.Unit, triage, rating, comment, at,
		g.ResolutionTimeHours, g.CreatedAt, g.UpdatedAt, g.ResolvedAt}, nil
}

func (s *Store) CreateGrievance(ctx context.Context, g models.Grievance) error {
	args, err := grievanceArgs(g)
	if err != nil {
		return err
	}
	return s.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `INSERT INTO grievances (`+grievanceColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`, args...); err != nil {
			return err
		}
		return insertUpdates(ctx, tx, g.ID, g.Updates)
	})
}

func (s *Store) GetGrievance(ctx context.Context, id string) (models.Grievance, error) {
	g, err := scanGrievance(s.Pool.QueryRow(ctx, `SELECT `+grievanceColumns+` FROM grievances WHERE id = $1`, id))
	if err != nil {
		return models.Grievance{}, err
	}
	g.Updates, err = loadUpdates(ctx, s.Pool, id)
	if err != nil {
		return models.Grievance{}, err
	}
	return g, nil
}

// MutateGrievance locks the row with SELECT ... FOR UPDATE for the duration
// of fn. Updates are append-only, so only entries fn added are inserted.
func (s *Store) MutateGrievance(ctx context.Context, id string, fn func(g *models.Grievance) error) (models.Grievance, error) {
	var out models.Grievance
	err := s.WithTx(ctx, func(tx pgx.Tx) error {
		g, err := scanGrievance(tx.QueryRow(ctx, `SELECT `+grievanceColumns+` FROM grievances WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		g.Updates, err = loadUpdates(ctx, tx, id)
		if err != nil {
			return err
		}
		existing := len(g.Updates)

		if err := fn(&g); err != nil {
			return err
		}

		args, err := grievanceArgs(g)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE grievances SET
				title = $2, description = $3, category = $4, priority = $5, status = $6, citizen_id = $7,
				assigned_officer = $8, unit = $9, triage = $10, feedback_rating = $11, feedback_comment = $12,
				feedback_at = $13, resolution_time_hours = $14, created_at = $15, updated_at = $16, resolved_at = $17
			WHERE id = $1`, args...); err != nil {
			return err
		}
		if len(g.Updates) > existing {
			if err := insertUpdates(ctx, tx, id, g.Updates[existing:]); err != nil {
				return err
			}
		}
		out = g
		return nil
	})
	return out, err
}

func (s *Store) ListUnassigned(ctx context.Context) ([]models.Grievance, error) {
	rows, err := s.Pool.Query(ctx, `SELECT `+grievanceColumns+` FROM grievances
		WHERE status = $1 AND assigned_officer IS NULL
		ORDER BY created_at ASC, id ASC`, string(models.StatusPending))
	if err != nil {
		return nil, err
	}
	return collectGrievances(rows)
}

func (s *Store) ListGrievances(ctx context.Context, f ListFilter) ([]models.Grievance, error) {
	f = f.Normalized()
	query := `SELECT ` + grievanceColumns + ` FROM grievances`
	var args []any
	var wheres []string
	if f.Status != "" {
		args = append(args, string(f.Status))
		wheres = append(wheres, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.Category != "" {
		args = append(args, string(f.Category))
		wheres = append(wheres, fmt.Sprintf("category = $%d", len(args)))
	}
	if f.Unit != "" {
		args = append(args, f.Unit)
		wheres = append(wheres, fmt.Sprintf("unit = $%d", len(args)))
	}
	if f.Officer != "" {
		args = append(args, f.Officer)
		wheres = append(wheres, fmt.Sprintf("assigned_officer = $%d", len(args)))
	}
	if len(wheres) > 0 {
		query += " WHERE " + strings.Join(wheres, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT $" + fmt.Sprint(len(args)+1) + " OFFSET $" + fmt.Sprint(len(args)+2)
	args = append(args, f.Limit, f.Offset)

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectGrievances(rows)
}

// collectGrievances returns list rows without their update history.
func collectGrievances(rows pgx.Rows) ([]models.Grievance, error) {
	defer rows.Close()
	out := []models.Grievance{}
	for rows.Next() {
		g, err := scanGrievance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *Store) CountByOfficerAndStatus(ctx context.Context, officerID string, statuses ...models.Status) (int, error) {
	values := make([]string, 0, len(statuses))
	for _, st := range statuses {
		values = append(values, string(st))
	}
	var n int
	err := s.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM grievances WHERE assigned_officer = $1 AND status = ANY($2)`, officerID, values).Scan(&n)
	return n, err
}

func (s *Store) AverageRating(ctx context.Context, officerID string) (float64, bool, error) {
	var avg *float64
	err := s.Pool.QueryRow(ctx, `SELECT AVG(feedback_rating)::float8 FROM grievances
		WHERE assigned_officer = $1 AND status = $2 AND feedback_rating IS NOT NULL AND feedback_rating > 0`,
		officerID, string(models.StatusResolved)).Scan(&avg)
	if err != nil {
		return 0, false, err
	}
	if avg == nil {
		return 0, false, nil
	}
	return *avg, true, nil
}

func (s *Store) CategoryResolvedBreakdown(ctx context.Context, officerID string) (map[models.Category]int, error) {
	rows, err := s.Pool.Query(ctx, `SELECT category, COUNT(*) FROM grievances
		WHERE assigned_officer = $1 AND status = $2 GROUP BY category`, officerID, string(models.StatusResolved))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[models.Category]int{}
	for rows.Next() {
		var (
			cat string
			n   int
		)
		if err := rows.Scan(&cat, &n); err != nil {
			return nil, err
		}
		out[models.Category(cat)] = n
	}
	return out, rows.Err()
}

func (s *Store) UpsertUnit(ctx context.Context, u models.Unit) error {
	cats := make([]string, 0, len(u.Categories))
	for _, c := range u.Categories {
		cats = append(cats, string(c))
	}
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO units (code, name, categories, active) VALUES ($1,$2,$3,$4)
		ON CONFLICT (code) DO UPDATE SET
			name = EXCLUDED.name,
			categories = EXCLUDED.categories,
			active = EXCLUDED.active
	`, u.Code, u.Name, cats, u.Active)
	return err
}

func (s *Store) UpsertOfficer(ctx context.Context, o models.Officer) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO officers (id, name, unit, active) VALUES ($1,$2,$3,$4)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			unit = EXCLUDED.unit,
			active = EXCLUDED.active
	`, o.ID, o.Name, o.Unit, o.Active)
	return err
}

func (s *Store) UnitForCategory(ctx context.Context, category models.Category) (models.Unit, bool, error) {
	row := s.Pool.QueryRow(ctx, `SELECT code, name, categories, active FROM units
		WHERE active AND $1 = ANY(categories) ORDER BY code ASC LIMIT 1`, string(category))
	u, err := scanUnit(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Unit{}, false, nil
	}
	if err != nil {
		return models.Unit{}, false, err
	}
	u.Officers, err = s.rosterIDs(ctx, u.Code)
	if err != nil {
		return models.Unit{}, false, err
	}
	return u, true, nil
}

func scanUnit(row pgx.Row) (models.Unit, error) {
	var (
		u    models.Unit
		cats []string
	)
	if err := row.Scan(&u.Code, &u.Name, &cats, &u.Active); err != nil {
		return models.Unit{}, err
	}
	for _, c := range cats {
		u.Categories = append(u.Categories, models.Category(c))
	}
	return u, nil
}

func (s *Store) rosterIDs(ctx context.Context, unitCode string) ([]string, error) {
	officers, err := s.ListOfficers(ctx, unitCode)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(officers))
	for _, o := range officers {
		ids = append(ids, o.ID)
	}
	return ids, nil
}

func (s *Store) ActiveOfficers(ctx context.Context, unitCode string) ([]models.Officer, error) {
	return s.queryOfficers(ctx, `SELECT id, name, unit, active FROM officers WHERE unit = $1 AND active ORDER BY roster_position ASC`, unitCode)
}

// ListOfficers returns officers of one unit in roster order, or all officers
// when unitCode is empty.
func (s *Store) ListOfficers(ctx context.Context, unitCode string) ([]models.Officer, error) {
	if unitCode == "" {
		return s.queryOfficers(ctx, `SELECT id, name, unit, active FROM officers ORDER BY unit ASC, roster_position ASC`)
	}
	return s.queryOfficers(ctx, `SELECT id, name, unit, active FROM officers WHERE unit = $1 ORDER BY roster_position ASC`, unitCode)
}

func (s *Store) queryOfficers(ctx context.Context, query string, args ...any) ([]models.Officer, error) {
	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Officer{}
	for rows.Next() {
		var o models.Officer
		if err := rows.Scan(&o.ID, &o.Name, &o.Unit, &o.Active); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *Store) Officer(ctx context.Context, officerID string) (models.Officer, bool, error) {
	var o models.Officer
	err := s.Pool.QueryRow(ctx, `SELECT id, name, unit, active FROM officers WHERE id = $1`, officerID).Scan(&o.ID, &o.Name, &o.Unit, &o.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Officer{}, false, nil
	}
	if err != nil {
		return models.Officer{}, false, err
	}
	return o, true, nil
}

func (s *Store) ListUnits(ctx context.Context) ([]models.Unit, error) {
	rows, err := s.Pool.Query(ctx, `SELECT code, name, categories, active FROM units ORDER BY code ASC`)
	if err != nil {
		return nil, err
	}
	var out []models.Unit
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, u)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Officers, err = s.rosterIDs(ctx, out[i].Code); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Store) CreateRun(ctx context.Context, status string) (string, error) {
	var id string
	err := s.Pool.QueryRow(ctx, `INSERT INTO runs (status, started_at) VALUES ($1, NOW()) RETURNING id`, status).Scan(&id)
	return id, err
}

func (s *Store) FinishRun(ctx context.Context, runID string, status string, summary []byte) error {
	_, err := s.Pool.Exec(ctx, `UPDATE runs SET status = $1, summary = $2, finished_at = NOW() WHERE id = $3`, status, summary, runID)
	return err
}

func (s *Store) GetLatestRun(ctx context.Context) (models.Run, error) {
	var r models.Run
	err := s.Pool.QueryRow(ctx, `SELECT id, started_at, finished_at, status, summary FROM runs ORDER BY started_at DESC LIMIT 1`).
		Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Status, &r.Summary)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Run{}, models.ErrNotFound
	}
	return r, err
}
