package db

import "context"

const schema = `
CREATE TABLE IF NOT EXISTS units (
	code        TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	categories  TEXT[] NOT NULL DEFAULT '{}',
	active      BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS officers (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	unit            TEXT NOT NULL REFERENCES units(code),
	active          BOOLEAN NOT NULL DEFAULT TRUE,
	roster_position BIGSERIAL
);

CREATE TABLE IF NOT EXISTS grievances (
	id                    TEXT PRIMARY KEY,
	title                 TEXT NOT NULL,
	description           TEXT NOT NULL DEFAULT '',
	category              TEXT NOT NULL,
	priority              TEXT NOT NULL,
	status                TEXT NOT NULL,
	citizen_id            TEXT NOT NULL,
	assigned_officer      TEXT NULL REFERENCES officers(id),
	unit                  TEXT NOT NULL DEFAULT '',
	triage                JSONB NULL,
	feedback_rating       INT NULL,
	feedback_comment      TEXT NULL,
	feedback_at           TIMESTAMPTZ NULL,
	resolution_time_hours INT NULL,
	created_at            TIMESTAMPTZ NOT NULL,
	updated_at            TIMESTAMPTZ NOT NULL,
	resolved_at           TIMESTAMPTZ NULL
);

CREATE INDEX IF NOT EXISTS grievances_officer_status_idx ON grievances (assigned_officer, status);
CREATE INDEX IF NOT EXISTS grievances_unassigned_idx ON grievances (created_at) WHERE assigned_officer IS NULL;

CREATE TABLE IF NOT EXISTS grievance_updates (
	id           BIGSERIAL PRIMARY KEY,
	grievance_id TEXT NOT NULL REFERENCES grievances(id) ON DELETE CASCADE,
	message      TEXT NOT NULL,
	actor        TEXT NULL,
	status       TEXT NULL,
	created_at   TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS grievance_updates_grievance_idx ON grievance_updates (grievance_id, id);

CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	status      TEXT NOT NULL,
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NULL,
	summary     JSONB NULL
);
`

// Migrate creates the tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.Pool.Exec(ctx, schema)
	return err
}
