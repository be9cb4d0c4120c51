package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
)

// schemaVersion matches the sqlite backend; both apply the same logical
// migrations in order from the stored version.
const schemaVersion = 2

var migrations = map[int]string{
	1: `
CREATE TABLE IF NOT EXISTS worlds (
    id                TEXT PRIMARY KEY,
    studio_id         TEXT DEFAULT '',
    title             TEXT NOT NULL,
    version           TEXT NOT NULL,
    starting_event_id TEXT DEFAULT '',
    updated           BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS scenes (
    id        TEXT PRIMARY KEY,
    world_id  TEXT NOT NULL,
    title     TEXT DEFAULT '',
    event_ids JSONB DEFAULT '[]',
    updated   BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS events (
    id           TEXT PRIMARY KEY,
    world_id     TEXT NOT NULL,
    scene_id     TEXT DEFAULT '',
    character_id TEXT DEFAULT '',
    type         TEXT NOT NULL,
    title        TEXT DEFAULT '',
    content      TEXT DEFAULT '',
    choice_ids   JSONB DEFAULT '[]',
    input_id     TEXT DEFAULT '',
    ending       BOOLEAN NOT NULL DEFAULT FALSE,
    updated      BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS choices (
    id       TEXT PRIMARY KEY,
    world_id TEXT NOT NULL,
    event_id TEXT NOT NULL,
    title    TEXT DEFAULT '',
    updated  BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS inputs (
    id          TEXT PRIMARY KEY,
    world_id    TEXT NOT NULL,
    event_id    TEXT NOT NULL,
    variable_id TEXT NOT NULL,
    updated     BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS paths (
    id               TEXT PRIMARY KEY,
    world_id         TEXT NOT NULL,
    scene_id         TEXT DEFAULT '',
    title            TEXT DEFAULT '',
    origin_id        TEXT NOT NULL,
    destination_id   TEXT NOT NULL,
    destination_type TEXT NOT NULL DEFAULT 'EVENT',
    choice_id        TEXT DEFAULT '',
    input_id         TEXT DEFAULT '',
    conditions_type  TEXT NOT NULL DEFAULT 'ALL',
    updated          BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS conditions (
    id          TEXT PRIMARY KEY,
    world_id    TEXT NOT NULL,
    path_id     TEXT NOT NULL,
    variable_id TEXT NOT NULL,
    operator    TEXT NOT NULL,
    value       TEXT DEFAULT '',
    updated     BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS effects (
    id          TEXT PRIMARY KEY,
    world_id    TEXT NOT NULL,
    path_id     TEXT NOT NULL,
    variable_id TEXT NOT NULL,
    operator    TEXT NOT NULL,
    value       TEXT DEFAULT '',
    updated     BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS variables (
    id            TEXT PRIMARY KEY,
    world_id      TEXT NOT NULL,
    title         TEXT NOT NULL,
    type          TEXT NOT NULL,
    initial_value TEXT DEFAULT '',
    updated       BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS characters (
    id          TEXT PRIMARY KEY,
    world_id    TEXT NOT NULL,
    title       TEXT DEFAULT '',
    description TEXT DEFAULT '',
    updated     BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS live_events (
    id          TEXT PRIMARY KEY,
    world_id    TEXT NOT NULL,
    destination TEXT NOT NULL,
    origin      TEXT DEFAULT '',
    prev_id     TEXT DEFAULT '',
    next_id     TEXT DEFAULT '',
    result      JSONB,
    state       JSONB DEFAULT '{}',
    type        TEXT NOT NULL,
    version     TEXT NOT NULL,
    updated     BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS bookmarks (
    id            TEXT PRIMARY KEY,
    world_id      TEXT NOT NULL,
    title         TEXT DEFAULT '',
    live_event_id TEXT DEFAULT '',
    version       TEXT NOT NULL,
    updated       BIGINT NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_scenes_world ON scenes (world_id);
CREATE INDEX IF NOT EXISTS idx_events_world ON events (world_id);
CREATE INDEX IF NOT EXISTS idx_choices_event ON choices (event_id);
CREATE INDEX IF NOT EXISTS idx_inputs_event ON inputs (event_id);
CREATE INDEX IF NOT EXISTS idx_paths_world ON paths (world_id);
CREATE INDEX IF NOT EXISTS idx_paths_origin ON paths (origin_id);
CREATE INDEX IF NOT EXISTS idx_paths_destination ON paths (destination_id);
CREATE INDEX IF NOT EXISTS idx_paths_choice ON paths (choice_id);
CREATE INDEX IF NOT EXISTS idx_paths_input ON paths (input_id);
CREATE INDEX IF NOT EXISTS idx_conditions_path ON conditions (path_id);
CREATE INDEX IF NOT EXISTS idx_effects_path ON effects (path_id);
CREATE INDEX IF NOT EXISTS idx_variables_world ON variables (world_id);
CREATE INDEX IF NOT EXISTS idx_characters_world ON characters (world_id);
CREATE INDEX IF NOT EXISTS idx_live_events_world ON live_events (world_id);
CREATE INDEX IF NOT EXISTS idx_live_events_world_updated ON live_events (world_id, updated);
CREATE INDEX IF NOT EXISTS idx_bookmarks_world ON bookmarks (world_id);
`,
	2: `
ALTER TABLE worlds ADD COLUMN IF NOT EXISTS designer TEXT DEFAULT '';
CREATE INDEX IF NOT EXISTS idx_live_events_world_version ON live_events (world_id, version);
`,
}

func (c *Client) EnsureSchema(ctx context.Context) error {
	if _, err := c.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS settings (key TEXT PRIMARY KEY, value TEXT NOT NULL)`); err != nil {
		return fmt.Errorf("creating settings table: %w", err)
	}

	current, err := c.currentSchemaVersion(ctx)
	if err != nil {
		return err
	}

	for version := current + 1; version <= schemaVersion; version++ {
		ddl, ok := migrations[version]
		if !ok {
			return fmt.Errorf("missing migration for schema version %d", version)
		}
		if err := c.applyMigration(ctx, version, ddl); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) applyMigration(ctx context.Context, version int, ddl string) error {
	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning migration %d: %w", version, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("migration %d: executing DDL: %w", version, err)
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO settings (key, value) VALUES ('schema_version', $1)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		strconv.Itoa(version),
	); err != nil {
		return fmt.Errorf("migration %d: recording version: %w", version, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing migration %d: %w", version, err)
	}
	return nil
}

func (c *Client) currentSchemaVersion(ctx context.Context) (int, error) {
	var value string
	err := c.pool.QueryRow(ctx, `SELECT value FROM settings WHERE key = 'schema_version'`).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	version, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("parsing schema version %q: %w", value, err)
	}
	return version, nil
}
