package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	if err := migrateBackfillItemCounts(db); err != nil {
		return fmt.Errorf("backfilling item counts: %w", err)
	}
	return nil
}

// migrateBackfillItemCounts fills item_count for snapshots written before the
// column existed.
func migrateBackfillItemCounts(db *sql.DB) error {
	ctx := context.Background()
	query := `UPDATE projects
		SET item_count = COALESCE(json_array_length(payload, '$.items'), 0)
		WHERE item_count < 0`
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("updating item counts: %w", err)
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS projects (
		id          TEXT PRIMARY KEY,
		title       TEXT NOT NULL,
		payload     TEXT NOT NULL CHECK(json_valid(payload)),
		position    INTEGER NOT NULL DEFAULT 0,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_projects_position ON projects(position)`,

	// Items per snapshot, for listings that should not decode payloads.
	// -1 marks rows that predate the column.
	`ALTER TABLE projects ADD COLUMN item_count INTEGER NOT NULL DEFAULT -1`,

	`CREATE TABLE IF NOT EXISTS note_links (
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		item_id    TEXT NOT NULL,
		note_path  TEXT NOT NULL,
		PRIMARY KEY (project_id, item_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_note_links_path ON note_links(note_path)`,
}
