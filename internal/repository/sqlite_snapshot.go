package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path"

	"github.com/alexanderramin/noteline/internal/db"
	"github.com/alexanderramin/noteline/internal/domain"
	"github.com/alexanderramin/noteline/internal/payload"
)

// SQLiteSnapshotRepo keeps one row per project holding its payload JSON, plus
// an index of note paths. Build it on a transaction to get an atomic
// ReplaceAll.
type SQLiteSnapshotRepo struct {
	db db.DBTX
}

func NewSQLiteSnapshotRepo(db db.DBTX) *SQLiteSnapshotRepo {
	return &SQLiteSnapshotRepo{db: db}
}

func (r *SQLiteSnapshotRepo) ReplaceAll(ctx context.Context, projects []*domain.Project) error {
	// note_links rows go with their project via ON DELETE CASCADE.
	if _, err := r.db.ExecContext(ctx, `DELETE FROM projects`); err != nil {
		return fmt.Errorf("clearing projects: %w", err)
	}
	for i, p := range projects {
		if err := r.insert(ctx, p, i); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteSnapshotRepo) insert(ctx context.Context, p *domain.Project, position int) error {
	data, err := payload.EncodeProject(p)
	if err != nil {
		return fmt.Errorf("encoding project %s: %w", p.ProjectID, err)
	}

	query := `INSERT INTO projects (id, title, payload, position, item_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		p.ProjectID,
		p.Title,
		string(data),
		position,
		len(p.Items),
		formatTimestamp(p.CreatedAt),
		formatTimestamp(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting project %s: %w", p.ProjectID, err)
	}
	return r.insertLinks(ctx, p)
}

func (r *SQLiteSnapshotRepo) SaveProject(ctx context.Context, p *domain.Project) error {
	data, err := payload.EncodeProject(p)
	if err != nil {
		return fmt.Errorf("encoding project %s: %w", p.ProjectID, err)
	}

	query := `INSERT INTO projects (id, title, payload, position, item_count, created_at, updated_at)
		VALUES (?, ?, ?, (SELECT COALESCE(MAX(position), -1) + 1 FROM projects), ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			payload = excluded.payload,
			item_count = excluded.item_count,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at`
	_, err = r.db.ExecContext(ctx, query,
		p.ProjectID,
		p.Title,
		string(data),
		len(p.Items),
		formatTimestamp(p.CreatedAt),
		formatTimestamp(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("saving project %s: %w", p.ProjectID, err)
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM note_links WHERE project_id = ?`, p.ProjectID); err != nil {
		return fmt.Errorf("clearing note links of %s: %w", p.ProjectID, err)
	}
	return r.insertLinks(ctx, p)
}

func (r *SQLiteSnapshotRepo) insertLinks(ctx context.Context, p *domain.Project) error {
	for _, it := range p.Items {
		b := it.Base()
		if b.NotePath == nil || *b.NotePath == "" {
			continue
		}
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO note_links (project_id, item_id, note_path) VALUES (?, ?, ?)`,
			p.ProjectID, b.ID, path.Clean(*b.NotePath))
		if err != nil {
			return fmt.Errorf("linking note for item %s: %w", b.ID, err)
		}
	}
	return nil
}

func (r *SQLiteSnapshotRepo) LoadAll(ctx context.Context) ([]*domain.Project, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, payload FROM projects ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	var projects []*domain.Project
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("scanning project: %w", err)
		}
		p, err := payload.DecodeProject([]byte(data))
		if err != nil {
			return nil, fmt.Errorf("decoding project %s: %w", id, err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating projects: %w", err)
	}
	return projects, nil
}

func (r *SQLiteSnapshotRepo) LoadProject(ctx context.Context, id string) (*domain.Project, error) {
	var data string
	err := r.db.QueryRowContext(ctx, `SELECT payload FROM projects WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading project %s: %w", id, err)
	}
	p, err := payload.DecodeProject([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("decoding project %s: %w", id, err)
	}
	return p, nil
}

// FindByNotePath returns the item a note is linked to. When several items
// share a note the earliest project wins.
func (r *SQLiteSnapshotRepo) FindByNotePath(ctx context.Context, notePath string) (NoteLink, error) {
	query := `SELECT l.project_id, l.item_id, l.note_path
		FROM note_links l JOIN projects p ON p.id = l.project_id
		WHERE l.note_path = ?
		ORDER BY p.position, l.item_id
		LIMIT 1`
	var link NoteLink
	err := r.db.QueryRowContext(ctx, query, path.Clean(notePath)).Scan(&link.ProjectID, &link.ItemID, &link.NotePath)
	if errors.Is(err, sql.ErrNoRows) {
		return NoteLink{}, fmt.Errorf("note %s: %w", notePath, ErrNotFound)
	}
	if err != nil {
		return NoteLink{}, fmt.Errorf("finding note link: %w", err)
	}
	return link, nil
}
