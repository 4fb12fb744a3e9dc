package repository

import (
	"context"
	"errors"

	"github.com/alexanderramin/noteline/internal/domain"
)

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = errors.New("not found")

// NoteLink ties a note in the vault to the item it mirrors.
type NoteLink struct {
	ProjectID string
	ItemID    string
	NotePath  string
}

// SnapshotRepo stores whole projects as payload documents.
type SnapshotRepo interface {
	// ReplaceAll makes the stored set exactly projects, in order.
	ReplaceAll(ctx context.Context, projects []*domain.Project) error
	LoadAll(ctx context.Context) ([]*domain.Project, error)
	// SaveProject inserts or updates one project and its note links, leaving
	// every other row alone. New projects go to the end of the order.
	SaveProject(ctx context.Context, p *domain.Project) error
	LoadProject(ctx context.Context, id string) (*domain.Project, error)
	FindByNotePath(ctx context.Context, notePath string) (NoteLink, error)
}
