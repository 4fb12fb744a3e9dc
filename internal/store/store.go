// Package store holds the in-memory set of projects and is the only place
// where projects and their items are mutated.
package store

import (
	"cmp"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/alexanderramin/noteline/internal/domain"
	"github.com/alexanderramin/noteline/internal/payload"
)

// ProjectStore maps projectId to Project. All reads hand out deep copies, so
// the only way to change stored state is through the store's own methods.
type ProjectStore struct {
	mu       sync.RWMutex
	projects map[string]*domain.Project
	now      func() time.Time
}

// Option configures a ProjectStore.
type Option func(*ProjectStore)

// WithClock overrides the time source used for createdAt/updatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *ProjectStore) { s.now = now }
}

// New creates an empty ProjectStore.
func New(opts ...Option) *ProjectStore {
	s := &ProjectStore{
		projects: make(map[string]*domain.Project),
		now:      func() time.Time { return time.Now().UTC().Round(0) },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SaveProject inserts or replaces the project under its projectId and bumps
// updatedAt. Last write wins.
func (s *ProjectStore) SaveProject(p *domain.Project) {
	cp := p.Clone()
	s.mu.Lock()
	defer s.mu.Unlock()
	cp.Touch(s.now())
	s.projects[cp.ProjectID] = cp
}

func (s *ProjectStore) GetProject(id string) (*domain.Project, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, false
	}
	return p.Clone(), true
}

// GetProjects returns every project ordered by creation time, then id.
func (s *ProjectStore) GetProjects() []*domain.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *ProjectStore) snapshotLocked() []*domain.Project {
	out := make([]*domain.Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, p.Clone())
	}
	slices.SortFunc(out, func(a, b *domain.Project) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ProjectID, b.ProjectID)
	})
	return out
}

// DeleteProject removes the project and all of its items. It reports whether
// anything was removed.
func (s *ProjectStore) DeleteProject(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[id]; !ok {
		return false
	}
	delete(s.projects, id)
	return true
}

// AddItem appends a copy of it to the project. Item ids must be unique within
// the project.
func (s *ProjectStore) AddItem(projectID string, it domain.Item) error {
	if err := it.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidItem, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[projectID]
	if !ok {
		return fmt.Errorf("adding item to %s: %w", projectID, ErrProjectNotFound)
	}
	id := it.Base().ID
	if existing, _ := p.FindItem(id); existing != nil {
		return fmt.Errorf("adding item %s to %s: %w", id, projectID, ErrDuplicateItem)
	}
	p.Items = append(p.Items, it.Clone())
	p.Touch(s.now())
	return nil
}

// RemoveItem removes the first item matching itemID.
func (s *ProjectStore) RemoveItem(projectID, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[projectID]
	if !ok {
		return fmt.Errorf("removing item from %s: %w", projectID, ErrProjectNotFound)
	}
	_, idx := p.FindItem(itemID)
	if idx < 0 {
		return fmt.Errorf("removing item %s from %s: %w", itemID, projectID, ErrItemNotFound)
	}
	p.Items = slices.Delete(p.Items, idx, idx+1)
	p.Touch(s.now())
	return nil
}

// UpdateItem merges the fields present in patch into the stored item. Fields
// absent from the patch are left untouched. The merged item must still be
// valid; otherwise nothing changes.
func (s *ProjectStore) UpdateItem(projectID, itemID string, patch domain.ItemPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[projectID]
	if !ok {
		return fmt.Errorf("updating item in %s: %w", projectID, ErrProjectNotFound)
	}
	current, idx := p.FindItem(itemID)
	if idx < 0 {
		return fmt.Errorf("updating item %s in %s: %w", itemID, projectID, ErrItemNotFound)
	}

	merged := current.Clone()
	if err := patch.ApplyTo(merged); err != nil {
		return fmt.Errorf("updating item %s in %s: %w", itemID, projectID, err)
	}
	if err := merged.Validate(); err != nil {
		return fmt.Errorf("updating item %s in %s: %w: %w", itemID, projectID, ErrInvalidItem, err)
	}

	p.Items[idx] = merged
	p.Touch(s.now())
	return nil
}

// GetItem looks up an item of either variant by (projectID, itemID).
func (s *ProjectStore) GetItem(projectID, itemID string) (domain.Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.projects[projectID]
	if !ok {
		return nil, false
	}
	it, _ := p.FindItem(itemID)
	if it == nil {
		return nil, false
	}
	return it.Clone(), true
}

// ExportProject serializes a single project. The bool is false when the
// project does not exist.
func (s *ProjectStore) ExportProject(id string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.projects[id]
	if !ok {
		return nil, false
	}
	data, err := payload.EncodeProject(p)
	if err != nil {
		return nil, false
	}
	return data, true
}

// ImportProject decodes a single-project payload and registers it through
// SaveProject. A malformed payload leaves the store unchanged.
func (s *ProjectStore) ImportProject(data []byte) (*domain.Project, error) {
	p, err := payload.DecodeProject(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	s.SaveProject(p)
	saved, _ := s.GetProject(p.ProjectID)
	return saved, nil
}

// SerializeAll encodes the whole store as a JSON array of projects.
func (s *ProjectStore) SerializeAll() ([]byte, error) {
	s.mu.RLock()
	projects := s.snapshotLocked()
	s.mu.RUnlock()
	return payload.EncodeProjects(projects)
}

// LoadAll replaces the store's contents with the decoded payload. Timestamps
// are kept as stored. On failure the current contents are left as they were.
func (s *ProjectStore) LoadAll(data []byte) error {
	projects, err := payload.DecodeProjects(data)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	s.Replace(projects)
	return nil
}

// Replace swaps in a new set of projects without touching their timestamps.
func (s *ProjectStore) Replace(projects []*domain.Project) {
	next := make(map[string]*domain.Project, len(projects))
	for _, p := range projects {
		next[p.ProjectID] = p.Clone()
	}
	s.mu.Lock()
	s.projects = next
	s.mu.Unlock()
}

// Restore puts one project back exactly as given, timestamps included. It is
// how a project reloaded from persistence replaces the in-memory copy.
func (s *ProjectStore) Restore(p *domain.Project) {
	cp := p.Clone()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[cp.ProjectID] = cp
}

// Clear empties the store.
func (s *ProjectStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects = make(map[string]*domain.Project)
}
