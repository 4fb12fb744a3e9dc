package domain

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

type Project struct {
	ProjectID   string
	Title       string
	Description *string
	Items       []Item
	Tags        []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks the project and every contained item for structural
// validity. Item ids must be unique within the project.
func (p *Project) Validate() error {
	var errs []error
	if strings.TrimSpace(p.ProjectID) == "" {
		errs = append(errs, fmt.Errorf("projectId is required"))
	}
	if strings.TrimSpace(p.Title) == "" {
		errs = append(errs, fmt.Errorf("title is required"))
	}
	if !p.CreatedAt.IsZero() && p.UpdatedAt.Before(p.CreatedAt) {
		errs = append(errs, fmt.Errorf("updatedAt is before createdAt"))
	}
	seen := make(map[string]bool, len(p.Items))
	for i, it := range p.Items {
		if it == nil {
			errs = append(errs, fmt.Errorf("items[%d] is nil", i))
			continue
		}
		if err := it.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("items[%d]: %w", i, err))
		}
		id := it.Base().ID
		if seen[id] {
			errs = append(errs, fmt.Errorf("items[%d]: duplicate id %q", i, id))
		}
		seen[id] = true
	}
	return errors.Join(errs...)
}

// FindItem returns the first item with the given id and its index.
func (p *Project) FindItem(id string) (Item, int) {
	for i, it := range p.Items {
		if it.Base().ID == id {
			return it, i
		}
	}
	return nil, -1
}

// Touch bumps UpdatedAt, never letting it fall behind CreatedAt.
func (p *Project) Touch(now time.Time) {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if now.Before(p.CreatedAt) {
		now = p.CreatedAt
	}
	p.UpdatedAt = now
}

// Clone returns a deep copy of the project and its items.
func (p *Project) Clone() *Project {
	out := *p
	out.Description = clonePtr(p.Description)
	out.Tags = slices.Clone(p.Tags)
	if p.Items != nil {
		out.Items = make([]Item, len(p.Items))
		for i, it := range p.Items {
			out.Items[i] = it.Clone()
		}
	}
	return &out
}
