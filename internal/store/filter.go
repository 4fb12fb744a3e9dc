package store

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/alexanderramin/noteline/internal/domain"
)

// ItemFilter narrows a project's items. Criteria are ANDed; an empty
// criterion matches everything. Status, assignee and priority criteria only
// constrain tasks.
type ItemFilter struct {
	Labels     []string // item matches if it carries any of these
	Assignees  []string
	Statuses   []string
	Priorities []domain.Priority
	From       *time.Time // inclusive, compared against the item's date span
	To         *time.Time
	Search     string // case-insensitive substring of the title
}

// IsZero reports whether the filter has no criteria.
func (f ItemFilter) IsZero() bool {
	return len(f.Labels) == 0 && len(f.Assignees) == 0 && len(f.Statuses) == 0 &&
		len(f.Priorities) == 0 && f.From == nil && f.To == nil && f.Search == ""
}

// Match reports whether it satisfies every criterion in f.
func (f ItemFilter) Match(it domain.Item) bool {
	b := it.Base()
	if f.Search != "" && !strings.Contains(strings.ToLower(b.Title), strings.ToLower(f.Search)) {
		return false
	}
	if len(f.Labels) > 0 && !slices.ContainsFunc(f.Labels, func(l string) bool { return slices.Contains(b.Labels, l) }) {
		return false
	}

	var start, end time.Time
	switch v := it.(type) {
	case *domain.Task:
		if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, string(v.Status)) {
			return false
		}
		if len(f.Assignees) > 0 && (v.Assignee == nil || !slices.Contains(f.Assignees, *v.Assignee)) {
			return false
		}
		if len(f.Priorities) > 0 && (v.Priority == nil || !slices.Contains(f.Priorities, *v.Priority)) {
			return false
		}
		start, end = v.Start, v.End
	case *domain.Milestone:
		start, end = v.Date, v.Date
	}

	if f.From != nil && end.Before(*f.From) {
		return false
	}
	if f.To != nil && start.After(*f.To) {
		return false
	}
	return true
}

// FilterItems returns copies of the project's items that match f, in stored order.
func (s *ProjectStore) FilterItems(projectID string, f ItemFilter) ([]domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.projects[projectID]
	if !ok {
		return nil, fmt.Errorf("filtering items of %s: %w", projectID, ErrProjectNotFound)
	}
	out := make([]domain.Item, 0, len(p.Items))
	for _, it := range p.Items {
		if f.Match(it) {
			out = append(out, it.Clone())
		}
	}
	return out, nil
}
