package payload

import (
	"fmt"
	"slices"
	"time"

	"github.com/alexanderramin/noteline/internal/domain"
)

// FromProject converts a domain project into its payload form.
func FromProject(p *domain.Project) ProjectPayload {
	out := ProjectPayload{
		ProjectID:   p.ProjectID,
		Title:       p.Title,
		Description: copyPtr(p.Description),
		Tags:        slices.Clone(p.Tags),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.Items != nil {
		out.Items = make([]ItemPayload, 0, len(p.Items))
	}
	for _, it := range p.Items {
		out.Items = append(out.Items, FromItem(it))
	}
	return out
}

// FromItem converts a single timeline item into its payload form.
func FromItem(it domain.Item) ItemPayload {
	b := it.Base()
	out := ItemPayload{
		ID:       b.ID,
		Type:     string(it.Type()),
		Title:    b.Title,
		NotePath: copyPtr(b.NotePath),
		Labels:   slices.Clone(b.Labels),
	}
	if b.History != nil {
		out.History = make([]HistoryPayload, len(b.History))
		for i, h := range b.History {
			h = h.Clone()
			out.History[i] = HistoryPayload{By: h.By, At: h.At, Changes: h.Changes, Before: h.Before, After: h.After}
		}
	}

	switch v := it.(type) {
	case *domain.Task:
		deps := slices.Clone(v.Dependencies)
		out.Start = domain.Ptr(domain.FormatDate(v.Start))
		out.End = domain.Ptr(domain.FormatDate(v.End))
		out.DurationDays = domain.Ptr(v.DurationDays)
		out.Status = domain.Ptr(string(v.Status))
		out.Assignee = copyPtr(v.Assignee)
		out.Dependencies = &deps
		out.Progress = copyPtr(v.Progress)
		if v.Priority != nil {
			out.Priority = domain.Ptr(string(*v.Priority))
		}
	case *domain.Milestone:
		out.Date = domain.Ptr(domain.FormatDate(v.Date))
		if v.Status != nil {
			out.Status = domain.Ptr(string(*v.Status))
		}
	}
	return out
}

// ToProject converts a validated payload into a domain project.
// Call Validate first; ToProject assumes the payload is well-formed.
func ToProject(p *ProjectPayload) (*domain.Project, error) {
	out := &domain.Project{
		ProjectID:   p.ProjectID,
		Title:       p.Title,
		Description: copyPtr(p.Description),
		Tags:        slices.Clone(p.Tags),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.Items != nil {
		out.Items = make([]domain.Item, 0, len(p.Items))
	}
	for i := range p.Items {
		it, err := ToItem(&p.Items[i])
		if err != nil {
			return nil, fmt.Errorf("items[%d]: %w", i, err)
		}
		out.Items = append(out.Items, it)
	}
	return out, nil
}

// ToItem converts a single item payload into the matching domain variant.
func ToItem(p *ItemPayload) (domain.Item, error) {
	base := domain.ItemBase{
		ID:       p.ID,
		Title:    p.Title,
		NotePath: copyPtr(p.NotePath),
		Labels:   slices.Clone(p.Labels),
	}
	if p.History != nil {
		base.History = make([]domain.HistoryEntry, len(p.History))
		for i, h := range p.History {
			base.History[i] = domain.HistoryEntry{By: h.By, At: h.At, Changes: h.Changes, Before: h.Before, After: h.After}.Clone()
		}
	}

	switch domain.ItemType(p.Type) {
	case domain.ItemTask:
		start, err := parseRequiredDate("start", p.Start)
		if err != nil {
			return nil, err
		}
		end, err := parseRequiredDate("end", p.End)
		if err != nil {
			return nil, err
		}
		t := &domain.Task{
			ItemBase:     base,
			Start:        start,
			End:          end,
			DurationDays: domain.ValueOr(p.DurationDays, domain.DurationDays(start, end)),
			Status:       domain.TaskStatus(domain.ValueOr(p.Status, "")),
			Assignee:     copyPtr(p.Assignee),
			Progress:     copyPtr(p.Progress),
		}
		if p.Dependencies != nil {
			t.Dependencies = slices.Clone(*p.Dependencies)
		}
		if p.Priority != nil {
			t.Priority = domain.Ptr(domain.Priority(*p.Priority))
		}
		return t, nil
	case domain.ItemMilestone:
		date, err := parseRequiredDate("date", p.Date)
		if err != nil {
			return nil, err
		}
		m := &domain.Milestone{ItemBase: base, Date: date}
		if p.Status != nil {
			m.Status = domain.Ptr(domain.MilestoneStatus(*p.Status))
		}
		return m, nil
	default:
		return nil, fmt.Errorf("type: unknown item type %q", p.Type)
	}
}

func parseRequiredDate(field string, s *string) (time.Time, error) {
	if s == nil {
		return time.Time{}, fmt.Errorf("%s is required", field)
	}
	parsed, err := domain.ParseDate(*s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: invalid date format %q (expected YYYY-MM-DD)", field, *s)
	}
	return parsed, nil
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
