package testutil

import (
	"time"

	"github.com/alexanderramin/noteline/internal/domain"
	"github.com/google/uuid"
)

// Day returns the given calendar date as UTC midnight.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Project options
type ProjectOption func(*domain.Project)

func WithProjectID(id string) ProjectOption {
	return func(p *domain.Project) {
		p.ProjectID = id
	}
}

func WithDescription(d string) ProjectOption {
	return func(p *domain.Project) {
		p.Description = &d
	}
}

func WithTags(tags ...string) ProjectOption {
	return func(p *domain.Project) {
		p.Tags = tags
	}
}

func WithItems(items ...domain.Item) ProjectOption {
	return func(p *domain.Project) {
		p.Items = items
	}
}

func WithCreatedAt(t time.Time) ProjectOption {
	return func(p *domain.Project) {
		p.CreatedAt = t
		p.UpdatedAt = t
	}
}

func NewTestProject(title string, opts ...ProjectOption) *domain.Project {
	now := time.Now().UTC().Round(0)
	p := &domain.Project{
		ProjectID: uuid.New().String(),
		Title:     title,
		Items:     []domain.Item{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Task options
type TaskOption func(*domain.Task)

func WithTaskID(id string) TaskOption {
	return func(t *domain.Task) {
		t.ID = id
	}
}

// WithSpan sets start and end and re-derives the duration.
func WithSpan(start, end time.Time) TaskOption {
	return func(t *domain.Task) {
		t.Start = start
		t.End = end
		t.DurationDays = domain.DurationDays(start, end)
	}
}

func WithTaskStatus(s domain.TaskStatus) TaskOption {
	return func(t *domain.Task) {
		t.Status = s
	}
}

func WithAssignee(a string) TaskOption {
	return func(t *domain.Task) {
		t.Assignee = &a
	}
}

func WithDependencies(ids ...string) TaskOption {
	return func(t *domain.Task) {
		t.Dependencies = ids
	}
}

func WithPriority(p domain.Priority) TaskOption {
	return func(t *domain.Task) {
		t.Priority = &p
	}
}

func WithProgress(pct int) TaskOption {
	return func(t *domain.Task) {
		t.Progress = &pct
	}
}

func WithTaskLabels(labels ...string) TaskOption {
	return func(t *domain.Task) {
		t.Labels = labels
	}
}

func WithTaskNote(path string) TaskOption {
	return func(t *domain.Task) {
		t.NotePath = &path
	}
}

// NewTestTask builds a one-week todo task starting 2025-03-03.
func NewTestTask(title string, opts ...TaskOption) *domain.Task {
	start := Day(2025, time.March, 3)
	end := start.AddDate(0, 0, 7)
	t := &domain.Task{
		ItemBase: domain.ItemBase{
			ID:      uuid.New().String(),
			Title:   title,
			Labels:  []string{},
			History: []domain.HistoryEntry{},
		},
		Start:        start,
		End:          end,
		DurationDays: domain.DurationDays(start, end),
		Status:       domain.TaskTodo,
		Dependencies: []string{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Milestone options
type MilestoneOption func(*domain.Milestone)

func WithMilestoneID(id string) MilestoneOption {
	return func(m *domain.Milestone) {
		m.ID = id
	}
}

func WithMilestoneDate(d time.Time) MilestoneOption {
	return func(m *domain.Milestone) {
		m.Date = d
	}
}

func WithMilestoneStatus(s domain.MilestoneStatus) MilestoneOption {
	return func(m *domain.Milestone) {
		m.Status = &s
	}
}

func WithMilestoneNote(path string) MilestoneOption {
	return func(m *domain.Milestone) {
		m.NotePath = &path
	}
}

func NewTestMilestone(title string, opts ...MilestoneOption) *domain.Milestone {
	m := &domain.Milestone{
		ItemBase: domain.ItemBase{
			ID:      uuid.New().String(),
			Title:   title,
			Labels:  []string{},
			History: []domain.HistoryEntry{},
		},
		Date: Day(2025, time.April, 1),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}
