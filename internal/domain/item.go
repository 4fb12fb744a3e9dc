package domain

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"
)

// DateLayout is the calendar-date format used for task and milestone dates.
const DateLayout = "2006-01-02"

// HistoryEntry records one change applied to an item. History is append-only.
type HistoryEntry struct {
	By      string
	At      time.Time
	Changes string
	Before  map[string]string
	After   map[string]string
}

// ItemBase holds the fields shared by every timeline item variant.
type ItemBase struct {
	ID       string
	Title    string
	NotePath *string
	Labels   []string
	History  []HistoryEntry
}

// Item is a timeline item: either *Task or *Milestone.
type Item interface {
	Base() *ItemBase
	Type() ItemType
	Validate() error
	Clone() Item
	sealed()
}

type Task struct {
	ItemBase
	Start        time.Time
	End          time.Time
	DurationDays int
	Status       TaskStatus
	Assignee     *string
	Dependencies []string
	Priority     *Priority
	Progress     *int
}

type Milestone struct {
	ItemBase
	Date   time.Time
	Status *MilestoneStatus
}

// Dependency is a typed edge from a task to one of its predecessors. The task
// model persists only the flat list of target ids; typed edges are derived.
type Dependency struct {
	TargetID string
	Type     DependencyType
}

func (t *Task) Base() *ItemBase      { return &t.ItemBase }
func (m *Milestone) Base() *ItemBase { return &m.ItemBase }

func (*Task) Type() ItemType      { return ItemTask }
func (*Milestone) Type() ItemType { return ItemMilestone }

func (*Task) sealed()      {}
func (*Milestone) sealed() {}

// DependencyEdges returns the task's predecessors as finish-to-start edges.
func (t *Task) DependencyEdges() []Dependency {
	edges := make([]Dependency, 0, len(t.Dependencies))
	for _, id := range t.Dependencies {
		edges = append(edges, Dependency{TargetID: id, Type: FinishToStart})
	}
	return edges
}

// DependsOn reports whether id is among the task's predecessors.
func (t *Task) DependsOn(id string) bool {
	return slices.Contains(t.Dependencies, id)
}

// DurationDays returns the whole-day span between start and end, rounded up.
// The order of the arguments does not matter.
func DurationDays(start, end time.Time) int {
	diff := end.Sub(start)
	if diff < 0 {
		diff = -diff
	}
	return int(math.Ceil(diff.Hours() / 24))
}

// ParseDate parses a YYYY-MM-DD calendar date as UTC midnight.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
}

// FormatDate renders a calendar date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

func (b *ItemBase) validate() error {
	var errs []error
	if strings.TrimSpace(b.ID) == "" {
		errs = append(errs, fmt.Errorf("id is required"))
	}
	if strings.TrimSpace(b.Title) == "" {
		errs = append(errs, fmt.Errorf("title is required"))
	}
	return errors.Join(errs...)
}

func (t *Task) Validate() error {
	errs := []error{t.ItemBase.validate()}
	if t.End.Before(t.Start) {
		errs = append(errs, fmt.Errorf("end %s is before start %s", FormatDate(t.End), FormatDate(t.Start)))
	}
	if !ValidTaskStatuses[t.Status] {
		errs = append(errs, fmt.Errorf("status: invalid value %q", t.Status))
	}
	if t.Priority != nil && !ValidPriorities[*t.Priority] {
		errs = append(errs, fmt.Errorf("priority: invalid value %q", *t.Priority))
	}
	if t.Progress != nil && (*t.Progress < 0 || *t.Progress > 100) {
		errs = append(errs, fmt.Errorf("progress %d must be between 0 and 100", *t.Progress))
	}
	if slices.Contains(t.Dependencies, t.ID) {
		errs = append(errs, fmt.Errorf("task %q depends on itself", t.ID))
	}
	return errors.Join(errs...)
}

func (m *Milestone) Validate() error {
	errs := []error{m.ItemBase.validate()}
	if m.Status != nil && !ValidMilestoneStatuses[*m.Status] {
		errs = append(errs, fmt.Errorf("status: invalid value %q", *m.Status))
	}
	return errors.Join(errs...)
}

func (b ItemBase) clone() ItemBase {
	out := b
	out.NotePath = clonePtr(b.NotePath)
	out.Labels = slices.Clone(b.Labels)
	if b.History != nil {
		out.History = make([]HistoryEntry, len(b.History))
		for i, h := range b.History {
			out.History[i] = h.Clone()
		}
	}
	return out
}

func (t *Task) Clone() Item {
	out := *t
	out.ItemBase = t.ItemBase.clone()
	out.Assignee = clonePtr(t.Assignee)
	out.Dependencies = slices.Clone(t.Dependencies)
	out.Priority = clonePtr(t.Priority)
	out.Progress = clonePtr(t.Progress)
	return &out
}

func (m *Milestone) Clone() Item {
	out := *m
	out.ItemBase = m.ItemBase.clone()
	out.Status = clonePtr(m.Status)
	return &out
}

// Clone returns a deep copy of the entry.
func (h HistoryEntry) Clone() HistoryEntry {
	out := h
	out.Before = cloneMap(h.Before)
	out.After = cloneMap(h.After)
	return out
}

func cloneMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
