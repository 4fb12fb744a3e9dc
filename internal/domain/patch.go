package domain

import (
	"errors"
	"slices"
	"strconv"
	"strings"
	"time"
)

// ErrVariantMismatch is returned when a patch is applied to the other item variant.
var ErrVariantMismatch = errors.New("patch does not match item type")

// ItemPatch is a sparse update for one item variant. Nil fields are absent and
// leave the item untouched.
type ItemPatch interface {
	ApplyTo(it Item) error
	// Fields returns the textual value of every field present in the patch.
	Fields() map[string]string
	Target() ItemType
}

// BasePatch carries the optional shared fields. History can only be appended.
type BasePatch struct {
	Title         *string
	NotePath      *string
	Labels        []string
	AppendHistory []HistoryEntry
}

type TaskPatch struct {
	BasePatch
	Start        *time.Time
	End          *time.Time
	DurationDays *int
	Status       *TaskStatus
	Assignee     *string
	Dependencies []string
	Priority     *Priority
	Progress     *int
}

type MilestonePatch struct {
	BasePatch
	Date   *time.Time
	Status *MilestoneStatus
}

func (TaskPatch) Target() ItemType      { return ItemTask }
func (MilestonePatch) Target() ItemType { return ItemMilestone }

func (p BasePatch) applyTo(b *ItemBase) {
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.NotePath != nil {
		b.NotePath = clonePtr(p.NotePath)
	}
	if p.Labels != nil {
		b.Labels = slices.Clone(p.Labels)
	}
	for _, h := range p.AppendHistory {
		b.History = append(b.History, h.Clone())
	}
}

func (p TaskPatch) ApplyTo(it Item) error {
	t, ok := it.(*Task)
	if !ok {
		return ErrVariantMismatch
	}
	p.BasePatch.applyTo(&t.ItemBase)
	if p.Start != nil {
		t.Start = *p.Start
	}
	if p.End != nil {
		t.End = *p.End
	}
	if p.DurationDays != nil {
		t.DurationDays = *p.DurationDays
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Assignee != nil {
		t.Assignee = clonePtr(p.Assignee)
	}
	if p.Dependencies != nil {
		t.Dependencies = slices.Clone(p.Dependencies)
	}
	if p.Priority != nil {
		t.Priority = clonePtr(p.Priority)
	}
	if p.Progress != nil {
		t.Progress = clonePtr(p.Progress)
	}
	return nil
}

func (p MilestonePatch) ApplyTo(it Item) error {
	m, ok := it.(*Milestone)
	if !ok {
		return ErrVariantMismatch
	}
	p.BasePatch.applyTo(&m.ItemBase)
	if p.Date != nil {
		m.Date = *p.Date
	}
	if p.Status != nil {
		m.Status = clonePtr(p.Status)
	}
	return nil
}

func (p BasePatch) fields(out map[string]string) {
	if p.Title != nil {
		out["title"] = *p.Title
	}
	if p.NotePath != nil {
		out["notePath"] = *p.NotePath
	}
	if p.Labels != nil {
		out["labels"] = joinList(p.Labels)
	}
}

func (p TaskPatch) Fields() map[string]string {
	out := make(map[string]string)
	p.BasePatch.fields(out)
	if p.Start != nil {
		out["start"] = FormatDate(*p.Start)
	}
	if p.End != nil {
		out["end"] = FormatDate(*p.End)
	}
	if p.DurationDays != nil {
		out["durationDays"] = strconv.Itoa(*p.DurationDays)
	}
	if p.Status != nil {
		out["status"] = string(*p.Status)
	}
	if p.Assignee != nil {
		out["assignee"] = *p.Assignee
	}
	if p.Dependencies != nil {
		out["dependencies"] = joinList(p.Dependencies)
	}
	if p.Priority != nil {
		out["priority"] = string(*p.Priority)
	}
	if p.Progress != nil {
		out["progress"] = strconv.Itoa(*p.Progress)
	}
	return out
}

func (p MilestonePatch) Fields() map[string]string {
	out := make(map[string]string)
	p.BasePatch.fields(out)
	if p.Date != nil {
		out["date"] = FormatDate(*p.Date)
	}
	if p.Status != nil {
		out["status"] = string(*p.Status)
	}
	return out
}

// FieldValues renders every field of it as text, keyed like ItemPatch.Fields.
// Absent optional fields are omitted.
func FieldValues(it Item) map[string]string {
	b := it.Base()
	out := map[string]string{
		"title":  b.Title,
		"labels": joinList(b.Labels),
	}
	if b.NotePath != nil {
		out["notePath"] = *b.NotePath
	}
	switch v := it.(type) {
	case *Task:
		out["start"] = FormatDate(v.Start)
		out["end"] = FormatDate(v.End)
		out["durationDays"] = strconv.Itoa(v.DurationDays)
		out["status"] = string(v.Status)
		out["dependencies"] = joinList(v.Dependencies)
		if v.Assignee != nil {
			out["assignee"] = *v.Assignee
		}
		if v.Priority != nil {
			out["priority"] = string(*v.Priority)
		}
		if v.Progress != nil {
			out["progress"] = strconv.Itoa(*v.Progress)
		}
	case *Milestone:
		out["date"] = FormatDate(v.Date)
		if v.Status != nil {
			out["status"] = string(*v.Status)
		}
	}
	return out
}

// ChangedFields compares a patch against the current item and returns the
// before/after values of the fields the patch would actually change.
func ChangedFields(it Item, p ItemPatch) (before, after map[string]string) {
	current := FieldValues(it)
	before = make(map[string]string)
	after = make(map[string]string)
	for k, v := range p.Fields() {
		old, had := current[k]
		if had && old == v {
			continue
		}
		before[k] = old
		after[k] = v
	}
	return before, after
}

func joinList(vals []string) string {
	return strings.Join(vals, ", ")
}
