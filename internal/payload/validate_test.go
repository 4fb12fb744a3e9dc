package payload

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ptrStr(s string) *string { return &s }
func ptrInt(i int) *int       { return &i }

var fixedTime = time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

func validMinimalPayload() *ProjectPayload {
	return &ProjectPayload{
		ProjectID: "p1",
		Title:     "Thesis",
		Items: []ItemPayload{
			{ID: "t1", Type: "task", Title: "Draft", Start: ptrStr("2025-03-01"), End: ptrStr("2025-03-05"), Status: ptrStr("todo")},
			{ID: "m1", Type: "milestone", Title: "Submit", Date: ptrStr("2025-04-01")},
		},
		CreatedAt: fixedTime,
		UpdatedAt: fixedTime,
	}
}

func TestValidateProject_ValidMinimal(t *testing.T) {
	errs := ValidateProject(validMinimalPayload())
	assert.Empty(t, errs)
}

func TestValidateProject_MissingRequired(t *testing.T) {
	errs := ValidateProject(&ProjectPayload{})
	msgs := errStrings(errs)
	assert.Contains(t, msgs, "projectId is required")
	assert.Contains(t, msgs, "title is required")
	assert.Contains(t, msgs, "createdAt is required")
	assert.Contains(t, msgs, "updatedAt is required")
}

func TestValidateProject_UpdatedBeforeCreated(t *testing.T) {
	p := validMinimalPayload()
	p.UpdatedAt = p.CreatedAt.Add(-time.Second)
	errs := ValidateProject(p)
	assert.Len(t, errs, 1)
}

func TestValidateProject_ItemErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ItemPayload)
		wantErr string
	}{
		{"missing type", func(it *ItemPayload) { it.Type = "" }, "items[0].type is required"},
		{"unknown type", func(it *ItemPayload) { it.Type = "epic" }, `items[0].type: invalid value "epic"`},
		{"missing start", func(it *ItemPayload) { it.Start = nil }, "items[0].start is required"},
		{"bad end", func(it *ItemPayload) { it.End = ptrStr("05/03/2025") }, "items[0].end: invalid date format"},
		{"end before start", func(it *ItemPayload) { it.End = ptrStr("2025-02-01") }, "must not be before start"},
		{"missing status", func(it *ItemPayload) { it.Status = nil }, "items[0].status is required"},
		{"bad status", func(it *ItemPayload) { it.Status = ptrStr("blocked") }, `items[0].status: invalid value "blocked"`},
		{"bad priority", func(it *ItemPayload) { it.Priority = ptrStr("urgent") }, "items[0].priority"},
		{"progress range", func(it *ItemPayload) { it.Progress = ptrInt(101) }, "must be between 0 and 100"},
		{"date on task", func(it *ItemPayload) { it.Date = ptrStr("2025-03-01") }, "items[0].date is not valid for a task"},
		{"history without time", func(it *ItemPayload) { it.History = []HistoryPayload{{By: "me"}} }, "items[0].history[0].at is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validMinimalPayload()
			tt.mutate(&p.Items[0])
			errs := ValidateProject(p)
			if assert.NotEmpty(t, errs) {
				assert.Contains(t, joinErrs(errs), tt.wantErr)
			}
		})
	}
}

func TestValidateProject_MilestoneErrors(t *testing.T) {
	p := validMinimalPayload()
	p.Items[1].Date = nil
	p.Items[1].Status = ptrStr("late")
	p.Items[1].Start = ptrStr("2025-03-01")

	msg := joinErrs(ValidateProject(p))
	assert.Contains(t, msg, "items[1].date is required")
	assert.Contains(t, msg, `items[1].status: invalid value "late"`)
	assert.Contains(t, msg, "task fields are not valid for a milestone")
}

func TestValidateProject_DuplicateItemID(t *testing.T) {
	p := validMinimalPayload()
	p.Items[1].ID = "t1"
	errs := ValidateProject(p)
	assert.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), `duplicate id "t1"`)
}

func errStrings(errs []error) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Error()
	}
	return out
}

func joinErrs(errs []error) string {
	s := ""
	for _, e := range errs {
		s += e.Error() + "\n"
	}
	return s
}
