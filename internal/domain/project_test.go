package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func TestProjectValidate_DuplicateItemIDs(t *testing.T) {
	p := &Project{
		ProjectID: "p1",
		Title:     "Thesis",
		Items:     []Item{sampleTask(), sampleTask()},
	}
	err := p.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate id")
}

func TestProjectValidate_RequiresIDAndTitle(t *testing.T) {
	err := (&Project{}).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "projectId is required")
	assert.Contains(t, err.Error(), "title is required")
}

func TestProjectTouch_NeverBeforeCreated(t *testing.T) {
	p := &Project{ProjectID: "p1", Title: "T"}
	p.Touch(testNow)
	assert.Equal(t, testNow, p.CreatedAt)
	assert.Equal(t, testNow, p.UpdatedAt)

	p.Touch(testNow.Add(-time.Hour))
	assert.Equal(t, testNow, p.UpdatedAt)

	later := testNow.Add(time.Minute)
	p.Touch(later)
	assert.Equal(t, later, p.UpdatedAt)
	assert.Equal(t, testNow, p.CreatedAt)
}

func TestProjectFindItem(t *testing.T) {
	m := &Milestone{ItemBase: ItemBase{ID: "m1", Title: "Go live"}}
	p := &Project{Items: []Item{sampleTask(), m}}

	it, idx := p.FindItem("m1")
	assert.Equal(t, 1, idx)
	assert.Same(t, m, it)

	it, idx = p.FindItem("missing")
	assert.Nil(t, it)
	assert.Equal(t, -1, idx)
}

func TestProjectClone_IsDeep(t *testing.T) {
	p := &Project{
		ProjectID:   "p1",
		Title:       "T",
		Description: Ptr("d"),
		Tags:        []string{"a"},
		Items:       []Item{sampleTask()},
	}
	cp := p.Clone()
	cp.Tags[0] = "b"
	*cp.Description = "changed"
	cp.Items[0].Base().Title = "changed"

	assert.Equal(t, "a", p.Tags[0])
	assert.Equal(t, "d", *p.Description)
	assert.Equal(t, "Draft chapter", p.Items[0].Base().Title)
}
