package cli

import (
	"testing"
	"time"

	"github.com/alexanderramin/noteline/internal/domain"
	"github.com/alexanderramin/noteline/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateValue(t *testing.T) {
	var d time.Time
	v := newDateValue(&d)

	assert.Equal(t, "date", v.Type())
	assert.Equal(t, "", v.String())
	assert.Nil(t, v.ptr())

	require.NoError(t, v.Set("2025-03-10"))
	assert.Equal(t, testutil.Day(2025, 3, 10), d)
	assert.Equal(t, "2025-03-10", v.String())
	require.NotNil(t, v.ptr())
	assert.Equal(t, d, *v.ptr())

	assert.ErrorContains(t, v.Set("10/03/2025"), "YYYY-MM-DD")
	assert.Equal(t, testutil.Day(2025, 3, 10), d, "a bad value keeps the previous date")
}

func TestParseEnums(t *testing.T) {
	st, err := parseTaskStatus("In-Progress")
	require.NoError(t, err)
	assert.Equal(t, domain.TaskInProgress, st)
	_, err = parseTaskStatus("pending")
	assert.Error(t, err)

	ms, err := parseMilestoneStatus("completed")
	require.NoError(t, err)
	assert.Equal(t, domain.MilestoneCompleted, ms)
	_, err = parseMilestoneStatus("done")
	assert.Error(t, err)

	p, err := parsePriority("HIGH")
	require.NoError(t, err)
	assert.Equal(t, domain.PriorityHigh, p)
	_, err = parsePriority("urgent")
	assert.Error(t, err)
}

func TestParseProgress(t *testing.T) {
	for _, ok := range []string{"0", "55", "100"} {
		_, err := parseProgress(ok)
		assert.NoError(t, err, ok)
	}
	for _, bad := range []string{"-1", "101", "half", ""} {
		_, err := parseProgress(bad)
		assert.Error(t, err, bad)
	}
}

func TestFormValidators(t *testing.T) {
	assert.NoError(t, validateRequired("x"))
	assert.Error(t, validateRequired("  "))

	assert.NoError(t, validateDate("2025-06-30"))
	assert.Error(t, validateDate("2025-6-30"))

	assert.NoError(t, validateEndAfter("2025-03-01", "2025-03-01"))
	assert.NoError(t, validateEndAfter("", "2025-03-01"), "start not filled in yet")
	assert.ErrorContains(t, validateEndAfter("2025-03-02", "2025-03-01"), "before start")

	assert.NoError(t, validateOptionalPercent(""))
	assert.NoError(t, validateOptionalPercent("100"))
	assert.Error(t, validateOptionalPercent("101"))

	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b ,"))
	assert.Nil(t, splitList(""))
}

func TestTaskInput_ToTask(t *testing.T) {
	task, err := taskInput{
		ID: "t9", Title: " Write docs ", Start: "2025-03-01", End: "2025-03-03",
		Priority: "low", Progress: "0",
	}.toTask()
	require.NoError(t, err)
	assert.Equal(t, "Write docs", task.Title)
	assert.Equal(t, 2, task.DurationDays)
	assert.Equal(t, domain.TaskTodo, task.Status)
	assert.Equal(t, domain.PriorityLow, *task.Priority)
	assert.Equal(t, 0, *task.Progress)
	require.NoError(t, task.Validate())

	_, err = taskInput{Title: "X", Start: "bad", End: "worse", Status: "nope"}.toTask()
	assert.ErrorContains(t, err, "start")
	assert.ErrorContains(t, err, "end")
	assert.ErrorContains(t, err, "invalid task status")
}
