package store

import (
	"testing"
	"time"

	"github.com/alexanderramin/noteline/internal/domain"
	"github.com/alexanderramin/noteline/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func filterStore(t *testing.T) *ProjectStore {
	t.Helper()
	return newStoreWith(t, testutil.NewTestProject("Launch", testutil.WithProjectID("p1"),
		testutil.WithItems(
			testutil.NewTestTask("Write copy",
				testutil.WithTaskID("t1"),
				testutil.WithTaskLabels("docs"),
				testutil.WithAssignee("alex"),
				testutil.WithPriority(domain.PriorityHigh),
				testutil.WithSpan(testutil.Day(2025, time.March, 1), testutil.Day(2025, time.March, 5)),
			),
			testutil.NewTestTask("Build site",
				testutil.WithTaskID("t2"),
				testutil.WithTaskLabels("web", "docs"),
				testutil.WithTaskStatus(domain.TaskInProgress),
				testutil.WithSpan(testutil.Day(2025, time.March, 10), testutil.Day(2025, time.March, 20)),
			),
			testutil.NewTestMilestone("Go live",
				testutil.WithMilestoneID("m1"),
				testutil.WithMilestoneDate(testutil.Day(2025, time.March, 25)),
			),
		)))
}

func ids(items []domain.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Base().ID
	}
	return out
}

func TestFilterItems(t *testing.T) {
	s := filterStore(t)
	from := testutil.Day(2025, time.March, 6)
	to := testutil.Day(2025, time.March, 21)

	tests := []struct {
		name   string
		filter ItemFilter
		want   []string
	}{
		{"no criteria", ItemFilter{}, []string{"t1", "t2", "m1"}},
		{"search is case-insensitive", ItemFilter{Search: "SITE"}, []string{"t2"}},
		{"labels any-of", ItemFilter{Labels: []string{"web", "missing"}}, []string{"t2"}},
		{"status passes milestones", ItemFilter{Statuses: []string{"in-progress"}}, []string{"t2", "m1"}},
		{"assignee", ItemFilter{Assignees: []string{"alex"}}, []string{"t1", "m1"}},
		{"priority", ItemFilter{Priorities: []domain.Priority{domain.PriorityHigh}}, []string{"t1", "m1"}},
		{"date range overlap", ItemFilter{From: &from, To: &to}, []string{"t2"}},
		{"criteria are ANDed", ItemFilter{Labels: []string{"docs"}, Search: "write"}, []string{"t1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.FilterItems("p1", tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestFilterItems_MissingProject(t *testing.T) {
	_, err := New().FilterItems("nope", ItemFilter{})
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestItemFilter_IsZero(t *testing.T) {
	assert.True(t, ItemFilter{}.IsZero())
	assert.False(t, ItemFilter{Search: "x"}.IsZero())
}
