package formatter

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alexanderramin/noteline/internal/domain"
	"github.com/alexanderramin/noteline/internal/reconcile"
	"github.com/alexanderramin/noteline/internal/testutil"
	"github.com/stretchr/testify/assert"
)

func TestFormatItemTable(t *testing.T) {
	items := []domain.Item{
		testutil.NewTestTask("Design",
			testutil.WithTaskID("t1"),
			testutil.WithPriority(domain.PriorityHigh),
			testutil.WithProgress(40),
			testutil.WithTaskLabels("ui"),
			testutil.WithTaskNote("Projects/Design.md"),
		),
		testutil.NewTestMilestone("Ship",
			testutil.WithMilestoneID("m1"),
			testutil.WithMilestoneStatus(domain.MilestonePending),
		),
	}

	out := FormatItemTable(items)

	assert.Contains(t, out, "Mar 3 → Mar 10")
	assert.Contains(t, out, "(7d)")
	assert.Contains(t, out, "▲ high")
	assert.Contains(t, out, " 40%")
	assert.Contains(t, out, "#ui")
	assert.Contains(t, out, "Projects/Design.md")
	assert.Contains(t, out, "◆ Apr 1, 2025")
	assert.Contains(t, out, "Pending")
}

func TestFormatItemDetail_HistoryNewestFirst(t *testing.T) {
	task := testutil.NewTestTask("Design",
		testutil.WithTaskID("t1"),
		testutil.WithAssignee("ana"),
		testutil.WithDependencies("t0"),
	)
	task.History = []domain.HistoryEntry{
		{By: "user", At: fmtNow.Add(-3 * time.Hour), Changes: "first change"},
		{
			By: "tester", At: fmtNow.Add(-time.Hour), Changes: "updated from note: status",
			Before: map[string]string{"status": "todo"},
			After:  map[string]string{"status": "done", "assignee": "ana"},
		},
	}

	out := FormatItemDetail(task, fmtNow)

	assert.Contains(t, out, "ana")
	assert.Contains(t, out, "t0")
	assert.Contains(t, out, "status: todo → done")
	assert.Contains(t, out, "assignee: ∅ → ana")
	assert.Less(t, strings.Index(out, "updated from note"), strings.Index(out, "first change"))
}

func TestFormatItemDetail_Milestone(t *testing.T) {
	out := FormatItemDetail(testutil.NewTestMilestone("Ship"), fmtNow)

	assert.Contains(t, out, "Apr 1, 2025")
	assert.Contains(t, out, "No changes recorded")
}

func TestFormatLoadReport(t *testing.T) {
	out := FormatLoadReport("Projects", reconcile.LoadReport{Scanned: 5, Applied: 2, Unknown: 1, Ignored: 2})

	assert.Contains(t, out, "LOADED PROJECTS")
	assert.Contains(t, out, "SCANNED")
	assert.Contains(t, out, "5")
}

func TestFormatSyncLine(t *testing.T) {
	assert.Contains(t, FormatSyncLine("a.md", reconcile.Applied, nil), "applied  a.md")
	assert.Contains(t, FormatSyncLine("a.md", reconcile.NotApplicable, errors.New("boom")), "boom")
}
