package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alexanderramin/noteline/internal/domain"
	"github.com/alexanderramin/noteline/internal/store"
	"github.com/alexanderramin/noteline/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var syncTime = time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

type recordingObserver struct {
	events []UseCaseEvent
}

func (r *recordingObserver) ObserveUseCase(_ context.Context, e UseCaseEvent) {
	r.events = append(r.events, e)
}

type fixture struct {
	docs     *fakeDocs
	projects *store.ProjectStore
	engine   *Engine
	observer *recordingObserver
}

func newFixture(t *testing.T, items ...domain.Item) *fixture {
	t.Helper()
	projects := store.New()
	projects.SaveProject(testutil.NewTestProject("Launch", testutil.WithProjectID("p1"), testutil.WithItems(items...)))

	docs := newFakeDocs()
	obs := &recordingObserver{}
	engine := NewEngine(docs, projects,
		WithObserver(obs),
		WithAuthor("tester"),
		WithClock(func() time.Time { return syncTime }),
	)
	return &fixture{docs: docs, projects: projects, engine: engine, observer: obs}
}

func (f *fixture) item(t *testing.T, id string) domain.Item {
	t.Helper()
	it, ok := f.projects.GetItem("p1", id)
	require.True(t, ok)
	return it
}

func TestExtractMeta(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.docs.put("notes/a.md", map[string]any{
		KeyID:       "t1",
		KeyType:     "task",
		KeyStart:    "2025-03-01",
		KeyProgress: 40,
		"unrelated": "kept",
	})
	f.docs.put("notes/plain.md", nil)

	meta, err := f.engine.ExtractMeta(ctx, "notes/a.md")
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, "t1", meta.ID)
	assert.Equal(t, domain.ItemTask, meta.Type)
	assert.Equal(t, testutil.Day(2025, time.March, 1), *meta.Start)
	assert.Equal(t, 40, *meta.Progress)
	assert.Nil(t, meta.End)

	meta, err = f.engine.ExtractMeta(ctx, "notes/plain.md")
	require.NoError(t, err)
	assert.Nil(t, meta)

	_, err = f.engine.ExtractMeta(ctx, "notes/missing.md")
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestSyncNoteToTimeline_SparseMerge(t *testing.T) {
	f := newFixture(t, testutil.NewTestTask("Write copy",
		testutil.WithTaskID("t1"),
		testutil.WithAssignee("alex"),
		testutil.WithProgress(10),
	))
	f.docs.put("notes/copy.md", map[string]any{
		KeyID:     "t1",
		KeyType:   "task",
		KeyStatus: "done",
	})
	before := f.item(t, "t1").(*domain.Task)

	outcome, err := f.engine.SyncNoteToTimeline(context.Background(), "notes/copy.md", "p1")
	require.NoError(t, err)
	assert.Equal(t, Applied, outcome)

	after := f.item(t, "t1").(*domain.Task)
	assert.Equal(t, domain.TaskDone, after.Status)
	assert.Equal(t, "alex", *after.Assignee)
	assert.Equal(t, 10, *after.Progress)
	assert.Equal(t, before.Start, after.Start)
	assert.Equal(t, before.End, after.End)
	assert.Equal(t, "notes/copy.md", *after.NotePath)

	require.Len(t, after.History, len(before.History)+1)
	entry := after.History[len(after.History)-1]
	assert.Equal(t, "tester", entry.By)
	assert.Equal(t, syncTime, entry.At)
	assert.Equal(t, "todo", entry.Before["status"])
	assert.Equal(t, "done", entry.After["status"])
	assert.Contains(t, entry.Changes, "status")
}

func TestSyncNoteToTimeline_HandTypedStatus(t *testing.T) {
	f := newFixture(t, testutil.NewTestTask("Write copy", testutil.WithTaskID("t1")))
	f.docs.put("notes/copy.md", map[string]any{KeyID: "t1", KeyType: "Task", KeyStatus: "In-Progress"})

	outcome, err := f.engine.SyncNoteToTimeline(context.Background(), "notes/copy.md", "p1")
	require.NoError(t, err)
	assert.Equal(t, Applied, outcome)
	assert.Equal(t, domain.TaskInProgress, f.item(t, "t1").(*domain.Task).Status)
}

func TestSyncNoteToTimeline_HistoryAppendedWithoutChanges(t *testing.T) {
	f := newFixture(t, testutil.NewTestTask("Write copy", testutil.WithTaskID("t1"), testutil.WithTaskNote("notes/copy.md")))
	f.docs.put("notes/copy.md", map[string]any{KeyID: "t1", KeyType: "task"})

	for range 2 {
		outcome, err := f.engine.SyncNoteToTimeline(context.Background(), "notes/copy.md", "p1")
		require.NoError(t, err)
		assert.Equal(t, Applied, outcome)
	}

	it := f.item(t, "t1")
	require.Len(t, it.Base().History, 2)
	assert.Equal(t, "updated from note", it.Base().History[1].Changes)
	assert.Nil(t, it.Base().History[1].After)
}

func TestSyncNoteToTimeline_RecomputesDuration(t *testing.T) {
	f := newFixture(t, testutil.NewTestTask("Write copy", testutil.WithTaskID("t1")))
	f.docs.put("notes/copy.md", map[string]any{
		KeyID:    "t1",
		KeyType:  "task",
		KeyStart: "2024-01-01",
		KeyEnd:   "2024-01-04",
	})

	_, err := f.engine.SyncNoteToTimeline(context.Background(), "notes/copy.md", "p1")
	require.NoError(t, err)

	task := f.item(t, "t1").(*domain.Task)
	assert.Equal(t, 3, task.DurationDays)

	// Moving only the end re-derives from the stored start.
	f.docs.put("notes/copy.md", map[string]any{KeyID: "t1", KeyType: "task", KeyEnd: "2024-01-11"})
	_, err = f.engine.SyncNoteToTimeline(context.Background(), "notes/copy.md", "p1")
	require.NoError(t, err)
	assert.Equal(t, 10, f.item(t, "t1").(*domain.Task).DurationDays)
}

func TestSyncNoteToTimeline_Milestone(t *testing.T) {
	f := newFixture(t, testutil.NewTestMilestone("Go live", testutil.WithMilestoneID("m1")))
	f.docs.put("notes/live.md", map[string]any{
		KeyID:     "m1",
		KeyType:   "milestone",
		KeyDate:   "2025-05-02",
		KeyStatus: "in-progress", // task status, dropped for milestones
		KeyLabels: []any{"launch", " web "},
	})

	outcome, err := f.engine.SyncNoteToTimeline(context.Background(), "notes/live.md", "p1")
	require.NoError(t, err)
	assert.Equal(t, Applied, outcome)

	m := f.item(t, "m1").(*domain.Milestone)
	assert.Equal(t, testutil.Day(2025, time.May, 2), m.Date)
	assert.Nil(t, m.Status)
	assert.Equal(t, []string{"launch", "web"}, m.Labels)
}

func TestSyncNoteToTimeline_NotApplicable(t *testing.T) {
	tests := []struct {
		name string
		meta map[string]any
	}{
		{"no block", nil},
		{"no id", map[string]any{KeyType: "task"}},
		{"unknown item", map[string]any{KeyID: "ghost", KeyType: "task"}},
		{"type mismatch", map[string]any{KeyID: "t1", KeyType: "milestone", KeyDate: "2025-01-01"}},
		{"type absent", map[string]any{KeyID: "t1", KeyStatus: "done"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, testutil.NewTestTask("Write copy", testutil.WithTaskID("t1")))
			f.docs.put("notes/n.md", tt.meta)

			outcome, err := f.engine.SyncNoteToTimeline(context.Background(), "notes/n.md", "p1")
			require.NoError(t, err)
			assert.Equal(t, NotApplicable, outcome)
			assert.Empty(t, f.item(t, "t1").Base().History)
		})
	}

	f := newFixture(t)
	outcome, err := f.engine.SyncNoteToTimeline(context.Background(), "notes/missing.md", "p1")
	require.NoError(t, err)
	assert.Equal(t, NotApplicable, outcome)
}

func TestSyncNoteToTimeline_RejectsInvalidMerge(t *testing.T) {
	f := newFixture(t, testutil.NewTestTask("Write copy", testutil.WithTaskID("t1")))
	f.docs.put("notes/copy.md", map[string]any{
		KeyID:    "t1",
		KeyType:  "task",
		KeyStart: "2025-12-01",
		KeyEnd:   "2025-01-01",
	})
	before := f.item(t, "t1")

	outcome, err := f.engine.SyncNoteToTimeline(context.Background(), "notes/copy.md", "p1")
	require.NoError(t, err)
	assert.Equal(t, Rejected, outcome)
	assert.Equal(t, before, f.item(t, "t1"))
}

func TestSyncTimelineToNote_WritesFullBlock(t *testing.T) {
	f := newFixture(t, testutil.NewTestTask("Write copy",
		testutil.WithTaskID("t1"),
		testutil.WithTaskNote("notes/copy.md"),
		testutil.WithTaskStatus(domain.TaskInProgress),
		testutil.WithDependencies("t0"),
		testutil.WithProgress(50),
	))
	f.docs.put("notes/copy.md", map[string]any{
		"author":         "me",
		KeyDate:          "2025-01-01",
		KeyAssignee:      "stale",
		KeyID:            "t1",
		KeyType:          "task",
		KeyStatus:        "todo",
		"timelineLegacy": true,
	})

	outcome, err := f.engine.SyncTimelineToNote(context.Background(), "p1", "t1")
	require.NoError(t, err)
	assert.Equal(t, Applied, outcome)

	meta := f.docs.meta("notes/copy.md")
	assert.Equal(t, "me", meta["author"])
	assert.Equal(t, true, meta["timelineLegacy"])
	assert.Equal(t, "in-progress", meta[KeyStatus])
	assert.Equal(t, "2025-03-03", meta[KeyStart])
	assert.Equal(t, []string{"t0"}, meta[KeyDependencies])
	assert.Equal(t, 50, meta[KeyProgress])
	assert.NotContains(t, meta, KeyDate)
	assert.NotContains(t, meta, KeyAssignee)
	assert.NotContains(t, meta, KeyPriority)
}

func TestSyncTimelineToNote_Idempotent(t *testing.T) {
	f := newFixture(t, testutil.NewTestMilestone("Go live",
		testutil.WithMilestoneID("m1"),
		testutil.WithMilestoneNote("notes/live.md"),
		testutil.WithMilestoneStatus(domain.MilestonePending),
	))
	f.docs.put("notes/live.md", map[string]any{KeyStart: "2025-01-01", "tags": []any{"x"}})
	ctx := context.Background()

	_, err := f.engine.SyncTimelineToNote(ctx, "p1", "m1")
	require.NoError(t, err)
	first := f.docs.meta("notes/live.md")

	_, err = f.engine.SyncTimelineToNote(ctx, "p1", "m1")
	require.NoError(t, err)
	assert.Equal(t, first, f.docs.meta("notes/live.md"))
	assert.NotContains(t, first, KeyStart)
	assert.Equal(t, "pending", first[KeyStatus])
}

func TestSyncTimelineToNote_NotApplicable(t *testing.T) {
	f := newFixture(t,
		testutil.NewTestTask("Unlinked", testutil.WithTaskID("t1")),
		testutil.NewTestTask("Dangling", testutil.WithTaskID("t2"), testutil.WithTaskNote("notes/gone.md")),
	)
	ctx := context.Background()

	for _, id := range []string{"t1", "t2", "missing"} {
		outcome, err := f.engine.SyncTimelineToNote(ctx, "p1", id)
		require.NoError(t, err)
		assert.Equal(t, NotApplicable, outcome, id)
	}
}

func TestWriteMeta_SuppressesFeedbackLoop(t *testing.T) {
	f := newFixture(t, testutil.NewTestTask("Write copy", testutil.WithTaskID("t1"), testutil.WithTaskNote("notes/copy.md")))
	f.docs.put("notes/copy.md", map[string]any{KeyID: "t1", KeyType: "task"})
	ctx := context.Background()

	var nested []Outcome
	f.docs.onMerge = func(path string) {
		outcome, err := f.engine.OnDocumentChanged(ctx, path, "p1")
		require.NoError(t, err)
		nested = append(nested, outcome)
	}

	outcome, err := f.engine.SyncTimelineToNote(ctx, "p1", "t1")
	require.NoError(t, err)
	assert.Equal(t, Applied, outcome)
	assert.Equal(t, []Outcome{Skipped}, nested)
	assert.Empty(t, f.item(t, "t1").Base().History, "no note sync ran during the write")

	// Once the write is over, a fresh notification syncs normally.
	f.docs.onMerge = nil
	outcome, err = f.engine.OnDocumentChanged(ctx, "notes/copy.md", "p1")
	require.NoError(t, err)
	assert.Equal(t, Applied, outcome)
	assert.Len(t, f.item(t, "t1").Base().History, 1)
}

func TestWriteMeta_SkipsWhileHeld(t *testing.T) {
	f := newFixture(t)
	f.docs.put("notes/a.md", map[string]any{})

	release, ok := f.engine.guard.TryAcquire("notes/a.md")
	require.True(t, ok)

	outcome, err := f.engine.WriteMeta(context.Background(), "notes/a.md", MetaPatch{Set: map[string]any{"k": "v"}})
	require.NoError(t, err)
	assert.Equal(t, Skipped, outcome)
	assert.Equal(t, 0, f.docs.merges)

	release()
	outcome, err = f.engine.WriteMeta(context.Background(), "notes/a.md", MetaPatch{Set: map[string]any{"k": "v"}})
	require.NoError(t, err)
	assert.Equal(t, Applied, outcome)
}

func TestWriteMeta_ReleasesGuardOnFailure(t *testing.T) {
	f := newFixture(t)
	f.docs.put("notes/a.md", map[string]any{})
	f.docs.mergeErr = errors.New("disk full")

	_, err := f.engine.WriteMeta(context.Background(), "notes/a.md", MetaPatch{})
	require.Error(t, err)
	assert.False(t, f.engine.guard.Held("notes/a.md"))
}

func TestCreateNoteFromItem(t *testing.T) {
	f := newFixture(t, testutil.NewTestTask(`Plan: Q3 / "beta"`, testutil.WithTaskID("t1"), testutil.WithTaskLabels("web")))
	ctx := context.Background()

	p, err := f.engine.CreateNoteFromItem(ctx, "p1", "t1", "Projects/Launch", "")
	require.NoError(t, err)
	assert.Equal(t, "Projects/Launch/Plan_ Q3 _ _beta_.md", p)

	content := f.docs.contents[p]
	assert.Contains(t, content, "---\ntimelineId: t1\ntimelineType: task\n")
	assert.Contains(t, content, "timelineLabels: [web]")
	assert.Contains(t, content, "# Plan: Q3 / \"beta\"\n\n## Description\n\n## Notes\n")

	it := f.item(t, "t1")
	require.NotNil(t, it.Base().NotePath)
	assert.Equal(t, p, *it.Base().NotePath)

	_, err = f.engine.CreateNoteFromItem(ctx, "p1", "t1", "Projects/Launch", "")
	assert.ErrorIs(t, err, ErrDocumentExists)

	_, err = f.engine.CreateNoteFromItem(ctx, "p1", "ghost", "Projects/Launch", "")
	assert.ErrorIs(t, err, store.ErrItemNotFound)
}

func TestCreateNoteFromItem_Template(t *testing.T) {
	f := newFixture(t, testutil.NewTestMilestone("Go live", testutil.WithMilestoneID("m1")))

	p, err := f.engine.CreateNoteFromItem(context.Background(), "p1", "m1", "", "Checklist\n")
	require.NoError(t, err)
	assert.Equal(t, "Go live.md", p)
	assert.Contains(t, f.docs.contents[p], "# Go live\n\nChecklist\n")
	assert.Contains(t, f.docs.contents[p], "timelineDate: \"2025-04-01\"")
}

func TestLoadProjectFromNotes(t *testing.T) {
	f := newFixture(t,
		testutil.NewTestTask("Write copy", testutil.WithTaskID("t1")),
		testutil.NewTestMilestone("Go live", testutil.WithMilestoneID("m1")),
	)
	f.docs.put("vault/a.md", map[string]any{KeyID: "t1", KeyType: "task", KeyStatus: "done"})
	f.docs.put("vault/b.md", map[string]any{KeyID: "m1", KeyType: "milestone", KeyStatus: "completed"})
	f.docs.put("vault/c.md", map[string]any{KeyID: "new", KeyType: "task"})
	f.docs.put("vault/d.md", nil)
	f.docs.put("vault/e.md", map[string]any{KeyID: "t1"})
	f.docs.put("elsewhere/f.md", map[string]any{KeyID: "t1", KeyType: "task", KeyStatus: "cancelled"})

	report, err := f.engine.LoadProjectFromNotes(context.Background(), "p1", "vault")
	require.NoError(t, err)
	assert.Equal(t, LoadReport{Scanned: 5, Applied: 2, Unknown: 1, Ignored: 2}, report)

	assert.Equal(t, domain.TaskDone, f.item(t, "t1").(*domain.Task).Status)
	assert.Equal(t, domain.MilestoneCompleted, *f.item(t, "m1").(*domain.Milestone).Status)

	p, _ := f.projects.GetProject("p1")
	assert.Len(t, p.Items, 2)

	_, err = f.engine.LoadProjectFromNotes(context.Background(), "missing", "vault")
	assert.ErrorIs(t, err, store.ErrProjectNotFound)
}

func TestLoadProjectFromNotes_SkipsMalformedNotes(t *testing.T) {
	f := newFixture(t, testutil.NewTestTask("Write copy", testutil.WithTaskID("t1")))
	f.docs.putBroken("vault/a-broken.md")
	f.docs.put("vault/b-good.md", map[string]any{KeyID: "t1", KeyType: "task", KeyStatus: "done"})

	report, err := f.engine.LoadProjectFromNotes(context.Background(), "p1", "vault")
	require.NoError(t, err)
	assert.Equal(t, LoadReport{Scanned: 2, Applied: 1, Malformed: 1}, report)

	task := f.item(t, "t1").(*domain.Task)
	assert.Equal(t, domain.TaskDone, task.Status)
	assert.Len(t, task.History, 1)

	// A single sync still surfaces the problem.
	_, err = f.engine.SyncNoteToTimeline(context.Background(), "vault/a-broken.md", "p1")
	assert.ErrorIs(t, err, ErrMalformedMeta)
}

func TestEngine_ReportsUseCases(t *testing.T) {
	f := newFixture(t, testutil.NewTestTask("Write copy", testutil.WithTaskID("t1")))
	f.docs.put("notes/copy.md", map[string]any{KeyID: "t1", KeyType: "task"})

	_, err := f.engine.SyncNoteToTimeline(context.Background(), "notes/copy.md", "p1")
	require.NoError(t, err)

	require.Len(t, f.observer.events, 1)
	e := f.observer.events[0]
	assert.Equal(t, "sync-note-to-timeline", e.Name)
	assert.Equal(t, Applied, e.Outcome)
	assert.Equal(t, "t1", e.Fields["item"])
}
