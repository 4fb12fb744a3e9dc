// Package reconcile keeps timeline items and the metadata blocks of their
// notes in agreement. Note to timeline is a sparse merge; timeline to note
// rewrites the whole block. A per-document guard stops the engine's own
// writes from feeding back into another sync.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/alexanderramin/noteline/internal/domain"
	"github.com/alexanderramin/noteline/internal/store"
)

var (
	// ErrDocumentNotFound is returned by Documents when the path does not exist.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrDocumentExists is returned by Documents.Create when the path is taken.
	ErrDocumentExists = errors.New("document already exists")

	// ErrMalformedMeta is wrapped by Documents.ReadMeta when a note's
	// metadata block cannot be parsed.
	ErrMalformedMeta = errors.New("malformed frontmatter")

	// ErrInFlight is returned when an operation that cannot be skipped finds
	// the document's guard held.
	ErrInFlight = errors.New("document sync already in flight")
)

// Documents is the access the engine needs to the note collection.
type Documents interface {
	// ReadMeta returns the note's metadata block. ok is false when the note
	// has no block. An unparsable block wraps ErrMalformedMeta.
	ReadMeta(ctx context.Context, path string) (meta map[string]any, ok bool, err error)
	// MergeMeta applies patch to the note's metadata block in one write.
	MergeMeta(ctx context.Context, path string, patch MetaPatch) error
	Create(ctx context.Context, path, content string) error
	// List returns the paths of every note under folder.
	List(ctx context.Context, folder string) ([]string, error)
}

// Outcome reports what a sync did. Expected conditions are outcomes, never errors.
type Outcome int

const (
	NotApplicable Outcome = iota
	Applied
	// Skipped means a sync for the same document was already in flight.
	Skipped
	// Rejected means the store refused the merged item as invalid.
	Rejected
)

func (o Outcome) String() string {
	switch o {
	case NotApplicable:
		return "not-applicable"
	case Applied:
		return "applied"
	case Skipped:
		return "skipped"
	case Rejected:
		return "rejected"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// LoadReport summarizes a bulk load from a folder of notes.
type LoadReport struct {
	Scanned  int
	Applied  int
	Unknown  int // notes whose item id is not in the project
	Ignored  int // notes without a usable metadata block
	// Malformed counts notes whose block could not be parsed. They are
	// skipped like notes without a block.
	Malformed int
	Rejected  int
	Skipped   int
}

type Engine struct {
	docs     Documents
	projects *store.ProjectStore
	guard    *Guard
	observer UseCaseObserver
	author   string
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

func WithObserver(o UseCaseObserver) Option {
	return func(e *Engine) {
		if o != nil {
			e.observer = o
		}
	}
}

// WithAuthor sets the "by" field of history entries written by note syncs.
func WithAuthor(author string) Option {
	return func(e *Engine) { e.author = author }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithGuard shares a guard between engines working on the same notes.
func WithGuard(g *Guard) Option {
	return func(e *Engine) { e.guard = g }
}

func NewEngine(docs Documents, projects *store.ProjectStore, opts ...Option) *Engine {
	e := &Engine{
		docs:     docs,
		projects: projects,
		guard:    NewGuard(),
		observer: NoopUseCaseObserver{},
		author:   "user",
		now:      func() time.Time { return time.Now().UTC().Round(0) },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) observe(ctx context.Context, name string, startedAt time.Time, outcome Outcome, err error, fields map[string]any) {
	e.observer.ObserveUseCase(ctx, UseCaseEvent{
		Name:      name,
		StartedAt: startedAt,
		Duration:  time.Since(startedAt),
		Outcome:   outcome,
		Err:       err,
		Fields:    fields,
	})
}

// ExtractMeta reads and normalizes the note's metadata block. It returns nil
// when the note has no block.
func (e *Engine) ExtractMeta(ctx context.Context, notePath string) (*NoteMeta, error) {
	raw, ok, err := e.docs.ReadMeta(ctx, notePath)
	if err != nil {
		return nil, fmt.Errorf("reading metadata of %s: %w", notePath, err)
	}
	if !ok {
		return nil, nil
	}
	return ParseMeta(raw), nil
}

// WriteMeta merges patch into the note's metadata block. If a sync for the
// note is already in flight the write is skipped.
func (e *Engine) WriteMeta(ctx context.Context, notePath string, patch MetaPatch) (outcome Outcome, err error) {
	release, ok := e.guard.TryAcquire(notePath)
	if !ok {
		return Skipped, nil
	}
	defer release()

	if err := e.docs.MergeMeta(ctx, notePath, patch); err != nil {
		return NotApplicable, fmt.Errorf("writing metadata of %s: %w", notePath, err)
	}
	return Applied, nil
}

// SyncNoteToTimeline merges the note's metadata into the item it names. Only
// fields present in the block are copied; a history entry is appended on
// every applied sync.
func (e *Engine) SyncNoteToTimeline(ctx context.Context, notePath, projectID string) (outcome Outcome, err error) {
	startedAt := time.Now()
	fields := map[string]any{"note": notePath, "project": projectID}
	defer func() { e.observe(ctx, "sync-note-to-timeline", startedAt, outcome, err, fields) }()

	release, ok := e.guard.TryAcquire(notePath)
	if !ok {
		return Skipped, nil
	}
	defer release()

	return e.syncNoteLocked(ctx, notePath, projectID, fields)
}

func (e *Engine) syncNoteLocked(ctx context.Context, notePath, projectID string, fields map[string]any) (Outcome, error) {
	meta, err := e.ExtractMeta(ctx, notePath)
	if err != nil {
		if errors.Is(err, ErrDocumentNotFound) {
			return NotApplicable, nil
		}
		return NotApplicable, err
	}
	if meta == nil || meta.ID == "" {
		return NotApplicable, nil
	}
	fields["item"] = meta.ID

	item, ok := e.projects.GetItem(projectID, meta.ID)
	if !ok || meta.Type != item.Type() {
		return NotApplicable, nil
	}

	patch := buildPatch(meta, item, notePath)
	before, after := domain.ChangedFields(item, patch)
	entry := domain.HistoryEntry{
		By:      e.author,
		At:      e.now(),
		Changes: describeChanges(after),
		Before:  nilIfEmpty(before),
		After:   nilIfEmpty(after),
	}
	fields["changed"] = len(after)

	switch p := patch.(type) {
	case *domain.TaskPatch:
		p.AppendHistory = []domain.HistoryEntry{entry}
	case *domain.MilestonePatch:
		p.AppendHistory = []domain.HistoryEntry{entry}
	}

	if err := e.projects.UpdateItem(projectID, meta.ID, patch); err != nil {
		switch {
		case errors.Is(err, store.ErrInvalidItem):
			fields["reason"] = err.Error()
			return Rejected, nil
		case errors.Is(err, store.ErrProjectNotFound), errors.Is(err, store.ErrItemNotFound):
			return NotApplicable, nil
		default:
			return NotApplicable, err
		}
	}
	return Applied, nil
}

// buildPatch copies every field present in meta that applies to the item's
// variant. Invalid statuses for the variant are dropped.
func buildPatch(meta *NoteMeta, item domain.Item, notePath string) domain.ItemPatch {
	base := domain.BasePatch{
		NotePath: &notePath,
		Labels:   meta.Labels,
	}

	switch v := item.(type) {
	case *domain.Task:
		p := &domain.TaskPatch{
			BasePatch:    base,
			Start:        meta.Start,
			End:          meta.End,
			Assignee:     meta.Assignee,
			Dependencies: meta.Dependencies,
			Priority:     meta.Priority,
			Progress:     meta.Progress,
		}
		if meta.Status != nil && domain.ValidTaskStatuses[domain.TaskStatus(*meta.Status)] {
			p.Status = domain.Ptr(domain.TaskStatus(*meta.Status))
		}
		if p.Start != nil || p.End != nil {
			start := domain.ValueOr(p.Start, v.Start)
			end := domain.ValueOr(p.End, v.End)
			p.DurationDays = domain.Ptr(domain.DurationDays(start, end))
		}
		return p
	default:
		p := &domain.MilestonePatch{BasePatch: base, Date: meta.Date}
		if meta.Status != nil && domain.ValidMilestoneStatuses[domain.MilestoneStatus(*meta.Status)] {
			p.Status = domain.Ptr(domain.MilestoneStatus(*meta.Status))
		}
		return p
	}
}

func describeChanges(after map[string]string) string {
	if len(after) == 0 {
		return "updated from note"
	}
	keys := make([]string, 0, len(after))
	for k := range after {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return "updated from note: " + strings.Join(keys, ", ")
}

func nilIfEmpty(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	return m
}

// SyncTimelineToNote rewrites the metadata block of the item's note from the
// item's current fields.
func (e *Engine) SyncTimelineToNote(ctx context.Context, projectID, itemID string) (outcome Outcome, err error) {
	startedAt := time.Now()
	fields := map[string]any{"project": projectID, "item": itemID}
	defer func() { e.observe(ctx, "sync-timeline-to-note", startedAt, outcome, err, fields) }()

	item, ok := e.projects.GetItem(projectID, itemID)
	if !ok || item.Base().NotePath == nil {
		return NotApplicable, nil
	}
	notePath := *item.Base().NotePath
	fields["note"] = notePath

	outcome, err = e.WriteMeta(ctx, notePath, MetaFromItem(item))
	if errors.Is(err, ErrDocumentNotFound) {
		return NotApplicable, nil
	}
	return outcome, err
}

// CreateNoteFromItem writes a new note for the item into folder and points
// the item at it. Existing notes are never overwritten.
func (e *Engine) CreateNoteFromItem(ctx context.Context, projectID, itemID, folder, template string) (notePath string, err error) {
	startedAt := time.Now()
	fields := map[string]any{"project": projectID, "item": itemID, "folder": folder}
	defer func() {
		outcome := Applied
		if err != nil {
			outcome = NotApplicable
		}
		e.observe(ctx, "create-note", startedAt, outcome, err, fields)
	}()

	item, ok := e.projects.GetItem(projectID, itemID)
	if !ok {
		return "", fmt.Errorf("creating note for %s: %w", itemID, store.ErrItemNotFound)
	}

	notePath = path.Join(folder, SafeFileName(item.Base().Title))
	fields["note"] = notePath

	release, ok := e.guard.TryAcquire(notePath)
	if !ok {
		return "", fmt.Errorf("creating note %s: %w", notePath, ErrInFlight)
	}
	defer release()

	content, err := RenderNote(item, template)
	if err != nil {
		return "", fmt.Errorf("rendering note for %s: %w", itemID, err)
	}
	if err := e.docs.Create(ctx, notePath, content); err != nil {
		return "", fmt.Errorf("creating note %s: %w", notePath, err)
	}

	patch := notePathPatch(item, notePath)
	if err := e.projects.UpdateItem(projectID, itemID, patch); err != nil {
		return "", fmt.Errorf("linking note %s to %s: %w", notePath, itemID, err)
	}
	return notePath, nil
}

func notePathPatch(item domain.Item, notePath string) domain.ItemPatch {
	base := domain.BasePatch{NotePath: &notePath}
	if item.Type() == domain.ItemTask {
		return domain.TaskPatch{BasePatch: base}
	}
	return domain.MilestonePatch{BasePatch: base}
}

// LoadProjectFromNotes syncs every note under folder whose metadata names an
// item already in the project. It never creates items.
func (e *Engine) LoadProjectFromNotes(ctx context.Context, projectID, folder string) (report LoadReport, err error) {
	startedAt := time.Now()
	fields := map[string]any{"project": projectID, "folder": folder}
	defer func() {
		fields["scanned"] = report.Scanned
		fields["applied"] = report.Applied
		fields["malformed"] = report.Malformed
		outcome := Applied
		if err != nil {
			outcome = NotApplicable
		}
		e.observe(ctx, "load-project-from-notes", startedAt, outcome, err, fields)
	}()

	if _, ok := e.projects.GetProject(projectID); !ok {
		return report, fmt.Errorf("loading notes into %s: %w", projectID, store.ErrProjectNotFound)
	}

	paths, err := e.docs.List(ctx, folder)
	if err != nil {
		return report, fmt.Errorf("listing notes in %s: %w", folder, err)
	}

	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Scanned++

		meta, err := e.ExtractMeta(ctx, p)
		if errors.Is(err, ErrMalformedMeta) {
			report.Malformed++
			continue
		}
		if err != nil {
			return report, err
		}
		if meta == nil || meta.ID == "" || meta.Type == "" {
			report.Ignored++
			continue
		}
		if _, ok := e.projects.GetItem(projectID, meta.ID); !ok {
			report.Unknown++
			continue
		}

		outcome, err := e.SyncNoteToTimeline(ctx, p, projectID)
		if err != nil {
			return report, err
		}
		switch outcome {
		case Applied:
			report.Applied++
		case Rejected:
			report.Rejected++
		case Skipped:
			report.Skipped++
		default:
			report.Ignored++
		}
	}
	return report, nil
}

// OnDocumentChanged is the change-notification entry point. Notifications
// for a note whose sync is in flight are dropped.
func (e *Engine) OnDocumentChanged(ctx context.Context, notePath, projectID string) (Outcome, error) {
	if e.guard.Held(notePath) {
		e.observe(ctx, "document-changed", time.Now(), Skipped, nil, map[string]any{"note": notePath})
		return Skipped, nil
	}
	return e.SyncNoteToTimeline(ctx, notePath, projectID)
}
