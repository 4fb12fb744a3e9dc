package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alexanderramin/noteline/internal/reconcile"
	"github.com/alexanderramin/noteline/internal/vault"
)

// SyncEvent describes one handled note change.
type SyncEvent struct {
	NotePath  string
	ProjectID string
	Outcome   reconcile.Outcome
	Err       error
}

// retryDelay spaces out attempts to persist changes that failed to save.
const retryDelay = time.Second

// Watch keeps the timeline in step with note edits until ctx is cancelled.
// Every applied change is persisted right away for its project only, so
// commands running alongside never lose their writes. Failed writes are
// retried in the background and once more on the way out. report may be nil.
func (a *App) Watch(ctx context.Context, report func(SyncEvent)) error {
	if report == nil {
		report = func(SyncEvent) {}
	}

	w, err := vault.NewWatcher(a.Vault, a.Config.Sync.Debounce(), a.Logger)
	if err != nil {
		return err
	}
	defer w.Close()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return w.Run(gctx, func(ctx context.Context, notePath string) {
			ev := a.HandleNoteChange(ctx, notePath)
			if ev.ProjectID != "" || ev.Err != nil {
				report(ev)
			}
		})
	})

	g.Go(func() error {
		return a.retryLoop(gctx)
	})

	return g.Wait()
}

// HandleNoteChange syncs one changed note into its project. The project is
// reloaded from the database first, so the merge starts from what other
// processes committed, and an applied change is written back for that project
// alone. Echoes of the vault's own writes and notes that belong to no project
// are ignored.
func (a *App) HandleNoteChange(ctx context.Context, notePath string) SyncEvent {
	ev := SyncEvent{NotePath: notePath, Outcome: reconcile.NotApplicable}
	if a.Vault.IsOwnWrite(notePath) {
		a.Logger.DebugContext(ctx, "ignoring own write", "note", notePath)
		return ev
	}

	projectID, ok, err := a.ProjectForNote(ctx, notePath)
	if err != nil {
		ev.Err = fmt.Errorf("resolving project for %s: %w", notePath, err)
		return ev
	}
	if !ok {
		return ev
	}
	ev.ProjectID = projectID

	a.mu.Lock()
	defer a.mu.Unlock()

	// A project with unsaved changes keeps its in-memory copy; reloading it
	// would drop them.
	if _, pending := a.unsaved[projectID]; !pending {
		if err := a.Refresh(ctx, projectID); err != nil {
			ev.Err = err
			return ev
		}
	}

	ev.Outcome, ev.Err = a.Engine.OnDocumentChanged(ctx, notePath, projectID)
	if ev.Outcome != reconcile.Applied {
		return ev
	}
	if err := a.PersistProject(ctx, projectID); err != nil {
		a.Logger.ErrorContext(ctx, "persist failed, will retry", "project", projectID, "error", err)
		a.unsaved[projectID] = struct{}{}
		return ev
	}
	delete(a.unsaved, projectID)
	return ev
}

// flushUnsaved persists every project whose earlier write failed.
func (a *App) flushUnsaved(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var errs []error
	for id := range a.unsaved {
		if err := a.PersistProject(ctx, id); err != nil {
			errs = append(errs, err)
			continue
		}
		delete(a.unsaved, id)
	}
	return errors.Join(errs...)
}

func (a *App) retryLoop(ctx context.Context) error {
	ticker := time.NewTicker(retryDelay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// ctx is already cancelled; the final write must still happen.
			return a.flushUnsaved(context.WithoutCancel(ctx))
		case <-ticker.C:
			if err := a.flushUnsaved(ctx); err != nil {
				a.Logger.ErrorContext(ctx, "persist retry failed", "error", err)
			}
		}
	}
}
