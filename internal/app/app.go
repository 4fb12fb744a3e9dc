// Package app wires configuration, persistence, the project store and the
// sync engine into the object graph the CLI works against.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/alexanderramin/noteline/internal/config"
	"github.com/alexanderramin/noteline/internal/db"
	"github.com/alexanderramin/noteline/internal/reconcile"
	"github.com/alexanderramin/noteline/internal/repository"
	"github.com/alexanderramin/noteline/internal/store"
	"github.com/alexanderramin/noteline/internal/vault"
)

type App struct {
	Config config.Config
	Logger *slog.Logger
	Store  *store.ProjectStore
	Vault  *vault.Vault
	Engine *reconcile.Engine

	database  *sql.DB
	snapshots repository.SnapshotRepo
	uow       db.UnitOfWork
	logCloser io.Closer

	// unsaved holds projects whose applied changes failed to persist. While a
	// project is listed its in-memory copy is newer than the database.
	mu      sync.Mutex
	unsaved map[string]struct{}
}

// Open builds an App from cfg and loads the persisted projects into the store.
func Open(ctx context.Context, cfg config.Config) (*App, error) {
	logger, logCloser, err := NewLogger(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("configuring logger: %w", err)
	}

	database, err := db.OpenDB(cfg.DB.Path)
	if err != nil {
		_ = logCloser.Close()
		return nil, fmt.Errorf("opening database: %w", err)
	}

	a := &App{
		Config:    cfg,
		Logger:    logger,
		Store:     store.New(),
		Vault:     vault.New(cfg.Vault.Root),
		database:  database,
		snapshots: repository.NewSQLiteSnapshotRepo(database),
		uow:       db.NewSQLiteUnitOfWork(database),
		logCloser: logCloser,
		unsaved:   make(map[string]struct{}),
	}
	a.Engine = reconcile.NewEngine(a.Vault, a.Store,
		reconcile.WithObserver(reconcile.NewLogUseCaseObserver(logger)),
		reconcile.WithAuthor(cfg.History.Author),
	)

	projects, err := a.snapshots.LoadAll(ctx)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("loading projects: %w", err)
	}
	a.Store.Replace(projects)
	logger.DebugContext(ctx, "store loaded", "projects", len(projects), "db", cfg.DB.Path)
	return a, nil
}

// Persist writes the whole store back in one transaction. It suits one-shot
// commands that loaded the store moments earlier; long-running processes use
// PersistProject so they never overwrite rows other processes committed.
func (a *App) Persist(ctx context.Context) error {
	projects := a.Store.GetProjects()
	err := a.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return repository.NewSQLiteSnapshotRepo(tx).ReplaceAll(ctx, projects)
	})
	if err != nil {
		return fmt.Errorf("persisting projects: %w", err)
	}
	return nil
}

// PersistProject upserts one project from the store. Other projects' rows are
// left as they are in the database.
func (a *App) PersistProject(ctx context.Context, projectID string) error {
	p, ok := a.Store.GetProject(projectID)
	if !ok {
		return fmt.Errorf("persisting project %s: %w", projectID, repository.ErrNotFound)
	}
	err := a.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return repository.NewSQLiteSnapshotRepo(tx).SaveProject(ctx, p)
	})
	if err != nil {
		return fmt.Errorf("persisting project %s: %w", projectID, err)
	}
	return nil
}

// Refresh replaces the in-memory copy of a project with the last committed
// one. A project no longer in the database is dropped from the store.
func (a *App) Refresh(ctx context.Context, projectID string) error {
	p, err := a.snapshots.LoadProject(ctx, projectID)
	if errors.Is(err, repository.ErrNotFound) {
		a.Store.DeleteProject(projectID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("refreshing project %s: %w", projectID, err)
	}
	a.Store.Restore(p)
	return nil
}

// ProjectForNote finds the project a note belongs to: first through the
// persisted note index, then through item note paths in the store, and last
// through the item id in the note's own metadata block.
func (a *App) ProjectForNote(ctx context.Context, notePath string) (string, bool, error) {
	link, err := a.snapshots.FindByNotePath(ctx, notePath)
	switch {
	case err == nil:
		// The link may come from another process; callers refresh the
		// project before using it.
		return link.ProjectID, true, nil
	case !errors.Is(err, repository.ErrNotFound):
		return "", false, err
	}

	projects := a.Store.GetProjects()
	for _, p := range projects {
		for _, it := range p.Items {
			if np := it.Base().NotePath; np != nil && *np == notePath {
				return p.ProjectID, true, nil
			}
		}
	}

	meta, err := a.Engine.ExtractMeta(ctx, notePath)
	if err != nil {
		return "", false, err
	}
	if meta == nil || meta.ID == "" {
		return "", false, nil
	}
	for _, p := range projects {
		if it, _ := p.FindItem(meta.ID); it != nil {
			return p.ProjectID, true, nil
		}
	}
	return "", false, nil
}

func (a *App) Close() error {
	var errs []error
	if a.database != nil {
		errs = append(errs, a.database.Close())
	}
	if a.logCloser != nil {
		errs = append(errs, a.logCloser.Close())
	}
	return errors.Join(errs...)
}
