package cli

import (
	"context"
	"fmt"
	"time"

	core "github.com/alexanderramin/noteline/internal/app"
	"github.com/alexanderramin/noteline/internal/config"
	"github.com/alexanderramin/noteline/internal/reconcile"
	"github.com/alexanderramin/noteline/internal/store"
	"github.com/spf13/cobra"
)

// Version is stamped at build time with -ldflags "-X ...cli.Version=v1.2.3".
var Version = "dev"

// App holds everything CLI commands work against.
type App struct {
	Config config.Config
	Store  *store.ProjectStore
	Engine *reconcile.Engine

	// Persist saves the store after a successful mutation.
	Persist func(ctx context.Context) error
	// ProjectForNote finds the project a note belongs to.
	ProjectForNote func(ctx context.Context, notePath string) (string, bool, error)
	// Watch blocks, syncing note edits until ctx is done.
	Watch func(ctx context.Context, report func(core.SyncEvent)) error

	// IsInteractive reports whether stdin is a terminal. Nil means never.
	IsInteractive func() bool
	Now           func() time.Time
}

// NewApp adapts a wired application for the command tree.
func NewApp(a *core.App) *App {
	return &App{
		Config:         a.Config,
		Store:          a.Store,
		Engine:         a.Engine,
		Persist:        a.Persist,
		ProjectForNote: a.ProjectForNote,
		Watch:          a.Watch,
		Now:            time.Now,
	}
}

func (app *App) now() time.Time {
	if app.Now == nil {
		return time.Now().UTC()
	}
	return app.Now().UTC()
}

func (app *App) interactive() bool {
	return app.IsInteractive != nil && app.IsInteractive()
}

func (app *App) persist(ctx context.Context) error {
	if app.Persist == nil {
		return nil
	}
	return app.Persist(ctx)
}

// NewRootCmd creates the top-level "noteline" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "noteline",
		Short:         "Project timelines kept in step with markdown notes",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newProjectCmd(app),
		newItemCmd(app),
		newNoteCmd(app),
		newWatchCmd(app),
		newVersionCmd(),
	)

	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the noteline version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "noteline %s\n", Version)
		},
	}
}
