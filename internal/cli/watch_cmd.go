package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	core "github.com/alexanderramin/noteline/internal/app"
	"github.com/alexanderramin/noteline/internal/cli/formatter"
	"github.com/alexanderramin/noteline/internal/config"
	"github.com/spf13/cobra"
)

func newWatchCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Sync note edits into the timeline as they happen",
		Long: `Watch the vault and apply every edit of a linked note to its item until
interrupted. Disabled when sync.auto is false.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.Config.Sync.Auto {
				return fmt.Errorf("auto sync is disabled (set sync.auto: true in %s.yaml)", config.FileName)
			}
			if app.Watch == nil {
				return fmt.Errorf("watching is not available")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Watching %s (Ctrl-C to stop)\n", app.Config.Vault.Root)
			return app.Watch(ctx, func(ev core.SyncEvent) {
				fmt.Fprintln(out, formatter.FormatSyncLine(ev.NotePath, ev.Outcome, ev.Err))
			})
		},
	}
}
