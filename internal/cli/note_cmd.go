package cli

import (
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/alexanderramin/noteline/internal/cli/formatter"
	"github.com/alexanderramin/noteline/internal/reconcile"
	"github.com/spf13/cobra"
)

func newNoteCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "note",
		Short: "Sync items with their markdown notes",
	}

	cmd.AddCommand(
		newNoteCreateCmd(app),
		newNotePullCmd(app),
		newNotePushCmd(app),
		newNoteLoadCmd(app),
	)

	return cmd
}

// projectFolder is the default vault folder for a project's notes:
// <vault.project_folder>/<project title>.
func projectFolder(app *App, projectID string) string {
	title := projectID
	if p, ok := app.Store.GetProject(projectID); ok {
		title = p.Title
	}
	name := strings.TrimSuffix(reconcile.SafeFileName(title), ".md")
	return path.Join(app.Config.Vault.ProjectFolder, name)
}

func newNoteCreateCmd(app *App) *cobra.Command {
	var folder, templateFile string

	cmd := &cobra.Command{
		Use:   "create PROJECT ITEM",
		Short: "Create a note mirroring an item and link the item to it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := resolveProjectID(app, args[0])
			if err != nil {
				return err
			}
			item, err := resolveItem(app, projectID, args[1])
			if err != nil {
				return err
			}

			template := app.Config.Notes.TemplateFor(item.Type())
			if templateFile != "" {
				data, err := os.ReadFile(templateFile)
				if err != nil {
					return fmt.Errorf("reading template: %w", err)
				}
				template = string(data)
			}
			if folder == "" {
				folder = projectFolder(app, projectID)
			}

			notePath, err := app.Engine.CreateNoteFromItem(cmd.Context(), projectID, item.Base().ID, folder, template)
			if errors.Is(err, reconcile.ErrDocumentExists) {
				return fmt.Errorf("a note for %q already exists in %s; use \"note push\" to update it", item.Base().Title, folder)
			}
			if err != nil {
				return err
			}
			if err := app.persist(cmd.Context()); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created note %s\n", notePath)
			return nil
		},
	}

	cmd.Flags().StringVar(&folder, "folder", "", "Vault folder for the note (default: <project folder>/<project title>)")
	cmd.Flags().StringVar(&templateFile, "template", "", "File whose content becomes the note body")

	return cmd
}

func newNotePullCmd(app *App) *cobra.Command {
	var projectRef string

	cmd := &cobra.Command{
		Use:   "pull NOTE",
		Short: "Apply a note's metadata to its item",
		Long: `Apply a note's metadata to the item it names. NOTE is a path relative to
the vault root. The project is found from the note unless --project is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			notePath := args[0]

			var projectID string
			if projectRef != "" {
				id, err := resolveProjectID(app, projectRef)
				if err != nil {
					return err
				}
				projectID = id
			} else {
				id, ok, err := app.ProjectForNote(ctx, notePath)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("%s is not linked to any project; pass --project", notePath)
				}
				projectID = id
			}

			outcome, err := app.Engine.SyncNoteToTimeline(ctx, notePath, projectID)
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatSyncLine(notePath, outcome, err))
			if err != nil {
				return err
			}
			if outcome == reconcile.Applied {
				return app.persist(ctx)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&projectRef, "project", "", "Project the note belongs to")

	return cmd
}

func newNotePushCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "push PROJECT ITEM",
		Short: "Write an item's fields into its linked note",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := resolveProjectID(app, args[0])
			if err != nil {
				return err
			}
			item, err := resolveItem(app, projectID, args[1])
			if err != nil {
				return err
			}
			if item.Base().NotePath == nil {
				return fmt.Errorf("%q has no note; use \"note create\" first", item.Base().Title)
			}

			outcome, err := app.Engine.SyncTimelineToNote(cmd.Context(), projectID, item.Base().ID)
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatSyncLine(*item.Base().NotePath, outcome, err))
			return err
		},
	}
}

func newNoteLoadCmd(app *App) *cobra.Command {
	var folder string

	cmd := &cobra.Command{
		Use:   "load PROJECT",
		Short: "Apply every note in a folder to the project's items",
		Long: `Scan a vault folder and apply each note whose metadata names an item of the
project. Notes for unknown items are counted but never create items.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := resolveProjectID(app, args[0])
			if err != nil {
				return err
			}
			if folder == "" {
				folder = projectFolder(app, projectID)
			}

			report, err := app.Engine.LoadProjectFromNotes(cmd.Context(), projectID, folder)
			if err != nil {
				return err
			}
			if report.Applied > 0 {
				if err := app.persist(cmd.Context()); err != nil {
					return err
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatLoadReport(folder, report))
			return nil
		},
	}

	cmd.Flags().StringVar(&folder, "folder", "", "Vault folder to scan (default: <project folder>/<project title>)")

	return cmd
}
