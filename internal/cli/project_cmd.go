package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alexanderramin/noteline/internal/cli/formatter"
	"github.com/alexanderramin/noteline/internal/domain"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newProjectCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
	}

	cmd.AddCommand(
		newProjectAddCmd(app),
		newProjectListCmd(app),
		newProjectShowCmd(app),
		newProjectDeleteCmd(app),
		newProjectExportCmd(app),
		newProjectImportCmd(app),
	)

	return cmd
}

func newProjectAddCmd(app *App) *cobra.Command {
	var id, title, description string
	var tags []string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a new project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == "" {
				id = uuid.New().String()
			}
			if _, exists := app.Store.GetProject(id); exists {
				return fmt.Errorf("project %q already exists", id)
			}

			now := app.now()
			p := &domain.Project{
				ProjectID:   id,
				Title:       strings.TrimSpace(title),
				Description: optionalString(description),
				Items:       []domain.Item{},
				Tags:        tags,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := p.Validate(); err != nil {
				return err
			}

			app.Store.SaveProject(p)
			if err := app.persist(cmd.Context()); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created project %s [%s]\n", p.Title, p.ProjectID)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Project ID (default: generated UUID)")
	cmd.Flags().StringVar(&title, "title", "", "Project title")
	cmd.Flags().StringVar(&description, "description", "", "Project description")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Tag (repeatable or comma-separated)")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

func newProjectListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			projects := app.Store.GetProjects()
			if len(projects) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No projects found.")
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatProjectList(projects, app.now()))
			return nil
		},
	}
}

func newProjectShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show PROJECT",
		Short: "Show project details and items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := resolveProjectID(app, args[0])
			if err != nil {
				return err
			}
			p, ok := app.Store.GetProject(projectID)
			if !ok {
				return fmt.Errorf("project not found: %q", projectID)
			}

			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatProjectShow(p, app.now()))
			return nil
		},
	}
}

func newProjectDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "delete PROJECT",
		Aliases: []string{"rm"},
		Short:   "Delete a project and all of its items",
		Long:    "Delete a project and all of its items. Linked notes are left on disk.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := resolveProjectID(app, args[0])
			if err != nil {
				return err
			}
			if !app.Store.DeleteProject(projectID) {
				return fmt.Errorf("project not found: %q", projectID)
			}
			if err := app.persist(cmd.Context()); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted project %s\n", projectID)
			return nil
		},
	}
}

func newProjectExportCmd(app *App) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export PROJECT",
		Short: "Export a project as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := resolveProjectID(app, args[0])
			if err != nil {
				return err
			}
			data, ok := app.Store.ExportProject(projectID)
			if !ok {
				return fmt.Errorf("project not found: %q", projectID)
			}

			if out == "" || out == "-" {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return err
			}
			if err := os.WriteFile(out, append(data, '\n'), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", out, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %s to %s\n", projectID, out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default: stdout)")

	return cmd
}

func newProjectImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Import a project from JSON",
		Long: `Import a project exported with "project export". Use "-" to read stdin.
A project with the same ID is replaced. Invalid input leaves the store unchanged.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			var err error
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}

			p, err := app.Store.ImportProject(data)
			if err != nil {
				return err
			}
			if err := app.persist(cmd.Context()); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported project %s [%s] with %d items\n", p.Title, p.ProjectID, len(p.Items))
			return nil
		},
	}
}
