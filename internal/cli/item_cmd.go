package cli

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/alexanderramin/noteline/internal/cli/formatter"
	"github.com/alexanderramin/noteline/internal/domain"
	"github.com/alexanderramin/noteline/internal/store"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newItemCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Manage tasks and milestones",
	}

	cmd.AddCommand(
		newItemAddTaskCmd(app),
		newItemAddMilestoneCmd(app),
		newItemUpdateCmd(app),
		newItemRemoveCmd(app),
		newItemListCmd(app),
		newItemShowCmd(app),
		newItemDepsCheckCmd(app),
	)

	return cmd
}

// taskInput is the textual form of a new task, filled from flags and
// optionally from the interactive form.
type taskInput struct {
	ID           string
	Title        string
	Start        string
	End          string
	Status       string
	Assignee     string
	Priority     string
	Progress     string
	Labels       []string
	Dependencies []string
}

func (in taskInput) toTask() (*domain.Task, error) {
	var errs []error

	start, err := domain.ParseDate(in.Start)
	if err != nil {
		errs = append(errs, fmt.Errorf("start: use YYYY-MM-DD format"))
	}
	end, err := domain.ParseDate(in.End)
	if err != nil {
		errs = append(errs, fmt.Errorf("end: use YYYY-MM-DD format"))
	}

	status := domain.TaskTodo
	if in.Status != "" {
		if status, err = parseTaskStatus(in.Status); err != nil {
			errs = append(errs, err)
		}
	}

	t := &domain.Task{
		ItemBase: domain.ItemBase{
			ID:      domain.CoalesceStr(in.ID, uuid.New().String()),
			Title:   strings.TrimSpace(in.Title),
			Labels:  nonNil(in.Labels),
			History: []domain.HistoryEntry{},
		},
		Start:        start,
		End:          end,
		DurationDays: domain.DurationDays(start, end),
		Status:       status,
		Assignee:     optionalString(in.Assignee),
		Dependencies: nonNil(in.Dependencies),
	}

	if in.Priority != "" {
		p, err := parsePriority(in.Priority)
		if err != nil {
			errs = append(errs, err)
		}
		t.Priority = &p
	}
	if in.Progress != "" {
		pct, err := parseProgress(in.Progress)
		if err != nil {
			errs = append(errs, err)
		}
		t.Progress = &pct
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return t, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func newItemAddTaskCmd(app *App) *cobra.Command {
	var in taskInput
	var interactive bool

	cmd := &cobra.Command{
		Use:   "add-task PROJECT",
		Short: "Add a task to a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := resolveProjectID(app, args[0])
			if err != nil {
				return err
			}

			if interactive {
				if !app.interactive() {
					return fmt.Errorf("--interactive needs a terminal")
				}
				if err := runTaskForm(&in); err != nil {
					return err
				}
			}
			if in.Title == "" || in.Start == "" || in.End == "" {
				return fmt.Errorf("--title, --start and --end are required")
			}

			task, err := in.toTask()
			if err != nil {
				return err
			}
			for _, dep := range task.Dependencies {
				if _, ok := app.Store.GetItem(projectID, dep); !ok {
					return fmt.Errorf("dependency %q is not an item of this project", dep)
				}
			}
			if err := app.Store.AddItem(projectID, task); err != nil {
				return err
			}
			if err := app.persist(cmd.Context()); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Added task %s [%s]\n", task.Title, task.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.ID, "id", "", "Item ID (default: generated UUID)")
	cmd.Flags().StringVar(&in.Title, "title", "", "Task title")
	cmd.Flags().StringVar(&in.Start, "start", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&in.End, "end", "", "End date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&in.Status, "status", "", "Status: todo, in-progress, done, cancelled (default: todo)")
	cmd.Flags().StringVar(&in.Assignee, "assignee", "", "Assignee")
	cmd.Flags().StringVar(&in.Priority, "priority", "", "Priority: low, medium, high")
	cmd.Flags().StringVar(&in.Progress, "progress", "", "Progress percent (0-100)")
	cmd.Flags().StringSliceVar(&in.Labels, "label", nil, "Label (repeatable or comma-separated)")
	cmd.Flags().StringSliceVar(&in.Dependencies, "depends", nil, "ID of a task or milestone this task waits on")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Fill in the task with a form")

	return cmd
}

func newItemAddMilestoneCmd(app *App) *cobra.Command {
	var id, title, status string
	var date time.Time
	var labels []string

	cmd := &cobra.Command{
		Use:   "add-milestone PROJECT",
		Short: "Add a milestone to a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := resolveProjectID(app, args[0])
			if err != nil {
				return err
			}

			m := &domain.Milestone{
				ItemBase: domain.ItemBase{
					ID:      domain.CoalesceStr(id, uuid.New().String()),
					Title:   strings.TrimSpace(title),
					Labels:  nonNil(labels),
					History: []domain.HistoryEntry{},
				},
				Date: date,
			}
			if status != "" {
				st, err := parseMilestoneStatus(status)
				if err != nil {
					return err
				}
				m.Status = &st
			}

			if err := app.Store.AddItem(projectID, m); err != nil {
				return err
			}
			if err := app.persist(cmd.Context()); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Added milestone %s [%s]\n", m.Title, m.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Item ID (default: generated UUID)")
	cmd.Flags().StringVar(&title, "title", "", "Milestone title")
	cmd.Flags().Var(newDateValue(&date), "date", "Milestone date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&status, "status", "", "Status: pending, completed")
	cmd.Flags().StringSliceVar(&labels, "label", nil, "Label (repeatable or comma-separated)")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("date")

	return cmd
}

func newItemUpdateCmd(app *App) *cobra.Command {
	var title, status, assignee, priority, progress string
	var labels, depends []string
	var start, end, date time.Time
	startVal, endVal, dateVal := newDateValue(&start), newDateValue(&end), newDateValue(&date)

	cmd := &cobra.Command{
		Use:   "update PROJECT ITEM",
		Short: "Change fields of a task or milestone",
		Long: `Change fields of a task or milestone. Only the flags given are changed.
Changing start or end recomputes the task's duration. The change is recorded
in the item's history.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := resolveProjectID(app, args[0])
			if err != nil {
				return err
			}
			item, err := resolveItem(app, projectID, args[1])
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			base := domain.BasePatch{}
			if flags.Changed("title") {
				base.Title = &title
			}
			if flags.Changed("label") {
				base.Labels = nonNil(labels)
			}

			var patch domain.ItemPatch
			switch v := item.(type) {
			case *domain.Task:
				if flags.Changed("date") {
					return fmt.Errorf("--date applies to milestones; use --start/--end for tasks")
				}
				p := domain.TaskPatch{BasePatch: base, Start: startVal.ptr(), End: endVal.ptr()}
				if p.Start != nil || p.End != nil {
					p.DurationDays = domain.Ptr(domain.DurationDays(
						domain.ValueOr(p.Start, v.Start), domain.ValueOr(p.End, v.End)))
				}
				if flags.Changed("status") {
					st, err := parseTaskStatus(status)
					if err != nil {
						return err
					}
					p.Status = &st
				}
				if flags.Changed("assignee") {
					p.Assignee = &assignee
				}
				if flags.Changed("priority") {
					pr, err := parsePriority(priority)
					if err != nil {
						return err
					}
					p.Priority = &pr
				}
				if flags.Changed("progress") {
					pct, err := parseProgress(progress)
					if err != nil {
						return err
					}
					p.Progress = &pct
				}
				if flags.Changed("depends") {
					p.Dependencies = nonNil(depends)
					for _, dep := range p.Dependencies {
						if v.DependsOn(dep) {
							continue
						}
						if _, ok := app.Store.GetItem(projectID, dep); !ok {
							return fmt.Errorf("dependency %q is not an item of this project", dep)
						}
						if app.Store.HasCircularDependency(projectID, v.ID, dep) {
							return fmt.Errorf("depending on %s would create a cycle", dep)
						}
					}
				}
				patch = p

			case *domain.Milestone:
				for _, name := range []string{"start", "end", "assignee", "priority", "progress", "depends"} {
					if flags.Changed(name) {
						return fmt.Errorf("--%s applies to tasks only", name)
					}
				}
				p := domain.MilestonePatch{BasePatch: base, Date: dateVal.ptr()}
				if flags.Changed("status") {
					st, err := parseMilestoneStatus(status)
					if err != nil {
						return err
					}
					p.Status = &st
				}
				patch = p
			}

			before, after := domain.ChangedFields(item, patch)
			if len(after) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to change.")
				return nil
			}
			patch = withHistory(patch, domain.HistoryEntry{
				By:      app.Config.History.Author,
				At:      app.now(),
				Changes: "updated: " + strings.Join(sortedKeys(after), ", "),
				Before:  before,
				After:   after,
			})

			if err := app.Store.UpdateItem(projectID, item.Base().ID, patch); err != nil {
				return err
			}
			if err := app.persist(cmd.Context()); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s: %s\n", item.Base().Title, strings.Join(sortedKeys(after), ", "))
			if item.Base().NotePath != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Run \"noteline note push %s %s\" to update its note.\n", args[0], item.Base().ID)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&title, "title", "", "New title")
	flags.Var(startVal, "start", "Task start date (YYYY-MM-DD)")
	flags.Var(endVal, "end", "Task end date (YYYY-MM-DD)")
	flags.Var(dateVal, "date", "Milestone date (YYYY-MM-DD)")
	flags.StringVar(&status, "status", "", "Status")
	flags.StringVar(&assignee, "assignee", "", "Task assignee")
	flags.StringVar(&priority, "priority", "", "Task priority: low, medium, high")
	flags.StringVar(&progress, "progress", "", "Task progress percent (0-100)")
	flags.StringSliceVar(&labels, "label", nil, "Replace labels (pass --label= to clear)")
	flags.StringSliceVar(&depends, "depends", nil, "Replace task dependencies (pass --depends= to clear)")

	return cmd
}

func withHistory(p domain.ItemPatch, h domain.HistoryEntry) domain.ItemPatch {
	switch v := p.(type) {
	case domain.TaskPatch:
		v.AppendHistory = []domain.HistoryEntry{h}
		return v
	case domain.MilestonePatch:
		v.AppendHistory = []domain.HistoryEntry{h}
		return v
	}
	return p
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func newItemRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "remove PROJECT ITEM",
		Aliases: []string{"rm"},
		Short:   "Remove a task or milestone",
		Long:    "Remove a task or milestone. Its note, if any, is left on disk.",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := resolveProjectID(app, args[0])
			if err != nil {
				return err
			}
			item, err := resolveItem(app, projectID, args[1])
			if err != nil {
				return err
			}
			if err := app.Store.RemoveItem(projectID, item.Base().ID); err != nil {
				return err
			}
			if err := app.persist(cmd.Context()); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s %s\n", item.Type(), item.Base().Title)
			return nil
		},
	}
}

func newItemListCmd(app *App) *cobra.Command {
	var f store.ItemFilter
	var priorities []string
	var from, to time.Time
	fromVal, toVal := newDateValue(&from), newDateValue(&to)

	cmd := &cobra.Command{
		Use:   "list PROJECT",
		Short: "List a project's items, optionally filtered",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := resolveProjectID(app, args[0])
			if err != nil {
				return err
			}
			for _, s := range priorities {
				p, err := parsePriority(s)
				if err != nil {
					return err
				}
				f.Priorities = append(f.Priorities, p)
			}
			f.From, f.To = fromVal.ptr(), toVal.ptr()

			items, err := app.Store.FilterItems(projectID, f)
			if err != nil {
				return err
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No items match.")
				return nil
			}

			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatItemTable(items))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringSliceVar(&f.Labels, "label", nil, "Only items with any of these labels")
	flags.StringSliceVar(&f.Assignees, "assignee", nil, "Only tasks assigned to any of these people")
	flags.StringSliceVar(&f.Statuses, "status", nil, "Only tasks with any of these statuses")
	flags.StringSliceVar(&priorities, "priority", nil, "Only tasks with any of these priorities")
	flags.Var(fromVal, "from", "Only items ending on or after this date")
	flags.Var(toVal, "to", "Only items starting on or before this date")
	flags.StringVar(&f.Search, "search", "", "Only items whose title contains this text")

	return cmd
}

func newItemShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show PROJECT ITEM",
		Short: "Show one item and its change history",
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

			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatItemDetail(item, app.now()))
			return nil
		},
	}
}

func newItemDepsCheckCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "deps-check PROJECT TASK CANDIDATE",
		Short: "Check whether TASK could depend on CANDIDATE without a cycle",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := resolveProjectID(app, args[0])
			if err != nil {
				return err
			}
			task, err := resolveItem(app, projectID, args[1])
			if err != nil {
				return err
			}
			if task.Type() != domain.ItemTask {
				return fmt.Errorf("%s is a %s; only tasks have dependencies", task.Base().ID, task.Type())
			}
			candidate, err := resolveItem(app, projectID, args[2])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if app.Store.HasCircularDependency(projectID, task.Base().ID, candidate.Base().ID) {
				fmt.Fprintf(out, "%s cycle: %s cannot depend on %s\n",
					formatter.StyleRed.Render("✖"), task.Base().Title, candidate.Base().Title)
				return nil
			}
			already := ""
			if slices.Contains(task.(*domain.Task).Dependencies, candidate.Base().ID) {
				already = " (already a dependency)"
			}
			fmt.Fprintf(out, "%s ok: %s can depend on %s%s\n",
				formatter.StyleGreen.Render("✔"), task.Base().Title, candidate.Base().Title, already)
			return nil
		},
	}
}
