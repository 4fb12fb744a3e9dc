package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alexanderramin/noteline/internal/cli/formatter"
	"github.com/alexanderramin/noteline/internal/domain"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// notelineHuhTheme returns a huh theme using the formatter's Gruvbox palette.
func notelineHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	// Focused state: orange accent
	t.Focused.Title = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	t.Focused.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorGreen)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.TextInput.Cursor = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Focused.Description = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	return t
}

// runTaskForm collects a new task interactively. Fields already set from
// flags are shown as the starting values.
func runTaskForm(in *taskInput) error {
	if in.Status == "" {
		in.Status = string(domain.TaskTodo)
	}
	labels := strings.Join(in.Labels, ", ")

	statusOptions := []huh.Option[string]{
		huh.NewOption("Todo", string(domain.TaskTodo)),
		huh.NewOption("In progress", string(domain.TaskInProgress)),
		huh.NewOption("Done", string(domain.TaskDone)),
		huh.NewOption("Cancelled", string(domain.TaskCancelled)),
	}
	priorityOptions := []huh.Option[string]{
		huh.NewOption("None", ""),
		huh.NewOption("Low", string(domain.PriorityLow)),
		huh.NewOption("Medium", string(domain.PriorityMedium)),
		huh.NewOption("High", string(domain.PriorityHigh)),
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Value(&in.Title).
				Validate(validateRequired),
			dateInput("Start (YYYY-MM-DD)", &in.Start),
			dateInput("End (YYYY-MM-DD)", &in.End).
				Validate(func(s string) error { return validateEndAfter(in.Start, s) }),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Status").
				Options(statusOptions...).
				Value(&in.Status),
			huh.NewSelect[string]().
				Title("Priority").
				Options(priorityOptions...).
				Value(&in.Priority),
			huh.NewInput().
				Title("Assignee").
				Placeholder("blank for none").
				Value(&in.Assignee),
			huh.NewInput().
				Title("Progress %").
				Placeholder("0-100, blank for none").
				Value(&in.Progress).
				Validate(validateOptionalPercent),
			huh.NewInput().
				Title("Labels").
				Placeholder("comma-separated").
				Value(&labels),
		),
	).WithTheme(notelineHuhTheme()).WithShowHelp(false)

	if err := form.Run(); err != nil {
		return err
	}
	in.Labels = splitList(labels)
	return nil
}

// dateInput returns a huh.Input for a required YYYY-MM-DD date.
func dateInput(title string, value *string) *huh.Input {
	return huh.NewInput().
		Title(title).
		Placeholder("2025-06-30").
		Value(value).
		Validate(validateDate)
}

func validateRequired(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("required")
	}
	return nil
}

func validateDate(s string) error {
	if _, err := domain.ParseDate(s); err != nil {
		return fmt.Errorf("use YYYY-MM-DD format")
	}
	return nil
}

// validateEndAfter accepts an end date on or after start.
func validateEndAfter(start, end string) error {
	if err := validateDate(end); err != nil {
		return err
	}
	s, err := domain.ParseDate(start)
	if err != nil {
		return nil
	}
	e, _ := domain.ParseDate(end)
	if e.Before(s) {
		return fmt.Errorf("end must not be before start")
	}
	return nil
}

// validateOptionalPercent accepts empty or a whole number from 0 to 100.
func validateOptionalPercent(s string) error {
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 || v > 100 {
		return fmt.Errorf("enter a number from 0 to 100")
	}
	return nil
}

// splitList splits a comma-separated form field into trimmed, non-empty values.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
