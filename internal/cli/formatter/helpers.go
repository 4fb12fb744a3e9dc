package formatter

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/alexanderramin/noteline/internal/domain"
	"github.com/alexanderramin/noteline/internal/reconcile"
)

// RenderBox wraps content in a rounded-border box with an optional title.
func RenderBox(title string, content string) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorDim).
		PaddingLeft(2).
		PaddingRight(2).
		PaddingTop(1).
		PaddingBottom(1)

	if title != "" {
		return boxStyle.Render(StyleHeader.Render(strings.ToUpper(title)) + "\n\n" + content)
	}
	return boxStyle.Render(content)
}

// RelativeDateFrom returns a human-friendly distance between t and now in
// whole days, e.g. "In 3d" or "2w ago".
func RelativeDateFrom(t time.Time, now time.Time) string {
	days := int(math.Round(t.Sub(now).Hours() / 24))

	switch {
	case days == 0:
		return "Today"
	case days == 1:
		return "Tomorrow"
	case days == -1:
		return "Yesterday"
	case days > 0 && days < 14:
		return fmt.Sprintf("In %dd", days)
	case days > 0 && days < 60:
		return fmt.Sprintf("In %dw", days/7)
	case days > 0:
		return fmt.Sprintf("In %dmo", days/30)
	case days > -14:
		return fmt.Sprintf("%dd ago", -days)
	case days > -60:
		return fmt.Sprintf("%dw ago", -days/7)
	default:
		return fmt.Sprintf("%dmo ago", -days/30)
	}
}

// HumanTimestamp renders t relative to now for recent times and as an
// absolute date otherwise.
func HumanTimestamp(t time.Time, now time.Time) string {
	diff := now.Sub(t)
	switch {
	case diff < 0:
		return t.Format("Jan 2, 2006")
	case diff < time.Minute:
		return "Just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	default:
		return t.Format("Jan 2, 2006")
	}
}

// DateSpan renders a task's range as "Mar 3 → Mar 10 (7d)".
func DateSpan(start, end time.Time, days int) string {
	layout := "Jan 2"
	if start.Year() != end.Year() {
		layout = "Jan 2, 2006"
	}
	return fmt.Sprintf("%s → %s %s", start.Format(layout), end.Format(layout), Dim(fmt.Sprintf("(%dd)", days)))
}

func TaskStatusPill(status domain.TaskStatus) string {
	switch status {
	case domain.TaskTodo:
		return StyleBlue.Render("○ Todo")
	case domain.TaskInProgress:
		return StyleGreen.Render("● In Progress")
	case domain.TaskDone:
		return StyleDim.Render("✔ Done")
	case domain.TaskCancelled:
		return StyleDim.Render("✖ Cancelled")
	default:
		return StyleDim.Render(string(status))
	}
}

func MilestoneStatusPill(status *domain.MilestoneStatus) string {
	if status == nil {
		return Dim("◇ --")
	}
	switch *status {
	case domain.MilestonePending:
		return StyleYellow.Render("◇ Pending")
	case domain.MilestoneCompleted:
		return StyleGreen.Render("◆ Completed")
	default:
		return StyleDim.Render(string(*status))
	}
}

// ItemStatusPill renders the status of either item variant.
func ItemStatusPill(it domain.Item) string {
	switch v := it.(type) {
	case *domain.Task:
		return TaskStatusPill(v.Status)
	case *domain.Milestone:
		return MilestoneStatusPill(v.Status)
	default:
		return Dim("--")
	}
}

// Labels renders labels as "#a #b" in purple, or "--" when there are none.
func Labels(labels []string) string {
	if len(labels) == 0 {
		return Dim("--")
	}
	tags := make([]string, len(labels))
	for i, l := range labels {
		tags[i] = "#" + l
	}
	return StylePurple.Render(strings.Join(tags, " "))
}

// OutcomeBadge renders a sync outcome.
func OutcomeBadge(o reconcile.Outcome) string {
	switch o {
	case reconcile.Applied:
		return StyleGreen.Render("✔ " + o.String())
	case reconcile.Rejected:
		return StyleRed.Render("✖ " + o.String())
	case reconcile.Skipped:
		return StyleYellow.Render("⊘ " + o.String())
	default:
		return StyleDim.Render("· " + o.String())
	}
}

// TruncID returns the first 8 characters of an ID, dimmed.
func TruncID(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return StyleDim.Render(id)
}

func valueOrDash(p *string) string {
	if p == nil || *p == "" {
		return Dim("--")
	}
	return StyleFg.Render(*p)
}
