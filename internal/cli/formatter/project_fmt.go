package formatter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/alexanderramin/noteline/internal/domain"
)

// FormatProjectList renders the project table inside a bordered box.
func FormatProjectList(projects []*domain.Project, now time.Time) string {
	headers := []string{"ID", "TITLE", "TASKS", "MILESTONES", "DONE", "TAGS", "UPDATED"}
	rows := make([][]string, 0, len(projects))

	for _, p := range projects {
		id := TruncID(p.ProjectID)
		if strings.TrimSpace(p.ProjectID) == "" {
			id = Dim("--")
		}
		c := countItems(p)
		rows = append(rows, []string{
			id,
			Bold(p.Title),
			strconv.Itoa(c.tasks),
			strconv.Itoa(c.milestones),
			RenderProgress(c.donePct(), 6),
			Labels(p.Tags),
			HumanTimestamp(p.UpdatedAt, now),
		})
	}

	return RenderBox("Projects", RenderTable(headers, rows))
}

type itemCounts struct {
	tasks, milestones, done int
}

// donePct is the share of tasks that are done, ignoring cancelled ones.
func (c itemCounts) donePct() int {
	if c.tasks == 0 {
		return 0
	}
	return c.done * 100 / c.tasks
}

func countItems(p *domain.Project) itemCounts {
	var c itemCounts
	for _, it := range p.Items {
		switch v := it.(type) {
		case *domain.Task:
			if v.Status == domain.TaskCancelled {
				continue
			}
			c.tasks++
			if v.Status == domain.TaskDone {
				c.done++
			}
		case *domain.Milestone:
			c.milestones++
		}
	}
	return c
}

// FormatProjectShow renders a project card: metadata on the left, its items
// below.
func FormatProjectShow(p *domain.Project, now time.Time) string {
	var b strings.Builder

	b.WriteString(StyleBold.Render(p.Title) + "\n")
	if p.Description != nil && *p.Description != "" {
		b.WriteString(Dim(*p.Description) + "\n")
	}
	b.WriteString("\n")

	c := countItems(p)
	fmt.Fprintf(&b, "%s  %s\n", StyleDim.Render("ID     "), StyleFg.Render(p.ProjectID))
	fmt.Fprintf(&b, "%s  %s\n", StyleDim.Render("TAGS   "), Labels(p.Tags))
	fmt.Fprintf(&b, "%s  %s\n", StyleDim.Render("DONE   "), RenderProgress(c.donePct(), 12))
	fmt.Fprintf(&b, "%s  %s\n", StyleDim.Render("CREATED"), HumanTimestamp(p.CreatedAt, now))
	fmt.Fprintf(&b, "%s  %s\n", StyleDim.Render("UPDATED"), HumanTimestamp(p.UpdatedAt, now))

	meta := lipgloss.NewStyle().Width(60).Render(b.String())

	items := StyleDim.Render("No items")
	if len(p.Items) > 0 {
		items = FormatItemTable(p.Items)
	}
	return RenderBox("", lipgloss.JoinVertical(lipgloss.Left, meta, Header("Items"), items))
}
