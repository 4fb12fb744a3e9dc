package formatter

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/alexanderramin/noteline/internal/domain"
)

// FormatItemTable renders items in their stored order.
func FormatItemTable(items []domain.Item) string {
	headers := []string{"ID", "TYPE", "TITLE", "WHEN", "STATUS", "PRIORITY", "PROGRESS", "LABELS", "NOTE"}
	rows := make([][]string, 0, len(items))

	for _, it := range items {
		b := it.Base()
		row := []string{TruncID(b.ID), string(it.Type()), Bold(b.Title)}
		switch v := it.(type) {
		case *domain.Task:
			row = append(row,
				DateSpan(v.Start, v.End, v.DurationDays),
				TaskStatusPill(v.Status),
				PriorityBadge(v.Priority),
				ProgressCell(v.Progress),
			)
		case *domain.Milestone:
			row = append(row,
				"◆ "+v.Date.Format("Jan 2, 2006"),
				MilestoneStatusPill(v.Status),
				Dim("--"),
				Dim("--"),
			)
		}
		row = append(row, Labels(b.Labels), valueOrDash(b.NotePath))
		rows = append(rows, row)
	}
	return RenderTable(headers, rows)
}

// FormatItemDetail renders every field of one item followed by its history,
// newest entry first.
func FormatItemDetail(it domain.Item, now time.Time) string {
	b := it.Base()
	var sb strings.Builder

	sb.WriteString(StyleBold.Render(b.Title) + "  " + Dim(string(it.Type())) + "\n\n")
	field := func(name, value string) {
		fmt.Fprintf(&sb, "%s  %s\n", StyleDim.Render(fmt.Sprintf("%-8s", name)), value)
	}

	field("ID", StyleFg.Render(b.ID))
	switch v := it.(type) {
	case *domain.Task:
		field("WHEN", DateSpan(v.Start, v.End, v.DurationDays))
		field("STATUS", TaskStatusPill(v.Status))
		field("ASSIGNEE", valueOrDash(v.Assignee))
		field("PRIORITY", PriorityBadge(v.Priority))
		field("PROGRESS", ProgressCell(v.Progress))
		deps := Dim("--")
		if len(v.Dependencies) > 0 {
			deps = StyleFg.Render(strings.Join(v.Dependencies, ", "))
		}
		field("DEPENDS", deps)
	case *domain.Milestone:
		field("DATE", StyleFg.Render(v.Date.Format("Jan 2, 2006")))
		field("STATUS", MilestoneStatusPill(v.Status))
	}
	field("LABELS", Labels(b.Labels))
	field("NOTE", valueOrDash(b.NotePath))

	sb.WriteString("\n" + Header("History") + "\n")
	if len(b.History) == 0 {
		sb.WriteString(Dim("No changes recorded") + "\n")
	}
	for i := len(b.History) - 1; i >= 0; i-- {
		sb.WriteString(formatHistoryEntry(b.History[i], now))
	}
	return RenderBox("", sb.String())
}

func formatHistoryEntry(h domain.HistoryEntry, now time.Time) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s  %s  %s\n", Dim(HumanTimestamp(h.At, now)), StyleBlue.Render(h.By), h.Changes)
	for _, k := range slices.Sorted(maps.Keys(h.After)) {
		before, had := h.Before[k]
		if !had || before == "" {
			before = "∅"
		}
		fmt.Fprintf(&sb, "    %s %s → %s\n", Dim(k+":"), Dim(before), StyleFg.Render(h.After[k]))
	}
	return sb.String()
}
