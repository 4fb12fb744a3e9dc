package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/noteline/internal/reconcile"
)

// FormatLoadReport summarizes a bulk load of notes into a project.
func FormatLoadReport(folder string, r reconcile.LoadReport) string {
	headers := []string{"SCANNED", "APPLIED", "UNKNOWN", "IGNORED", "MALFORMED", "REJECTED", "SKIPPED"}
	row := []string{
		fmt.Sprint(r.Scanned),
		StyleGreen.Render(fmt.Sprint(r.Applied)),
		fmt.Sprint(r.Unknown),
		Dim(fmt.Sprint(r.Ignored)),
		rejectedCell(r.Malformed),
		rejectedCell(r.Rejected),
		fmt.Sprint(r.Skipped),
	}
	return RenderBox("Loaded "+folder, RenderTable(headers, [][]string{row}))
}

func rejectedCell(n int) string {
	if n == 0 {
		return Dim("0")
	}
	return StyleRed.Render(fmt.Sprint(n))
}

// FormatSyncLine renders one sync result, e.g. for watch output.
func FormatSyncLine(notePath string, o reconcile.Outcome, err error) string {
	var b strings.Builder
	b.WriteString(OutcomeBadge(o))
	b.WriteString("  ")
	b.WriteString(StyleFg.Render(notePath))
	if err != nil {
		b.WriteString("  ")
		b.WriteString(StyleRed.Render(err.Error()))
	}
	return b.String()
}
