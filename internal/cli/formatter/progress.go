package formatter

import (
	"fmt"
	"strings"
)

const (
	filledBlock = "█"
	emptyBlock  = "░"
)

// RenderProgress renders a task's completion like [████░░░░]  45%. Colors go
// red below a third, yellow below two thirds, and green above that.
func RenderProgress(pct int, width int) string {
	pct = min(max(pct, 0), 100)
	width = max(width, 2)

	filled := pct * width / 100
	bar := strings.Repeat(filledBlock, filled) + strings.Repeat(emptyBlock, width-filled)

	style := StyleGreen
	switch {
	case pct < 33:
		style = StyleRed
	case pct < 66:
		style = StyleYellow
	}
	return fmt.Sprintf("[%s] %3d%%", style.Render(bar), pct)
}

// ProgressCell renders progress for a table cell, "--" when unset.
func ProgressCell(pct *int) string {
	if pct == nil {
		return Dim("--")
	}
	return RenderProgress(*pct, 8)
}
