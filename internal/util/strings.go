// Package util holds small string helpers shared by the rendering commands.
package util

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// TruncateANSI shortens a string to maxWidth visual columns, appending "..."
// when it is cut. Width is measured after ANSI escape sequences and wide
// characters, so styled terminal command previews keep their column budget.
func TruncateANSI(s string, maxWidth int) string {
	if maxWidth <= 3 {
		return "..."
	}
	if lipgloss.Width(s) <= maxWidth {
		return s
	}
	// ansi.Truncate counts the tail toward the final width.
	return ansi.Truncate(s, maxWidth, "...")
}
