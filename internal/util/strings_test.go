package util

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestTruncateANSI(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxWidth int
		want     string
	}{
		{name: "fits unchanged", input: "nvim", maxWidth: 10, want: "nvim"},
		{name: "exact width unchanged", input: "tail -f", maxWidth: 7, want: "tail -f"},
		{name: "long command cut", input: "tail -f /var/log/app.log", maxWidth: 10, want: "tail -f..."},
		{name: "tiny budget is ellipsis", input: "nvim", maxWidth: 3, want: "..."},
		{name: "zero budget is ellipsis", input: "nvim", maxWidth: 0, want: "..."},
		{name: "empty input unchanged", input: "", maxWidth: 10, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateANSI(tt.input, tt.maxWidth); got != tt.want {
				t.Errorf("TruncateANSI(%q, %d) = %q, want %q", tt.input, tt.maxWidth, got, tt.want)
			}
		})
	}
}

func TestTruncateANSIStyled(t *testing.T) {
	styled := lipgloss.NewStyle().Bold(true).Render("tail -f /var/log/app.log")

	got := TruncateANSI(styled, 12)
	if w := lipgloss.Width(got); w > 12 {
		t.Errorf("width = %d, want <= 12", w)
	}

	short := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Render("irb")
	if got := TruncateANSI(short, 12); got != short {
		t.Errorf("short styled string was rewritten: %q", got)
	}
}

func TestTruncateANSIWideRunes(t *testing.T) {
	got := TruncateANSI("日本語のログ", 8)
	if w := lipgloss.Width(got); w > 8 {
		t.Errorf("width = %d, want <= 8", w)
	}
}
