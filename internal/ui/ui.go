package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#DC2626")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#CA8A04"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#16A34A"))
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")).Italic(true)
	boldStyle    = lipgloss.NewStyle().Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
)

// FormatError returns a styled multi-line error message.
func FormatError(title, detail, suggestion string) string {
	out := errorStyle.Render("Error: "+title) + "\n"
	if detail != "" {
		out += "  " + detail + "\n"
	}
	if suggestion != "" {
		out += "  " + hintStyle.Render("Hint: "+suggestion) + "\n"
	}
	return out
}

// StepStarted prints a styled status when a bootstrap step begins.
func StepStarted(name string) {
	fmt.Printf("  %s %s\n", dimStyle.Render("..."), name)
}

// StepDone prints a styled status when a bootstrap step finishes.
func StepDone(name, detail string) {
	msg := successStyle.Render("  OK ") + " " + name
	if detail != "" {
		msg += " " + dimStyle.Render(detail)
	}
	// overwrite the "started" line by moving up
	fmt.Printf("\033[1A\033[2K%s\n", msg)
}

// StepSkipped prints a styled status when a bootstrap step is not needed.
func StepSkipped(name string) {
	fmt.Printf("  %s %s\n", dimStyle.Render("--"), dimStyle.Render(name+" (skipped)"))
}

// Success renders a green success message.
func Success(msg string) string {
	return successStyle.Render(msg)
}

// Warn renders a yellow warning message.
func Warn(msg string) string {
	return warnStyle.Render("Warning: " + msg)
}

// Bold renders text in bold.
func Bold(s string) string {
	return boldStyle.Render(s)
}

// Hint renders text in dim italic.
func Hint(s string) string {
	return hintStyle.Render(s)
}

// Dim renders text in dim gray.
func Dim(s string) string {
	return dimStyle.Render(s)
}

// CheckOK prints a green check for a satisfied requirement.
func CheckOK(name, detail string) {
	fmt.Printf("  %s %s: %s\n", successStyle.Render("OK "), name, detail)
}

// CheckFail prints a red mark for a missing requirement.
func CheckFail(name, message, suggestion string) {
	fmt.Printf("  %s %s: %s\n", errorStyle.Render("ERR"), name, message)
	if suggestion != "" {
		fmt.Printf("      %s\n", hintStyle.Render("Hint: "+suggestion))
	}
}

// CheckWarn prints a yellow mark for an optional requirement that is absent.
func CheckWarn(name, message, suggestion string) {
	fmt.Printf("  %s %s: %s\n", warnStyle.Render("-- "), name, message)
	if suggestion != "" {
		fmt.Printf("      %s\n", hintStyle.Render("Hint: "+suggestion))
	}
}
