package cmd

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	successStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("114"))
	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("203"))
	keyStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("223"))
	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))
	messageBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("44")).
			Padding(0, 1)
)

func printSuccess(w io.Writer, message string) {
	fmt.Fprintln(w, successStyle.Render(message))
}

func printError(w io.Writer, message string) {
	fmt.Fprintln(w, errorStyle.Render(message))
}

func printHint(w io.Writer, message string) {
	fmt.Fprintln(w, hintStyle.Render(message))
}

func printField(w io.Writer, key, value string) {
	fmt.Fprintf(w, "%s %s\n", keyStyle.Render(key+":"), value)
}

func printMessage(w io.Writer, message string) {
	fmt.Fprintln(w, messageBox.Render(message))
}
