package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	newStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	updStyle  = lipgloss.NewStyle().Faint(true)
	goneStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

func NewLine(w io.Writer, path string) {
	fmt.Fprintln(w, newStyle.Render("new")+"  "+path)
}

func UpdLine(w io.Writer, path string) {
	fmt.Fprintln(w, updStyle.Render("upd")+"  "+path)
}

func GoneLine(w io.Writer, path string) {
	fmt.Fprintln(w, goneStyle.Render("del")+"  "+path)
}

func SummaryLine(w io.Writer, count int) {
	fmt.Fprintf(w, "synced %d files\n", count)
}

// OkLine reports a file that parsed cleanly.
func OkLine(w io.Writer, path string, scenarios int) {
	fmt.Fprintf(w, "%s  %s (%d scenarios)\n", okStyle.Render("ok"), path, scenarios)
}

// ErrLine reports a file that failed to parse.
func ErrLine(w io.Writer, path string, err error) {
	fmt.Fprintf(w, "%s %s: %v\n", errStyle.Render("err"), path, err)
}
