package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"
)

// Footer renders the key help line, or a status message while closing.
type Footer struct {
	help    help.Model
	message string

	messageStyle lipgloss.Style
}

// NewFooter creates a new Footer instance.
func NewFooter() *Footer {
	return &Footer{
		help: help.New(),

		messageStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Italic(true),
	}
}

// SetWidth sets the footer width.
func (f *Footer) SetWidth(width int) {
	f.help.Width = width
}

// SetMessage replaces the help line with message. Empty restores the help line.
func (f *Footer) SetMessage(message string) {
	f.message = message
}

// View renders the footer.
func (f *Footer) View(keys help.KeyMap) string {
	if f.message != "" {
		return f.messageStyle.Render(f.message)
	}
	return f.help.View(keys)
}

// Height returns the footer height in lines.
func (f *Footer) Height() int {
	return 1
}
