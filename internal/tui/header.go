package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Header renders the window title and the producer status.
type Header struct {
	title  string
	status string
	count  int
	width  int

	titleStyle  lipgloss.Style
	statusStyle lipgloss.Style
}

// NewHeader creates a new Header.
func NewHeader(title string) *Header {
	return &Header{
		title: title,
		width: 80,

		titleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Padding(0, 1),

		statusStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")),
	}
}

// SetWidth sets the header width.
func (h *Header) SetWidth(width int) {
	h.width = width
}

// SetStatus sets the status text shown next to the title.
func (h *Header) SetStatus(status string, count int) {
	h.status = status
	h.count = count
}

// View renders the header.
func (h *Header) View() string {
	left := h.titleStyle.Render(h.title)
	right := h.statusStyle.Render(fmt.Sprintf("%s · %d tasks ", h.status, h.count))

	gap := h.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return left
	}
	return left + lipgloss.NewStyle().Width(gap).Render("") + right
}

// Height returns the header height in lines.
func (h *Header) Height() int {
	return 1
}
