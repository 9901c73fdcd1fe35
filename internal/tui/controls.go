package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

// Button labels. Exactly one is shown at any time.
const (
	StartLabel = "Start"
	StopLabel  = "Stop"
)

// keyMap holds the window key bindings.
type keyMap struct {
	Start  key.Binding
	Stop   key.Binding
	Press  key.Binding
	Up     key.Binding
	Down   key.Binding
	Top    key.Binding
	Bottom key.Binding
	Quit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Start: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "start"),
		),
		Stop: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "stop"),
		),
		Press: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "press button"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k", "pgup"),
			key.WithHelp("↑/pgup", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j", "pgdown"),
			key.WithHelp("↓/pgdn", "scroll down"),
		),
		Top: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("g", "top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("G", "bottom"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c", "esc"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap. Disabled bindings are hidden.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Start, k.Stop, k.Press, k.Up, k.Down, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Start, k.Stop, k.Press},
		{k.Up, k.Down, k.Top, k.Bottom},
		{k.Quit},
	}
}

// syncRunning enables exactly one of Start and Stop.
func (k *keyMap) syncRunning(running bool) {
	k.Start.SetEnabled(!running)
	k.Stop.SetEnabled(running)
}

// Controls renders the Start/Stop button bar at the bottom of the window.
type Controls struct {
	width int

	buttonStyle   lipgloss.Style
	disabledStyle lipgloss.Style
}

// NewControls creates a new Controls instance.
func NewControls() *Controls {
	return &Controls{
		width: 80,

		buttonStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Background(lipgloss.Color("250")).
			Foreground(lipgloss.Color("0")).
			Bold(true).
			Align(lipgloss.Center),

		disabledStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("236")).
			Foreground(lipgloss.Color("240")).
			Align(lipgloss.Center),
	}
}

// SetWidth sets the width of the button bar.
func (c *Controls) SetWidth(width int) {
	c.width = width
}

// Label returns the text of the visible button.
func (c *Controls) Label(running bool) string {
	if running {
		return StopLabel
	}
	return StartLabel
}

// View renders the visible button. A disabled button is drawn greyed out
// and cannot be pressed; the window uses that while closing.
func (c *Controls) View(running, disabled bool) string {
	style := c.buttonStyle
	if disabled {
		style = c.disabledStyle
	}
	inner := c.width - 2
	if inner < len(StartLabel) {
		inner = len(StartLabel)
	}
	return style.Width(inner).Render(c.Label(running))
}

// Height returns the button bar height in lines.
func (c *Controls) Height() int {
	return lipgloss.Height(c.View(false, false))
}
