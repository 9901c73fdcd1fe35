package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ShayCichocki/todo/pkg/models"
)

// TasksPanel displays the scrollable list of produced tasks, oldest first.
type TasksPanel struct {
	tasks      []models.Task
	viewport   viewport.Model
	width      int
	height     int
	// maxTasks caps how many tasks are kept. 0 means unbounded.
	maxTasks   int
	// evicted counts tasks dropped from the front to honour maxTasks.
	evicted    int
	// autoScroll keeps the newest task in view until the user scrolls up.
	autoScroll bool

	labelStyle lipgloss.Style
	emptyStyle lipgloss.Style
}

// NewTasksPanel creates a new TasksPanel instance.
func NewTasksPanel(maxTasks int) *TasksPanel {
	vp := viewport.New(0, 0)
	vp.MouseWheelEnabled = true
	vp.MouseWheelDelta = 1

	return &TasksPanel{
		tasks:      make([]models.Task, 0),
		viewport:   vp,
		maxTasks:   maxTasks,
		autoScroll: true,

		labelStyle: lipgloss.NewStyle().
			Background(lipgloss.Color("11")). // Yellow
			Foreground(lipgloss.Color("0")).
			Align(lipgloss.Center),

		emptyStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true),
	}
}

// Append adds a task to the end of the list and recomputes the scroll region.
func (p *TasksPanel) Append(task models.Task) {
	p.tasks = append(p.tasks, task)
	p.trim()
	p.refresh()
}

// SetMaxTasks changes the list cap, dropping the oldest tasks if needed.
func (p *TasksPanel) SetMaxTasks(maxTasks int) {
	if maxTasks < 0 {
		return
	}
	p.maxTasks = maxTasks
	p.trim()
	p.refresh()
}

// trim drops the oldest tasks beyond maxTasks.
func (p *TasksPanel) trim() {
	if p.maxTasks <= 0 || len(p.tasks) <= p.maxTasks {
		return
	}
	drop := len(p.tasks) - p.maxTasks
	p.evicted += drop
	p.tasks = append(p.tasks[:0:0], p.tasks[drop:]...)
}

// Len returns the number of tasks currently held.
func (p *TasksPanel) Len() int {
	return len(p.tasks)
}

// Evicted returns how many tasks were dropped to honour the cap.
func (p *TasksPanel) Evicted() int {
	return p.evicted
}

// Tasks returns a copy of the held tasks in list order.
func (p *TasksPanel) Tasks() []models.Task {
	out := make([]models.Task, len(p.tasks))
	copy(out, p.tasks)
	return out
}

// SetSize updates the panel dimensions. Labels are re-rendered to the new width.
func (p *TasksPanel) SetSize(width, height int) {
	if height < 1 {
		height = 1
	}
	p.width = width
	p.height = height
	p.viewport.Width = width
	p.viewport.Height = height
	p.refresh()
}

// Update handles scroll input.
func (p *TasksPanel) Update(msg tea.Msg) (*TasksPanel, tea.Cmd) {
	var cmd tea.Cmd
	p.viewport, cmd = p.viewport.Update(msg)
	p.autoScroll = p.viewport.AtBottom()
	return p, cmd
}

// GotoTop scrolls to the oldest task.
func (p *TasksPanel) GotoTop() {
	p.viewport.GotoTop()
	p.autoScroll = p.viewport.AtBottom()
}

// GotoBottom scrolls to the newest task and resumes auto-scroll.
func (p *TasksPanel) GotoBottom() {
	p.viewport.GotoBottom()
	p.autoScroll = true
}

// AutoScroll reports whether the panel follows new tasks.
func (p *TasksPanel) AutoScroll() bool {
	return p.autoScroll
}

// YOffset returns the index of the first visible line.
func (p *TasksPanel) YOffset() int {
	return p.viewport.YOffset
}

// View renders the panel.
func (p *TasksPanel) View() string {
	if len(p.tasks) == 0 {
		msg := p.emptyStyle.Render("No tasks yet. Press Start.")
		return lipgloss.Place(p.width, p.height, lipgloss.Center, lipgloss.Center, msg)
	}
	return p.viewport.View()
}

// refresh re-renders the content and keeps the newest task in view when following.
func (p *TasksPanel) refresh() {
	p.viewport.SetContent(p.render())
	if p.autoScroll {
		p.viewport.GotoBottom()
	}
}

func (p *TasksPanel) render() string {
	style := p.labelStyle
	if p.width > 0 {
		style = style.Width(p.width)
	}

	lines := make([]string, len(p.tasks))
	for i, task := range p.tasks {
		lines[i] = style.Render(task.Text)
	}
	return strings.Join(lines, "\n")
}
