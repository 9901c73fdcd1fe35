package tui

import (
	"fmt"
	"log"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ShayCichocki/todo/internal/config"
	"github.com/ShayCichocki/todo/internal/producer"
	"github.com/ShayCichocki/todo/pkg/models"
)

// StartMsg presses Start.
type StartMsg struct{}

// StopMsg presses Stop.
type StopMsg struct{}

// CloseMsg requests that the window close, as if the user pressed q.
type CloseMsg struct{}

// ConfigReloadedMsg applies a reloaded configuration to the open window.
type ConfigReloadedMsg struct {
	Config *config.Config
}

// producerEventMsg carries one event from the producer goroutine.
type producerEventMsg struct {
	event producer.Event
}

// producerClosedMsg is sent once the producer's event channel is closed.
type producerClosedMsg struct{}

// closePollMsg asks the window to check whether the producer has exited.
type closePollMsg struct{}

// Options configures an App.
type Options struct {
	Title           string
	Producer        producer.Config
	MaxTasks        int
	PollInterval    time.Duration
	ShutdownTimeout time.Duration
	// Autostart presses Start as soon as the window opens.
	Autostart bool
	// Mouse enables wheel scrolling and button clicks.
	Mouse bool
}

// OptionsFromConfig builds Options from a loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Title: cfg.TUI.Title,
		Producer: producer.Config{
			Interval:        cfg.Producer.Interval,
			Buffer:          cfg.Producer.Buffer,
			TimestampLayout: cfg.Producer.TimestampLayout,
		},
		MaxTasks:        cfg.TUI.MaxTasks,
		PollInterval:    cfg.Shutdown.PollInterval,
		ShutdownTimeout: cfg.Shutdown.Timeout,
		Mouse:           cfg.TUI.Mouse,
	}
}

// App is the main bubbletea model: the to-do window.
type App struct {
	opts Options

	// producer is nil until Start is first pressed. At most one exists.
	producer *producer.Producer
	// acked is the last state the producer loop acknowledged.
	acked producer.State

	header   *Header
	tasks    *TasksPanel
	controls *Controls
	footer   *Footer
	keys     keyMap

	width  int
	height int

	// closing is set once the close sequence has begun.
	closing      bool
	closeStarted time.Time
	// forced is set when the producer had to be killed to close.
	forced bool
	// quitting indicates the window has been released.
	quitting bool

	now func() time.Time
}

// NewApp creates a new App instance.
func NewApp(opts Options) *App {
	d := config.Default()
	if opts.Title == "" {
		opts.Title = d.TUI.Title
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = d.Shutdown.PollInterval
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = d.Shutdown.Timeout
	}

	a := &App{
		opts:     opts,
		acked:    producer.StateIdle,
		header:   NewHeader(opts.Title),
		tasks:    NewTasksPanel(opts.MaxTasks),
		controls: NewControls(),
		footer:   NewFooter(),
		keys:     newKeyMap(),
		width:    80,
		height:   24,
		now:      time.Now,
	}
	a.updateSizes()
	a.keys.syncRunning(false)
	return a
}

// NewProgram creates a new Bubbletea program that runs the window.
// The returned program can receive messages via Send().
func NewProgram(opts Options) (*tea.Program, *App) {
	app := NewApp(opts)

	// Signals are turned into a CloseMsg by the caller so the close sequence runs.
	programOpts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithoutSignalHandler()}
	if opts.Mouse {
		programOpts = append(programOpts, tea.WithMouseCellMotion())
	}
	return tea.NewProgram(app, programOpts...), app
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	if a.opts.Autostart {
		return func() tea.Msg { return StartMsg{} }
	}
	return nil
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		cmd = a.handleKey(msg)

	case tea.MouseMsg:
		cmd = a.handleMouse(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.updateSizes()

	case StartMsg:
		cmd = a.start()

	case StopMsg:
		a.stop()

	case CloseMsg:
		cmd = a.onClose()

	case producerEventMsg:
		cmd = a.handleProducerEvent(msg.event)

	case producerClosedMsg:
		if a.closing {
			cmd = a.release()
		}

	case closePollMsg:
		cmd = a.pollClose()

	case ConfigReloadedMsg:
		a.applyConfig(msg.Config)
	}

	a.keys.syncRunning(a.Running())
	return a, cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if a.quitting {
		return "Goodbye!\n"
	}

	a.header.SetStatus(a.status(), a.tasks.Len())

	return a.header.View() + "\n" +
		a.tasks.View() + "\n" +
		a.controls.View(a.Running(), a.closing) + "\n" +
		a.footer.View(a.keys)
}

// Running reports whether the producer is running, which is exactly when
// the Stop button is visible.
func (a *App) Running() bool {
	return a.producer != nil && a.producer.State() == producer.StateRunning
}

// ButtonLabel returns the label of the visible button.
func (a *App) ButtonLabel() string {
	return a.controls.Label(a.Running())
}

// Tasks returns the tasks currently in the list.
func (a *App) Tasks() []models.Task {
	return a.tasks.Tasks()
}

// Producer returns the current producer, or nil if Start was never pressed.
func (a *App) Producer() *producer.Producer {
	return a.producer
}

// Forced reports whether closing had to kill the producer.
func (a *App) Forced() bool {
	return a.forced
}

// start creates the producer on first use and requests the running state.
func (a *App) start() tea.Cmd {
	if a.closing {
		return nil
	}

	var cmd tea.Cmd
	if a.producer == nil {
		a.producer = producer.New(a.opts.Producer)
		cmd = listen(a.producer.Events())
		log.Printf("[tui] created producer %s", a.producer.ID())
	}

	if err := a.producer.Start(); err != nil {
		log.Printf("[tui] start failed: %v", err)
	}
	return cmd
}

// stop requests the idle state. Safe to call repeatedly.
func (a *App) stop() {
	if a.producer == nil || a.closing {
		return
	}
	a.producer.Stop()
}

// press activates whichever button is visible.
func (a *App) press() tea.Cmd {
	if a.Running() {
		a.stop()
		return nil
	}
	return a.start()
}

// appendTask adds a task to the end of the list.
func (a *App) appendTask(task models.Task) {
	a.tasks.Append(task)
}

// onClose starts the close sequence: request termination, then poll until
// the producer has exited or the shutdown timeout has passed.
func (a *App) onClose() tea.Cmd {
	if a.closing {
		// second request: stop waiting
		return a.force()
	}
	if a.producer == nil || a.producer.Stopped() {
		return a.release()
	}

	a.closing = true
	a.closeStarted = a.now()
	a.producer.Terminate()
	a.footer.SetMessage("Shutting down...")
	log.Printf("[tui] waiting for producer %s to stop", a.producer.ID())

	return a.schedulePoll()
}

// pollClose is one step of the close polling loop.
func (a *App) pollClose() tea.Cmd {
	if !a.closing || a.quitting {
		return nil
	}
	if a.producer.Stopped() {
		return a.release()
	}
	if a.now().Sub(a.closeStarted) >= a.opts.ShutdownTimeout {
		log.Printf("[tui] producer %s did not stop within %s", a.producer.ID(), a.opts.ShutdownTimeout)
		return a.force()
	}
	return a.schedulePoll()
}

func (a *App) schedulePoll() tea.Cmd {
	return tea.Tick(a.opts.PollInterval, func(time.Time) tea.Msg {
		return closePollMsg{}
	})
}

// force kills the producer and releases the window without waiting.
func (a *App) force() tea.Cmd {
	if a.producer != nil && !a.producer.Stopped() {
		a.producer.Kill()
		a.forced = true
	}
	return a.release()
}

// release closes the window.
func (a *App) release() tea.Cmd {
	if a.quitting {
		return nil
	}
	a.quitting = true
	return tea.Quit
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, a.keys.Quit):
		return a.onClose()
	case a.closing:
		return nil
	case key.Matches(msg, a.keys.Start):
		return a.start()
	case key.Matches(msg, a.keys.Stop):
		a.stop()
		return nil
	case key.Matches(msg, a.keys.Press):
		return a.press()
	case key.Matches(msg, a.keys.Top):
		a.tasks.GotoTop()
		return nil
	case key.Matches(msg, a.keys.Bottom):
		a.tasks.GotoBottom()
		return nil
	}

	var cmd tea.Cmd
	a.tasks, cmd = a.tasks.Update(msg)
	return cmd
}

func (a *App) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if !a.opts.Mouse {
		return nil
	}

	if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
		top := a.buttonTop()
		if msg.Y >= top && msg.Y < top+a.controls.Height() && !a.closing {
			return a.press()
		}
		return nil
	}

	var cmd tea.Cmd
	a.tasks, cmd = a.tasks.Update(msg)
	return cmd
}

func (a *App) handleProducerEvent(ev producer.Event) tea.Cmd {
	switch ev.Kind {
	case producer.EventTask:
		a.appendTask(ev.Task)
	case producer.EventState:
		a.acked = ev.State
	}

	if a.producer == nil {
		return nil
	}
	return listen(a.producer.Events())
}

// applyConfig applies the settings that can change while the window is open.
func (a *App) applyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	next := OptionsFromConfig(cfg)

	a.opts.Producer = next.Producer
	a.opts.PollInterval = next.PollInterval
	a.opts.ShutdownTimeout = next.ShutdownTimeout
	a.opts.MaxTasks = next.MaxTasks

	a.tasks.SetMaxTasks(next.MaxTasks)
	if a.producer != nil {
		a.producer.SetInterval(next.Producer.Interval)
		a.producer.SetTimestampLayout(next.Producer.TimestampLayout)
	}
	log.Printf("[tui] applied config: interval %s, max tasks %d", next.Producer.Interval, next.MaxTasks)
}

// updateSizes lays out the components for the current window size.
func (a *App) updateSizes() {
	a.header.SetWidth(a.width)
	a.controls.SetWidth(a.width)
	a.footer.SetWidth(a.width)

	listHeight := a.height - a.header.Height() - a.controls.Height() - a.footer.Height()
	a.tasks.SetSize(a.width, listHeight)
}

// buttonTop returns the first screen row of the button bar.
func (a *App) buttonTop() int {
	listHeight := a.height - a.header.Height() - a.controls.Height() - a.footer.Height()
	if listHeight < 1 {
		listHeight = 1
	}
	return a.header.Height() + listHeight
}

// status describes the producer for the header.
func (a *App) status() string {
	switch {
	case a.closing:
		return "closing"
	case a.producer == nil:
		return "idle"
	default:
		return fmt.Sprintf("%s %s", a.producer.ID(), a.acked)
	}
}

// listen reads the next producer event on a command goroutine.
func listen(events <-chan producer.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return producerClosedMsg{}
		}
		return producerEventMsg{event: ev}
	}
}
