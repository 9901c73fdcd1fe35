package producer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ShayCichocki/todo/pkg/models"
)

// collector drains a producer's events in the background.
type collector struct {
	mu     sync.Mutex
	tasks  []models.Task
	states []State
	closed chan struct{}
}

func collect(p *Producer) *collector {
	c := &collector{closed: make(chan struct{})}
	go func() {
		defer close(c.closed)
		for ev := range p.Events() {
			c.mu.Lock()
			switch ev.Kind {
			case EventTask:
				c.tasks = append(c.tasks, ev.Task)
			case EventState:
				c.states = append(c.states, ev.State)
			}
			c.mu.Unlock()
		}
	}()
	return c
}

func (c *collector) taskCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tasks)
}

func (c *collector) snapshot() ([]models.Task, []State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	tasks := append([]models.Task(nil), c.tasks...)
	states := append([]State(nil), c.states...)
	return tasks, states
}

func (c *collector) countState(s State) int {
	_, states := c.snapshot()
	n := 0
	for _, st := range states {
		if st == s {
			n++
		}
	}
	return n
}

func waitFor(t *testing.T, d time.Duration, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", d)
}

func shutdown(t *testing.T, p *Producer) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := p.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() err=%v, want nil", err)
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateIdle, "idle"},
		{StateRunning, "running"},
		{StateTerminating, "terminating"},
		{StateStopped, "stopped"},
		{State(42), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.state.String(); got != tt.want {
				t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
			}
			if tt.want != "unknown" && !tt.state.Valid() {
				t.Errorf("State(%d).Valid() = false, want true", tt.state)
			}
		})
	}

	if State(42).Valid() {
		t.Error("State(42).Valid() = true, want false")
	}
}

func TestNew_Defaults(t *testing.T) {
	p := New(Config{})
	defer p.Kill()

	if p.State() != StateIdle {
		t.Errorf("State() = %v, want idle", p.State())
	}
	if p.Interval() != DefaultInterval {
		t.Errorf("Interval() = %v, want %v", p.Interval(), DefaultInterval)
	}
	if cap(p.events) != DefaultBuffer {
		t.Errorf("event buffer = %d, want %d", cap(p.events), DefaultBuffer)
	}
	if len(p.ID()) != 8 {
		t.Errorf("ID() = %q, want 8 characters", p.ID())
	}
	if p.Stopped() {
		t.Error("a new producer should not be stopped")
	}
}

func TestProducer_StartEmitsTasksInOrder(t *testing.T) {
	p := New(Config{Interval: 10 * time.Millisecond})
	c := collect(p)
	defer shutdown(t, p)

	if err := p.Start(); err != nil {
		t.Fatalf("Start() err=%v", err)
	}
	if p.State() != StateRunning {
		t.Fatalf("State() = %v, want running", p.State())
	}

	waitFor(t, time.Second, func() bool { return c.taskCount() >= 5 })

	tasks, states := c.snapshot()
	if len(states) == 0 || states[0] != StateRunning {
		t.Errorf("first acknowledged state = %v, want running", states)
	}
	for i, task := range tasks {
		if task.Seq != i+1 {
			t.Errorf("tasks[%d].Seq = %d, want %d", i, task.Seq, i+1)
		}
		if task.Text == "" {
			t.Errorf("tasks[%d].Text is empty", i)
		}
		if i > 0 && task.CreatedAt.Before(tasks[i-1].CreatedAt) {
			t.Errorf("tasks[%d] created before tasks[%d]", i, i-1)
		}
	}
}

func TestProducer_StartTwiceIsNoop(t *testing.T) {
	p := New(Config{Interval: 10 * time.Millisecond})
	c := collect(p)
	defer shutdown(t, p)

	if err := p.Start(); err != nil {
		t.Fatalf("Start() err=%v", err)
	}
	if err := p.Start(); err != nil {
		t.Fatalf("second Start() err=%v", err)
	}

	waitFor(t, time.Second, func() bool { return c.taskCount() >= 2 })

	if n := c.countState(StateRunning); n != 1 {
		t.Errorf("running acknowledged %d times, want 1", n)
	}
}

func TestProducer_StopHaltsProduction(t *testing.T) {
	interval := 10 * time.Millisecond
	p := New(Config{Interval: interval})
	c := collect(p)
	defer shutdown(t, p)

	_ = p.Start()
	waitFor(t, time.Second, func() bool { return c.taskCount() >= 2 })

	p.Stop()
	if p.State() != StateIdle {
		t.Fatalf("State() = %v, want idle", p.State())
	}
	waitFor(t, time.Second, func() bool { return c.countState(StateIdle) == 1 })

	before := c.taskCount()
	time.Sleep(10 * interval)
	if after := c.taskCount(); after != before {
		t.Errorf("tasks produced while idle: before=%d after=%d", before, after)
	}
}

func TestProducer_StopIsIdempotent(t *testing.T) {
	p := New(Config{Interval: 10 * time.Millisecond})
	c := collect(p)
	defer shutdown(t, p)

	_ = p.Start()
	waitFor(t, time.Second, func() bool { return c.taskCount() >= 1 })

	p.Stop()
	p.Stop()
	waitFor(t, time.Second, func() bool { return c.countState(StateIdle) >= 1 })
	time.Sleep(30 * time.Millisecond)

	if n := c.countState(StateIdle); n != 1 {
		t.Errorf("idle acknowledged %d times, want 1", n)
	}
	if p.State() != StateIdle {
		t.Errorf("State() = %v, want idle", p.State())
	}
}

func TestProducer_StopBeforeStartIsNoop(t *testing.T) {
	p := New(Config{})
	p.Stop()

	if p.State() != StateIdle {
		t.Errorf("State() = %v, want idle", p.State())
	}
	shutdown(t, p)
}

func TestProducer_ResumeContinuesSequence(t *testing.T) {
	p := New(Config{Interval: 10 * time.Millisecond})
	c := collect(p)
	defer shutdown(t, p)

	_ = p.Start()
	waitFor(t, time.Second, func() bool { return c.taskCount() >= 2 })
	p.Stop()
	waitFor(t, time.Second, func() bool { return c.countState(StateIdle) == 1 })
	stopped := c.taskCount()

	if err := p.Start(); err != nil {
		t.Fatalf("Start() after Stop err=%v", err)
	}
	waitFor(t, time.Second, func() bool { return c.taskCount() >= stopped+2 })

	tasks, _ := c.snapshot()
	for i, task := range tasks {
		if task.Seq != i+1 {
			t.Fatalf("tasks[%d].Seq = %d, want %d", i, task.Seq, i+1)
		}
	}
	if n := c.countState(StateRunning); n != 2 {
		t.Errorf("running acknowledged %d times, want 2", n)
	}
}

func TestProducer_Cadence(t *testing.T) {
	interval := 100 * time.Millisecond
	p := New(Config{Interval: interval})
	c := collect(p)
	defer shutdown(t, p)

	_ = p.Start()
	time.Sleep(350 * time.Millisecond)

	if n := c.taskCount(); n != 3 {
		t.Fatalf("tasks after 3.5 intervals = %d, want 3", n)
	}

	p.Stop()
	time.Sleep(3 * interval)
	if n := c.taskCount(); n != 3 {
		t.Errorf("tasks after stop = %d, want 3", n)
	}
}

func TestProducer_ShutdownWhileRunning(t *testing.T) {
	p := New(Config{Interval: 10 * time.Millisecond})
	c := collect(p)

	_ = p.Start()
	waitFor(t, time.Second, func() bool { return c.taskCount() >= 1 })

	shutdown(t, p)

	select {
	case <-c.closed:
	case <-time.After(time.Second):
		t.Fatal("event channel was not closed after shutdown")
	}
	if p.State() != StateStopped {
		t.Errorf("State() = %v, want stopped", p.State())
	}
	if !p.Stopped() {
		t.Error("Stopped() = false after shutdown")
	}
	if err := p.Start(); !errors.Is(err, ErrTerminated) {
		t.Errorf("Start() after shutdown err=%v, want %v", err, ErrTerminated)
	}
}

func TestProducer_ShutdownWhileIdle(t *testing.T) {
	p := New(Config{Interval: 10 * time.Millisecond})
	c := collect(p)

	_ = p.Start()
	p.Stop()
	waitFor(t, time.Second, func() bool { return c.countState(StateIdle) == 1 })

	shutdown(t, p)
	<-c.closed
}

func TestProducer_ShutdownNeverStarted(t *testing.T) {
	p := New(Config{})
	c := collect(p)

	shutdown(t, p)

	select {
	case <-c.closed:
	case <-time.After(time.Second):
		t.Fatal("event channel was not closed")
	}
	if p.State() != StateStopped {
		t.Errorf("State() = %v, want stopped", p.State())
	}
}

func TestProducer_ShutdownWithFullBuffer(t *testing.T) {
	p := New(Config{Interval: time.Millisecond, Buffer: 1})
	defer p.Kill()

	_ = p.Start()
	// nobody drains the channel, so the loop ends up blocked in emit
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := p.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() err=%v, want nil", err)
	}
}

func TestProducer_ShutdownTimeout(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	p := New(Config{
		Interval: time.Millisecond,
		Now: func() time.Time {
			once.Do(func() { close(entered) })
			<-release
			return time.Now()
		},
	})
	c := collect(p)

	_ = p.Start()
	<-entered

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := p.Shutdown(ctx)
	if !errors.Is(err, ErrShutdownTimeout) {
		t.Fatalf("Shutdown() err=%v, want %v", err, ErrShutdownTimeout)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("Shutdown() took %v, want it bounded by the context", elapsed)
	}

	close(release)
	select {
	case <-p.Done():
	case <-time.After(time.Second):
		t.Fatal("killed producer never exited")
	}
	<-c.closed
	if n := c.taskCount(); n != 0 {
		t.Errorf("tasks emitted after kill = %d, want 0", n)
	}
}

func TestProducer_SetInterval(t *testing.T) {
	p := New(Config{Interval: time.Hour})
	c := collect(p)
	defer shutdown(t, p)

	_ = p.Start()
	p.SetInterval(10 * time.Millisecond)
	p.SetInterval(0)

	if p.Interval() != 10*time.Millisecond {
		t.Errorf("Interval() = %v, want 10ms", p.Interval())
	}
	waitFor(t, time.Second, func() bool { return c.taskCount() >= 2 })
}

func TestProducer_SetTimestampLayout(t *testing.T) {
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	p := New(Config{
		Interval: 10 * time.Millisecond,
		Now:      func() time.Time { return fixed },
	})
	p.SetTimestampLayout("15:04:05")
	p.SetTimestampLayout("")
	c := collect(p)
	defer shutdown(t, p)

	_ = p.Start()
	waitFor(t, time.Second, func() bool { return c.taskCount() >= 1 })

	tasks, _ := c.snapshot()
	if tasks[0].Text != "03:04:05" {
		t.Errorf("Text = %q, want %q", tasks[0].Text, "03:04:05")
	}
}
