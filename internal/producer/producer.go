// Package producer implements the background loop that appends a timestamped
// task to the list once per interval while running.
//
// The loop never touches UI state. Everything it produces is handed out over
// the channel returned by Events, and the UI is expected to drain that
// channel from its own event loop.
package producer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ShayCichocki/todo/pkg/models"
)

var (
	// ErrShutdownTimeout is returned by Shutdown when the loop did not exit
	// before the context expired. The loop is force-cancelled in that case.
	ErrShutdownTimeout = errors.New("producer did not stop in time")
	// ErrTerminated is returned by Start once the producer has been terminated.
	ErrTerminated = errors.New("producer terminated")
)

const (
	// DefaultInterval is the pause between two produced tasks.
	DefaultInterval = time.Second
	// DefaultBuffer is the capacity of the event channel.
	DefaultBuffer = 64
)

// Event is a single message from the loop to its consumer.
type Event struct {
	Kind EventKind
	// Task is set for EventTask.
	Task models.Task
	// State is set for EventState.
	State State
}

// Config holds the producer settings.
type Config struct {
	// Interval between tasks. Zero means DefaultInterval.
	Interval time.Duration
	// Buffer is the event channel capacity. Zero means DefaultBuffer.
	Buffer int
	// TimestampLayout formats task labels. Empty means models.DefaultTimestampLayout.
	TimestampLayout string
	// Now returns the current time. Nil means time.Now.
	Now func() time.Time
}

// Producer emits tasks on a fixed cadence while running.
type Producer struct {
	id string

	mu       sync.Mutex
	state    State
	interval time.Duration
	layout   string
	seq      int
	started  bool

	now    func() time.Time
	wake   chan struct{}
	events chan Event
	done   chan struct{}
	finish sync.Once

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates an idle producer. The loop does not run until Start is called.
func New(cfg Config) *Producer {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = DefaultBuffer
	}
	if cfg.TimestampLayout == "" {
		cfg.TimestampLayout = models.DefaultTimestampLayout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Producer{
		id:       uuid.New().String()[:8],
		state:    StateIdle,
		interval: cfg.Interval,
		layout:   cfg.TimestampLayout,
		now:      cfg.Now,
		wake:     make(chan struct{}, 1),
		events:   make(chan Event, cfg.Buffer),
		done:     make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// ID returns the short identifier of this producer instance.
func (p *Producer) ID() string {
	return p.id
}

// Events returns the channel of produced events. It is closed when the loop exits.
func (p *Producer) Events() <-chan Event {
	return p.events
}

// Done returns a channel that is closed once the loop has exited.
func (p *Producer) Done() <-chan struct{} {
	return p.done
}

// Stopped reports whether the loop has exited.
func (p *Producer) Stopped() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// State returns the most recently requested state, or StateStopped once the
// loop has exited.
func (p *Producer) State() State {
	if p.Stopped() {
		return StateStopped
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Interval returns the current production interval.
func (p *Producer) Interval() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.interval
}

// Start requests the running state, launching the loop on first use.
// Starting a running producer is a no-op.
func (p *Producer) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state {
	case StateTerminating, StateStopped:
		return ErrTerminated
	case StateRunning:
		return nil
	}

	p.state = StateRunning
	if !p.started {
		p.started = true
		log.Printf("[producer] %s starting (interval %s)", p.id, p.interval)
		go p.run()
		return nil
	}

	log.Printf("[producer] %s resumed", p.id)
	p.notify()
	return nil
}

// Stop requests the idle state. Stopping an idle or terminated producer is a no-op.
func (p *Producer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateRunning {
		return
	}
	p.state = StateIdle
	log.Printf("[producer] %s stopping", p.id)
	p.notify()
}

// Terminate requests that the loop exit. It does not wait; use Done or
// Shutdown for that. A producer that was never started is stopped immediately.
func (p *Producer) Terminate() {
	p.mu.Lock()
	if p.state == StateTerminating || p.state == StateStopped {
		p.mu.Unlock()
		return
	}
	p.state = StateTerminating
	started := p.started
	p.notify()
	p.mu.Unlock()

	log.Printf("[producer] %s terminating", p.id)
	if !started {
		p.close()
	}
}

// Kill force-cancels the loop. Any blocking wait inside it returns at once.
func (p *Producer) Kill() {
	p.mu.Lock()
	if p.state != StateStopped {
		p.state = StateTerminating
	}
	started := p.started
	p.mu.Unlock()

	p.cancel()
	if !started {
		p.close()
	}
}

// Shutdown requests termination and waits for the loop to exit or ctx to
// expire. On expiry the loop is killed and ErrShutdownTimeout is returned.
func (p *Producer) Shutdown(ctx context.Context) error {
	p.Terminate()

	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		log.Printf("[producer] %s did not stop in time, killing", p.id)
		p.Kill()
		return fmt.Errorf("%w: %v", ErrShutdownTimeout, ctx.Err())
	}
}

// SetInterval changes the production interval. A wait already in progress is
// restarted with the new value.
func (p *Producer) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.interval == d {
		return
	}
	p.interval = d
	p.notify()
}

// SetTimestampLayout changes the layout used for subsequent task labels.
func (p *Producer) SetTimestampLayout(layout string) {
	if layout == "" {
		return
	}
	p.mu.Lock()
	p.layout = layout
	p.mu.Unlock()
}

// notify wakes the loop. Callers must hold p.mu.
func (p *Producer) notify() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// close marks the producer stopped and releases its channels exactly once.
func (p *Producer) close() {
	p.finish.Do(func() {
		p.mu.Lock()
		p.state = StateStopped
		p.mu.Unlock()

		p.cancel()
		close(p.events)
		close(p.done)
		log.Printf("[producer] %s stopped", p.id)
	})
}

// run is the producer loop.
func (p *Producer) run() {
	defer p.close()

	lastAck := StateStopped

	for {
		if p.ctx.Err() != nil {
			return
		}

		p.mu.Lock()
		state := p.state
		interval := p.interval
		p.mu.Unlock()

		switch state {
		case StateTerminating, StateStopped:
			return

		case StateIdle:
			if lastAck != StateIdle {
				if !p.emit(Event{Kind: EventState, State: StateIdle}) {
					return
				}
				lastAck = StateIdle
				// emit may have consumed a wake-up; re-read the state first
				continue
			}
			select {
			case <-p.wake:
			case <-p.ctx.Done():
				return
			}

		case StateRunning:
			if lastAck != StateRunning {
				if !p.emit(Event{Kind: EventState, State: StateRunning}) {
					return
				}
				lastAck = StateRunning
				continue
			}

			timer := time.NewTimer(interval)
			select {
			case <-timer.C:
				task, ok := p.produce()
				if !ok {
					continue
				}
				if !p.emit(Event{Kind: EventTask, Task: task}) {
					return
				}
			case <-p.wake:
				timer.Stop()
			case <-p.ctx.Done():
				timer.Stop()
				return
			}
		}
	}
}

// produce builds the next task, or reports false if the producer stopped
// running while the timer fired.
func (p *Producer) produce() (models.Task, bool) {
	at := p.now()

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateRunning {
		return models.Task{}, false
	}
	p.seq++
	return models.NewTask(p.seq, at, p.layout), true
}

// emit delivers ev, blocking while the buffer is full. It gives up when the
// loop is cancelled or asked to terminate.
func (p *Producer) emit(ev Event) bool {
	for {
		select {
		case p.events <- ev:
			return true
		case <-p.ctx.Done():
			return false
		case <-p.wake:
			p.mu.Lock()
			terminating := p.state == StateTerminating
			p.mu.Unlock()
			if terminating {
				return false
			}
		}
	}
}
