package runner

import (
	"sync"
	"time"
)

// Task is a cancellable recurring job.
type Task interface {
	Stop()
}

// Scheduler starts recurring tasks. Runners depend on it instead of the wall clock
// so tests can drive time by hand.
type Scheduler interface {
	Every(interval time.Duration, fn func()) Task
}

// TickerScheduler runs each task on its own time.Ticker goroutine.
type TickerScheduler struct{}

func (TickerScheduler) Every(interval time.Duration, fn func()) Task {
	t := &tickerTask{done: make(chan struct{})}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-t.done:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
	return t
}

type tickerTask struct {
	once sync.Once
	done chan struct{}
}

func (t *tickerTask) Stop() {
	t.once.Do(func() { close(t.done) })
}

// ManualScheduler fires tasks only when Advance is called.
type ManualScheduler struct {
	mu    sync.Mutex
	tasks []*manualTask
}

type manualTask struct {
	mu      sync.Mutex
	fn      func()
	stopped bool
}

func (t *manualTask) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
}

func (t *manualTask) live() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.stopped
}

// NewManualScheduler returns a scheduler with no running tasks.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

func (m *ManualScheduler) Every(_ time.Duration, fn func()) Task {
	t := &manualTask{fn: fn}
	m.mu.Lock()
	m.tasks = append(m.tasks, t)
	m.mu.Unlock()
	return t
}

// Advance fires every live task once per step. Tasks stopped mid-step do not fire again.
func (m *ManualScheduler) Advance(steps int) {
	for i := 0; i < steps; i++ {
		m.mu.Lock()
		live := m.tasks[:0]
		for _, t := range m.tasks {
			if t.live() {
				live = append(live, t)
			}
		}
		m.tasks = live
		batch := append([]*manualTask(nil), live...)
		m.mu.Unlock()

		for _, t := range batch {
			if t.live() {
				t.fn()
			}
		}
	}
}

// Active counts tasks that have not been stopped.
func (m *ManualScheduler) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.tasks {
		if t.live() {
			n++
		}
	}
	return n
}
