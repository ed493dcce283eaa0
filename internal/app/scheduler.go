package app

import (
	"sync"
	"time"
)

// Scheduler runs fn repeatedly every interval until the returned cancel func is called.
// Cancel must not wait for an in-flight fn to return.
type Scheduler interface {
	Every(interval time.Duration, fn func()) (cancel func())
}

// TickerScheduler drives tasks from a time.Ticker on a dedicated goroutine.
type TickerScheduler struct{}

func (TickerScheduler) Every(interval time.Duration, fn func()) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	var once sync.Once

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				select {
				case <-done:
					return
				default:
				}
				fn()
			}
		}
	}()

	return func() {
		once.Do(func() { close(done) })
	}
}

// ManualScheduler fires tasks only when Advance is called. Useful for tests and stepping.
type ManualScheduler struct {
	mu     sync.Mutex
	nextID int
	tasks  map[int]func()
}

func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{tasks: make(map[int]func())}
}

func (m *ManualScheduler) Every(_ time.Duration, fn func()) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.tasks[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.tasks, id)
		m.mu.Unlock()
	}
}

// Advance fires every registered task n times. Tasks cancelled mid-way stop firing.
func (m *ManualScheduler) Advance(n int) {
	for i := 0; i < n; i++ {
		m.mu.Lock()
		ids := make([]int, 0, len(m.tasks))
		for id := range m.tasks {
			ids = append(ids, id)
		}
		m.mu.Unlock()

		for _, id := range ids {
			m.mu.Lock()
			fn, ok := m.tasks[id]
			m.mu.Unlock()
			if ok {
				fn()
			}
		}
	}
}

// Pending reports how many tasks are scheduled.
func (m *ManualScheduler) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}
