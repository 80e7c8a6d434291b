// ABOUTME: Single state-owning coordinator loop for the adapter core
// ABOUTME: Registry, snapshots and session flags are only touched from loop context
package loop

import (
	"sync"
	"time"
)

// Loop serializes all state-touching work onto one goroutine. Session readers,
// timers and player adapter callbacks communicate with the core exclusively by
// posting callbacks here, so the shared structures need no locks.
type Loop struct {
	events chan func()
	done   chan struct{}

	mu      sync.Mutex
	timers  map[*Timer]struct{}
	running bool
}

// Timer is a pending delayed callback.
type Timer struct {
	loop  *Loop
	timer *time.Timer
}

// Stop cancels the timer. Safe to call multiple times; a callback that is
// already queued on the loop may still run.
func (t *Timer) Stop() {
	t.timer.Stop()
	t.loop.forget(t)
}

// New creates a loop. Call Start to begin processing.
func New() *Loop {
	return &Loop{
		events: make(chan func(), 256),
		done:   make(chan struct{}),
		timers: make(map[*Timer]struct{}),
	}
}

// Start launches the loop goroutine.
func (l *Loop) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return
	}
	l.running = true
	go l.run()
}

func (l *Loop) run() {
	for {
		select {
		case <-l.done:
			return
		default:
		}
		select {
		case fn := <-l.events:
			fn()
		case <-l.done:
			return
		}
	}
}

// Post queues fn to run in loop context. After Stop the callback is dropped.
func (l *Loop) Post(fn func()) {
	select {
	case <-l.done:
		return
	default:
	}
	select {
	case l.events <- fn:
	case <-l.done:
	}
}

// Sync posts fn and waits until it has run. Used as a shutdown barrier and by
// tests. Returns immediately if the loop is stopped.
func (l *Loop) Sync(fn func()) {
	ran := make(chan struct{})
	l.Post(func() {
		fn()
		close(ran)
	})
	select {
	case <-ran:
	case <-l.done:
	}
}

// PostDelayed schedules fn to run in loop context after d.
func (l *Loop) PostDelayed(d time.Duration, fn func()) *Timer {
	t := &Timer{loop: l}
	t.timer = time.AfterFunc(d, func() {
		l.forget(t)
		l.Post(fn)
	})
	l.mu.Lock()
	l.timers[t] = struct{}{}
	l.mu.Unlock()
	return t
}

// Every runs fn in loop context on every tick of d until the returned stop
// function is called or the loop is stopped.
func (l *Loop) Every(d time.Duration, fn func()) (stop func()) {
	ticker := time.NewTicker(d)
	cancel := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				l.Post(fn)
			case <-cancel:
				return
			case <-l.done:
				return
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			ticker.Stop()
			close(cancel)
		})
	}
}

func (l *Loop) forget(t *Timer) {
	l.mu.Lock()
	delete(l.timers, t)
	l.mu.Unlock()
}

// Stop cancels pending timers and shuts the loop down. Queued callbacks that
// have not run yet are discarded. Idempotent.
func (l *Loop) Stop() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	l.running = false
	for t := range l.timers {
		t.timer.Stop()
	}
	l.timers = map[*Timer]struct{}{}
	l.mu.Unlock()
	close(l.done)
}
