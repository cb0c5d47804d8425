package session

import (
	"strings"
	"sync"
	"time"
)

// DefaultTypingIdle is the inactivity window after which a typing session is
// considered over.
const DefaultTypingIdle = 1000 * time.Millisecond

// TypingDebouncer is the small Idle/Typing state machine behind the typing
// indicator. It is deliberately independent of any UI or transport: the emit
// callback receives true for typing_start and false for typing_stop.
//
// Transitions:
//   - Idle + keystroke with non-empty content -> Typing, emit start
//   - Typing + keystroke -> Typing, deadline restarted
//   - Typing + deadline expires -> Idle, emit stop
//   - message sent -> Idle, emit stop regardless of the deadline
type TypingDebouncer struct {
	mu     sync.Mutex
	typing bool
	timer  *time.Timer
	idle   time.Duration
	emit   func(started bool)
}

// NewTypingDebouncer creates a debouncer with the given inactivity window.
func NewTypingDebouncer(idle time.Duration, emit func(started bool)) *TypingDebouncer {
	if idle <= 0 {
		idle = DefaultTypingIdle
	}
	return &TypingDebouncer{idle: idle, emit: emit}
}

// InputChanged records a keystroke. The first keystroke with non-empty
// content emits typing_start; every keystroke restarts the inactivity
// deadline.
func (d *TypingDebouncer) InputChanged(text string) {
	notify := false

	d.mu.Lock()
	if !d.typing {
		if strings.TrimSpace(text) == "" {
			d.mu.Unlock()
			return
		}
		d.typing = true
		notify = true
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.idle, d.expire)
	d.mu.Unlock()

	if notify {
		d.emit(true)
	}
}

// MessageSent resets the state machine to Idle and emits typing_stop
// immediately, regardless of any pending deadline.
func (d *TypingDebouncer) MessageSent() {
	d.mu.Lock()
	d.typing = false
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()

	d.emit(false)
}

// IsTyping reports the current state, mostly for tests.
func (d *TypingDebouncer) IsTyping() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.typing
}

// Stop cancels any pending deadline without emitting. Used on shutdown.
func (d *TypingDebouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.typing = false
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *TypingDebouncer) expire() {
	d.mu.Lock()
	if !d.typing {
		d.mu.Unlock()
		return
	}
	d.typing = false
	d.timer = nil
	d.mu.Unlock()

	d.emit(false)
}
