package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder collects typing emissions in order.
type recorder struct {
	mu     sync.Mutex
	events []bool
}

func (r *recorder) emit(started bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, started)
}

func (r *recorder) snapshot() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]bool, len(r.events))
	copy(out, r.events)
	return out
}

func TestTypingDebouncer_FirstKeystrokeEmitsStart(t *testing.T) {
	rec := &recorder{}
	d := NewTypingDebouncer(time.Hour, rec.emit)
	defer d.Stop()

	d.InputChanged("h")
	assert.True(t, d.IsTyping())
	assert.Equal(t, []bool{true}, rec.snapshot())

	// Further keystrokes do not re-emit.
	d.InputChanged("he")
	d.InputChanged("hel")
	assert.Equal(t, []bool{true}, rec.snapshot())
}

func TestTypingDebouncer_EmptyInputDoesNotStart(t *testing.T) {
	rec := &recorder{}
	d := NewTypingDebouncer(time.Hour, rec.emit)
	defer d.Stop()

	d.InputChanged("")
	d.InputChanged("   ")
	assert.False(t, d.IsTyping())
	assert.Empty(t, rec.snapshot())
}

func TestTypingDebouncer_IdleDeadlineEmitsStop(t *testing.T) {
	rec := &recorder{}
	d := NewTypingDebouncer(30*time.Millisecond, rec.emit)
	defer d.Stop()

	d.InputChanged("h")

	require.Eventually(t, func() bool {
		return !d.IsTyping()
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []bool{true, false}, rec.snapshot())
}

func TestTypingDebouncer_KeystrokesExtendTheDeadline(t *testing.T) {
	rec := &recorder{}
	d := NewTypingDebouncer(80*time.Millisecond, rec.emit)
	defer d.Stop()

	d.InputChanged("h")
	for i := 0; i < 4; i++ {
		time.Sleep(40 * time.Millisecond)
		d.InputChanged("more")
		assert.True(t, d.IsTyping(), "keystroke %d should keep the session alive", i)
	}

	require.Eventually(t, func() bool {
		return !d.IsTyping()
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []bool{true, false}, rec.snapshot())
}

func TestTypingDebouncer_MessageSentStopsImmediately(t *testing.T) {
	rec := &recorder{}
	d := NewTypingDebouncer(time.Hour, rec.emit)
	defer d.Stop()

	d.InputChanged("hello")
	d.MessageSent()

	assert.False(t, d.IsTyping())
	assert.Equal(t, []bool{true, false}, rec.snapshot())

	// The canceled deadline must not fire a second stop later.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, []bool{true, false}, rec.snapshot())
}

func TestTypingDebouncer_StopIsSilent(t *testing.T) {
	rec := &recorder{}
	d := NewTypingDebouncer(time.Hour, rec.emit)

	d.InputChanged("hello")
	d.Stop()

	assert.False(t, d.IsTyping())
	assert.Equal(t, []bool{true}, rec.snapshot())
}
