// Package notice holds the single user-visible message banner. Every notice
// dismisses itself after a fixed interval so a stale banner never blocks a
// retry.
package notice

import (
	"sync"
	"time"

	"github.com/ashendes/smart-dining/internal/apperr"
	log "github.com/sirupsen/logrus"
)

// Kind tells the user how to read a notice
type Kind string

// Kind constants
const (
	KindError   Kind = "error"
	KindInfo    Kind = "info"
	KindPending Kind = "pending"
	// KindUnresolved is used when the outcome is not known yet. It is not a
	// failure.
	KindUnresolved Kind = "unresolved"
)

// DefaultTTL is how long a notice stays visible
const DefaultTTL = 5 * time.Second

// Notice is one banner message
type Notice struct {
	Kind    Kind      `json:"kind"`
	Text    string    `json:"text"`
	ShownAt time.Time `json:"shown_at"`
}

// Board shows at most one notice at a time
type Board struct {
	mu      sync.Mutex
	ttl     time.Duration
	current *Notice
	timer   *time.Timer
	seq     uint64
}

// NewBoard creates a Board whose notices last ttl
func NewBoard(ttl time.Duration) *Board {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Board{ttl: ttl}
}

// Show replaces the current notice and restarts the dismiss timer
func (b *Board) Show(kind Kind, text string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.timer != nil {
		b.timer.Stop()
	}
	b.seq++
	seq := b.seq
	b.current = &Notice{Kind: kind, Text: text, ShownAt: time.Now()}
	b.timer = time.AfterFunc(b.ttl, func() { b.expire(seq) })

	log.WithFields(log.Fields{
		"kind": kind,
		"text": text,
	}).Debug("Notice shown")
}

// ShowError shows err using the text a user should see
func (b *Board) ShowError(err error) {
	if err == nil {
		return
	}
	b.Show(KindError, apperr.Message(err))
}

// Current returns the visible notice, if any
func (b *Board) Current() (Notice, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.current == nil {
		return Notice{}, false
	}
	return *b.current, true
}

// Dismiss hides the current notice
func (b *Board) Dismiss() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.current = nil
}

func (b *Board) expire(seq uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// a newer notice owns the banner
	if seq != b.seq {
		return
	}
	b.current = nil
	b.timer = nil
}
