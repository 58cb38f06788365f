// Package session owns the volatile per-user conversation state: the
// single pending free-text expectation between a prompt and its reply.
package session

import (
	"sync"

	"telegram-companion-bot/internal/models"
)

type Tracker struct {
	mu      sync.Mutex
	pending map[int64]models.PendingPrompt
}

func NewTracker() *Tracker {
	return &Tracker{pending: make(map[int64]models.PendingPrompt)}
}

// Set overwrites any existing pending prompt for the user.
func (t *Tracker) Set(chatID int64, p models.PendingPrompt) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending[chatID] = p
}

// Take reads and clears the pending prompt in one step, so a given
// incoming message resolves at most one prompt.
func (t *Tracker) Take(chatID int64) (models.PendingPrompt, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.pending[chatID]
	if ok {
		delete(t.pending, chatID)
	}
	return p, ok
}

// Clear removes a pending prompt without reading it, e.g. when a new
// command supersedes it.
func (t *Tracker) Clear(chatID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.pending, chatID)
}
