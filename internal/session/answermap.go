package session

import (
	"sync"

	"github.com/google/uuid"
)

// AnswerMap is the live question-id → value mapping for one attempt:
// the single source of truth for what the candidate has answered so far.
// Absence of a key means "unanswered" — an empty string is never stored
// as a sentinel. Writes are last-write-wins per key.
type AnswerMap struct {
	mu sync.RWMutex
	m  map[uuid.UUID]string
}

// NewAnswerMap creates an empty AnswerMap.
func NewAnswerMap() *AnswerMap {
	return &AnswerMap{m: make(map[uuid.UUID]string)}
}

// Set merges one key into the map, preserving all other keys.
// Setting an empty value removes the key instead of storing a sentinel.
func (a *AnswerMap) Set(questionID uuid.UUID, value string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if value == "" {
		delete(a.m, questionID)
		return
	}
	a.m[questionID] = value
}

// Get returns the stored value for a question, if any.
func (a *AnswerMap) Get(questionID uuid.UUID) (string, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	v, ok := a.m[questionID]
	return v, ok
}

// Delete removes a question's entry.
func (a *AnswerMap) Delete(questionID uuid.UUID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.m, questionID)
}

// Len returns the number of answered questions.
func (a *AnswerMap) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.m)
}

// Snapshot returns a copy of the current state. Consumers (payload
// builder, autosave flush) always read a snapshot taken at invocation
// time, never a live reference.
func (a *AnswerMap) Snapshot() map[uuid.UUID]string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make(map[uuid.UUID]string, len(a.m))
	for k, v := range a.m {
		out[k] = v
	}
	return out
}

// Restore loads previously saved answers (e.g. from the Redis mirror on
// resume). Keys that fail to parse as UUIDs and empty values are skipped.
func (a *AnswerMap) Restore(saved map[string]string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for k, v := range saved {
		id, err := uuid.Parse(k)
		if err != nil || v == "" {
			continue
		}
		a.m[id] = v
	}
}
