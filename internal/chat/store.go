// Package chat holds the per-document chat state and the controller that
// drives question/answer round trips against the backend.
package chat

import (
	"sync"

	"github.com/liliang-cn/pdfchat/internal/domain"
)

// Store is a plain state container. It does not enforce cross-field
// invariants; the Controller is responsible for those. Each method is a
// single point mutation, guarded so concurrent callers never observe a
// partial update.
type Store struct {
	mu        sync.RWMutex
	messages  []domain.Message
	sessionID string
	loading   bool
	err       string
}

// NewStore returns an empty store
func NewStore() *Store {
	return &Store{}
}

// SetSession replaces the current session id
func (s *Store) SetSession(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessionID = id
}

// AppendMessage adds msg to the end of the history
func (s *Store) AppendMessage(msg domain.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
}

// SetLoading sets the in-flight indicator
func (s *Store) SetLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = loading
}

// SetError records message as the last error; an empty message clears it.
// Loading is left untouched.
func (s *Store) SetError(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = message
}

// Reset returns the store to its initial state
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
	s.sessionID = ""
	s.loading = false
	s.err = ""
}

// SessionID returns the current session id, empty when absent
func (s *Store) SessionID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessionID
}

// Messages returns a copy of the history
func (s *Store) Messages() []domain.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Message{}, s.messages...)
}

// Len returns the number of messages
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// IsLoading reports whether a request is in flight
func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Error returns the last error, empty when absent
func (s *Store) Error() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Snapshot copies the whole state under one lock
func (s *Store) Snapshot() domain.ChatState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.ChatState{
		Messages:  append([]domain.Message{}, s.messages...),
		SessionID: s.sessionID,
		IsLoading: s.loading,
		Error:     s.err,
	}
}
