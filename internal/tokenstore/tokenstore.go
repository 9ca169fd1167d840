// Package tokenstore persists the session's access and refresh tokens.
package tokenstore

import "sync"

// Tokens is the persisted credential pair. Empty strings mean absent.
type Tokens struct {
	Access  string
	Refresh string
}

// Empty reports whether no access token is stored.
func (t Tokens) Empty() bool {
	return t.Access == ""
}

// Store is the durable side of a session.
type Store interface {
	Load() (Tokens, error)
	Save(Tokens) error
	Clear() error
}

// Memory is an in-process Store.
type Memory struct {
	mu     sync.Mutex
	tokens Tokens
	saves  int
}

// NewMemory returns a Memory holding initial.
func NewMemory(initial Tokens) *Memory {
	return &Memory{tokens: initial}
}

func (m *Memory) Load() (Tokens, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens, nil
}

func (m *Memory) Save(t Tokens) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = t
	m.saves++
	return nil
}

func (m *Memory) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = Tokens{}
	return nil
}

// Saves counts successful Save calls.
func (m *Memory) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
