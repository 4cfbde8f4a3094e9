// Package memstore is the process-lifetime credential store backend, used
// when the user declines "remember me": the pair vanishes when the process
// exits. Tests use it as a fake for the other backends.
package memstore

import (
	"context"
	"sync"

	"github.com/vetwell/go-clinic-client/credstore"
)

// Store holds the credential pair in memory.
type Store struct {
	mu   sync.RWMutex
	pair *credstore.Pair
}

var _ credstore.Store = (*Store)(nil)

func New() *Store {
	return &Store{}
}

func (s *Store) Save(_ context.Context, pair credstore.Pair) error {
	if err := credstore.ValidatePair(pair); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p := pair
	s.pair = &p
	return nil
}

func (s *Store) Load(_ context.Context) (*credstore.Pair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.pair == nil {
		return nil, nil
	}
	p := *s.pair
	return &p, nil
}

func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = nil
	return nil
}
