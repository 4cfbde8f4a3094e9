package session

import (
	"context"
	"sync"

	"github.com/vetwell/go-clinic-client/credstore"
)

// ActiveStore is the credential store the rest of the stack reads through.
// It delegates to whichever backend the remember-me choice selected; the
// transport and refresh coordinator hold it once and never see the switch.
type ActiveStore struct {
	mu      sync.RWMutex
	backend credstore.Store
}

var _ credstore.Store = (*ActiveStore)(nil)

// NewActiveStore starts out delegating to initial (normally the durable
// backend, so bootstrap finds credentials from a previous run).
func NewActiveStore(initial credstore.Store) *ActiveStore {
	return &ActiveStore{backend: initial}
}

// Use switches the backend for subsequent operations.
func (a *ActiveStore) Use(backend credstore.Store) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.backend = backend
}

func (a *ActiveStore) current() credstore.Store {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.backend
}

func (a *ActiveStore) Save(ctx context.Context, pair credstore.Pair) error {
	return a.current().Save(ctx, pair)
}

func (a *ActiveStore) Load(ctx context.Context) (*credstore.Pair, error) {
	return a.current().Load(ctx)
}

func (a *ActiveStore) Clear(ctx context.Context) error {
	return a.current().Clear(ctx)
}
