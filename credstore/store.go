// Package credstore persists the access/refresh token pair between runs.
//
// The pair is stored as one record: there is never an observable state where
// one half is written and the other is not, and Clear removes exactly the
// record Save wrote.
package credstore

import (
	"context"

	"github.com/vetwell/go-clinic-client/internal/errors"
)

// Pair is the persisted credential pair. Both fields are always present
// together; a pair with a missing half is never stored.
type Pair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Complete reports whether both halves are present.
func (p Pair) Complete() bool {
	return p.AccessToken != "" && p.RefreshToken != ""
}

// Store persists the credential pair. Implementations are safe for
// concurrent use. Load returns (nil, nil) when no pair is stored.
type Store interface {
	Save(ctx context.Context, pair Pair) error
	Load(ctx context.Context) (*Pair, error)
	Clear(ctx context.Context) error
}

// ValidatePair rejects pairs that would violate the both-or-nothing
// invariant. Stores call this before writing.
func ValidatePair(pair Pair) error {
	if !pair.Complete() {
		return errors.ErrPartialCredentials
	}
	return nil
}
