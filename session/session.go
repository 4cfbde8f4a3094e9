// Package session owns the process-wide authentication state: one explicit
// state machine, queried as a single coherent snapshot, never as separate
// flags that can disagree.
package session

import (
	"github.com/vetwell/go-clinic-client/clinicapi"
)

// Phase is the lifecycle phase of the session.
type Phase string

const (
	PhaseUninitialized   Phase = "uninitialized"
	PhaseInitializing    Phase = "initializing"
	PhaseAuthenticated   Phase = "authenticated"
	PhaseUnauthenticated Phase = "unauthenticated"
	PhaseSigningIn       Phase = "signing_in"
)

// Snapshot is the session state as one value. User is non-nil exactly when
// Phase is PhaseAuthenticated.
type Snapshot struct {
	Phase     Phase
	User      *clinicapi.UserProfile
	LastError string
}

// Authenticated reports whether the snapshot represents a signed-in user.
func (s Snapshot) Authenticated() bool {
	return s.Phase == PhaseAuthenticated && s.User != nil
}
