package session

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/vetwell/go-clinic-client/clinicapi"
	"github.com/vetwell/go-clinic-client/credstore"
	clienterrors "github.com/vetwell/go-clinic-client/internal/errors"
)

// User-facing messages recorded on the snapshot; pages render these
// verbatim.
const (
	msgInvalidCredentials = "Invalid email or password."
	msgSignInFailed       = "Unable to sign in right now. Please try again."
	msgSessionExpired     = "Your session has expired. Please sign in again."
)

// Stores holds the credential store backends the manager chooses between.
type Stores struct {
	Active    *ActiveStore    // the view the transport reads through
	Durable   credstore.Store // survives restarts; remember-me = true
	Ephemeral credstore.Store // process lifetime only; remember-me = false
}

// Manager drives the session lifecycle. One instance per process.
type Manager struct {
	stores Stores
	api    *clinicapi.Client

	mu          sync.RWMutex
	snap        Snapshot
	logoutHooks []func()
}

// Option modifies the Manager.
type Option func(*Manager)

// WithLogoutHook registers a side effect run after every transition to
// Unauthenticated that ends a signed-in session (explicit logout or expiry).
func WithLogoutHook(fn func()) Option {
	return func(m *Manager) {
		m.logoutHooks = append(m.logoutHooks, fn)
	}
}

// NewManager creates the session manager.
func NewManager(api *clinicapi.Client, stores Stores, options ...Option) (*Manager, error) {
	if api == nil {
		return nil, errors.New("[session.NewManager] api client is required")
	}
	if stores.Active == nil || stores.Durable == nil || stores.Ephemeral == nil {
		return nil, errors.New("[session.NewManager] all stores are required")
	}

	m := &Manager{
		stores: stores,
		api:    api,
		snap:   Snapshot{Phase: PhaseUninitialized},
	}
	for _, opt := range options {
		opt(m)
	}
	return m, nil
}

// Snapshot returns the current session state as one value.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snap
}

// Bootstrap seeds the session from stored credentials. Called once at
// process start, from PhaseUninitialized.
func (m *Manager) Bootstrap(ctx context.Context) error {
	if phase := m.Snapshot().Phase; phase != PhaseUninitialized {
		return errors.Errorf("[Manager.Bootstrap] called in phase %q", phase)
	}
	m.setPhase(PhaseInitializing)

	pair, err := m.stores.Active.Load(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("stored credentials unreadable, starting signed out")
		_ = m.stores.Active.Clear(ctx)
		m.setUnauthenticated("")
		return nil
	}
	if pair == nil {
		m.setUnauthenticated("")
		return nil
	}

	if exp, ok := credstore.AccessTokenExpiry(pair.AccessToken); ok {
		log.Debug().Time("expires_at", exp).Msg("bootstrapping from stored credentials")
	}

	profile, err := m.api.Me(ctx)
	if err != nil {
		log.Info().Err(err).Msg("stored credentials rejected, signing out")
		if err := m.Logout(ctx); err != nil {
			return errors.Wrap(err, "[Manager.Bootstrap] logout")
		}
		return nil
	}

	m.setAuthenticated(profile)
	return nil
}

// SignIn exchanges credentials for a session. rememberMe selects the durable
// backend; otherwise the pair lives only for this process. On success the
// fetched profile is returned so the caller can build the post-login
// redirect.
func (m *Manager) SignIn(ctx context.Context, email, password string, rememberMe bool) (*clinicapi.UserProfile, error) {
	m.setPhase(PhaseSigningIn)
	m.setLastError("")

	pair, err := m.api.Login(ctx, email, password)
	if err != nil {
		msg := msgSignInFailed
		if clienterrors.Is(err, clienterrors.ErrInvalidCredentials) || clienterrors.Is(err, clienterrors.ErrMalformedTokens) {
			msg = msgInvalidCredentials
		}
		m.setUnauthenticated(msg)
		return nil, errors.Wrap(err, "[Manager.SignIn] login")
	}

	backend := m.stores.Ephemeral
	if rememberMe {
		backend = m.stores.Durable
	} else {
		// A previous remembered session must not resurface after this one.
		if err := m.stores.Durable.Clear(ctx); err != nil {
			log.Warn().Err(err).Msg("clearing durable store on session-only sign-in")
		}
	}
	m.stores.Active.Use(backend)

	if err := m.stores.Active.Save(ctx, pair); err != nil {
		m.setUnauthenticated(msgSignInFailed)
		return nil, errors.Wrap(err, "[Manager.SignIn] save credentials")
	}

	profile, err := m.api.Me(ctx)
	if err != nil {
		if lerr := m.Logout(ctx); lerr != nil {
			log.Error().Err(lerr).Msg("logout after failed profile fetch")
		}
		m.setLastError(msgSignInFailed)
		return nil, errors.Wrap(err, "[Manager.SignIn] fetch profile")
	}

	m.setAuthenticated(profile)
	log.Info().Int64("user_id", profile.ID).Msg("signed in")
	return profile, nil
}

// Logout ends the session: credentials cleared, user dropped, hooks run.
// Safe to call from any phase.
func (m *Manager) Logout(ctx context.Context) error {
	wasSignedIn := m.Snapshot().Authenticated()

	if err := m.stores.Active.Clear(ctx); err != nil {
		return errors.Wrap(err, "[Manager.Logout] clear credentials")
	}
	m.setUnauthenticated("")

	if wasSignedIn {
		log.Info().Msg("signed out")
	}
	m.runLogoutHooks()
	return nil
}

// HandleSessionExpired is wired to the refresh coordinator's expiry
// callback. The coordinator has already cleared the store by the time this
// runs.
func (m *Manager) HandleSessionExpired() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Clear again through the active view in case the backends diverged.
	if err := m.stores.Active.Clear(ctx); err != nil {
		log.Error().Err(err).Msg("clearing credentials on session expiry")
	}
	m.setUnauthenticated(msgSessionExpired)
	m.runLogoutHooks()
}

func (m *Manager) setPhase(phase Phase) {
	m.mu.Lock()
	defer m.mu.Unlock()
	log.Debug().Str("from", string(m.snap.Phase)).Str("to", string(phase)).Msg("session phase")
	m.snap.Phase = phase
}

func (m *Manager) setLastError(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap.LastError = msg
}

func (m *Manager) setAuthenticated(profile *clinicapi.UserProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = Snapshot{Phase: PhaseAuthenticated, User: profile}
}

func (m *Manager) setUnauthenticated(lastError string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = Snapshot{Phase: PhaseUnauthenticated, LastError: lastError}
}

func (m *Manager) runLogoutHooks() {
	for _, hook := range m.logoutHooks {
		hook()
	}
}
