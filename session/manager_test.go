package session_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vetwell/go-clinic-client/clinicapi"
	"github.com/vetwell/go-clinic-client/credstore"
	"github.com/vetwell/go-clinic-client/credstore/memstore"
	clienterrors "github.com/vetwell/go-clinic-client/internal/errors"
	"github.com/vetwell/go-clinic-client/session"
	"github.com/vetwell/go-clinic-client/transport"
)

const (
	testEmail    = "a@b.com"
	testPassword = "x"
)

var testProfile = clinicapi.UserProfile{ID: 7, Email: testEmail, FirstName: "Ann", LastName: "Whitfield"}

// clinicStub is a scripted clinic API: one fixed login, bearer-checked /auth/me.
type clinicStub struct {
	validAccess  string
	loginTokens  *clinicapi.TokenPair // nil means login is rejected
	loginPayload string               // overrides the login body when set
}

func (c *clinicStub) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+clinicapi.RouteLogin, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if c.loginPayload != "" {
			_, _ = w.Write([]byte(c.loginPayload))
			return
		}
		if c.loginTokens == nil || req.Email != testEmail || req.Password != testPassword {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(clinicapi.ErrorResponse{Message: "invalid email or password"})
			return
		}
		_ = json.NewEncoder(w).Encode(clinicapi.TokenResponse{Tokens: *c.loginTokens})
	})
	mux.HandleFunc("GET "+clinicapi.RouteMe, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+c.validAccess {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(testProfile)
	})
	return mux
}

type testFixture struct {
	stub      *clinicStub
	stores    session.Stores
	durable   *memstore.Store
	ephemeral *memstore.Store
	manager   *session.Manager
	logouts   int
}

func setupTestFixture(t *testing.T, stub *clinicStub) *testFixture {
	t.Helper()

	srv := httptest.NewServer(stub.handler())
	t.Cleanup(srv.Close)

	durable := memstore.New()
	ephemeral := memstore.New()
	stores := session.Stores{
		Active:    session.NewActiveStore(durable),
		Durable:   durable,
		Ephemeral: ephemeral,
	}

	// The manager's behaviour does not depend on the retrying pipeline, so
	// the tests drive it without a refresher: a rejected /auth/me surfaces
	// as the 401 the pipeline would have surfaced after a failed refresh.
	api, err := clinicapi.New(srv.URL, transport.New(stores.Active, nil, 10*time.Second))
	require.NoError(t, err)

	f := &testFixture{stub: stub, stores: stores, durable: durable, ephemeral: ephemeral}
	manager, err := session.NewManager(api, stores, session.WithLogoutHook(func() { f.logouts++ }))
	require.NoError(t, err)
	f.manager = manager
	return f
}

func TestBootstrapWithoutStoredTokens(t *testing.T) {
	f := setupTestFixture(t, &clinicStub{})

	require.Equal(t, session.PhaseUninitialized, f.manager.Snapshot().Phase)
	require.NoError(t, f.manager.Bootstrap(context.Background()))

	snap := f.manager.Snapshot()
	require.Equal(t, session.PhaseUnauthenticated, snap.Phase)
	require.Nil(t, snap.User)
	require.Empty(t, snap.LastError)
}

func TestBootstrapWithValidStoredToken(t *testing.T) {
	f := setupTestFixture(t, &clinicStub{validAccess: "A1"})
	require.NoError(t, f.durable.Save(context.Background(), credstore.Pair{AccessToken: "A1", RefreshToken: "R1"}))

	require.NoError(t, f.manager.Bootstrap(context.Background()))

	snap := f.manager.Snapshot()
	require.True(t, snap.Authenticated())
	require.EqualValues(t, 7, snap.User.ID)
}

func TestBootstrapWithRejectedStoredToken(t *testing.T) {
	f := setupTestFixture(t, &clinicStub{validAccess: "A-current"})
	require.NoError(t, f.durable.Save(context.Background(), credstore.Pair{AccessToken: "A-stale", RefreshToken: "R-stale"}))

	require.NoError(t, f.manager.Bootstrap(context.Background()))

	snap := f.manager.Snapshot()
	require.Equal(t, session.PhaseUnauthenticated, snap.Phase)
	require.Nil(t, snap.User)

	stored, err := f.durable.Load(context.Background())
	require.NoError(t, err)
	require.Nil(t, stored, "rejected credentials must be cleared")
}

func TestBootstrapTwiceRejected(t *testing.T) {
	f := setupTestFixture(t, &clinicStub{})
	require.NoError(t, f.manager.Bootstrap(context.Background()))
	require.Error(t, f.manager.Bootstrap(context.Background()))
}

func TestSignInSuccess(t *testing.T) {
	f := setupTestFixture(t, &clinicStub{
		validAccess: "A1",
		loginTokens: &clinicapi.TokenPair{AccessToken: "A1", RefreshToken: "R1"},
	})
	require.NoError(t, f.manager.Bootstrap(context.Background()))

	profile, err := f.manager.SignIn(context.Background(), testEmail, testPassword, true)
	require.NoError(t, err)
	require.EqualValues(t, 7, profile.ID)
	require.Equal(t, "Ann", profile.FirstName)

	snap := f.manager.Snapshot()
	require.True(t, snap.Authenticated())
	require.EqualValues(t, 7, snap.User.ID)
	require.Empty(t, snap.LastError)

	stored, err := f.durable.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, "A1", stored.AccessToken)
	require.Equal(t, "R1", stored.RefreshToken)
}

func TestSignInRejectedCredentials(t *testing.T) {
	f := setupTestFixture(t, &clinicStub{})
	require.NoError(t, f.manager.Bootstrap(context.Background()))

	profile, err := f.manager.SignIn(context.Background(), testEmail, "wrong", true)
	require.ErrorIs(t, err, clienterrors.ErrInvalidCredentials)
	require.Nil(t, profile)

	snap := f.manager.Snapshot()
	require.Equal(t, session.PhaseUnauthenticated, snap.Phase)
	require.NotEmpty(t, snap.LastError, "a user-facing message is recorded")

	stored, err := f.durable.Load(context.Background())
	require.NoError(t, err)
	require.Nil(t, stored)
}

func TestSignInMalformedTokenResponse(t *testing.T) {
	f := setupTestFixture(t, &clinicStub{loginPayload: `{"tokens":{"access_token":"A1"}}`})
	require.NoError(t, f.manager.Bootstrap(context.Background()))

	_, err := f.manager.SignIn(context.Background(), testEmail, testPassword, true)
	require.ErrorIs(t, err, clienterrors.ErrMalformedTokens)
	require.Equal(t, session.PhaseUnauthenticated, f.manager.Snapshot().Phase)
}

func TestSignInErrorClearedOnRetry(t *testing.T) {
	stub := &clinicStub{}
	f := setupTestFixture(t, stub)
	require.NoError(t, f.manager.Bootstrap(context.Background()))

	_, err := f.manager.SignIn(context.Background(), testEmail, "wrong", true)
	require.Error(t, err)
	require.NotEmpty(t, f.manager.Snapshot().LastError)

	stub.validAccess = "A1"
	stub.loginTokens = &clinicapi.TokenPair{AccessToken: "A1", RefreshToken: "R1"}

	_, err = f.manager.SignIn(context.Background(), testEmail, testPassword, true)
	require.NoError(t, err)
	require.Empty(t, f.manager.Snapshot().LastError)
}

func TestSignInWithoutRememberMeUsesEphemeralStore(t *testing.T) {
	f := setupTestFixture(t, &clinicStub{
		validAccess: "A1",
		loginTokens: &clinicapi.TokenPair{AccessToken: "A1", RefreshToken: "R1"},
	})
	require.NoError(t, f.manager.Bootstrap(context.Background()))
	// A leftover from an earlier remembered session.
	require.NoError(t, f.durable.Save(context.Background(), credstore.Pair{AccessToken: "old", RefreshToken: "old"}))

	_, err := f.manager.SignIn(context.Background(), testEmail, testPassword, false)
	require.NoError(t, err)

	durablePair, err := f.durable.Load(context.Background())
	require.NoError(t, err)
	require.Nil(t, durablePair, "session-only sign-in must not leave durable credentials")

	ephemeralPair, err := f.ephemeral.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, "A1", ephemeralPair.AccessToken)

	activePair, err := f.stores.Active.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, "A1", activePair.AccessToken)
}

func TestLogoutClearsEverythingAndRunsHooks(t *testing.T) {
	f := setupTestFixture(t, &clinicStub{
		validAccess: "A1",
		loginTokens: &clinicapi.TokenPair{AccessToken: "A1", RefreshToken: "R1"},
	})
	require.NoError(t, f.manager.Bootstrap(context.Background()))
	_, err := f.manager.SignIn(context.Background(), testEmail, testPassword, true)
	require.NoError(t, err)

	require.NoError(t, f.manager.Logout(context.Background()))

	snap := f.manager.Snapshot()
	require.Equal(t, session.PhaseUnauthenticated, snap.Phase)
	require.Nil(t, snap.User)

	stored, err := f.durable.Load(context.Background())
	require.NoError(t, err)
	require.Nil(t, stored)
	require.Equal(t, 1, f.logouts)
}

func TestHandleSessionExpired(t *testing.T) {
	f := setupTestFixture(t, &clinicStub{
		validAccess: "A1",
		loginTokens: &clinicapi.TokenPair{AccessToken: "A1", RefreshToken: "R1"},
	})
	require.NoError(t, f.manager.Bootstrap(context.Background()))
	_, err := f.manager.SignIn(context.Background(), testEmail, testPassword, true)
	require.NoError(t, err)

	f.manager.HandleSessionExpired()

	snap := f.manager.Snapshot()
	require.Equal(t, session.PhaseUnauthenticated, snap.Phase)
	require.Nil(t, snap.User)
	require.NotEmpty(t, snap.LastError)

	stored, err := f.stores.Active.Load(context.Background())
	require.NoError(t, err)
	require.Nil(t, stored)
	require.Equal(t, 1, f.logouts)
}
