package filestore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vetwell/go-clinic-client/credstore"
	"github.com/vetwell/go-clinic-client/credstore/filestore"
	clienterrors "github.com/vetwell/go-clinic-client/internal/errors"
)

func setupStore(t *testing.T) (*filestore.Store, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := filestore.New(dir)
	require.NoError(t, err)
	return store, dir
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, credstore.Pair{AccessToken: "A1", RefreshToken: "R1"}))

	pair, err := store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, pair)
	require.Equal(t, "A1", pair.AccessToken)
	require.Equal(t, "R1", pair.RefreshToken)
}

func TestLoadEmptyStore(t *testing.T) {
	store, _ := setupStore(t)

	pair, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Nil(t, pair)
}

func TestClearRemovesWhatSaveWrote(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, credstore.Pair{AccessToken: "A1", RefreshToken: "R1"}))
	require.NoError(t, store.Clear(ctx))

	pair, err := store.Load(ctx)
	require.NoError(t, err)
	require.Nil(t, pair, "clear must remove the same record save wrote")

	// Clearing an already-empty store is fine.
	require.NoError(t, store.Clear(ctx))
}

func TestPartialPairRejected(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	err := store.Save(ctx, credstore.Pair{AccessToken: "A1"})
	require.ErrorIs(t, err, clienterrors.ErrPartialCredentials)

	err = store.Save(ctx, credstore.Pair{RefreshToken: "R1"})
	require.ErrorIs(t, err, clienterrors.ErrPartialCredentials)

	pair, err := store.Load(ctx)
	require.NoError(t, err)
	require.Nil(t, pair, "a rejected save must leave nothing behind")
}

func TestSaveOverwritesPreviousPair(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, credstore.Pair{AccessToken: "A1", RefreshToken: "R1"}))
	require.NoError(t, store.Save(ctx, credstore.Pair{AccessToken: "A2", RefreshToken: "R2"}))

	pair, err := store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "A2", pair.AccessToken)
	require.Equal(t, "R2", pair.RefreshToken)
}

func TestCorruptFileReportedNotSilentlyAccepted(t *testing.T) {
	store, dir := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, credstore.Pair{AccessToken: "A1", RefreshToken: "R1"}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "credentials"), []byte("not ciphertext"), 0o600))

	_, err := store.Load(ctx)
	require.ErrorIs(t, err, clienterrors.ErrStoreCorrupt)
}

func TestCredentialFileEncryptedAtRest(t *testing.T) {
	store, dir := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, credstore.Pair{AccessToken: "super-secret-access", RefreshToken: "R1"}))

	raw, err := os.ReadFile(filepath.Join(dir, "credentials"))
	require.NoError(t, err)
	require.NotContains(t, string(raw), "super-secret-access")
}

func TestDeviceIDStableAcrossOpens(t *testing.T) {
	store, dir := setupStore(t)

	first, err := store.DeviceID()
	require.NoError(t, err)
	require.NotEmpty(t, first)

	reopened, err := filestore.New(dir)
	require.NoError(t, err)
	second, err := reopened.DeviceID()
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestReopenedStoreReadsExistingPair(t *testing.T) {
	store, dir := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, credstore.Pair{AccessToken: "A1", RefreshToken: "R1"}))

	reopened, err := filestore.New(dir)
	require.NoError(t, err)
	pair, err := reopened.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, pair)
	require.Equal(t, "A1", pair.AccessToken)
}
