package client

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *CredentialStore {
	t.Helper()
	store, err := OpenCredentialStore(filepath.Join(t.TempDir(), "credentials.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestCredentialStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)

	got, err := store.Token(ctx)
	require.NoError(t, err)
	require.Empty(t, got, "fresh store must hold no token")

	require.NoError(t, store.SetToken(ctx, "tok-1"))
	got, err = store.Token(ctx)
	require.NoError(t, err)
	require.Equal(t, "tok-1", got)

	require.NoError(t, store.SetToken(ctx, "tok-2"))
	got, err = store.Token(ctx)
	require.NoError(t, err)
	require.Equal(t, "tok-2", got, "set must overwrite, not duplicate")

	require.NoError(t, store.ClearToken(ctx))
	got, err = store.Token(ctx)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestCredentialStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "credentials.db")

	store, err := OpenCredentialStore(path)
	require.NoError(t, err)
	require.NoError(t, store.SetToken(ctx, "tok-persist"))
	require.NoError(t, store.Close())

	reopened, err := OpenCredentialStore(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	got, err := reopened.Token(ctx)
	require.NoError(t, err)
	require.Equal(t, "tok-persist", got)
}

func TestCredentialStoreSubscribe(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)

	events, cancel := store.Subscribe()
	defer cancel()

	require.NoError(t, store.SetToken(ctx, "tok-1"))
	select {
	case ev := <-events:
		require.Equal(t, "tok-1", ev.Token)
	case <-time.After(time.Second):
		t.Fatal("no event after SetToken")
	}

	require.NoError(t, store.ClearToken(ctx))
	select {
	case ev := <-events:
		require.Empty(t, ev.Token, "clear must broadcast an empty token")
	case <-time.After(time.Second):
		t.Fatal("no event after ClearToken")
	}
}

func TestCredentialStoreUnsubscribeStopsEvents(t *testing.T) {
	ctx := context.Background()
	store := testStore(t)

	events, cancel := store.Subscribe()
	cancel()

	_, open := <-events
	require.False(t, open, "cancel must close the channel")

	// Must not panic or block with no live subscribers.
	require.NoError(t, store.SetToken(ctx, "tok-1"))
}
