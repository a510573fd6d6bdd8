package identity

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewProducesFirstIdentity(t *testing.T) {
	id, err := New()
	require.NoError(t, err)
	require.NotEmpty(t, id.Fingerprint)
	require.Empty(t, id.RotatedFrom)
}

func TestRotatePreservesLineage(t *testing.T) {
	first, err := New()
	require.NoError(t, err)

	second, err := Rotate(first)
	require.NoError(t, err)

	require.NotEqual(t, first.Fingerprint, second.Fingerprint)
	require.Equal(t, first.Fingerprint, second.RotatedFrom)
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Load(ctx)
	require.ErrorIs(t, err, ErrNotFound)

	id, err := New()
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, id))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, id.Fingerprint, loaded.Fingerprint)
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "identity.json")
	store := NewFileStore(path, []byte("correct horse battery staple"))

	_, err := store.Load(ctx)
	require.ErrorIs(t, err, ErrNotFound)

	id, err := New()
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, id))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, id.Fingerprint, loaded.Fingerprint)
	require.Equal(t, id.KeyPair.Seed(), loaded.KeyPair.Seed())
}

func TestFileStoreRejectsWrongPassphrase(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "identity.json")
	writer := NewFileStore(path, []byte("correct horse battery staple"))

	id, err := New()
	require.NoError(t, err)
	require.NoError(t, writer.Save(ctx, id))

	reader := NewFileStore(path, []byte("wrong passphrase"))
	_, err = reader.Load(ctx)
	require.Error(t, err)
}
