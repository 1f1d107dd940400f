package pendingstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"course-share/internal/domain"
)

func TestLocalPendingStore_PutAndTake(t *testing.T) {
	store := NewLocalPendingStore(t.TempDir(), 0o755)

	token, err := store.Put([]byte("archive bytes"))
	require.NoError(t, err)
	require.NotEmpty(t, token)

	data, err := store.Take(token)
	require.NoError(t, err)
	assert.Equal(t, []byte("archive bytes"), data)
}

func TestLocalPendingStore_TakeConsumesExactlyOnce(t *testing.T) {
	store := NewLocalPendingStore(t.TempDir(), 0o755)

	token, err := store.Put([]byte("payload"))
	require.NoError(t, err)

	_, err = store.Take(token)
	require.NoError(t, err)

	_, err = store.Take(token)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLocalPendingStore_TakeRejectsMalformedToken(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalPendingStore(dir, 0o755)

	// a path-like token must never reach the filesystem.
	_, err := store.Take("../../etc/passwd")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = store.Take("unknown-token")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLocalPendingStore_Discard(t *testing.T) {
	store := NewLocalPendingStore(t.TempDir(), 0o755)

	token, err := store.Put([]byte("payload"))
	require.NoError(t, err)

	store.Discard(token)

	_, err = store.Take(token)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// discarding twice (or a garbage token) must be harmless.
	store.Discard(token)
	store.Discard("not-a-uuid")
}

func TestLocalPendingStore_Sweep(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalPendingStore(dir, 0o755)

	token, err := store.Put([]byte("leftover"))
	require.NoError(t, err)

	store.Sweep()

	_, err = store.Take(token)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLocalPendingStore_PutCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "pending")
	store := NewLocalPendingStore(dir, 0o755)

	token, err := store.Put([]byte("payload"))
	require.NoError(t, err)

	data, err := store.Take(token)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)
}
