package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()

	_, ok, err := store.Get(KeyCart)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(KeyCart, "[]"))
	v, ok, err := store.Get(KeyCart)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", v)

	require.NoError(t, store.Delete(KeyCart))
	require.NoError(t, store.Delete(KeyCart))
	_, ok, _ = store.Get(KeyCart)
	assert.False(t, ok)
}

func TestFileStore_SharedAcrossViews(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")

	first, err := NewFileStore(path)
	require.NoError(t, err)
	second, err := NewFileStore(path)
	require.NoError(t, err)

	_, ok, err := second.Get(KeyToken)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, first.Set(KeyToken, "abc"))
	require.NoError(t, first.Set(KeyCart, `[{"id":1}]`))

	v, ok, err := second.Get(KeyToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc", v)

	require.NoError(t, second.Delete(KeyToken))
	_, ok, err = first.Get(KeyToken)
	require.NoError(t, err)
	assert.False(t, ok)

	v, _, err = first.Get(KeyCart)
	require.NoError(t, err)
	assert.Equal(t, `[{"id":1}]`, v)
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	store, err := NewFileStore(path)
	require.NoError(t, err)

	_, _, err = store.Get(KeyToken)
	assert.Error(t, err)
}

func TestContext_Token(t *testing.T) {
	ctx := NewContext(NewMemoryStore())
	assert.Equal(t, "", ctx.Token())

	require.NoError(t, ctx.SetToken("tok"))
	assert.Equal(t, "tok", ctx.Token())

	require.NoError(t, ctx.ClearToken())
	assert.Equal(t, "", ctx.Token())
}
