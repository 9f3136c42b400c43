package cache

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	a := Key("photos/cat.jpg", "200x100,C", ".jpg")
	b := Key("photos/cat.jpg", "200x100,C", ".jpg")
	assert.Equal(t, a, b, "same inputs must give the same key")
	assert.True(t, strings.HasSuffix(a, ".jpg"))
	assert.Len(t, a, 16+len(".jpg"))

	assert.NotEqual(t, a, Key("photos/cat.jpg", "200x100", ".jpg"))
	assert.NotEqual(t, a, Key("photos/dog.jpg", "200x100,C", ".jpg"))

	// The separator keeps path/spec boundaries distinct.
	assert.NotEqual(t, Key("ab", "c", ""), Key("a", "bc", ""))
}

func TestMemory_SetGet(t *testing.T) {
	m := NewMemory()

	ok, err := m.Contains("k")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = m.Get("k")
	assert.ErrorIs(t, err, ErrMiss)

	data := []byte("rendered")
	require.NoError(t, m.Set("k", data))
	data[0] = 'X'

	ok, err = m.Contains("k")
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := m.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("rendered"), got, "Set must copy its input")

	got[0] = 'Y'
	again, _ := m.Get("k")
	assert.Equal(t, []byte("rendered"), again, "Get must return a copy")
	assert.Equal(t, 1, m.Len())
}

func TestMemory_DeleteAndClear(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Set("a", []byte("1")))
	require.NoError(t, m.Set("b", []byte("2")))

	require.NoError(t, m.Delete("a"))
	require.NoError(t, m.Delete("missing"))
	assert.Equal(t, 1, m.Len())

	m.Clear()
	assert.Equal(t, 0, m.Len())
}

func TestMemory_Prune(t *testing.T) {
	m := NewMemory()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set("old", []byte("1")))
	now = now.Add(2 * time.Hour)
	require.NoError(t, m.Set("new", []byte("2")))

	removed, err := m.Prune(time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	ok, _ := m.Contains("old")
	assert.False(t, ok)
	ok, _ = m.Contains("new")
	assert.True(t, ok)
}

func TestMemory_Concurrent(t *testing.T) {
	m := NewMemory()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := Key("p", string(rune('a'+i)), "")
			_ = m.Set(key, []byte{byte(i)})
			_, _ = m.Get(key)
			_, _ = m.Contains(key)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 16, m.Len())
}

func TestLocal_SetGet(t *testing.T) {
	base := t.TempDir()
	l := NewLocal(base)
	key := Key("photos/cat.jpg", "200x100", ".jpg")

	ok, err := l.Contains(key)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = l.Get(key)
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, l.Set(key, []byte("jpeg bytes")))

	ok, err = l.Contains(key)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := l.Get(key)
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg bytes"), got)

	// Stored in a two-character shard directory.
	_, err = os.Stat(filepath.Join(base, key[:2], key))
	assert.NoError(t, err)

	info, err := os.Stat(filepath.Join(base, key[:2], key))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())
}

func TestLocal_Overwrite(t *testing.T) {
	l := NewLocal(t.TempDir())
	require.NoError(t, l.Set("abcdef.png", []byte("one")))
	require.NoError(t, l.Set("abcdef.png", []byte("two")))

	got, err := l.Get("abcdef.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), got)
}

func TestLocal_Delete(t *testing.T) {
	l := NewLocal(t.TempDir())
	require.NoError(t, l.Set("abcdef.png", []byte("x")))
	require.NoError(t, l.Delete("abcdef.png"))
	require.NoError(t, l.Delete("abcdef.png"))

	ok, err := l.Contains("abcdef.png")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLocal_Prune(t *testing.T) {
	base := t.TempDir()
	l := NewLocal(base)
	require.NoError(t, l.Set("aaaa.jpg", []byte("old")))
	require.NoError(t, l.Set("bbbb.jpg", []byte("new")))

	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(base, "aa", "aaaa.jpg"), old, old))

	removed, err := l.Prune(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	ok, _ := l.Contains("aaaa.jpg")
	assert.False(t, ok)
	ok, _ = l.Contains("bbbb.jpg")
	assert.True(t, ok)
}

func TestLocal_PruneMissingBase(t *testing.T) {
	l := NewLocal(filepath.Join(t.TempDir(), "never-created"))
	removed, err := l.Prune(time.Hour)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestBackendsSatisfyInterfaces(t *testing.T) {
	var _ Cache = NewMemory()
	var _ Deleter = NewMemory()
	var _ Pruner = NewMemory()
	var _ Cache = NewLocal("")
	var _ Deleter = NewLocal("")
	var _ Pruner = NewLocal("")
	var _ Cache = (*S3)(nil)
	var _ Deleter = (*S3)(nil)
	var _ Cache = (*SFTP)(nil)
	var _ Deleter = (*SFTP)(nil)
	var _ Pruner = (*SFTP)(nil)
}
