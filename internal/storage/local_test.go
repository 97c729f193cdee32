package storage

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocalStore(t *testing.T) (*LocalStore, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := NewLocalStore(dir)
	require.NoError(t, err)
	return s, dir
}

func TestLocalStore_Put(t *testing.T) {
	s, dir := newTestLocalStore(t)

	obj, err := s.Put(testContext(t), 7, []byte("jpeg-bytes"), "Pho.JPG")
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(obj.Name, ".jpg"), "extension kept and lower-cased")
	assert.Equal(t, "/uploads/"+obj.Name, obj.PublicPath)
	assert.NotContains(t, obj.PublicPath, dir, "public path must not leak the filesystem location")
	assert.Equal(t, filepath.Join(dir, obj.Name), obj.Locator)

	data, err := os.ReadFile(obj.Locator)
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))
}

func TestLocalStore_PutGeneratesUniqueNames(t *testing.T) {
	s, _ := newTestLocalStore(t)

	a, err := s.Put(testContext(t), 1, []byte("a"), "x.png")
	require.NoError(t, err)
	b, err := s.Put(testContext(t), 1, []byte("b"), "x.png")
	require.NoError(t, err)

	assert.NotEqual(t, a.Name, b.Name)
}

func TestLocalStore_PutFailsWhenDirIsGone(t *testing.T) {
	s, dir := newTestLocalStore(t)
	require.NoError(t, os.RemoveAll(dir))

	_, err := s.Put(testContext(t), 1, []byte("a"), "x.png")
	require.Error(t, err)
}

func TestLocalStore_ReadOpenDelete(t *testing.T) {
	s, _ := newTestLocalStore(t)
	obj, err := s.Put(testContext(t), 1, []byte("hello"), "x.webp")
	require.NoError(t, err)

	data, err := s.Read(testContext(t), obj.Locator)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	rc, size, err := s.Open(testContext(t), obj.Locator)
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, int64(5), size)
	assert.Equal(t, "hello", string(body))

	require.NoError(t, s.Delete(testContext(t), obj.Locator))
	_, err = s.Read(testContext(t), obj.Locator)
	assert.ErrorIs(t, err, ErrObjectNotFound)

	// deleting again is fine
	require.NoError(t, s.Delete(testContext(t), obj.Locator))
}

func TestLocalStore_Locate(t *testing.T) {
	s, dir := newTestLocalStore(t)

	loc, err := s.Locate("abc.jpg")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "abc.jpg"), loc)

	for _, bad := range []string{"", "..", "../etc/passwd", "a/b.jpg", `a\b.jpg`} {
		_, err := s.Locate(bad)
		assert.ErrorIs(t, err, ErrInvalidName, bad)
	}
}

func TestMinIOStore_Locate(t *testing.T) {
	m := &MinIOStore{bucket: "b"}

	loc, err := m.Locate("abc.png")
	require.NoError(t, err)
	assert.Equal(t, "images/abc.png", loc)

	_, err = m.Locate("../abc.png")
	assert.ErrorIs(t, err, ErrInvalidName)
}
