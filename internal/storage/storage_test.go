package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/franciscosanchezn/testigo-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocal(t *testing.T) *LocalStorage {
	st, err := NewLocalStorage(Config{BasePath: t.TempDir(), BaseURL: "http://localhost:8080/uploads/"})
	require.NoError(t, err)
	return st
}

func TestLocalStorage_Lifecycle(t *testing.T) {
	ctx := context.Background()
	st := newLocal(t)

	require.NoError(t, st.Save(ctx, "testimonials/a.txt", strings.NewReader("hello"), "text/plain"))

	exists, err := st.Exists(ctx, "testimonials/a.txt")
	require.NoError(t, err)
	assert.True(t, exists)

	rc, err := st.Open(ctx, "testimonials/a.txt")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	assert.Equal(t, "http://localhost:8080/uploads/testimonials/a.txt", st.URL("testimonials/a.txt"))

	require.NoError(t, st.Delete(ctx, "testimonials/a.txt"))
	exists, err = st.Exists(ctx, "testimonials/a.txt")
	require.NoError(t, err)
	assert.False(t, exists)

	// Deleting twice is not an error
	assert.NoError(t, st.Delete(ctx, "testimonials/a.txt"))
}

func TestLocalStorage_StaysInsideBasePath(t *testing.T) {
	ctx := context.Background()
	st := newLocal(t)

	require.NoError(t, st.Save(ctx, "../../escape.txt", strings.NewReader("x"), "text/plain"))
	_, err := os.Stat(filepath.Join(st.BasePath(), "escape.txt"))
	assert.NoError(t, err)

	assert.ErrorIs(t, st.Save(ctx, "/", strings.NewReader("x"), "text/plain"), ErrInvalidPath)
}

func TestNewStorage(t *testing.T) {
	st, err := NewStorage(Config{Type: "local", BasePath: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, "/uploads/x.png", st.URL("x.png"))

	_, err = NewStorage(Config{Type: "s3"})
	assert.Error(t, err)
}

func TestSaveUpload(t *testing.T) {
	ctx := context.Background()
	st := newLocal(t)

	stored, err := SaveUpload(ctx, st, testutil.FileHeader(t, "photo.png", testutil.PNG), "image", "testimonials", 1<<20)
	require.NoError(t, err)
	assert.Equal(t, "image/png", stored.ContentType)
	assert.Equal(t, "photo.png", stored.FileName)
	assert.True(t, strings.HasPrefix(stored.Path, "testimonials/"))
	assert.True(t, strings.HasSuffix(stored.Path, ".png"))

	exists, err := st.Exists(ctx, stored.Path)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestSaveUpload_Rejects(t *testing.T) {
	ctx := context.Background()
	st := newLocal(t)

	var mediaErr *MediaError

	_, err := SaveUpload(ctx, st, testutil.FileHeader(t, "photo.png", testutil.PNG), "video", "testimonials", 1<<20)
	require.ErrorAs(t, err, &mediaErr)
	assert.Contains(t, mediaErr.Message, "video")

	_, err = SaveUpload(ctx, st, testutil.FileHeader(t, "notes.png", []byte("plain text pretending")), "image", "testimonials", 1<<20)
	require.ErrorAs(t, err, &mediaErr)

	_, err = SaveUpload(ctx, st, testutil.FileHeader(t, "big.png", testutil.PNG), "image", "testimonials", 10)
	require.ErrorAs(t, err, &mediaErr)
	assert.Contains(t, mediaErr.Message, "maximum size")
}
