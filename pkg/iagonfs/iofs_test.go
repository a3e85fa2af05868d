package iagonfs

import (
	"context"
	"io"
	"io/fs"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIOFS_WalkDir(t *testing.T) {
	gw := newFakeGateway(t)
	docs := gw.addDir("docs", "")
	sub := gw.addDir("2026", docs)
	gw.addFile("readme", "md", "", []byte("root file"))
	gw.addFile("notes", "txt", sub, []byte("nested"))

	fsys := newTestFS(t, gw).IOFS(context.Background())

	var visited []string

	err := fs.WalkDir(fsys, ".", func(path string, _ fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		visited = append(visited, path)

		return nil
	})
	require.NoError(t, err)

	sort.Strings(visited)
	assert.Equal(t, []string{".", "docs", "docs/2026", "docs/2026/notes.txt", "readme.md"}, visited)
}

func TestIOFS_ReadFile(t *testing.T) {
	gw := newFakeGateway(t)
	gw.addFile("readme", "md", "", []byte("content here"))

	fsys := newTestFS(t, gw).IOFS(context.Background())

	data, err := fs.ReadFile(fsys, "readme.md")
	require.NoError(t, err)
	assert.Equal(t, "content here", string(data))
}

func TestIOFS_Open(t *testing.T) {
	gw := newFakeGateway(t)
	gw.addFile("readme", "md", "", []byte("abc"))

	fsys := newTestFS(t, gw).IOFS(context.Background())

	f, err := fsys.Open("readme.md")
	require.NoError(t, err)
	defer f.Close()

	info, err := f.Stat()
	require.NoError(t, err)
	assert.Equal(t, "readme.md", info.Name())
	assert.Equal(t, int64(3), info.Size())
	assert.False(t, info.IsDir())

	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(data))
}

func TestIOFS_OpenInvalidPath(t *testing.T) {
	gw := newFakeGateway(t)
	fsys := newTestFS(t, gw).IOFS(context.Background())

	_, err := fsys.Open("/absolute")
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrInvalid)
}

func TestIOFS_OpenMissing(t *testing.T) {
	gw := newFakeGateway(t)
	fsys := newTestFS(t, gw).IOFS(context.Background())

	_, err := fsys.Open("missing.txt")
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestIOFS_Stat(t *testing.T) {
	gw := newFakeGateway(t)
	gw.addDir("photos", "")

	fsys := newTestFS(t, gw).IOFS(context.Background())

	v, ok := fsys.(fs.StatFS)
	require.True(t, ok)

	info, err := v.Stat("photos")
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.True(t, info.Mode().IsDir())
}

func TestIOFS_DirReadDirChunks(t *testing.T) {
	gw := newFakeGateway(t)
	photos := gw.addDir("photos", "")
	gw.addFile("a", "txt", photos, []byte("a"))
	gw.addFile("b", "txt", photos, []byte("b"))
	gw.addFile("c", "txt", photos, []byte("c"))

	fsys := newTestFS(t, gw).IOFS(context.Background())

	f, err := fsys.Open("photos")
	require.NoError(t, err)
	defer f.Close()

	dir, ok := f.(fs.ReadDirFile)
	require.True(t, ok)

	first, err := dir.ReadDir(2)
	require.NoError(t, err)
	assert.Len(t, first, 2)

	second, err := dir.ReadDir(2)
	require.NoError(t, err)
	assert.Len(t, second, 1)

	_, err = dir.ReadDir(2)
	assert.ErrorIs(t, err, io.EOF)
}
