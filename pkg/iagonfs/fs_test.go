package iagonfs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iagon-community/iagon-go/internal/iagon"
)

// fakeGateway is an in-memory Iagon gateway good enough for filesystem
// tests: directories, uploads, downloads and listings over a real tree.
type fakeGateway struct {
	t   *testing.T
	srv *httptest.Server

	mu     sync.Mutex
	nextID int
	dirs   map[string]*fakeDir  // by ID
	files  map[string]*fakeFile // by ID

	// conflictOnCreate makes the next create of this name return 409
	// without creating anything, to exercise the mkdir race path.
	conflictOnCreate string
}

type fakeDir struct {
	id, name, parent string
}

type fakeFile struct {
	id, name, ext, dirID string
	data                 []byte
}

func newFakeGateway(t *testing.T) *fakeGateway {
	t.Helper()

	g := &fakeGateway{
		t:     t,
		dirs:  map[string]*fakeDir{},
		files: map[string]*fakeFile{},
	}

	g.srv = httptest.NewServer(http.HandlerFunc(g.handle))
	t.Cleanup(g.srv.Close)

	return g
}

func (g *fakeGateway) newID(prefix string) string {
	g.nextID++
	return fmt.Sprintf("%s-%d", prefix, g.nextID)
}

// addDir seeds a directory directly, bypassing the API.
func (g *fakeGateway) addDir(name, parent string) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.newID("dir")
	g.dirs[id] = &fakeDir{id: id, name: name, parent: parent}

	return id
}

// addFile seeds a file directly, bypassing the API.
func (g *fakeGateway) addFile(name, ext, dirID string, data []byte) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.newID("f")
	g.files[id] = &fakeFile{id: id, name: name, ext: ext, dirID: dirID, data: data}

	return id
}

func (g *fakeGateway) handle(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	switch {
	case path == "/storage/directory/create":
		g.handleCreate(w, r)
	case strings.HasPrefix(path, "/storage/list/"):
		g.list(w, "")
	case strings.HasPrefix(path, "/storage/directory/") && strings.HasSuffix(path, "/list"):
		ids := strings.Split(strings.TrimSuffix(strings.TrimPrefix(path, "/storage/directory/"), "/list"), "/")
		g.handleListDir(w, ids)
	case strings.HasPrefix(path, "/storage/directory/") && r.Method == http.MethodDelete:
		g.handleDelete(w, strings.TrimPrefix(path, "/storage/directory/"))
	case path == "/storage/upload/":
		g.handleUpload(w, r)
	case path == "/storage/download/":
		g.handleDownload(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (g *fakeGateway) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name   string  `json:"directory_name"`
		Parent *string `json:"parent_directory_id"`
	}

	require.NoError(g.t, json.NewDecoder(r.Body).Decode(&req))

	parent := ""
	if req.Parent != nil {
		parent = *req.Parent
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.conflictOnCreate == req.Name {
		g.conflictOnCreate = ""
		// The "winner" created it just before us.
		id := g.newID("dir")
		g.dirs[id] = &fakeDir{id: id, name: req.Name, parent: parent}

		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"directory exists"}`))

		return
	}

	for _, d := range g.dirs {
		if d.parent == parent && d.name == req.Name {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"message":"directory exists"}`))

			return
		}
	}

	id := g.newID("dir")
	g.dirs[id] = &fakeDir{id: id, name: req.Name, parent: parent}

	_, _ = fmt.Fprintf(w,
		`{"success":true,"data":{"_id":%q,"directory_name":%q,"parent_directory_id":%q}}`,
		id, req.Name, parent)
}

func (g *fakeGateway) handleListDir(w http.ResponseWriter, ids []string) {
	g.mu.Lock()
	last := ids[len(ids)-1]
	_, ok := g.dirs[last]
	g.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"directory not found"}`))

		return
	}

	g.list(w, last)
}

func (g *fakeGateway) list(w http.ResponseWriter, parent string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	type dirJSON struct {
		ID     string `json:"_id"`
		Name   string `json:"directory_name"`
		Parent string `json:"parent_directory_id"`
	}

	type fileJSON struct {
		ID     string `json:"_id"`
		Name   string `json:"name"`
		Ext    string `json:"ext"`
		Parent string `json:"parent_directory_id"`
		Size   int64  `json:"file_size_byte_native"`
	}

	out := struct {
		Success bool `json:"success"`
		Data    struct {
			Files       []fileJSON `json:"files"`
			Directories []dirJSON  `json:"directories"`
		} `json:"data"`
	}{Success: true}

	out.Data.Files = []fileJSON{}
	out.Data.Directories = []dirJSON{}

	for _, d := range g.dirs {
		if d.parent == parent {
			out.Data.Directories = append(out.Data.Directories,
				dirJSON{ID: d.id, Name: d.name, Parent: d.parent})
		}
	}

	for _, f := range g.files {
		if f.dirID == parent {
			out.Data.Files = append(out.Data.Files,
				fileJSON{ID: f.id, Name: f.name, Ext: f.ext, Parent: f.dirID, Size: int64(len(f.data))})
		}
	}

	require.NoError(g.t, json.NewEncoder(w).Encode(out))
}

func (g *fakeGateway) handleDelete(w http.ResponseWriter, id string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.dirs[id]; !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"directory not found"}`))

		return
	}

	// Recursive delete.
	doomed := map[string]bool{id: true}

	for changed := true; changed; {
		changed = false

		for _, d := range g.dirs {
			if doomed[d.parent] && !doomed[d.id] {
				doomed[d.id] = true
				changed = true
			}
		}
	}

	for did := range doomed {
		delete(g.dirs, did)
	}

	for fid, f := range g.files {
		if doomed[f.dirID] {
			delete(g.files, fid)
		}
	}

	_, _ = w.Write([]byte(`{"success":true}`))
}

func (g *fakeGateway) handleUpload(w http.ResponseWriter, r *http.Request) {
	require.NoError(g.t, r.ParseMultipartForm(1<<20))

	file, _, err := r.FormFile("file")
	require.NoError(g.t, err)
	defer file.Close()

	data, err := io.ReadAll(file)
	require.NoError(g.t, err)

	name := r.FormValue("filename")
	ext := ""

	if idx := strings.LastIndex(name, "."); idx > 0 {
		ext = name[idx+1:]
		name = name[:idx]
	}

	id := g.addFile(name, ext, r.FormValue("directoryId"), data)

	_, _ = fmt.Fprintf(w, `{"success":true,"data":{"id":%q}}`, id)
}

func (g *fakeGateway) handleDownload(w http.ResponseWriter, r *http.Request) {
	require.NoError(g.t, r.ParseForm())

	g.mu.Lock()
	f, ok := g.files[r.PostForm.Get("id")]
	g.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"file not found"}`))

		return
	}

	_, _ = w.Write(f.data)
}

func newTestFS(t *testing.T, g *fakeGateway) *FS {
	t.Helper()

	client := iagon.NewClient(g.srv.URL, http.DefaultClient,
		iagon.StaticToken("test-token"), slog.Default())

	return New(client, Config{})
}

func TestStat(t *testing.T) {
	gw := newFakeGateway(t)
	photos := gw.addDir("photos", "")
	gw.addFile("report", "pdf", "", []byte("12345"))
	gw.addFile("vacation", "jpg", photos, []byte("img"))

	fsys := newTestFS(t, gw)
	ctx := context.Background()

	root, err := fsys.Stat(ctx, "/")
	require.NoError(t, err)
	assert.True(t, root.IsDir)

	dir, err := fsys.Stat(ctx, "photos")
	require.NoError(t, err)
	assert.True(t, dir.IsDir)
	assert.Equal(t, photos, dir.ID)

	file, err := fsys.Stat(ctx, "report.pdf")
	require.NoError(t, err)
	assert.False(t, file.IsDir)
	assert.Equal(t, int64(5), file.Size)

	nested, err := fsys.Stat(ctx, "/photos/vacation.jpg")
	require.NoError(t, err)
	assert.Equal(t, "vacation.jpg", nested.Name)

	_, err = fsys.Stat(ctx, "photos/missing.txt")
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestExists(t *testing.T) {
	gw := newFakeGateway(t)
	gw.addDir("photos", "")

	fsys := newTestFS(t, gw)
	ctx := context.Background()

	ok, err := fsys.Exists(ctx, "photos")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = fsys.Exists(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReadDir(t *testing.T) {
	gw := newFakeGateway(t)
	photos := gw.addDir("photos", "")
	gw.addFile("a", "txt", photos, []byte("a"))
	gw.addFile("b", "txt", photos, []byte("bb"))

	fsys := newTestFS(t, gw)

	entries, err := fsys.ReadDir(context.Background(), "photos")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	names := []string{entries[0].Name, entries[1].Name}
	sort.Strings(names)
	assert.Equal(t, []string{"a.txt", "b.txt"}, names)
}

func TestReadDir_Empty(t *testing.T) {
	gw := newFakeGateway(t)
	gw.addDir("empty", "")

	fsys := newTestFS(t, gw)

	entries, err := fsys.ReadDir(context.Background(), "empty")
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestReadDir_Missing(t *testing.T) {
	gw := newFakeGateway(t)
	fsys := newTestFS(t, gw)

	_, err := fsys.ReadDir(context.Background(), "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestWriteFileReadFileRoundTrip(t *testing.T) {
	gw := newFakeGateway(t)
	fsys := newTestFS(t, gw)
	ctx := context.Background()

	content := []byte("hello iagon")

	fileID, err := fsys.WriteFile(ctx, "docs/2026/notes.txt", content)
	require.NoError(t, err)
	assert.NotEmpty(t, fileID)

	// Parents were created on the way.
	ok, err := fsys.Exists(ctx, "docs/2026")
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := fsys.ReadFile(ctx, "docs/2026/notes.txt")
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestOpen_Streams(t *testing.T) {
	gw := newFakeGateway(t)
	gw.addFile("big", "bin", "", []byte("streamed content"))

	fsys := newTestFS(t, gw)

	r, err := fsys.Open(context.Background(), "big.bin")
	require.NoError(t, err)
	defer r.Close()

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "streamed content", string(got))
}

func TestOpen_Directory(t *testing.T) {
	gw := newFakeGateway(t)
	gw.addDir("photos", "")

	fsys := newTestFS(t, gw)

	_, err := fsys.Open(context.Background(), "photos")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is a directory")
}

func TestMkdirAll(t *testing.T) {
	gw := newFakeGateway(t)
	fsys := newTestFS(t, gw)
	ctx := context.Background()

	dirID, err := fsys.MkdirAll(ctx, "a/b/c")
	require.NoError(t, err)
	assert.NotEmpty(t, dirID)

	entry, err := fsys.Stat(ctx, "a/b/c")
	require.NoError(t, err)
	assert.Equal(t, dirID, entry.ID)

	// Idempotent: existing directories are reused, not duplicated.
	again, err := fsys.MkdirAll(ctx, "a/b/c")
	require.NoError(t, err)
	assert.Equal(t, dirID, again)
}

func TestMkdirAll_LostCreationRace(t *testing.T) {
	gw := newFakeGateway(t)
	gw.conflictOnCreate = "shared"

	fsys := newTestFS(t, gw)

	// The create returns 409 because "someone else" made the directory
	// between our list and create; the existing directory is resolved.
	dirID, err := fsys.MkdirAll(context.Background(), "shared")
	require.NoError(t, err)
	assert.NotEmpty(t, dirID)
}

func TestRemoveDir(t *testing.T) {
	gw := newFakeGateway(t)
	photos := gw.addDir("photos", "")
	gw.addFile("x", "jpg", photos, []byte("x"))

	fsys := newTestFS(t, gw)
	ctx := context.Background()

	require.NoError(t, fsys.RemoveDir(ctx, "photos"))

	ok, err := fsys.Exists(ctx, "photos")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRemoveDir_Root(t *testing.T) {
	gw := newFakeGateway(t)
	fsys := newTestFS(t, gw)

	err := fsys.RemoveDir(context.Background(), "/")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot remove root")
}

func TestSplitPath(t *testing.T) {
	assert.Nil(t, splitPath(""))
	assert.Nil(t, splitPath("/"))
	assert.Nil(t, splitPath("."))
	assert.Equal(t, []string{"a"}, splitPath("/a/"))
	assert.Equal(t, []string{"a", "b", "c"}, splitPath("a/b/c"))
}

func TestFileDisplayName(t *testing.T) {
	assert.Equal(t, "report.pdf", fileDisplayName(&iagon.File{Name: "report", Ext: "pdf"}))
	assert.Equal(t, "report.pdf", fileDisplayName(&iagon.File{Name: "report.pdf", Ext: "pdf"}))
	assert.Equal(t, "README", fileDisplayName(&iagon.File{Name: "README"}))
}
